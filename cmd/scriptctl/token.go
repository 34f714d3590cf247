package main

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/noah-isme/scriptdesk-api/internal/config"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

var tokenOpts struct {
	subject   string
	role      string
	email     string
	firstName string
	lastName  string
	ttl       time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an HS256 bearer token for local development",
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func init() {
	flags := tokenCmd.Flags()
	flags.StringVar(&tokenOpts.subject, "sub", "", "user id")
	flags.StringVar(&tokenOpts.role, "role", string(workflow.RoleScriptwriter), "workflow role")
	flags.StringVar(&tokenOpts.email, "email", "", "email claim")
	flags.StringVar(&tokenOpts.firstName, "first-name", "", "first name claim")
	flags.StringVar(&tokenOpts.lastName, "last-name", "", "last name claim")
	flags.DurationVar(&tokenOpts.ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("sub")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	signed, err := mintToken(cfg.JWTSecret, time.Now(), tokenOpts.subject, tokenOpts.role,
		tokenOpts.email, tokenOpts.firstName, tokenOpts.lastName, tokenOpts.ttl)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), signed)
	return nil
}

func mintToken(secret string, now time.Time, subject, role, email, firstName, lastName string, ttl time.Duration) (string, error) {
	parsed, err := workflow.ParseRole(role)
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"sub":  subject,
		"role": parsed.String(),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	if email != "" {
		claims["email"] = email
	}
	if firstName != "" {
		claims["first_name"] = firstName
	}
	if lastName != "" {
		claims["last_name"] = lastName
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
