package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scriptdesk-api/internal/service"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

type stubSyncer struct {
	identities []service.Identity
	err        error
}

func (s *stubSyncer) Sync(_ context.Context, identity service.Identity) (workflow.Actor, error) {
	s.identities = append(s.identities, identity)
	if s.err != nil {
		return workflow.Actor{}, s.err
	}
	role := workflow.RoleScriptwriter
	if identity.Role != "" {
		role = workflow.Role(identity.Role)
	}
	return workflow.Actor{ID: identity.Subject, Role: role}, nil
}

func authApp(syncer IdentitySyncer) *fiber.App {
	app := fiber.New()
	app.Use(JWTProtected(testSecret))
	app.Use(SyncIdentity(syncer, zerolog.New(io.Discard)))
	app.Get("/me", func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.JSON(fiber.Map{"id": actor.ID, "role": actor.Role})
	})
	return app
}

func authRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestJWTProtectedPassesClaimsToIdentitySync(t *testing.T) {
	syncer := &stubSyncer{}
	app := authApp(syncer)

	token := signToken(t, jwt.MapClaims{
		"sub":        "oidc|7",
		"role":       "Program_Manager",
		"email":      "pm@station.fm",
		"first_name": "Grace",
	})
	resp, err := app.Test(authRequest(token))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Len(t, syncer.identities, 1)
	identity := syncer.identities[0]
	require.Equal(t, "oidc|7", identity.Subject)
	require.Equal(t, "program_manager", identity.Role)
	require.Equal(t, "pm@station.fm", identity.Email)
	require.Equal(t, "Grace", identity.FirstName)
}

func TestJWTProtectedRejectsBadTokens(t *testing.T) {
	app := authApp(&stubSyncer{})

	cases := map[string]string{
		"missing": "",
		"garbage": "not-a-token",
		"wrong secret": func() string {
			token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("other"))
			return token
		}(),
		"expired":    signToken(t, jwt.MapClaims{"sub": "x", "exp": time.Now().Add(-time.Hour).Unix()}),
		"no subject": signToken(t, jwt.MapClaims{"role": "administrator"}),
	}

	for name, token := range cases {
		resp, err := app.Test(authRequest(token))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, name)
	}
}

func TestSyncIdentityMapsFailures(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "x", "role": "superuser"})

	invalid := authApp(&stubSyncer{err: service.NewValidationError("role", "is not a known role")})
	resp, err := invalid.Test(authRequest(token))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	down := authApp(&stubSyncer{err: &service.StorageError{Op: "user.upsert", Err: errors.New("db down")}})
	resp, err = down.Test(authRequest(token))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestSubjectAcceptsNumericClaims(t *testing.T) {
	require.Equal(t, "42", subjectFromClaims(jwt.MapClaims{"sub": float64(42)}))
	require.Equal(t, "abc", subjectFromClaims(jwt.MapClaims{"user_id": " abc "}))
	require.Equal(t, "radio_producer", roleFromClaims(jwt.MapClaims{"roles": []interface{}{"", "Radio_Producer"}}))
}
