package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/scriptdesk-api/internal/dto"
	"github.com/noah-isme/scriptdesk-api/internal/models"
	"github.com/noah-isme/scriptdesk-api/internal/repository"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

// Identity is what the identity provider asserts about the caller.
type Identity struct {
	Subject         string
	Role            string
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
}

// UserService keeps local user rows in step with identity claims.
type UserService interface {
	Sync(ctx context.Context, identity Identity) (workflow.Actor, error)
	Current(ctx context.Context, id string) (dto.UserResponse, error)
}

type userService struct {
	repo   repository.UserRepository
	logger zerolog.Logger
}

// NewUserService constructs the user service.
func NewUserService(repo repository.UserRepository, logger zerolog.Logger) UserService {
	return &userService{
		repo:   repo,
		logger: logger.With().Str("component", "user_service").Logger(),
	}
}

// Sync upserts the user described by identity and returns the resulting actor.
// A missing role claim falls back to scriptwriter; an unknown one is rejected.
func (s *userService) Sync(ctx context.Context, identity Identity) (workflow.Actor, error) {
	subject := strings.TrimSpace(identity.Subject)
	if subject == "" {
		return workflow.Actor{}, NewValidationError("sub", "is required")
	}

	role := workflow.RoleScriptwriter
	if raw := strings.TrimSpace(identity.Role); raw != "" {
		parsed, err := workflow.ParseRole(raw)
		if err != nil {
			return workflow.Actor{}, NewValidationError("role", "is not a known role")
		}
		role = parsed
	}

	user := models.User{
		ID:              subject,
		FirstName:       strings.TrimSpace(identity.FirstName),
		LastName:        strings.TrimSpace(identity.LastName),
		ProfileImageURL: strings.TrimSpace(identity.ProfileImageURL),
		Role:            role,
	}
	if email := strings.ToLower(strings.TrimSpace(identity.Email)); email != "" {
		user.Email = &email
	}

	if err := s.repo.Upsert(ctx, &user); err != nil {
		return workflow.Actor{}, storageError("user.upsert", err)
	}

	return workflow.Actor{ID: user.ID, Role: user.Role}, nil
}

func (s *userService) Current(ctx context.Context, id string) (dto.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.UserResponse{}, lookupError("user.get", err, ErrUserNotFound)
	}
	return dto.NewUserResponse(user), nil
}
