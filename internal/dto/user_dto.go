package dto

import (
	"time"

	"github.com/noah-isme/scriptdesk-api/internal/models"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

// UserResponse is the serialized representation of the current user.
type UserResponse struct {
	ID              string        `json:"id"`
	Email           string        `json:"email"`
	FirstName       string        `json:"first_name"`
	LastName        string        `json:"last_name"`
	DisplayName     string        `json:"display_name"`
	ProfileImageURL string        `json:"profile_image_url"`
	Role            workflow.Role `json:"role"`
	CreatedAt       time.Time     `json:"created_at"`
}

// UserSummary is the compact user embedded in scripts and activity entries.
type UserSummary struct {
	ID          string        `json:"id"`
	DisplayName string        `json:"display_name"`
	Role        workflow.Role `json:"role"`
}

// NewUserResponse converts a model into a DTO.
func NewUserResponse(user models.User) UserResponse {
	email := ""
	if user.Email != nil {
		email = *user.Email
	}
	return UserResponse{
		ID:              user.ID,
		Email:           email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		DisplayName:     user.DisplayName(),
		ProfileImageURL: user.ProfileImageURL,
		Role:            user.Role,
		CreatedAt:       user.CreatedAt,
	}
}

// NewUserSummary returns nil when the relation was not loaded.
func NewUserSummary(user models.User) *UserSummary {
	if user.ID == "" {
		return nil
	}
	return &UserSummary{ID: user.ID, DisplayName: user.DisplayName(), Role: user.Role}
}
