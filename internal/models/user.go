package models

import (
	"strings"
	"time"

	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

// User is a station member known through the identity provider.
type User struct {
	ID              string        `gorm:"primaryKey;size:64" json:"id"`
	Email           *string       `gorm:"size:255;uniqueIndex" json:"email"`
	FirstName       string        `gorm:"size:128" json:"first_name"`
	LastName        string        `gorm:"size:128" json:"last_name"`
	ProfileImageURL string        `gorm:"size:512" json:"profile_image_url"`
	Role            workflow.Role `gorm:"size:30;not null;default:scriptwriter" json:"role"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// DisplayName joins first and last name, falling back to the email address.
func (u User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	if u.Email != nil {
		return *u.Email
	}
	return u.ID
}
