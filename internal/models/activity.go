package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrActivityLogImmutable is returned when something tries to rewrite the audit trail.
var ErrActivityLogImmutable = errors.New("activity log entries are append-only")

// ActivityLog is one append-only audit entry for a mutating action.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	UserID     string            `gorm:"size:64;not null;index" json:"user_id"`
	Action     string            `gorm:"size:100;not null" json:"action"`
	EntityType string            `gorm:"size:50;not null;index:idx_activity_entity" json:"entity_type"`
	EntityID   uint              `gorm:"not null;index:idx_activity_entity" json:"entity_id"`
	Details    string            `gorm:"type:text" json:"details"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
	User       *User             `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}

func (ActivityLog) BeforeUpdate(*gorm.DB) error {
	return ErrActivityLogImmutable
}

func (ActivityLog) BeforeDelete(*gorm.DB) error {
	return ErrActivityLogImmutable
}
