package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

// Script is a single radio-show write-up tracked through the workflow.
type Script struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Title          string          `gorm:"size:255;not null" json:"title"`
	EpisodeNumber  *string         `gorm:"size:50" json:"episode_number"`
	AuthorID       string          `gorm:"size:64;not null;index" json:"author_id"`
	ProjectID      uint            `gorm:"not null;index" json:"project_id"`
	Content        string          `gorm:"type:text" json:"content"`
	Status         workflow.Status `gorm:"size:30;not null;default:draft;index" json:"status"`
	ReviewComments string          `gorm:"type:text" json:"review_comments"`
	BroadcastDate  *time.Time      `gorm:"type:date" json:"broadcast_date"`
	AudioLink      string          `gorm:"size:500" json:"audio_link"`
	IsArchived     bool            `gorm:"not null;default:false" json:"is_archived"`
	SubmissionDate time.Time       `json:"submission_date"`
	LastUpdated    time.Time       `gorm:"index" json:"last_updated"`
	CreatedAt      time.Time       `json:"created_at"`
	Author         User            `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"author"`
	Project        Project         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"project"`
	Topics         []Topic         `gorm:"-" json:"topics"`
}

// BeforeSave rejects statuses outside the workflow.
func (s *Script) BeforeSave(tx *gorm.DB) error {
	if s.Status == "" {
		s.Status = workflow.InitialStatus
	}
	if !s.Status.Valid() {
		return fmt.Errorf("script status %q is not a workflow state", s.Status)
	}
	return nil
}

// Ref returns the attributes permission rules are evaluated against.
func (s Script) Ref() *workflow.ScriptRef {
	return &workflow.ScriptRef{AuthorID: s.AuthorID, Status: s.Status}
}
