package models

import "time"

// ProjectFile is file metadata attached to a project. Rows are only ever appended.
type ProjectFile struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectID  uint      `gorm:"not null;index" json:"project_id"`
	UploadedBy string    `gorm:"size:64;not null" json:"uploaded_by"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	SizeBytes  int64     `gorm:"not null" json:"size_bytes"`
	MimeType   string    `gorm:"size:128" json:"mime_type"`
	URL        string    `gorm:"size:512" json:"url"`
	Checksum   string    `gorm:"size:128" json:"checksum"`
	UploadedAt time.Time `gorm:"not null;index" json:"uploaded_at"`
}
