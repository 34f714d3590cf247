package dto

import (
	"time"

	"github.com/noah-isme/scriptdesk-api/internal/models"
)

// FileMetadataRequest describes one file registered against a project.
type FileMetadataRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	Size int64  `json:"size" validate:"gte=0"`
	Type string `json:"type" validate:"max=128"`
	URL  string `json:"url" validate:"max=512"`
}

// FileBatchRequest registers several files at once.
type FileBatchRequest struct {
	Files []FileMetadataRequest `json:"files" validate:"required,min=1,dive"`
}

// ProjectFileResponse describes stored file metadata.
type ProjectFileResponse struct {
	ID         string    `json:"id"`
	ProjectID  uint      `json:"project_id"`
	UploadedBy string    `json:"uploaded_by"`
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"size_bytes"`
	MimeType   string    `json:"mime_type"`
	URL        string    `json:"url"`
	Checksum   string    `json:"checksum,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// NewProjectFileResponse converts a model into a DTO.
func NewProjectFileResponse(file models.ProjectFile) ProjectFileResponse {
	return ProjectFileResponse{
		ID:         file.ID,
		ProjectID:  file.ProjectID,
		UploadedBy: file.UploadedBy,
		Name:       file.Name,
		SizeBytes:  file.SizeBytes,
		MimeType:   file.MimeType,
		URL:        file.URL,
		Checksum:   file.Checksum,
		UploadedAt: file.UploadedAt,
	}
}

// NewProjectFileResponseSlice converts a slice of models into DTOs.
func NewProjectFileResponseSlice(files []models.ProjectFile) []ProjectFileResponse {
	responses := make([]ProjectFileResponse, 0, len(files))
	for _, file := range files {
		responses = append(responses, NewProjectFileResponse(file))
	}
	return responses
}
