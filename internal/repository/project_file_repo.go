package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/scriptdesk-api/internal/models"
)

// ProjectFileRepository persists file metadata per project.
type ProjectFileRepository interface {
	Append(ctx context.Context, files []models.ProjectFile) error
	ListByProject(ctx context.Context, projectID uint) ([]models.ProjectFile, error)
}

type projectFileRepository struct {
	db *gorm.DB
}

// NewProjectFileRepository constructs a repository for project file metadata.
func NewProjectFileRepository(db *gorm.DB) ProjectFileRepository {
	return &projectFileRepository{db: db}
}

// Append inserts the batch atomically. Existing rows are never replaced.
func (r *projectFileRepository) Append(ctx context.Context, files []models.ProjectFile) error {
	if len(files) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&files).Error
}

func (r *projectFileRepository) ListByProject(ctx context.Context, projectID uint) ([]models.ProjectFile, error) {
	var files []models.ProjectFile
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("uploaded_at ASC").
		Order("id ASC").
		Find(&files).Error
	return files, err
}
