package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scriptdesk-api/internal/dto"
	"github.com/noah-isme/scriptdesk-api/internal/models"
	"github.com/noah-isme/scriptdesk-api/internal/repository"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

// ProjectService manages the projects scripts are grouped under.
type ProjectService interface {
	List(ctx context.Context) ([]dto.ProjectResponse, error)
	Get(ctx context.Context, id uint) (dto.ProjectResponse, error)
	Create(ctx context.Context, actor workflow.Actor, req dto.ProjectCreateRequest) (dto.ProjectResponse, error)
	Update(ctx context.Context, id uint, actor workflow.Actor, req dto.ProjectUpdateRequest) (dto.ProjectResponse, error)
	Delete(ctx context.Context, id uint, actor workflow.Actor) error
}

type projectService struct {
	repo      repository.ProjectRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewProjectService constructs the project service.
func NewProjectService(repo repository.ProjectRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) ProjectService {
	return &projectService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "project_service").Logger(),
	}
}

func (s *projectService) List(ctx context.Context) ([]dto.ProjectResponse, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, storageError("project.list", err)
	}
	return dto.NewProjectResponseSlice(projects), nil
}

func (s *projectService) Get(ctx context.Context, id uint) (dto.ProjectResponse, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.ProjectResponse{}, lookupError("project.get", err, ErrProjectNotFound)
	}
	return dto.NewProjectResponse(project), nil
}

func (s *projectService) Create(ctx context.Context, actor workflow.Actor, req dto.ProjectCreateRequest) (dto.ProjectResponse, error) {
	if err := workflow.Authorize(actor, nil, workflow.ActionManageProjects); err != nil {
		return dto.ProjectResponse{}, err
	}
	if err := validateStruct(s.validator, req); err != nil {
		return dto.ProjectResponse{}, err
	}

	name := strings.TrimSpace(req.Name)
	if err := s.ensureNameAvailable(ctx, name, 0); err != nil {
		return dto.ProjectResponse{}, err
	}

	project := models.Project{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.repo.Create(ctx, &project); err != nil {
		return dto.ProjectResponse{}, storageError("project.create", err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionCreated,
		EntityType: EntityProject,
		EntityID:   project.ID,
		Details:    fmt.Sprintf("Created project: %s", project.Name),
	})

	return dto.NewProjectResponse(project), nil
}

func (s *projectService) Update(ctx context.Context, id uint, actor workflow.Actor, req dto.ProjectUpdateRequest) (dto.ProjectResponse, error) {
	if err := workflow.Authorize(actor, nil, workflow.ActionManageProjects); err != nil {
		return dto.ProjectResponse{}, err
	}
	if req.Name == nil && req.Description == nil {
		return dto.ProjectResponse{}, NewValidationError("body", "must contain at least one field")
	}
	if err := validateStruct(s.validator, req); err != nil {
		return dto.ProjectResponse{}, err
	}

	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.ProjectResponse{}, lookupError("project.get", err, ErrProjectNotFound)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := s.ensureNameAvailable(ctx, name, project.ID); err != nil {
			return dto.ProjectResponse{}, err
		}
		project.Name = name
	}
	if req.Description != nil {
		project.Description = strings.TrimSpace(*req.Description)
	}

	if err := s.repo.Update(ctx, &project); err != nil {
		return dto.ProjectResponse{}, storageError("project.update", err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionUpdated,
		EntityType: EntityProject,
		EntityID:   project.ID,
		Details:    fmt.Sprintf("Updated project: %s", project.Name),
	})

	return dto.NewProjectResponse(project), nil
}

// Delete refuses to remove a project that still owns scripts.
func (s *projectService) Delete(ctx context.Context, id uint, actor workflow.Actor) error {
	if err := workflow.Authorize(actor, nil, workflow.ActionManageProjects); err != nil {
		return err
	}

	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return lookupError("project.get", err, ErrProjectNotFound)
	}

	count, err := s.repo.CountScripts(ctx, id)
	if err != nil {
		return storageError("project.count_scripts", err)
	}
	if count > 0 {
		return ErrProjectInUse
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError("project.delete", err, ErrProjectNotFound)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionDeleted,
		EntityType: EntityProject,
		EntityID:   id,
		Details:    fmt.Sprintf("Deleted project: %s", project.Name),
	})
	return nil
}

func (s *projectService) ensureNameAvailable(ctx context.Context, name string, excludeID uint) error {
	if name == "" {
		return NewValidationError("name", "is required")
	}
	taken, err := s.repo.NameTaken(ctx, name, excludeID)
	if err != nil {
		return storageError("project.name_taken", err)
	}
	if taken {
		return NewValidationError("name", "is already used by another project")
	}
	return nil
}
