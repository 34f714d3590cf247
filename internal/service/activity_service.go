package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/scriptdesk-api/internal/dto"
	"github.com/noah-isme/scriptdesk-api/internal/models"
	"github.com/noah-isme/scriptdesk-api/internal/observability"
	"github.com/noah-isme/scriptdesk-api/internal/repository"
)

// Activity verbs and entity types written to the audit trail.
const (
	ActionCreated      = "created"
	ActionUpdated      = "updated"
	ActionDeleted      = "deleted"
	ActionTransitioned = "status_changed"
	ActionUploaded     = "uploaded"

	EntityScript  = "script"
	EntityProject = "project"
	EntityTopic   = "topic"
	EntityFiles   = "files"
)

// ActivityEntry captures the details required to persist an audit entry.
type ActivityEntry struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   uint
	Details    string
	Metadata   map[string]interface{}
}

// ActivityRecorder defines behaviour for recording activity logs.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error)
}

// ActivityService exposes methods to query and persist activity logs.
type ActivityService interface {
	ActivityRecorder
	LogActivity(ctx context.Context, actorID, action, entityType string, entityID uint, details string) (dto.ActivityResponse, error)
	Recent(ctx context.Context, limit int) ([]dto.ActivityResponse, error)
	List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
}

type activityService struct {
	repo   repository.ActivityLogRepository
	limit  int
	logger zerolog.Logger
}

// NewActivityService constructs the activity log service. recentLimit is the
// default size of the recent feed.
func NewActivityService(repo repository.ActivityLogRepository, recentLimit int, logger zerolog.Logger) ActivityService {
	if recentLimit <= 0 {
		recentLimit = 10
	}
	return &activityService{
		repo:   repo,
		limit:  recentLimit,
		logger: logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) LogActivity(ctx context.Context, actorID, action, entityType string, entityID uint, details string) (dto.ActivityResponse, error) {
	return s.Record(ctx, ActivityEntry{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	})
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	problems := &ValidationError{}
	if strings.TrimSpace(entry.ActorID) == "" {
		problems.Add("user_id", "is required")
	}
	if strings.TrimSpace(entry.Action) == "" {
		problems.Add("action", "is required")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		problems.Add("entity_type", "is required")
	}
	if err := problems.OrNil(); err != nil {
		return dto.ActivityResponse{}, err
	}

	model := models.ActivityLog{
		UserID:     strings.TrimSpace(entry.ActorID),
		Action:     strings.ToLower(strings.TrimSpace(entry.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:   entry.EntityID,
		Details:    strings.TrimSpace(entry.Details),
		Metadata:   sanitizeMetadata(entry.Metadata),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		return dto.ActivityResponse{}, storageError("activity.create", err)
	}

	return dto.NewActivityResponse(model), nil
}

func (s *activityService) Recent(ctx context.Context, limit int) ([]dto.ActivityResponse, error) {
	if limit <= 0 {
		limit = s.limit
	}
	if limit > 100 {
		limit = 100
	}

	entries, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, storageError("activity.recent", err)
	}
	return dto.NewActivityResponseSlice(entries), nil
}

func (s *activityService) List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	filter := repository.ActivityLogFilter{
		Page:       req.Page,
		PageSize:   req.PageSize,
		UserID:     strings.TrimSpace(req.UserID),
		Action:     strings.ToLower(strings.TrimSpace(req.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(req.EntityType)),
		EntityID:   req.EntityID,
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, storageError("activity.list", err)
	}

	return dto.ActivityListResponse{
		Items:      dto.NewActivityResponseSlice(entries),
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

// recordActivity writes one audit entry after a successful mutation. Failures
// are logged and counted, never returned.
func recordActivity(ctx context.Context, recorder ActivityRecorder, logger zerolog.Logger, entry ActivityEntry) {
	if recorder == nil {
		return
	}

	// the mutation already committed; a cancelled request must not drop its audit row
	ctx = context.WithoutCancel(ctx)
	if _, err := recorder.Record(ctx, entry); err != nil {
		observability.ActivityLogFailures().WithLabelValues(entry.EntityType).Inc()
		event := logger.Error().Err(err).
			Str("actor_id", entry.ActorID).
			Str("action", entry.Action).
			Str("entity_type", entry.EntityType).
			Uint("entity_id", entry.EntityID)
		var storageErr *StorageError
		if errors.As(err, &storageErr) {
			event = event.Str("op", storageErr.Op)
		}
		event.Msg("failed to persist activity log")
	}
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "email") || strings.Contains(lower, "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}
