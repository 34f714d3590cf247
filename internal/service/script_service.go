package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/scriptdesk-api/internal/dto"
	"github.com/noah-isme/scriptdesk-api/internal/events"
	"github.com/noah-isme/scriptdesk-api/internal/models"
	"github.com/noah-isme/scriptdesk-api/internal/observability"
	"github.com/noah-isme/scriptdesk-api/internal/repository"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

const maxScriptPageSize = 100

// ScriptService orchestrates the script lifecycle.
type ScriptService interface {
	Create(ctx context.Context, actor workflow.Actor, req dto.ScriptCreateRequest) (dto.ScriptResponse, error)
	Update(ctx context.Context, id uint, actor workflow.Actor, req dto.ScriptUpdateRequest) (dto.ScriptResponse, error)
	Delete(ctx context.Context, id uint, actor workflow.Actor) error
	TransitionStatus(ctx context.Context, id uint, actor workflow.Actor, target string) (dto.ScriptResponse, error)
	Get(ctx context.Context, id uint) (dto.ScriptResponse, error)
	List(ctx context.Context, req dto.ScriptListRequest) (dto.ScriptListResponse, error)
}

// ScriptRepositories groups the stores the script service reads and writes.
type ScriptRepositories struct {
	Scripts  repository.ScriptRepository
	Projects repository.ProjectRepository
	Topics   repository.TopicRepository
	Users    repository.UserRepository
}

type scriptService struct {
	scripts   repository.ScriptRepository
	projects  repository.ProjectRepository
	topics    repository.TopicRepository
	users     repository.UserRepository
	validator *validator.Validate
	activity  ActivityRecorder
	publisher events.Publisher
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewScriptService wires the script service. publisher may be nil.
func NewScriptService(repos ScriptRepositories, validate *validator.Validate, activity ActivityRecorder, publisher events.Publisher, logger zerolog.Logger) ScriptService {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &scriptService{
		scripts:   repos.Scripts,
		projects:  repos.Projects,
		topics:    repos.Topics,
		users:     repos.Users,
		validator: validate,
		activity:  activity,
		publisher: publisher,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "script_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/scriptdesk-api/internal/service/script"),
		now:       time.Now,
	}
}

func (s *scriptService) Create(ctx context.Context, actor workflow.Actor, req dto.ScriptCreateRequest) (dto.ScriptResponse, error) {
	if err := workflow.Authorize(actor, nil, workflow.ActionCreateScript); err != nil {
		return dto.ScriptResponse{}, err
	}
	if err := validateStruct(s.validator, req); err != nil {
		return dto.ScriptResponse{}, err
	}

	problems := &ValidationError{}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		problems.Add("title", "is required")
	}
	broadcastDate, err := parseBroadcastDate(req.BroadcastDate)
	if err != nil {
		problems.Add("broadcast_date", err.Error())
	}
	if err := problems.OrNil(); err != nil {
		return dto.ScriptResponse{}, err
	}

	exists, err := s.users.Exists(ctx, actor.ID)
	if err != nil {
		return dto.ScriptResponse{}, storageError("user.exists", err)
	}
	if !exists {
		return dto.ScriptResponse{}, ErrUserNotFound
	}

	if err := s.checkReferences(ctx, &req.ProjectID, &req.TopicIDs); err != nil {
		return dto.ScriptResponse{}, err
	}

	now := s.now().UTC()
	script := models.Script{
		Title:          title,
		EpisodeNumber:  trimOptional(req.EpisodeNumber),
		AuthorID:       actor.ID,
		ProjectID:      req.ProjectID,
		Content:        s.sanitizer.Sanitize(req.Content),
		Status:         workflow.InitialStatus,
		BroadcastDate:  broadcastDate,
		AudioLink:      strings.TrimSpace(req.AudioLink),
		SubmissionDate: now,
		LastUpdated:    now,
		CreatedAt:      now,
	}

	if err := s.scripts.Create(ctx, &script, req.TopicIDs); err != nil {
		return dto.ScriptResponse{}, storageError("script.create", err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionCreated,
		EntityType: EntityScript,
		EntityID:   script.ID,
		Details:    fmt.Sprintf("Created script: %s", script.Title),
	})

	return s.load(ctx, script.ID)
}

func (s *scriptService) Update(ctx context.Context, id uint, actor workflow.Actor, req dto.ScriptUpdateRequest) (dto.ScriptResponse, error) {
	if req.Empty() {
		return dto.ScriptResponse{}, NewValidationError("body", "must contain at least one field")
	}
	if err := validateStruct(s.validator, req); err != nil {
		return dto.ScriptResponse{}, err
	}

	script, err := s.scripts.GetByID(ctx, id)
	if err != nil {
		return dto.ScriptResponse{}, lookupError("script.get", err, ErrScriptNotFound)
	}

	ref := script.Ref()
	for _, action := range requiredUpdateActions(req) {
		if err := workflow.Authorize(actor, ref, action); err != nil {
			return dto.ScriptResponse{}, err
		}
	}

	problems := &ValidationError{}
	if req.Title != nil {
		if title := strings.TrimSpace(*req.Title); title == "" {
			problems.Add("title", "must not be empty")
		} else {
			script.Title = title
		}
	}
	if req.BroadcastDate != nil {
		broadcastDate, err := parseBroadcastDate(*req.BroadcastDate)
		if err != nil {
			problems.Add("broadcast_date", err.Error())
		}
		script.BroadcastDate = broadcastDate
	}
	if err := problems.OrNil(); err != nil {
		return dto.ScriptResponse{}, err
	}

	if err := s.checkReferences(ctx, req.ProjectID, req.TopicIDs); err != nil {
		return dto.ScriptResponse{}, err
	}

	if req.EpisodeNumber != nil {
		script.EpisodeNumber = trimOptional(req.EpisodeNumber)
	}
	if req.ProjectID != nil {
		script.ProjectID = *req.ProjectID
	}
	if req.Content != nil {
		script.Content = s.sanitizer.Sanitize(*req.Content)
	}
	if req.ReviewComments != nil {
		script.ReviewComments = s.sanitizer.Sanitize(strings.TrimSpace(*req.ReviewComments))
	}
	if req.AudioLink != nil {
		script.AudioLink = strings.TrimSpace(*req.AudioLink)
	}
	script.LastUpdated = s.now().UTC()

	if err := s.scripts.Update(ctx, &script, req.TopicIDs); err != nil {
		return dto.ScriptResponse{}, storageError("script.update", err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionUpdated,
		EntityType: EntityScript,
		EntityID:   script.ID,
		Details:    fmt.Sprintf("Updated script: %s", script.Title),
		Metadata:   map[string]interface{}{"fields": updatedFields(req)},
	})

	return s.load(ctx, script.ID)
}

func (s *scriptService) Delete(ctx context.Context, id uint, actor workflow.Actor) error {
	script, err := s.scripts.GetByID(ctx, id)
	if err != nil {
		return lookupError("script.get", err, ErrScriptNotFound)
	}

	if err := workflow.Authorize(actor, script.Ref(), workflow.ActionDeleteScript); err != nil {
		return err
	}

	if err := s.scripts.Delete(ctx, id); err != nil {
		return lookupError("script.delete", err, ErrScriptNotFound)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionDeleted,
		EntityType: EntityScript,
		EntityID:   id,
		Details:    fmt.Sprintf("Deleted script: %s", script.Title),
	})
	return nil
}

// TransitionStatus moves a script along one edge of the workflow. Standing to
// transition is checked first, then the edge itself, then the edge's actor.
func (s *scriptService) TransitionStatus(ctx context.Context, id uint, actor workflow.Actor, target string) (dto.ScriptResponse, error) {
	ctx, span := s.tracer.Start(ctx, "script.transition")
	defer span.End()
	span.SetAttributes(
		attribute.Int("script.id", int(id)),
		attribute.String("script.target_status", target),
		attribute.String("actor.role", actor.Role.String()),
	)

	to, err := workflow.ParseStatus(target)
	if err != nil {
		span.SetStatus(codes.Error, "unknown status")
		return dto.ScriptResponse{}, NewValidationError("status", "must be a workflow state")
	}

	script, err := s.scripts.GetByID(ctx, id)
	if err != nil {
		err = lookupError("script.get", err, ErrScriptNotFound)
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return dto.ScriptResponse{}, err
	}

	from := script.Status
	span.SetAttributes(attribute.String("script.current_status", from.String()))
	ref := script.Ref()

	if err := workflow.Authorize(actor, ref, workflow.ActionTransitionScript); err != nil {
		return dto.ScriptResponse{}, s.rejectTransition(span, from, to, "denied", err)
	}

	edge, err := workflow.Transition(from, to)
	if err != nil {
		return dto.ScriptResponse{}, s.rejectTransition(span, from, to, "invalid", err)
	}

	if err := workflow.AuthorizeTransition(actor, ref, edge); err != nil {
		return dto.ScriptResponse{}, s.rejectTransition(span, from, to, "denied", err)
	}

	now := s.now().UTC()
	script.Status = edge.To
	script.LastUpdated = now
	switch edge.To {
	case workflow.StatusSubmitted:
		script.SubmissionDate = now
	case workflow.StatusArchived:
		script.IsArchived = true
	}

	if err := s.scripts.Update(ctx, &script, nil); err != nil {
		err = storageError("script.transition", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.ScriptResponse{}, err
	}

	observability.Transitions().WithLabelValues(from.String(), edge.To.String(), "ok").Inc()
	span.SetStatus(codes.Ok, "transitioned")

	s.publish(ctx, events.StatusChanged{
		ScriptID:   script.ID,
		ProjectID:  script.ProjectID,
		Title:      script.Title,
		AuthorID:   script.AuthorID,
		ActorID:    actor.ID,
		From:       from,
		To:         edge.To,
		OccurredAt: now,
	})

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionTransitioned,
		EntityType: EntityScript,
		EntityID:   script.ID,
		Details:    fmt.Sprintf("Moved script %s from %s to %s", script.Title, from, edge.To),
		Metadata:   map[string]interface{}{"from": from.String(), "to": edge.To.String(), "trigger": edge.Trigger},
	})

	return dto.NewScriptResponse(script), nil
}

func (s *scriptService) Get(ctx context.Context, id uint) (dto.ScriptResponse, error) {
	return s.load(ctx, id)
}

func (s *scriptService) List(ctx context.Context, req dto.ScriptListRequest) (dto.ScriptListResponse, error) {
	filter := repository.ScriptFilter{
		ProjectID: req.ProjectID,
		AuthorID:  strings.TrimSpace(req.AuthorID),
		Search:    strings.TrimSpace(req.Search),
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, err := workflow.ParseStatus(raw)
		if err != nil {
			return dto.ScriptListResponse{}, NewValidationError("status", "must be a workflow state")
		}
		filter.Status = status
	}
	if filter.PageSize > maxScriptPageSize {
		filter.PageSize = maxScriptPageSize
	}

	scripts, total, err := s.scripts.List(ctx, filter)
	if err != nil {
		return dto.ScriptListResponse{}, storageError("script.list", err)
	}

	return dto.ScriptListResponse{
		Items:      dto.NewScriptResponseSlice(scripts),
		Pagination: dto.NewPaginationMeta(filter.Page, filter.PageSize, total),
	}, nil
}

func (s *scriptService) load(ctx context.Context, id uint) (dto.ScriptResponse, error) {
	script, err := s.scripts.GetByID(ctx, id)
	if err != nil {
		return dto.ScriptResponse{}, lookupError("script.get", err, ErrScriptNotFound)
	}
	return dto.NewScriptResponse(script), nil
}

// checkReferences verifies that a referenced project and topics exist. nil
// arguments are skipped.
func (s *scriptService) checkReferences(ctx context.Context, projectID *uint, topicIDs *[]uint) error {
	problems := &ValidationError{}

	if projectID != nil {
		exists, err := s.projects.Exists(ctx, *projectID)
		if err != nil {
			return storageError("project.exists", err)
		}
		if !exists {
			problems.Add("project_id", "does not reference an existing project")
		}
	}

	if topicIDs != nil && len(*topicIDs) > 0 {
		missing, err := s.topics.FindMissing(ctx, *topicIDs)
		if err != nil {
			return storageError("topic.find", err)
		}
		if len(missing) > 0 {
			problems.Add("topic_ids", fmt.Sprintf("unknown topics %v", missing))
		}
	}

	return problems.OrNil()
}

func (s *scriptService) rejectTransition(span trace.Span, from, to workflow.Status, outcome string, err error) error {
	observability.Transitions().WithLabelValues(from.String(), to.String(), outcome).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	return err
}

func (s *scriptService) publish(ctx context.Context, event events.StatusChanged) {
	if err := s.publisher.PublishStatusChanged(ctx, event); err != nil {
		observability.EventPublishErrors().Inc()
		s.logger.Warn().Err(err).Uint("script_id", event.ScriptID).Msg("failed to publish status change")
	}
}

// requiredUpdateActions maps the fields present in an update to the actions
// that must be allowed.
func requiredUpdateActions(req dto.ScriptUpdateRequest) []workflow.Action {
	actions := make([]workflow.Action, 0, 3)
	if req.Title != nil || req.EpisodeNumber != nil || req.ProjectID != nil || req.Content != nil || req.TopicIDs != nil {
		actions = append(actions, workflow.ActionEditScript)
	}
	if req.AudioLink != nil || req.BroadcastDate != nil {
		actions = append(actions, workflow.ActionEditProduction)
	}
	if req.ReviewComments != nil {
		actions = append(actions, workflow.ActionReviewScript)
	}
	return actions
}

func updatedFields(req dto.ScriptUpdateRequest) []string {
	fields := make([]string, 0, 8)
	add := func(present bool, name string) {
		if present {
			fields = append(fields, name)
		}
	}
	add(req.Title != nil, "title")
	add(req.EpisodeNumber != nil, "episode_number")
	add(req.ProjectID != nil, "project_id")
	add(req.Content != nil, "content")
	add(req.ReviewComments != nil, "review_comments")
	add(req.BroadcastDate != nil, "broadcast_date")
	add(req.AudioLink != nil, "audio_link")
	add(req.TopicIDs != nil, "topic_ids")
	return fields
}

var errInvalidDate = errors.New("must be a date formatted as YYYY-MM-DD")

// parseBroadcastDate accepts an empty value as "no date".
func parseBroadcastDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dto.DateLayout, raw)
	if err != nil {
		return nil, errInvalidDate
	}
	return &parsed, nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
