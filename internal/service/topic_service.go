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

// TopicService manages the tags applied to scripts.
type TopicService interface {
	List(ctx context.Context) ([]dto.TopicResponse, error)
	Create(ctx context.Context, actor workflow.Actor, req dto.TopicCreateRequest) (dto.TopicResponse, error)
	Delete(ctx context.Context, id uint, actor workflow.Actor) error
}

type topicService struct {
	repo      repository.TopicRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewTopicService constructs the topic service.
func NewTopicService(repo repository.TopicRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) TopicService {
	return &topicService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "topic_service").Logger(),
	}
}

func (s *topicService) List(ctx context.Context) ([]dto.TopicResponse, error) {
	topics, err := s.repo.List(ctx)
	if err != nil {
		return nil, storageError("topic.list", err)
	}
	return dto.NewTopicResponseSlice(topics), nil
}

func (s *topicService) Create(ctx context.Context, actor workflow.Actor, req dto.TopicCreateRequest) (dto.TopicResponse, error) {
	if err := workflow.Authorize(actor, nil, workflow.ActionManageTopics); err != nil {
		return dto.TopicResponse{}, err
	}
	if err := validateStruct(s.validator, req); err != nil {
		return dto.TopicResponse{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return dto.TopicResponse{}, NewValidationError("name", "is required")
	}
	taken, err := s.repo.NameTaken(ctx, name)
	if err != nil {
		return dto.TopicResponse{}, storageError("topic.name_taken", err)
	}
	if taken {
		return dto.TopicResponse{}, NewValidationError("name", "is already used by another topic")
	}

	topic := models.Topic{Name: name}
	if err := s.repo.Create(ctx, &topic); err != nil {
		return dto.TopicResponse{}, storageError("topic.create", err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionCreated,
		EntityType: EntityTopic,
		EntityID:   topic.ID,
		Details:    fmt.Sprintf("Created topic: %s", topic.Name),
	})

	return dto.NewTopicResponse(topic), nil
}

// Delete removes the topic and detaches it from every script.
func (s *topicService) Delete(ctx context.Context, id uint, actor workflow.Actor) error {
	if err := workflow.Authorize(actor, nil, workflow.ActionManageTopics); err != nil {
		return err
	}

	topic, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return lookupError("topic.get", err, ErrTopicNotFound)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError("topic.delete", err, ErrTopicNotFound)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionDeleted,
		EntityType: EntityTopic,
		EntityID:   id,
		Details:    fmt.Sprintf("Deleted topic: %s", topic.Name),
	})
	return nil
}
