package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scriptdesk-api/internal/dto"
	"github.com/noah-isme/scriptdesk-api/internal/middleware"
	"github.com/noah-isme/scriptdesk-api/internal/service"
	"github.com/noah-isme/scriptdesk-api/internal/utils"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

// TopicHandler exposes the topic catalogue.
type TopicHandler struct {
	service service.TopicService
	logger  zerolog.Logger
}

// NewTopicHandler constructs a topic handler.
func NewTopicHandler(service service.TopicService, logger zerolog.Logger) *TopicHandler {
	return &TopicHandler{
		service: service,
		logger:  logger.With().Str("component", "topic_handler").Logger(),
	}
}

// Register wires topic routes.
func (h *TopicHandler) Register(router fiber.Router) {
	manage := middleware.RequireCapability(workflow.CapManageTopics)

	router.Get("", h.list)
	router.Post("", manage, h.create)
	router.Delete("/:id", manage, h.delete)
}

func (h *TopicHandler) list(c *fiber.Ctx) error {
	topics, err := h.service.List(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "list topics")
	}
	return utils.SendSuccess(c, "topics retrieved", topics)
}

func (h *TopicHandler) create(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return respondError(c, h.logger, err, "create topic")
	}

	var req dto.TopicCreateRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, h.logger, err, "create topic")
	}

	topic, err := h.service.Create(c.UserContext(), actor, req)
	if err != nil {
		return respondError(c, h.logger, err, "create topic")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "topic created", topic)
}

func (h *TopicHandler) delete(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return respondError(c, h.logger, err, "delete topic")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "delete topic")
	}

	if err := h.service.Delete(c.UserContext(), id, actor); err != nil {
		return respondError(c, h.logger, err, "delete topic")
	}
	return utils.SendSuccess(c, "topic deleted", nil)
}
