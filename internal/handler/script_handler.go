package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scriptdesk-api/internal/dto"
	"github.com/noah-isme/scriptdesk-api/internal/service"
	"github.com/noah-isme/scriptdesk-api/internal/utils"
)

// ScriptHandler exposes the script lifecycle over HTTP.
type ScriptHandler struct {
	service service.ScriptService
	logger  zerolog.Logger
}

// NewScriptHandler constructs a script handler.
func NewScriptHandler(service service.ScriptService, logger zerolog.Logger) *ScriptHandler {
	return &ScriptHandler{
		service: service,
		logger:  logger.With().Str("component", "script_handler").Logger(),
	}
}

// Register wires script routes.
func (h *ScriptHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/transitions", h.transition)
}

func (h *ScriptHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return respondError(c, h.logger, err, "list scripts")
	}
	projectID, err := parseQueryUint(c, "project_id")
	if err != nil {
		return respondError(c, h.logger, err, "list scripts")
	}

	result, err := h.service.List(c.UserContext(), dto.ScriptListRequest{
		Status:    strings.TrimSpace(c.Query("status")),
		ProjectID: projectID,
		AuthorID:  strings.TrimSpace(c.Query("author_id")),
		Search:    strings.TrimSpace(c.Query("search")),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return respondError(c, h.logger, err, "list scripts")
	}

	return utils.OK(c, result.Items, "scripts retrieved", result.Pagination)
}

func (h *ScriptHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "get script")
	}

	script, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "get script")
	}
	return utils.SendSuccess(c, "script retrieved", script)
}

func (h *ScriptHandler) create(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return respondError(c, h.logger, err, "create script")
	}

	var req dto.ScriptCreateRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, h.logger, err, "create script")
	}

	script, err := h.service.Create(c.UserContext(), actor, req)
	if err != nil {
		return respondError(c, h.logger, err, "create script")
	}

	requestLogger(h.logger, c).Info().Uint("script_id", script.ID).Str("author_id", actor.ID).Msg("script created")
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "script created", script)
}

func (h *ScriptHandler) update(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return respondError(c, h.logger, err, "update script")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "update script")
	}

	var req dto.ScriptUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, h.logger, err, "update script")
	}

	script, err := h.service.Update(c.UserContext(), id, actor, req)
	if err != nil {
		return respondError(c, h.logger, err, "update script")
	}
	return utils.SendSuccess(c, "script updated", script)
}

func (h *ScriptHandler) delete(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return respondError(c, h.logger, err, "delete script")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "delete script")
	}

	if err := h.service.Delete(c.UserContext(), id, actor); err != nil {
		return respondError(c, h.logger, err, "delete script")
	}

	requestLogger(h.logger, c).Info().Uint("script_id", id).Str("actor_id", actor.ID).Msg("script deleted")
	return utils.SendSuccess(c, "script deleted", nil)
}

func (h *ScriptHandler) transition(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return respondError(c, h.logger, err, "transition script")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "transition script")
	}

	var req dto.ScriptTransitionRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, h.logger, err, "transition script")
	}
	if strings.TrimSpace(req.Status) == "" {
		return respondError(c, h.logger, service.NewValidationError("status", "is required"), "transition script")
	}

	script, err := h.service.TransitionStatus(c.UserContext(), id, actor, req.Status)
	if err != nil {
		return respondError(c, h.logger, err, "transition script")
	}

	requestLogger(h.logger, c).Info().
		Uint("script_id", id).
		Str("status", script.Status.String()).
		Str("actor_id", actor.ID).
		Msg("script transitioned")
	return utils.SendSuccess(c, "script status updated", script)
}
