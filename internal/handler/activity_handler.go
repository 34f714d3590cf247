package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scriptdesk-api/internal/dto"
	"github.com/noah-isme/scriptdesk-api/internal/service"
	"github.com/noah-isme/scriptdesk-api/internal/utils"
)

// ActivityHandler exposes the filtered activity log.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs an activity handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register wires activity routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return respondError(c, h.logger, err, "list activity")
	}
	entityID, err := parseQueryUint(c, "entity_id")
	if err != nil {
		return respondError(c, h.logger, err, "list activity")
	}

	result, err := h.service.List(c.UserContext(), dto.ActivityListRequest{
		Page:       page,
		PageSize:   pageSize,
		UserID:     strings.TrimSpace(c.Query("user_id")),
		Action:     strings.TrimSpace(c.Query("action")),
		EntityType: strings.TrimSpace(c.Query("entity_type")),
		EntityID:   entityID,
	})
	if err != nil {
		return respondError(c, h.logger, err, "list activity")
	}

	return utils.OK(c, result.Items, "activity retrieved", result.Pagination)
}
