package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scriptdesk-api/internal/service"
	"github.com/noah-isme/scriptdesk-api/internal/utils"
)

// DashboardHandler serves the workflow overview.
type DashboardHandler struct {
	dashboard service.DashboardService
	activity  service.ActivityService
	logger    zerolog.Logger
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(dashboard service.DashboardService, activity service.ActivityService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		activity:  activity,
		logger:    logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register wires dashboard routes.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/stats", h.stats)
	router.Get("/activity", h.recentActivity)
}

// stats never fails; the service degrades to zeros when the store is unavailable.
func (h *DashboardHandler) stats(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "dashboard stats retrieved", h.dashboard.GetDashboardStats(c.UserContext()))
}

func (h *DashboardHandler) recentActivity(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return respondError(c, h.logger, err, "recent activity")
	}

	entries, err := h.activity.Recent(c.UserContext(), limit)
	if err != nil {
		return respondError(c, h.logger, err, "recent activity")
	}
	return utils.SendSuccess(c, "recent activity retrieved", entries)
}
