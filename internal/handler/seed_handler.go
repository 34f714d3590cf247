package handler

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scriptdesk-api/internal/service"
	"github.com/noah-isme/scriptdesk-api/internal/utils"
)

// SeedHandler loads a project and topic catalogue over HTTP. The body is the
// same YAML document accepted by `scriptctl seed`; JSON works too.
type SeedHandler struct {
	service service.SeedService
	logger  zerolog.Logger
}

// NewSeedHandler constructs a seed handler.
func NewSeedHandler(service service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: service,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register wires seed routes.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/catalog", h.catalog)
}

func (h *SeedHandler) catalog(c *fiber.Ctx) error {
	catalog, err := service.ParseSeedCatalog(bytes.NewReader(c.Body()))
	if err != nil {
		return respondError(c, h.logger, service.NewValidationError("body", err.Error()), "seed catalog")
	}

	result, err := h.service.Seed(c.UserContext(), catalog)
	if err != nil {
		return respondError(c, h.logger, err, "seed catalog")
	}

	requestLogger(h.logger, c).Info().
		Int("projects_created", result.ProjectsCreated).
		Int("topics_created", result.TopicsCreated).
		Int("skipped", result.Skipped).
		Msg("catalog seeded")
	return utils.SendSuccess(c, "catalog seeded", result)
}
