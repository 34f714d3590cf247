package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scriptdesk-api/internal/middleware"
	"github.com/noah-isme/scriptdesk-api/internal/service"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	raw := strings.TrimSpace(c.Params(name))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, service.NewValidationError(name, "must be a positive integer")
	}
	return uint(value), nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0, service.NewValidationError(key, "must be a non-negative integer")
	}
	return parsed, nil
}

func parseQueryUint(c *fiber.Ctx, key string) (*uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return nil, service.NewValidationError(key, "must be a positive integer")
	}
	id := uint(parsed)
	return &id, nil
}

func parsePagination(c *fiber.Ctx) (int, int, error) {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return 0, 0, err
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}

// actorFromContext returns the actor resolved by middleware.SyncIdentity.
func actorFromContext(c *fiber.Ctx) (workflow.Actor, error) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return workflow.Actor{}, errUnauthenticated
	}
	return actor, nil
}

func bindJSON(c *fiber.Ctx, target interface{}) error {
	if err := c.BodyParser(target); err != nil {
		return service.NewValidationError("body", fmt.Sprintf("could not be parsed: %v", err))
	}
	return nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}
