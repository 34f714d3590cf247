package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scriptdesk-api/internal/service"
	"github.com/noah-isme/scriptdesk-api/internal/utils"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

var errUnauthenticated = errors.New("authentication required")

// respondError maps the service error taxonomy onto HTTP responses.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, operation string) error {
	var (
		validationErr *service.ValidationError
		transitionErr *workflow.InvalidTransitionError
		storageErr    *service.StorageError
	)

	switch {
	case errors.Is(err, errUnauthenticated):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.As(err, &validationErr):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationErr.Fields)
	case errors.Is(err, workflow.ErrPermissionDenied):
		return utils.SendError(c, fiber.StatusForbidden, workflow.ErrPermissionDenied.Error())
	case errors.Is(err, service.ErrScriptNotFound),
		errors.Is(err, service.ErrProjectNotFound),
		errors.Is(err, service.ErrTopicNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.As(err, &transitionErr):
		return utils.Fail(c, fiber.StatusConflict, transitionErr.Error(), fiber.Map{
			"from":    transitionErr.From,
			"to":      transitionErr.To,
			"allowed": workflow.NextStatuses(transitionErr.From),
		})
	case errors.Is(err, service.ErrProjectInUse):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrUploadTypeNotAllowed), errors.Is(err, service.ErrUploadScanFailed):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, service.ErrUploadsDisabled):
		return utils.SendError(c, fiber.StatusNotImplemented, err.Error())
	case errors.As(err, &storageErr):
		requestLogger(logger, c).Error().Err(err).Str("op", storageErr.Op).Msg(operation + " failed")
		return utils.SendError(c, fiber.StatusServiceUnavailable, "storage temporarily unavailable")
	default:
		requestLogger(logger, c).Error().Err(err).Msg(operation + " failed")
		return utils.SendError(c, fiber.StatusInternalServerError, operation+" failed")
	}
}
