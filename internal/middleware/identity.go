package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scriptdesk-api/internal/service"
	"github.com/noah-isme/scriptdesk-api/internal/utils"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

// IdentitySyncer upserts the caller's user row from token claims.
type IdentitySyncer interface {
	Sync(ctx context.Context, identity service.Identity) (workflow.Actor, error)
}

// SyncIdentity runs after JWTProtected. It keeps the users table in step with
// the identity provider so authorship references stay valid, and stores the
// resulting workflow.Actor in Locals.
func SyncIdentity(users IdentitySyncer, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "identity_middleware").Logger()

	return func(c *fiber.Ctx) error {
		identity, ok := c.Locals(LocalIdentity).(service.Identity)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		actor, err := users.Sync(c.UserContext(), identity)
		if err != nil {
			var validationErr *service.ValidationError
			if errors.As(err, &validationErr) {
				return utils.Fail(c, fiber.StatusUnauthorized, "invalid identity claims", validationErr.Fields)
			}
			log.Error().Err(err).
				Str("correlation_id", GetCorrelationID(c)).
				Str("user_id", identity.Subject).
				Msg("failed to synchronise identity")
			return utils.SendError(c, fiber.StatusServiceUnavailable, "identity store unavailable")
		}

		c.Locals(LocalActor, actor)
		c.Locals(LocalUserRole, actor.Role.String())
		return c.Next()
	}
}

// ActorFromContext returns the actor stored by SyncIdentity.
func ActorFromContext(c *fiber.Ctx) (workflow.Actor, bool) {
	actor, ok := c.Locals(LocalActor).(workflow.Actor)
	if !ok || actor.ID == "" {
		return workflow.Actor{}, false
	}
	return actor, true
}
