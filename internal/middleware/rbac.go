package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/scriptdesk-api/internal/utils"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

// RequireCapability ensures the authenticated user's role holds every bit of caps.
func RequireCapability(caps workflow.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := roleFromLocals(c)
		if !role.Has(caps) {
			return utils.SendError(c, fiber.StatusForbidden, workflow.ErrPermissionDenied.Error())
		}
		return c.Next()
	}
}

func roleFromLocals(c *fiber.Ctx) workflow.Role {
	if actor, ok := ActorFromContext(c); ok {
		return actor.Role
	}

	var raw string
	switch v := c.Locals(LocalUserRole).(type) {
	case string:
		raw = v
	case fmt.Stringer:
		raw = v.String()
	}
	role, err := workflow.ParseRole(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return role
}
