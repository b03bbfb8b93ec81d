package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"docbin/internal/service"
)

const (
	// ActorIDHeader carries the authenticated user id set by the upstream auth collaborator.
	ActorIDHeader = "X-Actor-ID"
	// ActorRoleHeader carries that user's role.
	ActorRoleHeader = "X-Actor-Role"
	// ActorLocalKey is the key used to store the service.Actor in Fiber's context locals.
	ActorLocalKey = "actor"
)

// Actor reads the caller identity from the auth headers and stores it in context locals.
// Requests without an actor id pass through; handlers that need one reject them.
func Actor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(ActorIDHeader))
		if id != "" {
			c.Locals(ActorLocalKey, service.Actor{
				ID:   id,
				Role: strings.ToLower(strings.TrimSpace(c.Get(ActorRoleHeader))),
			})
		}
		return c.Next()
	}
}

// ActorFrom returns the actor stored by the Actor middleware.
func ActorFrom(c *fiber.Ctx) (service.Actor, bool) {
	actor, ok := c.Locals(ActorLocalKey).(service.Actor)
	return actor, ok
}
