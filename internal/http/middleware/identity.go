package middleware

import (
	"github.com/gofiber/fiber/v2"

	"doclib/internal/model"
)

const (
	// UserIDHeader carries the authenticated user id, set by the fronting
	// auth proxy. An empty value means the request is anonymous.
	UserIDHeader = "X-User-ID"
	// UserRoleHeader carries the authenticated user's role.
	UserRoleHeader = "X-User-Role"
	// IdentityLocalKey is the key the resolved identity is stored under in
	// Fiber's context locals.
	IdentityLocalKey = "identity"
)

// Identity resolves the caller's identity from the trusted upstream headers
// and stores it in context locals. It never rejects: authorization decisions
// belong to the service layer, which sees the (possibly anonymous) identity.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := model.Identity{
			UserID: c.Get(UserIDHeader),
			Role:   model.Role(c.Get(UserRoleHeader)),
		}
		c.Locals(IdentityLocalKey, id)
		return c.Next()
	}
}

// IdentityFromCtx returns the identity stored by the Identity middleware.
// A missing entry yields the zero (anonymous) identity.
func IdentityFromCtx(c *fiber.Ctx) model.Identity {
	if v := c.Locals(IdentityLocalKey); v != nil {
		if id, ok := v.(model.Identity); ok {
			return id
		}
	}
	return model.Identity{}
}
