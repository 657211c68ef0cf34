package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"servicehub/internal/api/auth"
	"servicehub/internal/common"
	"servicehub/internal/logger"
)

// AuthMiddleware verifies the bearer token and stores the actor on the request.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return HandleErrorResponse(c, common.ErrTokenMissing)
		}
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			return HandleErrorResponse(c, common.ErrTokenInvalid)
		}

		actor, err := auth.ParseToken(secret, strings.TrimSpace(token))
		if err != nil {
			logger.WithRequest(c).WithError(err).Debug("Rejected token")
			return HandleErrorResponse(c, err)
		}
		auth.SetLocals(c, actor)
		return c.Next()
	}
}

// RequireRoles rejects actors holding none of roles.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c fiber.Ctx) error {
		actor, ok := auth.FromFiber(c)
		if !ok {
			return HandleErrorResponse(c, common.ErrUnauthorized)
		}
		if !actor.HasAnyRole(roles...) {
			return HandleErrorResponse(c, common.ForbiddenError("Requires one of roles: "+strings.Join(roles, ", ")))
		}
		return c.Next()
	}
}

// Restrict wraps handler so only actors holding one of roles reach it.
// Use it for single routes inside a group whose chain is shared.
func Restrict(handler fiber.Handler, roles ...string) fiber.Handler {
	guard := RequireRoles(roles...)
	return func(c fiber.Ctx) error {
		actor, ok := auth.FromFiber(c)
		if !ok || !actor.HasAnyRole(roles...) {
			return guard(c)
		}
		return handler(c)
	}
}
