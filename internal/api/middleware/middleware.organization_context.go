package middleware

import (
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"servicehub/internal/api/auth"
	"servicehub/internal/common"
)

// HeaderOrganizationID lets an admin act inside another tenant.
const HeaderOrganizationID = "X-Organization-ID"

// OrganizationContextMiddleware resolves the tenant the request works in.
// Non-admins are pinned to the organization in their token; admins may switch with HeaderOrganizationID.
func OrganizationContextMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		actor, ok := auth.FromFiber(c)
		if !ok {
			return c.Next()
		}

		requested := c.Get(HeaderOrganizationID)
		if requested != "" && requested != actor.OrganizationID {
			if !primitive.IsValidObjectID(requested) {
				return HandleErrorResponse(c, common.ValidationError("Invalid "+HeaderOrganizationID, requested))
			}
			if !actor.HasAnyRole(auth.RoleAdmin) {
				return HandleErrorResponse(c, common.ForbiddenError("Cannot act in another organization"))
			}
			actor.OrganizationID = requested
		}
		if actor.OrganizationID == "" {
			return HandleErrorResponse(c, common.ForbiddenError("No organization in context"))
		}

		auth.SetLocals(c, actor)
		return c.Next()
	}
}
