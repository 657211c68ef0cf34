// Package auth carries the authenticated actor from the HTTP boundary into the services.
// Services trust the actor as already verified and do not re-check roles.
package auth

import (
	"context"
	"slices"

	"github.com/gofiber/fiber/v3"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleWorker  = "worker"
	RoleClient  = "client"
)

// Actor is the identity behind a request.
type Actor struct {
	ID             string   `json:"id"`
	Roles          []string `json:"roles"`
	OrganizationID string   `json:"organizationId"`
}

// HasAnyRole reports whether the actor holds one of roles.
func (a Actor) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(a.Roles, r) {
			return true
		}
	}
	return false
}

type ctxKey struct{}

const localsKey = "actor"

// WithActor stores a in ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the actor stored by WithActor.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}

// SetLocals stores a on the request.
func SetLocals(c fiber.Ctx, a Actor) {
	c.Locals(localsKey, a)
}

// FromFiber returns the actor set by the auth middleware.
func FromFiber(c fiber.Ctx) (Actor, bool) {
	a, ok := c.Locals(localsKey).(Actor)
	return a, ok && a.ID != ""
}
