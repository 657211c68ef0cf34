// Package router holds the route prefix, the shared route helpers and the collaborators
// handed to every domain's Register function.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"servicehub/internal/api/middleware"
	"servicehub/internal/database"
	"servicehub/internal/eventbus"
	"servicehub/internal/lock"
	"servicehub/internal/mailer"
	"servicehub/internal/notification"
	"servicehub/internal/storage"
)

// Collaborators are the external services the domains use.
type Collaborators struct {
	Transactor database.Transactor
	Storage    storage.FileStorage
	Notifier   notification.Notifier
	Devices    notification.DeviceStore
	Mailer     mailer.Mailer
	MailFrom   string
	Events     eventbus.Publisher
	Locker     lock.Locker
}

// Router carries what Register functions need besides the v1 group.
type Router struct {
	app       *fiber.App
	jwtSecret string
	Deps      Collaborators
}

// RoutePrefix holds the API prefixes.
type RoutePrefix struct {
	Base string // /api
	V1   string // /api/v1
}

func NewRoutePrefix() RoutePrefix {
	base := "/api"
	return RoutePrefix{Base: base, V1: base + "/v1"}
}

func NewRouter(app *fiber.App, jwtSecret string, deps Collaborators) *Router {
	return &Router{app: app, jwtSecret: jwtSecret, Deps: deps}
}

// Authenticated returns the middleware chain for routes that need an actor in a tenant.
func (r *Router) Authenticated() []fiber.Handler {
	return []fiber.Handler{
		middleware.AuthMiddleware(r.jwtSecret),
		middleware.OrganizationContextMiddleware(),
	}
}

// Group opens prefix under router behind the authenticated chain.
func (r *Router) Group(router fiber.Router, prefix string) fiber.Router {
	return router.Group(prefix, r.Authenticated()...)
}

// RegisterRouteWithMiddleware mounts handler at prefix+path. The middlewares are used by
// the prefix group, so they apply to every route later registered under the same prefix.
func RegisterRouteWithMiddleware(router fiber.Router, prefix string, method string, path string, middlewares []fiber.Handler, handler fiber.Handler) {
	routeGroup := router.Group(prefix, middlewares...)

	switch method {
	case fiber.MethodGet:
		routeGroup.Get(path, handler)
	case fiber.MethodPost:
		routeGroup.Post(path, handler)
	case fiber.MethodPut:
		routeGroup.Put(path, handler)
	case fiber.MethodDelete:
		routeGroup.Delete(path, handler)
	}
}

// RegisterFunc mounts one domain.
type RegisterFunc func(v1 fiber.Router, r *Router) error

// SetupRoutes mounts every domain under /api/v1.
func SetupRoutes(app *fiber.App, r *Router, regs ...RegisterFunc) error {
	v1 := app.Group(NewRoutePrefix().V1)
	for _, reg := range regs {
		if err := reg(v1, r); err != nil {
			return fmt.Errorf("register routes: %w", err)
		}
	}
	return nil
}
