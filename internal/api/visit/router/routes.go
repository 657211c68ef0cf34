// Package router registers the /visits routes.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"servicehub/internal/api/auth"
	basesvc "servicehub/internal/api/base/service"
	"servicehub/internal/api/middleware"
	apirouter "servicehub/internal/api/router"
	visithdl "servicehub/internal/api/visit/handler"
	visitsvc "servicehub/internal/api/visit/service"
)

// Register mounts the visit routes on v1.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	h, err := visithdl.NewVisitHandler(visitsvc.Deps{
		Transactor: r.Deps.Transactor,
		Storage:    r.Deps.Storage,
		Locker:     r.Deps.Locker,
		Effects:    basesvc.Effects{Events: r.Deps.Events, Notifier: r.Deps.Notifier},
	})
	if err != nil {
		return fmt.Errorf("create visit handler: %w", err)
	}

	schedulers := []string{auth.RoleAdmin, auth.RoleManager}
	visits := r.Group(v1, "/visits")
	visits.Post("/", middleware.Restrict(h.HandleCreate, schedulers...))
	visits.Get("/", h.HandleList)
	visits.Get("/summaries", h.HandleSummaries)
	visits.Get("/:id", h.HandleGet)
	visits.Put("/:id", middleware.Restrict(h.HandleUpdate, schedulers...))
	visits.Put("/:id/following", middleware.Restrict(h.HandleUpdateFollowing, schedulers...))
	visits.Put("/:id/occurrence", middleware.Restrict(h.HandleUpdateOccurrence, schedulers...))
	visits.Delete("/:id", middleware.Restrict(h.HandleDelete, schedulers...))
	visits.Put("/:id/update-status", h.HandleUpdateStatus)
	visits.Post("/:id/complete", h.HandleComplete)
	visits.Put("/:id/feedback", h.HandleFeedback)
	return nil
}
