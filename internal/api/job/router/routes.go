// Package router registers the /jobs routes.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"servicehub/internal/api/auth"
	basesvc "servicehub/internal/api/base/service"
	jobhdl "servicehub/internal/api/job/handler"
	jobsvc "servicehub/internal/api/job/service"
	"servicehub/internal/api/middleware"
	apirouter "servicehub/internal/api/router"
)

// Register mounts the job routes on v1.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	h, err := jobhdl.NewJobHandler(jobsvc.Deps{
		Transactor: r.Deps.Transactor,
		Storage:    r.Deps.Storage,
		Locker:     r.Deps.Locker,
		Effects:    basesvc.Effects{Events: r.Deps.Events, Notifier: r.Deps.Notifier},
		Mailer:     r.Deps.Mailer,
		MailFrom:   r.Deps.MailFrom,
	})
	if err != nil {
		return fmt.Errorf("create job handler: %w", err)
	}

	managers := []string{auth.RoleAdmin, auth.RoleManager}
	jobs := r.Group(v1, "/jobs")
	jobs.Post("/", middleware.Restrict(h.HandleCreate, managers...))
	jobs.Get("/", h.HandleList)
	jobs.Get("/:id", h.HandleGet)
	jobs.Put("/:id/schedule", middleware.Restrict(h.HandleSchedule, managers...))
	jobs.Put("/:id/update-status", h.HandleUpdateStatus)
	jobs.Post("/:id/complete", h.HandleComplete)
	jobs.Put("/:id/feedback", h.HandleFeedback)
	jobs.Delete("/:id", middleware.Restrict(h.HandleDelete, managers...))
	return nil
}
