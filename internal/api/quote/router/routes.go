// Package router registers the /quotes routes.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"servicehub/internal/api/auth"
	basesvc "servicehub/internal/api/base/service"
	"servicehub/internal/api/middleware"
	quotehdl "servicehub/internal/api/quote/handler"
	quotesvc "servicehub/internal/api/quote/service"
	apirouter "servicehub/internal/api/router"
)

func Register(v1 fiber.Router, r *apirouter.Router) error {
	h, err := quotehdl.NewQuoteHandler(quotesvc.Deps{
		Effects:  basesvc.Effects{Events: r.Deps.Events},
		Mailer:   r.Deps.Mailer,
		MailFrom: r.Deps.MailFrom,
	})
	if err != nil {
		return fmt.Errorf("create quote handler: %w", err)
	}

	sales := []string{auth.RoleAdmin, auth.RoleManager}
	quotes := r.Group(v1, "/quotes")
	quotes.Post("/", middleware.Restrict(h.HandleCreate, sales...))
	quotes.Get("/", h.HandleList)
	quotes.Get("/:id", h.HandleGet)
	quotes.Put("/:id/update-status", middleware.Restrict(h.HandleUpdateStatus, sales...))
	return nil
}
