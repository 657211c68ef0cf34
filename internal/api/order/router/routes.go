// Package router registers the /orders routes.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"servicehub/internal/api/auth"
	basesvc "servicehub/internal/api/base/service"
	"servicehub/internal/api/middleware"
	orderhdl "servicehub/internal/api/order/handler"
	ordersvc "servicehub/internal/api/order/service"
	apirouter "servicehub/internal/api/router"
)

func Register(v1 fiber.Router, r *apirouter.Router) error {
	h, err := orderhdl.NewOrderHandler(ordersvc.Deps{
		Transactor: r.Deps.Transactor,
		Effects:    basesvc.Effects{Events: r.Deps.Events},
	})
	if err != nil {
		return fmt.Errorf("create order handler: %w", err)
	}

	managers := []string{auth.RoleAdmin, auth.RoleManager}
	orders := r.Group(v1, "/orders")
	orders.Post("/", middleware.Restrict(h.HandleCreate, managers...))
	orders.Get("/", h.HandleList)
	orders.Get("/:id", h.HandleGet)
	orders.Put("/:id/update-status", middleware.Restrict(h.HandleUpdateStatus, managers...))
	return nil
}
