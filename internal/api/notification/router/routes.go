// Package router registers the /devices routes.
package router

import (
	"github.com/gofiber/fiber/v3"

	notifhdl "servicehub/internal/api/notification/handler"
	apirouter "servicehub/internal/api/router"
)

// Register mounts device registration on v1. Without a device store there is nothing to mount.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	if r.Deps.Devices == nil {
		return nil
	}
	h := notifhdl.NewDeviceHandler(r.Deps.Devices)
	devices := r.Group(v1, "/devices")
	devices.Post("/", h.HandleRegister)
	devices.Get("/", h.HandleList)
	devices.Delete("/:token", h.HandleUnregister)
	return nil
}
