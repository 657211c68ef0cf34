// Package router registers the /appointments and /bookings routes.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	appointmenthdl "servicehub/internal/api/appointment/handler"
	appointmentsvc "servicehub/internal/api/appointment/service"
	"servicehub/internal/api/auth"
	basesvc "servicehub/internal/api/base/service"
	"servicehub/internal/api/middleware"
	apirouter "servicehub/internal/api/router"
)

func Register(v1 fiber.Router, r *apirouter.Router) error {
	appointments, err := appointmentsvc.NewMongoAppointmentStore()
	if err != nil {
		return fmt.Errorf("create appointment store: %w", err)
	}
	bookings, err := appointmentsvc.NewMongoBookingStore()
	if err != nil {
		return fmt.Errorf("create booking store: %w", err)
	}
	effects := basesvc.Effects{Events: r.Deps.Events}

	ah := appointmenthdl.NewAppointmentHandler(appointmentsvc.NewAppointmentService(appointments, effects, nil))
	bh := appointmenthdl.NewBookingHandler(appointmentsvc.NewBookingService(appointmentsvc.BookingDeps{
		Store:        bookings,
		Appointments: appointments,
		Transactor:   r.Deps.Transactor,
		Effects:      effects,
	}))

	staff := []string{auth.RoleAdmin, auth.RoleManager}
	ag := r.Group(v1, "/appointments")
	ag.Post("/", middleware.Restrict(ah.HandleCreate, staff...))
	ag.Get("/", ah.HandleList)
	ag.Get("/:id", ah.HandleGet)
	ag.Put("/:id/update-status", ah.HandleUpdateStatus)

	bg := r.Group(v1, "/bookings")
	bg.Post("/", bh.HandleCreate)
	bg.Get("/", bh.HandleList)
	bg.Get("/:id", bh.HandleGet)
	bg.Put("/:id/update-status", middleware.Restrict(bh.HandleUpdateStatus, staff...))
	return nil
}
