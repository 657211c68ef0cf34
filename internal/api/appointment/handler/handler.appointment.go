// Package appointmenthdl exposes appointments and bookings over HTTP.
package appointmenthdl

import (
	"github.com/gofiber/fiber/v3"

	appointmentdto "servicehub/internal/api/appointment/dto"
	appointmentsvc "servicehub/internal/api/appointment/service"
	basedto "servicehub/internal/api/base/dto"
	basehdl "servicehub/internal/api/base/handler"
	"servicehub/internal/common"
)

type AppointmentHandler struct {
	service *appointmentsvc.AppointmentService
}

func NewAppointmentHandler(service *appointmentsvc.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

func (h *AppointmentHandler) HandleCreate(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var input appointmentdto.AppointmentCreateInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		a, err := h.service.Create(c.Context(), actor, org, input)
		return basehdl.HandleCreated(c, a, err)
	})
}

func (h *AppointmentHandler) HandleGet(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		_, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		a, err := h.service.Get(c.Context(), org, id)
		return basehdl.HandleResponse(c, a, err)
	})
}

func (h *AppointmentHandler) HandleList(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		_, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var query appointmentdto.AppointmentListQuery
		if err := c.Bind().Query(&query); err != nil {
			return basehdl.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationFormat, "Invalid query", common.StatusBadRequest, err.Error()))
		}
		if err := basehdl.ValidateInput(&query); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		page, err := h.service.List(c.Context(), org, query)
		return basehdl.HandleResponse(c, page, err)
	})
}

func (h *AppointmentHandler) HandleUpdateStatus(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var input basedto.StatusInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		a, err := h.service.UpdateStatus(c.Context(), actor, org, id, input)
		return basehdl.HandleResponse(c, a, err)
	})
}
