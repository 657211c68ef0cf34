package appointmenthdl

import (
	"github.com/gofiber/fiber/v3"

	appointmentdto "servicehub/internal/api/appointment/dto"
	appointmentsvc "servicehub/internal/api/appointment/service"
	basedto "servicehub/internal/api/base/dto"
	basehdl "servicehub/internal/api/base/handler"
	"servicehub/internal/common"
)

type BookingHandler struct {
	service *appointmentsvc.BookingService
}

func NewBookingHandler(service *appointmentsvc.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) HandleCreate(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var input appointmentdto.BookingCreateInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		b, err := h.service.Create(c.Context(), actor, org, input)
		return basehdl.HandleCreated(c, b, err)
	})
}

func (h *BookingHandler) HandleGet(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		_, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		b, err := h.service.Get(c.Context(), org, id)
		return basehdl.HandleResponse(c, b, err)
	})
}

func (h *BookingHandler) HandleList(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		_, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var query appointmentdto.BookingListQuery
		if err := c.Bind().Query(&query); err != nil {
			return basehdl.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationFormat, "Invalid query", common.StatusBadRequest, err.Error()))
		}
		page, err := h.service.List(c.Context(), org, query)
		return basehdl.HandleResponse(c, page, err)
	})
}

// HandleUpdateStatus accepts or declines a booking.
func (h *BookingHandler) HandleUpdateStatus(c fiber.Ctx) error {
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
		b, err := h.service.UpdateStatus(c.Context(), actor, org, id, input)
		return basehdl.HandleResponse(c, b, err)
	})
}
