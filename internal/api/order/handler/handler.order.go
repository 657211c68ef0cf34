// Package orderhdl exposes the order service over HTTP.
package orderhdl

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	basedto "servicehub/internal/api/base/dto"
	basehdl "servicehub/internal/api/base/handler"
	orderdto "servicehub/internal/api/order/dto"
	ordersvc "servicehub/internal/api/order/service"
	quotesvc "servicehub/internal/api/quote/service"
	"servicehub/internal/common"
)

type OrderHandler struct {
	service *ordersvc.OrderService
}

func NewOrderHandler(deps ordersvc.Deps) (*OrderHandler, error) {
	if deps.Store == nil {
		store, err := ordersvc.NewMongoStore()
		if err != nil {
			return nil, fmt.Errorf("failed to create order store: %w", err)
		}
		deps.Store = store
	}
	if deps.Quotes == nil {
		quotes, err := quotesvc.NewMongoStore()
		if err != nil {
			return nil, fmt.Errorf("failed to create quote store: %w", err)
		}
		deps.Quotes = quotes
	}
	return &OrderHandler{service: ordersvc.NewOrderService(deps)}, nil
}

func (h *OrderHandler) HandleCreate(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var input orderdto.OrderCreateInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		o, err := h.service.Create(c.Context(), actor, org, input)
		return basehdl.HandleCreated(c, o, err)
	})
}

func (h *OrderHandler) HandleGet(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		_, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		o, err := h.service.Get(c.Context(), org, id)
		return basehdl.HandleResponse(c, o, err)
	})
}

func (h *OrderHandler) HandleList(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		_, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var query orderdto.OrderListQuery
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

func (h *OrderHandler) HandleUpdateStatus(c fiber.Ctx) error {
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
		o, err := h.service.UpdateStatus(c.Context(), actor, org, id, input)
		return basehdl.HandleResponse(c, o, err)
	})
}
