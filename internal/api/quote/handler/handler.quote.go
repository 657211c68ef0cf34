// Package quotehdl exposes the quote service over HTTP.
package quotehdl

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	basedto "servicehub/internal/api/base/dto"
	basehdl "servicehub/internal/api/base/handler"
	quotedto "servicehub/internal/api/quote/dto"
	quotesvc "servicehub/internal/api/quote/service"
	"servicehub/internal/common"
)

type QuoteHandler struct {
	service *quotesvc.QuoteService
}

func NewQuoteHandler(deps quotesvc.Deps) (*QuoteHandler, error) {
	if deps.Store == nil {
		store, err := quotesvc.NewMongoStore()
		if err != nil {
			return nil, fmt.Errorf("failed to create quote store: %w", err)
		}
		deps.Store = store
	}
	return &QuoteHandler{service: quotesvc.NewQuoteService(deps)}, nil
}

func (h *QuoteHandler) HandleCreate(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var input quotedto.QuoteCreateInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		q, err := h.service.Create(c.Context(), actor, org, input)
		return basehdl.HandleCreated(c, q, err)
	})
}

func (h *QuoteHandler) HandleGet(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		_, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		q, err := h.service.Get(c.Context(), org, id)
		return basehdl.HandleResponse(c, q, err)
	})
}

func (h *QuoteHandler) HandleList(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		_, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var query quotedto.QuoteListQuery
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

func (h *QuoteHandler) HandleUpdateStatus(c fiber.Ctx) error {
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
		q, err := h.service.UpdateStatus(c.Context(), actor, org, id, input)
		return basehdl.HandleResponse(c, q, err)
	})
}
