// Package visithdl exposes the visit service over HTTP.
package visithdl

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	basedto "servicehub/internal/api/base/dto"
	basehdl "servicehub/internal/api/base/handler"
	visitdto "servicehub/internal/api/visit/dto"
	visitsvc "servicehub/internal/api/visit/service"
	"servicehub/internal/common"
)

// VisitHandler handles the /visits routes.
type VisitHandler struct {
	service *visitsvc.VisitService
}

// NewVisitHandler builds the handler on top of the Mongo visit store.
func NewVisitHandler(deps visitsvc.Deps) (*VisitHandler, error) {
	if deps.Store == nil {
		store, err := visitsvc.NewMongoStore()
		if err != nil {
			return nil, fmt.Errorf("failed to create visit store: %w", err)
		}
		deps.Store = store
	}
	return &VisitHandler{service: visitsvc.NewVisitService(deps)}, nil
}

// HandleCreate creates an ad-hoc visit.
func (h *VisitHandler) HandleCreate(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var input visitdto.VisitCreateInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		v, err := h.service.Create(c.Context(), actor, org, input)
		return basehdl.HandleCreated(c, v, err)
	})
}

// HandleGet returns one visit.
func (h *VisitHandler) HandleGet(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		_, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		v, err := h.service.Get(c.Context(), org, id)
		return basehdl.HandleResponse(c, v, err)
	})
}

// HandleList lists visits by job and date range.
func (h *VisitHandler) HandleList(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		_, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var query visitdto.VisitListQuery
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

// HandleSummaries returns the calendar projection for ?from=&to=.
func (h *VisitHandler) HandleSummaries(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		_, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		from, okFrom, err := basehdl.ParseDateQuery(c, "from")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		to, okTo, err := basehdl.ParseDateQuery(c, "to")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		if !okFrom || !okTo {
			return basehdl.HandleResponse(c, nil, common.ValidationError("from and to are required", nil))
		}
		summaries, err := h.service.Summaries(c.Context(), org, from, to)
		return basehdl.HandleResponse(c, summaries, err)
	})
}

// HandleUpdate edits this one visit.
func (h *VisitHandler) HandleUpdate(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var input visitdto.VisitUpdateInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		v, err := h.service.Update(c.Context(), actor, org, id, input)
		return basehdl.HandleResponse(c, v, err)
	})
}

// HandleUpdateFollowing edits an occurrence of a series and every later one.
func (h *VisitHandler) HandleUpdateFollowing(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var input visitdto.OccurrenceEditInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		v, err := h.service.SplitFollowing(c.Context(), actor, org, id, input)
		return basehdl.HandleResponse(c, v, err)
	})
}

// HandleUpdateOccurrence edits one occurrence of a series.
func (h *VisitHandler) HandleUpdateOccurrence(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var input visitdto.OccurrenceEditInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		v, err := h.service.EditOccurrence(c.Context(), actor, org, id, input)
		return basehdl.HandleResponse(c, v, err)
	})
}

// HandleDelete soft-deletes a visit.
func (h *VisitHandler) HandleDelete(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		err = h.service.Delete(c.Context(), actor, org, id)
		return basehdl.HandleResponse(c, fiber.Map{"id": id.Hex()}, err)
	})
}

// HandleUpdateStatus moves a visit to a new status.
func (h *VisitHandler) HandleUpdateStatus(c fiber.Ctx) error {
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
		v, err := h.service.UpdateStatus(c.Context(), actor, org, id, input)
		return basehdl.HandleResponse(c, v, err)
	})
}

// HandleComplete marks a visit complete from a multipart form: a note field and any
// number of files under "files".
func (h *VisitHandler) HandleComplete(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		input := basedto.CompleteInput{Note: c.FormValue("note")}
		if err := basehdl.ValidateInput(&input); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		files, err := basehdl.ParseUploads(c, "files")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		v, err := h.service.Complete(c.Context(), actor, org, id, input.Note, files)
		return basehdl.HandleResponse(c, v, err)
	})
}

// HandleFeedback stores the feedback on a visit.
func (h *VisitHandler) HandleFeedback(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var input basedto.FeedbackInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		v, err := h.service.SetFeedback(c.Context(), actor, org, id, input)
		return basehdl.HandleResponse(c, v, err)
	})
}
