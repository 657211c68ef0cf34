// Package jobhdl exposes the job service over HTTP.
package jobhdl

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	basedto "servicehub/internal/api/base/dto"
	basehdl "servicehub/internal/api/base/handler"
	jobdto "servicehub/internal/api/job/dto"
	jobsvc "servicehub/internal/api/job/service"
	visitsvc "servicehub/internal/api/visit/service"
	"servicehub/internal/common"
)

type JobHandler struct {
	service *jobsvc.JobService
}

// NewJobHandler builds the handler on the Mongo job and visit stores unless deps names others.
func NewJobHandler(deps jobsvc.Deps) (*JobHandler, error) {
	if deps.Store == nil {
		store, err := jobsvc.NewMongoStore()
		if err != nil {
			return nil, fmt.Errorf("failed to create job store: %w", err)
		}
		deps.Store = store
	}
	if deps.Visits == nil {
		visits, err := visitsvc.NewMongoStore()
		if err != nil {
			return nil, fmt.Errorf("failed to create visit store: %w", err)
		}
		deps.Visits = visits
	}
	return &JobHandler{service: jobsvc.NewJobService(deps)}, nil
}

func (h *JobHandler) HandleCreate(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var input jobdto.JobCreateInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		j, err := h.service.Create(c.Context(), actor, org, input)
		return basehdl.HandleCreated(c, j, err)
	})
}

func (h *JobHandler) HandleGet(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		_, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		j, err := h.service.Get(c.Context(), org, id)
		return basehdl.HandleResponse(c, j, err)
	})
}

// HandleList lists jobs, newest first, by ?status= and ?client= name prefix.
func (h *JobHandler) HandleList(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		_, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var query jobdto.JobListQuery
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

// HandleSchedule sets or replaces the recurring schedule of a job.
func (h *JobHandler) HandleSchedule(c fiber.Ctx) error {
	return basehdl.SafeHandlerWrapper(c, func() error {
		actor, org, err := basehdl.OrganizationFrom(c)
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		id, err := basehdl.ParseObjectIDParam(c, "id")
		if err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		var input jobdto.ScheduleInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			return basehdl.HandleResponse(c, nil, err)
		}
		out, err := h.service.UpdateSchedule(c.Context(), actor, org, id, input)
		return basehdl.HandleResponse(c, out, err)
	})
}

func (h *JobHandler) HandleUpdateStatus(c fiber.Ctx) error {
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
		j, err := h.service.UpdateStatus(c.Context(), actor, org, id, input)
		return basehdl.HandleResponse(c, j, err)
	})
}

// HandleComplete takes the same multipart form as visit completion.
func (h *JobHandler) HandleComplete(c fiber.Ctx) error {
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
		j, err := h.service.Complete(c.Context(), actor, org, id, input.Note, files)
		return basehdl.HandleResponse(c, j, err)
	})
}

func (h *JobHandler) HandleFeedback(c fiber.Ctx) error {
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
		j, err := h.service.SetFeedback(c.Context(), actor, org, id, input)
		return basehdl.HandleResponse(c, j, err)
	})
}

func (h *JobHandler) HandleDelete(c fiber.Ctx) error {
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
