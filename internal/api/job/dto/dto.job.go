// Package jobdto holds request shapes for the job routes.
package jobdto

import basedto "servicehub/internal/api/base/dto"

// ScheduleInput is the recurring schedule of a job, stored on its primary visit.
type ScheduleInput struct {
	StartDate string `json:"startDate" validate:"required,date_ymd"`
	EndDate   string `json:"endDate" validate:"omitempty,date_ymd"`
	StartTime string `json:"startTime" validate:"omitempty,time_hhmm"`
	EndTime   string `json:"endTime" validate:"omitempty,time_hhmm"`
	RRuleSet  string `json:"rruleSet" validate:"required"`
}

// JobCreateInput creates a job, with a schedule when it recurs.
type JobCreateInput struct {
	Title        string                  `json:"title" validate:"required,no_xss"`
	Instructions string                  `json:"instructions" validate:"omitempty,no_xss"`
	Client       basedto.ClientInput     `json:"client" validate:"required"`
	Team         []string                `json:"team" validate:"omitempty,dive,objectid"`
	LineItems    []basedto.LineItemInput `json:"lineItems" validate:"omitempty,dive"`
	Schedule     *ScheduleInput          `json:"schedule" validate:"omitempty"`
}

// JobListQuery filters GET /jobs.
type JobListQuery struct {
	Status string `query:"status"`
	Client string `query:"client" validate:"omitempty,no_xss"`
	Page   int64  `query:"page"`
	Limit  int64  `query:"limit"`
}
