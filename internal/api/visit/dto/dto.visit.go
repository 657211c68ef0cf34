// Package visitdto holds request shapes for the visit routes.
package visitdto

import basedto "servicehub/internal/api/base/dto"

// VisitCreateInput creates an ad-hoc visit, single or recurring.
type VisitCreateInput struct {
	Job          string                  `json:"job" validate:"required,objectid"`
	Title        string                  `json:"title" validate:"omitempty,no_xss"`
	Instructions string                  `json:"instructions" validate:"omitempty,no_xss"`
	StartDate    string                  `json:"startDate" validate:"required,date_ymd"`
	EndDate      string                  `json:"endDate" validate:"omitempty,date_ymd"`
	StartTime    string                  `json:"startTime" validate:"omitempty,time_hhmm"`
	EndTime      string                  `json:"endTime" validate:"omitempty,time_hhmm"`
	RRuleSet     string                  `json:"rruleSet"`
	Team         []string                `json:"team" validate:"omitempty,dive,objectid"`
	LineItems    []basedto.LineItemInput `json:"lineItems" validate:"omitempty,dive"`
}

// VisitUpdateInput edits fields of one visit record. Nil fields are left alone.
type VisitUpdateInput struct {
	Title        *string                  `json:"title" validate:"omitempty,no_xss"`
	Instructions *string                  `json:"instructions" validate:"omitempty,no_xss"`
	StartDate    *string                  `json:"startDate" validate:"omitempty,date_ymd"`
	EndDate      *string                  `json:"endDate" validate:"omitempty,date_ymd"`
	StartTime    *string                  `json:"startTime" validate:"omitempty,time_hhmm"`
	EndTime      *string                  `json:"endTime" validate:"omitempty,time_hhmm"`
	Team         *[]string                `json:"team" validate:"omitempty,dive,objectid"`
	LineItems    *[]basedto.LineItemInput `json:"lineItems" validate:"omitempty,dive"`
}

// OccurrenceEditInput edits one or more occurrences of a series starting on StartDate.
// Date is the occurrence being edited; StartDate is where it moves to (defaults to Date).
type OccurrenceEditInput struct {
	Date string `json:"date" validate:"required,date_ymd"`
	VisitUpdateInput
}

// VisitListQuery filters GET /visits.
type VisitListQuery struct {
	Job   string `query:"job" validate:"omitempty,objectid"`
	From  string `query:"from" validate:"omitempty,date_ymd"`
	To    string `query:"to" validate:"omitempty,date_ymd"`
	Page  int64  `query:"page"`
	Limit int64  `query:"limit"`
}

