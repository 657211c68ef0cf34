// Package appointmentdto holds request shapes for the appointment and booking routes.
package appointmentdto

import basedto "servicehub/internal/api/base/dto"

type AppointmentCreateInput struct {
	Client    basedto.ClientInput `json:"client" validate:"required"`
	Date      string              `json:"date" validate:"required,date_ymd"`
	StartTime string              `json:"startTime" validate:"required,time_hhmm"`
	Duration  int                 `json:"duration" validate:"required,min=5,max=1440"`
	Note      string              `json:"note" validate:"omitempty,no_xss"`
}

// AppointmentListQuery filters GET /appointments by status and an inclusive date range.
type AppointmentListQuery struct {
	Status string `query:"status"`
	From   string `query:"from" validate:"omitempty,date_ymd"`
	To     string `query:"to" validate:"omitempty,date_ymd"`
	Page   int64  `query:"page"`
	Limit  int64  `query:"limit"`
}

type BookingCreateInput struct {
	Client        basedto.ClientInput `json:"client" validate:"required"`
	RequestedDate string              `json:"requestedDate" validate:"required,date_ymd"`
	RequestedTime string              `json:"requestedTime" validate:"omitempty,time_hhmm"`
	Duration      int                 `json:"duration" validate:"omitempty,min=5,max=1440"`
	Note          string              `json:"note" validate:"omitempty,no_xss"`
}

type BookingListQuery struct {
	Status string `query:"status"`
	Page   int64  `query:"page"`
	Limit  int64  `query:"limit"`
}
