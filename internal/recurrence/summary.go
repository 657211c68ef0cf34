package recurrence

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"servicehub/internal/utility"
)

// VisitSchedule is the part of a visit the calendar projection needs.
// Rule is empty for a single, non-recurring visit.
type VisitSchedule struct {
	VisitID    string
	Status     string
	StartDate  string
	StartTime  string
	Rule       string
	Exclusions []string
	LineItems  []utility.PricedLine
}

// VisitOccurrenceSummary is one calendar cell: a visit on one of its occurrence days.
type VisitOccurrenceSummary struct {
	VisitID        string          `json:"visitId"`
	Status         string          `json:"status"`
	StartTime      string          `json:"startTime"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	OccurrenceDate string          `json:"occurrenceDate"`
}

// ComputeVisitSummaries projects visits onto the days of [windowStart, windowEnd].
// Every occurrence of a visit carries the same total, the sum of its line items.
// Output is ordered by occurrence date, then start time, then visit id.
func (e *Engine) ComputeVisitSummaries(visits []VisitSchedule, windowStart, windowEnd time.Time) ([]VisitOccurrenceSummary, error) {
	from, to := utility.CivilDate(windowStart), utility.CivilDate(windowEnd)
	out := []VisitOccurrenceSummary{}

	for _, v := range visits {
		total := utility.LineItemsTotal(v.LineItems)
		emit := func(day time.Time) {
			out = append(out, VisitOccurrenceSummary{
				VisitID:        v.VisitID,
				Status:         v.Status,
				StartTime:      v.StartTime,
				TotalPrice:     total,
				OccurrenceDate: utility.FormatDate(day),
			})
		}

		if v.Rule == "" {
			day, err := utility.ParseDate(v.StartDate)
			if err != nil {
				return nil, err
			}
			if !day.Before(from) && !day.After(to) {
				emit(day)
			}
			continue
		}

		days, err := e.ExpandOccurrences(v.Rule, v.Exclusions, from, to)
		if err != nil {
			return nil, err
		}
		for day := range days {
			emit(day)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OccurrenceDate != out[j].OccurrenceDate {
			return out[i].OccurrenceDate < out[j].OccurrenceDate
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].VisitID < out[j].VisitID
	})
	return out, nil
}

// ComputeVisitSummaries projects with the default engine.
func ComputeVisitSummaries(visits []VisitSchedule, windowStart, windowEnd time.Time) ([]VisitOccurrenceSummary, error) {
	return defaultEngine.ComputeVisitSummaries(visits, windowStart, windowEnd)
}
