package recurrence

import (
	"errors"
	"iter"
	"testing"
	"time"
	_ "time/tzdata"

	"servicehub/internal/common"
	"servicehub/internal/utility"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weeklyMondays = "DTSTART:20240101T000000Z\nRRULE:FREQ=WEEKLY;BYDAY=MO"

func day(s string) time.Time {
	d, err := utility.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func collect(seq iter.Seq[time.Time]) []string {
	out := []string{}
	for d := range seq {
		out = append(out, utility.FormatDate(d))
	}
	return out
}

func expand(t *testing.T, rule string, exclusions []string, from, to string) []string {
	t.Helper()
	seq, err := ExpandOccurrences(rule, exclusions, day(from), day(to))
	require.NoError(t, err)
	return collect(seq)
}

func TestExpandOccurrences_WeeklyMondays(t *testing.T) {
	got := expand(t, weeklyMondays, nil, "2024-01-01", "2024-01-31")
	assert.Equal(t, []string{"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22", "2024-01-29"}, got)
}

func TestExpandOccurrences_ExclusionApplied(t *testing.T) {
	got := expand(t, weeklyMondays, []string{ExclusionFor(day("2024-01-15"))}, "2024-01-01", "2024-01-31")
	assert.Equal(t, []string{"2024-01-01", "2024-01-08", "2024-01-22", "2024-01-29"}, got)
}

func TestExpandOccurrences_Deterministic(t *testing.T) {
	excl := []string{ExclusionFor(day("2024-01-08"))}
	seq, err := ExpandOccurrences(weeklyMondays, excl, day("2024-01-01"), day("2024-03-31"))
	require.NoError(t, err)

	first := collect(seq)
	second := collect(seq)
	assert.Equal(t, first, second)

	again := expand(t, weeklyMondays, excl, "2024-01-01", "2024-03-31")
	assert.Equal(t, first, again)
}

func TestExpandOccurrences_NoDuplicateDays(t *testing.T) {
	rule := "DTSTART:20240101T090000Z\nRRULE:FREQ=DAILY;BYHOUR=9,17;COUNT=6"
	got := expand(t, rule, nil, "2024-01-01", "2024-01-31")
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, got)
}

func TestExpandOccurrences_SingleDayWindow(t *testing.T) {
	assert.Equal(t, []string{"2024-01-08"}, expand(t, weeklyMondays, nil, "2024-01-08", "2024-01-08"))
	assert.Empty(t, expand(t, weeklyMondays, nil, "2024-01-09", "2024-01-09"))
}

func TestExpandOccurrences_InvertedWindowIsEmpty(t *testing.T) {
	assert.Empty(t, expand(t, weeklyMondays, nil, "2024-01-31", "2024-01-01"))
}

func TestExpandOccurrences_UnboundedStopsAtWindowEnd(t *testing.T) {
	got := expand(t, "DTSTART:20200101T000000Z\nRRULE:FREQ=DAILY", nil, "2024-02-27", "2024-03-01")
	assert.Equal(t, []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"}, got)
}

func TestExpandOccurrences_ExDateOnBaseRule(t *testing.T) {
	rule := weeklyMondays + "\nEXDATE:20240108T000000Z,20240122T000000Z"
	got := expand(t, rule, nil, "2024-01-01", "2024-01-31")
	assert.Equal(t, []string{"2024-01-01", "2024-01-15", "2024-01-29"}, got)
}

func TestExpandOccurrences_DaysInRuleTimeZone(t *testing.T) {
	rule := "DTSTART;TZID=America/New_York:20240101T220000\nRRULE:FREQ=DAILY;COUNT=2"
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, expand(t, rule, nil, "2024-01-01", "2024-01-31"))
}

func TestExpandOccurrences_MissingDTStart(t *testing.T) {
	_, err := ExpandOccurrences("RRULE:FREQ=WEEKLY;BYDAY=MO", nil, day("2024-01-01"), day("2024-01-31"))
	assert.True(t, errors.Is(err, common.ErrMalformedRule))
	assert.Equal(t, common.KindMalformedRule, common.KindOf(err))
}

func TestExpandOccurrences_MalformedExclusion(t *testing.T) {
	_, err := ExpandOccurrences(weeklyMondays, []string{"FREQ=DAILY;COUNT=1"}, day("2024-01-01"), day("2024-01-31"))
	assert.True(t, errors.Is(err, common.ErrMalformedRule))
}

func TestExpandOccurrences_UnknownFrequency(t *testing.T) {
	_, err := ExpandOccurrences("DTSTART:20240101T000000Z\nRRULE:FREQ=SOMETIMES", nil, day("2024-01-01"), day("2024-01-31"))
	assert.True(t, errors.Is(err, common.ErrMalformedRule))
}

func TestComputeVisitSummaries(t *testing.T) {
	visits := []VisitSchedule{
		{
			VisitID:   "a",
			Status:    "NOT-COMPLETED",
			StartDate: "2024-01-01",
			StartTime: "09:00",
			Rule:      weeklyMondays,
			LineItems: []utility.PricedLine{{Quantity: 2, UnitPrice: 50}, {Quantity: 1, UnitPrice: 19.99}},
		},
		{VisitID: "b", Status: "COMPLETED", StartDate: "2024-01-08", StartTime: "08:00", LineItems: []utility.PricedLine{{Quantity: 1, UnitPrice: 10}}},
		{VisitID: "c", Status: "NOT-COMPLETED", StartDate: "2024-02-01", StartTime: "08:00"},
	}

	got, err := ComputeVisitSummaries(visits, day("2024-01-01"), day("2024-01-14"))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "2024-01-01", got[0].OccurrenceDate)
	assert.Equal(t, "a", got[0].VisitID)
	assert.Equal(t, "119.99", got[0].TotalPrice.String())

	assert.Equal(t, "2024-01-08", got[1].OccurrenceDate)
	assert.Equal(t, "b", got[1].VisitID)
	assert.Equal(t, "COMPLETED", got[1].Status)
	assert.Equal(t, "10", got[1].TotalPrice.String())

	assert.Equal(t, "a", got[2].VisitID)
	assert.True(t, got[2].TotalPrice.Equal(got[0].TotalPrice))
}

func TestComputeVisitSummaries_MalformedRule(t *testing.T) {
	_, err := ComputeVisitSummaries([]VisitSchedule{{VisitID: "x", Rule: "RRULE:FREQ=DAILY"}}, day("2024-01-01"), day("2024-01-02"))
	assert.True(t, errors.Is(err, common.ErrMalformedRule))
}

func TestOccursOnAndValidate(t *testing.T) {
	e := Default()
	ok, err := e.OccursOn(weeklyMondays, nil, day("2024-01-15"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.OccursOn(weeklyMondays, []string{ExclusionFor(day("2024-01-15"))}, day("2024-01-15"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.OccursOn(weeklyMondays, nil, day("2024-01-16"))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, e.Validate(weeklyMondays))
	assert.True(t, errors.Is(e.Validate("RRULE:FREQ=DAILY"), common.ErrMalformedRule))
}

func TestFirstDay(t *testing.T) {
	e := Default()
	cases := []struct{ rule, want string }{
		{weeklyMondays, "2024-01-01"},
		{"DTSTART;TZID=Asia/Tokyo:20240101T063000\nRRULE:FREQ=DAILY", "2024-01-01"},
		{"DTSTART:20240110T000000Z\nRRULE:FREQ=DAILY;COUNT=2\nRDATE:20240105T000000Z", "2024-01-05"},
	}
	for _, c := range cases {
		got, err := e.FirstDay(c.rule)
		require.NoError(t, err)
		assert.Equal(t, c.want, got.Format("2006-01-02"), c.rule)
	}

	_, err := e.FirstDay("RRULE:FREQ=DAILY")
	assert.True(t, errors.Is(err, common.ErrMalformedRule))
}
