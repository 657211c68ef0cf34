package recurrence

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// calendar is the effective set of days of a series plus its standalone visits.
func calendar(t *testing.T, rule string, exclusions []string, standalone []string, from, to string) []string {
	t.Helper()
	days := map[string]bool{}
	if rule != "" {
		for _, d := range expand(t, rule, exclusions, from, to) {
			require.False(t, days[d], "day %s produced twice", d)
			days[d] = true
		}
	}
	for _, d := range standalone {
		if d >= from && d <= to {
			days[d] = true
		}
	}
	out := make([]string, 0, len(days))
	for d := range days {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func TestPlanSplit_PreservesCoverage(t *testing.T) {
	rule := "DTSTART:20240101T000000Z\nRRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=10"
	exclusions := []string{ExclusionFor(day("2024-02-05")), ExclusionFor(day("2024-02-12"))}
	standalone := []string{"2024-02-05", "2024-02-12"}
	before := calendar(t, rule, exclusions, standalone, "2023-12-01", "2024-04-30")
	require.Len(t, before, 10)

	plan, err := PlanSplit(SplitInput{
		Rule:       rule,
		Exclusions: exclusions,
		SplitDate:  day("2024-01-29"),
		Deleted:    []time.Time{day("2024-02-05")},
		Preserved:  []time.Time{day("2024-02-12")},
	})
	require.NoError(t, err)

	truncated := expand(t, plan.TruncatedRule, exclusions, "2023-12-01", "2024-04-30")
	assert.Equal(t, []string{"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22"}, truncated)

	successor := expand(t, plan.SuccessorRule, plan.SuccessorExclusions, "2023-12-01", "2024-04-30")
	assert.Equal(t, []string{"2024-01-29", "2024-02-05", "2024-02-19", "2024-02-26", "2024-03-04"}, successor)
	assert.Equal(t, []string{ExclusionFor(day("2024-02-12"))}, plan.SuccessorExclusions)
	assert.Equal(t, "2024-03-04", plan.SuccessorEnd.Format("2006-01-02"))

	after := map[string]bool{}
	for _, d := range append(append(truncated, successor...), "2024-02-12") {
		assert.False(t, after[d], "day %s covered twice", d)
		after[d] = true
	}
	got := make([]string, 0, len(after))
	for d := range after {
		got = append(got, d)
	}
	sort.Strings(got)
	assert.Equal(t, before, got)
}

func TestPlanSplit_KeepsIntervalPhase(t *testing.T) {
	rule := "DTSTART:20240101T090000Z\nRRULE:FREQ=WEEKLY;INTERVAL=2"
	before := expand(t, rule, nil, "2024-01-01", "2024-02-29")

	plan, err := PlanSplit(SplitInput{Rule: rule, SplitDate: day("2024-01-22")})
	require.NoError(t, err)

	truncated := expand(t, plan.TruncatedRule, nil, "2024-01-01", "2024-02-29")
	successor := expand(t, plan.SuccessorRule, plan.SuccessorExclusions, "2024-01-01", "2024-02-29")
	assert.Equal(t, []string{"2024-01-01", "2024-01-15"}, truncated)
	assert.Equal(t, []string{"2024-01-29", "2024-02-12", "2024-02-26"}, successor)
	assert.Equal(t, before, append(truncated, successor...))

	assert.Contains(t, plan.SuccessorRule, "DTSTART:20240129T090000Z")
	assert.Contains(t, plan.SuccessorRule, "BYDAY=MO")
	assert.NotContains(t, plan.SuccessorRule, "UNTIL")
	assert.True(t, plan.SuccessorEnd.IsZero())
	assert.Empty(t, plan.SuccessorExclusions)
	assert.NotNil(t, plan.SuccessorExclusions)
}

func TestPlanSplit_MonthlyImplicitDay(t *testing.T) {
	rule := "DTSTART:20240131T000000Z\nRRULE:FREQ=MONTHLY;COUNT=4"
	before := expand(t, rule, nil, "2024-01-01", "2024-12-31")

	plan, err := PlanSplit(SplitInput{Rule: rule, SplitDate: day("2024-02-15")})
	require.NoError(t, err)

	truncated := expand(t, plan.TruncatedRule, nil, "2024-01-01", "2024-12-31")
	successor := expand(t, plan.SuccessorRule, nil, "2024-01-01", "2024-12-31")
	assert.Equal(t, before, append(truncated, successor...))
	assert.Contains(t, plan.SuccessorRule, "BYMONTHDAY=31")
}

func TestPlanSplit_AfterSeriesEnd(t *testing.T) {
	rule := "DTSTART:20240101T000000Z\nRRULE:FREQ=DAILY;COUNT=3"
	plan, err := PlanSplit(SplitInput{Rule: rule, SplitDate: day("2024-02-01")})
	require.NoError(t, err)

	assert.Empty(t, plan.SuccessorRule)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, expand(t, plan.TruncatedRule, nil, "2024-01-01", "2024-12-31"))
}

func TestPlanSplit_OnFirstOccurrence(t *testing.T) {
	plan, err := PlanSplit(SplitInput{Rule: weeklyMondays, SplitDate: day("2024-01-01")})
	require.NoError(t, err)

	assert.Empty(t, expand(t, plan.TruncatedRule, nil, "2023-01-01", "2024-12-31"))
	assert.Equal(t, []string{"2024-01-01", "2024-01-08"}, expand(t, plan.SuccessorRule, nil, "2024-01-01", "2024-01-14"))
}

func TestPlanSplit_CarriesExDatesAndUnboundedExclusions(t *testing.T) {
	rule := weeklyMondays + "\nEXDATE:20240108T000000Z,20240219T000000Z"
	everyOtherFriday := "DTSTART:20240105T000000Z\nRRULE:FREQ=WEEKLY;INTERVAL=2"
	plan, err := PlanSplit(SplitInput{Rule: rule, Exclusions: []string{everyOtherFriday}, SplitDate: day("2024-02-01")})
	require.NoError(t, err)

	succ, err := ParseRule(plan.SuccessorRule)
	require.NoError(t, err)
	require.Len(t, succ.ExDates, 1)
	assert.Equal(t, "2024-02-19", succ.ExDates[0].Format("2006-01-02"))
	assert.Equal(t, []string{everyOtherFriday}, plan.SuccessorExclusions)
}

func TestPlanSplit_MalformedRule(t *testing.T) {
	_, err := PlanSplit(SplitInput{Rule: "RRULE:FREQ=DAILY", SplitDate: day("2024-01-01")})
	assert.Error(t, err)

	_, err = PlanSplit(SplitInput{Rule: weeklyMondays, Exclusions: []string{"garbage"}, SplitDate: day("2024-01-15")})
	assert.Error(t, err)
}

func TestPlanSplit_PartitionsRDates(t *testing.T) {
	rule := "DTSTART:20240101T000000Z\nRRULE:FREQ=WEEKLY;BYDAY=MO;COUNT=4\nRDATE:20240103T000000Z,20240117T000000Z"
	before := expand(t, rule, nil, "2024-01-01", "2024-01-31")
	require.Len(t, before, 6)

	plan, err := PlanSplit(SplitInput{Rule: rule, SplitDate: day("2024-01-10")})
	require.NoError(t, err)

	truncated := expand(t, plan.TruncatedRule, nil, "2024-01-01", "2024-01-31")
	successor := expand(t, plan.SuccessorRule, nil, "2024-01-01", "2024-01-31")
	assert.Equal(t, []string{"2024-01-01", "2024-01-03", "2024-01-08"}, truncated)
	assert.Equal(t, []string{"2024-01-15", "2024-01-17", "2024-01-22"}, successor)
	assert.Equal(t, "2024-01-22", plan.SuccessorEnd.Format("2006-01-02"))
	assert.Equal(t, before, append(truncated, successor...))
}

func TestPlanSplit_OnlyRDatesLeft(t *testing.T) {
	rule := "DTSTART:20240101T000000Z\nRRULE:FREQ=DAILY;COUNT=2\nRDATE:20240110T000000Z,20240120T000000Z"
	plan, err := PlanSplit(SplitInput{Rule: rule, SplitDate: day("2024-01-05")})
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, expand(t, plan.TruncatedRule, nil, "2024-01-01", "2024-01-31"))
	assert.Equal(t, []string{"2024-01-10", "2024-01-20"}, expand(t, plan.SuccessorRule, nil, "2024-01-01", "2024-01-31"))
	assert.Equal(t, "2024-01-20", plan.SuccessorEnd.Format("2006-01-02"))
}
