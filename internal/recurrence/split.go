package recurrence

import (
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"servicehub/internal/common"
	"servicehub/internal/utility"
)

// SplitInput describes a "this and following" edit of a recurring series.
type SplitInput struct {
	// Rule and Exclusions of the series as stored before the edit.
	Rule       string
	Exclusions []string
	// SplitDate is the day of the edited occurrence.
	SplitDate time.Time
	// Deleted holds the days of open standalone occurrences removed by the split.
	Deleted []time.Time
	// Preserved holds the days of completed standalone occurrences kept by the split.
	Preserved []time.Time
}

// SplitPlan is the outcome of PlanSplit.
type SplitPlan struct {
	// TruncatedRule replaces the original rule; it produces nothing on or after SplitDate.
	TruncatedRule string
	// SuccessorRule continues the series from the first original occurrence on or after
	// SplitDate. Empty when the original has no occurrence left from that day.
	SuccessorRule       string
	SuccessorExclusions []string
	// SuccessorEnd is the last day of a bounded successor, zero when open-ended.
	SuccessorEnd time.Time
}

// PlanSplit computes the rules for a series split. It is pure: persistence is the caller's job.
//
// The truncated rule drops COUNT and ends at the last instant of the day before the split,
// or earlier if the original already ended. The successor keeps frequency, interval and
// BY* parts (implicit ones made explicit from the original DTSTART), starts at the first
// original occurrence on or after the split, and ends where the original ended. RDATEs and
// EXDATEs go to whichever side of the split they fall on. The successor's exclusions are
// the original exclusion days on or after the split, minus the days of deleted standalone
// occurrences, plus the days of preserved ones.
func (e *Engine) PlanSplit(in SplitInput) (SplitPlan, error) {
	orig, err := e.compile(in.Rule)
	if err != nil {
		return SplitPlan{}, err
	}
	split := utility.CivilDate(in.SplitDate)
	bounded := orig.Bounded()
	loc := orig.Location()

	pattern := orig.Clone()
	pattern.RDates = nil
	var anchor, final time.Time
	var haveAnchor, haveFinal bool
	next, err := e.backend.Iterate(pattern)
	if err != nil {
		return SplitPlan{}, common.MalformedRuleError(in.Rule, err)
	}
	for {
		t, ok := next()
		if !ok {
			break
		}
		if !haveAnchor && !utility.CivilDate(t).Before(split) {
			anchor, haveAnchor = t, true
			if !bounded {
				break
			}
		}
		final, haveFinal = t, true
	}

	before, after := partition(orig.RDates, split, loc)
	trunc := truncate(orig, split, final, bounded && haveFinal)
	trunc.RDates = before
	trunc.ExDates, _ = partition(orig.ExDates, split, loc)
	plan := SplitPlan{TruncatedRule: trunc.String()}

	var succ Rule
	switch {
	case haveAnchor:
		succ = orig.Clone()
		succ.Options.Count = 0
		succ.Options.Until = time.Time{}
		makeImplicitExplicit(&succ.Options, orig.DTStart())
		succ.Options.Dtstart = anchor
		succ.RDates = after
		if bounded {
			succ.Options.Until = final.UTC()
		}
	case len(after) > 0:
		// only RDATEs remain: a one-shot rule on the first of them carries the rest
		succ = Rule{
			Options: rrule.ROption{Freq: rrule.DAILY, Count: 1, Dtstart: after[0].In(loc)},
			RDates:  after[1:],
		}
	default:
		return plan, nil
	}
	_, succ.ExDates = partition(orig.ExDates, split, loc)
	plan.SuccessorRule = succ.String()

	if succ.Bounded() {
		end := utility.CivilDate(final)
		if !haveAnchor {
			end = utility.CivilDate(succ.DTStart())
		}
		for _, d := range succ.RDates {
			if day := utility.CivilDate(d.In(loc)); day.After(end) {
				end = day
			}
		}
		plan.SuccessorEnd = end
	}

	exclusions, err := e.successorExclusions(in, split)
	if err != nil {
		return SplitPlan{}, err
	}
	plan.SuccessorExclusions = exclusions
	return plan, nil
}

// partition splits ts into the instants whose day in loc falls before split and the rest.
func partition(ts []time.Time, split time.Time, loc *time.Location) (before, after []time.Time) {
	for _, t := range ts {
		if utility.CivilDate(t.In(loc)).Before(split) {
			before = append(before, t)
		} else {
			after = append(after, t)
		}
	}
	return before, after
}

// truncate ends r at the end of the day before split, or at final when that is earlier.
func truncate(r Rule, split, final time.Time, useFinal bool) Rule {
	t := r.Clone()
	loc := r.Location()
	dayBefore := split.AddDate(0, 0, -1)
	until := time.Date(dayBefore.Year(), dayBefore.Month(), dayBefore.Day(), 23, 59, 59, 0, loc)
	if useFinal && final.Before(until) {
		until = final
	}
	if existing := r.Options.Until; !existing.IsZero() && existing.Before(until) {
		until = existing
	}
	t.Options.Count = 0
	t.Options.Until = until.UTC()
	return t
}

var weekdays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// makeImplicitExplicit pins the BY* parts RFC 5545 derives from DTSTART, so moving
// DTSTART to a later occurrence does not shift the pattern.
func makeImplicitExplicit(o *rrule.ROption, dtstart time.Time) {
	if len(o.Byweekno)+len(o.Byyearday)+len(o.Bymonthday)+len(o.Byweekday) > 0 {
		return
	}
	switch o.Freq {
	case rrule.YEARLY:
		if len(o.Bymonth) == 0 {
			o.Bymonth = []int{int(dtstart.Month())}
		}
		o.Bymonthday = []int{dtstart.Day()}
	case rrule.MONTHLY:
		o.Bymonthday = []int{dtstart.Day()}
	case rrule.WEEKLY:
		o.Byweekday = []rrule.Weekday{weekdays[dtstart.Weekday()]}
	}
}

func (e *Engine) successorExclusions(in SplitInput, split time.Time) ([]string, error) {
	deleted := make(map[time.Time]bool, len(in.Deleted))
	for _, d := range in.Deleted {
		deleted[utility.CivilDate(d)] = true
	}

	days := map[time.Time]bool{}
	var carried []string
	for _, text := range in.Exclusions {
		r, err := e.compile(text)
		if err != nil {
			return nil, err
		}
		if !r.Bounded() {
			carried = append(carried, strings.TrimSpace(text))
			continue
		}
		e.eachDay(r, split, farFuture, func(d time.Time) bool {
			if !deleted[d] {
				days[d] = true
			}
			return true
		})
	}
	for _, p := range in.Preserved {
		if d := utility.CivilDate(p); !d.Before(split) {
			days[d] = true
		}
	}

	sorted := make([]time.Time, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	out := carried
	for _, d := range sorted {
		out = append(out, ExclusionFor(d))
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// farFuture caps iteration of bounded exclusion rules.
var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// PlanSplit plans with the default engine.
func PlanSplit(in SplitInput) (SplitPlan, error) {
	return defaultEngine.PlanSplit(in)
}
