// Package recurrence expands recurring visit schedules into concrete occurrence dates
// and plans "this and following" series splits.
//
// Rules are RFC 5545 text, parsed and rendered with rrule-go. Iteration goes through a Backend
// so tests can substitute their own. Occurrences are calendar days: each instant
// produced by a rule is reduced to its day in the rule's own time zone, and windows are
// inclusive on both ends.
package recurrence

import (
	"iter"
	"time"

	"servicehub/internal/common"
	"servicehub/internal/utility"
)

// Next yields the next occurrence instant in ascending order, ok=false when exhausted.
type Next func() (time.Time, bool)

// Backend turns a parsed rule into an ascending occurrence iterator.
type Backend interface {
	Iterate(r Rule) (Next, error)
}

// Engine computes occurrences, summaries and split plans on top of a Backend.
type Engine struct {
	backend Backend
}

// NewEngine returns an engine using b, or the rrule-go backend when b is nil.
func NewEngine(b Backend) *Engine {
	if b == nil {
		b = RRuleBackend{}
	}
	return &Engine{backend: b}
}

var defaultEngine = NewEngine(nil)

// Default returns the shared engine backed by rrule-go.
func Default() *Engine {
	return defaultEngine
}

// ExpandOccurrences returns the days in [windowStart, windowEnd] produced by rule, minus any day
// matched by an exclusion rule or by an EXDATE of rule itself. Malformed rules fail here, before
// any iteration. The returned sequence is finite, ascending, free of duplicates and may be ranged
// over any number of times with the same result. windowStart after windowEnd gives an empty sequence.
func (e *Engine) ExpandOccurrences(rule string, exclusions []string, windowStart, windowEnd time.Time) (iter.Seq[time.Time], error) {
	base, err := e.compile(rule)
	if err != nil {
		return nil, err
	}
	excl := make([]Rule, 0, len(exclusions))
	for _, x := range exclusions {
		r, err := e.compile(x)
		if err != nil {
			return nil, err
		}
		excl = append(excl, r)
	}

	from, to := utility.CivilDate(windowStart), utility.CivilDate(windowEnd)

	return func(yield func(time.Time) bool) {
		if from.After(to) {
			return
		}
		skip := map[time.Time]bool{}
		for _, x := range excl {
			e.eachDay(x, from, to, func(d time.Time) bool {
				skip[d] = true
				return true
			})
		}
		e.eachDay(base, from, to, func(d time.Time) bool {
			if skip[d] {
				return true
			}
			return yield(d)
		})
	}, nil
}

// Validate reports a MalformedRuleError when rule cannot be evaluated.
func (e *Engine) Validate(rule string) error {
	_, err := e.compile(rule)
	return err
}

// FirstDay is the day, in the rule's own zone, of the earliest instant rule names: its
// DTSTART or an earlier RDATE. Listings bound a series from below by this day.
func (e *Engine) FirstDay(rule string) (time.Time, error) {
	r, err := e.compile(rule)
	if err != nil {
		return time.Time{}, err
	}
	first := r.DTStart()
	for _, d := range r.RDates {
		if d.Before(first) {
			first = d
		}
	}
	return utility.CivilDate(first.In(r.Location())), nil
}

// OccursOn reports whether day is an occurrence of rule after exclusions.
func (e *Engine) OccursOn(rule string, exclusions []string, day time.Time) (bool, error) {
	days, err := e.ExpandOccurrences(rule, exclusions, day, day)
	if err != nil {
		return false, err
	}
	for range days {
		return true, nil
	}
	return false, nil
}

// compile parses rule and checks that the backend accepts it.
func (e *Engine) compile(text string) (Rule, error) {
	r, err := ParseRule(text)
	if err != nil {
		return Rule{}, err
	}
	if _, err := e.backend.Iterate(r); err != nil {
		return Rule{}, common.MalformedRuleError(text, err)
	}
	return r, nil
}

// eachDay calls fn for every distinct day of r within [from, to] in ascending order,
// skipping r's own EXDATEs. It stops early when fn returns false.
func (e *Engine) eachDay(r Rule, from, to time.Time, fn func(time.Time) bool) {
	next, err := e.backend.Iterate(r)
	if err != nil {
		return
	}
	exdates := make(map[time.Time]bool, len(r.ExDates))
	for _, x := range r.ExDates {
		exdates[utility.CivilDate(x.In(r.Location()))] = true
	}

	var last time.Time
	for {
		t, ok := next()
		if !ok {
			return
		}
		d := utility.CivilDate(t)
		if d.After(to) {
			return
		}
		if d.Before(from) || d.Equal(last) || exdates[d] {
			continue
		}
		last = d
		if !fn(d) {
			return
		}
	}
}

// ExpandOccurrences expands with the default engine.
func ExpandOccurrences(rule string, exclusions []string, windowStart, windowEnd time.Time) (iter.Seq[time.Time], error) {
	return defaultEngine.ExpandOccurrences(rule, exclusions, windowStart, windowEnd)
}
