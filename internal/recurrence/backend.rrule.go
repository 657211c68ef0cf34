package recurrence

import (
	"fmt"

	"github.com/teambition/rrule-go"
)

// RRuleBackend evaluates rules with github.com/teambition/rrule-go.
type RRuleBackend struct{}

// Iterate implements Backend. RDATEs are merged in; EXDATEs are applied by the engine, per day.
func (RRuleBackend) Iterate(r Rule) (Next, error) {
	rr, err := r.RRule()
	if err != nil {
		return nil, fmt.Errorf("build rrule: %w", err)
	}
	if len(r.RDates) == 0 {
		return Next(rr.Iterator()), nil
	}

	loc := r.Location()
	set := &rrule.Set{}
	set.RRule(rr)
	for _, d := range r.RDates {
		set.RDate(d.In(loc))
	}
	return Next(set.Iterator()), nil
}
