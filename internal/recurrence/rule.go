package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"servicehub/internal/common"
)

var (
	errEmptyRule      = errors.New("rule is empty")
	errMissingDTStart = errors.New("rule has no DTSTART")
	errMissingRRule   = errors.New("rule has no RRULE")
	errManyRRules     = errors.New("only one RRULE is supported")
)

// Rule is a parsed RFC 5545 recurrence set: one RRULE anchored at its DTSTART plus any
// RDATEs and EXDATEs. Options.Dtstart is always set.
type Rule struct {
	Options rrule.ROption
	RDates  []time.Time
	ExDates []time.Time
}

// ParseRule reads rule text in any of these shapes:
//
//	DTSTART:20240101T090000Z
//	RRULE:FREQ=WEEKLY;BYDAY=MO
//	RDATE:20240103T090000Z
//	EXDATE:20240115T090000Z
//
//	DTSTART;TZID=Europe/Paris:20240101T090000\nRRULE:FREQ=DAILY
//	FREQ=DAILY;COUNT=5;DTSTART=20240101T000000Z
//
// A rule without DTSTART or RRULE is a MalformedRuleError.
func ParseRule(text string) (Rule, error) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return Rule{}, common.MalformedRuleError(text, errEmptyRule)
	}

	if len(lines) == 1 && propertyName(lines[0]) == "" {
		opt, err := rrule.StrToROption(lines[0])
		if err != nil {
			return Rule{}, common.MalformedRuleError(text, err)
		}
		return newRule(text, *opt, nil, nil)
	}

	// DTSTART has to lead for the parser to pick it up.
	ordered := make([]string, 0, len(lines))
	rrules := 0
	for _, line := range lines {
		switch propertyName(line) {
		case "DTSTART":
			ordered = append([]string{line}, ordered...)
		case "RRULE":
			rrules++
			ordered = append(ordered, line)
		case "RDATE", "EXDATE":
			ordered = append(ordered, line)
		default:
			return Rule{}, common.MalformedRuleError(text, fmt.Errorf("unsupported line %q", line))
		}
	}
	if rrules > 1 {
		return Rule{}, common.MalformedRuleError(text, errManyRRules)
	}

	set, err := rrule.StrSliceToRRuleSet(ordered)
	if err != nil {
		return Rule{}, common.MalformedRuleError(text, err)
	}
	if set.GetRRule() == nil {
		return Rule{}, common.MalformedRuleError(text, errMissingRRule)
	}
	opt := set.GetRRule().OrigOptions
	opt.Dtstart = set.GetDTStart()
	return newRule(text, opt, set.GetRDate(), set.GetExDate())
}

// propertyName is the upper-cased NAME of a NAME[;params]:value line, empty when the line
// has no such prefix.
func propertyName(line string) string {
	i := strings.IndexAny(line, ";:")
	if i <= 0 || strings.Contains(line[:i], "=") {
		return ""
	}
	return strings.ToUpper(line[:i])
}

func newRule(text string, opt rrule.ROption, rdates, exdates []time.Time) (Rule, error) {
	if opt.Dtstart.IsZero() {
		return Rule{}, common.MalformedRuleError(text, errMissingDTStart)
	}
	if _, err := rrule.NewRRule(opt); err != nil {
		return Rule{}, common.MalformedRuleError(text, err)
	}
	return Rule{Options: opt, RDates: rdates, ExDates: exdates}, nil
}

// DTStart is the first instant of the rule.
func (r Rule) DTStart() time.Time {
	return r.Options.Dtstart
}

// Location is the time zone occurrences are reckoned in.
func (r Rule) Location() *time.Location {
	return r.Options.Dtstart.Location()
}

// Clone returns a deep copy.
func (r Rule) Clone() Rule {
	c := r
	o := &c.Options
	o.Bysetpos = append([]int(nil), o.Bysetpos...)
	o.Bymonth = append([]int(nil), o.Bymonth...)
	o.Bymonthday = append([]int(nil), o.Bymonthday...)
	o.Byyearday = append([]int(nil), o.Byyearday...)
	o.Byweekno = append([]int(nil), o.Byweekno...)
	o.Byweekday = append([]rrule.Weekday(nil), o.Byweekday...)
	o.Byhour = append([]int(nil), o.Byhour...)
	o.Byminute = append([]int(nil), o.Byminute...)
	o.Bysecond = append([]int(nil), o.Bysecond...)
	o.Byeaster = append([]int(nil), o.Byeaster...)
	c.RDates = append([]time.Time(nil), r.RDates...)
	c.ExDates = append([]time.Time(nil), r.ExDates...)
	return c
}

// Bounded reports whether the RRULE ends on its own (COUNT or UNTIL).
func (r Rule) Bounded() bool {
	return r.Options.Count > 0 || !r.Options.Until.IsZero()
}

// RRule builds the library rule for the RRULE part alone.
func (r Rule) RRule() (*rrule.RRule, error) {
	return rrule.NewRRule(r.Options)
}

// Set builds the library recurrence set, RDATEs and EXDATEs included.
func (r Rule) Set() (*rrule.Set, error) {
	rr, err := r.RRule()
	if err != nil {
		return nil, err
	}
	set := &rrule.Set{}
	set.RRule(rr)
	set.SetRDates(r.RDates)
	set.SetExDates(r.ExDates)
	return set, nil
}

// String renders the rule as RFC 5545 text.
func (r Rule) String() string {
	set, err := r.Set()
	if err != nil {
		return r.Options.String()
	}
	return set.String()
}

// ExclusionFor returns a single-occurrence rule that suppresses day.
func ExclusionFor(day time.Time) string {
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return Rule{Options: rrule.ROption{Freq: rrule.DAILY, Count: 1, Dtstart: d}}.String()
}
