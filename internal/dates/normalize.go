// Package dates turns the loosely formatted date strings produced by Canvas,
// syllabus parsing and users into unambiguous local calendar dates.
package dates

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ParseError reports an input that no matcher could turn into a date.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dates: cannot normalize %q: %s", e.Input, e.Reason)
}

// errNoMatch tells the chain to try the next matcher.
var errNoMatch = errors.New("no match")

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var (
	isoPrefixRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T`)
	monthFirstRe = regexp.MustCompile(`(?i)^(?:[a-z]+,\s*)?([a-z]+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?$`)
	dayFirstRe   = regexp.MustCompile(`(?i)^(\d{1,2})\s+([a-z]+)\.?(?:,?\s+(\d{4}))?$`)
	bareISORe    = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Normalizer resolves date strings against a fixed location and clock.
type Normalizer struct {
	loc      *time.Location
	now      func() time.Time
	matchers []func(string) (time.Time, error)
}

// New returns a Normalizer anchored in loc (UTC when nil).
func New(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	n := &Normalizer{loc: loc, now: time.Now}
	n.matchers = []func(string) (time.Time, error){
		n.isoDateTime,
		n.monthFirst,
		n.dayFirst,
		n.bareISO,
		n.generic,
	}
	return n
}

// WithClock replaces the clock used to default missing years.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// Location is the zone dates are anchored in.
func (n *Normalizer) Location() *time.Location { return n.loc }

// Normalize returns s as a date at noon local time, or the exact instant for
// ISO timestamps that carry a time component.
func (n *Normalizer) Normalize(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &ParseError{Input: s, Reason: "empty input"}
	}
	for _, m := range n.matchers {
		t, err := m(s)
		if errors.Is(err, errNoMatch) {
			continue
		}
		return t, err
	}
	return time.Time{}, &ParseError{Input: s, Reason: "unrecognized format"}
}

// AtHour places the calendar day of t (in loc) at hour:00.
func AtHour(t time.Time, loc *time.Location, hour int) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, loc)
}

// DaysUntil is the signed number of days from now until due, rounded up.
func DaysUntil(due, now time.Time) int {
	return int(math.Ceil(float64(due.Sub(now)) / float64(24*time.Hour)))
}

func (n *Normalizer) isoDateTime(s string) (time.Time, error) {
	if !isoPrefixRe.MatchString(s) {
		return time.Time{}, errNoMatch
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return t, nil
		}
	}
	// Offsets without a colon and other near-ISO shapes keep their instant.
	if t, err := dateparse.ParseIn(s, n.loc); err == nil {
		return t, nil
	}
	return time.Time{}, errNoMatch
}

func (n *Normalizer) monthFirst(s string) (time.Time, error) {
	m := monthFirstRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, errNoMatch
	}
	return n.build(s, m[1], m[2], m[3])
}

func (n *Normalizer) dayFirst(s string) (time.Time, error) {
	m := dayFirstRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, errNoMatch
	}
	return n.build(s, m[2], m[1], m[3])
}

func (n *Normalizer) bareISO(s string) (time.Time, error) {
	m := bareISORe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, errNoMatch
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 {
		return time.Time{}, &ParseError{Input: s, Reason: "month out of range"}
	}
	return n.noon(s, year, time.Month(month), day)
}

func (n *Normalizer) generic(s string) (time.Time, error) {
	t, err := dateparse.ParseIn(s, n.loc)
	if err != nil {
		return time.Time{}, &ParseError{Input: s, Reason: "unrecognized format"}
	}
	return AtHour(t, n.loc, 12), nil
}

func (n *Normalizer) build(input, monthName, dayStr, yearStr string) (time.Time, error) {
	month, ok := lookupMonth(monthName)
	if !ok {
		return time.Time{}, &ParseError{Input: input, Reason: fmt.Sprintf("unknown month %q", monthName)}
	}
	day, _ := strconv.Atoi(dayStr)
	year := n.now().In(n.loc).Year()
	if yearStr != "" {
		year, _ = strconv.Atoi(yearStr)
	}
	return n.noon(input, year, month, day)
}

func (n *Normalizer) noon(input string, year int, month time.Month, day int) (time.Time, error) {
	t := time.Date(year, month, day, 12, 0, 0, 0, n.loc)
	if day < 1 || t.Day() != day || t.Month() != month {
		return time.Time{}, &ParseError{Input: input, Reason: "day out of range"}
	}
	return t, nil
}

func lookupMonth(name string) (time.Month, bool) {
	name = strings.ToLower(name)
	if len(name) < 3 {
		return 0, false
	}
	m, ok := months[name[:3]]
	return m, ok
}
