// Package calendar materializes prioritized assignments and syllabus items
// into display-ready calendar events.
package calendar

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Variant is the colour class the scheduler UI renders.
type Variant string

const (
	VariantPrimary Variant = "primary"
	VariantSuccess Variant = "success"
	VariantDefault Variant = "default"
	VariantWarning Variant = "warning"
	VariantDanger  Variant = "danger"
)

// Event sources.
const (
	SourceCanvas   = "canvas"
	SourceSyllabus = "syllabus"
)

// Event is one calendar entry. EndDate is always after StartDate.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Variant     Variant   `json:"variant"`
	Source      string    `json:"source,omitempty"`
}

// PriorityToVariant maps high, medium and low to danger, warning and success.
// Anything else is primary.
func PriorityToVariant(priority string) Variant {
	switch priority {
	case "high":
		return VariantDanger
	case "medium":
		return VariantWarning
	case "low":
		return VariantSuccess
	default:
		return VariantPrimary
	}
}

// AssignmentEventID is the stable id of a Canvas assignment's event.
func AssignmentEventID(assignmentID int64) string {
	return "canvas-" + strconv.FormatInt(assignmentID, 10)
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]`)

// SyllabusEventID derives an id from the title and the event's end instant.
func SyllabusEventID(title string, end time.Time) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(title), "")
	if len(slug) > 20 {
		slug = slug[:20]
	}
	return fmt.Sprintf("syllabus-%s-%d", slug, end.UnixMilli())
}

// Sort orders events by start ascending, events without a start last.
func Sort(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].StartDate, events[j].StartDate
		switch {
		case a.IsZero():
			return false
		case b.IsZero():
			return true
		default:
			return a.Before(b)
		}
	})
}
