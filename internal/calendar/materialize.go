package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"mycally/internal/dates"
	"mycally/internal/priority"
	"mycally/internal/syllabus"
)

// Materializer turns domain items into calendar events in one location.
type Materializer struct {
	loc *time.Location
}

// NewMaterializer anchors syllabus days in loc (UTC when nil).
func NewMaterializer(loc *time.Location) *Materializer {
	if loc == nil {
		loc = time.UTC
	}
	return &Materializer{loc: loc}
}

// FromAssignment builds a one hour event ending at the due date. Undated
// assignments yield false.
func (m *Materializer) FromAssignment(a priority.PrioritizedAssignment) (Event, bool) {
	if a.DueAt == nil || a.DueAt.IsZero() {
		return Event{}, false
	}
	end := *a.DueAt
	return Event{
		ID:          AssignmentEventID(a.ID),
		Title:       fmt.Sprintf("[%s] %s", a.Course, a.Name),
		Description: assignmentDescription(a),
		StartDate:   end.Add(-time.Hour),
		EndDate:     end,
		Variant:     PriorityToVariant(string(a.Priority)),
		Source:      SourceCanvas,
	}, true
}

// FromAssignments materializes every dated assignment, sorted by start.
func (m *Materializer) FromAssignments(list []priority.PrioritizedAssignment) []Event {
	out := make([]Event, 0, len(list))
	for _, a := range list {
		if ev, ok := m.FromAssignment(a); ok {
			out = append(out, ev)
		}
	}
	Sort(out)
	return out
}

// FromSyllabus places the item from noon on its start day to 13:00 on its end
// day. A missing or earlier end becomes start plus one hour. Items without a
// start yield false.
func (m *Materializer) FromSyllabus(ev syllabus.Event) (Event, bool) {
	if ev.StartDate.IsZero() {
		return Event{}, false
	}
	start := dates.AtHour(ev.StartDate, m.loc, 12)
	end := start.Add(time.Hour)
	if !ev.EndDate.IsZero() {
		end = dates.AtHour(ev.EndDate, m.loc, 13)
	}
	if !end.After(start) {
		end = start.Add(time.Hour)
	}

	id := ev.ID
	if id == "" {
		id = SyllabusEventID(ev.Title, end)
	}
	level := string(ev.Priority)
	if level == "" {
		level = string(priority.Medium)
	}
	desc := ev.Title
	if strings.TrimSpace(ev.Notes) != "" {
		desc += "\n\nNotes: " + ev.Notes
	}
	return Event{
		ID:          id,
		Title:       "[Syllabus] " + ev.Title,
		Description: desc,
		StartDate:   start,
		EndDate:     end,
		Variant:     PriorityToVariant(level),
		Source:      SourceSyllabus,
	}, true
}

// FromSyllabusEvents materializes a batch of syllabus items, sorted by start.
func (m *Materializer) FromSyllabusEvents(list []syllabus.Event) []Event {
	out := make([]Event, 0, len(list))
	for _, ev := range list {
		if e, ok := m.FromSyllabus(ev); ok {
			out = append(out, e)
		}
	}
	Sort(out)
	return out
}

// Materialize merges assignment and syllabus events into one sorted calendar.
func (m *Materializer) Materialize(assignments []priority.PrioritizedAssignment, items []syllabus.Event) []Event {
	out := append(m.FromAssignments(assignments), m.FromSyllabusEvents(items)...)
	Sort(out)
	return out
}

func assignmentDescription(a priority.PrioritizedAssignment) string {
	var b strings.Builder
	if a.PointsPossible != 0 {
		b.WriteString("Points: " + strconv.FormatFloat(a.PointsPossible, 'f', -1, 64) + "\n")
	}
	if a.DaysUntilDue != nil {
		fmt.Fprintf(&b, "Due in %d days\n", *a.DaysUntilDue)
	} else {
		b.WriteString("No due date specified\n")
	}
	fmt.Fprintf(&b, "Priority: %s (%s)", a.Priority, a.AINotes)
	return b.String()
}
