// Package priority ranks upcoming assignments, asking the model first and
// falling back to a due date and points heuristic.
package priority

import (
	"sort"

	"mycally/internal/canvas"
)

// Level is an assignment's priority.
type Level string

const (
	High   Level = "high"
	Medium Level = "medium"
	Low    Level = "low"
)

// Valid reports whether l is one of the three known levels.
func (l Level) Valid() bool {
	return l == High || l == Medium || l == Low
}

func (l Level) rank() int {
	switch l {
	case High:
		return 0
	case Medium:
		return 1
	default:
		return 2
	}
}

// Assessment is the classifier's verdict for one assignment id.
type Assessment struct {
	ID       int64  `json:"id"`
	Priority Level  `json:"priority"`
	Notes    string `json:"notes"`
}

// PrioritizedAssignment is a ProcessedAssignment with its priority attached.
type PrioritizedAssignment struct {
	canvas.ProcessedAssignment
	Priority Level  `json:"priority"`
	AINotes  string `json:"aiNotes"`
}

// Outcome tells which variant a Result holds.
type Outcome int

const (
	Classified Outcome = iota
	Unavailable
)

func (o Outcome) String() string {
	if o == Classified {
		return "classified"
	}
	return "unavailable"
}

// Result is either Classified with Assessments or Unavailable with a Reason.
type Result struct {
	Outcome     Outcome
	Assessments []Assessment
	Reason      string
}

// ClassifiedResult wraps model assessments.
func ClassifiedResult(a []Assessment) Result {
	return Result{Outcome: Classified, Assessments: a}
}

// UnavailableResult records why the model could not be used.
func UnavailableResult(reason string) Result {
	return Result{Outcome: Unavailable, Reason: reason}
}

const (
	defaultNotes  = "Auto-prioritized based on due date and points"
	missingNotes  = "No AI notes available"
	highPointsMin = 50
)

// Fallback classifies without the model: three days or less is high, a week
// or less medium, anything later low, undated medium. Assignments worth 50
// points or more are raised to high.
func Fallback(list []canvas.ProcessedAssignment) []Assessment {
	out := make([]Assessment, 0, len(list))
	for _, a := range list {
		level, notes := Medium, defaultNotes
		if a.DaysUntilDue != nil {
			switch d := *a.DaysUntilDue; {
			case d <= 3:
				level, notes = High, "Due soon (3 days or less)"
			case d <= 7:
				level, notes = Medium, "Due within a week"
			default:
				level, notes = Low, "Due in more than a week"
			}
		}
		if a.PointsPossible >= highPointsMin && level != High {
			level = High
			notes += ", high point value"
		}
		out = append(out, Assessment{ID: a.ID, Priority: level, Notes: notes})
	}
	return out
}

// Resolve picks the model assessments or the fallback for list.
func Resolve(r Result, list []canvas.ProcessedAssignment) []Assessment {
	if r.Outcome == Classified {
		return r.Assessments
	}
	return Fallback(list)
}

// Merge attaches assessments to assignments by id and returns them sorted.
// Assignments without a usable assessment become medium.
func Merge(list []canvas.ProcessedAssignment, assessments []Assessment) []PrioritizedAssignment {
	byID := make(map[int64]Assessment, len(assessments))
	for _, a := range assessments {
		if _, dup := byID[a.ID]; !dup {
			byID[a.ID] = a
		}
	}
	out := make([]PrioritizedAssignment, 0, len(list))
	for _, asg := range list {
		p := PrioritizedAssignment{ProcessedAssignment: asg, Priority: Medium, AINotes: missingNotes}
		if a, ok := byID[asg.ID]; ok {
			if a.Priority.Valid() {
				p.Priority = a.Priority
			}
			if a.Notes != "" {
				p.AINotes = a.Notes
			}
		}
		out = append(out, p)
	}
	Sort(out)
	return out
}

// Sort orders high before medium before low, then by due date with undated last.
func Sort(list []PrioritizedAssignment) {
	sort.SliceStable(list, func(i, j int) bool {
		ri, rj := list[i].Priority.rank(), list[j].Priority.rank()
		if ri != rj {
			return ri < rj
		}
		return canvas.DueBefore(list[i].DueAt, list[j].DueAt)
	})
}
