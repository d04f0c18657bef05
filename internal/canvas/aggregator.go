package canvas

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"mycally/internal/dates"
	"mycally/internal/logger"
)

// Source is the slice of the Canvas API the aggregator reads.
type Source interface {
	ActiveCourses(ctx context.Context) ([]Course, error)
	CourseAssignments(ctx context.Context, courseID int64) ([]Assignment, error)
}

// Aggregator flattens upcoming assignments across every active course.
type Aggregator struct {
	src Source
	log *logger.Logger
	now func() time.Time
}

// NewAggregator builds an aggregator over src.
func NewAggregator(src Source, log *logger.Logger) *Aggregator {
	return &Aggregator{src: src, log: log.With("service", "CanvasAggregator"), now: time.Now}
}

// WithClock replaces the clock used for the "upcoming" cut-off.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Upcoming fetches every active course's assignments concurrently and returns
// the ones due strictly after now, soonest first. The first failed fetch
// cancels the rest and is returned.
func (a *Aggregator) Upcoming(ctx context.Context) ([]ProcessedAssignment, error) {
	courses, err := a.src.ActiveCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch courses: %w", err)
	}

	perCourse := make([][]Assignment, len(courses))
	g, gctx := errgroup.WithContext(ctx)
	for i, course := range courses {
		g.Go(func() error {
			list, err := a.src.CourseAssignments(gctx, course.ID)
			if err != nil {
				return fmt.Errorf("fetch assignments for course %d: %w", course.ID, err)
			}
			for j := range list {
				list[j].CourseID = course.ID
				list[j].Course = course.Name
			}
			perCourse[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := a.now()
	var upcoming []Assignment
	for _, list := range perCourse {
		for _, asg := range list {
			if asg.DueAt != nil && asg.DueAt.After(now) {
				upcoming = append(upcoming, asg)
			}
		}
	}
	out := Process(upcoming, now)
	SortByDue(out)
	a.log.Debug("canvas assignments aggregated", "courses", len(courses), "upcoming", len(out))
	return out, nil
}

// Process attaches DaysUntilDue relative to now. Undated assignments get nil.
func Process(list []Assignment, now time.Time) []ProcessedAssignment {
	out := make([]ProcessedAssignment, 0, len(list))
	for _, asg := range list {
		out = append(out, ProcessedAssignment{Assignment: asg, DaysUntilDue: daysUntil(asg.DueAt, now)})
	}
	return out
}

// Refresh recomputes DaysUntilDue from DueAt, discarding whatever value was supplied.
func Refresh(list []ProcessedAssignment, now time.Time) []ProcessedAssignment {
	out := make([]ProcessedAssignment, len(list))
	for i, p := range list {
		p.DaysUntilDue = daysUntil(p.DueAt, now)
		out[i] = p
	}
	return out
}

// SortByDue orders by due date ascending with undated assignments last.
func SortByDue(list []ProcessedAssignment) {
	sort.SliceStable(list, func(i, j int) bool {
		return DueBefore(list[i].DueAt, list[j].DueAt)
	})
}

// DueBefore reports whether a sorts before b when nil means "no due date".
func DueBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}

func daysUntil(due *time.Time, now time.Time) *int {
	if due == nil {
		return nil
	}
	d := dates.DaysUntil(*due, now)
	return &d
}
