package canvas

import (
	"context"
	"errors"
	"testing"
	"time"

	"mycally/internal/logger"
)

type fakeSource struct {
	courses []Course
	byID    map[int64][]Assignment
	fail    map[int64]error
}

func (f *fakeSource) ActiveCourses(ctx context.Context) ([]Course, error) {
	return f.courses, nil
}

func (f *fakeSource) CourseAssignments(ctx context.Context, id int64) ([]Assignment, error) {
	if err := f.fail[id]; err != nil {
		return nil, err
	}
	return append([]Assignment(nil), f.byID[id]...), nil
}

func at(t time.Time) *time.Time { return &t }

func TestAggregatorFiltersAndSorts(t *testing.T) {
	now := time.Date(2024, time.April, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{
		courses: []Course{{ID: 1, Name: "Algorithms"}, {ID: 2, Name: "Databases"}},
		byID: map[int64][]Assignment{
			1: {
				{ID: 10, Name: "late", DueAt: at(now.Add(72 * time.Hour))},
				{ID: 11, Name: "past", DueAt: at(now.Add(-time.Hour))},
				{ID: 12, Name: "undated"},
			},
			2: {
				{ID: 20, Name: "soon", DueAt: at(now.Add(2 * time.Hour))},
				{ID: 21, Name: "exactly now", DueAt: at(now)},
			},
		},
	}
	got, err := NewAggregator(src, logger.Nop()).WithClock(func() time.Time { return now }).Upcoming(context.Background())
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len: got=%d want=2 (%+v)", len(got), got)
	}
	if got[0].ID != 20 || got[1].ID != 10 {
		t.Fatalf("order: got=%d,%d want=20,10", got[0].ID, got[1].ID)
	}
	if got[0].Course != "Databases" || got[0].CourseID != 2 {
		t.Fatalf("course: got=%q/%d", got[0].Course, got[0].CourseID)
	}
	if got[0].DaysUntilDue == nil || *got[0].DaysUntilDue != 1 || *got[1].DaysUntilDue != 3 {
		t.Fatalf("days: got=%v,%v want=1,3", *got[0].DaysUntilDue, *got[1].DaysUntilDue)
	}
}

func TestAggregatorFirstErrorWins(t *testing.T) {
	boom := errors.New("boom")
	src := &fakeSource{
		courses: []Course{{ID: 1}, {ID: 2}},
		byID:    map[int64][]Assignment{1: {{ID: 1, DueAt: at(time.Now().Add(time.Hour))}}},
		fail:    map[int64]error{2: boom},
	}
	_, err := NewAggregator(src, logger.Nop()).Upcoming(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("got=%v want wrapped boom", err)
	}
}

func TestRefreshRecomputesStaleDays(t *testing.T) {
	now := time.Date(2024, time.April, 1, 12, 0, 0, 0, time.UTC)
	stale := 99
	in := []ProcessedAssignment{
		{Assignment: Assignment{ID: 1, DueAt: at(now.Add(30 * time.Hour))}, DaysUntilDue: &stale},
		{Assignment: Assignment{ID: 2}, DaysUntilDue: &stale},
	}
	out := Refresh(in, now)
	if out[0].DaysUntilDue == nil || *out[0].DaysUntilDue != 2 {
		t.Fatalf("dated: got=%v want=2", out[0].DaysUntilDue)
	}
	if out[1].DaysUntilDue != nil {
		t.Fatalf("undated: got=%v want=nil", *out[1].DaysUntilDue)
	}
	if *in[0].DaysUntilDue != 99 {
		t.Fatalf("input mutated")
	}
}
