package priority

import (
	"testing"
	"time"

	"mycally/internal/canvas"
)

func days(n int) *int { return &n }

func asg(id int64, d *int, points float64, due *time.Time) canvas.ProcessedAssignment {
	return canvas.ProcessedAssignment{
		Assignment:   canvas.Assignment{ID: id, PointsPossible: points, DueAt: due},
		DaysUntilDue: d,
	}
}

func TestFallbackBuckets(t *testing.T) {
	cases := []struct {
		name  string
		in    canvas.ProcessedAssignment
		level Level
		notes string
	}{
		{"due in two days", asg(1, days(2), 10, nil), High, "Due soon (3 days or less)"},
		{"due in three days", asg(2, days(3), 0, nil), High, "Due soon (3 days or less)"},
		{"due in five days", asg(3, days(5), 10, nil), Medium, "Due within a week"},
		{"due in ten days", asg(4, days(10), 10, nil), Low, "Due in more than a week"},
		{"due in ten days, 60 points", asg(5, days(10), 60, nil), High, "Due in more than a week, high point value"},
		{"undated", asg(6, nil, 0, nil), Medium, defaultNotes},
		{"high already, big points", asg(7, days(1), 100, nil), High, "Due soon (3 days or less)"},
	}
	for _, tc := range cases {
		got := Fallback([]canvas.ProcessedAssignment{tc.in})[0]
		if got.Priority != tc.level || got.Notes != tc.notes {
			t.Fatalf("%s: got=%s/%q want=%s/%q", tc.name, got.Priority, got.Notes, tc.level, tc.notes)
		}
	}
}

func TestFallbackIsMonotonicInDaysLeft(t *testing.T) {
	prev := -1
	for d := -3; d <= 30; d++ {
		r := Fallback([]canvas.ProcessedAssignment{asg(1, days(d), 0, nil)})[0].Priority.rank()
		if r < prev {
			t.Fatalf("rank decreased at %d days: got=%d prev=%d", d, r, prev)
		}
		prev = r
	}
}

func TestMergeDefaultsAndOrder(t *testing.T) {
	base := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	d1, d2 := base.Add(48*time.Hour), base.Add(24*time.Hour)
	list := []canvas.ProcessedAssignment{
		asg(1, days(2), 0, &d1),
		asg(2, days(1), 0, &d2),
		asg(3, nil, 0, nil),
		asg(4, days(9), 0, nil),
	}
	got := Merge(list, []Assessment{
		{ID: 1, Priority: High, Notes: "big"},
		{ID: 2, Priority: High, Notes: ""},
		{ID: 4, Priority: "urgent", Notes: "odd"},
	})
	wantIDs := []int64{2, 1, 3, 4}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Fatalf("position %d: got=%d want=%d", i, got[i].ID, id)
		}
	}
	if got[0].AINotes != missingNotes {
		t.Fatalf("empty notes: got=%q want=%q", got[0].AINotes, missingNotes)
	}
	if got[2].Priority != Medium || got[2].AINotes != missingNotes {
		t.Fatalf("missing assessment: got=%+v", got[2])
	}
	if got[3].Priority != Medium || got[3].AINotes != "odd" {
		t.Fatalf("unknown level: got=%+v", got[3])
	}
}

func TestResolveUsesFallbackOnlyWhenUnavailable(t *testing.T) {
	list := []canvas.ProcessedAssignment{asg(1, days(1), 0, nil)}
	if got := Resolve(ClassifiedResult([]Assessment{{ID: 1, Priority: Low, Notes: "x"}}), list); got[0].Priority != Low {
		t.Fatalf("classified: got=%s want=low", got[0].Priority)
	}
	if got := Resolve(UnavailableResult("down"), list); got[0].Priority != High {
		t.Fatalf("unavailable: got=%s want=high", got[0].Priority)
	}
}
