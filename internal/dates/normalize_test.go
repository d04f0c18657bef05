package dates

import (
	"errors"
	"testing"
	"time"
)

func fixedNow() time.Time { return time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC) }

func TestNormalizeSupportedForms(t *testing.T) {
	zones := []*time.Location{
		time.UTC,
		time.FixedZone("EST", -5*3600),
		time.FixedZone("JST", 9*3600),
	}
	cases := []struct {
		in    string
		year  int
		month time.Month
		day   int
	}{
		{"2024-04-16", 2024, time.April, 16},
		{"2024-4-6", 2024, time.April, 6},
		{"April 16, 2024", 2024, time.April, 16},
		{"Apr. 16 2024", 2024, time.April, 16},
		{"Tue, Apr 16", 2024, time.April, 16},
		{"Tuesday, April 16th, 2024", 2024, time.April, 16},
		{"sept 3", 2024, time.September, 3},
		{"16 April 2024", 2024, time.April, 16},
		{"3 Dec", 2024, time.December, 3},
		{"04/16/2024", 2024, time.April, 16},
	}
	for _, loc := range zones {
		n := New(loc).WithClock(fixedNow)
		for _, tc := range cases {
			got, err := n.Normalize(tc.in)
			if err != nil {
				t.Fatalf("%s in %s: unexpected error %v", tc.in, loc, err)
			}
			if got.Location() != loc {
				t.Fatalf("%s: location got=%v want=%v", tc.in, got.Location(), loc)
			}
			if got.Year() != tc.year || got.Month() != tc.month || got.Day() != tc.day {
				t.Fatalf("%s in %s: got=%v want=%d-%02d-%02d", tc.in, loc, got, tc.year, tc.month, tc.day)
			}
			if got.Hour() != 12 || got.Minute() != 0 {
				t.Fatalf("%s: hour got=%d want=12", tc.in, got.Hour())
			}
		}
	}
}

func TestNormalizeBareISOIsNeverShiftedToPreviousDay(t *testing.T) {
	n := New(time.FixedZone("PST", -8*3600))
	got, err := n.Normalize("2024-04-16")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Day() != 16 || got.Month() != time.April {
		t.Fatalf("got=%v want April 16", got)
	}
}

func TestNormalizeISOTimestampKeepsInstant(t *testing.T) {
	n := New(time.FixedZone("EST", -5*3600))
	got, err := n.Normalize("2024-04-16T03:59:59Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, time.April, 16, 3, 59, 59, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got=%v want=%v", got, want)
	}

	local, err := n.Normalize("2024-04-16T09:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if local.Hour() != 9 || local.Minute() != 30 || local.Location() != n.Location() {
		t.Fatalf("zoneless timestamp: got=%v", local)
	}
}

func TestNormalizeNearISOTimestamp(t *testing.T) {
	n := New(time.FixedZone("EST", -5*3600))
	got, err := n.Normalize("2024-04-16T10:00:00+0000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, time.April, 16, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
}

func TestNormalizeFailures(t *testing.T) {
	n := New(time.UTC).WithClock(fixedNow)
	for _, in := range []string{"", "   ", "Smarch 12", "Feb 30, 2024", "2024-13-01", "xyzq-baad", "2024-02-30T10:00:00"} {
		_, err := n.Normalize(in)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("%q: got=%v want *ParseError", in, err)
		}
	}
}

func TestDaysUntilRoundsUp(t *testing.T) {
	now := time.Date(2024, time.April, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		due  time.Time
		want int
	}{
		{now.Add(1 * time.Hour), 1},
		{now.Add(24 * time.Hour), 1},
		{now.Add(25 * time.Hour), 2},
		{now.Add(-25 * time.Hour), -1},
		{now, 0},
	}
	for _, tc := range cases {
		if got := DaysUntil(tc.due, now); got != tc.want {
			t.Fatalf("DaysUntil(%v): got=%d want=%d", tc.due.Sub(now), got, tc.want)
		}
	}
}

func TestAtHour(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	in := time.Date(2024, time.April, 16, 2, 0, 0, 0, time.UTC)
	got := AtHour(in, loc, 13)
	want := time.Date(2024, time.April, 15, 13, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
}
