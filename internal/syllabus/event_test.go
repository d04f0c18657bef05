package syllabus

import (
	"errors"
	"testing"
	"time"

	"mycally/internal/dates"
	"mycally/internal/priority"
)

func normalizer() *dates.Normalizer {
	return dates.New(time.UTC).WithClock(func() time.Time { return time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC) })
}

func TestParseResponseValidatesEachEvent(t *testing.T) {
	text := "```json\n" + `{
  "courseCode": "CS 3100 ",
  "courseName": "Algorithms",
  "events": [
    {"title": "Midterm", "category": "exam", "startDate": "Wed, Apr 16", "endDate": "Apr 16", "priority": "high", "notes": "30%"},
    {"title": "Essay", "category": "assignment", "startDate": "2024-02-01", "endDate": "TBD", "priority": "Medium"},
    {"title": "", "category": "exam", "startDate": "2024-02-01", "endDate": "2024-02-01", "priority": "high"},
    {"title": "Party", "category": "event", "startDate": "2024-02-01", "endDate": "2024-02-01", "priority": "urgent"},
    {"title": "Lost", "category": "event", "startDate": "Smarch 3", "endDate": "2024-02-01", "priority": "low"},
    {"title": 12}
  ]
}` + "\n```"
	got, err := ParseResponse(text, normalizer())
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if got.CourseCode != "CS 3100" || got.Source != SourceModel {
		t.Fatalf("header: got=%+v", got)
	}
	if len(got.Events) != 2 || got.Dropped != 4 {
		t.Fatalf("events: got=%d dropped=%d want=2/4", len(got.Events), got.Dropped)
	}
	mid := got.Events[0]
	if mid.StartDate.Month() != time.April || mid.StartDate.Day() != 16 || mid.StartDate.Year() != 2024 || mid.Priority != priority.High {
		t.Fatalf("midterm: got=%+v", mid)
	}
	essay := got.Events[1]
	if !essay.EndDate.Equal(essay.StartDate) || essay.Priority != priority.Medium {
		t.Fatalf("essay end fallback: got=%+v", essay)
	}
}

func TestParseResponseRejectsNonObject(t *testing.T) {
	if _, err := ParseResponse("I could not read the file", normalizer()); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("got=%v want ErrInvalidResponse", err)
	}
	got, err := ParseResponse(`{"courseName": "x"}`, normalizer())
	if err != nil || len(got.Events) != 0 {
		t.Fatalf("missing events: got=%+v err=%v", got, err)
	}
}

func TestStripDataURL(t *testing.T) {
	if got := StripDataURL("data:application/pdf;base64,QUJD"); got != "QUJD" {
		t.Fatalf("got=%q want=QUJD", got)
	}
	if got := StripDataURL("QUJD"); got != "QUJD" {
		t.Fatalf("got=%q want=QUJD", got)
	}
	if got := PDFDataURL("QUJD"); got != "data:application/pdf;base64,QUJD" {
		t.Fatalf("got=%q", got)
	}
}
