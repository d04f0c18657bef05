// Package syllabus extracts dated events from a course syllabus and keeps
// each user's most recent syllabus file.
package syllabus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mycally/internal/dates"
	"mycally/internal/priority"
)

// Event is one dated item found in a syllabus.
type Event struct {
	ID        string         `json:"id,omitempty"`
	Title     string         `json:"title"`
	Category  string         `json:"category"`
	Priority  priority.Level `json:"priority"`
	Notes     string         `json:"notes,omitempty"`
	StartDate time.Time      `json:"startDate"`
	EndDate   time.Time      `json:"endDate"`
}

// Extraction sources.
const (
	SourceModel     = "model"
	SourceHeuristic = "heuristic"
)

// Extraction is everything learned from one syllabus.
type Extraction struct {
	Events     []Event `json:"events"`
	CourseCode string  `json:"courseCode,omitempty"`
	CourseName string  `json:"courseName,omitempty"`
	Instructor string  `json:"instructor,omitempty"`
	Term       string  `json:"term,omitempty"`
	Source     string  `json:"source"`
	Dropped    int     `json:"dropped"`
}

// ErrInvalidResponse marks model output that is not a JSON object.
var ErrInvalidResponse = errors.New("syllabus: invalid model response")

type rawEvent struct {
	Title     string `json:"title"`
	Category  string `json:"category"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Priority  string `json:"priority"`
	Notes     string `json:"notes"`
}

type rawExtraction struct {
	Events     []json.RawMessage `json:"events"`
	CourseCode string            `json:"courseCode"`
	CourseName string            `json:"courseName"`
	Instructor string            `json:"instructor"`
	Term       string            `json:"term"`
}

// ParseResponse validates the model's JSON. Events missing a required field,
// carrying an unknown priority or an unparseable start are dropped and
// counted. An unparseable end falls back to the start.
func ParseResponse(text string, norm *dates.Normalizer) (Extraction, error) {
	var raw rawExtraction
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &raw); err != nil {
		return Extraction{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	out := Extraction{
		Events:     []Event{},
		CourseCode: strings.TrimSpace(raw.CourseCode),
		CourseName: strings.TrimSpace(raw.CourseName),
		Instructor: strings.TrimSpace(raw.Instructor),
		Term:       strings.TrimSpace(raw.Term),
		Source:     SourceModel,
	}
	for _, item := range raw.Events {
		ev, ok := parseEvent(item, norm)
		if !ok {
			out.Dropped++
			continue
		}
		out.Events = append(out.Events, ev)
	}
	return out, nil
}

func parseEvent(item json.RawMessage, norm *dates.Normalizer) (Event, bool) {
	var re rawEvent
	if err := json.Unmarshal(item, &re); err != nil {
		return Event{}, false
	}
	re.Title = strings.TrimSpace(re.Title)
	re.Category = strings.TrimSpace(re.Category)
	if re.Title == "" || re.Category == "" || strings.TrimSpace(re.StartDate) == "" || strings.TrimSpace(re.EndDate) == "" {
		return Event{}, false
	}
	level := priority.Level(strings.ToLower(strings.TrimSpace(re.Priority)))
	if !level.Valid() {
		return Event{}, false
	}
	start, err := norm.Normalize(re.StartDate)
	if err != nil {
		return Event{}, false
	}
	end, err := norm.Normalize(re.EndDate)
	if err != nil {
		end = start
	}
	return Event{
		Title:     re.Title,
		Category:  re.Category,
		Priority:  level,
		Notes:     strings.TrimSpace(re.Notes),
		StartDate: start,
		EndDate:   end,
	}, true
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// StripDataURL drops a "data:...;base64," prefix if present.
func StripDataURL(s string) string {
	if i := strings.Index(s, "base64,"); i >= 0 {
		return s[i+len("base64,"):]
	}
	return s
}

// PDFDataURL prefixes base64 content for direct use in a browser.
func PDFDataURL(content string) string {
	return "data:application/pdf;base64," + content
}

// IsText reports whether data is a plain text upload rather than a binary document.
func IsText(mimeType string, data []byte) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	return mimeType == "" && !bytes.HasPrefix(data, []byte("%PDF"))
}
