package syllabus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mycally/internal/dates"
	"mycally/internal/gemini"
	"mycally/internal/logger"
)

// ErrModelUnavailable is returned for binary uploads when no model is configured.
var ErrModelUnavailable = errors.New("syllabus: model not configured")

// File is an uploaded syllabus.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Extractor turns a syllabus file into events.
type Extractor struct {
	model gemini.Model
	norm  *dates.Normalizer
	log   *logger.Logger
	now   func() time.Time
}

// NewExtractor builds an extractor that normalizes dates with norm.
func NewExtractor(model gemini.Model, norm *dates.Normalizer, log *logger.Logger) *Extractor {
	return &Extractor{model: model, norm: norm, log: log.With("service", "SyllabusExtractor"), now: time.Now}
}

// WithClock replaces the clock used for "today" in prompts and the heuristic.
func (x *Extractor) WithClock(now func() time.Time) *Extractor {
	x.now = now
	return x
}

// Extract streams the model's raw answer through onDelta and returns the
// validated events. Plain text uploads fall back to the heuristic scanner when
// the model is unavailable, fails or finds nothing.
func (x *Extractor) Extract(ctx context.Context, f File, onDelta func(string) error) (Extraction, error) {
	text := IsText(f.MIMEType, f.Data)
	if x.model == nil || !x.model.Available() {
		if text {
			return x.heuristic(f), nil
		}
		return Extraction{}, ErrModelUnavailable
	}

	raw, err := x.model.Stream(ctx, x.request(f, text), onDelta)
	if err != nil {
		if ctx.Err() != nil {
			return Extraction{}, ctx.Err()
		}
		if text {
			x.log.Warn("syllabus model failed, using heuristic", "file", f.Name, "error", err)
			return x.heuristic(f), nil
		}
		return Extraction{}, fmt.Errorf("syllabus model: %w", err)
	}

	out, err := ParseResponse(raw, x.norm)
	if err != nil || len(out.Events) == 0 {
		if text {
			return x.heuristic(f), nil
		}
		if err != nil {
			return Extraction{}, err
		}
	}
	if out.Dropped > 0 {
		x.log.Info("syllabus events dropped during validation", "file", f.Name, "kept", len(out.Events), "dropped", out.Dropped)
	}
	return out, nil
}

func (x *Extractor) heuristic(f File) Extraction {
	return Heuristic(string(f.Data), x.now(), x.norm.Location())
}

func (x *Extractor) request(f File, text bool) gemini.Request {
	today := x.now().In(x.norm.Location()).Format("Monday, January 2, 2006")
	var doc gemini.Part
	if text {
		doc = gemini.Text("Syllabus content:\n" + string(f.Data))
	} else {
		mime := f.MIMEType
		if mime == "" {
			mime = "application/pdf"
		}
		doc = gemini.File(mime, f.Data)
	}
	return gemini.Request{
		System: fmt.Sprintf(systemPrompt, today),
		Contents: []gemini.Content{gemini.User(
			gemini.Text("Extract all important dates and events from this syllabus to help me plan my academic schedule."),
			doc,
		)},
		JSON: true,
	}
}

const systemPrompt = `You are an AI study assistant helping a student organize their academic calendar.
Analyze the syllabus and extract every date-related event: exams, quizzes and tests, assignment due dates,
project deadlines, presentation dates, important class activities and office hours.

Today is %s. When a date has no year, use the year that places it in the current academic term.

Answer with JSON only, shaped as:
{
  "events": [
    {
      "title": "Midterm Exam",
      "category": "exam",
      "startDate": "2024-10-20T14:00:00",
      "endDate": "2024-10-20T16:00:00",
      "priority": "high",
      "notes": "Covers chapters 1-5, worth 30%% of final grade"
    }
  ],
  "courseCode": "CS101",
  "courseName": "Introduction to Computer Science",
  "instructor": "Dr. Smith",
  "term": "Fall 2024"
}

priority is "high", "medium" or "low"; exams and finals are high. startDate and endDate are ISO dates
(YYYY-MM-DD, optionally with a time). A date written like "Wed, Apr 16" becomes "YYYY-04-16".`
