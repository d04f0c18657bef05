package priority

import (
	"context"
	"errors"

	"mycally/internal/canvas"
	"mycally/internal/gemini"
	"mycally/internal/logger"
)

// Recorder counts classification outcomes.
type Recorder interface {
	ObserveClassification(outcome string)
}

// Classifier asks the model to rank assignments.
type Classifier struct {
	model    gemini.Model
	log      *logger.Logger
	recorder Recorder
}

// NewClassifier builds a classifier; recorder may be nil.
func NewClassifier(model gemini.Model, log *logger.Logger, recorder Recorder) *Classifier {
	return &Classifier{model: model, log: log.With("service", "PriorityClassifier"), recorder: recorder}
}

// Classify never fails: every problem with the model becomes Unavailable.
func (c *Classifier) Classify(ctx context.Context, list []canvas.ProcessedAssignment) Result {
	r := c.classify(ctx, list)
	if r.Outcome == Unavailable {
		c.log.Warn("priority model unavailable, using fallback", "reason", r.Reason, "assignments", len(list))
	}
	if c.recorder != nil {
		c.recorder.ObserveClassification(r.Outcome.String())
	}
	return r
}

func (c *Classifier) classify(ctx context.Context, list []canvas.ProcessedAssignment) Result {
	if c.model == nil || !c.model.Available() {
		return UnavailableResult(gemini.ErrUnavailable.Error())
	}
	prompt, err := BuildPrompt(list)
	if err != nil {
		return UnavailableResult(err.Error())
	}
	text, err := c.model.Generate(ctx, gemini.Request{
		Contents: []gemini.Content{gemini.User(gemini.Text(prompt))},
		JSON:     true,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return UnavailableResult("request cancelled")
		}
		return UnavailableResult(err.Error())
	}
	assessments, err := ParseAssessments(text)
	if err != nil {
		return UnavailableResult(err.Error())
	}
	return ClassifiedResult(assessments)
}

// Prioritize classifies list and merges the verdicts. An empty list never reaches the model.
func (c *Classifier) Prioritize(ctx context.Context, list []canvas.ProcessedAssignment) ([]PrioritizedAssignment, Result) {
	if len(list) == 0 {
		return []PrioritizedAssignment{}, ClassifiedResult(nil)
	}
	r := c.Classify(ctx, list)
	return Merge(list, Resolve(r, list)), r
}
