package priority

import (
	"context"
	"errors"
	"testing"

	"mycally/internal/canvas"
	"mycally/internal/gemini/geminitest"
	"mycally/internal/logger"
)

type countingRecorder map[string]int

func (c countingRecorder) ObserveClassification(outcome string) { c[outcome]++ }

func TestPrioritizeUsesModel(t *testing.T) {
	model := geminitest.Reply(`[{"id":1,"priority":"low","notes":"plenty of time"}]`)
	rec := countingRecorder{}
	got, res := NewClassifier(model, logger.Nop(), rec).Prioritize(context.Background(), []canvas.ProcessedAssignment{asg(1, days(1), 0, nil)})
	if res.Outcome != Classified {
		t.Fatalf("outcome: got=%s want=classified (%s)", res.Outcome, res.Reason)
	}
	if got[0].Priority != Low || got[0].AINotes != "plenty of time" {
		t.Fatalf("got=%+v", got[0])
	}
	if rec["classified"] != 1 {
		t.Fatalf("recorder: got=%v", rec)
	}
	if reqs := model.Requests(); len(reqs) != 1 || !reqs[0].JSON {
		t.Fatalf("requests: got=%+v", reqs)
	}
}

func TestPrioritizeFallsBack(t *testing.T) {
	list := []canvas.ProcessedAssignment{asg(1, days(1), 0, nil), asg(2, days(10), 0, nil)}
	models := map[string]*geminitest.Stub{
		"unavailable": {Unavailable: true},
		"error":       {Err: errors.New("503")},
		"bad json":    geminitest.Reply(`[{"id":1}]`),
		"null":        geminitest.Reply(`null`),
	}
	for name, model := range models {
		got, res := NewClassifier(model, logger.Nop(), nil).Prioritize(context.Background(), list)
		if res.Outcome != Unavailable || res.Reason == "" {
			t.Fatalf("%s: outcome got=%s reason=%q", name, res.Outcome, res.Reason)
		}
		if got[0].ID != 1 || got[0].Priority != High || got[1].Priority != Low {
			t.Fatalf("%s: got=%+v", name, got)
		}
	}
}

func TestPrioritizeEmptySkipsModel(t *testing.T) {
	model := geminitest.Reply(`[]`)
	got, _ := NewClassifier(model, logger.Nop(), nil).Prioritize(context.Background(), nil)
	if len(got) != 0 || len(model.Requests()) != 0 {
		t.Fatalf("got=%v requests=%d", got, len(model.Requests()))
	}
}
