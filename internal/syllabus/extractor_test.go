package syllabus

import (
	"context"
	"errors"
	"testing"
	"time"

	"mycally/internal/gemini/geminitest"
	"mycally/internal/logger"
)

func extractor(stub *geminitest.Stub) *Extractor {
	return NewExtractor(stub, normalizer(), logger.Nop()).WithClock(func() time.Time {
		return time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)
	})
}

func TestExtractStreamsAndParses(t *testing.T) {
	stub := &geminitest.Stub{Chunks: []string{
		`{"events":[{"title":"Final","category":"exam",`,
		`"startDate":"2024-05-02","endDate":"2024-05-02","priority":"high"}],"term":"Spring 2024"}`,
	}}
	var deltas int
	got, err := extractor(stub).Extract(context.Background(), File{Name: "s.pdf", MIMEType: "application/pdf", Data: []byte("%PDF-1.7")}, func(string) error {
		deltas++
		return nil
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if deltas != 2 || len(got.Events) != 1 || got.Term != "Spring 2024" {
		t.Fatalf("got=%+v deltas=%d", got, deltas)
	}
	req := stub.Requests()[0]
	if !req.JSON || req.Contents[0].Parts[1].InlineData == nil || req.Contents[0].Parts[1].InlineData.MIMEType != "application/pdf" {
		t.Fatalf("request: got=%+v", req)
	}
}

func TestExtractFallsBackForText(t *testing.T) {
	stub := &geminitest.Stub{Unavailable: true}
	got, err := extractor(stub).Extract(context.Background(), File{Name: "s.txt", MIMEType: "text/plain", Data: []byte("Feb 14 - Midterm exam")}, nil)
	if err != nil || got.Source != SourceHeuristic || len(got.Events) != 1 {
		t.Fatalf("got=%+v err=%v", got, err)
	}

	stub = geminitest.Reply(`{"events": []}`)
	got, err = extractor(stub).Extract(context.Background(), File{Name: "s.txt", MIMEType: "text/plain", Data: []byte("Feb 14 - Midterm exam")}, nil)
	if err != nil || got.Source != SourceHeuristic {
		t.Fatalf("empty model answer: got=%+v err=%v", got, err)
	}
}

func TestExtractBinaryWithoutModel(t *testing.T) {
	_, err := extractor(&geminitest.Stub{Unavailable: true}).Extract(context.Background(), File{Data: []byte("%PDF-1.7")}, nil)
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("got=%v want=%v", err, ErrModelUnavailable)
	}

	got, err := extractor(geminitest.Reply(`{"events": []}`)).Extract(context.Background(), File{Data: []byte("%PDF-1.7")}, nil)
	if err != nil || len(got.Events) != 0 {
		t.Fatalf("no events: got=%+v err=%v", got, err)
	}
}
