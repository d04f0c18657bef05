package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateSendsKeyAndJSONConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-test:generateContent" {
			t.Errorf("path: got=%q", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "k" {
			t.Errorf("api key header missing")
		}
		var body wireRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.SystemInstruction == nil || body.SystemInstruction.Parts[0].Text != "be brief" {
			t.Errorf("system instruction: got=%+v", body.SystemInstruction)
		}
		if body.GenerationConfig == nil || body.GenerationConfig.ResponseMIMEType != "application/json" {
			t.Errorf("generation config: got=%+v", body.GenerationConfig)
		}
		if len(body.Contents) != 1 || body.Contents[0].Parts[1].InlineData == nil {
			t.Errorf("contents: got=%+v", body.Contents)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"[1,"},{"text":"2]"}]}}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "gemini-test", 0)
	got, err := c.Generate(context.Background(), Request{
		System:   "be brief",
		Contents: []Content{User(Text("hi"), PDF([]byte("%PDF-1.4")))},
		JSON:     true,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "[1,2]" {
		t.Fatalf("got=%q want=%q", got, "[1,2]")
	}
}

func TestStreamDeliversDeltas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "alt=sse" {
			t.Errorf("query: got=%q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(strings.Join([]string{
			`data: {"candidates":[{"content":{"parts":[{"text":"Hel"}]}}]}`,
			"",
			": keepalive",
			`data: {"candidates":[{"content":{"parts":[{"text":"lo"}]}}]}`,
			"",
			`data: {"candidates":[{"content":{"parts":[{"text":"!"}]}}]}`,
		}, "\n")))
	}))
	defer srv.Close()

	var deltas []string
	got, err := New(srv.URL, "k", "m", 0).Stream(context.Background(), Request{Contents: []Content{User(Text("hi"))}}, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if got != "Hello!" || len(deltas) != 3 {
		t.Fatalf("got=%q deltas=%v", got, deltas)
	}
}

func TestHTTPErrorAndUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "k", "m", 0).Generate(context.Background(), Request{})
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("got=%v want HTTPError 429", err)
	}

	_, err = New(srv.URL, "", "m", 0).Generate(context.Background(), Request{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got=%v want=%v", err, ErrUnavailable)
	}
}
