// Package geminitest provides an in-process gemini.Model for tests.
package geminitest

import (
	"context"
	"strings"
	"sync"

	"mycally/internal/gemini"
)

// Stub answers every call with Chunks (joined for Generate) or Err.
type Stub struct {
	Chunks      []string
	Err         error
	Unavailable bool

	mu       sync.Mutex
	requests []gemini.Request
}

// Reply builds a stub that answers with a single chunk.
func Reply(text string) *Stub { return &Stub{Chunks: []string{text}} }

func (s *Stub) Available() bool { return !s.Unavailable }

func (s *Stub) Generate(ctx context.Context, req gemini.Request) (string, error) {
	s.record(req)
	if s.Unavailable {
		return "", gemini.ErrUnavailable
	}
	if s.Err != nil {
		return "", s.Err
	}
	return strings.Join(s.Chunks, ""), nil
}

func (s *Stub) Stream(ctx context.Context, req gemini.Request, onDelta func(string) error) (string, error) {
	s.record(req)
	if s.Unavailable {
		return "", gemini.ErrUnavailable
	}
	var full strings.Builder
	for _, c := range s.Chunks {
		full.WriteString(c)
		if onDelta != nil {
			if err := onDelta(c); err != nil {
				return full.String(), err
			}
		}
	}
	return full.String(), s.Err
}

// Requests returns every request seen so far.
func (s *Stub) Requests() []gemini.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gemini.Request(nil), s.requests...)
}

func (s *Stub) record(req gemini.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
}
