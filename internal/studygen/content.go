// Package studygen produces summaries and quizzes from uploaded documents.
package studygen

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// Kind is the type of generated artifact.
type Kind string

const (
	KindSummary Kind = "summary"
	KindQuiz    Kind = "quiz"
)

// ParseKind accepts "summary" or "quiz".
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindSummary:
		return KindSummary, true
	case KindQuiz:
		return KindQuiz, true
	}
	return "", false
}

// ErrInvalidContent marks model output that does not match the artifact schema.
var ErrInvalidContent = errors.New("studygen: generated content failed validation")

// Summary is a document summary.
type Summary struct {
	SummaryText string   `json:"summaryText"`
	KeyPoints   []string `json:"keyPoints"`
	Title       string   `json:"title"`
}

// Question is one multiple choice question; Answer is the letter A-D.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// QuizLength is the number of questions in a quiz.
const QuizLength = 4

// ParseSummary validates a summary answer.
func ParseSummary(text string) (Summary, error) {
	var s Summary
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &s); err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	if strings.TrimSpace(s.SummaryText) == "" || strings.TrimSpace(s.Title) == "" {
		return Summary{}, fmt.Errorf("%w: summaryText and title are required", ErrInvalidContent)
	}
	if s.KeyPoints == nil {
		s.KeyPoints = []string{}
	}
	return s, nil
}

// ParseQuiz validates a quiz answer: exactly four questions, four non-empty
// options each and an answer letter.
func ParseQuiz(text string) ([]Question, error) {
	var qs []Question
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &qs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	if len(qs) != QuizLength {
		return nil, fmt.Errorf("%w: got %d questions, want %d", ErrInvalidContent, len(qs), QuizLength)
	}
	for i := range qs {
		q := &qs[i]
		if strings.TrimSpace(q.Question) == "" || len(q.Options) != 4 {
			return nil, fmt.Errorf("%w: question %d is incomplete", ErrInvalidContent, i+1)
		}
		for _, o := range q.Options {
			if strings.TrimSpace(o) == "" {
				return nil, fmt.Errorf("%w: question %d has an empty option", ErrInvalidContent, i+1)
			}
		}
		q.Answer = strings.ToUpper(strings.TrimSpace(q.Answer))
		if len(q.Answer) != 1 || q.Answer[0] < 'A' || q.Answer[0] > 'D' {
			return nil, fmt.Errorf("%w: question %d answer %q", ErrInvalidContent, i+1, q.Answer)
		}
	}
	return qs, nil
}

// Validate checks raw model output for kind and returns it re-encoded.
func Validate(kind Kind, text string) (json.RawMessage, error) {
	var v interface{}
	var err error
	switch kind {
	case KindSummary:
		v, err = ParseSummary(text)
	case KindQuiz:
		v, err = ParseQuiz(text)
	default:
		return nil, fmt.Errorf("studygen: unknown kind %q", kind)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// QuizTitle derives a short title from a file name: extension dropped,
// separators turned into spaces, words capitalized, at most three words.
func QuizTitle(file string) string {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	words := strings.Fields(base)
	if len(words) > 3 {
		words = words[:3]
	}
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	title := strings.Join(words, " ")
	if len([]rune(title)) < 2 {
		return "Quiz"
	}
	return title
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
