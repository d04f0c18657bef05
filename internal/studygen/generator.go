package studygen

import (
	"context"
	"encoding/json"
	"fmt"

	"mycally/internal/gemini"
	"mycally/internal/logger"
)

// File is a document handed to the model.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

const (
	summarySystem = "You are a helpful study assistant. Your job is to create a comprehensive summary of the provided document, extracting key points and concepts. " +
		`Answer with JSON only: {"title": string, "summaryText": string, "keyPoints": [string]}.`
	summaryAsk = "Create a detailed summary of this document. Include the main concepts, important details, and key takeaways."

	quizSystem = "You are a teacher. Your job is to take a document, and create a multiple choice test (with 4 questions) based on the content of the document. Each option should be roughly equal in length. " +
		`Answer with JSON only: an array of 4 objects {"question": string, "options": [4 strings], "answer": "A"|"B"|"C"|"D"}.`
	quizAsk = "Create a multiple choice test based on this document."
)

// Generator asks the model for study artifacts.
type Generator struct {
	model gemini.Model
	log   *logger.Logger
}

// NewGenerator builds a generator.
func NewGenerator(model gemini.Model, log *logger.Logger) *Generator {
	return &Generator{model: model, log: log.With("service", "StudyGenerator")}
}

// Available reports whether a model is configured.
func (g *Generator) Available() bool {
	return g.model != nil && g.model.Available()
}

// Stream forwards raw model output to onDelta and returns the validated artifact.
func (g *Generator) Stream(ctx context.Context, kind Kind, f File, onDelta func(string) error) (json.RawMessage, error) {
	req, err := request(kind, f)
	if err != nil {
		return nil, err
	}
	text, err := g.model.Stream(ctx, req, onDelta)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", kind, err)
	}
	return Validate(kind, text)
}

// Generate returns the validated artifact without streaming.
func (g *Generator) Generate(ctx context.Context, kind Kind, f File) (json.RawMessage, error) {
	req, err := request(kind, f)
	if err != nil {
		return nil, err
	}
	text, err := g.model.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", kind, err)
	}
	out, err := Validate(kind, text)
	if err != nil {
		g.log.Warn("generated content rejected", "kind", string(kind), "file", f.Name, "error", err)
		return nil, err
	}
	return out, nil
}

func request(kind Kind, f File) (gemini.Request, error) {
	mime := f.MIMEType
	if mime == "" {
		mime = "application/pdf"
	}
	doc := gemini.File(mime, f.Data)
	switch kind {
	case KindSummary:
		return gemini.Request{System: summarySystem, Contents: []gemini.Content{gemini.User(gemini.Text(summaryAsk), doc)}, JSON: true}, nil
	case KindQuiz:
		return gemini.Request{System: quizSystem, Contents: []gemini.Content{gemini.User(gemini.Text(quizAsk), doc)}, JSON: true}, nil
	}
	return gemini.Request{}, fmt.Errorf("studygen: unknown kind %q", kind)
}
