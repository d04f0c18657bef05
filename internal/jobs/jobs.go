// Package jobs turns document generation requests into queue messages and
// processes them in the worker.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"mycally/internal/library"
	"mycally/internal/logger"
	"mycally/internal/queue"
	"mycally/internal/studygen"
)

// TypeGenerate is the message type for document generation.
const TypeGenerate = "generate"

// GenerateJob asks the worker to produce a summary or quiz for a document.
type GenerateJob struct {
	JobID      string        `json:"jobId"`
	DocumentID string        `json:"documentId"`
	UserID     string        `json:"userId"`
	Kind       studygen.Kind `json:"kind"`
}

// Documents is the library surface the processor needs.
type Documents interface {
	LoadDocumentFile(ctx context.Context, userID, id string) (library.Document, []byte, error)
	SaveGenerated(ctx context.Context, documentID, contentType string, content json.RawMessage) (library.GeneratedContent, error)
}

// Generator produces validated study content.
type Generator interface {
	Generate(ctx context.Context, kind studygen.Kind, f studygen.File) (json.RawMessage, error)
}

// Recorder observes processed jobs.
type Recorder interface {
	ObserveJob(kind, status string)
}

// Enqueue publishes a generate job and returns it with its id filled in.
func Enqueue(ctx context.Context, q queue.Queue, job GenerateJob) (GenerateJob, error) {
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	body, err := json.Marshal(job)
	if err != nil {
		return GenerateJob{}, err
	}
	if err := q.Publish(ctx, queue.Message{ID: job.JobID, Type: TypeGenerate, Body: body}); err != nil {
		return GenerateJob{}, fmt.Errorf("enqueue generate job: %w", err)
	}
	return job, nil
}

// Processor consumes generate jobs.
type Processor struct {
	docs     Documents
	gen      Generator
	log      *logger.Logger
	recorder Recorder
}

func NewProcessor(docs Documents, gen Generator, log *logger.Logger, recorder Recorder) *Processor {
	return &Processor{docs: docs, gen: gen, log: log.With("service", "GenerateWorker"), recorder: recorder}
}

// Run handles messages until ctx is cancelled or the queue closes. A failing
// job is logged and skipped.
func (p *Processor) Run(ctx context.Context, q queue.Queue) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("queue consume init: %w", err)
	}
	p.log.Info("worker started, waiting for messages")
	for msg := range messages {
		if msg.Type != TypeGenerate {
			p.log.Warn("skipping unknown message", "type", msg.Type, "id", msg.ID)
			continue
		}
		if _, err := p.Handle(ctx, msg); err != nil {
			p.log.Error("job failed", "id", msg.ID, "error", err)
		}
	}
	p.log.Info("worker stopped")
	return nil
}

// Handle processes a single generate message.
func (p *Processor) Handle(ctx context.Context, msg queue.Message) (library.GeneratedContent, error) {
	var job GenerateJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		p.observe("unknown", "invalid")
		return library.GeneratedContent{}, fmt.Errorf("decode job: %w", err)
	}
	kind, ok := studygen.ParseKind(string(job.Kind))
	if !ok || job.DocumentID == "" {
		p.observe(string(job.Kind), "invalid")
		return library.GeneratedContent{}, errors.New("job is missing a document or has an unknown kind")
	}
	job.Kind = kind

	doc, data, err := p.docs.LoadDocumentFile(ctx, job.UserID, job.DocumentID)
	if err != nil {
		p.observe(string(job.Kind), "failed")
		return library.GeneratedContent{}, fmt.Errorf("load document %s: %w", job.DocumentID, err)
	}
	content, err := p.gen.Generate(ctx, job.Kind, studygen.File{Name: doc.FileName, MIMEType: doc.FileType, Data: data})
	if err != nil {
		p.observe(string(job.Kind), "failed")
		return library.GeneratedContent{}, err
	}
	saved, err := p.docs.SaveGenerated(ctx, doc.ID, string(job.Kind), content)
	if err != nil {
		p.observe(string(job.Kind), "failed")
		return library.GeneratedContent{}, fmt.Errorf("save generated content: %w", err)
	}
	p.observe(string(job.Kind), "done")
	p.log.Info("job done", "id", job.JobID, "document_id", doc.ID, "kind", string(job.Kind), "content_id", saved.ID)
	return saved, nil
}

func (p *Processor) observe(kind, status string) {
	if p.recorder != nil {
		p.recorder.ObserveJob(kind, status)
	}
}
