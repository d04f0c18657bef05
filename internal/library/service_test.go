package library

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"mycally/internal/apierr"
	"mycally/internal/blob"
	"mycally/internal/logger"
)

type memStore struct {
	mu        sync.Mutex
	folders   map[string]Folder
	docs      map[string]Document
	generated map[string]GeneratedContent
}

func newMemStore() *memStore {
	return &memStore{folders: map[string]Folder{}, docs: map[string]Document{}, generated: map[string]GeneratedContent{}}
}

func (m *memStore) CreateFolder(_ context.Context, userID, name string) (Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := Folder{ID: uuid.NewString(), Name: name, UserID: userID, CreatedAt: time.Now()}
	m.folders[f.ID] = f
	return f, nil
}

func (m *memStore) ListFolders(_ context.Context, userID string) ([]Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Folder
	for _, f := range m.folders {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memStore) GetFolder(_ context.Context, id string) (Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.folders[id]
	if !ok {
		return Folder{}, ErrNotFound
	}
	return f, nil
}

func (m *memStore) DeleteFolder(_ context.Context, id string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.folders[id]; !ok {
		return nil, ErrNotFound
	}
	var keys []string
	for docID, d := range m.docs {
		if d.FolderID != id {
			continue
		}
		for gid, g := range m.generated {
			if g.DocumentID == docID {
				delete(m.generated, gid)
			}
		}
		keys = append(keys, d.BlobKey)
		delete(m.docs, docID)
	}
	delete(m.folders, id)
	return keys, nil
}

func (m *memStore) ListDocuments(_ context.Context, folderID string) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Document{}
	for _, d := range m.docs {
		if d.FolderID == folderID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) CreateDocument(_ context.Context, d Document) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.docs {
		if existing.FolderID == d.FolderID && existing.FileName == d.FileName {
			return Document{}, ErrDuplicateName
		}
	}
	d.ID = uuid.NewString()
	d.CreatedAt = time.Now()
	m.docs[d.ID] = d
	return d, nil
}

func (m *memStore) GetDocument(_ context.Context, id string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return d, nil
}

func (m *memStore) SaveGenerated(_ context.Context, documentID, contentType string, content json.RawMessage) (GeneratedContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := GeneratedContent{ID: uuid.NewString(), ContentType: contentType, Content: content, DocumentID: documentID, CreatedAt: time.Now()}
	m.generated[g.ID] = g
	return g, nil
}

func (m *memStore) ListGenerated(_ context.Context, documentID string) ([]GeneratedContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []GeneratedContent{}
	for _, g := range m.generated {
		if g.DocumentID == documentID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memStore) GetGenerated(_ context.Context, id string) (GeneratedContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.generated[id]
	if !ok {
		return GeneratedContent{}, ErrNotFound
	}
	return g, nil
}

var pdf = []byte("%PDF-1.4 fake body")

func status(err error) int {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

func setup(t *testing.T) (*Service, *memStore, *blob.Memory) {
	t.Helper()
	st := newMemStore()
	blobs := blob.NewMemory()
	return NewService(st, blobs, logger.Nop(), 0), st, blobs
}

func TestFolderLifecycle(t *testing.T) {
	svc, _, blobs := setup(t)
	ctx := context.Background()

	if _, err := svc.CreateFolder(ctx, "alice", "   "); status(err) != http.StatusBadRequest {
		t.Fatalf("blank name: want 400, got %v", err)
	}
	f, err := svc.CreateFolder(ctx, "alice", "Biology")
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}

	doc, err := svc.UploadDocument(ctx, "alice", f.ID, Upload{Name: "cells.pdf", ContentType: "application/pdf", Data: pdf})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if blobs.Len() != 1 {
		t.Fatalf("expected one blob, got %d", blobs.Len())
	}
	if _, err := svc.SaveGenerated(ctx, doc.ID, "summary", json.RawMessage(`{"title":"x"}`)); err != nil {
		t.Fatalf("save generated: %v", err)
	}

	detail, err := svc.GetFolder(ctx, "alice", f.ID)
	if err != nil {
		t.Fatalf("get folder: %v", err)
	}
	if len(detail.Documents) != 1 || detail.Documents[0].FileName != "cells.pdf" {
		t.Fatalf("unexpected documents: %+v", detail.Documents)
	}

	if _, err := svc.GetFolder(ctx, "bob", f.ID); status(err) != http.StatusForbidden {
		t.Fatalf("other user: want 403, got %v", err)
	}
	if err := svc.DeleteFolder(ctx, "bob", f.ID); status(err) != http.StatusForbidden {
		t.Fatalf("other user delete: want 403, got %v", err)
	}

	if err := svc.DeleteFolder(ctx, "alice", f.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if blobs.Len() != 0 {
		t.Fatalf("blob not removed")
	}
	if _, err := svc.GetFolder(ctx, "alice", f.ID); status(err) != http.StatusNotFound {
		t.Fatalf("deleted folder: want 404, got %v", err)
	}
	if _, err := svc.GetDocument(ctx, "alice", doc.ID); status(err) != http.StatusNotFound {
		t.Fatalf("deleted document: want 404, got %v", err)
	}
}

func TestUploadRules(t *testing.T) {
	svc, _, blobs := setup(t)
	ctx := context.Background()
	f, _ := svc.CreateFolder(ctx, "alice", "History")

	big := make([]byte, DefaultMaxUploadSize+1)
	copy(big, pdf)

	cases := []struct {
		name string
		up   Upload
		want int
	}{
		{"not pdf", Upload{Name: "notes.txt", ContentType: "text/plain", Data: []byte("hello")}, http.StatusBadRequest},
		{"too large", Upload{Name: "big.pdf", ContentType: "application/pdf", Data: big}, http.StatusBadRequest},
		{"empty", Upload{Name: "empty.pdf", ContentType: "application/pdf"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.UploadDocument(ctx, "alice", f.ID, tc.up); status(err) != tc.want {
				t.Fatalf("want %d, got %v", tc.want, err)
			}
		})
	}

	if _, err := svc.UploadDocument(ctx, "alice", f.ID, Upload{Name: "a.pdf", Data: pdf}); err != nil {
		t.Fatalf("sniffed pdf should upload: %v", err)
	}
	if _, err := svc.UploadDocument(ctx, "alice", f.ID, Upload{Name: "a.pdf", Data: pdf}); status(err) != http.StatusConflict {
		t.Fatalf("duplicate: want 409, got %v", err)
	}
	if blobs.Len() != 1 {
		t.Fatalf("duplicate upload left a blob behind: %d", blobs.Len())
	}
	if _, err := svc.UploadDocument(ctx, "bob", f.ID, Upload{Name: "b.pdf", Data: pdf}); status(err) != http.StatusForbidden {
		t.Fatalf("foreign folder: want 403, got %v", err)
	}
}

func TestGeneratedContentOwnership(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	f, _ := svc.CreateFolder(ctx, "alice", "Math")
	doc, err := svc.UploadDocument(ctx, "alice", f.ID, Upload{Name: "calc.pdf", Data: pdf})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	g, err := svc.SaveGenerated(ctx, doc.ID, "quiz", json.RawMessage(`[]`))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	detail, err := svc.GetGenerated(ctx, "alice", g.ID)
	if err != nil {
		t.Fatalf("get generated: %v", err)
	}
	if detail.Document.ID != doc.ID {
		t.Fatalf("document not attached")
	}
	if _, err := svc.GetGenerated(ctx, "bob", g.ID); status(err) != http.StatusForbidden {
		t.Fatalf("want 403, got %v", err)
	}
	if _, err := svc.GetGenerated(ctx, "alice", uuid.NewString()); status(err) != http.StatusNotFound {
		t.Fatalf("want 404, got %v", err)
	}
	list, err := svc.ListGenerated(ctx, "alice", doc.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list generated: %v %d", err, len(list))
	}

	_, data, err := svc.LoadDocumentFile(ctx, "alice", doc.ID)
	if err != nil || string(data) != string(pdf) {
		t.Fatalf("load file: %v", err)
	}
	if _, err := svc.GetDocument(ctx, "alice", "not-a-uuid"); status(err) != http.StatusNotFound {
		t.Fatalf("bad id: want 404, got %v", err)
	}
}
