package library

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"mycally/internal/apierr"
	"mycally/internal/blob"
	"mycally/internal/logger"
)

const (
	pdfMIME              = "application/pdf"
	DefaultMaxUploadSize = 5 << 20
)

// Store is the persistence the service needs.
type Store interface {
	CreateFolder(ctx context.Context, userID, name string) (Folder, error)
	ListFolders(ctx context.Context, userID string) ([]Folder, error)
	GetFolder(ctx context.Context, id string) (Folder, error)
	DeleteFolder(ctx context.Context, id string) ([]string, error)
	ListDocuments(ctx context.Context, folderID string) ([]Document, error)
	CreateDocument(ctx context.Context, d Document) (Document, error)
	GetDocument(ctx context.Context, id string) (Document, error)
	SaveGenerated(ctx context.Context, documentID, contentType string, content json.RawMessage) (GeneratedContent, error)
	ListGenerated(ctx context.Context, documentID string) ([]GeneratedContent, error)
	GetGenerated(ctx context.Context, id string) (GeneratedContent, error)
}

// Service enforces ownership and upload rules on top of Store and a blob store.
type Service struct {
	store     Store
	blobs     blob.Store
	log       *logger.Logger
	maxUpload int64
}

func NewService(store Store, blobs blob.Store, log *logger.Logger, maxUpload int64) *Service {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadSize
	}
	return &Service{store: store, blobs: blobs, log: log.With("service", "LibraryService"), maxUpload: maxUpload}
}

// Upload is a file received from a client.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

func (s *Service) CreateFolder(ctx context.Context, userID, name string) (Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Folder{}, apierr.New(http.StatusBadRequest, "invalid_name", errors.New("folder name is required"))
	}
	return s.store.CreateFolder(ctx, userID, name)
}

func (s *Service) ListFolders(ctx context.Context, userID string) ([]Folder, error) {
	return s.store.ListFolders(ctx, userID)
}

// GetFolder returns the folder and its documents.
func (s *Service) GetFolder(ctx context.Context, userID, id string) (FolderDetail, error) {
	f, err := s.ownedFolder(ctx, userID, id)
	if err != nil {
		return FolderDetail{}, err
	}
	docs, err := s.store.ListDocuments(ctx, f.ID)
	if err != nil {
		return FolderDetail{}, err
	}
	return FolderDetail{Folder: f, Documents: docs}, nil
}

// DeleteFolder removes the folder with everything in it. Blob deletion
// failures are logged, the rows are already gone.
func (s *Service) DeleteFolder(ctx context.Context, userID, id string) error {
	if _, err := s.ownedFolder(ctx, userID, id); err != nil {
		return err
	}
	keys, err := s.store.DeleteFolder(ctx, id)
	if err != nil {
		return s.mapNotFound(err, "folder")
	}
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, blob.ErrNotFound) {
			s.log.Warn("blob delete failed", "folder_id", id, "key", key, "error", err)
		}
	}
	s.log.Info("folder deleted", "folder_id", id, "documents", len(keys))
	return nil
}

// UploadDocument stores a PDF in the folder.
func (s *Service) UploadDocument(ctx context.Context, userID, folderID string, up Upload) (Document, error) {
	f, err := s.ownedFolder(ctx, userID, folderID)
	if err != nil {
		return Document{}, err
	}
	name := strings.TrimSpace(path.Base(up.Name))
	if name == "" || name == "." || name == "/" {
		return Document{}, apierr.New(http.StatusBadRequest, "invalid_file", errors.New("file name is required"))
	}
	if len(up.Data) == 0 {
		return Document{}, apierr.New(http.StatusBadRequest, "invalid_file", errors.New("file is empty"))
	}
	if int64(len(up.Data)) > s.maxUpload {
		return Document{}, apierr.New(http.StatusBadRequest, "file_too_large", fmt.Errorf("file size should be less than %d MB", s.maxUpload>>20))
	}
	if !IsPDF(up.ContentType, up.Data) {
		return Document{}, apierr.New(http.StatusBadRequest, "invalid_file_type", errors.New("file type should be PDF"))
	}

	key := fmt.Sprintf("documents/%s/%s.pdf", userID, uuid.NewString())
	obj, err := s.blobs.Put(ctx, key, pdfMIME, up.Data)
	if err != nil {
		return Document{}, fmt.Errorf("store blob: %w", err)
	}
	doc, err := s.store.CreateDocument(ctx, Document{
		FileName: name,
		FileType: pdfMIME,
		FileSize: int64(len(up.Data)),
		BlobKey:  obj.Key,
		BlobURL:  obj.URL,
		FolderID: f.ID,
		UserID:   userID,
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, obj.Key); delErr != nil {
			s.log.Warn("orphan blob cleanup failed", "key", obj.Key, "error", delErr)
		}
		if errors.Is(err, ErrDuplicateName) {
			return Document{}, apierr.New(http.StatusConflict, "duplicate_file", err)
		}
		return Document{}, err
	}
	return doc, nil
}

func (s *Service) GetDocument(ctx context.Context, userID, id string) (Document, error) {
	return s.ownedDocument(ctx, userID, id)
}

// LoadDocumentFile returns the document and its bytes from blob storage.
func (s *Service) LoadDocumentFile(ctx context.Context, userID, id string) (Document, []byte, error) {
	doc, err := s.ownedDocument(ctx, userID, id)
	if err != nil {
		return Document{}, nil, err
	}
	data, err := s.blobs.Get(ctx, doc.BlobKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return Document{}, nil, apierr.New(http.StatusNotFound, "not_found", errors.New("document file is missing"))
		}
		return Document{}, nil, fmt.Errorf("load blob: %w", err)
	}
	return doc, data, nil
}

// SaveGenerated stores validated content for a document. Callers must have
// checked ownership already.
func (s *Service) SaveGenerated(ctx context.Context, documentID, contentType string, content json.RawMessage) (GeneratedContent, error) {
	return s.store.SaveGenerated(ctx, documentID, contentType, content)
}

func (s *Service) ListGenerated(ctx context.Context, userID, documentID string) ([]GeneratedContent, error) {
	if _, err := s.ownedDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}
	return s.store.ListGenerated(ctx, documentID)
}

// GetGenerated returns one artifact together with its document.
func (s *Service) GetGenerated(ctx context.Context, userID, id string) (GeneratedDetail, error) {
	g, err := s.store.GetGenerated(ctx, id)
	if err != nil {
		return GeneratedDetail{}, s.mapNotFound(err, "generated content")
	}
	doc, err := s.ownedDocument(ctx, userID, g.DocumentID)
	if err != nil {
		return GeneratedDetail{}, err
	}
	return GeneratedDetail{GeneratedContent: g, Document: doc}, nil
}

func (s *Service) ownedFolder(ctx context.Context, userID, id string) (Folder, error) {
	if err := requireID(id); err != nil {
		return Folder{}, err
	}
	f, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return Folder{}, s.mapNotFound(err, "folder")
	}
	if f.UserID != userID {
		return Folder{}, apierr.New(http.StatusForbidden, "forbidden", errors.New("folder belongs to another user"))
	}
	return f, nil
}

func (s *Service) ownedDocument(ctx context.Context, userID, id string) (Document, error) {
	if err := requireID(id); err != nil {
		return Document{}, err
	}
	d, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return Document{}, s.mapNotFound(err, "document")
	}
	if d.UserID != userID {
		return Document{}, apierr.New(http.StatusForbidden, "forbidden", errors.New("document belongs to another user"))
	}
	return d, nil
}

func (s *Service) mapNotFound(err error, what string) error {
	if errors.Is(err, ErrNotFound) {
		return apierr.New(http.StatusNotFound, "not_found", fmt.Errorf("%s not found", what))
	}
	return err
}

// Ids are UUIDs; anything else cannot exist and would fail the uuid cast in SQL.
func requireID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apierr.New(http.StatusNotFound, "not_found", errors.New("not found"))
	}
	return nil
}

// IsPDF accepts a declared PDF content type or the %PDF magic.
func IsPDF(contentType string, data []byte) bool {
	if strings.HasPrefix(strings.ToLower(contentType), pdfMIME) {
		return true
	}
	return bytes.HasPrefix(data, []byte("%PDF"))
}
