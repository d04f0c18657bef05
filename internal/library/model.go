// Package library manages folders of uploaded study documents and the
// summaries and quizzes generated from them.
package library

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("a file with this name already exists in the folder")
)

type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Document struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	FileType  string    `json:"fileType"`
	FileSize  int64     `json:"fileSize"`
	BlobKey   string    `json:"-"`
	BlobURL   string    `json:"blobUrl"`
	FolderID  string    `json:"folderId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// GeneratedContent is a validated summary or quiz stored for a document.
type GeneratedContent struct {
	ID          string          `json:"id"`
	ContentType string          `json:"contentType"`
	Content     json.RawMessage `json:"content"`
	DocumentID  string          `json:"documentId"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type FolderDetail struct {
	Folder
	Documents []Document `json:"documents"`
}

type GeneratedDetail struct {
	GeneratedContent
	Document Document `json:"document"`
}
