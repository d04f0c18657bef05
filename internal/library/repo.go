package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists the library in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateFolder(ctx context.Context, userID, name string) (Folder, error) {
	f := Folder{ID: uuid.NewString(), Name: name, UserID: userID}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO folders (id, name, user_id)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, f.ID, f.Name, f.UserID)
	if err := row.Scan(&f.CreatedAt); err != nil {
		return Folder{}, err
	}
	return f, nil
}

func (r *Repository) ListFolders(ctx context.Context, userID string) ([]Folder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, user_id, created_at FROM folders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []Folder{}
	for rows.Next() {
		var f Folder
		if err := rows.Scan(&f.ID, &f.Name, &f.UserID, &f.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, f)
	}
	return res, rows.Err()
}

func (r *Repository) GetFolder(ctx context.Context, id string) (Folder, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, user_id, created_at FROM folders WHERE id = $1
	`, id)
	var f Folder
	if err := row.Scan(&f.ID, &f.Name, &f.UserID, &f.CreatedAt); err != nil {
		return Folder{}, notFound(err)
	}
	return f, nil
}

const documentColumns = `id, file_name, file_type, file_size, blob_key, blob_url, folder_id, user_id, created_at`

func scanDocument(row interface{ Scan(...any) error }) (Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.FileName, &d.FileType, &d.FileSize, &d.BlobKey, &d.BlobURL, &d.FolderID, &d.UserID, &d.CreatedAt)
	return d, err
}

func (r *Repository) ListDocuments(ctx context.Context, folderID string) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE folder_id = $1
		ORDER BY created_at DESC
	`, folderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// CreateDocument inserts a document row. A name already used in the folder
// yields ErrDuplicateName.
func (r *Repository) CreateDocument(ctx context.Context, d Document) (Document, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO documents (id, file_name, file_type, file_size, blob_key, blob_url, folder_id, user_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, d.ID, d.FileName, d.FileType, d.FileSize, d.BlobKey, d.BlobURL, d.FolderID, d.UserID)
	if err := row.Scan(&d.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Document{}, ErrDuplicateName
		}
		return Document{}, err
	}
	return d, nil
}

func (r *Repository) GetDocument(ctx context.Context, id string) (Document, error) {
	d, err := scanDocument(r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if err != nil {
		return Document{}, notFound(err)
	}
	return d, nil
}

// DeleteFolder removes the folder, its documents and their generated content
// in one transaction and returns the blob keys that were referenced.
func (r *Repository) DeleteFolder(ctx context.Context, id string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM generated_content
		WHERE document_id IN (SELECT id FROM documents WHERE folder_id = $1)
	`, id); err != nil {
		return nil, fmt.Errorf("delete generated content: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `DELETE FROM documents WHERE folder_id = $1 RETURNING blob_key`, id)
	if err != nil {
		return nil, fmt.Errorf("delete documents: %w", err)
	}
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return nil, err
		}
		keys = append(keys, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM folders WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("delete folder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return keys, tx.Commit()
}

func (r *Repository) SaveGenerated(ctx context.Context, documentID, contentType string, content json.RawMessage) (GeneratedContent, error) {
	g := GeneratedContent{ID: uuid.NewString(), ContentType: contentType, Content: content, DocumentID: documentID}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO generated_content (id, content_type, content, document_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, g.ID, g.ContentType, string(g.Content), g.DocumentID)
	if err := row.Scan(&g.CreatedAt); err != nil {
		return GeneratedContent{}, err
	}
	return g, nil
}

func (r *Repository) ListGenerated(ctx context.Context, documentID string) ([]GeneratedContent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, content_type, content, document_id, created_at FROM generated_content
		WHERE document_id = $1
		ORDER BY created_at DESC
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []GeneratedContent{}
	for rows.Next() {
		var g GeneratedContent
		var raw []byte
		if err := rows.Scan(&g.ID, &g.ContentType, &raw, &g.DocumentID, &g.CreatedAt); err != nil {
			return nil, err
		}
		g.Content = raw
		res = append(res, g)
	}
	return res, rows.Err()
}

func (r *Repository) GetGenerated(ctx context.Context, id string) (GeneratedContent, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, content_type, content, document_id, created_at FROM generated_content WHERE id = $1
	`, id)
	var g GeneratedContent
	var raw []byte
	if err := row.Scan(&g.ID, &g.ContentType, &raw, &g.DocumentID, &g.CreatedAt); err != nil {
		return GeneratedContent{}, notFound(err)
	}
	g.Content = raw
	return g, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
