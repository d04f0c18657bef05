package blob

import (
	"context"
	"fmt"
	"io"

	"github.com/kurin/blazer/b2"
)

// B2 stores documents in a Backblaze B2 bucket.
type B2 struct {
	bucket *b2.Bucket
}

// NewB2 authorizes the account and opens bucketName.
func NewB2(ctx context.Context, accountID, appKey, bucketName string) (*B2, error) {
	client, err := b2.NewClient(ctx, accountID, appKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create b2 client: %w", err)
	}
	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}
	return &B2{bucket: bucket}, nil
}

func (s *B2) Put(ctx context.Context, key, contentType string, data []byte) (Object, error) {
	obj := s.bucket.Object(key)
	w := obj.NewWriter(ctx).WithAttrs(&b2.Attrs{ContentType: contentType})
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return Object{}, fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("failed to close writer: %w", err)
	}
	return Object{Key: key, URL: obj.URL(), Size: int64(len(data))}, nil
}

func (s *B2) Get(ctx context.Context, key string) ([]byte, error) {
	r := s.bucket.Object(key).NewReader(ctx)
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		if b2.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

func (s *B2) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil {
		if b2.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
