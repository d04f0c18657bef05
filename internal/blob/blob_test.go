package blob

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	obj, err := m.Put(ctx, "u/doc.pdf", "application/pdf", []byte("%PDF"))
	if err != nil || obj.Size != 4 || obj.Key != "u/doc.pdf" {
		t.Fatalf("put: got=%+v err=%v", obj, err)
	}
	data, err := m.Get(ctx, "u/doc.pdf")
	if err != nil || string(data) != "%PDF" {
		t.Fatalf("get: got=%q err=%v", data, err)
	}
	if err := m.Delete(ctx, "u/doc.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(ctx, "u/doc.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: got=%v", err)
	}
	if err := m.Delete(ctx, "u/doc.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: got=%v", err)
	}
}

func TestCloudinaryUploadDownloadDestroy(t *testing.T) {
	stored := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/demo/raw/upload":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse form: %v", err)
			}
			want := fmt.Sprintf("%x", sha1.Sum([]byte("folder=docs&public_id=u1/a.pdf&timestamp=1700000000secret")))
			if got := r.FormValue("signature"); got != want {
				t.Errorf("signature: got=%s want=%s", got, want)
			}
			if r.FormValue("api_key") != "key" {
				t.Errorf("api_key missing")
			}
			f, _, err := r.FormFile("file")
			if err != nil {
				t.Errorf("file: %v", err)
				return
			}
			data, _ := io.ReadAll(f)
			stored["docs/u1/a.pdf"] = string(data)
			fmt.Fprintf(w, `{"public_id":"docs/u1/a.pdf","secure_url":"https://cdn/docs/u1/a.pdf","bytes":%d}`, len(data))
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/res/demo/raw/upload/"):
			data, ok := stored[strings.TrimPrefix(r.URL.Path, "/res/demo/raw/upload/")]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(data))
		case r.Method == http.MethodPost && r.URL.Path == "/api/demo/raw/destroy":
			_ = r.ParseMultipartForm(1 << 20)
			if _, ok := stored[r.FormValue("public_id")]; !ok {
				_, _ = w.Write([]byte(`{"result":"not found"}`))
				return
			}
			delete(stored, r.FormValue("public_id"))
			_, _ = w.Write([]byte(`{"result":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewCloudinary("demo", "key", "secret", "docs")
	c.APIBase = srv.URL + "/api"
	c.DeliveryBase = srv.URL + "/res"
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	ctx := context.Background()
	obj, err := c.Put(ctx, "u1/a.pdf", "application/pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if obj.Key != "docs/u1/a.pdf" || obj.Size != 8 {
		t.Fatalf("object: got=%+v", obj)
	}
	data, err := c.Get(ctx, obj.Key)
	if err != nil || string(data) != "%PDF-1.4" {
		t.Fatalf("Get: got=%q err=%v", data, err)
	}
	if err := c.Delete(ctx, obj.Key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, obj.Key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete: got=%v", err)
	}
	if err := c.Delete(ctx, obj.Key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete twice: got=%v", err)
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Options{})
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Fatalf("default backend should be memory, got %T", s)
	}
	s, err = Open(ctx, Options{Backend: "cloudinary", CloudinaryCloudName: "demo", CloudinaryAPIKey: "k", CloudinaryAPISecret: "s"})
	if err != nil {
		t.Fatalf("cloudinary: %v", err)
	}
	if _, ok := s.(*Cloudinary); !ok {
		t.Fatalf("want *Cloudinary, got %T", s)
	}
	if _, err := Open(ctx, Options{Backend: "cloudinary"}); err == nil {
		t.Fatalf("missing cloudinary credentials should fail")
	}
	if _, err := Open(ctx, Options{Backend: "b2"}); err == nil {
		t.Fatalf("missing b2 credentials should fail")
	}
	if _, err := Open(ctx, Options{Backend: "s3"}); err == nil {
		t.Fatalf("unknown backend should fail")
	}
}
