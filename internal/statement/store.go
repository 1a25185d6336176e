package statement

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// Store persists rendered statements. Save returns the location recorded
// on the statement row; Open takes that location back.
type Store interface {
	Save(ctx context.Context, username, filename string, pdf []byte) (string, error)
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// LocalStore writes <root>/<username>/<filename>.
type LocalStore struct {
	Root string
}

func (s LocalStore) Save(_ context.Context, username, filename string, pdf []byte) (string, error) {
	dir := filepath.Join(s.Root, username)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create statement dir %q: %w", dir, err)
	}
	p := filepath.Join(dir, filename)
	if err := os.WriteFile(p, pdf, 0o644); err != nil {
		return "", fmt.Errorf("write statement %q: %w", p, err)
	}
	return p, nil
}

func (s LocalStore) Open(_ context.Context, location string) (io.ReadCloser, error) {
	f, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("open statement %q: %w", location, err)
	}
	return f, nil
}

// GCSStore writes gs://<bucket>/statements/<username>/<filename>.
type GCSStore struct {
	client *storage.Client
	bucket string
}

func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket}
}

func objectName(username, filename string) string {
	return path.Join("statements", username, filename)
}

func (s *GCSStore) Save(ctx context.Context, username, filename string, pdf []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	name := objectName(username, filename)
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/pdf"
	if _, err := w.Write(pdf); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload statement %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize statement %s: %w", name, err)
	}
	return "gs://" + s.bucket + "/" + name, nil
}

func (s *GCSStore) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, name, err := parseGCSURI(location)
	if err != nil {
		return nil, err
	}
	rc, err := s.client.Bucket(bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("read statement %s: %w", location, err)
	}
	return rc, nil
}

func parseGCSURI(uri string) (bucket, name string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}
