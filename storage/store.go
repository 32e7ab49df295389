package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ImageStore persists objects and serves them under a public URL.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (url string, err error)
	// Delete removes the object behind a URL returned by Put. Unknown URLs
	// are ignored.
	Delete(ctx context.Context, url string) error
}

// Stored are the URLs of an uploaded image and its thumbnail.
type Stored struct {
	ImageURL     string
	ThumbnailURL string
}

// SaveImage stores p and its thumbnail under prefix.
func SaveImage(ctx context.Context, store ImageStore, prefix string, p *Processed, now time.Time) (*Stored, error) {
	stamp := now.UTC().Format("20060102T150405.000000000")
	imageURL, err := store.Put(ctx, path.Join(prefix, stamp+p.Ext), p.ContentType, p.Data)
	if err != nil {
		return nil, err
	}
	thumbURL, err := store.Put(ctx, path.Join(prefix, stamp+"_thumb.jpg"), "image/jpeg", p.Thumbnail)
	if err != nil {
		_ = store.Delete(ctx, imageURL)
		return nil, err
	}
	return &Stored{ImageURL: imageURL, ThumbnailURL: thumbURL}, nil
}

// LocalStore writes under Dir and serves from BaseURL.
type LocalStore struct {
	Dir     string
	BaseURL string
}

func (s LocalStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	full := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}
	return strings.TrimSuffix(s.BaseURL, "/") + "/" + key, nil
}

func (s LocalStore) Delete(_ context.Context, url string) error {
	key, ok := strings.CutPrefix(url, strings.TrimSuffix(s.BaseURL, "/")+"/")
	if !ok || strings.Contains(key, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// GCSStore keeps objects in a Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore uses credentialsJSON when set and application default
// credentials otherwise.
func NewGCSStore(ctx context.Context, bucket, credentialsJSON string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("GCS_BUCKET is required")
	}
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("gcs bucket %q not found or not accessible: %w", bucket, err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) urlPrefix() string {
	return "https://storage.googleapis.com/" + s.bucket + "/"
}

func (s *GCSStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	wc := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"
	if _, err := io.Copy(wc, bytes.NewReader(data)); err != nil {
		wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return s.urlPrefix() + key, nil
}

func (s *GCSStore) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.urlPrefix())
	if !ok {
		return nil
	}
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
