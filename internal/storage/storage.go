// Package storage is the file-storage collaborator used by completion workflows.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"servicehub/internal/common"
)

// StoredFile is a reference to an uploaded object.
type StoredFile struct {
	Key  string `json:"key" bson:"key"`
	URL  string `json:"url" bson:"url"`
	Name string `json:"name" bson:"name"`
}

// FileStorage uploads and deletes objects. Failures are returned, never swallowed.
type FileStorage interface {
	Upload(ctx context.Context, data []byte, filename string) (StoredFile, error)
	// Delete reports false when the object did not exist.
	Delete(ctx context.Context, key string) (bool, error)
}

// GCS stores objects in a Google Cloud Storage bucket under <prefix>/<uuid>-<filename>.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
	newID  func() string
}

// NewGCS opens a client. Credentials come from credentialsJSON when set, otherwise from
// Application Default Credentials.
func NewGCS(ctx context.Context, bucket, prefix, credentialsJSON string) (*GCS, error) {
	if bucket == "" {
		return nil, errors.New("GCS bucket is required")
	}
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCS{client: client, bucket: bucket, prefix: prefix, newID: uuid.NewString}, nil
}

// Upload writes data as a new object.
func (g *GCS) Upload(ctx context.Context, data []byte, filename string) (StoredFile, error) {
	key := objectKey(g.prefix, g.newID(), filename)

	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = http.DetectContentType(data)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return StoredFile{}, fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return StoredFile{}, fmt.Errorf("upload %s: %w", key, err)
	}

	return StoredFile{Key: key, URL: publicURL(g.bucket, key), Name: filename}, nil
}

// Delete removes the object at key.
func (g *GCS) Delete(ctx context.Context, key string) (bool, error) {
	err := g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", key, err)
	}
	return true, nil
}

// Close releases the client.
func (g *GCS) Close() error {
	return g.client.Close()
}

func objectKey(prefix, id, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Join(strings.Fields(name), "_")
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	key := id + "-" + name
	if p := strings.Trim(prefix, "/"); p != "" {
		key = p + "/" + key
	}
	return key
}

func publicURL(bucket, key string) string {
	return "https://storage.googleapis.com/" + bucket + "/" + key
}

// Unconfigured rejects uploads. Used when no bucket is configured, so completions without
// attachments still work.
type Unconfigured struct{}

func (Unconfigured) Upload(context.Context, []byte, string) (StoredFile, error) {
	return StoredFile{}, common.ValidationError("file storage is not configured", nil)
}

func (Unconfigured) Delete(context.Context, string) (bool, error) {
	return false, nil
}
