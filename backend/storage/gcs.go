package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GCSRelay stores media in a single Google Cloud Storage bucket.
type GCSRelay struct {
	client  *gcs.Client
	bucket  string
	baseURL string
	log     *zap.Logger
}

// NewGCSRelay opens a storage client. An empty credentialsFile falls back to
// application default credentials. An empty baseURL uses the public
// storage.googleapis.com address of the bucket.
func NewGCSRelay(ctx context.Context, bucket, baseURL, credentialsFile string, log *zap.Logger) (*GCSRelay, error) {
	if bucket == "" {
		return nil, errors.New("missing MEDIA_BUCKET")
	}
	opts := []option.ClientOption{option.WithScopes(gcs.ScopeReadWrite)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	if baseURL == "" {
		baseURL = "https://storage.googleapis.com/" + bucket + "/"
	}
	log.Info("media relay initialized", zap.String("driver", "gcs"), zap.String("bucket", bucket))
	return &GCSRelay{client: client, bucket: bucket, baseURL: baseURL, log: log}, nil
}

func (g *GCSRelay) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

func (g *GCSRelay) Delete(ctx context.Context, key string) error {
	err := g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (g *GCSRelay) URL(key string) string {
	return strings.TrimRight(g.baseURL, "/") + "/" + key
}

func (g *GCSRelay) Close() error {
	return g.client.Close()
}
