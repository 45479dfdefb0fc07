package artifacts

import (
	"bytes"
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/tbourn/pet-calendar-backend/internal/config"
)

// GCS stores images as objects in a Google Cloud Storage bucket.
type GCS struct {
	client    *storage.Client
	bucket    string
	publicURL string
}

// NewGCS creates a storage client. Application default credentials are
// used unless a credentials file is configured.
func NewGCS(ctx context.Context, cfg config.ArtifactConfig) (*GCS, error) {
	var opts []option.ClientOption
	if cfg.GCSCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	base := cfg.PublicURL
	if base == "" {
		base = "https://storage.googleapis.com/" + cfg.GCSBucket
	}
	return &GCS{client: client, bucket: cfg.GCSBucket, publicURL: base}, nil
}

// Prepare is a no-op; object prefixes need no creation.
func (g *GCS) Prepare(context.Context, uint) error { return nil }

// Put uploads the image object.
func (g *GCS) Put(ctx context.Context, calendarID uint, month int, data []byte, contentType string) (string, error) {
	key := ObjectKey(calendarID, month)
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if err := copyAll(w, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("gcs upload %s: %w", key, err)
	}
	return g.publicURL + "/" + key, nil
}

// Close releases the underlying client.
func (g *GCS) Close() error { return g.client.Close() }
