package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
)

// ObjectOpener opens a Cloud Storage object for reading.
type ObjectOpener interface {
	NewObjectReader(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

// GCS reads gs://bucket/object sources.
type GCS struct {
	opener ObjectOpener
}

// NewGCS creates a GCS reader backed by client.
func NewGCS(client *storage.Client) (*GCS, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	return &GCS{opener: clientOpener{client: client}}, nil
}

// NewGCSWithOpener creates a GCS reader over an arbitrary opener.
func NewGCSWithOpener(opener ObjectOpener) (*GCS, error) {
	if opener == nil {
		return nil, fmt.Errorf("object opener is required")
	}
	return &GCS{opener: opener}, nil
}

// Read downloads the object named by u.
func (g *GCS) Read(ctx context.Context, u *url.URL) ([]byte, error) {
	bucket := u.Host
	object := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || object == "" {
		return nil, fmt.Errorf("gcs source %q: bucket and object are required", u.String())
	}
	r, err := g.opener.NewObjectReader(ctx, bucket, object)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: gs://%s/%s: %v", ErrUnavailable, bucket, object, err)
		}
		return nil, fmt.Errorf("open gs://%s/%s: %w", bucket, object, err)
	}
	data, err := io.ReadAll(r)
	closeErr := r.Close()
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", bucket, object, err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close gs://%s/%s: %w", bucket, object, closeErr)
	}
	return data, nil
}

type clientOpener struct {
	client *storage.Client
}

func (o clientOpener) NewObjectReader(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	r, err := o.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("new reader: %w", err)
	}
	return r, nil
}
