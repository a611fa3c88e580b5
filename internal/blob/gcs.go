package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCS is a Store backed by a Google Cloud Storage bucket. It assumes
// Application Default Credentials unless a credentials file or endpoint
// override is configured (gcloud auth application-default login).
type GCS struct {
	client *storage.Client
	bucket string
}

// GCSOptions configures the GCS store.
type GCSOptions struct {
	// CredentialsFile points at a service-account key. Empty means ADC.
	CredentialsFile string
	// Endpoint overrides the API endpoint, used for local emulators.
	// When set, authentication is disabled.
	Endpoint string
}

// NewGCS creates a Store over the given bucket, holding one storage client
// for the lifetime of the store.
func NewGCS(ctx context.Context, bucket string, opts GCSOptions) (*GCS, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &GCS{client: client, bucket: bucket}, nil
}

// Download fetches the full object body and its current generation.
func (g *GCS) Download(ctx context.Context, name string) ([]byte, int64, error) {
	r, err := g.client.Bucket(g.bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, 0, ErrNotExist
		}
		return nil, 0, fmt.Errorf("open object reader %s/%s: %w", g.bucket, name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("read object %s/%s: %w", g.bucket, name, err)
	}

	return data, r.Attrs.Generation, nil
}

// Upload writes the object body, optionally guarded by a generation-match
// precondition so concurrent writers fail instead of overwriting each other.
func (g *GCS) Upload(ctx context.Context, name string, data []byte, contentType string, expectGeneration *int64) (int64, error) {
	obj := g.client.Bucket(g.bucket).Object(name)
	if expectGeneration != nil {
		if *expectGeneration == 0 {
			obj = obj.If(storage.Conditions{DoesNotExist: true})
		} else {
			obj = obj.If(storage.Conditions{GenerationMatch: *expectGeneration})
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := obj.NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return 0, fmt.Errorf("copy body to object writer: %w", err)
	}

	if err := w.Close(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == 412 {
			return 0, ErrPreconditionFailed
		}
		return 0, fmt.Errorf("finalize upload %s/%s: %w", g.bucket, name, err)
	}

	return w.Attrs().Generation, nil
}

// Close releases the underlying storage client.
func (g *GCS) Close() error {
	return g.client.Close()
}

var _ Store = (*GCS)(nil)
