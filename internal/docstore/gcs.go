package docstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
)

// GCSStore reads documents from a Cloud Storage bucket. Safe for concurrent
// use; the underlying client is goroutine-safe.
type GCSStore struct {
	bucket *storage.BucketHandle
	log    *zap.Logger
}

func NewGCSStore(client *storage.Client, bucket string, log *zap.Logger) *GCSStore {
	return &GCSStore{
		bucket: client.Bucket(bucket),
		log:    log.Named("docstore.gcs"),
	}
}

func (s *GCSStore) Scan(ctx context.Context, key string) ([]Object, error) {
	var out []Object

	it := s.bucket.Objects(ctx, nil)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		if attrs.Metadata[MetaCorrelationKey] != key {
			continue
		}

		data, err := s.read(ctx, attrs.Name)
		if err != nil {
			// One unreadable object must not sink the whole scan; the
			// correlator treats the role as absent.
			s.log.Warn("skipping unreadable object",
				zap.String("object", attrs.Name),
				zap.String("correlation_key", key),
				zap.Error(err))
			continue
		}

		out = append(out, Object{
			Name:     attrs.Name,
			Metadata: attrs.Metadata,
			Data:     data,
		})
	}

	return out, nil
}

func (s *GCSStore) read(ctx context.Context, name string) ([]byte, error) {
	rc, err := s.bucket.Object(name).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (s *GCSStore) Ping(ctx context.Context) error {
	_, err := s.bucket.Attrs(ctx)
	return err
}
