// Package filestore reads input files from an S3-compatible object store,
// so loads can run straight off a landing bucket.
package filestore

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds object-store connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Store is a handle to one bucket. Safe for concurrent use.
type Store struct {
	client *minio.Client
	bucket string
}

// New creates a store and verifies the bucket is reachable.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object store client: %w", err)
	}

	s := &Store{client: client, bucket: cfg.Bucket}
	ok, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %q: %w", cfg.Bucket, err)
	}
	if !ok {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.Bucket)
	}
	return s, nil
}

// Object returns a reader source for one object. It satisfies the reader
// package's Source contract: each Open starts a fresh download.
func (s *Store) Object(key string) *ObjectSource {
	return &ObjectSource{store: s, key: key}
}

// ObjectSource streams a single object's content.
type ObjectSource struct {
	store *Store
	key   string
}

// Name returns the object's bucket-qualified name.
func (o *ObjectSource) Name() string {
	return o.store.bucket + "/" + o.key
}

// Open starts a streaming download. Stat runs first so missing objects fail
// here rather than on the first read.
func (o *ObjectSource) Open(ctx context.Context) (io.ReadCloser, error) {
	obj, err := o.store.client.GetObject(ctx, o.store.bucket, o.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting object %s: %w", o.Name(), err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("stat object %s: %w", o.Name(), err)
	}
	return obj, nil
}
