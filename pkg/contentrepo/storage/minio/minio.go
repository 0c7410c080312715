package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/tendant/content-repository/pkg/contentrepo"
)

const backendName = "minio"

// objectClient is the subset of the MinIO SDK used by the backend.
type objectClient interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
}

// sdkClient adapts *minio.Client to objectClient.
type sdkClient struct {
	*minio.Client
}

func (c sdkClient) GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return c.Client.GetObject(ctx, bucket, key, opts)
}

// Config options for the MinIO backend
type Config struct {
	Endpoint        string // host:port of the MinIO server
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string

	CreateBucketIfNotExist bool

	Logger *slog.Logger
}

// Backend is a MinIO implementation of the contentrepo.StorageBackend interface.
// Objects are keyed {namespace}/{path} inside a single bucket.
type Backend struct {
	client objectClient
	bucket string
	logger *slog.Logger
}

// New creates a new MinIO storage backend
func New(ctx context.Context, config Config) (*Backend, error) {
	if config.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}

	mc, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new client: %w", err)
	}

	return newBackend(ctx, sdkClient{mc}, config)
}

func newBackend(ctx context.Context, client objectClient, config Config) (*Backend, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	b := &Backend{
		client: client,
		bucket: config.Bucket,
		logger: logger,
	}

	if config.CreateBucketIfNotExist {
		if err := b.ensureBucket(ctx, config.Region); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// ensureBucket creates the bucket if it does not already exist.
func (b *Backend) ensureBucket(ctx context.Context, region string) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("make bucket: %w", err)
	}
	return nil
}

func objectKey(namespace, path string) string {
	return namespace + "/" + strings.TrimPrefix(path, "/")
}

// Write streams content into the bucket with unknown length.
func (b *Backend) Write(ctx context.Context, namespace, path string, reader io.Reader) error {
	_, err := b.client.PutObject(ctx, b.bucket, objectKey(namespace, path), reader, -1, minio.PutObjectOptions{})
	if err != nil {
		return b.fail("write", namespace, path, err)
	}
	return nil
}

// Read returns a reader streaming the object content. MinIO opens objects
// lazily, so the object is stat'ed first to report a missing key here
// rather than on the first Read.
func (b *Backend) Read(ctx context.Context, namespace, path string) (io.ReadCloser, error) {
	key := objectKey(namespace, path)

	if _, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{}); err != nil {
		return nil, b.fail("read", namespace, path, err)
	}

	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, b.fail("read", namespace, path, err)
	}
	return obj, nil
}

// Delete removes an object, failing with ErrNotFound when it does not exist.
func (b *Backend) Delete(ctx context.Context, namespace, path string) error {
	key := objectKey(namespace, path)

	if _, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{}); err != nil {
		return b.fail("delete", namespace, path, err)
	}

	if err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return b.fail("delete", namespace, path, err)
	}
	return nil
}

func (b *Backend) fail(op, namespace, path string, err error) error {
	return contentrepo.StorageFailure(b.logger, backendName, op, namespace, path, classifyError(err), err)
}

func classifyError(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return contentrepo.ErrNotFound
	}
	return contentrepo.ErrBackendIO
}

var _ contentrepo.StorageBackend = (*Backend)(nil)
