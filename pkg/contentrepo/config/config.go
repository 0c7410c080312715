package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tendant/content-repository/pkg/contentrepo"
	fsstorage "github.com/tendant/content-repository/pkg/contentrepo/storage/fs"
	memorystorage "github.com/tendant/content-repository/pkg/contentrepo/storage/memory"
	miniostorage "github.com/tendant/content-repository/pkg/contentrepo/storage/minio"
	s3storage "github.com/tendant/content-repository/pkg/contentrepo/storage/s3"
)

// Storage backend types
const (
	StorageMemory = "memory"
	StorageFS     = "fs"
	StorageS3     = "s3"
	StorageMinIO  = "minio"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:          "8080",
		Environment:   "development",
		DefaultTenant: "default",
		MaxFileSize:   contentrepo.DefaultMaxFileSize,
		StorageType:   StorageMemory,
		FS: FSConfig{
			BaseDir: "./data/content",
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		MinIO: MinIOConfig{
			Endpoint: "localhost:9000",
		},
	}
}

// ServerConfig represents configuration for the content repository server.
// Fields are read from the environment by WithEnv; defaults come from Load.
type ServerConfig struct {
	Port        string `yaml:"port" env:"PORT" env-description:"HTTP listen port"`
	Environment string `yaml:"environment" env:"ENVIRONMENT" env-description:"development, production or testing"`

	// DefaultTenant is used when a request carries no tenant header
	DefaultTenant string `yaml:"default_tenant" env:"DEFAULT_TENANT" env-description:"Tenant used when the request names none"`

	MaxFileSize int64 `yaml:"max_file_size" env:"MAX_FILE_SIZE" env-description:"Upload limit in bytes"`

	StorageType string `yaml:"storage_type" env:"STORAGE_TYPE" env-description:"memory, fs, s3 or minio"`

	FS    FSConfig    `yaml:"fs" env-prefix:"FS_"`
	S3    S3Config    `yaml:"s3" env-prefix:"S3_"`
	MinIO MinIOConfig `yaml:"minio" env-prefix:"MINIO_"`
}

// FSConfig configures the filesystem backend
type FSConfig struct {
	BaseDir string `yaml:"base_dir" env:"BASE_DIR"`
}

// S3Config configures the S3 backend
type S3Config struct {
	Region                 string `yaml:"region" env:"REGION"`
	Bucket                 string `yaml:"bucket" env:"BUCKET"`
	AccessKeyID            string `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	SecretAccessKey        string `yaml:"secret_access_key" env:"SECRET_ACCESS_KEY"`
	Endpoint               string `yaml:"endpoint" env:"ENDPOINT"`
	UsePathStyle           bool   `yaml:"use_path_style" env:"USE_PATH_STYLE"`
	EnableSSE              bool   `yaml:"enable_sse" env:"ENABLE_SSE"`
	SSEAlgorithm           string `yaml:"sse_algorithm" env:"SSE_ALGORITHM"`
	SSEKMSKeyID            string `yaml:"sse_kms_key_id" env:"SSE_KMS_KEY_ID"`
	CreateBucketIfNotExist bool   `yaml:"create_bucket_if_not_exist" env:"CREATE_BUCKET_IF_NOT_EXIST"`
}

// MinIOConfig configures the MinIO backend
type MinIOConfig struct {
	Endpoint               string `yaml:"endpoint" env:"ENDPOINT"`
	AccessKeyID            string `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	SecretAccessKey        string `yaml:"secret_access_key" env:"SECRET_ACCESS_KEY"`
	Bucket                 string `yaml:"bucket" env:"BUCKET"`
	UseSSL                 bool   `yaml:"use_ssl" env:"USE_SSL"`
	Region                 string `yaml:"region" env:"REGION"`
	CreateBucketIfNotExist bool   `yaml:"create_bucket_if_not_exist" env:"CREATE_BUCKET_IF_NOT_EXIST"`
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("max_file_size must be positive")
	}

	switch c.StorageType {
	case StorageMemory:
	case StorageFS:
		if c.FS.BaseDir == "" {
			return errors.New("fs base_dir is required when using fs storage")
		}
	case StorageS3:
		if c.S3.Bucket == "" {
			return errors.New("s3 bucket is required when using s3 storage")
		}
		if c.S3.EnableSSE && c.S3.SSEAlgorithm != "AES256" && c.S3.SSEAlgorithm != "aws:kms" {
			return fmt.Errorf("s3 sse_algorithm must be 'AES256' or 'aws:kms', got: %s", c.S3.SSEAlgorithm)
		}
	case StorageMinIO:
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return errors.New("minio endpoint and bucket are required when using minio storage")
		}
	default:
		return fmt.Errorf("storage_type must be one of memory, fs, s3, minio, got: %s", c.StorageType)
	}

	return nil
}

// ReportedStorageType is the storage type the repository reports for the
// configured backend. Object stores report S3; the memory backend stands in
// for the filesystem.
func (c *ServerConfig) ReportedStorageType() contentrepo.StorageType {
	switch c.StorageType {
	case StorageS3, StorageMinIO:
		return contentrepo.StorageTypeS3
	default:
		return contentrepo.StorageTypeFileSystem
	}
}

// BuildBackend creates the storage backend selected by StorageType
func (c *ServerConfig) BuildBackend(ctx context.Context, logger *slog.Logger) (contentrepo.StorageBackend, error) {
	switch c.StorageType {
	case StorageMemory:
		return memorystorage.NewWithLogger(logger), nil
	case StorageFS:
		backend, err := fsstorage.New(fsstorage.Config{
			BaseDir: c.FS.BaseDir,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		return backend, nil
	case StorageS3:
		backend, err := s3storage.New(ctx, s3storage.Config{
			Region:                 c.S3.Region,
			Bucket:                 c.S3.Bucket,
			AccessKeyID:            c.S3.AccessKeyID,
			SecretAccessKey:        c.S3.SecretAccessKey,
			Endpoint:               c.S3.Endpoint,
			UsePathStyle:           c.S3.UsePathStyle,
			EnableSSE:              c.S3.EnableSSE,
			SSEAlgorithm:           c.S3.SSEAlgorithm,
			SSEKMSKeyID:            c.S3.SSEKMSKeyID,
			CreateBucketIfNotExist: c.S3.CreateBucketIfNotExist,
			Logger:                 logger,
		})
		if err != nil {
			return nil, err
		}
		return backend, nil
	case StorageMinIO:
		backend, err := miniostorage.New(ctx, miniostorage.Config{
			Endpoint:               c.MinIO.Endpoint,
			AccessKeyID:            c.MinIO.AccessKeyID,
			SecretAccessKey:        c.MinIO.SecretAccessKey,
			Bucket:                 c.MinIO.Bucket,
			UseSSL:                 c.MinIO.UseSSL,
			Region:                 c.MinIO.Region,
			CreateBucketIfNotExist: c.MinIO.CreateBucketIfNotExist,
			Logger:                 logger,
		})
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", c.StorageType)
	}
}

// BuildRepository creates a content repository from the server configuration
func (c *ServerConfig) BuildRepository(ctx context.Context, logger *slog.Logger) (*contentrepo.Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}

	backend, err := c.BuildBackend(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s storage backend: %w", c.StorageType, err)
	}

	return contentrepo.New(
		contentrepo.WithBackend(backend, c.ReportedStorageType()),
		contentrepo.WithMaxFileSize(c.MaxFileSize),
		contentrepo.WithLogger(logger),
	)
}
