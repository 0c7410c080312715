package config

import (
	"fmt"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDefaultTenant sets the tenant used for requests that name none
func WithDefaultTenant(tenant string) Option {
	return func(c *ServerConfig) error {
		c.DefaultTenant = tenant
		return nil
	}
}

// WithMaxFileSize sets the upload limit in bytes
func WithMaxFileSize(maxBytes int64) Option {
	return func(c *ServerConfig) error {
		if maxBytes <= 0 {
			return fmt.Errorf("max file size must be positive, got: %d", maxBytes)
		}
		c.MaxFileSize = maxBytes
		return nil
	}
}

// WithMemoryStorage selects the in-memory backend
func WithMemoryStorage() Option {
	return func(c *ServerConfig) error {
		c.StorageType = StorageMemory
		return nil
	}
}

// WithFilesystemStorage selects the filesystem backend rooted at baseDir
func WithFilesystemStorage(baseDir string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		c.StorageType = StorageFS
		c.FS.BaseDir = baseDir
		return nil
	}
}

// WithS3Storage selects the S3 backend
func WithS3Storage(s3 S3Config) Option {
	return func(c *ServerConfig) error {
		if s3.Bucket == "" {
			return fmt.Errorf("s3 bucket cannot be empty")
		}
		if s3.Region == "" {
			s3.Region = "us-east-1"
		}
		c.StorageType = StorageS3
		c.S3 = s3
		return nil
	}
}

// WithMinIOStorage selects the MinIO backend
func WithMinIOStorage(minio MinIOConfig) Option {
	return func(c *ServerConfig) error {
		if minio.Endpoint == "" || minio.Bucket == "" {
			return fmt.Errorf("minio endpoint and bucket cannot be empty")
		}
		c.StorageType = StorageMinIO
		c.MinIO = minio
		return nil
	}
}
