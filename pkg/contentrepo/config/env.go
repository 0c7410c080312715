package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// WithEnv reads configuration from the process environment.
//
// When CONFIG_FILE is set, the YAML (or JSON/TOML/EDN) file it names is read
// first and the environment is applied over it. Variables:
//
//	PORT, ENVIRONMENT, DEFAULT_TENANT, MAX_FILE_SIZE, STORAGE_TYPE
//	FS_BASE_DIR
//	S3_REGION, S3_BUCKET, S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY, S3_ENDPOINT,
//	S3_USE_PATH_STYLE, S3_ENABLE_SSE, S3_SSE_ALGORITHM, S3_SSE_KMS_KEY_ID,
//	S3_CREATE_BUCKET_IF_NOT_EXIST
//	MINIO_ENDPOINT, MINIO_ACCESS_KEY_ID, MINIO_SECRET_ACCESS_KEY, MINIO_BUCKET,
//	MINIO_USE_SSL, MINIO_REGION, MINIO_CREATE_BUCKET_IF_NOT_EXIST
//
// STORAGE_URL is a shorthand that selects and configures a backend in one go:
//
//	memory://
//	file:///path/to/data
//	s3://bucket?region=us-east-1&endpoint=http://localhost:9000
//	minio://host:9000/bucket?ssl=true
//
// Unset variables leave the current value untouched.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if path := os.Getenv("CONFIG_FILE"); path != "" {
			if err := cleanenv.ReadConfig(path, c); err != nil {
				return fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}

		if storageURL := os.Getenv("STORAGE_URL"); storageURL != "" {
			return applyStorageURL(storageURL, c)
		}
		return nil
	}
}

// Usage returns a description of the environment variables WithEnv reads.
func Usage() string {
	var cfg ServerConfig
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}

func applyStorageURL(raw string, c *ServerConfig) error {
	if raw == "memory" || raw == "memory://" {
		c.StorageType = StorageMemory
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid STORAGE_URL: %w", err)
	}

	switch u.Scheme {
	case "file":
		path := u.Path
		if u.Host != "" {
			path = u.Host + path
		}
		if path == "" {
			return fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
		}
		c.StorageType = StorageFS
		c.FS.BaseDir = path
	case "s3":
		if u.Host == "" {
			return fmt.Errorf("bucket cannot be empty in STORAGE_URL")
		}
		c.StorageType = StorageS3
		c.S3.Bucket = u.Host
		q := u.Query()
		if v := q.Get("region"); v != "" {
			c.S3.Region = v
		}
		if v := q.Get("endpoint"); v != "" {
			c.S3.Endpoint = v
			c.S3.UsePathStyle = true
		}
	case "minio":
		bucket := strings.Trim(u.Path, "/")
		if u.Host == "" || bucket == "" {
			return fmt.Errorf("minio STORAGE_URL must be minio://host:port/bucket")
		}
		c.StorageType = StorageMinIO
		c.MinIO.Endpoint = u.Host
		c.MinIO.Bucket = bucket
		if v := u.Query().Get("ssl"); v != "" {
			ssl, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid ssl flag in STORAGE_URL: %w", err)
			}
			c.MinIO.UseSSL = ssl
		}
	default:
		return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', 's3://...' or 'minio://...')", raw)
	}

	return nil
}
