package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tendant/content-repository/pkg/contentrepo"
)

const backendName = "fs"

// Backend is a filesystem implementation of the contentrepo.StorageBackend interface.
// Content lives at {BaseDir}/{namespace}/{path}.
type Backend struct {
	baseDir string
	logger  *slog.Logger
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Base directory for storing files
	Logger  *slog.Logger
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	baseDir, err := filepath.Abs(config.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Backend{
		baseDir: baseDir,
		logger:  logger,
	}, nil
}

// BaseDir returns the absolute base directory
func (b *Backend) BaseDir() string {
	return b.baseDir
}

// resolvePath maps a logical path to a file under the namespace root and
// rejects anything that would land outside it.
func (b *Backend) resolvePath(namespace, path string) (string, error) {
	if namespace == "" || strings.ContainsAny(namespace, `/\`) || namespace == "." || namespace == ".." {
		return "", fmt.Errorf("invalid namespace %q", namespace)
	}
	root := filepath.Join(b.baseDir, namespace)
	full := filepath.Join(root, filepath.FromSlash(path))
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes namespace root", path)
	}
	return full, nil
}

// Write stores content, creating parent directories and replacing any existing file
func (b *Backend) Write(ctx context.Context, namespace, path string, reader io.Reader) error {
	filePath, err := b.resolvePath(namespace, path)
	if err != nil {
		return b.fail("write", namespace, path, contentrepo.ErrInvalidPath, err)
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return b.fail("write", namespace, path, contentrepo.ErrBackendIO, fmt.Errorf("failed to create directory: %w", err))
	}

	// Write to a sibling temp file and rename so readers never observe a partial file
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return b.fail("write", namespace, path, contentrepo.ErrBackendIO, fmt.Errorf("failed to create file: %w", err))
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return b.fail("write", namespace, path, contentrepo.ErrBackendIO, fmt.Errorf("failed to write file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return b.fail("write", namespace, path, contentrepo.ErrBackendIO, fmt.Errorf("failed to close file: %w", err))
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return b.fail("write", namespace, path, contentrepo.ErrBackendIO, fmt.Errorf("failed to set permissions: %w", err))
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		return b.fail("write", namespace, path, contentrepo.ErrBackendIO, fmt.Errorf("failed to move file into place: %w", err))
	}

	return nil
}

// Read opens a stored file
func (b *Backend) Read(ctx context.Context, namespace, path string) (io.ReadCloser, error) {
	filePath, err := b.resolvePath(namespace, path)
	if err != nil {
		return nil, b.fail("read", namespace, path, contentrepo.ErrInvalidPath, err)
	}

	file, err := os.Open(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, b.fail("read", namespace, path, contentrepo.ErrNotFound, err)
	} else if err != nil {
		return nil, b.fail("read", namespace, path, contentrepo.ErrBackendIO, fmt.Errorf("failed to open file: %w", err))
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, b.fail("read", namespace, path, contentrepo.ErrBackendIO, fmt.Errorf("failed to get file info: %w", err))
	}
	if info.IsDir() {
		file.Close()
		return nil, b.fail("read", namespace, path, contentrepo.ErrNotFound, fmt.Errorf("%s is a directory", path))
	}

	return file, nil
}

// Delete removes a stored file. Empty parent directories are left in place.
func (b *Backend) Delete(ctx context.Context, namespace, path string) error {
	filePath, err := b.resolvePath(namespace, path)
	if err != nil {
		return b.fail("delete", namespace, path, contentrepo.ErrInvalidPath, err)
	}

	info, err := os.Stat(filePath)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return b.fail("delete", namespace, path, contentrepo.ErrNotFound, fmt.Errorf("file %s does not exist", path))
	} else if err != nil {
		return b.fail("delete", namespace, path, contentrepo.ErrBackendIO, fmt.Errorf("failed to get file info: %w", err))
	}

	if err := os.Remove(filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return b.fail("delete", namespace, path, contentrepo.ErrNotFound, err)
		}
		return b.fail("delete", namespace, path, contentrepo.ErrBackendIO, fmt.Errorf("failed to delete file: %w", err))
	}

	return nil
}

func (b *Backend) fail(op, namespace, path string, kind, err error) error {
	return contentrepo.StorageFailure(b.logger, backendName, op, namespace, path, kind, err)
}

var _ contentrepo.StorageBackend = (*Backend)(nil)
