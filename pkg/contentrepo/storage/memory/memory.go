package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/tendant/content-repository/pkg/contentrepo"
)

const backendName = "memory"

// Backend is an in-memory implementation of the contentrepo.StorageBackend interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string][]byte
	logger  *slog.Logger
}

// New creates a new in-memory storage backend
func New() *Backend {
	return NewWithLogger(nil)
}

// NewWithLogger creates an in-memory backend that logs failures to logger
func NewWithLogger(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		objects: make(map[string][]byte),
		logger:  logger,
	}
}

func objectKey(namespace, path string) string {
	return namespace + "/" + path
}

// Write stores a copy of the reader's content
func (b *Backend) Write(ctx context.Context, namespace, path string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return contentrepo.StorageFailure(b.logger, backendName, "write", namespace, path,
			contentrepo.ErrBackendIO, fmt.Errorf("failed to read content: %w", err))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectKey(namespace, path)] = data
	return nil
}

// Read returns a reader over a copy of the stored content
func (b *Backend) Read(ctx context.Context, namespace, path string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey(namespace, path)]
	if !exists {
		return nil, contentrepo.StorageFailure(b.logger, backendName, "read", namespace, path,
			contentrepo.ErrNotFound, fmt.Errorf("object %s not found", path))
	}

	return io.NopCloser(bytes.NewReader(bytes.Clone(data))), nil
}

// Delete removes stored content
func (b *Backend) Delete(ctx context.Context, namespace, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := objectKey(namespace, path)
	if _, exists := b.objects[key]; !exists {
		return contentrepo.StorageFailure(b.logger, backendName, "delete", namespace, path,
			contentrepo.ErrNotFound, fmt.Errorf("object %s not found", path))
	}

	delete(b.objects, key)
	return nil
}

// Len returns the number of stored objects across all namespaces
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

var _ contentrepo.StorageBackend = (*Backend)(nil)
