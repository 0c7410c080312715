package contentrepo

import (
	"errors"
	"fmt"
	"log/slog"
)

// Error kinds. Every failure leaving this package or a storage backend is a
// *ContentError whose Kind is one of these.
var (
	// ErrNotFound indicates the path does not exist in the backend
	ErrNotFound = errors.New("content not found")

	// ErrFileTooLarge indicates the declared or decoded size exceeds the configured maximum
	ErrFileTooLarge = errors.New("file size exceeds maximum allowed size")

	// ErrEmptyFile indicates a missing file name or stream
	ErrEmptyFile = errors.New("file is empty")

	// ErrInvalidImageType indicates a MIME type or data URL outside the image allow-list
	ErrInvalidImageType = errors.New("invalid image type")

	// ErrInvalidEntityType indicates an entity type that cannot own images
	ErrInvalidEntityType = errors.New("invalid entity type")

	// ErrInvalidPath indicates a path that escapes the namespace root
	ErrInvalidPath = errors.New("invalid path")

	// ErrEmptyNamespace indicates no tenant namespace could be derived
	ErrEmptyNamespace = errors.New("namespace is empty")

	// ErrBackendIO wraps any lower-level storage failure
	ErrBackendIO = errors.New("storage backend I/O failure")
)

// ContentError is the uniform content-management failure. Path is the
// logical location (or file name for validation failures) the failure is
// about, Err is the original cause, if any.
type ContentError struct {
	Kind    error
	Op      string
	Path    string
	Message string
	Err     error
}

func (e *ContentError) Error() string {
	s := fmt.Sprintf("content operation %s failed for %s: %v", e.Op, e.Path, e.Kind)
	if e.Message != "" && (e.Err == nil || e.Message != e.Err.Error()) {
		s += ": " + e.Message
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *ContentError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds a ContentError without a cause.
func NewError(kind error, op, path, message string) *ContentError {
	return &ContentError{Kind: kind, Op: op, Path: path, Message: message}
}

// StorageFailure wraps a backend error into a ContentError and logs the cause.
// Backends call it at the point where a low-level error would otherwise escape.
// If cause is already a ContentError it is returned unchanged.
func StorageFailure(logger *slog.Logger, backend, op, namespace, path string, kind, cause error) error {
	var ce *ContentError
	if errors.As(cause, &ce) {
		return ce
	}
	if logger == nil {
		logger = slog.Default()
	}
	msg := kind.Error()
	if cause != nil {
		msg = cause.Error()
	}
	logger.Warn("storage operation failed",
		"backend", backend,
		"op", op,
		"namespace", namespace,
		"path", path,
		"error", cause,
	)
	return &ContentError{Kind: kind, Op: op, Path: path, Message: msg, Err: cause}
}

// IsNotFound reports whether err is a NotFound content failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
