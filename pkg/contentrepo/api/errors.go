package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/content-repository/pkg/contentrepo"
)

// ErrorResponse is the response body for a failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

var statusByKind = []struct {
	kind   error
	status int
}{
	{contentrepo.ErrNotFound, http.StatusNotFound},
	{contentrepo.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{contentrepo.ErrEmptyFile, http.StatusBadRequest},
	{contentrepo.ErrInvalidImageType, http.StatusUnsupportedMediaType},
	{contentrepo.ErrInvalidEntityType, http.StatusBadRequest},
	{contentrepo.ErrInvalidPath, http.StatusBadRequest},
	{contentrepo.ErrEmptyNamespace, http.StatusBadRequest},
}

// StatusForError maps a content error to an HTTP status code
func StatusForError(err error) int {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	for _, m := range statusByKind {
		if errors.Is(err, m.kind) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

func kindOf(err error) string {
	var ce *contentrepo.ContentError
	if errors.As(err, &ce) && ce.Kind != nil {
		return ce.Kind.Error()
	}
	return ""
}

// writeError logs the failure and renders it as JSON
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := StatusForError(err)
	h.logger.Error(msg,
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)

	body := ErrorResponse{Error: err.Error(), Kind: kindOf(err)}
	if status == http.StatusInternalServerError {
		body.Error = http.StatusText(status)
	}
	render.Status(r, status)
	render.JSON(w, r, body)
}

// badRequest renders a 400 for malformed request parameters
func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	h.logger.Error("Bad request", "method", r.Method, "path", r.URL.Path, "reason", msg)
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{Error: msg})
}
