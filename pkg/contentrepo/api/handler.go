package api

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/content-repository/pkg/contentrepo"
	"github.com/tendant/content-repository/pkg/contentrepo/imaging"
)

// Image output modes of GET /images
const (
	OutputOctet       = "octet"
	OutputInlineOctet = "inline_octet"
)

// base64ImageName is the stored name of images uploaded as data URLs
const base64ImageName = "image"

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files
const multipartMemory = 32 << 20

// LocationResponse is the response body for a stored document or image
type LocationResponse struct {
	Location string `json:"location"`
}

// Handler exposes a content repository over HTTP
type Handler struct {
	repo        contentrepo.ContentRepository
	resizer     *imaging.Resizer
	validator   *contentrepo.Validator
	maxFileSize int64
	logger      *slog.Logger
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithLogger sets the handler logger
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithMaxFileSize sets the upload limit used to bound request bodies
func WithMaxFileSize(maxBytes int64) HandlerOption {
	return func(h *Handler) {
		h.validator = contentrepo.NewValidator(maxBytes)
		h.maxFileSize = h.validator.MaxFileSize
	}
}

// NewHandler creates a new content handler
func NewHandler(repo contentrepo.ContentRepository, resizer *imaging.Resizer, options ...HandlerOption) *Handler {
	h := &Handler{
		repo:        repo,
		resizer:     resizer,
		validator:   contentrepo.NewValidator(contentrepo.DefaultMaxFileSize),
		maxFileSize: contentrepo.DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, option := range options {
		option(h)
	}
	if h.resizer == nil {
		h.resizer = imaging.NewResizer(h.logger)
	}
	return h
}

// Routes returns the document and image routes. Requests must pass through
// TenantMiddleware first.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/documents", func(r chi.Router) {
		r.Post("/{entityType}/{entityID}", h.CreateDocument)
		r.Get("/", h.GetDocument)
		r.Delete("/", h.DeleteDocument)
	})

	r.Route("/images", func(r chi.Router) {
		r.Post("/{entityType}/{entityID}", h.SaveImage)
		r.Put("/{entityType}/{entityID}", h.SaveImage)
		r.Get("/", h.GetImage)
		r.Delete("/", h.DeleteImage)
	})

	return r
}

// CreateDocument stores a multipart "file" upload for an entity
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	ns, err := contentrepo.NamespaceFromContext(r.Context())
	if err != nil {
		h.writeError(w, r, "Failed to resolve tenant", err)
		return
	}

	entityType := chi.URLParam(r, "entityType")
	entityID, err := strconv.ParseInt(chi.URLParam(r, "entityID"), 10, 64)
	if err != nil {
		h.badRequest(w, r, "Invalid entity ID")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.requestLimit())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.writeError(w, r, "Failed to parse upload", uploadError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, "Missing file", contentrepo.NewError(contentrepo.ErrEmptyFile, "save document", "", err.Error()))
		return
	}
	defer file.Close()

	location, err := h.repo.SaveDocument(r.Context(), ns, contentrepo.SaveDocumentRequest{
		Reader:           file,
		ParentEntityType: entityType,
		ParentEntityID:   entityID,
		Size:             header.Size,
		FileName:         header.Filename,
	})
	if err != nil {
		h.writeError(w, r, "Failed to save document", err)
		return
	}

	h.logger.Info("Document saved", "namespace", ns, "location", location)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, LocationResponse{Location: location})
}

// GetDocument streams a stored document as an attachment
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	ns, err := contentrepo.NamespaceFromContext(r.Context())
	if err != nil {
		h.writeError(w, r, "Failed to resolve tenant", err)
		return
	}

	location := r.URL.Query().Get("location")
	if location == "" {
		h.badRequest(w, r, "location is required")
		return
	}

	fileName := r.URL.Query().Get("fileName")
	if fileName == "" {
		fileName = path.Base(location)
	}
	contentType := r.URL.Query().Get("contentType")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc := h.repo.FetchDocument(ns, location, fileName, contentType)
	rc, err := doc.Open(r.Context())
	if err != nil {
		h.writeError(w, r, "Failed to read document", err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", doc.ContentType())
	w.Header().Set("Content-Disposition", contentDisposition("attachment", doc.FileName()))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Error("Failed to stream document", "location", location, "error", err)
	}
}

// DeleteDocument removes a stored document
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	ns, err := contentrepo.NamespaceFromContext(r.Context())
	if err != nil {
		h.writeError(w, r, "Failed to resolve tenant", err)
		return
	}

	location := r.URL.Query().Get("location")
	if location == "" {
		h.badRequest(w, r, "location is required")
		return
	}

	if err := h.repo.DeleteDocument(r.Context(), ns, location); err != nil {
		h.writeError(w, r, "Failed to delete document", err)
		return
	}

	h.logger.Info("Document deleted", "namespace", ns, "location", location)
	w.WriteHeader(http.StatusNoContent)
}

// SaveImage stores an entity image sent either as a multipart "file" or as
// a data URL request body
func (h *Handler) SaveImage(w http.ResponseWriter, r *http.Request) {
	ns, err := contentrepo.NamespaceFromContext(r.Context())
	if err != nil {
		h.writeError(w, r, "Failed to resolve tenant", err)
		return
	}

	entityType := chi.URLParam(r, "entityType")
	if err := h.validator.CheckImageEntityType(entityType); err != nil {
		h.writeError(w, r, "Invalid entity type", err)
		return
	}
	entityID, err := strconv.ParseInt(chi.URLParam(r, "entityID"), 10, 64)
	if err != nil {
		h.badRequest(w, r, "Invalid entity ID")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.requestLimit())

	var location string
	if isMultipart(r) {
		location, err = h.saveMultipartImage(r, ns, entityID)
	} else {
		location, err = h.saveDataURLImage(r, ns, entityID)
	}
	if err != nil {
		h.writeError(w, r, "Failed to save image", err)
		return
	}

	h.logger.Info("Image saved", "namespace", ns, "location", location)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, LocationResponse{Location: location})
}

func (h *Handler) saveMultipartImage(r *http.Request, ns string, entityID int64) (string, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return "", uploadError(err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", contentrepo.NewError(contentrepo.ErrEmptyFile, "save image", "", err.Error())
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = contentrepo.ImageFileExtensionFromName(header.Filename).MIMEType()
	}

	return h.repo.SaveImage(r.Context(), ns, contentrepo.SaveImageRequest{
		Reader:     file,
		ResourceID: entityID,
		ImageName:  header.Filename,
		Size:       header.Size,
		MimeType:   mimeType,
	})
}

func (h *Handler) saveDataURLImage(r *http.Request, ns string, entityID int64) (string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", uploadError(err)
	}

	image, err := contentrepo.ExtractImageFromDataURL(string(body))
	if err != nil {
		return "", err
	}

	return h.repo.SaveImageBase64(r.Context(), ns, image, entityID, base64ImageName)
}

// GetImage serves a stored image, optionally resized. The default output is
// a data URL; output=octet and output=inline_octet stream the bytes.
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	ns, err := contentrepo.NamespaceFromContext(r.Context())
	if err != nil {
		h.writeError(w, r, "Failed to resolve tenant", err)
		return
	}

	q := r.URL.Query()
	location := q.Get("location")
	if location == "" {
		h.badRequest(w, r, "location is required")
		return
	}

	maxWidth, err := optionalInt(q.Get("maxWidth"))
	if err != nil {
		h.badRequest(w, r, "Invalid maxWidth")
		return
	}
	maxHeight, err := optionalInt(q.Get("maxHeight"))
	if err != nil {
		h.badRequest(w, r, "Invalid maxHeight")
		return
	}

	displayName := q.Get("name")
	if displayName == "" {
		displayName = path.Base(location)
	}

	image := h.repo.FetchImage(ns, location, displayName)
	resized, err := h.resizer.Resize(r.Context(), image, maxWidth, maxHeight)
	if err != nil {
		h.writeError(w, r, "Failed to read image", err)
		return
	}

	output := q.Get("output")
	switch output {
	case OutputOctet, OutputInlineOctet:
		data, err := resized.Bytes(r.Context())
		if err != nil {
			h.writeError(w, r, "Failed to read image", err)
			return
		}
		disposition := "attachment"
		if output == OutputInlineOctet {
			disposition = "inline"
		}
		w.Header().Set("Content-Type", resized.ContentType())
		w.Header().Set("Content-Disposition", contentDisposition(disposition, resized.DisplayName()))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			h.logger.Error("Failed to stream image", "location", location, "error", err)
		}
	default:
		dataURL, err := h.resizer.DataURL(r.Context(), resized)
		if err != nil {
			h.writeError(w, r, "Failed to read image", err)
			return
		}
		render.PlainText(w, r, dataURL)
	}
}

// DeleteImage removes a stored image
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	ns, err := contentrepo.NamespaceFromContext(r.Context())
	if err != nil {
		h.writeError(w, r, "Failed to resolve tenant", err)
		return
	}

	location := r.URL.Query().Get("location")
	if location == "" {
		h.badRequest(w, r, "location is required")
		return
	}

	if err := h.repo.DeleteImage(r.Context(), ns, location); err != nil {
		h.writeError(w, r, "Failed to delete image", err)
		return
	}

	h.logger.Info("Image deleted", "namespace", ns, "location", location)
	w.WriteHeader(http.StatusNoContent)
}

// requestLimit bounds request bodies: a data URL of a maximum-size image is
// about a third larger than the image, plus room for multipart framing.
func (h *Handler) requestLimit() int64 {
	return h.maxFileSize/3*4 + 64<<10
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

// uploadError classifies a request body failure
func uploadError(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) || strings.Contains(err.Error(), "request body too large") {
		return &contentrepo.ContentError{
			Kind:    contentrepo.ErrFileTooLarge,
			Op:      "upload",
			Message: "request body exceeds the upload limit",
			Err:     err,
		}
	}
	return contentrepo.NewError(contentrepo.ErrEmptyFile, "upload", "", err.Error())
}

func optionalInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func contentDisposition(kind, fileName string) string {
	return mime.FormatMediaType(kind, map[string]string{"filename": fileName})
}
