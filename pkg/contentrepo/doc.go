// Package contentrepo stores documents and entity images for a multi-tenant
// platform behind a pluggable byte storage backend.
//
// A Repository validates uploads (size, emptiness, image MIME type), assigns
// each one a logical path and writes it through a StorageBackend. Backends for
// the local filesystem, memory, Amazon S3 and MinIO live under storage/.
// Every call takes an explicit namespace; HTTP callers derive it from the
// tenant with NamespaceFromContext.
//
// Path Layout
//
// Documents are written to documents/{parentEntityType}/{parentEntityId}/{token}
// where token is random, so repeated uploads never collide. Images are written
// to images/clients/{resourceId}/{imageName} and a second upload with the same
// name replaces the first.
//
// Errors
//
// Failures are returned as *ContentError. Use errors.Is with the Err* kinds
// (ErrNotFound, ErrFileTooLarge, ...) to classify them; the underlying cause,
// when there is one, is also reachable through errors.Is and errors.As.
//
// Fetching is lazy: FetchDocument and FetchImage return descriptors and the
// backend is only read when Open or Bytes is called. Resized image variants
// are produced by the imaging subpackage.
package contentrepo
