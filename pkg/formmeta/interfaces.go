package formmeta

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Repository defines the interface for metadata persistence.
//
// Listings are ordered by id descending (newest first); the upsert path
// relies on that ordering to pick its mutation target.
type Repository interface {
	// CreateMetaData persists a new record and assigns its id.
	CreateMetaData(ctx context.Context, md *MetaData) error

	// UpdateMetaData persists changes to an existing record.
	UpdateMetaData(ctx context.Context, md *MetaData) error

	// GetMetaData returns a record by id.
	GetMetaData(ctx context.Context, id int64) (*MetaData, error)

	// ListMetaDataByFormAndKind returns all records for (form, kind),
	// newest first.
	ListMetaDataByFormAndKind(ctx context.Context, formID uuid.UUID, kind Kind) ([]*MetaData, error)

	// ListMetaDataByForm returns all records for a form, newest first.
	ListMetaDataByForm(ctx context.Context, formID uuid.UUID) ([]*MetaData, error)

	// DeleteMetaData removes a record by id.
	DeleteMetaData(ctx context.Context, id int64) error
}

// BlobStore defines the interface for attachment storage backends
type BlobStore interface {
	// Upload stores content under the given object key
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams stores content with additional parameters
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Exists reports whether an object is present under the key
	Exists(ctx context.Context, objectKey string) (bool, error)

	// Download returns the object's byte stream
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes the object
	Delete(ctx context.Context, objectKey string) error
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}

// Fetcher retrieves the body of a remote URI. Implementations are expected
// to impose a timeout and to treat non-success responses as errors.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (io.ReadCloser, error)
}
