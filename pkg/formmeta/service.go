package formmeta

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service defines the main interface for the simple-metadata library.
//
// Write operations take the owning Form (not just its id) because the
// attachment key convention is rooted at the owner's username.
type Service interface {
	// Single-instance operations
	PublicLink(ctx context.Context, form Form, set *bool) (bool, error)
	FormLicense(ctx context.Context, form Form, value string) (*MetaData, error)
	DataLicense(ctx context.Context, form Form, value string) (*MetaData, error)
	Source(ctx context.Context, form Form, value string, file *File) (*MetaData, error)
	MapboxLayer(ctx context.Context, form Form, fields map[string]string) (*MapboxLayer, error)

	// Multi-instance operations
	SupportingDocs(ctx context.Context, form Form, file *File) ([]*MetaData, error)
	MediaUpload(ctx context.Context, form Form, file *File, download bool) ([]*MetaData, error)
	MediaAddURI(ctx context.Context, form Form, uri string) (*MetaData, error)
	ExternalExport(ctx context.Context, form Form, value string) (*MetaData, error)

	// Media resolution
	MediaResources(ctx context.Context, form Form, media []*MetaData, download bool) ([]*MetaData, error)
	ResolveMedia(ctx context.Context, form Form, md *MetaData) (*MetaData, error)

	// Listings and record access
	MetadataForForm(ctx context.Context, formID uuid.UUID) ([]*MetaData, error)
	MetadataByKind(ctx context.Context, formID uuid.UUID, kind Kind) ([]*MetaData, error)
	GetMetaData(ctx context.Context, id int64) (*MetaData, error)
	DeleteMetaData(ctx context.Context, id int64) error

	// Attachments
	FileHash(ctx context.Context, md *MetaData) (string, error)
	OpenAttachment(ctx context.Context, md *MetaData) (io.ReadCloser, error)
}

// MapboxLayer is the decoded form of a mapbox_layer record.
type MapboxLayer struct {
	ID     int64             `json:"id"`
	Fields map[string]string `json:"fields"`
}

// ExternalExports filters a prefetched form listing down to its
// external_export records. The export read path operates on an
// already-fetched list rather than issuing its own query.
func ExternalExports(metadata []*MetaData) []*MetaData {
	return FilterKind(metadata, KindExternalExport)
}
