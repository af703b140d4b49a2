package formmeta

import (
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is the domain type for metadata categories. The kind determines the
// shape of a record's value and whether the (form, kind) pair is
// single-instance (later writes mutate the newest record) or multi-instance
// (each write appends a new record).
type Kind string

// Metadata kind constants (typed).
const (
	KindFormLicense    Kind = "form_license"
	KindDataLicense    Kind = "data_license"
	KindPublicLink     Kind = "public_link"
	KindSource         Kind = "source"
	KindSupportingDoc  Kind = "supporting_doc"
	KindMedia          Kind = "media"
	KindMapboxLayer    Kind = "mapbox_layer"
	KindExternalExport Kind = "external_export"
)

// SingleInstance reports whether the kind keeps at most one authoritative
// record per form. Multi-instance kinds append a record per write and
// listings return the full set ordered by recency.
func (k Kind) SingleInstance() bool {
	switch k {
	case KindSupportingDoc, KindMedia, KindExternalExport:
		return false
	}
	return true
}

// Valid reports whether k is one of the known metadata kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindFormLicense, KindDataLicense, KindPublicLink, KindSource,
		KindSupportingDoc, KindMedia, KindMapboxLayer, KindExternalExport:
		return true
	}
	return false
}

// Boolean text encoding used by public_link values.
const (
	BoolTextTrue  = "True"
	BoolTextFalse = "False"
)

// Form identifies the owning entity a metadata record is attached to. The
// username feeds the attachment key convention; records themselves carry
// only the form id.
type Form struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// MetaData is a single typed metadata record attached to a form.
//
// ID is assigned by the repository on creation and doubles as the recency
// tie-break: when duplicate (form, kind, value) records exist, the record
// with the highest id is authoritative.
type MetaData struct {
	ID     int64     `json:"id"`
	FormID uuid.UUID `json:"form_id"`
	Kind   Kind      `json:"kind"`
	Value  string    `json:"value"`

	// Attachment fields; empty FileKey means no file is attached.
	FileKey  string `json:"file_key,omitempty"`
	FileName string `json:"file_name,omitempty"`
	FileType string `json:"file_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`

	// FileHash caches the content-identity digest ("md5:<hex>"). Empty
	// means not yet computed.
	FileHash string `json:"file_hash,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasFile reports whether a file is attached to the record.
func (m *MetaData) HasFile() bool {
	return m.FileKey != ""
}

// External-export values are stored as "<name>|<url>".

// ExportName returns the name half of an external_export value, or "" when
// the value has no separator.
func (m *MetaData) ExportName() string {
	name, _, ok := strings.Cut(m.Value, "|")
	if !ok {
		return ""
	}
	return name
}

// ExportURL returns the url half of an external_export value, or "" when
// the value has no separator.
func (m *MetaData) ExportURL() string {
	_, url, ok := strings.Cut(m.Value, "|")
	if !ok {
		return ""
	}
	return url
}

// ExportTemplate derives the template path from the export url by replacing
// every occurrence of "xls" with "templates".
func (m *MetaData) ExportTemplate() string {
	url := m.ExportURL()
	if url == "" {
		return ""
	}
	return strings.ReplaceAll(url, "xls", "templates")
}

// File is an attachment supplied to a write operation. ContentType is the
// declared MIME type; it may be empty, in which case it is inferred from
// the file name where a decision requires it.
type File struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// FilterKind filters a prefetched metadata list down to one kind,
// preserving order. Used by read paths that operate on an already-loaded
// form listing instead of querying the repository again.
func FilterKind(metadata []*MetaData, kind Kind) []*MetaData {
	var out []*MetaData
	for _, m := range metadata {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}
