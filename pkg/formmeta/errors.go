package formmeta

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrMetaDataNotFound indicates a metadata record was not found
	ErrMetaDataNotFound = errors.New("metadata not found")

	// ErrDuplicateMetaData indicates an insert collided with an existing
	// (form, kind, value) record
	ErrDuplicateMetaData = errors.New("duplicate metadata")

	// ErrStorageBackendNotFound indicates a storage backend was not found
	ErrStorageBackendNotFound = errors.New("storage backend not found")

	// ErrNoAttachedFile indicates a hash was requested for a record with no
	// attached file; the digest is simply not computed
	ErrNoAttachedFile = errors.New("no attached file")

	// ErrFileUnreadable indicates the attached file's byte stream could not
	// be opened or rewound; the digest is not computed and not cached
	ErrFileUnreadable = errors.New("attached file unreadable")

	// ErrCorruptValue indicates a stored composite value could not be
	// decoded (fewer fields than the canonical key order expects)
	ErrCorruptValue = errors.New("corrupt stored value")

	// ErrInvalidKind indicates an unknown metadata kind
	ErrInvalidKind = errors.New("invalid metadata kind")
)

// MetaDataError represents an error related to metadata operations
type MetaDataError struct {
	ID  int64
	Op  string
	Err error
}

func (e *MetaDataError) Error() string {
	return fmt.Sprintf("metadata operation %s failed for record %d: %v", e.Op, e.ID, e.Err)
}

func (e *MetaDataError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to blob storage operations
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
