package formmeta

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
)

// FileHash returns the record's content-identity digest, formatted as
// "md5:<hex>".
//
// The digest is cached on the record; a cached value is returned without
// touching storage. A record with no attached file yields ErrNoAttachedFile
// (not computed, not a failure). A stream that cannot be read yields
// ErrFileUnreadable and nothing is cached.
func (s *service) FileHash(ctx context.Context, md *MetaData) (string, error) {
	if md.FileHash != "" {
		return md.FileHash, nil
	}
	if !md.HasFile() {
		return "", ErrNoAttachedFile
	}

	exists, err := s.blobStore.Exists(ctx, md.FileKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFileUnreadable, err)
	}
	if !exists {
		return "", fmt.Errorf("%w: object %s missing", ErrFileUnreadable, md.FileKey)
	}

	rc, err := s.blobStore.Download(ctx, md.FileKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFileUnreadable, err)
	}
	defer rc.Close()

	hasher := md5.New()
	if _, err := io.Copy(hasher, rc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFileUnreadable, err)
	}

	md.FileHash = fmt.Sprintf("md5:%x", hasher.Sum(nil))
	if md.ID != 0 {
		if err := s.repo.UpdateMetaData(ctx, md); err != nil {
			// The digest is still valid for this call; only the cache write
			// failed.
			s.logger.Warn("cache file hash", "id", md.ID, "error", err)
		}
	}
	return md.FileHash, nil
}
