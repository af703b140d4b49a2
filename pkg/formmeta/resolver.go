package formmeta

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
)

// downloadChunkSize is the buffer size used when spooling a remote media
// body into memory.
const downloadChunkSize = 1024

// ResolveMedia rewrites a URI-valued media record into a locally-backed
// one: the body is fetched, buffered, stored under the attachment key
// derived from the URI's final path segment, and the record's value becomes
// that filename. Returns (nil, nil) when the value is not a valid absolute
// URL; transport failures are returned to the caller.
func (s *service) ResolveMedia(ctx context.Context, form Form, md *MetaData) (*MetaData, error) {
	if !IsValidURL(md.Value) {
		return nil, nil
	}
	if s.fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured")
	}

	segments := strings.Split(md.Value, "/")
	filename := segments[len(segments)-1]

	body, err := s.fetcher.Fetch(ctx, md.Value)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var buf bytes.Buffer
	if _, err := io.CopyBuffer(&buf, body, make([]byte, downloadChunkSize)); err != nil {
		return nil, err
	}

	md.Value = filename
	if err := s.attachFile(ctx, md, form.Username, &File{Name: filename, Reader: &buf}); err != nil {
		return nil, err
	}
	if md.ID != 0 {
		if err := s.save(ctx, md); err != nil {
			return nil, err
		}
	}
	return md, nil
}

// MediaResources resolves a media listing. Records that already carry a
// file are passed through unchanged. When download is requested, file-less
// records are resolved; a record whose value is not a valid URL is dropped
// from the result, and a record whose fetch fails is logged and dropped
// rather than aborting the rest of the listing.
func (s *service) MediaResources(ctx context.Context, form Form, media []*MetaData, download bool) ([]*MetaData, error) {
	var out []*MetaData
	for _, md := range media {
		if !md.HasFile() && download {
			resolved, err := s.ResolveMedia(ctx, form, md)
			if err != nil {
				s.logger.Error("resolve media", "id", md.ID, "value", md.Value, "error", err)
				continue
			}
			if resolved != nil {
				out = append(out, resolved)
			}
			continue
		}
		out = append(out, md)
	}
	return out, nil
}
