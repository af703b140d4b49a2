package formmeta

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"

	"github.com/google/uuid"
)

// DefaultAllowedMediaTypes is the default allow-list for media uploads.
func DefaultAllowedMediaTypes() []string {
	return []string{
		"image/jpeg",
		"image/png",
		"audio/mp3",
		"audio/mpeg",
		"video/3gpp",
		"video/mp4",
		"text/csv",
		"application/zip",
	}
}

// DefaultMapboxLayerKeys is the default canonical key order for
// mapbox_layer values.
func DefaultMapboxLayerKeys() []string {
	return []string{"map_name", "link", "attribution"}
}

// service implements the Service interface
type service struct {
	repo              Repository
	blobStore         BlobStore
	fetcher           Fetcher
	logger            *slog.Logger
	allowedMediaTypes map[string]struct{}
	mapboxLayerKeys   []string
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the metadata repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repo = repo
	}
}

// WithBlobStore sets the attachment storage backend
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithFetcher sets the remote-media fetcher
func WithFetcher(f Fetcher) Option {
	return func(s *service) {
		s.fetcher = f
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithAllowedMediaTypes sets the media upload content-type allow-list
func WithAllowedMediaTypes(types ...string) Option {
	return func(s *service) {
		s.allowedMediaTypes = make(map[string]struct{}, len(types))
		for _, t := range types {
			s.allowedMediaTypes[t] = struct{}{}
		}
	}
}

// WithMapboxLayerKeys sets the canonical key order for mapbox_layer values
func WithMapboxLayerKeys(keys ...string) Option {
	return func(s *service) {
		s.mapboxLayerKeys = keys
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.allowedMediaTypes == nil {
		WithAllowedMediaTypes(DefaultAllowedMediaTypes()...)(s)
	}
	if len(s.mapboxLayerKeys) == 0 {
		s.mapboxLayerKeys = DefaultMapboxLayerKeys()
	}

	return s, nil
}

// upsert restores the one-record-per-(form, kind, value) invariant for
// single-instance kinds: the newest matching record is the mutation
// target, and a missing match builds a new record. Older duplicates are
// stale residue and are never touched. Passing neither value nor file is
// a no-op that still returns the located or newly built (unsaved) record.
func (s *service) upsert(ctx context.Context, form Form, kind Kind, value string, file *File) (*MetaData, error) {
	matches, err := s.repo.ListMetaDataByFormAndKind(ctx, form.ID, kind)
	if err != nil {
		return nil, err
	}

	var md *MetaData
	if len(matches) == 0 {
		md = &MetaData{FormID: form.ID, Kind: kind}
	} else {
		md = matches[0]
	}

	modified := false
	if value != "" {
		md.Value = value
		modified = true
	}
	if file != nil {
		if md.Value == "" {
			md.Value = file.Name
		}
		if err := s.attachFile(ctx, md, form.Username, file); err != nil {
			return nil, err
		}
		modified = true
	}

	if modified {
		if err := s.save(ctx, md); err != nil {
			return nil, err
		}
	}
	return md, nil
}

// save creates the record when it has no id yet, otherwise updates it.
func (s *service) save(ctx context.Context, md *MetaData) error {
	if md.ID == 0 {
		if err := s.repo.CreateMetaData(ctx, md); err != nil {
			return &MetaDataError{ID: md.ID, Op: "create", Err: err}
		}
		return nil
	}
	if err := s.repo.UpdateMetaData(ctx, md); err != nil {
		return &MetaDataError{ID: md.ID, Op: "update", Err: err}
	}
	return nil
}

// countingReader counts bytes as they stream through to the blob store.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// attachFile streams the file into the blob store, hashing and counting
// along the way so the digest and size are set without a second read.
func (s *service) attachFile(ctx context.Context, md *MetaData, username string, file *File) error {
	contentType := file.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(file.Name))
	}

	key := AttachmentKey(username, md.Kind, file.Name)
	hasher := md5.New()
	counter := &countingReader{r: io.TeeReader(file.Reader, hasher)}

	if err := s.blobStore.UploadWithParams(ctx, counter, UploadParams{ObjectKey: key, MimeType: contentType}); err != nil {
		return &StorageError{Key: key, Op: "upload", Err: err}
	}

	md.FileKey = key
	md.FileName = file.Name
	md.FileType = contentType
	md.FileSize = counter.n
	md.FileHash = fmt.Sprintf("md5:%x", hasher.Sum(nil))
	return nil
}

// Single-instance operations

func (s *service) PublicLink(ctx context.Context, form Form, set *bool) (bool, error) {
	value := ""
	if set != nil {
		if *set {
			value = BoolTextTrue
		} else {
			value = BoolTextFalse
		}
	}
	md, err := s.upsert(ctx, form, KindPublicLink, value, nil)
	if err != nil {
		return false, err
	}
	return md.Value == BoolTextTrue, nil
}

func (s *service) FormLicense(ctx context.Context, form Form, value string) (*MetaData, error) {
	return s.upsert(ctx, form, KindFormLicense, value, nil)
}

func (s *service) DataLicense(ctx context.Context, form Form, value string) (*MetaData, error) {
	return s.upsert(ctx, form, KindDataLicense, value, nil)
}

func (s *service) Source(ctx context.Context, form Form, value string, file *File) (*MetaData, error) {
	return s.upsert(ctx, form, KindSource, value, file)
}

func (s *service) MapboxLayer(ctx context.Context, form Form, fields map[string]string) (*MapboxLayer, error) {
	value := ""
	if fields != nil {
		value = EncodeFields(fields, s.mapboxLayerKeys)
	}
	md, err := s.upsert(ctx, form, KindMapboxLayer, value, nil)
	if err != nil {
		return nil, err
	}
	if md.Value == "" {
		return nil, nil
	}
	decoded, err := DecodeFields(md.Value, s.mapboxLayerKeys)
	if err != nil {
		// The stored value can no longer be deserialized. Log and return
		// nothing instead of failing the caller; the value can still be
		// overwritten by a later write.
		s.logger.Error("cannot decode mapbox layer value", "id", md.ID, "error", err)
		return nil, nil
	}
	return &MapboxLayer{ID: md.ID, Fields: decoded}, nil
}

// Multi-instance operations

func (s *service) SupportingDocs(ctx context.Context, form Form, file *File) ([]*MetaData, error) {
	if file != nil {
		doc := &MetaData{FormID: form.ID, Kind: KindSupportingDoc, Value: file.Name}
		if err := s.attachFile(ctx, doc, form.Username, file); err != nil {
			return nil, err
		}
		if err := s.save(ctx, doc); err != nil {
			return nil, err
		}
	}
	return s.repo.ListMetaDataByFormAndKind(ctx, form.ID, KindSupportingDoc)
}

func (s *service) MediaUpload(ctx context.Context, form Form, file *File, download bool) ([]*MetaData, error) {
	if file != nil {
		contentType := file.ContentType
		if _, ok := s.allowedMediaTypes[contentType]; !ok {
			contentType = mime.TypeByExtension(path.Ext(file.Name))
		}
		if _, ok := s.allowedMediaTypes[contentType]; ok {
			media := &MetaData{FormID: form.ID, Kind: KindMedia, Value: file.Name}
			attach := &File{Name: file.Name, ContentType: contentType, Reader: file.Reader}
			if err := s.attachFile(ctx, media, form.Username, attach); err != nil {
				return nil, err
			}
			if err := s.save(ctx, media); err != nil {
				return nil, err
			}
		} else {
			s.logger.Info("media upload rejected", "form_id", form.ID, "file", file.Name, "content_type", file.ContentType)
		}
	}
	media, err := s.repo.ListMetaDataByFormAndKind(ctx, form.ID, KindMedia)
	if err != nil {
		return nil, err
	}
	return s.MediaResources(ctx, form, media, download)
}

func (s *service) MediaAddURI(ctx context.Context, form Form, uri string) (*MetaData, error) {
	if !IsValidURL(uri) {
		return nil, nil
	}
	media := &MetaData{FormID: form.ID, Kind: KindMedia, Value: uri}
	if err := s.save(ctx, media); err != nil {
		return nil, err
	}
	return media, nil
}

func (s *service) ExternalExport(ctx context.Context, form Form, value string) (*MetaData, error) {
	if value == "" {
		return nil, nil
	}
	export := &MetaData{FormID: form.ID, Kind: KindExternalExport, Value: value}
	if err := s.save(ctx, export); err != nil {
		return nil, err
	}
	return export, nil
}

// Listings and record access

func (s *service) MetadataForForm(ctx context.Context, formID uuid.UUID) ([]*MetaData, error) {
	return s.repo.ListMetaDataByForm(ctx, formID)
}

func (s *service) MetadataByKind(ctx context.Context, formID uuid.UUID, kind Kind) ([]*MetaData, error) {
	return s.repo.ListMetaDataByFormAndKind(ctx, formID, kind)
}

func (s *service) GetMetaData(ctx context.Context, id int64) (*MetaData, error) {
	return s.repo.GetMetaData(ctx, id)
}

func (s *service) DeleteMetaData(ctx context.Context, id int64) error {
	md, err := s.repo.GetMetaData(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteMetaData(ctx, id); err != nil {
		return &MetaDataError{ID: id, Op: "delete", Err: err}
	}
	if md.HasFile() {
		if err := s.blobStore.Delete(ctx, md.FileKey); err != nil {
			// The record is gone; an orphaned blob is not worth failing over.
			s.logger.Warn("delete attachment", "key", md.FileKey, "error", err)
		}
	}
	return nil
}

func (s *service) OpenAttachment(ctx context.Context, md *MetaData) (io.ReadCloser, error) {
	if !md.HasFile() {
		return nil, ErrNoAttachedFile
	}
	rc, err := s.blobStore.Download(ctx, md.FileKey)
	if err != nil {
		return nil, &StorageError{Key: md.FileKey, Op: "download", Err: err}
	}
	return rc, nil
}
