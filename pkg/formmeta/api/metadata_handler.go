// Package api exposes the formmeta service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-metadata/pkg/formmeta"
)

// maxUploadBytes bounds multipart attachment parsing.
const maxUploadBytes = 32 << 20

// MetadataHandler handles form metadata API endpoints
type MetadataHandler struct {
	service formmeta.Service
	auth    *jwtauth.JWTAuth
}

// NewMetadataHandler creates a metadata handler. A non-empty jwtSecret
// enables bearer-token verification on every route.
func NewMetadataHandler(service formmeta.Service, jwtSecret string) *MetadataHandler {
	h := &MetadataHandler{service: service}
	if jwtSecret != "" {
		h.auth = jwtauth.New("HS256", []byte(jwtSecret), nil)
	}
	return h
}

// Routes returns the router for metadata endpoints
func (h *MetadataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	if h.auth != nil {
		r.Use(jwtauth.Verifier(h.auth))
		r.Use(jwtauth.Authenticator)
	}

	r.Route("/forms/{form_id}", func(r chi.Router) {
		r.Get("/metadata", h.ListMetadata)
		r.Put("/license", h.SetFormLicense)
		r.Put("/data-license", h.SetDataLicense)
		r.Get("/public-link", h.GetPublicLink)
		r.Put("/public-link", h.SetPublicLink)
		r.Put("/source", h.SetSource)
		r.Get("/docs", h.ListSupportingDocs)
		r.Post("/docs", h.UploadSupportingDoc)
		r.Get("/media", h.ListMedia)
		r.Post("/media", h.UploadMedia)
		r.Post("/media-uri", h.AddMediaURI)
		r.Get("/mapbox-layer", h.GetMapboxLayer)
		r.Put("/mapbox-layer", h.SetMapboxLayer)
		r.Get("/external-exports", h.ListExternalExports)
		r.Post("/external-exports", h.CreateExternalExport)
	})

	r.Route("/metadata/{id}", func(r chi.Router) {
		r.Get("/hash", h.GetFileHash)
		r.Get("/file", h.DownloadAttachment)
		r.Delete("/", h.DeleteMetadata)
	})

	return r
}

// formFromRequest extracts the owning form from the path and query. The
// username query parameter feeds the attachment key convention on write
// paths.
func formFromRequest(r *http.Request) (formmeta.Form, error) {
	formID, err := uuid.Parse(chi.URLParam(r, "form_id"))
	if err != nil {
		return formmeta.Form{}, err
	}
	return formmeta.Form{
		ID:       formID,
		Username: r.URL.Query().Get("username"),
	}, nil
}

func recordIDFromRequest(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// ValueRequest carries a plain string value write
type ValueRequest struct {
	Value string `json:"value"`
}

// BoolRequest carries a boolean value write
type BoolRequest struct {
	Value bool `json:"value"`
}

// FieldsRequest carries a composite field-map write
type FieldsRequest struct {
	Fields map[string]string `json:"fields"`
}

// PublicLinkResponse reports the public-link flag
type PublicLinkResponse struct {
	Public bool `json:"public"`
}

// HashResponse reports a record's content digest
type HashResponse struct {
	ID   int64  `json:"id"`
	Hash string `json:"hash"`
}

func (h *MetadataHandler) ListMetadata(w http.ResponseWriter, r *http.Request) {
	formID, err := uuid.Parse(chi.URLParam(r, "form_id"))
	if err != nil {
		http.Error(w, "Invalid form ID", http.StatusBadRequest)
		return
	}

	metadata, err := h.service.MetadataForForm(r.Context(), formID)
	if err != nil {
		slog.Error("Failed to list metadata", "form_id", formID, "error", err)
		http.Error(w, "Failed to list metadata", http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, metadata)
}

// setValue handles the shared shape of single-instance free-text writes.
func (h *MetadataHandler) setValue(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, form formmeta.Form, value string) (*formmeta.MetaData, error)) {

	form, err := formFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid form ID", http.StatusBadRequest)
		return
	}

	var req ValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	md, err := op(r.Context(), form, req.Value)
	if err != nil {
		slog.Error("Failed to set metadata value", "form_id", form.ID, "error", err)
		http.Error(w, "Failed to set metadata value", http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, md)
}

func (h *MetadataHandler) SetFormLicense(w http.ResponseWriter, r *http.Request) {
	h.setValue(w, r, h.service.FormLicense)
}

func (h *MetadataHandler) SetDataLicense(w http.ResponseWriter, r *http.Request) {
	h.setValue(w, r, h.service.DataLicense)
}

func (h *MetadataHandler) GetPublicLink(w http.ResponseWriter, r *http.Request) {
	form, err := formFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid form ID", http.StatusBadRequest)
		return
	}

	public, err := h.service.PublicLink(r.Context(), form, nil)
	if err != nil {
		slog.Error("Failed to read public link", "form_id", form.ID, "error", err)
		http.Error(w, "Failed to read public link", http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, PublicLinkResponse{Public: public})
}

func (h *MetadataHandler) SetPublicLink(w http.ResponseWriter, r *http.Request) {
	form, err := formFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid form ID", http.StatusBadRequest)
		return
	}

	var req BoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	public, err := h.service.PublicLink(r.Context(), form, &req.Value)
	if err != nil {
		slog.Error("Failed to set public link", "form_id", form.ID, "error", err)
		http.Error(w, "Failed to set public link", http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, PublicLinkResponse{Public: public})
}

// SetSource accepts either a JSON value body or a multipart file upload.
func (h *MetadataHandler) SetSource(w http.ResponseWriter, r *http.Request) {
	form, err := formFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid form ID", http.StatusBadRequest)
		return
	}

	if isMultipart(r) {
		file, err := multipartFile(r)
		if err != nil {
			slog.Error("Failed to read multipart upload", "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		md, err := h.service.Source(r.Context(), form, "", file)
		if err != nil {
			slog.Error("Failed to set source", "form_id", form.ID, "error", err)
			http.Error(w, "Failed to set source", http.StatusInternalServerError)
			return
		}
		render.JSON(w, r, md)
		return
	}

	var req ValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	md, err := h.service.Source(r.Context(), form, req.Value, nil)
	if err != nil {
		slog.Error("Failed to set source", "form_id", form.ID, "error", err)
		http.Error(w, "Failed to set source", http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, md)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// multipartFile extracts the "file" part from a multipart request.
func multipartFile(r *http.Request) (*formmeta.File, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, err
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New("file part is required")
	}

	return &formmeta.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      part,
	}, nil
}

func (h *MetadataHandler) ListSupportingDocs(w http.ResponseWriter, r *http.Request) {
	form, err := formFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid form ID", http.StatusBadRequest)
		return
	}

	docs, err := h.service.SupportingDocs(r.Context(), form, nil)
	if err != nil {
		slog.Error("Failed to list docs", "form_id", form.ID, "error", err)
		http.Error(w, "Failed to list docs", http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, docs)
}

func (h *MetadataHandler) UploadSupportingDoc(w http.ResponseWriter, r *http.Request) {
	form, err := formFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid form ID", http.StatusBadRequest)
		return
	}

	if !isMultipart(r) {
		http.Error(w, "multipart upload required", http.StatusBadRequest)
		return
	}
	file, err := multipartFile(r)
	if err != nil {
		slog.Error("Failed to read multipart upload", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	docs, err := h.service.SupportingDocs(r.Context(), form, file)
	if err != nil {
		slog.Error("Failed to upload doc", "form_id", form.ID, "error", err)
		http.Error(w, "Failed to upload doc", http.StatusInternalServerError)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, docs)
}

func (h *MetadataHandler) ListMedia(w http.ResponseWriter, r *http.Request) {
	form, err := formFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid form ID", http.StatusBadRequest)
		return
	}

	download := r.URL.Query().Get("download") == "true"

	media, err := h.service.MediaUpload(r.Context(), form, nil, download)
	if err != nil {
		slog.Error("Failed to list media", "form_id", form.ID, "error", err)
		http.Error(w, "Failed to list media", http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, media)
}

func (h *MetadataHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	form, err := formFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid form ID", http.StatusBadRequest)
		return
	}

	if !isMultipart(r) {
		http.Error(w, "multipart upload required", http.StatusBadRequest)
		return
	}
	file, err := multipartFile(r)
	if err != nil {
		slog.Error("Failed to read multipart upload", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	download := r.URL.Query().Get("download") == "true"

	media, err := h.service.MediaUpload(r.Context(), form, file, download)
	if err != nil {
		slog.Error("Failed to upload media", "form_id", form.ID, "error", err)
		http.Error(w, "Failed to upload media", http.StatusInternalServerError)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, media)
}

func (h *MetadataHandler) AddMediaURI(w http.ResponseWriter, r *http.Request) {
	form, err := formFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid form ID", http.StatusBadRequest)
		return
	}

	var req ValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	md, err := h.service.MediaAddURI(r.Context(), form, req.Value)
	if err != nil {
		slog.Error("Failed to add media URI", "form_id", form.ID, "error", err)
		http.Error(w, "Failed to add media URI", http.StatusInternalServerError)
		return
	}
	if md == nil {
		// Invalid URL; nothing was created.
		http.Error(w, "invalid URL", http.StatusUnprocessableEntity)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, md)
}

func (h *MetadataHandler) GetMapboxLayer(w http.ResponseWriter, r *http.Request) {
	form, err := formFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid form ID", http.StatusBadRequest)
		return
	}

	layer, err := h.service.MapboxLayer(r.Context(), form, nil)
	if err != nil {
		slog.Error("Failed to read mapbox layer", "form_id", form.ID, "error", err)
		http.Error(w, "Failed to read mapbox layer", http.StatusInternalServerError)
		return
	}
	if layer == nil {
		http.Error(w, "mapbox layer not set", http.StatusNotFound)
		return
	}

	render.JSON(w, r, layer)
}

func (h *MetadataHandler) SetMapboxLayer(w http.ResponseWriter, r *http.Request) {
	form, err := formFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid form ID", http.StatusBadRequest)
		return
	}

	var req FieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Fields == nil {
		req.Fields = map[string]string{}
	}

	layer, err := h.service.MapboxLayer(r.Context(), form, req.Fields)
	if err != nil {
		slog.Error("Failed to set mapbox layer", "form_id", form.ID, "error", err)
		http.Error(w, "Failed to set mapbox layer", http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, layer)
}

// ExternalExportResponse includes the parsed halves of an export value
type ExternalExportResponse struct {
	*formmeta.MetaData
	Name     string `json:"name"`
	URL      string `json:"url"`
	Template string `json:"template"`
}

func externalExportResponse(md *formmeta.MetaData) ExternalExportResponse {
	return ExternalExportResponse{
		MetaData: md,
		Name:     md.ExportName(),
		URL:      md.ExportURL(),
		Template: md.ExportTemplate(),
	}
}

func (h *MetadataHandler) ListExternalExports(w http.ResponseWriter, r *http.Request) {
	formID, err := uuid.Parse(chi.URLParam(r, "form_id"))
	if err != nil {
		http.Error(w, "Invalid form ID", http.StatusBadRequest)
		return
	}

	metadata, err := h.service.MetadataForForm(r.Context(), formID)
	if err != nil {
		slog.Error("Failed to list metadata", "form_id", formID, "error", err)
		http.Error(w, "Failed to list metadata", http.StatusInternalServerError)
		return
	}

	exports := formmeta.ExternalExports(metadata)
	resp := make([]ExternalExportResponse, 0, len(exports))
	for _, md := range exports {
		resp = append(resp, externalExportResponse(md))
	}

	render.JSON(w, r, resp)
}

func (h *MetadataHandler) CreateExternalExport(w http.ResponseWriter, r *http.Request) {
	form, err := formFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid form ID", http.StatusBadRequest)
		return
	}

	var req ValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Value == "" {
		http.Error(w, "value is required", http.StatusBadRequest)
		return
	}

	md, err := h.service.ExternalExport(r.Context(), form, req.Value)
	if err != nil {
		slog.Error("Failed to create export", "form_id", form.ID, "error", err)
		http.Error(w, "Failed to create export", http.StatusInternalServerError)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, externalExportResponse(md))
}

func (h *MetadataHandler) GetFileHash(w http.ResponseWriter, r *http.Request) {
	id, err := recordIDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid metadata ID", http.StatusBadRequest)
		return
	}

	md, err := h.service.GetMetaData(r.Context(), id)
	if err != nil {
		if errors.Is(err, formmeta.ErrMetaDataNotFound) {
			http.Error(w, "metadata not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to get metadata", "id", id, "error", err)
		http.Error(w, "Failed to get metadata", http.StatusInternalServerError)
		return
	}

	hash, err := h.service.FileHash(r.Context(), md)
	if err != nil && !errors.Is(err, formmeta.ErrNoAttachedFile) && !errors.Is(err, formmeta.ErrFileUnreadable) {
		slog.Error("Failed to compute hash", "id", id, "error", err)
		http.Error(w, "Failed to compute hash", http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, HashResponse{ID: id, Hash: hash})
}

func (h *MetadataHandler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := recordIDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid metadata ID", http.StatusBadRequest)
		return
	}

	md, err := h.service.GetMetaData(r.Context(), id)
	if err != nil {
		if errors.Is(err, formmeta.ErrMetaDataNotFound) {
			http.Error(w, "metadata not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to get metadata", "id", id, "error", err)
		http.Error(w, "Failed to get metadata", http.StatusInternalServerError)
		return
	}

	rc, err := h.service.OpenAttachment(r.Context(), md)
	if err != nil {
		if errors.Is(err, formmeta.ErrNoAttachedFile) {
			http.Error(w, "no attached file", http.StatusNotFound)
			return
		}
		slog.Error("Failed to open attachment", "id", id, "error", err)
		http.Error(w, "Failed to open attachment", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	if md.FileType != "" {
		w.Header().Set("Content-Type", md.FileType)
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\""+md.FileName+"\"")
	if _, err := io.Copy(w, rc); err != nil {
		slog.Error("Failed to stream attachment", "id", id, "error", err)
	}
}

func (h *MetadataHandler) DeleteMetadata(w http.ResponseWriter, r *http.Request) {
	id, err := recordIDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid metadata ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteMetaData(r.Context(), id); err != nil {
		if errors.Is(err, formmeta.ErrMetaDataNotFound) {
			http.Error(w, "metadata not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to delete metadata", "id", id, "error", err)
		http.Error(w, "Failed to delete metadata", http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, map[string]string{"status": "deleted"})
}
