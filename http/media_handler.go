package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/noteapp/noteapp"
	icontext "github.com/noteapp/noteapp/context"
	"github.com/noteapp/noteapp/kit/errors"
	"go.uber.org/zap"
)

const PrefixMedia = "/api/media"

// maxMediaBytes caps a single media upload.
const maxMediaBytes = 32 << 20

// MediaHandler exposes media item management over HTTP.
type MediaHandler struct {
	chi.Router
	api      *API
	log      *zap.Logger
	mediaSvc noteapp.MediaService
	auditSvc noteapp.AuditService
	signals  SignalDispatcher
}

// NewMediaHandler constructs a new http handler for media items.
func NewMediaHandler(log *zap.Logger, mediaSvc noteapp.MediaService, auditSvc noteapp.AuditService, signals SignalDispatcher) *MediaHandler {
	if signals == nil {
		signals = NopSignalDispatcher{}
	}
	h := &MediaHandler{
		api:      NewAPI(WithLog(log)),
		log:      log,
		mediaSvc: mediaSvc,
		auditSvc: auditSvc,
		signals:  signals,
	}

	r := chi.NewRouter()
	r.Route("/", func(r chi.Router) {
		r.Get("/", h.handleGetMedia)
		r.Post("/", h.handlePostMedia)
		r.Delete("/{id}", h.handleDeleteMedia)
	})

	h.Router = r
	return h
}

type mediaResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BlobURI string `json:"blobUri"`
}

func newMediaResponse(m *noteapp.MediaItem) mediaResponse {
	return mediaResponse{
		ID:      m.ID,
		Name:    m.Name,
		BlobURI: m.BlobURI,
	}
}

func (h *MediaHandler) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := icontext.GetIdentity(ctx)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	items, err := h.mediaSvc.FindMedia(ctx, identity.TenantID)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	resp := struct {
		Media []mediaResponse `json:"media"`
	}{Media: make([]mediaResponse, 0, len(items))}
	for _, m := range items {
		resp.Media = append(resp.Media, newMediaResponse(m))
	}
	h.api.Respond(w, r, http.StatusOK, resp)
}

// handlePostMedia uploads the request body as a media item. The file name is
// taken from the name query parameter.
func (h *MediaHandler) handlePostMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := icontext.GetIdentity(ctx)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		h.api.Err(w, r, &errors.Error{
			Code: errors.EInvalid,
			Msg:  "name parameter required",
		})
		return
	}

	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMediaBytes))
	if err != nil {
		h.api.Err(w, r, &errors.Error{
			Code: errors.EInvalid,
			Msg:  "unable to read request body",
			Err:  err,
		})
		return
	}

	m, err := h.mediaSvc.CreateMedia(ctx, identity.TenantID, name, content)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	if h.auditSvc != nil {
		h.auditSvc.Record(ctx, noteapp.AuditRecord{
			TenantID: identity.TenantID,
			Email:    identity.Email,
			Action:   "create-media",
			Message:  fmt.Sprintf("Media %s uploaded", m.Name),
		})
	}
	h.signals.Dispatch(ctx, Signal{
		Kind:     SignalMediaUpload,
		TenantID: identity.TenantID,
		ID:       m.ID,
	})
	h.api.Respond(w, r, http.StatusCreated, newMediaResponse(m))
}

func (h *MediaHandler) handleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := icontext.GetIdentity(ctx)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.mediaSvc.DeleteMedia(ctx, identity.TenantID, id); err != nil {
		h.api.Err(w, r, err)
		return
	}

	if h.auditSvc != nil {
		h.auditSvc.Record(ctx, noteapp.AuditRecord{
			TenantID: identity.TenantID,
			Email:    identity.Email,
			Action:   "delete-media",
			Message:  fmt.Sprintf("Media %s deleted", id),
		})
	}
	w.WriteHeader(http.StatusNoContent)
}
