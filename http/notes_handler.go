package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/noteapp/noteapp"
	icontext "github.com/noteapp/noteapp/context"
	"github.com/noteapp/noteapp/kit/errors"
	"go.uber.org/zap"
)

const (
	PrefixNotes   = "/api/notes"
	PrefixPublish = "/api/publish"
	PrefixMigrate = "/api/migrate"
)

// NotesHandler exposes the note lifecycle over HTTP.
type NotesHandler struct {
	chi.Router
	api      *API
	log      *zap.Logger
	noteSvc  noteapp.NoteService
	auditSvc noteapp.AuditService
	signals  SignalDispatcher
}

// NewNotesHandler constructs a new http handler for notes.
func NewNotesHandler(log *zap.Logger, noteSvc noteapp.NoteService, auditSvc noteapp.AuditService, signals SignalDispatcher) *NotesHandler {
	if signals == nil {
		signals = NopSignalDispatcher{}
	}
	h := &NotesHandler{
		api:      NewAPI(WithLog(log)),
		log:      log,
		noteSvc:  noteSvc,
		auditSvc: auditSvc,
		signals:  signals,
	}

	r := chi.NewRouter()
	r.Route("/", func(r chi.Router) {
		r.Post("/", h.handlePostNote)
		r.Get("/", h.handleGetNotes)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetNote)
			r.Put("/", h.handlePutNote)
			r.Delete("/", h.handleDeleteNote)
		})
	})

	h.Router = r
	return h
}

// PublishRouter returns the routes mounted under PrefixPublish.
func (h *NotesHandler) PublishRouter() chi.Router {
	r := chi.NewRouter()
	r.Route("/{id}", func(r chi.Router) {
		r.Post("/", h.handlePublishNote)
		r.Delete("/", h.handleUnpublishNote)
	})
	return r
}

// MigrateRouter returns the routes mounted under PrefixMigrate.
func (h *NotesHandler) MigrateRouter() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleMigrate)
	return r
}

type noteResponse struct {
	ID        string           `json:"id"`
	Date      string           `json:"date"`
	Title     string           `json:"title"`
	Slug      string           `json:"slug"`
	Published bool             `json:"published"`
	Content   string           `json:"content,omitempty"`
	Data      noteapp.NoteData `json:"data,omitempty"`
}

func newNoteResponse(n *noteapp.Note, data noteapp.NoteData, content string) noteResponse {
	var date string
	if !n.Date.IsZero() {
		date = n.Date.Format(time.RFC3339)
	}
	return noteResponse{
		ID:        n.ID,
		Date:      date,
		Title:     n.Title,
		Slug:      n.Slug,
		Published: n.Published,
		Content:   content,
		Data:      data,
	}
}

type notesResponse struct {
	Notes []noteResponse `json:"notes"`
}

func (h *NotesHandler) handleGetNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := icontext.GetIdentity(ctx)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	notes, data, err := h.noteSvc.FindNotes(ctx, identity.TenantID)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	resp := notesResponse{Notes: make([]noteResponse, 0, len(notes))}
	for _, n := range notes {
		resp.Notes = append(resp.Notes, newNoteResponse(n, data[n.ID], ""))
	}
	h.api.Respond(w, r, http.StatusOK, resp)
}

func (h *NotesHandler) handleGetNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := icontext.GetIdentity(ctx)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	n, data, content, err := h.noteSvc.FindNote(ctx, identity.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		h.api.Err(w, r, err)
		return
	}
	h.api.Respond(w, r, http.StatusOK, newNoteResponse(n, data, content))
}

func (h *NotesHandler) handlePostNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := icontext.GetIdentity(ctx)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	var req noteapp.NoteCreate
	if err := h.api.DecodeJSON(r, &req); err != nil {
		h.api.Err(w, r, err)
		return
	}

	n, err := h.noteSvc.CreateNote(ctx, identity.TenantID, req)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	h.audit(ctx, identity, "create-note", fmt.Sprintf("Note %s created", n.ID))
	h.api.Respond(w, r, http.StatusCreated, newNoteResponse(n, req.Data, ""))
}

func (h *NotesHandler) handlePutNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := icontext.GetIdentity(ctx)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	var req noteapp.NoteUpdate
	if err := h.api.DecodeJSON(r, &req); err != nil {
		h.api.Err(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	n, err := h.noteSvc.UpdateNote(ctx, identity.TenantID, id, req)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	h.audit(ctx, identity, "edit-note", fmt.Sprintf("Note %s updated", n.ID))
	h.api.Respond(w, r, http.StatusOK, newNoteResponse(n, req.Data, ""))
}

func (h *NotesHandler) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := icontext.GetIdentity(ctx)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.noteSvc.DeleteNote(ctx, identity.TenantID, id); err != nil {
		h.api.Err(w, r, err)
		return
	}

	h.audit(ctx, identity, "delete-note", fmt.Sprintf("Note %s deleted", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotesHandler) handlePublishNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := icontext.GetIdentity(ctx)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	format := noteapp.PublishFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = noteapp.PublishFormatFile
	}

	var date time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			h.api.Err(w, r, &errors.Error{
				Code: errors.EInvalid,
				Msg:  "invalid date parameter",
				Err:  err,
			})
			return
		}
	}

	id := chi.URLParam(r, "id")
	n, err := h.noteSvc.PublishNote(ctx, identity.TenantID, id, format, date)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	h.audit(ctx, identity, "publish-note", fmt.Sprintf("Note %s published", n.ID))
	h.signals.Dispatch(ctx, Signal{
		Kind:     SignalPublish,
		TenantID: identity.TenantID,
		ID:       n.ID,
		Date:     n.Date,
	})
	h.api.Respond(w, r, http.StatusOK, newNoteResponse(n, nil, ""))
}

func (h *NotesHandler) handleUnpublishNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := icontext.GetIdentity(ctx)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	n, err := h.noteSvc.UnpublishNote(ctx, identity.TenantID, id)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	h.audit(ctx, identity, "unpublish-note", fmt.Sprintf("Note %s unpublished", n.ID))
	h.signals.Dispatch(ctx, Signal{
		Kind:     SignalUnpublish,
		TenantID: identity.TenantID,
		ID:       n.ID,
	})
	h.api.Respond(w, r, http.StatusOK, newNoteResponse(n, nil, ""))
}

type migrateResponse struct {
	Signals []migratedSignal `json:"signals"`
}

type migratedSignal struct {
	NoteID string `json:"noteId"`
	Date   string `json:"date"`
}

func (h *NotesHandler) handleMigrate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, err := icontext.GetIdentity(ctx)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	opts := noteapp.MigrateOptions{
		Published:            r.URL.Query().Get("published") == "true",
		ContainerReplacement: r.URL.Query().Get("containerReplacement"),
	}

	signals, err := h.noteSvc.Migrate(ctx, identity.TenantID, opts)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	resp := migrateResponse{Signals: make([]migratedSignal, 0, len(signals))}
	for _, s := range signals {
		h.signals.Dispatch(ctx, Signal{
			Kind:     SignalPublish,
			TenantID: identity.TenantID,
			ID:       s.NoteID,
			Date:     s.Date,
		})
		resp.Signals = append(resp.Signals, migratedSignal{
			NoteID: s.NoteID,
			Date:   s.Date.Format(time.RFC3339),
		})
	}

	h.audit(ctx, identity, "migrate", fmt.Sprintf("Migrated notes for tenant %s", identity.TenantID))
	h.api.Respond(w, r, http.StatusOK, resp)
}

func (h *NotesHandler) audit(ctx context.Context, identity *noteapp.Identity, action, message string) {
	if h.auditSvc == nil {
		return
	}
	h.auditSvc.Record(ctx, noteapp.AuditRecord{
		TenantID: identity.TenantID,
		Email:    identity.Email,
		Action:   action,
		Message:  message,
	})
}
