package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/voicetyped/composer/internal/composer"
	"github.com/voicetyped/composer/pkg/events"
	"github.com/voicetyped/composer/pkg/lg"
	"github.com/voicetyped/composer/pkg/templatestore"
)

const maxRequestBodySize = 4 << 20 // 4 MiB

// Handler provides REST endpoints for templates and action copies.
type Handler struct {
	svc *composer.Service
}

// NewHandler creates a new composer API handler.
func NewHandler(svc *composer.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers all composer API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/containers/{container}/templates", h.ListTemplates)
	mux.HandleFunc("PUT /api/v1/containers/{container}/templates/{name}", h.PutTemplate)
	mux.HandleFunc("DELETE /api/v1/containers/{container}/templates/{name}", h.DeleteTemplate)
	mux.HandleFunc("GET /api/v1/containers/{container}/lg", h.ExportLG)
	mux.HandleFunc("POST /api/v1/containers/{container}/actions/copy", h.CopyAction)
	mux.HandleFunc("POST /api/v1/containers/{container}/actions/delete", h.DeleteAction)
	mux.HandleFunc("POST /api/v1/template-refs", h.TemplateRefs)
	mux.HandleFunc("GET /api/v1/dialogs", h.ListDialogs)
	mux.HandleFunc("GET /api/v1/dialogs/lint", h.LintDialogs)
	mux.HandleFunc("GET /api/v1/events", h.StreamEvents)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeServiceError maps service and store errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, composer.ErrInvalidAction):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, composer.ErrDialogNotFound),
		errors.Is(err, composer.ErrActionNotFound),
		errors.Is(err, composer.ErrNoDialogs),
		errors.Is(err, templatestore.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, templatestore.ErrCircuitOpen):
		writeError(w, http.StatusServiceUnavailable, "template store unavailable")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// ListTemplates handles GET /api/v1/containers/{container}/templates
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.svc.Store().ListTemplates(r.Context(), r.PathValue("container"))
	if err != nil {
		writeServiceError(w, err, "failed to list templates")
		return
	}

	resp := make([]TemplateResponse, 0, len(templates))
	for _, t := range templates {
		resp = append(resp, TemplateResponse{Name: t.Name, Body: t.Body})
	}
	writeJSON(w, http.StatusOK, resp)
}

// PutTemplate handles PUT /api/v1/containers/{container}/templates/{name}
func (h *Handler) PutTemplate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if _, ok := lg.ParseTemplateRef("[" + name + "]"); !ok {
		writeError(w, http.StatusBadRequest, "invalid template name")
		return
	}

	var req PutTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.PutTemplate(r.Context(), r.PathValue("container"), name, req.Body); err != nil {
		writeServiceError(w, err, "failed to save template")
		return
	}
	writeJSON(w, http.StatusOK, TemplateResponse{Name: name, Body: req.Body})
}

// DeleteTemplate handles DELETE /api/v1/containers/{container}/templates/{name}
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteTemplates(r.Context(), r.PathValue("container"), []string{r.PathValue("name")})
	if err != nil {
		writeServiceError(w, err, "failed to delete template")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportLG handles GET /api/v1/containers/{container}/lg
func (h *Handler) ExportLG(w http.ResponseWriter, r *http.Request) {
	container := r.PathValue("container")
	templates, err := h.svc.Store().ListTemplates(r.Context(), container)
	if err != nil {
		writeServiceError(w, err, "failed to list templates")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := templatestore.FormatLGFile(w, templates); err != nil {
		slog.WarnContext(r.Context(), "lg export write failed",
			slog.String("container", container),
			slog.String("error", err.Error()))
	}
}

// CopyAction handles POST /api/v1/containers/{container}/actions/copy
func (h *Handler) CopyAction(w http.ResponseWriter, r *http.Request) {
	var req CopyActionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	container := r.PathValue("container")
	var (
		res composer.CopyResult
		err error
	)
	switch {
	case req.Dialog != "":
		if req.DesignerID == "" {
			writeError(w, http.StatusBadRequest, "designer_id is required with dialog")
			return
		}
		res, err = h.svc.CopyDialogAction(r.Context(), container, req.Dialog, req.DesignerID)
	case req.Action != nil:
		res, err = h.svc.CopyAction(r.Context(), container, req.Action)
	default:
		writeError(w, http.StatusBadRequest, "action or dialog is required")
		return
	}
	if err != nil {
		writeServiceError(w, err, "failed to copy action")
		return
	}
	writeJSON(w, http.StatusOK, CopyActionResponse{Action: res.Action, Forked: res.Forked})
}

// DeleteAction handles POST /api/v1/containers/{container}/actions/delete
func (h *Handler) DeleteAction(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	deleted, err := h.svc.DeleteAction(r.Context(), r.PathValue("container"), req.Action)
	if err != nil {
		writeServiceError(w, err, "failed to delete action templates")
		return
	}
	if deleted == nil {
		deleted = []string{}
	}
	writeJSON(w, http.StatusOK, DeleteActionResponse{Deleted: deleted})
}

// TemplateRefs handles POST /api/v1/template-refs
func (h *Handler) TemplateRefs(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	refs := h.svc.TemplateRefs(req.Action)
	if refs == nil {
		refs = []string{}
	}
	writeJSON(w, http.StatusOK, TemplateRefsResponse{Templates: refs})
}

// ListDialogs handles GET /api/v1/dialogs
func (h *Handler) ListDialogs(w http.ResponseWriter, r *http.Request) {
	loader := h.svc.Loader()
	if loader == nil {
		writeJSON(w, http.StatusOK, DialogsResponse{Dialogs: []string{}})
		return
	}
	writeJSON(w, http.StatusOK, DialogsResponse{Dialogs: loader.Names()})
}

// LintDialogs handles GET /api/v1/dialogs/lint
func (h *Handler) LintDialogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LintResponse{Gaps: h.svc.LintDialogs(r.Context())})
}

// StreamEvents handles GET /api/v1/events as a server-sent event stream of
// this instance's events. Repeated type parameters filter by event type.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	pub := h.svc.Publisher()
	if pub == nil {
		writeError(w, http.StatusServiceUnavailable, "event publisher not configured")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	allowed := make(map[events.EventType]bool)
	for _, t := range r.URL.Query()["type"] {
		allowed[events.EventType(t)] = true
	}

	subID := xid.New().String()
	eventCh := pub.Subscribe(subID, 128)
	defer pub.Unsubscribe(subID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case env, ok := <-eventCh:
			if !ok {
				return
			}
			if len(allowed) > 0 && !allowed[env.Type] {
				continue
			}
			data, err := json.Marshal(env)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", env.Type, data)
			flusher.Flush()
		}
	}
}
