package web

import (
	"database/sql"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/pvann/faultline/internal/config"
	"github.com/pvann/faultline/internal/errors"
	"github.com/pvann/faultline/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// HandleList handles GET /events: list stored events.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	platform := r.URL.Query().Get("platform")

	result, err := ops.List(r.Context(), h.db, ops.ListInput{
		Platform: platform,
		Limit:    parseIntParam(r, "limit", 20),
		Offset:   parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	items := make([]dbEventRow, 0, len(result.Items))
	for _, s := range result.Items {
		items = append(items, dbEventRow{
			ID:         s.ID,
			Platform:   s.Platform,
			Message:    s.Message,
			FrameCount: s.FrameCount,
			Received:   s.Received,
		})
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Events",
			Version: h.renderer.version,
			Nav:     "events",
		},
		Items:      items,
		Pagination: result.Pagination,
		Platform:   platform,
	})
}

// HandleDetail handles GET /events/{id}: event overview with its frame list.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("event ID is required"))
		return
	}

	fetched, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	frames, err := ops.Frames(r.Context(), h.db, ops.FramesInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	annotations := make([]template.HTML, 0, len(fetched.Event.Annotations))
	for _, note := range fetched.Event.Annotations {
		annotations = append(annotations, renderMarkdown(note))
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   displayTitle(fetched.Event.Message, fetched.Event.ID),
			Version: h.renderer.version,
			Nav:     "events",
		},
		EventID:     fetched.Event.ID,
		Platform:    fetched.Event.Platform,
		Message:     fetched.Event.Message,
		Mobile:      frames.Mobile,
		Annotations: annotations,
		Frames:      frames.Frames,
	})
}

// HandleFrame handles GET /events/{id}/frames/{index}: the htmx partial
// carrying one frame's rendered diagnostic panels. The expanded query flag
// toggles the full context window.
func (h *Handlers) HandleFrame(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("frame index must be an integer"))
		return
	}

	expanded := parseBoolParam(r, "expanded")
	result, err := ops.RenderFrame(r.Context(), h.db, h.cfg, ops.RenderFrameInput{
		ID:            id,
		FrameIndex:    index,
		Expanded:      expanded,
		HasComponents: true,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderBlock(w, http.StatusOK, "frame", "frame-panels", FramePartialData{
		EventID:    id,
		FrameIndex: index,
		Expanded:   expanded,
		Mode:       string(result.Mode),
		Panels:     result.Rendered,
		HasLinks:   len(result.Links) > 0,
	})
}

// HandleFrameLinks handles GET /events/{id}/frames/{index}/links: the JSON
// poll endpoint the frame partial uses to pick up resolved source links.
func (h *Handlers) HandleFrameLinks(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("frame index must be an integer"))
		return
	}

	result, err := ops.RenderFrame(r.Context(), h.db, h.cfg, ops.RenderFrameInput{
		ID:            id,
		FrameIndex:    index,
		Expanded:      parseBoolParam(r, "expanded"),
		HasComponents: true,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{
		"id":          id,
		"frame_index": index,
		"links":       result.Links,
	})
}

// HandleResolve handles POST /events/{id}/frames/{index}/resolve: kick off
// the frame's source-link lookups.
func (h *Handlers) HandleResolve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("frame index must be an integer"))
		return
	}

	result, err := ops.ResolveLinks(r.Context(), h.db, h.cfg, ops.ResolveLinksInput{
		ID:            id,
		FrameIndex:    index,
		Expanded:      parseBoolParam(r, "expanded"),
		HasComponents: true,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, result)
}

// HandleDelete handles DELETE /events/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("event ID is required"))
		return
	}

	result, err := ops.Delete(r.Context(), h.db, ops.DeleteInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: redirect via HX-Redirect header
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/events")
		w.WriteHeader(http.StatusOK)
		return
	}

	// JSON request
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{
			"deleted": result.Deleted,
			"id":      result.ID,
		})
		return
	}

	// Default: redirect
	http.Redirect(w, r, "/events", http.StatusFound)
}

// HandlePurge handles POST /events/purge: delete events past a given age.
func (h *Handlers) HandlePurge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	days, err := strconv.Atoi(r.FormValue("older_than_days"))
	if err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("older_than_days must be an integer"))
		return
	}

	result, err := ops.Purge(r.Context(), h.db, ops.PurgeInput{OlderThanDays: days})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: return HTML fragment
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<div class="purge-result">purged ` + strconv.Itoa(result.Purged) + ` events</div>`))
		return
	}

	// JSON request
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{"purged": result.Purged})
		return
	}

	// Default: redirect
	http.Redirect(w, r, "/events", http.StatusFound)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// displayTitle returns the event message if present, or a truncated ID.
func displayTitle(message, id string) string {
	if message != "" {
		return message
	}
	if len(id) > 10 {
		return id[:10] + "..."
	}
	return id
}
