package web

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/pvann/faultline/internal/config"
	"github.com/pvann/faultline/internal/db"
	"github.com/pvann/faultline/internal/ops"
)

const validEventJSON = `{
	"platform": "javascript",
	"annotations": ["Seen on the **checkout** page."],
	"exception": {"values": [{
		"type": "TypeError",
		"value": "cart is undefined",
		"stacktrace": {"frames": [
			{"function": "renderCart", "filename": "app/cart.js", "in_app": true, "lineno": 31,
			 "pre_context": ["const cart = load();"], "context_line": "cart.total();", "post_context": ["return html;"]}
		]}
	}]}
}`

func setupTest(t *testing.T) *Handlers {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		t.Fatalf("template sub-FS: %v", err)
	}
	renderer := NewRenderer(templateSub, "test")

	return &Handlers{
		db:       database,
		cfg:      cfg,
		renderer: renderer,
	}
}

// seedEvent ingests an event and returns its ID.
func seedEvent(t *testing.T, h *Handlers) string {
	t.Helper()
	out, err := ops.Ingest(context.Background(), h.db, h.cfg, ops.IngestInput{
		EventJSON: []byte(validEventJSON),
	})
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return out.ID
}

// --- HandleList ---

func TestHandleList_Default(t *testing.T) {
	h := setupTest(t)
	id := seedEvent(t, h)

	req := httptest.NewRequest("GET", "/events", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, id) {
		t.Error("expected event ID in response")
	}
	if !strings.Contains(body, "cart is undefined") {
		t.Error("expected event message in response")
	}
}

func TestHandleList_WithPlatformFilter(t *testing.T) {
	h := setupTest(t)
	seedEvent(t, h)

	req := httptest.NewRequest("GET", "/events?platform=cocoa", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "cart is undefined") {
		t.Error("did not expect javascript event in cocoa-filtered results")
	}
}

func TestHandleList_Empty(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/events", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No events stored yet") {
		t.Error("expected empty-state message")
	}
}

func TestHandleList_HtmxReturnsContentOnly(t *testing.T) {
	h := setupTest(t)
	seedEvent(t, h)

	req := httptest.NewRequest("GET", "/events", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	body := rec.Body.String()
	if strings.Contains(body, "<!DOCTYPE html>") {
		t.Error("htmx response should not include the full layout")
	}
	if !strings.Contains(body, "Events") {
		t.Error("expected content block in htmx response")
	}
}

// --- HandleDetail ---

func TestHandleDetail_Found(t *testing.T) {
	h := setupTest(t)
	id := seedEvent(t, h)

	req := httptest.NewRequest("GET", "/events/"+id, nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.HandleDetail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "renderCart") {
		t.Error("expected frame function in detail page")
	}
	// Annotation markdown rendered to HTML
	if !strings.Contains(body, "<strong>checkout</strong>") {
		t.Error("expected rendered annotation markdown")
	}
}

func TestHandleDetail_NotFound(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/events/NONEXISTENT", nil)
	req.SetPathValue("id", "NONEXISTENT")
	rec := httptest.NewRecorder()
	h.HandleDetail(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleDetail_EmptyID(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/events/", nil)
	req.SetPathValue("id", "")
	rec := httptest.NewRecorder()
	h.HandleDetail(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// --- HandleFrame ---

func TestHandleFrame_ExpandedPartial(t *testing.T) {
	h := setupTest(t)
	id := seedEvent(t, h)

	req := httptest.NewRequest("GET", "/events/"+id+"/frames/0?expanded=true", nil)
	req.SetPathValue("id", id)
	req.SetPathValue("index", "0")
	rec := httptest.NewRecorder()
	h.HandleFrame(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<!DOCTYPE html>") {
		t.Error("frame partial should not include the layout")
	}
	if !strings.Contains(body, "cart.total();") {
		t.Error("expected active context line in partial")
	}
	if !strings.Contains(body, `data-mode="standard"`) {
		t.Error("expected standard mode marker")
	}
	if strings.Contains(body, "Expand context") {
		t.Error("expanded partial should not offer an expand button")
	}
}

func TestHandleFrame_CollapsedOffersExpand(t *testing.T) {
	h := setupTest(t)
	id := seedEvent(t, h)

	req := httptest.NewRequest("GET", "/events/"+id+"/frames/0", nil)
	req.SetPathValue("id", id)
	req.SetPathValue("index", "0")
	rec := httptest.NewRecorder()
	h.HandleFrame(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "Expand context") {
		t.Error("collapsed partial should offer an expand button")
	}
	if strings.Contains(body, "const cart = load();") {
		t.Error("collapsed partial should only show the active line")
	}
}

func TestHandleFrame_BadIndex(t *testing.T) {
	h := setupTest(t)
	id := seedEvent(t, h)

	req := httptest.NewRequest("GET", "/events/"+id+"/frames/abc", nil)
	req.SetPathValue("id", id)
	req.SetPathValue("index", "abc")
	rec := httptest.NewRecorder()
	h.HandleFrame(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleFrame_OutOfRange(t *testing.T) {
	h := setupTest(t)
	id := seedEvent(t, h)

	req := httptest.NewRequest("GET", "/events/"+id+"/frames/9", nil)
	req.SetPathValue("id", id)
	req.SetPathValue("index", "9")
	rec := httptest.NewRecorder()
	h.HandleFrame(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// --- HandleFrameLinks ---

func TestHandleFrameLinks_JSON(t *testing.T) {
	h := setupTest(t)
	id := seedEvent(t, h)

	req := httptest.NewRequest("GET", "/events/"+id+"/frames/0/links?expanded=true", nil)
	req.SetPathValue("id", id)
	req.SetPathValue("index", "0")
	rec := httptest.NewRecorder()
	h.HandleFrameLinks(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("Content-Type = %q, want JSON", ct)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload["id"] != id {
		t.Errorf("id = %v, want %v", payload["id"], id)
	}
}

// --- HandleResolve ---

func TestHandleResolve_NoEndpointSkips(t *testing.T) {
	h := setupTest(t)
	id := seedEvent(t, h)

	req := httptest.NewRequest("POST", "/events/"+id+"/frames/0/resolve", nil)
	req.SetPathValue("id", id)
	req.SetPathValue("index", "0")
	rec := httptest.NewRecorder()
	h.HandleResolve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload["skipped"] != true {
		t.Errorf("skipped = %v, want true", payload["skipped"])
	}
}

// --- HandleDelete ---

func TestHandleDelete_HtmxRequest(t *testing.T) {
	h := setupTest(t)
	id := seedEvent(t, h)

	req := httptest.NewRequest("DELETE", "/events/"+id, nil)
	req.SetPathValue("id", id)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("HX-Redirect") != "/events" {
		t.Errorf("HX-Redirect = %q, want /events", rec.Header().Get("HX-Redirect"))
	}
}

func TestHandleDelete_JSONRequest(t *testing.T) {
	h := setupTest(t)
	id := seedEvent(t, h)

	req := httptest.NewRequest("DELETE", "/events/"+id, nil)
	req.SetPathValue("id", id)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload["deleted"] != true {
		t.Errorf("deleted = %v, want true", payload["deleted"])
	}
}

func TestHandleDelete_DefaultRedirect(t *testing.T) {
	h := setupTest(t)
	id := seedEvent(t, h)

	req := httptest.NewRequest("DELETE", "/events/"+id, nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/events" {
		t.Errorf("Location = %q, want /events", loc)
	}
}

func TestHandleDelete_NotFound(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("DELETE", "/events/NONEXISTENT", nil)
	req.SetPathValue("id", "NONEXISTENT")
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// --- HandlePurge ---

func TestHandlePurge_MissingConfirm(t *testing.T) {
	h := setupTest(t)

	form := url.Values{"older_than_days": {"7"}}
	req := httptest.NewRequest("POST", "/events/purge", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.HandlePurge(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlePurge_JSONResponse(t *testing.T) {
	h := setupTest(t)
	seedEvent(t, h)

	form := url.Values{"confirm": {"true"}, "older_than_days": {"7"}}
	req := httptest.NewRequest("POST", "/events/purge", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.HandlePurge(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if int(payload["purged"].(float64)) != 0 {
		t.Errorf("purged = %v, want 0 (event is recent)", payload["purged"])
	}
}

// --- Server wiring ---

func TestSecurityHeaders(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	securityHeaders(inner).ServeHTTP(rec, req)

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options header")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing X-Frame-Options header")
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing Content-Security-Policy header")
	}
}

func TestNewServer_Routes(t *testing.T) {
	h := setupTest(t)
	id := seedEvent(t, h)

	srv := NewServer(h.db, h.cfg, "test", "127.0.0.1", 0)

	req := httptest.NewRequest("GET", "/events/"+id+"/frames/0?expanded=true", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cart.total();") {
		t.Error("expected rendered frame through the mux")
	}
}

func TestNewServer_RootRedirects(t *testing.T) {
	h := setupTest(t)

	srv := NewServer(h.db, h.cfg, "test", "127.0.0.1", 0)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/events" {
		t.Errorf("Location = %q, want /events", loc)
	}
}
