package web

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hpungsan/acrobot/internal/config"
	"github.com/hpungsan/acrobot/internal/db"
	"github.com/hpungsan/acrobot/internal/detect"
	"github.com/hpungsan/acrobot/internal/ops"
)

func setupTest(t *testing.T) *Handlers {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		t.Fatalf("template sub-FS: %v", err)
	}

	return &Handlers{
		db:       database,
		cfg:      config.DefaultConfig(),
		renderer: NewRenderer(templateSub, "test"),
	}
}

// seedThread registers IMO and AFAIK and records them against thread t1.
func seedThread(t *testing.T, h *Handlers) {
	t.Helper()
	ctx := context.Background()
	for _, in := range []ops.AddInput{
		{Key: "IMO", Expansion: "in my opinion"},
		{Key: "AFAIK", Expansion: "as far as I know"},
	} {
		if _, err := ops.Add(ctx, h.db, in); err != nil {
			t.Fatalf("add %s: %v", in.Key, err)
		}
	}

	stream := detect.NewSliceStream(
		detect.Message{ID: "c1", ThreadID: "t1", Author: "a", Body: "IMO this is fine"},
		detect.Message{ID: "c2", ThreadID: "t1", Author: "b", Body: "AFAIK it works"},
	)
	if _, err := ops.Scan(ctx, h.db, stream, ops.ScanInput{}); err != nil {
		t.Fatalf("scan: %v", err)
	}
}

func serve(handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

// --- HandleThreads ---

func TestHandleThreads_Default(t *testing.T) {
	h := setupTest(t)
	seedThread(t, h)

	rec := serve(h.HandleThreads, httptest.NewRequest("GET", "/threads", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `href="/threads/t1"`) {
		t.Error("expected link to thread t1")
	}
	if !strings.Contains(body, "<html") {
		t.Error("expected full layout for a plain request")
	}
	if !strings.Contains(body, "r/rust") {
		t.Error("expected configured subreddit in header")
	}
}

func TestHandleThreads_Empty(t *testing.T) {
	h := setupTest(t)

	rec := serve(h.HandleThreads, httptest.NewRequest("GET", "/threads", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No acronyms recorded yet") {
		t.Error("expected empty state message")
	}
}

func TestHandleThreads_HtmxReturnsContentOnly(t *testing.T) {
	h := setupTest(t)
	seedThread(t, h)

	req := httptest.NewRequest("GET", "/threads", nil)
	req.Header.Set("HX-Request", "true")
	rec := serve(h.HandleThreads, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<html") {
		t.Error("HTMX response should not include the layout")
	}
	if !strings.Contains(body, "t1") {
		t.Error("HTMX response should include the thread list")
	}
}

func TestHandleThreads_JSON(t *testing.T) {
	h := setupTest(t)
	seedThread(t, h)

	req := httptest.NewRequest("GET", "/threads?limit=5", nil)
	req.Header.Set("Accept", "application/json")
	rec := serve(h.HandleThreads, req)

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", ct)
	}
	var out ops.ThreadsOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].ThreadID != "t1" {
		t.Fatalf("Items = %+v, want [t1]", out.Items)
	}
	if out.Items[0].Acronyms != 2 {
		t.Errorf("Acronyms = %d, want 2", out.Items[0].Acronyms)
	}
	if out.Pagination.Limit != 5 {
		t.Errorf("Limit = %d, want 5", out.Pagination.Limit)
	}
}

// --- HandleThread / HandleReply ---

func TestHandleThread_RendersTable(t *testing.T) {
	h := setupTest(t)
	seedThread(t, h)

	req := httptest.NewRequest("GET", "/threads/t1", nil)
	req.SetPathValue("id", "t1")
	rec := serve(h.HandleThread, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<table>") {
		t.Error("expected rendered markdown table")
	}
	if !strings.Contains(body, ">in my opinion</td>") {
		t.Error("expected IMO expansion cell")
	}
	if strings.Index(body, ">AFAIK</td>") > strings.Index(body, ">IMO</td>") {
		t.Error("expected rows sorted by key")
	}
	if !strings.Contains(body, "2 acronyms") {
		t.Error("expected acronym count")
	}
}

func TestHandleThread_StripsPrefix(t *testing.T) {
	h := setupTest(t)
	seedThread(t, h)

	req := httptest.NewRequest("GET", "/threads/t3_t1", nil)
	req.SetPathValue("id", "t3_t1")
	req.Header.Set("Accept", "application/json")
	rec := serve(h.HandleThread, req)

	var out ops.ExpandOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.ThreadID != "t1" || out.Count != 2 {
		t.Errorf("got thread %q count %d, want t1 / 2", out.ThreadID, out.Count)
	}
}

func TestHandleThread_UnknownThread(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/threads/nope", nil)
	req.SetPathValue("id", "nope")
	rec := serve(h.HandleThread, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Nothing recorded for this thread") {
		t.Error("expected empty state message")
	}
}

func TestHandleReply_Markdown(t *testing.T) {
	h := setupTest(t)
	seedThread(t, h)

	req := httptest.NewRequest("GET", "/threads/t1/reply.md", nil)
	req.SetPathValue("id", "t1")
	rec := serve(h.HandleReply, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("Content-Type = %q, want text/markdown", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "|AFAIK|as far as I know|\n|IMO|in my opinion|\n") {
		t.Errorf("unexpected reply body:\n%s", body)
	}
}

// --- HandleAcronyms ---

func TestHandleAcronyms(t *testing.T) {
	h := setupTest(t)
	seedThread(t, h)

	rec := serve(h.HandleAcronyms, httptest.NewRequest("GET", "/acronyms", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"IMO", "AFAIK", "as far as I know", "2 acronyms"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in response", want)
		}
	}
}

func TestHandleAcronyms_Empty(t *testing.T) {
	h := setupTest(t)

	rec := serve(h.HandleAcronyms, httptest.NewRequest("GET", "/acronyms", nil))

	if !strings.Contains(rec.Body.String(), "The vocabulary is empty") {
		t.Error("expected empty state message")
	}
}

// --- Errors ---

func TestRenderError_Negotiation(t *testing.T) {
	h := setupTest(t)

	tests := []struct {
		name   string
		header map[string]string
		want   string
	}{
		{"page", nil, "Error 400"},
		{"htmx", map[string]string{"HX-Request": "true"}, `<div class="error-message">`},
		{"json", map[string]string{"Accept": "application/json"}, `"code":"INVALID_REQUEST"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/threads/x", nil)
			req.SetPathValue("id", "  ")
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := serve(h.HandleThread, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body missing %q:\n%s", tt.want, rec.Body.String())
			}
		})
	}
}

// --- Server ---

func TestNewServer_Routes(t *testing.T) {
	h := setupTest(t)
	seedThread(t, h)

	srv, err := NewServer(h.db, h.cfg, "test", "127.0.0.1", 0)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	tests := []struct {
		path   string
		status int
	}{
		{"/", http.StatusFound},
		{"/threads", http.StatusOK},
		{"/threads/t1", http.StatusOK},
		{"/threads/t1/reply.md", http.StatusOK},
		{"/acronyms", http.StatusOK},
		{"/static/style.css", http.StatusOK},
		{"/admin", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.status)
			}
			if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("expected security headers")
			}
		})
	}
}

func TestNewServer_RejectsWrites(t *testing.T) {
	h := setupTest(t)

	srv, err := NewServer(h.db, h.cfg, "test", "127.0.0.1", 0)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("POST", "/threads", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /threads = %d, want 405", rec.Code)
	}
}

// --- Helpers ---

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 20},
		{"limit=5", 5},
		{"limit=abc", 20},
		{"limit=-3", -3},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/threads?"+tt.query, nil)
		if got := parseIntParam(req, "limit", 20); got != tt.want {
			t.Errorf("parseIntParam(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestPlural(t *testing.T) {
	if got := plural(1, "thread"); got != "1 thread" {
		t.Errorf("plural(1) = %q", got)
	}
	if got := plural(3, "thread"); got != "3 threads" {
		t.Errorf("plural(3) = %q", got)
	}
}
