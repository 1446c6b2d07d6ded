package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/acrobot/internal/config"
	"github.com/hpungsan/acrobot/internal/db"
	"github.com/hpungsan/acrobot/internal/detect"
	"github.com/hpungsan/acrobot/internal/errors"
	"github.com/hpungsan/acrobot/internal/ops"
)

// testSetup creates a temporary database and config for testing.
func testSetup(t *testing.T) (*sql.DB, *config.Config, func()) {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // Allow temp dirs in tests

	cleanup := func() {
		database.Close()
	}

	return database, cfg, cleanup
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

var testMessages = []detect.Message{
	{ID: "c1", ThreadID: "t1", Author: "ferris", Body: "IMO the MSRV bump is fine"},
	{ID: "c2", ThreadID: "t1", Author: "crab", Body: "AFAIK nobody objected"},
}

// sliceSource serves msgs and records the requested topic and limit.
type sliceSource struct {
	msgs  []detect.Message
	err   error
	topic string
	limit int
}

func (s *sliceSource) open(topic string, limit int) detect.Stream {
	s.topic, s.limit = topic, limit
	if s.err != nil {
		return &brokenStream{msgs: append([]detect.Message(nil), s.msgs...), err: s.err}
	}
	return detect.NewSliceStream(s.msgs...)
}

type brokenStream struct {
	msgs []detect.Message
	err  error
}

func (b *brokenStream) Next(ctx context.Context) (detect.Message, error) {
	if len(b.msgs) == 0 {
		return detect.Message{}, b.err
	}
	m := b.msgs[0]
	b.msgs = b.msgs[1:]
	return m, nil
}

func newTestHandlers(t *testing.T) (*Handlers, *sliceSource) {
	t.Helper()
	database, cfg, cleanup := testSetup(t)
	t.Cleanup(cleanup)
	src := &sliceSource{msgs: testMessages}
	return NewHandlers(database, cfg, src.open), src
}

func addAcronym(t *testing.T, h *Handlers, key, expansion string) int64 {
	t.Helper()
	out := parseOutput(t, mustCall(t, h.HandleAdd, map[string]any{"key": key, "expansion": expansion}))
	return int64(out["id"].(float64))
}

func mustCall(t *testing.T, fn func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := fn(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return result
}

func TestHandleAdd(t *testing.T) {
	h, _ := newTestHandlers(t)

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name:      "add with default pattern",
			args:      map[string]any{"key": "IMO", "expansion": "In My Opinion"},
			wantError: false,
		},
		{
			name:      "add with custom pattern",
			args:      map[string]any{"key": "IIRC", "expansion": "If I Recall Correctly", "pattern": `(?i)\biirc\b`},
			wantError: false,
		},
		{
			name:      "missing key",
			args:      map[string]any{"expansion": "x"},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "bad pattern",
			args:      map[string]any{"key": "BAD", "expansion": "x", "pattern": "(BAD"},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "duplicate key",
			args:      map[string]any{"key": "IMO", "expansion": "again"},
			wantError: true,
			errorCode: "KEY_ALREADY_EXISTS",
		},
		{
			name:      "wrong argument type",
			args:      map[string]any{"key": 12, "expansion": "x"},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mustCall(t, h.HandleAdd, tt.args)
			if tt.wantError {
				if !result.IsError {
					t.Fatalf("expected error, got success")
				}
				assertErrorCode(t, result, tt.errorCode)
				return
			}
			out := parseOutput(t, result)
			if out["id"] == nil || out["key"] != tt.args["key"] {
				t.Errorf("output = %v", out)
			}
		})
	}
}

func TestHandleEditRemoveList(t *testing.T) {
	h, _ := newTestHandlers(t)
	id := addAcronym(t, h, "IMO", "In My Opinion")

	out := parseOutput(t, mustCall(t, h.HandleEdit, map[string]any{"id": id, "expansion": "In My Honest Opinion"}))
	if out["expansion"] != "In My Honest Opinion" {
		t.Errorf("edit output = %v", out)
	}

	result := mustCall(t, h.HandleEdit, map[string]any{"id": id})
	assertErrorCode(t, result, "INVALID_REQUEST")

	out = parseOutput(t, mustCall(t, h.HandleList, nil))
	if out["total"] != float64(1) {
		t.Errorf("list total = %v, want 1", out["total"])
	}

	out = parseOutput(t, mustCall(t, h.HandleRemove, map[string]any{"id": id}))
	if out["removed"] != true {
		t.Errorf("remove output = %v", out)
	}

	result = mustCall(t, h.HandleRemove, map[string]any{"id": id})
	assertErrorCode(t, result, "NOT_FOUND")
}

func TestHandleScanAndExpand(t *testing.T) {
	h, src := newTestHandlers(t)
	addAcronym(t, h, "IMO", "In My Opinion")
	addAcronym(t, h, "MSRV", "Minimum Supported Rust Version")

	out := parseOutput(t, mustCall(t, h.HandleScan, map[string]any{"fetch": 5}))
	if out["recorded"] != float64(2) || out["scanned"] != float64(2) {
		t.Errorf("scan output = %v", out)
	}
	if src.topic != "rust" || src.limit != 5 {
		t.Errorf("source opened with (%q, %d), want (rust, 5)", src.topic, src.limit)
	}

	out = parseOutput(t, mustCall(t, h.HandleExpand, map[string]any{"thread_id": "t3_t1", "markdown": true}))
	if out["count"] != float64(2) {
		t.Errorf("expand count = %v, want 2", out["count"])
	}
	md, _ := out["markdown"].(string)
	if !strings.Contains(md, "|MSRV|Minimum Supported Rust Version|") {
		t.Errorf("markdown = %q", md)
	}

	out = parseOutput(t, mustCall(t, h.HandleThreads, map[string]any{"limit": 10}))
	items := out["items"].([]any)
	if len(items) != 1 {
		t.Errorf("threads = %v, want 1", items)
	}
}

func TestHandleScan_DefaultFetchLimit(t *testing.T) {
	h, src := newTestHandlers(t)
	addAcronym(t, h, "IMO", "In My Opinion")

	out := parseOutput(t, mustCall(t, h.HandleScan, map[string]any{"dry_run": true}))
	if out["dry_run"] != true {
		t.Errorf("dry_run = %v", out["dry_run"])
	}
	if src.limit != h.cfg.FetchLimit {
		t.Errorf("limit = %d, want %d", src.limit, h.cfg.FetchLimit)
	}
}

func TestHandleScan_EmptyVocabulary(t *testing.T) {
	h, _ := newTestHandlers(t)

	result := mustCall(t, h.HandleScan, nil)
	assertErrorCode(t, result, "CONFIGURATION")
}

func TestHandleScan_PartialResult(t *testing.T) {
	h, src := newTestHandlers(t)
	addAcronym(t, h, "IMO", "In My Opinion")
	src.err = fmt.Errorf("connection reset")

	result := mustCall(t, h.HandleScan, nil)
	if !result.IsError {
		t.Fatal("expected IsError for a partial scan")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	res := payload["result"].(map[string]any)
	if res["partial"] != true || res["recorded"] != float64(1) {
		t.Errorf("result = %v", res)
	}
	errObj := payload["error"].(map[string]any)
	if errObj["code"] != string(errors.ErrSourceUnavailable) {
		t.Errorf("code = %v", errObj["code"])
	}
}

func TestHandleCandidates(t *testing.T) {
	h, _ := newTestHandlers(t)
	addAcronym(t, h, "IMO", "In My Opinion")

	out := parseOutput(t, mustCall(t, h.HandleCandidates, map[string]any{"unregistered": true}))
	items := out["items"].([]any)
	var tokens []string
	for _, it := range items {
		tokens = append(tokens, it.(map[string]any)["token"].(string))
	}
	if strings.Join(tokens, ",") != "MSRV,AFAIK" {
		t.Errorf("tokens = %v, want MSRV,AFAIK", tokens)
	}
}

func TestHandleExportImport(t *testing.T) {
	h, _ := newTestHandlers(t)
	addAcronym(t, h, "IMO", "In My Opinion")

	path := filepath.Join(t.TempDir(), "vocab.jsonl")
	out := parseOutput(t, mustCall(t, h.HandleExport, map[string]any{"path": path}))
	if out["count"] != float64(1) {
		t.Errorf("export count = %v", out["count"])
	}

	out = parseOutput(t, mustCall(t, h.HandleImport, map[string]any{"path": path, "mode": "skip"}))
	if out["skipped"] != float64(1) || out["imported"] != float64(0) {
		t.Errorf("import output = %v", out)
	}

	result := mustCall(t, h.HandleImport, map[string]any{"path": path, "mode": "rename"})
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestServerRegistration(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	s := NewServer(database, cfg, (&sliceSource{}).open, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"acronym_add",
		"acronym_edit",
		"acronym_remove",
		"acronym_list",
		"acronym_export",
		"acronym_import",
		"thread_expand",
		"thread_list",
		"scan_candidates",
		"scan_run",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}
	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTools = []string{"acronym_remove", "acronym_import", "acronym_remove"}
	s := NewServer(database, cfg, (&sliceSource{}).open, "test")
	tools := s.ListTools()

	if len(tools) != 8 {
		t.Errorf("registered tool count = %d, want 8", len(tools))
	}
	for _, name := range []string{"acronym_remove", "acronym_import"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
}

func TestServerRegistration_WithDisabledTypes(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTypes = []string{"scan"}
	s := NewServer(database, cfg, (&sliceSource{}).open, "test")
	tools := s.ListTools()

	if len(tools) != 8 {
		t.Errorf("registered tool count = %d, want 8", len(tools))
	}
	for _, name := range []string{"scan_run", "scan_candidates"} {
		if _, ok := tools[name]; ok {
			t.Errorf("tool %q of disabled type should not be registered", name)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	database, cfg, cleanup := testSetup(t)
	defer cleanup()

	cfg.DisabledTools = AllToolNames()
	s := NewServer(database, cfg, (&sliceSource{}).open, "test")

	if tools := s.ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{"all valid", []string{"acronym_remove", "scan_run"}, 0},
		{"one unknown", []string{"scan_run", "fake_tool"}, 1},
		{"all unknown", []string{"foo", "bar", "baz"}, 3},
		{"empty list", []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if unknown := ValidateDisabledTools(tt.input); len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestValidateDisabledTypes(t *testing.T) {
	if unknown := ValidateDisabledTypes([]string{"acronym", "reply"}); len(unknown) != 1 || unknown[0] != "reply" {
		t.Errorf("ValidateDisabledTypes = %v, want [reply]", unknown)
	}
}

func TestGetTypeForTool(t *testing.T) {
	tests := map[string]string{
		"acronym_add":   "acronym",
		"thread_expand": "thread",
		"scan_run":      "scan",
		"noprefix":      "",
	}
	for name, want := range tests {
		if got := GetTypeForTool(name); got != want {
			t.Errorf("GetTypeForTool(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 10 {
		t.Errorf("AllToolNames() returned %d names, want 10", len(names))
	}
	if unknown := ValidateDisabledTools(names); len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
	for _, name := range names {
		typ := GetTypeForTool(name)
		if len(ValidateDisabledTypes([]string{typ})) != 0 {
			t.Errorf("tool %q has unknown type %q", name, typ)
		}
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_WrappedErrorPreservesContext(t *testing.T) {
	wrapped := fmt.Errorf("line 3: %w", errors.NewKeyAlreadyExists("IMO"))

	errObj := errorObject(t, errorResult(wrapped))
	if errObj["code"] != string(errors.ErrKeyAlreadyExists) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrKeyAlreadyExists)
	}
	msg := errObj["message"].(string)
	if !strings.HasPrefix(msg, "line 3: ") || strings.Contains(msg, "KEY_ALREADY_EXISTS:") {
		t.Errorf("message = %q, want wrapper context and bare message", msg)
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	errObj := errorObject(t, errorResult(errors.NewNotFound(3)))
	if errObj["code"] != string(errors.ErrNotFound) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

func TestErrorResult_PlainError(t *testing.T) {
	errObj := errorObject(t, errorResult(fmt.Errorf("boom")))
	if errObj["code"] != string(errors.ErrInternal) || errObj["message"] != "an internal error occurred" {
		t.Errorf("error = %v", errObj)
	}
}

var _ ops.StreamSource = (&sliceSource{}).open

// Helper functions

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func errorObject(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	return payload["error"].(map[string]any)
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Errorf("content is not TextContent")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Errorf("failed to unmarshal error payload: %v", err)
		return
	}

	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Errorf("no error object in payload")
		return
	}

	if code, _ := errorObj["code"].(string); code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}
	return text.Text
}
