package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/acrobot/internal/config"
	"github.com/hpungsan/acrobot/internal/errors"
	"github.com/hpungsan/acrobot/internal/ops"
	"github.com/hpungsan/acrobot/internal/render"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db     *sql.DB
	cfg    *config.Config
	source ops.StreamSource
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, source ops.StreamSource) *Handlers {
	return &Handlers{db: db, cfg: cfg, source: source}
}

// Request types for each tool

// AddRequest represents the arguments for acronym_add.
type AddRequest struct {
	Key       string  `json:"key"`
	Expansion string  `json:"expansion"`
	Pattern   *string `json:"pattern,omitempty"`
}

// EditRequest represents the arguments for acronym_edit.
type EditRequest struct {
	ID        int64   `json:"id"`
	Key       *string `json:"key,omitempty"`
	Pattern   *string `json:"pattern,omitempty"`
	Expansion *string `json:"expansion,omitempty"`
}

// RemoveRequest represents the arguments for acronym_remove.
type RemoveRequest struct {
	ID int64 `json:"id"`
}

// ExportRequest represents the arguments for acronym_export.
type ExportRequest struct {
	Path  string `json:"path,omitempty"`
	Label string `json:"label,omitempty"`
}

// ImportRequest represents the arguments for acronym_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// ExpandRequest represents the arguments for thread_expand.
type ExpandRequest struct {
	ThreadID string `json:"thread_id"`
	Markdown bool   `json:"markdown,omitempty"`
}

// ThreadsRequest represents the arguments for thread_list.
type ThreadsRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// CandidatesRequest represents the arguments for scan_candidates.
type CandidatesRequest struct {
	Unregistered bool `json:"unregistered,omitempty"`
	Limit        int  `json:"limit,omitempty"`
	Fetch        int  `json:"fetch,omitempty"`
}

// ScanRequest represents the arguments for scan_run.
type ScanRequest struct {
	DryRun bool `json:"dry_run,omitempty"`
	Fetch  int  `json:"fetch,omitempty"`
}

// ExpandResult is the thread_expand payload.
type ExpandResult struct {
	*ops.ExpandOutput
	Markdown string `json:"markdown,omitempty"`
}

// partialResult wraps the output of an operation whose source failed midway.
type partialResult struct {
	Result any            `json:"result"`
	Error  map[string]any `json:"error"`
}

// Handler implementations

// HandleAdd handles the acronym_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Add(ctx, h.db, ops.AddInput{
		Key:       input.Key,
		Pattern:   input.Pattern,
		Expansion: input.Expansion,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleEdit handles the acronym_edit tool call.
func (h *Handlers) HandleEdit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EditRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Edit(ctx, h.db, ops.EditInput{
		ID:        input.ID,
		Key:       input.Key,
		Pattern:   input.Pattern,
		Expansion: input.Expansion,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRemove handles the acronym_remove tool call.
func (h *Handlers) HandleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RemoveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Remove(ctx, h.db, ops.RemoveInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the acronym_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.List(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the acronym_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{
		Path:  input.Path,
		Label: input.Label,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the acronym_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.db, h.cfg, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExpand handles the thread_expand tool call.
func (h *Handlers) HandleExpand(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExpandRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Expand(ctx, h.db, ops.ExpandInput{ThreadID: input.ThreadID})
	if err != nil {
		return errorResult(err), nil
	}

	out := ExpandResult{ExpandOutput: result}
	if input.Markdown {
		out.Markdown = render.Reply(ops.Rows(result.Items))
	}
	return successResult(out)
}

// HandleThreads handles the thread_list tool call.
func (h *Handlers) HandleThreads(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ThreadsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Threads(ctx, h.db, ops.ThreadsInput{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCandidates handles the scan_candidates tool call.
func (h *Handlers) HandleCandidates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CandidatesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	stream := h.source(h.cfg.Subreddit, h.fetchLimit(input.Fetch))
	result, err := ops.Candidates(ctx, h.db, stream, ops.CandidatesInput{
		Unregistered: input.Unregistered,
		Limit:        input.Limit,
	})
	return h.finish(result, result != nil && result.Partial, err)
}

// HandleScan handles the scan_run tool call.
func (h *Handlers) HandleScan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ScanRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	stream := h.source(h.cfg.Subreddit, h.fetchLimit(input.Fetch))
	result, err := ops.Scan(ctx, h.db, stream, ops.ScanInput{DryRun: input.DryRun})
	return h.finish(result, result != nil && result.Partial, err)
}

// fetchLimit returns n when positive, else the configured fetch limit.
func (h *Handlers) fetchLimit(n int) int {
	if n > 0 {
		return n
	}
	return h.cfg.FetchLimit
}

// finish reports a partial result next to its error so the caller keeps what was
// gathered before the source failed.
func (h *Handlers) finish(result any, partial bool, err error) (*mcp.CallToolResult, error) {
	if err == nil {
		return successResult(result)
	}
	if !partial {
		return errorResult(err), nil
	}
	r, rerr := successResult(partialResult{Result: result, Error: errorPayload(err)})
	if rerr != nil {
		return nil, rerr
	}
	r.IsError = true
	return r, nil
}

// Result helpers

// errorPayload builds the error object for err. Internal error details are not
// exposed to avoid leaking file paths or SQL errors.
func errorPayload(err error) map[string]any {
	var aErr *errors.AcroError
	if !stderrors.As(err, &aErr) {
		return map[string]any{
			"code":    string(errors.ErrInternal),
			"message": "an internal error occurred",
			"status":  500,
		}
	}

	// Keep wrapper context ("items[2]: ...") around the bare message.
	message := strings.Replace(err.Error(), aErr.Error(), aErr.Message, 1)
	obj := map[string]any{
		"code":    string(aErr.Code),
		"message": message,
		"status":  aErr.Status,
	}
	if aErr.Code != errors.ErrInternal && aErr.Details != nil {
		obj["details"] = aErr.Details
	}
	return obj
}

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
func errorResult(err error) *mcp.CallToolResult {
	content, _ := json.Marshal(map[string]any{"error": errorPayload(err)})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
