package web

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/acrobot/internal/config"
	"github.com/hpungsan/acrobot/internal/errors"
	"github.com/hpungsan/acrobot/internal/ops"
	"github.com/hpungsan/acrobot/internal/render"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

func (h *Handlers) page(title, nav string) PageData {
	return PageData{
		Title:     title,
		Version:   h.renderer.version,
		Subreddit: h.cfg.Subreddit,
		Nav:       nav,
	}
}

// HandleThreads handles GET /threads, the threads with recorded acronyms.
func (h *Handlers) HandleThreads(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Threads(r.Context(), h.db, ops.ThreadsInput{
		Limit:  parseIntParam(r, "limit", ops.DefaultThreadsLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "threads", ThreadsPageData{
		PageData:   h.page("Threads", "threads"),
		Items:      result.Items,
		Pagination: result.Pagination,
	})
}

// HandleThread handles GET /threads/{id}: the expansions recorded for one thread.
func (h *Handlers) HandleThread(w http.ResponseWriter, r *http.Request) {
	result, ok := h.expand(w, r)
	if !ok {
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	md := render.Reply(ops.Rows(result.Items))
	h.renderer.renderPage(w, r, "thread", ThreadPageData{
		PageData:     h.page("Thread "+result.ThreadID, "threads"),
		Expansion:    result,
		Markdown:     md,
		RenderedHTML: renderMarkdown(md),
	})
}

// HandleReply handles GET /threads/{id}/reply.md with the raw markdown reply body.
func (h *Handlers) HandleReply(w http.ResponseWriter, r *http.Request) {
	result, ok := h.expand(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(render.Reply(ops.Rows(result.Items))))
}

func (h *Handlers) expand(w http.ResponseWriter, r *http.Request) (*ops.ExpandOutput, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("thread ID is required"))
		return nil, false
	}

	result, err := ops.Expand(r.Context(), h.db, ops.ExpandInput{ThreadID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return nil, false
	}
	return result, true
}

// HandleAcronyms handles GET /acronyms.
func (h *Handlers) HandleAcronyms(w http.ResponseWriter, r *http.Request) {
	result, err := ops.List(r.Context(), h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "acronyms", AcronymsPageData{
		PageData: h.page("Acronyms", "acronyms"),
		Items:    result.Items,
		Total:    result.Total,
	})
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
