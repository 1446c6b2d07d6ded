package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/acrobot/internal/errors"
	"github.com/hpungsan/acrobot/internal/occurrence"
)

// ExpandInput contains parameters for the Expand operation.
type ExpandInput struct {
	ThreadID string // required; a "t3_" prefix is accepted and stripped
}

// ExpandOutput contains the result of the Expand operation.
type ExpandOutput struct {
	ThreadID string      `json:"thread_id"`
	Count    int         `json:"count"`
	Items    []Expansion `json:"items"`
}

// Expand lists the distinct acronyms recorded for a thread, sorted by key.
func Expand(ctx context.Context, database *sql.DB, input ExpandInput) (*ExpandOutput, error) {
	threadID := strings.TrimPrefix(strings.TrimSpace(input.ThreadID), "t3_")
	if threadID == "" {
		return nil, errors.NewInvalidRequest("thread id is required")
	}

	list, err := occurrence.New(occurrence.NewSQLSink(database)).AcronymsForThread(ctx, threadID)
	if err != nil {
		return nil, err
	}

	items := toExpansions(list)
	return &ExpandOutput{
		ThreadID: threadID,
		Count:    len(items),
		Items:    items,
	}, nil
}
