package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/acrobot/internal/db"
)

// ThreadsInput contains parameters for the Threads operation.
type ThreadsInput struct {
	Limit  int // default: 20, max: 100
	Offset int // default: 0
}

// ThreadsOutput contains the result of the Threads operation.
type ThreadsOutput struct {
	Items      []db.ThreadSummary `json:"items"`
	Pagination Pagination         `json:"pagination"`
	Sort       string             `json:"sort"`
}

// Threads lists threads with recorded occurrences, most recently active first.
func Threads(ctx context.Context, database *sql.DB, input ThreadsInput) (*ThreadsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultThreadsLimit
	}
	if limit > MaxThreadsLimit {
		limit = MaxThreadsLimit
	}
	offset := max(input.Offset, 0)

	items, err := db.ListThreads(ctx, database, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := db.CountThreads(ctx, database)
	if err != nil {
		return nil, err
	}

	return &ThreadsOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "last_recorded_desc",
	}, nil
}
