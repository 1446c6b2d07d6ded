package db

import (
	"context"

	"github.com/hpungsan/acrobot/internal/errors"
	"github.com/hpungsan/acrobot/internal/vocab"
)

// InsertOccurrence records that an acronym appeared in a message. It reports false
// without error when the (thread, message, acronym) triple is already stored.
func InsertOccurrence(ctx context.Context, db Querier, threadID, messageID string, acronymID, createdAt int64) (bool, error) {
	query := `
		INSERT INTO occurrences (thread_id, message_id, acronym_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (thread_id, message_id, acronym_id) DO NOTHING
	`

	result, err := db.ExecContext(ctx, query, threadID, messageID, acronymID, createdAt)
	if err != nil {
		return false, errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return rowsAffected == 1, nil
}

// QueryDistinctAcronyms returns each acronym seen in a thread once, ordered by key then id.
// An unknown thread yields an empty slice.
func QueryDistinctAcronyms(ctx context.Context, db Querier, threadID string) ([]vocab.Acronym, error) {
	query := `
		SELECT a.id, a.key, a.pattern, a.expansion, a.created_at, a.updated_at
		FROM acronyms a
		WHERE a.id IN (SELECT acronym_id FROM occurrences WHERE thread_id = ?)
		ORDER BY a.key ASC, a.id ASC
	`

	rows, err := db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	return collectAcronyms(rows)
}

// ThreadSummary describes one thread with recorded occurrences.
type ThreadSummary struct {
	ThreadID     string `json:"thread_id"`
	Acronyms     int    `json:"acronyms"`
	Messages     int    `json:"messages"`
	LastRecorded int64  `json:"last_recorded"`
}

// ListThreads returns threads ordered by most recent occurrence, newest first.
func ListThreads(ctx context.Context, db Querier, limit, offset int) ([]ThreadSummary, error) {
	query := `
		SELECT thread_id,
			COUNT(DISTINCT acronym_id),
			COUNT(DISTINCT message_id),
			MAX(created_at) AS last_recorded
		FROM occurrences
		GROUP BY thread_id
		ORDER BY last_recorded DESC, thread_id ASC
		LIMIT ? OFFSET ?
	`

	rows, err := db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := []ThreadSummary{}
	for rows.Next() {
		var s ThreadSummary
		if err := rows.Scan(&s.ThreadID, &s.Acronyms, &s.Messages, &s.LastRecorded); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// CountThreads returns the number of threads with at least one occurrence.
func CountThreads(ctx context.Context, db Querier) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT thread_id) FROM occurrences`).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}
