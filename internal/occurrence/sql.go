package occurrence

import (
	"context"

	"github.com/hpungsan/acrobot/internal/db"
	"github.com/hpungsan/acrobot/internal/vocab"
)

// SQLSink stores occurrences in the acrobot SQLite database. Backed by a transaction it
// sees committed rows plus its own writes, and leaves nothing behind on rollback.
type SQLSink struct {
	db db.Querier
}

// NewSQLSink returns a Sink backed by q, either a *sql.DB or a *sql.Tx.
func NewSQLSink(q db.Querier) *SQLSink {
	return &SQLSink{db: q}
}

// InsertOccurrence implements Sink.
func (s *SQLSink) InsertOccurrence(ctx context.Context, threadID, messageID string, acronymID int64) (bool, error) {
	return db.InsertOccurrence(ctx, s.db, threadID, messageID, acronymID, now())
}

// QueryDistinctAcronyms implements Sink.
func (s *SQLSink) QueryDistinctAcronyms(ctx context.Context, threadID string) ([]vocab.Acronym, error) {
	return db.QueryDistinctAcronyms(ctx, s.db, threadID)
}
