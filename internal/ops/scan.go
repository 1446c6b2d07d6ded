package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/acrobot/internal/db"
	"github.com/hpungsan/acrobot/internal/detect"
	"github.com/hpungsan/acrobot/internal/errors"
	"github.com/hpungsan/acrobot/internal/logger"
	"github.com/hpungsan/acrobot/internal/occurrence"
	"github.com/hpungsan/acrobot/internal/patindex"
	"github.com/hpungsan/acrobot/internal/vocab"
)

// ScanInput contains parameters for the Scan operation.
type ScanInput struct {
	// DryRun reports what would be recorded without writing anything.
	DryRun bool
}

// ScanMessage reports the acronyms matched in one message.
type ScanMessage struct {
	MessageID string      `json:"message_id"`
	ThreadID  string      `json:"thread_id"`
	Author    string      `json:"author"`
	Permalink string      `json:"permalink,omitempty"`
	Matches   int         `json:"matches"`
	Acronyms  []Expansion `json:"acronyms"`
}

// ScanOutput contains the result of the Scan operation.
type ScanOutput struct {
	RunID      string        `json:"run_id"`
	DryRun     bool          `json:"dry_run"`
	Scanned    int           `json:"scanned"`
	Skipped    int           `json:"skipped"`
	Partial    bool          `json:"partial"`
	Detections int           `json:"detections"`
	Recorded   int           `json:"recorded"`
	Messages   []ScanMessage `json:"messages"`
}

// Scan runs one known-vocabulary pass over stream and records what it finds.
//
// The vocabulary is loaded and compiled fresh on every call. An empty vocabulary or a
// pattern that fails to compile stops the run before any message is read. When the
// stream fails midway, detections gathered so far are still recorded and the output
// comes back with Partial set, together with the error.
func Scan(ctx context.Context, database *sql.DB, stream detect.Stream, input ScanInput) (*ScanOutput, error) {
	runID := newRunID()
	ctx = logger.WithRun(ctx, runID)
	log := logger.C(ctx, logger.Named("scan"))

	if ctx.Err() != nil {
		return nil, errors.NewCancelled("scan")
	}
	list, err := db.ListAcronyms(ctx, database)
	if err != nil {
		return nil, err
	}
	snap, err := vocab.NewSnapshot(list)
	if err != nil {
		return nil, err
	}
	idx, err := patindex.Build(snap.Patterns())
	if err != nil {
		var ce *patindex.CompileError
		if stderrors.As(err, &ce) {
			return nil, errors.NewBadPattern(ce.Position, ce.Pattern, snap.At(ce.Position).ID, ce.Err)
		}
		return nil, errors.NewInternal(err)
	}

	res, scanErr := detect.Known(ctx, stream, snap, idx, detect.Options{Logger: log})
	if res == nil {
		return nil, scanErr
	}

	out := &ScanOutput{
		RunID:      runID,
		DryRun:     input.DryRun,
		Scanned:    res.Scanned,
		Skipped:    res.Skipped,
		Partial:    res.Partial,
		Detections: len(res.Detections),
		Messages:   make([]ScanMessage, 0, len(res.Reports)),
	}
	for _, r := range res.Reports {
		out.Messages = append(out.Messages, ScanMessage{
			MessageID: r.Message.ID,
			ThreadID:  r.Message.ThreadID,
			Author:    r.Message.Author,
			Permalink: r.Message.Permalink,
			Matches:   r.Matches,
			Acronyms:  toExpansions(r.Acronyms),
		})
	}

	if errors.Is(scanErr, errors.ErrCancelled) {
		return out, scanErr
	}

	recorded, err := record(ctx, database, res.Detections, input.DryRun)
	out.Recorded = recorded
	if err != nil {
		if ctx.Err() != nil {
			return out, errors.NewCancelled("scan")
		}
		return out, errors.NewInternal(err)
	}

	log.Info().
		Int("scanned", out.Scanned).
		Int("skipped", out.Skipped).
		Int("detections", out.Detections).
		Int("recorded", out.Recorded).
		Bool("dry_run", out.DryRun).
		Bool("partial", out.Partial).
		Msg("scan complete")

	return out, scanErr
}

// record stores detections and returns how many were new. A dry run records inside a
// transaction that is always rolled back, so the count matches what a real run would report.
func record(ctx context.Context, database *sql.DB, detections []detect.Detection, dryRun bool) (int, error) {
	if !dryRun {
		return occurrence.New(occurrence.NewSQLSink(database)).Record(ctx, detections)
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	return occurrence.New(occurrence.NewSQLSink(tx)).Record(ctx, detections)
}

// newRunID returns a time-ordered identifier for one scan.
func newRunID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
