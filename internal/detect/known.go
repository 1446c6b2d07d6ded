package detect

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/hpungsan/acrobot/internal/errors"
	"github.com/hpungsan/acrobot/internal/logger"
	"github.com/hpungsan/acrobot/internal/patindex"
	"github.com/hpungsan/acrobot/internal/vocab"
)

// Options tunes a Known scan.
type Options struct {
	// Logger overrides the package logger; nil uses the "detect" component logger.
	Logger *logger.Logger
}

// MessageReport summarizes the acronyms matched in one message.
type MessageReport struct {
	Message  Message         `json:"message"`
	Matches  int             `json:"matches"`
	Acronyms []vocab.Acronym `json:"acronyms"`
}

// Result is the outcome of a Known scan.
type Result struct {
	// Detections are unique, in message arrival order then ascending slot.
	Detections []Detection `json:"detections"`

	// Reports holds one entry per message with at least one match.
	Reports []MessageReport `json:"reports"`

	// Scanned counts messages read from the stream, skipped ones included.
	Scanned int `json:"scanned"`

	// Skipped counts messages whose body could not be matched.
	Skipped int `json:"skipped"`

	// Partial is set when the stream failed before it was exhausted.
	Partial bool `json:"partial"`
}

// Known matches every message of stream against idx and maps matched slots to acronyms
// through snap. snap and idx must come from the same pattern list.
//
// Malformed messages are logged and skipped. If the stream fails mid-batch, the result
// gathered so far is returned with Partial set, together with the error. A nil Result
// means the scan never started.
func Known(ctx context.Context, stream Stream, snap *vocab.Snapshot, idx *patindex.Index, opts Options) (*Result, error) {
	if snap == nil || idx == nil {
		return nil, errors.NewConfiguration("scan requires a vocabulary snapshot and a pattern index")
	}
	if snap.Len() != idx.Len() {
		return nil, errors.NewConfiguration(fmt.Sprintf(
			"pattern index has %d slots but vocabulary has %d", idx.Len(), snap.Len()))
	}

	log := opts.Logger
	if log == nil {
		log = logger.Named("detect")
	}
	log = logger.C(ctx, log)

	set := NewDetectionSet()
	res := &Result{}

	for {
		msg, err := stream.Next(ctx)
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.Partial = true
			res.Detections = set.Items()
			return res, sourceError(res.Scanned, err)
		}
		res.Scanned++

		if !utf8.ValidString(msg.Body) {
			res.Skipped++
			log.Warn().
				Str("message_id", msg.ID).
				Str("thread_id", msg.ThreadID).
				Msg("skipping message with invalid UTF-8 body")
			continue
		}

		slots := idx.MatchAll(msg.Body)
		if len(slots) == 0 {
			continue
		}

		report := MessageReport{Message: msg, Matches: len(slots)}
		for _, slot := range slots {
			a := snap.At(slot)
			set.Add(Detection{ThreadID: msg.ThreadID, MessageID: msg.ID, AcronymID: a.ID})
			report.Acronyms = append(report.Acronyms, a)
		}
		res.Reports = append(res.Reports, report)
	}

	res.Detections = set.Items()
	log.Debug().
		Int("scanned", res.Scanned).
		Int("skipped", res.Skipped).
		Int("detections", len(res.Detections)).
		Msg("known scan complete")
	return res, nil
}
