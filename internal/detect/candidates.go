package detect

import (
	"context"
	stderrors "errors"
	"io"
	"iter"
	"regexp"
	"unicode/utf8"

	"github.com/hpungsan/acrobot/internal/errors"
	"github.com/hpungsan/acrobot/internal/logger"
)

// candidateRe is the shape of an unregistered acronym: 3 to 6 uppercase letters, word bounded.
var candidateRe = regexp.MustCompile(`\b[A-Z]{3,6}\b`)

// Candidate is one uppercase token seen in a message.
type Candidate struct {
	Token     string `json:"token"`
	ThreadID  string `json:"thread_id"`
	MessageID string `json:"message_id"`
	Permalink string `json:"permalink,omitempty"`
}

// Candidates lazily scans stream for acronym-shaped tokens, in message order and then
// text order. A source failure is yielded once as the final element.
// The sequence is single-use because the stream is.
func Candidates(ctx context.Context, stream Stream) iter.Seq2[Candidate, error] {
	return func(yield func(Candidate, error) bool) {
		log := logger.C(ctx, logger.Named("detect"))
		scanned := 0
		for {
			msg, err := stream.Next(ctx)
			if stderrors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Candidate{}, sourceError(scanned, err))
				return
			}
			scanned++

			if !utf8.ValidString(msg.Body) {
				log.Warn().Str("message_id", msg.ID).Msg("skipping message with invalid UTF-8 body")
				continue
			}

			for _, tok := range candidateRe.FindAllString(msg.Body, -1) {
				c := Candidate{
					Token:     tok,
					ThreadID:  msg.ThreadID,
					MessageID: msg.ID,
					Permalink: msg.Permalink,
				}
				if !yield(c, nil) {
					return
				}
			}
		}
	}
}

// sourceError classifies a stream failure. Cancellation is reported as such so callers
// can tell an interrupted run from an unreachable source.
func sourceError(scanned int, err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewCancelled("scan")
	}
	var aErr *errors.AcroError
	if stderrors.As(err, &aErr) {
		return aErr
	}
	return errors.NewSourceUnavailable(scanned, err)
}
