package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/acrobot/internal/db"
	"github.com/hpungsan/acrobot/internal/detect"
)

// CandidatesInput contains parameters for the Candidates operation.
type CandidatesInput struct {
	// Unregistered drops tokens that already equal a vocabulary key.
	Unregistered bool
	// Limit caps the number of candidates returned; 0 means no cap.
	Limit int
}

// CandidatesOutput contains the result of the Candidates operation.
type CandidatesOutput struct {
	Items   []detect.Candidate `json:"items"`
	Count   int                `json:"count"`
	Partial bool               `json:"partial"`
}

// Candidates lists acronym-shaped tokens from stream for a human to review.
// If the stream fails midway, the candidates gathered so far are returned with
// Partial set, together with the error.
func Candidates(ctx context.Context, database *sql.DB, stream detect.Stream, input CandidatesInput) (*CandidatesOutput, error) {
	known := map[string]struct{}{}
	if input.Unregistered {
		list, err := db.ListAcronyms(ctx, database)
		if err != nil {
			return nil, err
		}
		for _, a := range list {
			known[a.Key] = struct{}{}
		}
	}

	out := &CandidatesOutput{Items: []detect.Candidate{}}
	for c, err := range detect.Candidates(ctx, stream) {
		if err != nil {
			out.Partial = true
			out.Count = len(out.Items)
			return out, err
		}
		if _, ok := known[c.Token]; ok {
			continue
		}
		out.Items = append(out.Items, c)
		if input.Limit > 0 && len(out.Items) >= input.Limit {
			break
		}
	}

	out.Count = len(out.Items)
	return out, nil
}
