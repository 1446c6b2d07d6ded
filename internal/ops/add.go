package ops

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hpungsan/acrobot/internal/db"
	"github.com/hpungsan/acrobot/internal/errors"
	"github.com/hpungsan/acrobot/internal/vocab"
)

// AddInput contains parameters for the Add operation.
type AddInput struct {
	Key       string  // required
	Pattern   *string // optional, default: word-bounded literal of Key
	Expansion string  // required
}

// AddOutput contains the result of the Add operation.
type AddOutput struct {
	vocab.Acronym
}

// Add registers a new acronym. The pattern is compiled up front so a broken regex never
// reaches a scan.
func Add(ctx context.Context, database *sql.DB, input AddInput) (*AddOutput, error) {
	key, err := vocab.NormalizeKey(input.Key)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	expansion := vocab.NormalizeExpansion(input.Expansion)
	if expansion == "" {
		return nil, errors.NewInvalidRequest("expansion must not be empty")
	}

	pattern := vocab.ResolvePattern(key, input.Pattern)
	if err := vocab.CheckPattern(pattern); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("pattern does not compile: %v", err))
	}

	now := time.Now().Unix()
	a := &vocab.Acronym{
		Key:       key,
		Pattern:   pattern,
		Expansion: expansion,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.InsertAcronym(ctx, database, a); err != nil {
		return nil, err
	}

	return &AddOutput{Acronym: *a}, nil
}
