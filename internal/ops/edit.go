package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/acrobot/internal/db"
	"github.com/hpungsan/acrobot/internal/errors"
	"github.com/hpungsan/acrobot/internal/vocab"
)

// EditInput contains parameters for the Edit operation.
type EditInput struct {
	ID int64

	// Editable fields (nil = don't change)
	Key       *string
	Pattern   *string
	Expansion *string
}

// EditOutput contains the result of the Edit operation.
type EditOutput struct {
	vocab.Acronym
}

// Edit modifies an existing acronym. When the key changes and the stored pattern is
// still the default for the old key, the pattern follows the new key.
func Edit(ctx context.Context, database *sql.DB, input EditInput) (*EditOutput, error) {
	if err := validateID(input.ID); err != nil {
		return nil, err
	}
	if input.Key == nil && input.Pattern == nil && input.Expansion == nil {
		return nil, errors.NewInvalidRequest("at least one of key, pattern or expansion must be provided")
	}

	a, err := db.GetAcronym(ctx, database, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Key != nil {
		key, err := vocab.NormalizeKey(*input.Key)
		if err != nil {
			return nil, errors.NewInvalidRequest(err.Error())
		}
		if input.Pattern == nil && a.Pattern == vocab.DefaultPattern(a.Key) {
			a.Pattern = vocab.DefaultPattern(key)
		}
		a.Key = key
	}

	if input.Pattern != nil {
		a.Pattern = vocab.ResolvePattern(a.Key, input.Pattern)
	}
	if err := vocab.CheckPattern(a.Pattern); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("pattern does not compile: %v", err))
	}

	if input.Expansion != nil {
		expansion := vocab.NormalizeExpansion(*input.Expansion)
		if expansion == "" {
			return nil, errors.NewInvalidRequest("expansion must not be empty")
		}
		a.Expansion = expansion
	}

	if err := db.UpdateAcronym(ctx, database, a); err != nil {
		return nil, err
	}

	return &EditOutput{Acronym: *a}, nil
}
