package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/acrobot/internal/db"
)

// RemoveInput contains parameters for the Remove operation.
type RemoveInput struct {
	ID int64
}

// RemoveOutput contains the result of the Remove operation.
type RemoveOutput struct {
	Removed bool   `json:"removed"`
	ID      int64  `json:"id"`
	Key     string `json:"key"`
}

// Remove deletes an acronym and, through the foreign key, every occurrence of it.
func Remove(ctx context.Context, database *sql.DB, input RemoveInput) (*RemoveOutput, error) {
	if err := validateID(input.ID); err != nil {
		return nil, err
	}

	a, err := db.GetAcronym(ctx, database, input.ID)
	if err != nil {
		return nil, err
	}

	if err := db.DeleteAcronym(ctx, database, a.ID); err != nil {
		return nil, err
	}

	return &RemoveOutput{
		Removed: true,
		ID:      a.ID,
		Key:     a.Key,
	}, nil
}
