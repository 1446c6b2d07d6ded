package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/acrobot/internal/db"
	"github.com/hpungsan/acrobot/internal/vocab"
)

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items []vocab.Acronym `json:"items"`
	Total int             `json:"total"`
	Sort  string          `json:"sort"`
}

// List returns the whole vocabulary in slot order (ascending id).
func List(ctx context.Context, database *sql.DB) (*ListOutput, error) {
	items, err := db.ListAcronyms(ctx, database)
	if err != nil {
		return nil, err
	}

	return &ListOutput{
		Items: items,
		Total: len(items),
		Sort:  "id_asc",
	}, nil
}
