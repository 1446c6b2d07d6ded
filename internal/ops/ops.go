// Package ops implements the acrobot use cases. Each operation takes a context, its
// collaborators and an XInput, and returns an XOutput ready for JSON encoding.
package ops

import (
	"github.com/hpungsan/acrobot/internal/detect"
	"github.com/hpungsan/acrobot/internal/errors"
	"github.com/hpungsan/acrobot/internal/render"
	"github.com/hpungsan/acrobot/internal/vocab"
)

// Pagination limits
const (
	DefaultThreadsLimit = 20
	MaxThreadsLimit     = 100
)

// StreamSource opens a message stream over the newest limit messages of topic.
type StreamSource func(topic string, limit int) detect.Stream

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Expansion is the public view of an acronym in reports.
type Expansion struct {
	ID        int64  `json:"id"`
	Key       string `json:"key"`
	Expansion string `json:"expansion"`
}

func toExpansions(list []vocab.Acronym) []Expansion {
	out := make([]Expansion, 0, len(list))
	for _, a := range list {
		out = append(out, Expansion{ID: a.ID, Key: a.Key, Expansion: a.Expansion})
	}
	return out
}

// Rows converts expansions into render table rows, keeping order.
func Rows(items []Expansion) []render.Row {
	rows := make([]render.Row, 0, len(items))
	for _, e := range items {
		rows = append(rows, render.Row{Key: e.Key, Expansion: e.Expansion})
	}
	return rows
}

// validateID rejects ids the store can never have assigned.
func validateID(id int64) error {
	if id <= 0 {
		return errors.NewInvalidRequest("id must be a positive integer")
	}
	return nil
}
