// Package occurrence records detections durably and answers which acronyms appeared in a
// thread.
//
// Recording is insert-or-ignore: a detection already stored is a silent no-op, so an
// interrupted batch can be re-run safely.
package occurrence

import (
	"context"
	"sort"
	"time"

	"github.com/hpungsan/acrobot/internal/detect"
	"github.com/hpungsan/acrobot/internal/vocab"
)

// Sink is the persistence collaborator behind the Facade.
type Sink interface {
	// InsertOccurrence stores one triple and reports whether it was new.
	// A duplicate must return false, nil.
	InsertOccurrence(ctx context.Context, threadID, messageID string, acronymID int64) (bool, error)

	// QueryDistinctAcronyms returns the acronyms recorded for a thread.
	QueryDistinctAcronyms(ctx context.Context, threadID string) ([]vocab.Acronym, error)
}

// Facade defines the dedup key and the no-op-on-duplicate contract on top of a Sink.
type Facade struct {
	sink Sink
}

// New returns a Facade over sink.
func New(sink Sink) *Facade {
	return &Facade{sink: sink}
}

// Record stores every unique detection and returns how many were newly inserted.
// Detections already present, in the batch or in the sink, are not counted.
func (f *Facade) Record(ctx context.Context, detections []detect.Detection) (int, error) {
	set := detect.NewDetectionSet()
	for _, d := range detections {
		set.Add(d)
	}

	inserted := 0
	for _, d := range set.Items() {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}
		ok, err := f.sink.InsertOccurrence(ctx, d.ThreadID, d.MessageID, d.AcronymID)
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

// AcronymsForThread returns the distinct acronyms recorded for threadID, sorted by key
// and then id. Unknown threads yield an empty, non-nil slice.
func (f *Facade) AcronymsForThread(ctx context.Context, threadID string) ([]vocab.Acronym, error) {
	found, err := f.sink.QueryDistinctAcronyms(ctx, threadID)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(found))
	out := make([]vocab.Acronym, 0, len(found))
	for _, a := range found {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	sortAcronyms(out)
	return out, nil
}

func sortAcronyms(list []vocab.Acronym) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Key != list[j].Key {
			return list[i].Key < list[j].Key
		}
		return list[i].ID < list[j].ID
	})
}

// now is swapped in tests.
var now = func() int64 { return time.Now().Unix() }
