package occurrence

import (
	"context"
	"sync"

	"github.com/hpungsan/acrobot/internal/detect"
	"github.com/hpungsan/acrobot/internal/vocab"
)

// MemorySink keeps occurrences in process memory, starting empty. It has no view of the
// database, so its counts only reflect what was recorded through it.
type MemorySink struct {
	mu       sync.Mutex
	acronyms map[int64]vocab.Acronym
	rows     map[detect.Detection]struct{}
}

// NewMemorySink returns an empty sink that resolves acronym ids against vocabulary.
func NewMemorySink(vocabulary []vocab.Acronym) *MemorySink {
	m := &MemorySink{
		acronyms: make(map[int64]vocab.Acronym, len(vocabulary)),
		rows:     make(map[detect.Detection]struct{}),
	}
	for _, a := range vocabulary {
		m.acronyms[a.ID] = a
	}
	return m
}

// InsertOccurrence implements Sink.
func (m *MemorySink) InsertOccurrence(ctx context.Context, threadID, messageID string, acronymID int64) (bool, error) {
	key := detect.Detection{ThreadID: threadID, MessageID: messageID, AcronymID: acronymID}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[key]; ok {
		return false, nil
	}
	m.rows[key] = struct{}{}
	return true, nil
}

// QueryDistinctAcronyms implements Sink. Ids without a known acronym are dropped,
// mirroring the foreign key of the SQL store.
func (m *MemorySink) QueryDistinctAcronyms(ctx context.Context, threadID string) ([]vocab.Acronym, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[int64]struct{})
	out := []vocab.Acronym{}
	for d := range m.rows {
		if d.ThreadID != threadID {
			continue
		}
		if _, dup := seen[d.AcronymID]; dup {
			continue
		}
		a, ok := m.acronyms[d.AcronymID]
		if !ok {
			continue
		}
		seen[d.AcronymID] = struct{}{}
		out = append(out, a)
	}
	sortAcronyms(out)
	return out, nil
}

// Len returns the number of stored occurrences.
func (m *MemorySink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
