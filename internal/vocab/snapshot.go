package vocab

import (
	"github.com/hpungsan/acrobot/internal/errors"
)

// Snapshot is an immutable, ordered view of the vocabulary for one run.
// Slot i of Patterns() always belongs to At(i): both are derived from the same slice
// in NewSnapshot, so they cannot drift apart.
type Snapshot struct {
	entries  []Acronym
	patterns []string
}

// NewSnapshot copies acronyms into a Snapshot. An empty vocabulary is a configuration
// error: there is nothing meaningful to scan for.
func NewSnapshot(acronyms []Acronym) (*Snapshot, error) {
	if len(acronyms) == 0 {
		return nil, errors.NewEmptyVocabulary()
	}
	entries := make([]Acronym, len(acronyms))
	copy(entries, acronyms)

	patterns := make([]string, len(entries))
	for i, a := range entries {
		if a.Pattern == "" {
			entries[i].Pattern = DefaultPattern(a.Key)
		}
		patterns[i] = entries[i].Pattern
	}
	return &Snapshot{entries: entries, patterns: patterns}, nil
}

// Len returns the number of slots.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Patterns returns the pattern for every slot, in slot order.
func (s *Snapshot) Patterns() []string {
	out := make([]string, len(s.patterns))
	copy(out, s.patterns)
	return out
}

// At returns the acronym bound to slot.
func (s *Snapshot) At(slot int) Acronym {
	return s.entries[slot]
}

// Keys returns the set of acronym keys in the snapshot.
func (s *Snapshot) Keys() map[string]struct{} {
	keys := make(map[string]struct{}, len(s.entries))
	for _, a := range s.entries {
		keys[a.Key] = struct{}{}
	}
	return keys
}
