// Package vocab holds the acronym vocabulary: the stored Acronym record, key and pattern
// normalization, and the per-run Snapshot that binds pattern slots to acronyms.
package vocab

// Acronym is one vocabulary entry.
type Acronym struct {
	// ID is assigned by the store on creation and never changes
	ID int64 `json:"id"`

	// Key is the short display token, e.g. "IMO"
	Key string `json:"key"`

	// Pattern is the regular expression used for matching.
	// Defaults to a word-bounded literal of Key.
	Pattern string `json:"pattern"`

	// Expansion is the human-readable meaning
	Expansion string `json:"expansion"`

	// CreatedAt is the Unix timestamp when the acronym was added
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp of the last edit
	UpdatedAt int64 `json:"updated_at"`
}
