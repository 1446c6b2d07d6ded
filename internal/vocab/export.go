package vocab

// ExportRecord represents an acronym record in JSONL export format.
// It is used for parsing export files during import.
type ExportRecord struct {
	// Header detection field - true only for header line
	AcrobotExport bool `json:"_acrobot_export,omitempty"`

	// Header fields (only present in header line)
	SchemaVersion string `json:"schema_version,omitempty"`
	ExportedAt    int64  `json:"exported_at,omitempty"`

	// Acronym fields
	ID        int64  `json:"id,omitempty"` // IGNORED on import, reassigned by the store
	Key       string `json:"key"`
	Pattern   string `json:"pattern"`
	Expansion string `json:"expansion"`
	CreatedAt int64  `json:"created_at,omitempty"`
	UpdatedAt int64  `json:"updated_at,omitempty"`
}

// ToAcronym converts an ExportRecord to an Acronym. The ID is dropped; a missing pattern
// falls back to the key's default.
func (r *ExportRecord) ToAcronym() *Acronym {
	pattern := r.Pattern
	if pattern == "" {
		pattern = DefaultPattern(r.Key)
	}
	return &Acronym{
		Key:       r.Key,
		Pattern:   pattern,
		Expansion: r.Expansion,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// AcronymToExportRecord converts an Acronym to an ExportRecord for export.
func AcronymToExportRecord(a *Acronym) *ExportRecord {
	return &ExportRecord{
		ID:        a.ID,
		Key:       a.Key,
		Pattern:   a.Pattern,
		Expansion: a.Expansion,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
