package ops

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hpungsan/acrobot/internal/config"
	"github.com/hpungsan/acrobot/internal/db"
	"github.com/hpungsan/acrobot/internal/errors"
	"github.com/hpungsan/acrobot/internal/vocab"
)

// ImportMode controls what happens when an imported key already exists.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on collision (atomic)
	ImportModeSkip    ImportMode = "skip"    // keep the existing acronym
	ImportModeReplace ImportMode = "replace" // overwrite pattern and expansion
)

// maxImportLine bounds a single JSONL line.
const maxImportLine = 1 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Replaced int           `json:"replaced"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes one line that was not imported.
type ImportError struct {
	Line    int    `json:"line"`
	Key     string `json:"key,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// importRecord is a parsed, validated acronym with its source line.
type importRecord struct {
	line int
	a    *vocab.Acronym
}

// Import reads a vocabulary export and merges it into the store, matching on key.
// Stored ids are never reused: every new acronym gets a fresh id.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	switch input.Mode {
	case ImportModeError, ImportModeSkip, ImportModeReplace:
	default:
		return nil, errors.NewInvalidRequest("mode must be one of: error, skip, replace")
	}

	policy, err := NewPathPolicy(cfg)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(input.Path, PathCheckRead); err != nil {
		return nil, err
	}

	file, err := openNoFollow(input.Path, os.O_RDONLY, 0)
	if err != nil {
		if _, ok := err.(*errors.AcroError); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, parseErrors := parseImport(file)

	if input.Mode == ImportModeError {
		if len(parseErrors) > 0 {
			return &ImportOutput{Errors: parseErrors}, nil
		}
		return importAtomic(ctx, database, records)
	}
	return importMerge(ctx, database, records, parseErrors, input.Mode)
}

// parseImport reads every line, skipping the header. Lines that do not parse or do
// not describe a usable acronym are reported, not returned.
func parseImport(r io.Reader) ([]importRecord, []ImportError) {
	var records []importRecord
	var problems []ImportError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxImportLine)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec vocab.ExportRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			problems = append(problems, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if rec.AcrobotExport {
			continue
		}

		a, msg := validateRecord(&rec)
		if msg != "" {
			problems = append(problems, ImportError{
				Line:    lineNum,
				Key:     rec.Key,
				Code:    "INVALID_RECORD",
				Message: msg,
			})
			continue
		}
		records = append(records, importRecord{line: lineNum, a: a})
	}

	if err := scanner.Err(); err != nil {
		problems = append(problems, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}
	return records, problems
}

func validateRecord(rec *vocab.ExportRecord) (*vocab.Acronym, string) {
	key, err := vocab.NormalizeKey(rec.Key)
	if err != nil {
		return nil, err.Error()
	}
	rec.Key = key
	rec.Expansion = vocab.NormalizeExpansion(rec.Expansion)
	if rec.Expansion == "" {
		return nil, "expansion must not be empty"
	}

	a := rec.ToAcronym()
	if err := vocab.CheckPattern(a.Pattern); err != nil {
		return nil, fmt.Sprintf("pattern does not compile: %v", err)
	}

	now := time.Now().Unix()
	if a.CreatedAt == 0 {
		a.CreatedAt = now
	}
	if a.UpdatedAt == 0 {
		a.UpdatedAt = a.CreatedAt
	}
	return a, ""
}

// importAtomic inserts every record in one transaction and rolls back on the first
// key collision.
func importAtomic(ctx context.Context, database *sql.DB, records []importRecord) (*ImportOutput, error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, r := range records {
		if err := db.InsertAcronym(ctx, tx, r.a); err != nil {
			if errors.Is(err, errors.ErrKeyAlreadyExists) {
				return &ImportOutput{Errors: []ImportError{{
					Line:    r.line,
					Key:     r.a.Key,
					Code:    string(errors.ErrKeyAlreadyExists),
					Message: fmt.Sprintf("acronym with key %q already exists", r.a.Key),
				}}}, nil
			}
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &ImportOutput{Imported: len(records), Errors: []ImportError{}}, nil
}

// importMerge applies records one by one, skipping or replacing existing keys.
func importMerge(ctx context.Context, database *sql.DB, records []importRecord, problems []ImportError, mode ImportMode) (*ImportOutput, error) {
	out := &ImportOutput{Skipped: len(problems), Errors: append([]ImportError{}, problems...)}

	for _, r := range records {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("import")
		}

		existing, err := db.GetAcronymByKey(ctx, database, r.a.Key)
		if err != nil {
			return nil, err
		}

		switch {
		case existing == nil:
			if err := db.InsertAcronym(ctx, database, r.a); err != nil {
				return nil, err
			}
			out.Imported++
		case mode == ImportModeSkip:
			out.Skipped++
		default:
			existing.Pattern = r.a.Pattern
			existing.Expansion = r.a.Expansion
			if err := db.UpdateAcronym(ctx, database, existing); err != nil {
				return nil, err
			}
			out.Replaced++
		}
	}
	return out, nil
}
