package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/hpungsan/acrobot/internal/errors"
	"github.com/hpungsan/acrobot/internal/vocab"
)

const acronymColumns = `id, key, pattern, expansion, created_at, updated_at`

// InsertAcronym stores a new acronym and sets a.ID from the assigned row id.
// A duplicate key returns KEY_ALREADY_EXISTS.
func InsertAcronym(ctx context.Context, db Querier, a *vocab.Acronym) error {
	query := `
		INSERT INTO acronyms (key, pattern, expansion, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := db.ExecContext(ctx, query, a.Key, a.Pattern, a.Expansion, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewKeyAlreadyExists(a.Key)
		}
		return errors.NewInternal(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.NewInternal(err)
	}
	a.ID = id

	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetAcronym retrieves an acronym by id.
func GetAcronym(ctx context.Context, db Querier, id int64) (*vocab.Acronym, error) {
	row := db.QueryRowContext(ctx, `SELECT `+acronymColumns+` FROM acronyms WHERE id = ?`, id)
	a, err := scanAcronym(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return a, nil
}

// GetAcronymByKey retrieves an acronym by its key. It returns nil, nil when no acronym
// has that key, so callers can branch on existence without inspecting error codes.
func GetAcronymByKey(ctx context.Context, db Querier, key string) (*vocab.Acronym, error) {
	row := db.QueryRowContext(ctx, `SELECT `+acronymColumns+` FROM acronyms WHERE key = ?`, key)
	a, err := scanAcronym(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return a, nil
}

// UpdateAcronym writes key, pattern and expansion of an existing acronym.
// Sets updated_at to the current timestamp. Does NOT change: id, created_at
func UpdateAcronym(ctx context.Context, db Querier, a *vocab.Acronym) error {
	now := time.Now().Unix()

	query := `
		UPDATE acronyms
		SET key = ?, pattern = ?, expansion = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := db.ExecContext(ctx, query, a.Key, a.Pattern, a.Expansion, now, a.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewKeyAlreadyExists(a.Key)
		}
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(a.ID)
	}

	a.UpdatedAt = now
	return nil
}

// DeleteAcronym removes an acronym. Its occurrences go with it (ON DELETE CASCADE).
func DeleteAcronym(ctx context.Context, db Querier, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM acronyms WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// ListAcronyms returns the whole vocabulary ordered by id. The order is stable across
// calls, so slot positions derived from it are reproducible.
func ListAcronyms(ctx context.Context, db Querier) ([]vocab.Acronym, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+acronymColumns+` FROM acronyms ORDER BY id ASC`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	return collectAcronyms(rows)
}

// CountAcronyms returns the vocabulary size.
func CountAcronyms(ctx context.Context, db Querier) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM acronyms`).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// StreamAcronyms returns rows for export, ordered by id. Caller must close rows.
// Use ScanAcronymFromRows on each row.
func StreamAcronyms(ctx context.Context, db Querier) (*sql.Rows, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+acronymColumns+` FROM acronyms ORDER BY id ASC`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return rows, nil
}

// ScanAcronymFromRows scans the current row of a StreamAcronyms result.
func ScanAcronymFromRows(rows *sql.Rows) (*vocab.Acronym, error) {
	return scanAcronym(rows)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAcronym(row rowScanner) (*vocab.Acronym, error) {
	var a vocab.Acronym
	if err := row.Scan(&a.ID, &a.Key, &a.Pattern, &a.Expansion, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// collectAcronyms drains rows. The result is empty, never nil.
func collectAcronyms(rows *sql.Rows) ([]vocab.Acronym, error) {
	out := []vocab.Acronym{}
	for rows.Next() {
		a, err := scanAcronym(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}
