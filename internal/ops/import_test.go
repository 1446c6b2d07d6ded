package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/acrobot/internal/db"
	"github.com/hpungsan/acrobot/internal/errors"
)

const importHeader = `{"_acrobot_export":true,"schema_version":"1.0","exported_at":1700000000,"key":"","pattern":"","expansion":""}`

func writeImport(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImport_ModeError(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	path := writeImport(t,
		importHeader,
		`{"id":7,"key":"IMO","pattern":"","expansion":"In My Opinion"}`,
		`{"id":8,"key":"MSRV","pattern":"\\bMSRV\\b","expansion":"Minimum Supported Rust Version","created_at":1600000000}`,
	)

	out, err := Import(ctx, database, unsafeConfig(), ImportInput{Path: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Imported != 2 || len(out.Errors) != 0 {
		t.Fatalf("Import = %+v", out)
	}

	list, err := db.ListAcronyms(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if list[0].Key != "IMO" || list[0].Pattern != `\bIMO\b` {
		t.Errorf("first = %+v, want default pattern filled in", list[0])
	}
	if list[1].CreatedAt != 1600000000 {
		t.Errorf("CreatedAt = %d, want kept from export", list[1].CreatedAt)
	}
	if list[0].ID == 7 && list[1].ID == 8 {
		t.Error("exported ids should not be reused")
	}
}

func TestImport_ModeErrorCollisionIsAtomic(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	mustAdd(t, database, "MSRV", "Minimum Supported Rust Version")
	path := writeImport(t,
		`{"key":"IMO","expansion":"In My Opinion"}`,
		`{"key":"MSRV","expansion":"other"}`,
	)

	out, err := Import(ctx, database, unsafeConfig(), ImportInput{Path: path, Mode: ImportModeError})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Imported != 0 || len(out.Errors) != 1 {
		t.Fatalf("Import = %+v", out)
	}
	if out.Errors[0].Code != "KEY_ALREADY_EXISTS" || out.Errors[0].Line != 2 {
		t.Errorf("Errors[0] = %+v", out.Errors[0])
	}

	n, err := db.CountAcronyms(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("CountAcronyms = %d, want 1 (rolled back)", n)
	}
}

func TestImport_ModeErrorRejectsBadLines(t *testing.T) {
	database := setupTestDB(t)
	path := writeImport(t,
		`{"key":"IMO","expansion":"In My Opinion"}`,
		`not json`,
		`{"key":"BAD","pattern":"(BAD","expansion":"x"}`,
		`{"key":"NOEXP","expansion":"  "}`,
	)

	out, err := Import(context.Background(), database, unsafeConfig(), ImportInput{Path: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Imported != 0 || len(out.Errors) != 3 {
		t.Fatalf("Import = %+v", out)
	}
	wantCodes := []string{"PARSE_ERROR", "INVALID_RECORD", "INVALID_RECORD"}
	for i, e := range out.Errors {
		if e.Code != wantCodes[i] {
			t.Errorf("Errors[%d].Code = %s, want %s", i, e.Code, wantCodes[i])
		}
	}
}

func TestImport_ModeSkip(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	existing := mustAdd(t, database, "IMO", "In My Opinion")
	path := writeImport(t,
		importHeader,
		`{"key":"IMO","expansion":"changed"}`,
		`{"key":"AFAIK","expansion":"As Far As I Know"}`,
		`oops`,
	)

	out, err := Import(ctx, database, unsafeConfig(), ImportInput{Path: path, Mode: ImportModeSkip})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Imported != 1 || out.Skipped != 2 || len(out.Errors) != 1 {
		t.Errorf("Import = %+v", out)
	}

	got, err := db.GetAcronym(ctx, database, existing.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Expansion != "In My Opinion" {
		t.Errorf("Expansion = %q, want unchanged", got.Expansion)
	}
}

func TestImport_ModeReplace(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	existing := mustAdd(t, database, "IMO", "In My Opinion")
	path := writeImport(t, `{"key":"IMO","pattern":"(?i)\\bimo\\b","expansion":"In My Honest Opinion"}`)

	out, err := Import(ctx, database, unsafeConfig(), ImportInput{Path: path, Mode: ImportModeReplace})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if out.Replaced != 1 || out.Imported != 0 {
		t.Errorf("Import = %+v", out)
	}

	got, err := db.GetAcronym(ctx, database, existing.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Expansion != "In My Honest Opinion" || got.Pattern != `(?i)\bimo\b` {
		t.Errorf("replaced = %+v", got)
	}
}

func TestImport_InvalidInput(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	if _, err := Import(ctx, database, unsafeConfig(), ImportInput{Path: "x.jsonl", Mode: "rename"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("bad mode: %v, want ErrInvalidRequest", err)
	}
	if _, err := Import(ctx, database, unsafeConfig(), ImportInput{}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("empty path: %v, want ErrInvalidRequest", err)
	}
	missing := filepath.Join(t.TempDir(), "missing.jsonl")
	if _, err := Import(ctx, database, unsafeConfig(), ImportInput{Path: missing}); !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("missing file: %v, want ErrFileNotFound", err)
	}
}
