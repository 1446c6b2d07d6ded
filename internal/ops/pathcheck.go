package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/acrobot/internal/config"
	"github.com/hpungsan/acrobot/internal/errors"
)

// PathCheckMode indicates whether the path check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // import
	PathCheckWrite                      // export
)

// VocabExt is the only extension accepted for vocabulary files.
const VocabExt = ".jsonl"

// PathPolicy decides where vocabulary files may be read and written.
type PathPolicy struct {
	// ExportsDir is always allowed (~/.acrobot/exports or $ACROBOT_HOME/exports).
	ExportsDir string
	// Allowed holds extra absolute directories from config.
	Allowed []string
	// Unsafe lifts directory restrictions. Symlink and extension checks still apply.
	Unsafe bool
}

// NewPathPolicy derives the policy from config and the acrobot base directory.
func NewPathPolicy(cfg *config.Config) (PathPolicy, error) {
	exportsDir, err := DefaultExportsDir()
	if err != nil {
		return PathPolicy{}, err
	}
	p := PathPolicy{ExportsDir: exportsDir}
	if cfg != nil {
		p.Unsafe = cfg.AllowUnsafePaths
		for _, dir := range cfg.AllowedPaths {
			if filepath.IsAbs(dir) {
				p.Allowed = append(p.Allowed, filepath.Clean(dir))
			}
		}
	}
	return p, nil
}

// ValidatePath checks path against the policy built from cfg.
func ValidatePath(path string, mode PathCheckMode, cfg *config.Config) error {
	p, err := NewPathPolicy(cfg)
	if err != nil {
		return err
	}
	return p.Check(path, mode)
}

// Check rejects traversal, a wrong extension, symlinks, and (unless Unsafe) any file
// that is not DIRECTLY inside an allowed directory. Forbidding subdirectories closes
// the window where an intermediate component is swapped for a symlink between this
// check and the O_NOFOLLOW open.
func (p PathPolicy) Check(path string, mode PathCheckMode) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if filepath.Ext(cleaned) != VocabExt {
		return errors.NewInvalidRequest("path must have " + VocabExt + " extension")
	}

	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	if !p.Unsafe {
		dirs, err := p.resolvedDirs()
		if err != nil {
			return err
		}
		parentDir := filepath.Dir(absPath)
		if !isDirectlyIn(parentDir, dirs) {
			return errors.NewInvalidRequest(
				fmt.Sprintf("file must be directly in an allowed directory (no subdirectories); allowed: %v", dirs))
		}
		if info, err := os.Lstat(parentDir); err == nil && info.Mode()&os.ModeSymlink != 0 {
			return errors.NewInvalidRequest("parent directory must not be a symlink")
		}
	}

	if mode == PathCheckRead {
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			return errors.NewFileNotFound(path)
		}
	}

	if info, err := os.Lstat(absPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	return nil
}

// resolvedDirs returns the allowed directories, absolute and with a symlinked entry
// resolved to its target.
func (p PathPolicy) resolvedDirs() ([]string, error) {
	all := append([]string{p.ExportsDir}, p.Allowed...)
	out := make([]string, 0, len(all))
	for _, d := range all {
		abs, err := filepath.Abs(filepath.Clean(d))
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid allowed path: %v", err))
		}
		if info, err := os.Lstat(abs); err == nil && info.Mode()&os.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(abs)
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
			abs = resolved
		}
		out = append(out, abs)
	}
	return out, nil
}

// isDirectlyIn reports whether dir equals one of allowed. Being nested below one is not enough.
func isDirectlyIn(dir string, allowed []string) bool {
	dir = filepath.Clean(dir)
	for _, a := range allowed {
		if dir == filepath.Clean(a) {
			return true
		}
	}
	return false
}

// DefaultExportsDir returns <base>/exports, where base is $ACROBOT_HOME or ~/.acrobot.
func DefaultExportsDir() (string, error) {
	base, err := config.BaseDir()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to resolve base directory: %w", err))
	}
	return filepath.Join(base, "exports"), nil
}

// containsTraversal checks if path contains ".." as a path component.
func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	// User input may use forward slashes on any platform
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}

// SanitizeForFilename makes an export label safe to embed in a file name.
func SanitizeForFilename(s string) string {
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, "..", "-")

	var b strings.Builder
	for _, r := range s {
		if r >= 32 && r != 127 {
			b.WriteRune(r)
		}
	}
	s = b.String()

	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")

	if s == "" {
		s = "vocab"
	}
	return s
}
