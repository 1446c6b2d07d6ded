package vocab

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// MaxKeyLen bounds acronym keys. Keys are tokens, not phrases.
const MaxKeyLen = 32

// NormalizeKey trims a key and rejects empty keys, keys containing whitespace, and keys
// longer than MaxKeyLen. Case is preserved.
func NormalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("key must not be empty")
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return "", fmt.Errorf("key must be a single token")
	}
	if len(key) > MaxKeyLen {
		return "", fmt.Errorf("key exceeds %d bytes", MaxKeyLen)
	}
	return key, nil
}

// DefaultPattern returns the word-bounded literal pattern for key.
func DefaultPattern(key string) string {
	return `\b` + regexp.QuoteMeta(key) + `\b`
}

// ResolvePattern returns pattern if set, otherwise DefaultPattern(key).
func ResolvePattern(key string, pattern *string) string {
	if pattern != nil && strings.TrimSpace(*pattern) != "" {
		return *pattern
	}
	return DefaultPattern(key)
}

// CheckPattern reports whether pattern compiles.
func CheckPattern(pattern string) error {
	_, err := regexp.Compile(pattern)
	return err
}

// NormalizeExpansion trims trailing whitespace (stdin input usually ends in a newline)
// and leading blank space.
func NormalizeExpansion(s string) string {
	return strings.TrimSpace(s)
}
