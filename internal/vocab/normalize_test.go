package vocab

import (
	"regexp"
	"testing"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain", input: "IMO", want: "IMO"},
		{name: "trimmed", input: "  MSRV \n", want: "MSRV"},
		{name: "case preserved", input: "PRs", want: "PRs"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: " \t ", wantErr: true},
		{name: "two words", input: "IM O", wantErr: true},
		{name: "too long", input: "ABCDEFGHIJKLMNOPQRSTUVWXYZABCDEFG", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeKey(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeKey(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeKey(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDefaultPattern(t *testing.T) {
	if got := DefaultPattern("IMO"); got != `\bIMO\b` {
		t.Errorf("DefaultPattern(IMO) = %q, want %q", got, `\bIMO\b`)
	}

	// Metacharacters in keys are escaped so the pattern stays a literal match
	re := regexp.MustCompile(DefaultPattern("C++"))
	if re.MatchString("C") {
		t.Error("escaped pattern should not match bare C")
	}
}

func TestResolvePattern(t *testing.T) {
	custom := `\b(?i)imo\b`
	blank := "   "

	if got := ResolvePattern("IMO", &custom); got != custom {
		t.Errorf("ResolvePattern with custom = %q, want %q", got, custom)
	}
	if got := ResolvePattern("IMO", nil); got != `\bIMO\b` {
		t.Errorf("ResolvePattern(nil) = %q", got)
	}
	if got := ResolvePattern("IMO", &blank); got != `\bIMO\b` {
		t.Errorf("ResolvePattern(blank) = %q", got)
	}
}

func TestCheckPattern(t *testing.T) {
	if err := CheckPattern(`\bIMO\b`); err != nil {
		t.Errorf("CheckPattern(valid) error = %v", err)
	}
	if err := CheckPattern(`(IMO`); err == nil {
		t.Error("CheckPattern(unbalanced group) expected error")
	}
}

func TestNormalizeExpansion(t *testing.T) {
	if got := NormalizeExpansion("In my opinion\n\n"); got != "In my opinion" {
		t.Errorf("NormalizeExpansion = %q", got)
	}
}
