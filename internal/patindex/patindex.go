// Package patindex compiles an ordered set of regular expressions into one matcher that
// reports, for a given text, every pattern slot that matches at least once.
//
// Each pattern contributes its longest required literal to a shared Aho-Corasick
// automaton. One pass over the text yields the candidate slots; only candidates, plus
// the patterns with no extractable literal, are confirmed with their compiled regexp.
package patindex

import (
	"fmt"
	"regexp"
	"regexp/syntax"
	"strings"
)

// CompileError reports the first pattern that failed to compile.
type CompileError struct {
	Position int
	Pattern  string
	Err      error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("pattern %d (%q): %v", e.Position, e.Pattern, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Index is an immutable multi-pattern matcher. It is safe for concurrent use.
type Index struct {
	res    []*regexp.Regexp
	exact  *acAutomaton // case-sensitive literals
	folded *acAutomaton // lower-cased literals of (?i) patterns; nil if none
	always []int        // slots without a usable literal
}

// Build compiles every pattern. Any failure aborts the build; no partial index is returned.
func Build(patterns []string) (*Index, error) {
	x := &Index{
		res:   make([]*regexp.Regexp, len(patterns)),
		exact: newAutomaton(),
	}

	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &CompileError{Position: i, Pattern: p, Err: err}
		}
		x.res[i] = re

		parsed, err := syntax.Parse(p, syntax.Perl)
		if err != nil {
			x.always = append(x.always, i)
			continue
		}
		lit, fold, ok := requiredLiteral(parsed.Simplify())
		switch {
		case !ok:
			x.always = append(x.always, i)
		case fold:
			if x.folded == nil {
				x.folded = newAutomaton()
			}
			x.folded.AddPattern([]byte(lit), i)
		default:
			x.exact.AddPattern([]byte(lit), i)
		}
	}

	x.exact.Build()
	if x.folded != nil {
		x.folded.Build()
	}
	return x, nil
}

// Len returns the number of pattern slots.
func (x *Index) Len() int {
	return len(x.res)
}

// MatchAll returns, in ascending order, every slot whose pattern occurs in text.
// A pattern matching several times is reported once.
func (x *Index) MatchAll(text string) []int {
	if len(x.res) == 0 {
		return nil
	}

	cand := make([]bool, len(x.res))
	for _, slot := range x.always {
		cand[slot] = true
	}
	mark := func(slot int) { cand[slot] = true }
	x.exact.Each([]byte(text), mark)
	if x.folded != nil {
		x.folded.Each([]byte(strings.ToLower(text)), mark)
	}

	var out []int
	for slot, ok := range cand {
		if ok && x.res[slot].MatchString(text) {
			out = append(out, slot)
		}
	}
	return out
}
