package patindex

import (
	"regexp/syntax"
	"strings"
	"unicode"
	"unicode/utf8"
)

// requiredLiteral returns a literal that every match of re must contain, and whether it
// is case-folded. ok is false when no such literal can be proven (alternations, classes,
// optional parts); those patterns are always confirmed with the full regexp.
func requiredLiteral(re *syntax.Regexp) (lit string, fold bool, ok bool) {
	switch re.Op {
	case syntax.OpLiteral:
		if len(re.Rune) == 0 {
			return "", false, false
		}
		s := string(re.Rune)
		if re.Flags&syntax.FoldCase == 0 {
			return s, false, true
		}
		for _, r := range re.Rune {
			if !asciiFold(r) {
				return "", false, false
			}
		}
		return strings.ToLower(s), true, true

	case syntax.OpCapture, syntax.OpPlus:
		return requiredLiteral(re.Sub[0])

	case syntax.OpRepeat:
		if re.Min < 1 {
			return "", false, false
		}
		return requiredLiteral(re.Sub[0])

	case syntax.OpConcat:
		for _, sub := range re.Sub {
			l, f, o := requiredLiteral(sub)
			if !o {
				continue
			}
			// Longest literal is the most selective; exact beats folded on ties.
			if !ok || len(l) > len(lit) || (len(l) == len(lit) && fold && !f) {
				lit, fold, ok = l, f, true
			}
		}
		return lit, fold, ok
	}
	return "", false, false
}

// asciiFold reports whether every rune that case-folds to r is ASCII. Only then does
// lower-casing the scanned text find every case variant the regexp would accept
// ('k' also folds to the Kelvin sign, 's' to the long s).
func asciiFold(r rune) bool {
	if r >= utf8.RuneSelf {
		return false
	}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
