// Package holdings turns the positioned text of a 5% ownership disclosure into
// holding rows and per-owner groups.
//
// The pipeline is: fragments -> BuildLines -> AnchorTable.MapCells -> Extractor
// (stateful, one per document) -> GroupAndAggregate -> WriteReport.
package holdings

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// glyphMapper rewrites the dash and space look-alikes that PDF text layers emit.
var glyphMapper = runes.Map(func(r rune) rune {
	switch r {
	case '\u2212', '\u2010', '\u2011', '\u2012', '\u2013', '\ufe63', '\uff0d':
		return '-'
	case '\u00a0', '\u2007', '\u202f':
		return ' '
	}
	return r
})

// CleanText maps minus and space variants to ASCII, collapses whitespace runs
// (newlines included) to one space and trims.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	mapped, _, err := transform.String(glyphMapper, s)
	if err != nil {
		mapped = s
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(mapped, " "))
}

// Norm is CleanText followed by upper-casing, for structural matching.
func Norm(s string) string {
	return strings.ToUpper(CleanText(s))
}

// FirstLine returns the cleaned text before the first line break.
func FirstLine(s string) string {
	s = strings.TrimFunc(s, unicode.IsSpace)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return CleanText(s)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
