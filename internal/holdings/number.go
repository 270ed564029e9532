package holdings

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// ChangeEpsilon is the smallest percentage movement treated as a change.
	ChangeEpsilon = 1e-12

	pctOwnedMin  = 0.0
	pctOwnedMax  = 100.0
	pctChangeMax = 100.0
)

var (
	numericIntPattern = regexp.MustCompile(`^\d[\d.,]*$`)
	numericPctPattern = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)
	digitsOnly        = regexp.MustCompile(`^\d+$`)
)

// NormalizeNumber strips the decorations a numeric cell may carry. Empty input
// and a lone "-" both yield "", which callers read as absent rather than zero.
func NormalizeNumber(raw string) string {
	s := CleanText(raw)
	if s == "" || s == "-" {
		return ""
	}
	s = strings.ReplaceAll(s, "(", "-")
	s = strings.ReplaceAll(s, ")", "")
	s = strings.ReplaceAll(s, "%", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

func splitSign(s string) (sign int64, rest string) {
	switch {
	case strings.HasPrefix(s, "+"):
		return 1, s[1:]
	case strings.HasPrefix(s, "-"):
		return -1, s[1:]
	}
	return 1, s
}

// LooksLikeNumericInt reports whether raw is an optionally signed integer that
// may use "." or "," as grouping separators.
func LooksLikeNumericInt(raw string) bool {
	s := NormalizeNumber(raw)
	if s == "" {
		return false
	}
	_, s = splitSign(s)
	return numericIntPattern.MatchString(s)
}

// LooksLikeNumericPct reports whether raw is an optionally signed number with at
// most one fractional part.
func LooksLikeNumericPct(raw string) bool {
	s := NormalizeNumber(raw)
	if s == "" {
		return false
	}
	_, s = splitSign(s)
	return numericPctPattern.MatchString(s)
}

// ParseIntStrict parses a share count. Every "." and "," is a grouping
// separator; shares are never fractional.
func ParseIntStrict(raw string) (int64, bool) {
	s := NormalizeNumber(raw)
	if s == "" {
		return 0, false
	}
	sign, s := splitSign(s)
	s = strings.NewReplacer(",", "", ".", "").Replace(s)
	if !digitsOnly.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return sign * v, true
}

// ParsePct parses a percentage. When both separators appear the later one is
// the decimal mark; a lone "," is a decimal mark.
func ParsePct(raw string) (float64, bool) {
	s := NormalizeNumber(raw)
	if s == "" {
		return 0, false
	}
	sign, s := splitSign(s)

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}

	if s == "" || strings.ContainsAny(s, "+-eEnNiI") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return float64(sign) * v, true
}

// SanePctOwned keeps v only inside [0, 100]. Out-of-range values are noise and
// are dropped, never clamped.
func SanePctOwned(v *float64) *float64 {
	if v == nil || *v < pctOwnedMin || *v > pctOwnedMax {
		return nil
	}
	return v
}

// SanePctChange keeps v only inside [-100, 100].
func SanePctChange(v *float64) *float64 {
	if v == nil || *v < -pctChangeMax || *v > pctChangeMax {
		return nil
	}
	return v
}

func parseIntCell(raw string) *int64 {
	if !LooksLikeNumericInt(raw) {
		return nil
	}
	if v, ok := ParseIntStrict(raw); ok {
		return &v
	}
	return nil
}

func parsePctCell(raw string) *float64 {
	if !LooksLikeNumericPct(raw) {
		return nil
	}
	if v, ok := ParsePct(raw); ok {
		return &v
	}
	return nil
}

func isBlankOrDash(raw string) bool {
	s := CleanText(raw)
	return s == "" || s == "-"
}

func intPtr(v int64) *int64 { return &v }

func floatPtr(v float64) *float64 { return &v }
