package holdings

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// OwnerMatchThreshold is the minimum share of the smaller token set that must
// appear in the other for two owner names to be one entity.
const OwnerMatchThreshold = 0.75

const (
	maxFallbackOwnerLen   = 80
	maxFallbackOwnerWords = 10
)

var (
	nonOwnerChars = regexp.MustCompile(`[^A-Z0-9 ]+`)
	qqMarker      = regexp.MustCompile(`(?i)(^|[^A-Za-z])Q\.?\s?Q\.?($|[^A-Za-z])`)
	rekeningTail  = regexp.MustCompile(`(?i)(A/C|S/A|A\.C\.)`)

	accountMarkers = []string{"S/A", "A/C", "TRUST", "OMNIBUS", "CUSTODY", "CLIENT", "REGISTRAR", "ODD LOTS"}

	honorifics = map[string]bool{"DRS": true, "DR": true, "IR": true, "PROF": true, "H": true, "HJ": true}

	ownerAbbreviations = map[string]string{"INTL": "INTERNATIONAL", "HOLDINGS": "HOLDING"}

	ownerNoiseTokens = map[string]bool{
		"AND": true,
		"PT":  true, "TBK": true, "LTD": true, "LIMITED": true, "PTE": true,
		"PLC": true, "CO": true, "CORP": true, "INC": true,
		"QQ": true, "CLIENT": true, "CUSTODY": true, "FIRM": true, "AC": true,
	}
)

// IsAccountLike reports whether s reads like a securities-account caption
// rather than an owner name.
func IsAccountLike(s string) bool {
	return containsAny(Norm(s), accountMarkers)
}

// CanonicalOwnerName upper-cases s, drops punctuation and honorifics and
// collapses whitespace.
func CanonicalOwnerName(s string) string {
	up := nonOwnerChars.ReplaceAllString(Norm(s), " ")
	fields := strings.Fields(up)
	kept := fields[:0]
	for _, f := range fields {
		if !honorifics[f] {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// OwnerEntityTokens returns the identity-bearing tokens of an owner name:
// abbreviations expanded, legal forms and account noise removed.
func OwnerEntityTokens(s string) []string {
	var tokens []string
	for _, f := range strings.Fields(CanonicalOwnerName(s)) {
		if full, ok := ownerAbbreviations[f]; ok {
			f = full
		}
		if ownerNoiseTokens[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// SameOwnerEntity reports whether a and b name the same owner. Identical
// canonical forms match; otherwise the token overlap over the smaller token
// set must reach OwnerMatchThreshold.
func SameOwnerEntity(a, b string) bool {
	ca, cb := CanonicalOwnerName(a), CanonicalOwnerName(b)
	if ca == "" || cb == "" {
		return false
	}
	if ca == cb {
		return true
	}
	ta, tb := tokenSet(OwnerEntityTokens(a)), tokenSet(OwnerEntityTokens(b))
	if len(ta) == 0 || len(tb) == 0 {
		return false
	}
	small, large := ta, tb
	if len(small) > len(large) {
		small, large = large, small
	}
	overlap := 0
	for t := range small {
		if large[t] {
			overlap++
		}
	}
	return float64(overlap)/float64(len(small)) >= OwnerMatchThreshold
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// NormalizeOwnerKey returns the display form and grouping key of a raw owner
// cell.
func NormalizeOwnerKey(ownerRaw string) (display, key string) {
	display = FirstLine(ownerRaw)
	if display == "" {
		display = CleanText(ownerRaw)
	}
	if tokens := OwnerEntityTokens(display); len(tokens) > 0 {
		return display, strings.Join(tokens, " ")
	}
	return display, CanonicalOwnerName(display)
}

// OwnerDisplayScore ranks how presentable an owner string is.
func OwnerDisplayScore(s string) int {
	up := Norm(s)
	score := 0
	if up == "PT" || strings.HasPrefix(up, "PT ") || strings.HasPrefix(up, "PT.") {
		score += 4
	}
	if strings.Contains(up, "TBK") {
		score += 2
	}
	if !IsAccountLike(up) {
		score += 2
	}
	if !strings.Contains(up, "QQ") {
		score++
	}
	return score
}

// PreferOwnerDisplay picks the better display string of two names for the
// same group; on equal score the longer one wins, then the current one.
func PreferOwnerDisplay(current, candidate string) string {
	switch {
	case candidate == "":
		return current
	case current == "":
		return candidate
	}
	cs, ns := OwnerDisplayScore(current), OwnerDisplayScore(candidate)
	if ns != cs {
		if ns > cs {
			return candidate
		}
		return current
	}
	if utf8.RuneCountInString(candidate) > utf8.RuneCountInString(current) {
		return candidate
	}
	return current
}

// OwnerFromRekening recovers a beneficial owner name that leaked into the
// account column: the text after a QQ marker, cut at the first account suffix.
// Without a QQ marker the whole cell must be free of account markers, so a
// custodian prefix is never taken for an owner. It returns "" when the result
// does not look like a name.
func OwnerFromRekening(rekening string) string {
	s := CleanText(rekening)
	if s == "" {
		return ""
	}
	if loc := qqMarker.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
	} else if IsAccountLike(s) {
		return ""
	}
	if loc := rekeningTail.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	s = strings.Trim(CleanText(s), " -,.:;")
	if !plausibleOwnerName(s) {
		return ""
	}
	return s
}

func plausibleOwnerName(s string) bool {
	if s == "" || !hasLetter(s) {
		return false
	}
	if utf8.RuneCountInString(s) > maxFallbackOwnerLen {
		return false
	}
	if len(strings.Fields(s)) > maxFallbackOwnerWords {
		return false
	}
	return !IsAccountLike(s)
}
