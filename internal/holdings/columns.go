package holdings

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// MaxAnchorDistance is the farthest a fragment may sit from its nearest anchor
// and still be assigned to that column.
const MaxAnchorDistance = 22.0

// Column fields.
const (
	FieldTicker          = "ticker"
	FieldIssuer          = "issuer"
	FieldSekuritas       = "sekuritas"
	FieldOwner           = "owner"
	FieldRekening        = "rekening"
	FieldAddress         = "address"
	FieldCountry         = "country"
	FieldDomicile        = "domicile"
	FieldStatus          = "status"
	FieldSharesPrev      = "shares_prev"
	FieldSharesTotalPrev = "shares_total_prev"
	FieldPctPrev         = "pct_prev"
	FieldSharesCurr      = "shares_curr"
	FieldSharesTotalCurr = "shares_total_curr"
	FieldPctCurr         = "pct_curr"
	FieldChange          = "change"
)

// ColumnAnchor is the expected x position of a column's values.
type ColumnAnchor struct {
	Field string  `json:"field" mapstructure:"field"`
	X     float64 `json:"x" mapstructure:"x"`
}

// AnchorTable is a calibrated, x-sorted set of anchors for one document
// template. Anchors are not derived from header labels: a centred label can sit
// far from where the column's values land.
type AnchorTable struct {
	name    string
	anchors []ColumnAnchor
}

// NewAnchorTable validates and sorts anchors.
func NewAnchorTable(name string, anchors []ColumnAnchor) (AnchorTable, error) {
	if len(anchors) == 0 {
		return AnchorTable{}, fmt.Errorf("anchor table %q has no anchors", name)
	}
	seen := make(map[string]bool, len(anchors))
	sorted := make([]ColumnAnchor, 0, len(anchors))
	for _, a := range anchors {
		a.Field = strings.ToLower(strings.TrimSpace(a.Field))
		if a.Field == "" {
			return AnchorTable{}, fmt.Errorf("anchor table %q: empty field name", name)
		}
		if seen[a.Field] {
			return AnchorTable{}, fmt.Errorf("anchor table %q: duplicate field %q", name, a.Field)
		}
		if math.IsNaN(a.X) || math.IsInf(a.X, 0) {
			return AnchorTable{}, fmt.Errorf("anchor table %q: field %q has no finite x", name, a.Field)
		}
		seen[a.Field] = true
		sorted = append(sorted, a)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })
	return AnchorTable{name: name, anchors: sorted}, nil
}

// Name returns the template name.
func (t AnchorTable) Name() string { return t.name }

// Anchors returns a copy of the sorted anchors.
func (t AnchorTable) Anchors() []ColumnAnchor {
	out := make([]ColumnAnchor, len(t.anchors))
	copy(out, t.anchors)
	return out
}

// Nearest returns the field whose anchor is closest to x, or false when even
// the closest anchor is farther than MaxAnchorDistance.
func (t AnchorTable) Nearest(x float64) (string, bool) {
	n := len(t.anchors)
	if n == 0 {
		return "", false
	}
	i := sort.Search(n, func(i int) bool { return t.anchors[i].X >= x })

	best := -1
	bestDist := math.Inf(1)
	for _, j := range []int{i - 1, i} {
		if j < 0 || j >= n {
			continue
		}
		if d := math.Abs(t.anchors[j].X - x); d < bestDist {
			best, bestDist = j, d
		}
	}
	if best < 0 || bestDist > MaxAnchorDistance {
		return "", false
	}
	return t.anchors[best].Field, true
}

// MapCells assigns each fragment of line to its nearest column. Fragments
// that fit no column are dropped.
func (t AnchorTable) MapCells(line Line) CellMap {
	cells := make(CellMap)
	for _, it := range line.Items {
		text := CleanText(it.Text)
		if text == "" {
			continue
		}
		field, ok := t.Nearest(it.X)
		if !ok {
			continue
		}
		if prev := cells[field]; prev != "" {
			cells[field] = prev + " " + text
		} else {
			cells[field] = text
		}
	}
	return cells
}

// DefaultTemplate is the KSEI landscape "pemegang saham di atas 5%" layout.
const DefaultTemplate = "ksei-5pct"

var templates = map[string][]ColumnAnchor{
	DefaultTemplate: {
		{Field: FieldTicker, X: 24},
		{Field: FieldIssuer, X: 72},
		{Field: FieldSekuritas, X: 140},
		{Field: FieldOwner, X: 214},
		{Field: FieldRekening, X: 290},
		{Field: FieldAddress, X: 360},
		{Field: FieldCountry, X: 418},
		{Field: FieldDomicile, X: 458},
		{Field: FieldStatus, X: 496},
		{Field: FieldSharesPrev, X: 540},
		{Field: FieldSharesTotalPrev, X: 588},
		{Field: FieldPctPrev, X: 632},
		{Field: FieldSharesCurr, X: 680},
		{Field: FieldSharesTotalCurr, X: 728},
		{Field: FieldPctCurr, X: 772},
		{Field: FieldChange, X: 812},
	},
}

// Templates lists the built-in template names.
func Templates() []string {
	names := make([]string, 0, len(templates))
	for n := range templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LookupTemplate returns a built-in anchor table.
func LookupTemplate(name string) (AnchorTable, error) {
	anchors, ok := templates[name]
	if !ok {
		return AnchorTable{}, fmt.Errorf("unknown anchor template %q (known: %s)",
			name, strings.Join(Templates(), ", "))
	}
	return NewAnchorTable(name, anchors)
}

// DefaultAnchorTable returns the built-in default template.
func DefaultAnchorTable() AnchorTable {
	t, err := LookupTemplate(DefaultTemplate)
	if err != nil {
		panic(err)
	}
	return t
}
