package holdings

import (
	"log/slog"
	"regexp"
	"strings"
)

// FieldPctChange is an optional explicit percentage-change column. The
// built-in template has none and derives the change from the two snapshots.
const FieldPctChange = "pct_change"

var (
	tickerPattern = regexp.MustCompile(`^[A-Z]{4}$`)

	captionMarkers = []string{
		"JUMLAH SAHAM", "PERSENTASE", "SEBELUMNYA", "SAAT INI",
		"KEBANGSAAN", "NAMA PEMEGANG", "REKENING EFEK",
	}
	sectionTitles = []string{
		"PEMEGANG SAHAM DI ATAS 5%", "KEPEMILIKAN SAHAM DI ATAS 5%",
		"DAFTAR PEMEGANG SAHAM", "KEPEMILIKAN EFEK",
	}
)

// State is the carry-forward context of one document's extraction. Lines
// must be fed in page order, top to bottom.
type State struct {
	InTable             bool
	LastTicker          string
	LastOwnerByTicker   map[string]string
	LastCountryByTicker map[string]string
	GroupHints          GroupHints
}

// NewState returns an empty extraction state.
func NewState() *State {
	return &State{
		LastOwnerByTicker:   make(map[string]string),
		LastCountryByTicker: make(map[string]string),
		GroupHints:          make(GroupHints),
	}
}

func (s *State) storeHint(ticker, owner string, h GroupHint) {
	if h.empty() {
		return
	}
	_, key := NormalizeOwnerKey(owner)
	k := HintKey{Ticker: ticker, OwnerKey: key}
	cur := s.GroupHints[k]
	cur.merge(h)
	s.GroupHints[k] = cur
}

// Extractor walks a document's lines and emits holding rows.
type Extractor struct {
	anchors AnchorTable
	state   *State
	rows    []Row
	pages   int
	lines   int
	log     *slog.Logger
}

// NewExtractor creates an extractor for one document. A nil logger discards.
func NewExtractor(anchors AnchorTable, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{anchors: anchors, state: NewState(), log: logger}
}

// State exposes the carry-forward state, mainly for tests.
func (e *Extractor) State() *State { return e.state }

// AddPage builds the page's lines and feeds them in order.
func (e *Extractor) AddPage(frags []TextFragment) {
	e.pages++
	for _, line := range BuildLines(frags) {
		e.AddLine(line)
	}
}

// AddLine processes one line.
func (e *Extractor) AddLine(line Line) {
	e.lines++
	up := Norm(line.Text)
	if up == "" {
		return
	}
	if isHeaderLine(up) {
		e.state.InTable = true
		e.log.Debug("table header", "page", e.pages, "text", line.Text)
		return
	}
	if !e.state.InTable {
		return
	}
	if containsAny(up, captionMarkers) || containsAny(up, sectionTitles) {
		e.log.Debug("skip caption", "text", line.Text)
		return
	}

	cells := e.anchors.MapCells(line)
	reconcilePctAndChange(cells)
	if !hasNumericShape(cells) {
		e.log.Debug("skip non-numeric line", "text", line.Text)
		return
	}
	e.processCells(cells, line.Text)
}

// Result returns the rows and hints accumulated so far.
func (e *Extractor) Result() *Extraction {
	rows := make([]Row, len(e.rows))
	copy(rows, e.rows)
	return &Extraction{
		Rows:       rows,
		GroupHints: e.state.GroupHints,
		Pages:      e.pages,
		Lines:      e.lines,
	}
}

// ExtractPages runs one extractor over pages in order.
func ExtractPages(pages [][]TextFragment, anchors AnchorTable) *Extraction {
	e := NewExtractor(anchors, nil)
	for _, p := range pages {
		e.AddPage(p)
	}
	return e.Result()
}

func isHeaderLine(up string) bool {
	return strings.Contains(up, "KODE") &&
		(strings.Contains(up, "PEMEGANG") || strings.Contains(up, "SAHAM"))
}

func hasNumericShape(cells CellMap) bool {
	for _, v := range cells {
		if CleanText(v) == "-" || LooksLikeNumericInt(v) || LooksLikeNumericPct(v) {
			return true
		}
	}
	return false
}

// reconcilePctAndChange splits a current-percentage cell that swallowed the
// change cell ("5.25 100,000") back into the two columns.
func reconcilePctAndChange(cells CellMap) {
	pct := CleanText(cells[FieldPctCurr])
	tokens := strings.Fields(pct)
	if len(tokens) < 2 {
		return
	}
	first, last := tokens[0], tokens[len(tokens)-1]
	if !LooksLikeNumericPct(first) || !LooksLikeNumericInt(last) {
		return
	}
	cells[FieldPctCurr] = first
	if !LooksLikeNumericInt(cells[FieldChange]) {
		cells[FieldChange] = last
	}
}

func (e *Extractor) processCells(cells CellMap, text string) {
	st := e.state

	ticker, ok := resolveTicker(cells[FieldTicker], st.LastTicker)
	if !ok {
		e.log.Debug("skip line without ticker", "text", text)
		return
	}
	st.LastTicker = ticker

	owner := resolveOwner(cells, st.LastOwnerByTicker[ticker])
	if owner != "" {
		st.LastOwnerByTicker[ticker] = owner
	}

	country := CleanText(cells[FieldCountry])
	if country == "" {
		country = st.LastCountryByTicker[ticker]
	}
	if country != "" {
		st.LastCountryByTicker[ticker] = country
	}

	v := parseValues(cells)

	sekuritas := CleanText(cells[FieldSekuritas])
	if sekuritas == "" && owner != "" && v.hasPct() && v.hasShareTotal() {
		st.storeHint(ticker, owner, GroupHint{
			PctOwned:     v.pctOwned,
			PctChange:    v.pctChange,
			SharesChange: v.sharesChange,
		})
		e.log.Debug("summary row", "ticker", ticker, "owner", owner)
		return
	}

	if !v.hasSignal() || v.sharesOwned == nil {
		e.log.Debug("skip line without shares", "ticker", ticker, "text", text)
		return
	}

	row := Row{
		Ticker:       ticker,
		OwnerRaw:     owner,
		SekuritasRaw: sekuritas,
		CountryRaw:   country,
		SharesOwned:  *v.sharesOwned,
		SharesChange: v.sharesChange,
		PctOwned:     v.pctOwned,
		PctChange:    v.pctChange,
	}
	e.rows = append(e.rows, row)
	st.storeHint(ticker, owner, GroupHint{
		PctOwned:     row.PctOwned,
		PctChange:    row.PctChange,
		SharesChange: row.SharesChange,
	})
	e.log.Debug("row", "ticker", ticker, "owner", owner, "sekuritas", sekuritas, "shares", row.SharesOwned)
}

// resolveTicker accepts a four-letter code, inherits the last ticker for a
// blank cell and rejects anything else.
func resolveTicker(cell, last string) (string, bool) {
	raw := Norm(cell)
	switch {
	case tickerPattern.MatchString(raw):
		return raw, true
	case raw == "" && last != "":
		return last, true
	}
	return "", false
}

type ownerRule func(cells CellMap, cached string) string

// ownerRules run in order; the first non-empty answer wins.
var ownerRules = []ownerRule{ownerFromCell, ownerFromRekeningCell, cachedOwner}

func resolveOwner(cells CellMap, cached string) string {
	for _, rule := range ownerRules {
		if v := rule(cells, cached); v != "" {
			return v
		}
	}
	return ""
}

// ownerFromCell distrusts an account-like owner cell once an owner is known
// for the ticker: it usually absorbed text from the rekening column.
func ownerFromCell(cells CellMap, cached string) string {
	owner := CleanText(cells[FieldOwner])
	if owner != "" && cached != "" && IsAccountLike(owner) {
		return ""
	}
	return owner
}

func ownerFromRekeningCell(cells CellMap, cached string) string {
	candidate := OwnerFromRekening(cells[FieldRekening])
	if candidate == "" {
		return ""
	}
	if cached != "" && SameOwnerEntity(candidate, cached) {
		return cached
	}
	return candidate
}

func cachedOwner(_ CellMap, cached string) string {
	return cached
}

type rowValues struct {
	sharesOwned     *int64
	sharesPrev      *int64
	sharesChange    *int64
	sharesTotalCurr *int64
	sharesTotalPrev *int64
	pctOwned        *float64
	pctPrev         *float64
	pctChange       *float64
}

func (v rowValues) hasPct() bool {
	return v.pctOwned != nil || v.pctPrev != nil || v.pctChange != nil
}

func (v rowValues) hasShareTotal() bool {
	return v.sharesTotalCurr != nil || v.sharesTotalPrev != nil
}

func (v rowValues) hasSignal() bool {
	return v.sharesOwned != nil || v.sharesPrev != nil || v.sharesChange != nil || v.hasPct()
}

// shareCell returns the detail cell, or the total cell when the detail is blank.
func shareCell(cells CellMap, detail, total string) string {
	if raw := CleanText(cells[detail]); raw != "" {
		return raw
	}
	return CleanText(cells[total])
}

func parseValues(cells CellMap) rowValues {
	var v rowValues

	currRaw := shareCell(cells, FieldSharesCurr, FieldSharesTotalCurr)
	prevRaw := shareCell(cells, FieldSharesPrev, FieldSharesTotalPrev)
	v.sharesOwned = parseIntCell(currRaw)
	v.sharesPrev = parseIntCell(prevRaw)
	v.sharesTotalCurr = parseIntCell(cells[FieldSharesTotalCurr])
	v.sharesTotalPrev = parseIntCell(cells[FieldSharesTotalPrev])

	// "-" or blank on one side of a known snapshot is an explicit zero:
	// a fully sold or a newly opened holding.
	if v.sharesOwned == nil && v.sharesPrev != nil && isBlankOrDash(currRaw) {
		v.sharesOwned = intPtr(0)
	}
	if v.sharesPrev == nil && v.sharesOwned != nil && isBlankOrDash(prevRaw) {
		v.sharesPrev = intPtr(0)
	}

	v.sharesChange = parseIntCell(cells[FieldChange])
	if v.sharesChange == nil && v.sharesOwned != nil && v.sharesPrev != nil {
		v.sharesChange = intPtr(*v.sharesOwned - *v.sharesPrev)
	}

	v.pctOwned = SanePctOwned(parsePctCell(cells[FieldPctCurr]))
	pctPrevRaw := CleanText(cells[FieldPctPrev])
	v.pctPrev = SanePctOwned(parsePctCell(pctPrevRaw))
	if v.pctPrev == nil && v.pctOwned != nil && pctPrevRaw == "-" {
		v.pctPrev = floatPtr(0)
	}

	v.pctChange = SanePctChange(parsePctCell(cells[FieldPctChange]))
	if v.pctChange == nil && v.pctOwned != nil && v.pctPrev != nil {
		v.pctChange = SanePctChange(floatPtr(*v.pctOwned - *v.pctPrev))
	}
	return v
}
