package holdings

// TextFragment is one positioned run of text on a page. Y grows upward.
type TextFragment struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Width float64 `json:"width"`
	Text  string  `json:"text"`
}

// Line is a visual text line: fragments sharing a baseline, left to right.
type Line struct {
	Y     float64        `json:"y"`
	Items []TextFragment `json:"items"`
	Text  string         `json:"text"`
}

// CellMap holds the text of one line per semantic column.
type CellMap map[string]string

// Row is one broker-level holding line for an owner and ticker.
type Row struct {
	Ticker       string   `json:"ticker"`
	OwnerRaw     string   `json:"owner_raw"`
	SekuritasRaw string   `json:"sekuritas_raw"`
	CountryRaw   string   `json:"country_raw"`
	SharesOwned  int64    `json:"shares_owned"`
	SharesChange *int64   `json:"shares_change"`
	PctOwned     *float64 `json:"pct_owned"`
	PctChange    *float64 `json:"pct_change"`
}

// HasChange reports whether the row moved shares or percentage.
func (r Row) HasChange() bool {
	return changed(r.SharesChange, r.PctChange)
}

// GroupHint carries owner-level values seen on summary rows.
type GroupHint struct {
	PctOwned     *float64 `json:"pct_owned"`
	PctChange    *float64 `json:"pct_change"`
	SharesChange *int64   `json:"shares_change"`
}

// HasChange reports whether the hint records a movement.
func (h GroupHint) HasChange() bool {
	return changed(h.SharesChange, h.PctChange)
}

// merge overwrites h field by field with the non-nil values of o.
func (h *GroupHint) merge(o GroupHint) {
	if o.PctOwned != nil {
		h.PctOwned = o.PctOwned
	}
	if o.PctChange != nil {
		h.PctChange = o.PctChange
	}
	if o.SharesChange != nil {
		h.SharesChange = o.SharesChange
	}
}

func (h GroupHint) empty() bool {
	return h.PctOwned == nil && h.PctChange == nil && h.SharesChange == nil
}

// HintKey identifies the owner group a hint belongs to.
type HintKey struct {
	Ticker   string `json:"ticker"`
	OwnerKey string `json:"owner_key"`
}

// GroupHints maps owner groups to their accumulated hint.
type GroupHints map[HintKey]GroupHint

// Entry is a Row as shown inside an OwnerGroup.
type Entry struct {
	Sekuritas    string   `json:"sekuritas"`
	SharesOwned  int64    `json:"shares_owned"`
	SharesChange *int64   `json:"shares_change"`
	PctOwned     *float64 `json:"pct_owned"`
	PctChange    *float64 `json:"pct_change"`
}

// Total aggregates the entries of a multi-sekuritas owner.
type Total struct {
	SharesOwned  int64    `json:"shares_owned"`
	SharesChange *int64   `json:"shares_change"`
	PctOwned     *float64 `json:"pct_owned"`
	PctChange    *float64 `json:"pct_change"`
}

// OwnerGroup is every entry of one owner entity for one ticker.
type OwnerGroup struct {
	Ticker   string  `json:"ticker"`
	Owner    string  `json:"owner"`
	OwnerKey string  `json:"owner_key"`
	Country  string  `json:"country,omitempty"`
	Entries  []Entry `json:"entries"`
	Total    *Total  `json:"total,omitempty"`
}

// Extraction is the result of reading one document.
type Extraction struct {
	Rows       []Row      `json:"rows"`
	GroupHints GroupHints `json:"-"`
	Pages      int        `json:"pages"`
	Lines      int        `json:"lines"`
}

func changed(shares *int64, pct *float64) bool {
	if shares != nil && *shares != 0 {
		return true
	}
	if pct != nil && (*pct > ChangeEpsilon || *pct < -ChangeEpsilon) {
		return true
	}
	return false
}
