package holdings

import (
	"math"
	"sort"
)

// pctBucketScale rounds percentages to four decimals before voting.
const pctBucketScale = 1e4

type groupAcc struct {
	key     HintKey
	owner   string
	country string
	rows    []Row
}

// GroupAndAggregate groups rows by ticker and owner key, attaches hints and
// computes totals for owners held through more than one sekuritas. With
// onlyChanges set, groups without any movement are dropped.
func GroupAndAggregate(rows []Row, hints GroupHints, onlyChanges bool) []OwnerGroup {
	accs := make(map[HintKey]*groupAcc)
	var order []HintKey

	for _, r := range rows {
		display, key := NormalizeOwnerKey(r.OwnerRaw)
		k := HintKey{Ticker: r.Ticker, OwnerKey: key}
		acc, ok := accs[k]
		if !ok {
			acc = &groupAcc{key: k}
			accs[k] = acc
			order = append(order, k)
		}
		acc.rows = append(acc.rows, r)
		acc.owner = PreferOwnerDisplay(acc.owner, display)
		if acc.country == "" {
			acc.country = FirstLine(r.CountryRaw)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].Ticker != order[j].Ticker {
			return order[i].Ticker < order[j].Ticker
		}
		return order[i].OwnerKey < order[j].OwnerKey
	})

	groups := make([]OwnerGroup, 0, len(order))
	for _, k := range order {
		acc := accs[k]
		hint := hints[k]
		if onlyChanges && !groupChanged(acc.rows, hint) {
			continue
		}
		groups = append(groups, buildGroup(acc, hint))
	}
	return groups
}

func groupChanged(rows []Row, hint GroupHint) bool {
	if hint.HasChange() {
		return true
	}
	for _, r := range rows {
		if r.HasChange() {
			return true
		}
	}
	return false
}

func buildGroup(acc *groupAcc, hint GroupHint) OwnerGroup {
	g := OwnerGroup{
		Ticker:   acc.key.Ticker,
		Owner:    acc.owner,
		OwnerKey: acc.key.OwnerKey,
		Country:  acc.country,
		Entries:  make([]Entry, 0, len(acc.rows)),
	}
	for _, r := range acc.rows {
		sek := FirstLine(r.SekuritasRaw)
		if sek == "" {
			sek = CleanText(r.SekuritasRaw)
		}
		g.Entries = append(g.Entries, Entry{
			Sekuritas:    sek,
			SharesOwned:  r.SharesOwned,
			SharesChange: r.SharesChange,
			PctOwned:     r.PctOwned,
			PctChange:    r.PctChange,
		})
	}

	if len(g.Entries) == 1 {
		e := &g.Entries[0]
		if e.PctOwned == nil {
			e.PctOwned = hint.PctOwned
		}
		if e.PctChange == nil {
			e.PctChange = hint.PctChange
		}
		return g
	}

	total := &Total{}
	var changes []int64
	pctOwned := make([]*float64, 0, len(g.Entries)+1)
	pctChange := make([]*float64, 0, len(g.Entries)+1)
	for _, e := range g.Entries {
		total.SharesOwned += e.SharesOwned
		if e.SharesChange != nil {
			changes = append(changes, *e.SharesChange)
		}
		pctOwned = append(pctOwned, e.PctOwned)
		pctChange = append(pctChange, e.PctChange)
	}
	if len(changes) > 0 {
		var sum int64
		for _, c := range changes {
			sum += c
		}
		total.SharesChange = &sum
	}
	total.PctOwned = RobustModalPct(append(pctOwned, hint.PctOwned))
	total.PctChange = RobustModalPct(append(pctChange, hint.PctChange))
	g.Total = total
	return g
}

// RobustModalPct buckets the present values by their four-decimal rounding and
// returns the mean of the most populated bucket. Ties go to the bucket seen
// first.
func RobustModalPct(values []*float64) *float64 {
	type bucket struct {
		sum   float64
		count int
	}
	var (
		buckets = make(map[float64]*bucket)
		order   []float64
	)
	for _, v := range values {
		if v == nil {
			continue
		}
		k := math.Round(*v*pctBucketScale) / pctBucketScale
		b, ok := buckets[k]
		if !ok {
			b = &bucket{}
			buckets[k] = b
			order = append(order, k)
		}
		b.sum += *v
		b.count++
	}
	if len(order) == 0 {
		return nil
	}
	best := buckets[order[0]]
	for _, k := range order[1:] {
		if buckets[k].count > best.count {
			best = buckets[k]
		}
	}
	mean := best.sum / float64(best.count)
	return &mean
}
