package holdings

import (
	"math"
	"sort"
	"strings"
)

// LineTolerance is the largest baseline distance, in PDF units, at which a
// fragment still joins an existing line.
const LineTolerance = 2.2

// lineScanWindow stops the backward scan over open lines.
const lineScanWindow = 3 * LineTolerance

type lineBucket struct {
	y     float64
	items []TextFragment
}

// BuildLines clusters one page's fragments into lines, top to bottom.
func BuildLines(frags []TextFragment) []Line {
	if len(frags) == 0 {
		return nil
	}

	ordered := make([]TextFragment, len(frags))
	copy(ordered, frags)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Y != ordered[j].Y {
			return ordered[i].Y > ordered[j].Y
		}
		return ordered[i].X < ordered[j].X
	})

	var buckets []*lineBucket
	for _, f := range ordered {
		var best *lineBucket
		bestDist := math.Inf(1)
		for i := len(buckets) - 1; i >= 0; i-- {
			d := math.Abs(buckets[i].y - f.Y)
			if d > lineScanWindow {
				break
			}
			if d <= LineTolerance && d < bestDist {
				best, bestDist = buckets[i], d
			}
		}
		if best == nil {
			buckets = append(buckets, &lineBucket{y: f.Y, items: []TextFragment{f}})
			continue
		}
		best.items = append(best.items, f)
		best.y += (f.Y - best.y) / float64(len(best.items))
	}

	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].y > buckets[j].y })

	lines := make([]Line, 0, len(buckets))
	for _, b := range buckets {
		sort.SliceStable(b.items, func(i, j int) bool { return b.items[i].X < b.items[j].X })
		parts := make([]string, 0, len(b.items))
		for _, it := range b.items {
			if t := CleanText(it.Text); t != "" {
				parts = append(parts, t)
			}
		}
		lines = append(lines, Line{Y: b.y, Items: b.items, Text: strings.Join(parts, " ")})
	}
	return lines
}
