package holdings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLines_Empty(t *testing.T) {
	assert.Nil(t, BuildLines(nil))
}

func TestBuildLines_GroupsAndOrders(t *testing.T) {
	frags := []TextFragment{
		{X: 300, Y: 95, Text: "second"},
		{X: 30, Y: 100, Text: "ABC"},
		{X: 10, Y: 101.5, Text: "PT"},
		{X: 10, Y: 95, Text: "line"},
	}

	lines := BuildLines(frags)
	require.Len(t, lines, 2)
	assert.Equal(t, "PT ABC", lines[0].Text)
	assert.Equal(t, "line second", lines[1].Text)
	assert.Greater(t, lines[0].Y, lines[1].Y)
	assert.Equal(t, 10.0, lines[0].Items[0].X)
	assert.Equal(t, 30.0, lines[0].Items[1].X)
}

func TestBuildLines_ToleranceBoundary(t *testing.T) {
	tests := []struct {
		name      string
		upper     float64
		lower     float64
		wantLines int
	}{
		{name: "exactly at tolerance", upper: LineTolerance, lower: 0, wantLines: 1},
		{name: "just inside", upper: 102.1, lower: 100, wantLines: 1},
		{name: "just outside", upper: 102.3, lower: 100, wantLines: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := BuildLines([]TextFragment{
				{X: 10, Y: tt.upper, Text: "a"},
				{X: 50, Y: tt.lower, Text: "b"},
			})
			assert.Len(t, lines, tt.wantLines)
		})
	}
}

func TestBuildLines_RunningAverageDrift(t *testing.T) {
	// 97.2 is 2.8 below the first fragment but within tolerance of the
	// running mean (99.25) once 98.5 has joined.
	lines := BuildLines([]TextFragment{
		{X: 10, Y: 100, Text: "a"},
		{X: 50, Y: 98.5, Text: "b"},
		{X: 90, Y: 97.2, Text: "c"},
	})
	require.Len(t, lines, 1)
	assert.Equal(t, "a b c", lines[0].Text)
}

func TestBuildLines_MatchesAgainstLineMean(t *testing.T) {
	// "bottom" is 1.6 below "mid" but 2.55 below the merged line.
	lines := BuildLines([]TextFragment{
		{X: 10, Y: 104, Text: "top"},
		{X: 10, Y: 100.5, Text: "bottom"},
		{X: 50, Y: 102.1, Text: "mid"},
	})
	require.Len(t, lines, 2)
	assert.Equal(t, "top mid", lines[0].Text)
	assert.Equal(t, "bottom", lines[1].Text)
}

func TestBuildLines_Deterministic(t *testing.T) {
	frags := []TextFragment{
		{X: 5, Y: 700, Text: "KODE"},
		{X: 200, Y: 700.8, Text: "PEMEGANG"},
		{X: 24, Y: 680, Text: "BBCA"},
		{X: 214, Y: 679.1, Text: "PT ABC"},
		{X: 680, Y: 680.4, Text: "1,000"},
		{X: 24, Y: 660, Text: "BBRI"},
	}
	first := BuildLines(frags)
	second := BuildLines(frags)
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
}

func TestBuildLines_SkipsBlankText(t *testing.T) {
	lines := BuildLines([]TextFragment{
		{X: 10, Y: 50, Text: "A"},
		{X: 20, Y: 50, Text: "   "},
		{X: 30, Y: 50, Text: "B"},
	})
	require.Len(t, lines, 1)
	assert.Equal(t, "A B", lines[0].Text)
	assert.Len(t, lines[0].Items, 3)
}
