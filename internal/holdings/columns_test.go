package holdings

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnchorTable(t *testing.T) {
	table, err := NewAnchorTable("test", []ColumnAnchor{
		{Field: "c", X: 300},
		{Field: " A ", X: 100},
		{Field: "b", X: 200},
	})
	require.NoError(t, err)
	assert.Equal(t, "test", table.Name())
	assert.Equal(t, []ColumnAnchor{{Field: "a", X: 100}, {Field: "b", X: 200}, {Field: "c", X: 300}}, table.Anchors())

	_, err = NewAnchorTable("empty", nil)
	assert.Error(t, err)

	_, err = NewAnchorTable("dup", []ColumnAnchor{{Field: "a", X: 1}, {Field: "A", X: 2}})
	assert.Error(t, err)

	_, err = NewAnchorTable("blank", []ColumnAnchor{{Field: " ", X: 1}})
	assert.Error(t, err)

	_, err = NewAnchorTable("nan", []ColumnAnchor{{Field: "a", X: math.NaN()}})
	assert.Error(t, err)
}

func TestAnchorTable_Nearest(t *testing.T) {
	table, err := NewAnchorTable("test", []ColumnAnchor{
		{Field: "left", X: 100},
		{Field: "right", X: 120},
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		x      float64
		want   string
		wantOK bool
	}{
		{name: "on anchor", x: 100, want: "left", wantOK: true},
		{name: "nearer right", x: 115, want: "right", wantOK: true},
		{name: "tie goes left", x: 110, want: "left", wantOK: true},
		{name: "exactly max distance", x: 142, want: "right", wantOK: true},
		{name: "past max distance", x: 142.5, wantOK: false},
		{name: "far left at max distance", x: 78, want: "left", wantOK: true},
		{name: "far left beyond", x: 77.5, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.Nearest(tt.x)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnchorTable_MapCells(t *testing.T) {
	table := DefaultAnchorTable()
	line := Line{Items: []TextFragment{
		{X: 22, Text: "BBCA"},
		{X: 205, Text: "PT"},
		{X: 220, Text: "Test Investama"},
		{X: 600, Text: "1,000"},
		{X: 860, Text: "stray"},
	}}

	cells := table.MapCells(line)
	assert.Equal(t, "BBCA", cells[FieldTicker])
	assert.Equal(t, "PT Test Investama", cells[FieldOwner])
	assert.Equal(t, "1,000", cells[FieldSharesTotalPrev])
	assert.Len(t, cells, 3, "fragment beyond the last anchor is dropped")
}

func TestLookupTemplate(t *testing.T) {
	table, err := LookupTemplate(DefaultTemplate)
	require.NoError(t, err)
	anchors := table.Anchors()
	require.Len(t, anchors, 16)
	for i := 1; i < len(anchors); i++ {
		assert.Less(t, anchors[i-1].X, anchors[i].X)
	}

	_, err = LookupTemplate("nope")
	assert.ErrorContains(t, err, DefaultTemplate)
	assert.Contains(t, Templates(), DefaultTemplate)
}
