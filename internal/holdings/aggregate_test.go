package holdings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRobustModalPct(t *testing.T) {
	tests := []struct {
		name   string
		values []*float64
		want   *float64
	}{
		{name: "empty", values: nil, want: nil},
		{name: "all nil", values: []*float64{nil, nil}, want: nil},
		{name: "single", values: []*float64{floatPtr(5.5)}, want: floatPtr(5.5)},
		{name: "majority wins", values: []*float64{floatPtr(7), floatPtr(5), floatPtr(5), nil}, want: floatPtr(5)},
		{name: "tie goes to first seen", values: []*float64{floatPtr(7), floatPtr(5)}, want: floatPtr(7)},
		{name: "bucket mean", values: []*float64{floatPtr(5.00001), floatPtr(4.99999), floatPtr(6)}, want: floatPtr(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RobustModalPct(tt.values)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestGroupAndAggregate_MultiSekuritasTotal(t *testing.T) {
	rows := []Row{
		{
			Ticker: "BBCA", OwnerRaw: "PT Maju Jaya", SekuritasRaw: "ABC Sekuritas", CountryRaw: "Indonesia\nJakarta",
			SharesOwned: 1_000_000, SharesChange: intPtr(50_000), PctOwned: floatPtr(10), PctChange: floatPtr(0.5),
		},
		{
			Ticker: "BBCA", OwnerRaw: "Maju Jaya", SekuritasRaw: "DEF Sekuritas\n001-22",
			SharesOwned: 500_000, SharesChange: intPtr(30_000), PctOwned: floatPtr(10), PctChange: floatPtr(0.5),
		},
	}

	groups := GroupAndAggregate(rows, nil, true)
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, "BBCA", g.Ticker)
	assert.Equal(t, "PT Maju Jaya", g.Owner)
	assert.Equal(t, "MAJU JAYA", g.OwnerKey)
	assert.Equal(t, "Indonesia", g.Country)

	require.Len(t, g.Entries, 2)
	assert.Equal(t, "ABC Sekuritas", g.Entries[0].Sekuritas)
	assert.Equal(t, "DEF Sekuritas", g.Entries[1].Sekuritas)

	require.NotNil(t, g.Total)
	assert.Equal(t, int64(1_500_000), g.Total.SharesOwned)
	require.NotNil(t, g.Total.SharesChange)
	assert.Equal(t, int64(80_000), *g.Total.SharesChange)
	assert.InDelta(t, 10.0, *g.Total.PctOwned, 1e-9)
	assert.InDelta(t, 0.5, *g.Total.PctChange, 1e-9)
}

func TestGroupAndAggregate_TotalUsesHintAndNullChanges(t *testing.T) {
	rows := []Row{
		{Ticker: "TLKM", OwnerRaw: "Budi", SekuritasRaw: "A", SharesOwned: 10, PctOwned: floatPtr(6)},
		{Ticker: "TLKM", OwnerRaw: "Budi", SekuritasRaw: "B", SharesOwned: 20, PctOwned: floatPtr(7)},
	}
	hints := GroupHints{
		{Ticker: "TLKM", OwnerKey: "BUDI"}: {PctOwned: floatPtr(7), SharesChange: intPtr(5)},
	}

	groups := GroupAndAggregate(rows, hints, true)
	require.Len(t, groups, 1, "hint change keeps the group")
	total := groups[0].Total
	require.NotNil(t, total)
	assert.Nil(t, total.SharesChange)
	assert.InDelta(t, 7.0, *total.PctOwned, 1e-9)
	assert.Nil(t, total.PctChange)
}

func TestGroupAndAggregate_OnlyChanges(t *testing.T) {
	rows := []Row{
		{Ticker: "BBCA", OwnerRaw: "Still", SekuritasRaw: "A", SharesOwned: 10, SharesChange: intPtr(0), PctChange: floatPtr(0)},
		{Ticker: "BBCA", OwnerRaw: "Mover", SekuritasRaw: "A", SharesOwned: 10, SharesChange: intPtr(0), PctChange: floatPtr(0.01)},
	}

	changed := GroupAndAggregate(rows, nil, true)
	require.Len(t, changed, 1)
	assert.Equal(t, "Mover", changed[0].Owner)

	all := GroupAndAggregate(rows, nil, false)
	assert.Len(t, all, 2)
}

func TestGroupAndAggregate_ChangeEpsilonBoundary(t *testing.T) {
	tests := []struct {
		name      string
		pctChange float64
		kept      bool
	}{
		{name: "zero", pctChange: 0, kept: false},
		{name: "at epsilon", pctChange: ChangeEpsilon, kept: false},
		{name: "at negative epsilon", pctChange: -ChangeEpsilon, kept: false},
		{name: "above epsilon", pctChange: 1.5e-12, kept: true},
		{name: "below negative epsilon", pctChange: -1.5e-12, kept: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := []Row{{
				Ticker: "BBCA", OwnerRaw: "PT Maju Jaya", SekuritasRaw: "A",
				SharesOwned: 10, SharesChange: intPtr(0), PctChange: floatPtr(tt.pctChange),
			}}
			groups := GroupAndAggregate(rows, nil, true)
			if tt.kept {
				assert.Len(t, groups, 1)
			} else {
				assert.Empty(t, groups)
			}
		})
	}
}

func TestGroupAndAggregate_HintChangeKeepsUnchangedRows(t *testing.T) {
	rows := []Row{
		{Ticker: "ASII", OwnerRaw: "PT Maju Jaya", SekuritasRaw: "A", SharesOwned: 100, SharesChange: intPtr(0), PctChange: floatPtr(0)},
		{Ticker: "ASII", OwnerRaw: "Maju Jaya", SekuritasRaw: "B", SharesOwned: 50, SharesChange: intPtr(0), PctChange: floatPtr(0)},
	}
	key := HintKey{Ticker: "ASII", OwnerKey: "MAJU JAYA"}

	assert.Empty(t, GroupAndAggregate(rows, GroupHints{key: {PctChange: floatPtr(ChangeEpsilon)}}, true))

	groups := GroupAndAggregate(rows, GroupHints{key: {PctChange: floatPtr(0.02)}}, true)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Entries, 2)
}

func TestGroupAndAggregate_SortsByTickerThenKey(t *testing.T) {
	rows := []Row{
		{Ticker: "BBRI", OwnerRaw: "Alpha", SharesOwned: 1, SharesChange: intPtr(1)},
		{Ticker: "BBCA", OwnerRaw: "Zeta", SharesOwned: 1, SharesChange: intPtr(1)},
		{Ticker: "BBCA", OwnerRaw: "Alpha", SharesOwned: 1, SharesChange: intPtr(1)},
	}
	groups := GroupAndAggregate(rows, nil, true)
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"BBCA/ALPHA", "BBCA/ZETA", "BBRI/ALPHA"}, []string{
		groups[0].Ticker + "/" + groups[0].OwnerKey,
		groups[1].Ticker + "/" + groups[1].OwnerKey,
		groups[2].Ticker + "/" + groups[2].OwnerKey,
	})
}

func TestGroupAndAggregate_SingleEntryFillsFromHint(t *testing.T) {
	rows := []Row{
		{Ticker: "ASII", OwnerRaw: "PT Maju Jaya", SekuritasRaw: "A", SharesOwned: 100, SharesChange: intPtr(10)},
	}
	hints := GroupHints{
		{Ticker: "ASII", OwnerKey: "MAJU JAYA"}: {PctOwned: floatPtr(7.5), PctChange: floatPtr(0.1)},
	}
	groups := GroupAndAggregate(rows, hints, true)
	require.Len(t, groups, 1)
	assert.Nil(t, groups[0].Total)
	e := groups[0].Entries[0]
	assert.InDelta(t, 7.5, *e.PctOwned, 1e-9)
	assert.InDelta(t, 0.1, *e.PctChange, 1e-9)
}

func TestGroupAndAggregate_Empty(t *testing.T) {
	assert.Empty(t, GroupAndAggregate(nil, nil, true))
}
