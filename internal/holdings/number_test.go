package holdings

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "-", want: ""},
		{in: " - ", want: ""},
		{in: "(1,500)", want: "-1,500"},
		{in: "5.25%", want: "5.25"},
		{in: "1 000 000", want: "1000000"},
		{in: "\u2212200", want: "-200"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeNumber(tt.in))
		})
	}
}

func TestLooksLikeNumeric(t *testing.T) {
	tests := []struct {
		in      string
		wantInt bool
		wantPct bool
	}{
		{in: "-", wantInt: false, wantPct: false},
		{in: "", wantInt: false, wantPct: false},
		{in: "1,000,000", wantInt: true, wantPct: false},
		{in: "1.000.000", wantInt: true, wantPct: false},
		{in: "+500", wantInt: true, wantPct: true},
		{in: "(2.500)", wantInt: true, wantPct: true},
		{in: "5,25", wantInt: true, wantPct: true},
		{in: "5.25%", wantInt: true, wantPct: true},
		{in: "1.234,56", wantInt: true, wantPct: false},
		{in: "12a", wantInt: false, wantPct: false},
		{in: "BBCA", wantInt: false, wantPct: false},
		{in: ",5", wantInt: false, wantPct: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.wantInt, LooksLikeNumericInt(tt.in), "int")
			assert.Equal(t, tt.wantPct, LooksLikeNumericPct(tt.in), "pct")
		})
	}
}

func TestParseIntStrict(t *testing.T) {
	tests := []struct {
		in     string
		want   int64
		wantOK bool
	}{
		{in: "1,000,000", want: 1000000, wantOK: true},
		{in: "1.000.000", want: 1000000, wantOK: true},
		{in: "(2,500)", want: -2500, wantOK: true},
		{in: "-750", want: -750, wantOK: true},
		{in: "+42", want: 42, wantOK: true},
		{in: "0", want: 0, wantOK: true},
		{in: "-", wantOK: false},
		{in: "", wantOK: false},
		{in: "12x", wantOK: false},
		{in: "--5", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseIntStrict(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

// groupDigits inserts sep every three digits from the right.
func groupDigits(n int64, sep string) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	var out string
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out += sep
		}
		out += string(r)
	}
	if neg {
		return "-" + out
	}
	return out
}

func TestParseIntStrictRoundTrip(t *testing.T) {
	values := []int64{0, 7, 999, 1000, 12345, 1000000, 987654321, 1234567890123, -4500, -1000000}
	for _, n := range values {
		for _, sep := range []string{",", "."} {
			raw := groupDigits(n, sep)
			got, ok := ParseIntStrict(raw)
			require.True(t, ok, raw)
			assert.Equal(t, n, got, raw)
		}
	}
}

func TestParsePct(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{in: "5.25", want: 5.25, wantOK: true},
		{in: "5,25", want: 5.25, wantOK: true},
		{in: "1.234,56", want: 1234.56, wantOK: true},
		{in: "1,234.56", want: 1234.56, wantOK: true},
		{in: "(0,5)", want: -0.5, wantOK: true},
		{in: "-1.5%", want: -1.5, wantOK: true},
		{in: "+2", want: 2, wantOK: true},
		{in: "-", wantOK: false},
		{in: "", wantOK: false},
		{in: "abc", wantOK: false},
		{in: "1.2.3", wantOK: false},
		{in: "inf", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePct(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParsePctSingleSeparatorIsDecimal(t *testing.T) {
	for _, raw := range []string{"0.01", "12.5", "99.999", "3.14159"} {
		dot, ok := ParsePct(raw)
		require.True(t, ok)
		want, err := strconv.ParseFloat(raw, 64)
		require.NoError(t, err)
		assert.Equal(t, want, dot)

		comma, ok := ParsePct(strings.ReplaceAll(raw, ".", ","))
		require.True(t, ok)
		assert.Equal(t, want, comma)
	}
}

func TestSanePct(t *testing.T) {
	tests := []struct {
		name     string
		v        float64
		ownedOK  bool
		changeOK bool
	}{
		{name: "zero", v: 0, ownedOK: true, changeOK: true},
		{name: "hundred", v: 100, ownedOK: true, changeOK: true},
		{name: "just above hundred", v: 100.0001, ownedOK: false, changeOK: false},
		{name: "slightly negative", v: -0.0001, ownedOK: false, changeOK: true},
		{name: "minus hundred", v: -100, ownedOK: false, changeOK: true},
		{name: "below minus hundred", v: -100.01, ownedOK: false, changeOK: false},
		{name: "typical", v: 5.25, ownedOK: true, changeOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.v
			assert.Equal(t, tt.ownedOK, SanePctOwned(&v) != nil)
			assert.Equal(t, tt.changeOK, SanePctChange(&v) != nil)
			if tt.ownedOK {
				assert.Equal(t, tt.v, *SanePctOwned(&v), "never clamped")
			}
		})
	}
	assert.Nil(t, SanePctOwned(nil))
	assert.Nil(t, SanePctChange(nil))
}
