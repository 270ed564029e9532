package holdings

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	labelWidth  = 21
	ruleWidth   = 60
	tinyPctStep = 0.005
)

var numberPrinter = message.NewPrinter(language.English)

// FormatShares renders a share count with "," grouping.
func FormatShares(n int64) string {
	return numberPrinter.Sprintf("%d", n)
}

// FormatSharesChange renders a signed share delta, or "-" for null.
func FormatSharesChange(v *int64) string {
	if v == nil {
		return "-"
	}
	n := *v
	if n < 0 {
		return "-" + numberPrinter.Sprintf("%d", -n)
	}
	return "+" + numberPrinter.Sprintf("%d", n)
}

// FormatPct renders an ownership percentage, or "-" for null.
func FormatPct(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

// FormatPctChange renders a signed percentage delta. Movements too small to
// show at two decimals print as "+<0.01%" or "-<0.01%"; an exact zero borrows
// its sign from the share change when shares moved.
func FormatPctChange(v *float64, sharesChange *int64) string {
	if v == nil {
		return "-"
	}
	x := *v
	if math.Abs(x) <= ChangeEpsilon {
		if sharesChange != nil && *sharesChange != 0 {
			if *sharesChange > 0 {
				return "+<0.01%"
			}
			return "-<0.01%"
		}
		return "No Change"
	}
	if math.Abs(x) < tinyPctStep {
		if x > 0 {
			return "+<0.01%"
		}
		return "-<0.01%"
	}
	return fmt.Sprintf("%+.2f%%", x)
}

type reportWriter struct {
	w   io.Writer
	err error
}

func (rw *reportWriter) line(indent, label, value string) {
	if rw.err != nil {
		return
	}
	if label == "" {
		_, rw.err = fmt.Fprintf(rw.w, "%s%s\n", indent, value)
		return
	}
	_, rw.err = fmt.Fprintf(rw.w, "%s%-*s%s\n", indent, labelWidth-len(indent), label, value)
}

func (rw *reportWriter) blank() {
	if rw.err == nil {
		_, rw.err = io.WriteString(rw.w, "\n")
	}
}

// WriteReport prints groups as indented plain text, one metric per line.
func WriteReport(w io.Writer, groups []OwnerGroup) error {
	rw := &reportWriter{w: w}
	for _, g := range groups {
		rw.line("", "Ticker:", g.Ticker)
		rw.line("", "Owner:", g.Owner)
		if g.Country != "" {
			rw.line("", "Country:", g.Country)
		}
		rw.blank()

		multi := len(g.Entries) > 1
		for _, e := range g.Entries {
			sek := e.Sekuritas
			if sek == "" {
				sek = "-"
			}
			rw.line("  ", "Sekuritas:", sek)
			rw.line("  ", "Shares Owned:", FormatShares(e.SharesOwned))
			rw.line("  ", "Shares Change:", FormatSharesChange(e.SharesChange))
			if multi {
				rw.line("  ", "Percentage Owned:", "-")
				rw.line("  ", "Percentage Change:", "-")
			} else {
				rw.line("  ", "Percentage Owned:", FormatPct(e.PctOwned))
				rw.line("  ", "Percentage Change:", FormatPctChange(e.PctChange, e.SharesChange))
			}
			rw.blank()
		}

		if g.Total != nil {
			rw.line("  ", "", "TOTAL (all sekuritas for this owner)")
			rw.line("  ", "Shares Owned:", FormatShares(g.Total.SharesOwned))
			rw.line("  ", "Shares Change:", FormatSharesChange(g.Total.SharesChange))
			rw.line("  ", "Percentage Owned:", FormatPct(g.Total.PctOwned))
			rw.line("  ", "Percentage Change:", FormatPctChange(g.Total.PctChange, g.Total.SharesChange))
			rw.blank()
		}

		rw.line("", "", strings.Repeat("-", ruleWidth))
	}
	return rw.err
}

// WriteJSON prints groups as indented JSON.
func WriteJSON(w io.Writer, groups []OwnerGroup) error {
	if groups == nil {
		groups = []OwnerGroup{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(groups)
}
