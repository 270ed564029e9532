// Package pdftest builds small disclosure PDFs for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a3tai/fivepercent/internal/holdings"
)

// Placed is one text show at an absolute position on a page.
type Placed struct {
	X, Y float64
	Text string
}

// Build returns a landscape, uncompressed PDF with one Helvetica show
// operation per placed item. Each argument is one page.
func Build(pages ...[]Placed) []byte {
	var objects []string
	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}

	catalog := add("") // patched once the page tree exists
	tree := add("")
	font := add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var kids []string
	for _, items := range pages {
		var content strings.Builder
		for _, it := range items {
			fmt.Fprintf(&content, "BT /F1 8 Tf 1 0 0 1 %.2f %.2f Tm (%s) Tj ET\n", it.X, it.Y, escape(it.Text))
		}
		stream := content.String()
		contents := add(fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))
		page := add(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 842 595] "+
			"/Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", tree, font, contents))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}
	objects[catalog-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", tree)
	objects[tree-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, catalog, xref)
	return buf.Bytes()
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(s)
}

// AnchorRow places cells at the default template's column anchors.
func AnchorRow(y float64, cells map[string]string) []Placed {
	var out []Placed
	for _, a := range holdings.DefaultAnchorTable().Anchors() {
		if text, ok := cells[a.Field]; ok {
			out = append(out, Placed{X: a.X, Y: y, Text: text})
		}
	}
	return out
}

// Header is the table header line that switches extraction on.
func Header(y float64) []Placed {
	return []Placed{
		{X: 24, Y: y, Text: "Kode Efek"},
		{X: 214, Y: y, Text: "Nama Pemegang Saham"},
	}
}

// Disclosure is a one-page report with a header and two detail rows for one
// owner held through two sekuritas. Combined holding goes from 1,500,000 to
// 1,580,000 shares; the owner's percentage goes from 10,00 to 10,25.
func Disclosure() []byte {
	var items []Placed
	items = append(items, Placed{X: 24, Y: 560, Text: "Kepemilikan Saham di Atas 5%"})
	items = append(items, Header(540)...)
	items = append(items, AnchorRow(520, map[string]string{
		holdings.FieldTicker:     "BBCA",
		holdings.FieldSekuritas:  "ABC Sekuritas",
		holdings.FieldOwner:      "PT Test Investama",
		holdings.FieldCountry:    "Indonesia",
		holdings.FieldSharesPrev: "1.000.000",
		holdings.FieldPctPrev:    "10,00",
		holdings.FieldSharesCurr: "1.100.000",
		holdings.FieldPctCurr:    "10,25",
	})...)
	items = append(items, AnchorRow(500, map[string]string{
		holdings.FieldSekuritas:  "DEF Sekuritas",
		holdings.FieldOwner:      "Test Investama",
		holdings.FieldSharesPrev: "500.000",
		holdings.FieldPctPrev:    "10,00",
		holdings.FieldSharesCurr: "480.000",
		holdings.FieldPctCurr:    "10,25",
	})...)
	return Build(items)
}

// WriteFile writes data to dir/name and returns the path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}
