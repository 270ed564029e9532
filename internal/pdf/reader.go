package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/fivepercent/internal/holdings"
	pdferrors "github.com/a3tai/fivepercent/internal/pdf/errors"
)

const (
	// runGapFactor is the widest gap between two glyphs, as a share of the
	// font size, that still belongs to one text run.
	runGapFactor = 0.6
	// spaceGapFactor is the gap above which a space is inserted between glyphs.
	spaceGapFactor = 0.15
	// baselineSlack is the largest baseline difference inside one run.
	baselineSlack = 0.5
	// fallbackGlyphWidth estimates a glyph's advance when the font reports none.
	fallbackGlyphWidth = 0.5
)

// PageHandler receives one page's text runs. Pages arrive in order.
type PageHandler func(page int, frags []holdings.TextFragment) error

// Reader decodes the positioned text layer of a PDF.
type Reader struct {
	maxFileSize int64
	log         *slog.Logger
}

// NewReader creates a new PDF reader with the specified constraints
func NewReader(maxFileSize int64, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reader{maxFileSize: maxFileSize, log: logger}
}

// ReadPages decodes data and hands each page's text runs to fn, page 1
// first. Any failure of the text layer, including a panic inside the
// decoder, is reported as an unreadable document.
func (r *Reader) ReadPages(ctx context.Context, data []byte, fn PageHandler) (pages int, err error) {
	if int64(len(data)) > r.maxFileSize {
		return 0, pdferrors.NewPDFError(pdferrors.ErrorTypeFileTooLarge,
			fmt.Sprintf("document too large: %d bytes (max: %d bytes)", len(data), r.maxFileSize))
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF")) {
		return 0, pdferrors.NewPDFError(pdferrors.ErrorTypeUnreadableDocument, "missing %PDF header")
	}

	page := 0
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Debug("text layer panic", "page", page, "panic", rec)
			err = pdferrors.NewPDFError(pdferrors.ErrorTypeUnreadableDocument,
				fmt.Sprintf("text layer decoder failed: %v", rec)).WithPage(page)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, pdferrors.WrapError(pdferrors.ErrorTypeUnreadableDocument, err)
	}

	total := doc.NumPage()
	for page = 1; page <= total; page++ {
		if err := ctx.Err(); err != nil {
			return pages, pdferrors.WrapError(pdferrors.ErrorTypeTimeout, err).WithPage(page)
		}
		p := doc.Page(page)
		if p.V.IsNull() {
			continue
		}
		frags := mergeRuns(p.Content().Text)
		r.log.Debug("page decoded", "page", page, "runs", len(frags))
		if err := fn(page, frags); err != nil {
			return pages, err
		}
		pages++
	}
	return pages, nil
}

// mergeRuns joins the decoder's per-glyph output into text runs: glyphs on
// the same baseline separated by less than runGapFactor of the font size.
// Each run keeps the x of its first glyph.
func mergeRuns(glyphs []pdf.Text) []holdings.TextFragment {
	var (
		out  []holdings.TextFragment
		cur  strings.Builder
		run  holdings.TextFragment
		end  float64
		size float64
		open bool
	)
	flush := func() {
		if !open {
			return
		}
		run.Text = strings.TrimSpace(cur.String())
		run.Width = end - run.X
		if run.Text != "" {
			out = append(out, run)
		}
		cur.Reset()
		open = false
	}

	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		w := g.W
		if w <= 0 {
			w = g.FontSize * fallbackGlyphWidth * float64(utf8.RuneCountInString(g.S))
		}
		em := math.Max(g.FontSize, size)
		if em <= 0 {
			em = 1
		}

		if open {
			gap := g.X - end
			sameLine := math.Abs(g.Y-run.Y) <= baselineSlack*em
			if !sameLine || gap > runGapFactor*em || gap < -em {
				flush()
			} else if gap > spaceGapFactor*em && !strings.HasSuffix(cur.String(), " ") {
				cur.WriteByte(' ')
			}
		}
		if !open {
			if strings.TrimSpace(g.S) == "" {
				continue
			}
			run = holdings.TextFragment{X: g.X, Y: g.Y}
			size = g.FontSize
			end = g.X + w
			open = true
		} else {
			end = math.Max(end, g.X+w)
		}
		cur.WriteString(g.S)
	}
	flush()
	return out
}
