// Package pdftable reads shift rosters printed as PDF tables: one row per
// employee, one column per day, with dd/mm day headers.
package pdftable

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/shifts-tracker/internal/common"
)

// Item is one run of text on a page in PDF user space (origin bottom-left,
// Y grows upwards).
type Item struct {
	Text   string
	X, Y   float64
	Width  float64
	Height float64
	Page   int
}

// ReadItems extracts positioned text runs from every page. A PDF without a
// text layer yields no items and no error.
func ReadItems(data []byte) (items []Item, err error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, common.NewAppError("DECODE_ERROR", fmt.Sprintf("open pdf: %v", err), common.ErrDecode)
	}

	// the content stream parser panics on malformed input
	defer func() {
		if rec := recover(); rec != nil {
			items = nil
			err = common.NewAppError("DECODE_ERROR", fmt.Sprintf("read pdf content: %v", rec), common.ErrDecode)
		}
	}()

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		items = append(items, mergeGlyphs(p.Content().Text, i)...)
	}
	return items, nil
}

// mergeGlyphs joins the glyphs of one page into runs: glyphs on the same
// baseline separated by less than half an em belong to the same run.
func mergeGlyphs(glyphs []pdf.Text, page int) []Item {
	if len(glyphs) == 0 {
		return nil
	}
	gs := make([]pdf.Text, len(glyphs))
	copy(gs, glyphs)
	sort.SliceStable(gs, func(i, j int) bool {
		if math.Abs(gs[i].Y-gs[j].Y) > sameLine(gs[i]) {
			return gs[i].Y > gs[j].Y
		}
		return gs[i].X < gs[j].X
	})

	var (
		out []Item
		cur *Item
		b   strings.Builder
		fs  float64
	)
	flush := func() {
		if cur == nil {
			return
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			cur.Text = text
			out = append(out, *cur)
		}
		cur = nil
		b.Reset()
	}
	for _, g := range gs {
		w := g.W
		if w <= 0 {
			w = 0.5 * g.FontSize * float64(len([]rune(g.S)))
		}
		if cur != nil {
			gap := g.X - (cur.X + cur.Width)
			if math.Abs(g.Y-cur.Y) > sameLine(g) || gap > wordGap(fs) {
				flush()
			}
		}
		if cur == nil {
			cur = &Item{X: g.X, Y: g.Y, Width: w, Height: g.FontSize, Page: page}
			fs = g.FontSize
			b.WriteString(g.S)
			continue
		}
		b.WriteString(g.S)
		cur.Width = math.Max(cur.Width, g.X+w-cur.X)
		cur.Height = math.Max(cur.Height, g.FontSize)
	}
	flush()
	return out
}

func sameLine(g pdf.Text) float64 { return math.Max(1, g.FontSize*0.3) }

func wordGap(fontSize float64) float64 { return math.Max(1.5, fontSize*0.5) }
