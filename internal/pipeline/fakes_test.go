package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/shifts-tracker/internal/ocr"
	"github.com/joseph-ayodele/shifts-tracker/internal/pdftable"
	"github.com/joseph-ayodele/shifts-tracker/internal/preprocess"
	"github.com/joseph-ayodele/shifts-tracker/internal/vision"
)

// March 2025 starts on a Saturday, so day 1 sits in the sixth column.
const (
	pageWidth  = 700
	pageHeight = 600
	marchStart = 5
)

func fixedClock() time.Time { return time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC) }

// cellCenter returns the day-number position of a March 2025 day on the
// synthetic page: 100px columns, 90px rows.
func cellCenter(day int) (x, y float64) {
	idx := marchStart + day - 1
	return 50 + 100*float64(idx%7), 60 + 90*float64(idx/7)
}

func word(text string, cx, cy, w, h float64) ocr.Word {
	return ocr.Word{Text: text, X: cx - w/2, Y: cy - h/2, Width: w, Height: h, Confidence: 90}
}

// calendarWords lays out every day number plus two complete shifts.
func calendarWords() []ocr.Word {
	var words []ocr.Word
	for day := 1; day <= 31; day++ {
		x, y := cellCenter(day)
		words = append(words, word(strconv.Itoa(day), x, y, 16, 14))
	}
	x, y := cellCenter(3)
	words = append(words, word("08:00", x, y+25, 40, 14), word("16:00", x, y+45, 40, 14))
	x, y = cellCenter(4)
	words = append(words, word("O9:00", x, y+25, 40, 14), word("17:00", x, y+45, 40, 14))
	return words
}

// fakeRecognizer answers only for the full-frame variants, which are the
// page upscaled twice; every other raster reads as blank.
type fakeRecognizer struct {
	words []ocr.Word
	text  string
	err   error
	calls atomic.Int32
}

func (f *fakeRecognizer) Recognize(ctx context.Context, data []byte) (ocr.Result, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}
	if f.err != nil {
		return ocr.Result{}, f.err
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ocr.Result{}, err
	}
	if cfg.Width != 2*pageWidth || cfg.Height != 2*pageHeight {
		return ocr.Result{}, nil
	}
	out := make([]ocr.Word, 0, len(f.words))
	for _, w := range f.words {
		w.X, w.Y, w.Width, w.Height = 2*w.X, 2*w.Y, 2*w.Width, 2*w.Height
		out = append(out, w)
	}
	return ocr.Result{Text: f.text, Words: out}, nil
}

// cancelOnCellCrop cancels the import as soon as the first cell crop is
// recognized, after the full-page passes already produced a grid.
type cancelOnCellCrop struct {
	inner  *fakeRecognizer
	cancel context.CancelFunc
	once   sync.Once
}

func (c *cancelOnCellCrop) Recognize(ctx context.Context, data []byte) (ocr.Result, error) {
	if cfg, err := png.DecodeConfig(bytes.NewReader(data)); err == nil && cfg.Width != 2*pageWidth {
		c.once.Do(c.cancel)
	}
	return c.inner.Recognize(ctx, data)
}

// cellOnlyRecognizer reads nothing on the full page but finds a complete
// shift in every cell crop.
type cellOnlyRecognizer struct{}

func (cellOnlyRecognizer) Recognize(_ context.Context, data []byte) (ocr.Result, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ocr.Result{}, err
	}
	if cfg.Width == 2*pageWidth {
		return ocr.Result{}, nil
	}
	w, h := float64(cfg.Width), float64(cfg.Height)
	return ocr.Result{Text: "08:00 16:00", Words: []ocr.Word{
		word("08:00", w/2, h*0.3, 20, 6),
		word("16:00", w/2, h*0.7, 20, 6),
	}}, nil
}

func newCalendarRecognizer() *fakeRecognizer {
	return &fakeRecognizer{words: calendarWords(), text: "CUADRANTE MARZO 2025"}
}

func blankPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	data, err := preprocess.EncodePNG(img)
	require.NoError(t, err)
	return data
}

type fakeConverter struct {
	out   []byte
	calls int
}

func (f *fakeConverter) Convert(_ context.Context, _ []byte) ([]byte, error) {
	f.calls++
	return f.out, nil
}

type fakeRasterizer struct {
	pages [][]byte
	err   error
}

func (f fakeRasterizer) Rasterize(_ context.Context, _ []byte) ([][]byte, error) {
	return f.pages, f.err
}

type fakeVision struct {
	cands []vision.Candidate
	err   error
	reqs  []vision.Request
}

func (f *fakeVision) ExtractShifts(_ context.Context, req vision.Request) ([]vision.Candidate, []byte, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.cands, []byte(fmt.Sprintf("%d candidates", len(f.cands))), nil
}

func strPtr(s string) *string { return &s }

func rosterItems() []pdftable.Item {
	at := func(text string, x, y float64) pdftable.Item {
		return pdftable.Item{Text: text, X: x, Y: y, Width: 20, Height: 8, Page: 1}
	}
	return []pdftable.Item{
		at("Marzo 2025", 10, 750),
		at("01/03", 100, 700),
		at("02/03", 130, 700),
		at("GARCIA LOPEZ, MARIA", 10, 650),
		at("(1234)", 10, 640),
		at("08:00", 100, 650),
		at("14:00", 100, 640),
		at("-", 100, 632),
		at("16:00", 100, 624),
		at("20:00", 100, 616),
		at("OFF", 130, 650),
	}
}
