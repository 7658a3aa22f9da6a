package ocr

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
	"github.com/joseph-ayodele/shifts-tracker/internal/preprocess"
)

// Pass is the outcome of recognizing one variant. Blocks are in source
// raster coordinates. A failed recognition is an empty pass.
type Pass struct {
	Variant string
	Text    string
	Blocks  []calendar.TextBlock
	Err     error
}

// PassRunner recognizes variants concurrently with a bounded fan-out.
type PassRunner struct {
	rec     Recognizer
	limit   int
	minConf float64
	logger  *slog.Logger
}

func NewPassRunner(rec Recognizer, limit int, minConfidence float64, logger *slog.Logger) *PassRunner {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = 1
	}
	if minConfidence <= 0 {
		minConfidence = MinWordConfidence
	}
	return &PassRunner{rec: rec, limit: limit, minConf: minConfidence, logger: logger}
}

// RunPasses recognizes variants with the default word confidence floor.
func RunPasses(ctx context.Context, rec Recognizer, variants []preprocess.Variant, limit int) []Pass {
	return NewPassRunner(rec, limit, MinWordConfidence, nil).Run(ctx, variants)
}

// Run returns one pass per variant in variant order. Engine failures are
// logged and recorded on the pass, never returned. Once ctx is done, passes
// that have not started are left empty.
func (p *PassRunner) Run(ctx context.Context, variants []preprocess.Variant) []Pass {
	passes := make([]Pass, len(variants))
	var g errgroup.Group
	g.SetLimit(p.limit)
	for i, v := range variants {
		passes[i].Variant = v.Name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				passes[i].Err = err
				return nil
			}
			passes[i] = p.recognize(ctx, v)
			return nil
		})
	}
	_ = g.Wait()
	return passes
}

func (p *PassRunner) recognize(ctx context.Context, v preprocess.Variant) Pass {
	start := time.Now()
	pass := Pass{Variant: v.Name}

	png, err := v.Encode()
	if err != nil {
		pass.Err = err
		p.logger.Warn("ocr.pass.failed", "variant", v.Name, "error", err)
		return pass
	}
	res, err := p.rec.Recognize(ctx, png)
	if err != nil {
		pass.Err = err
		p.logger.Warn("ocr.pass.failed", "variant", v.Name, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return pass
	}

	pass.Text = res.Text
	pass.Blocks = ToBlocks(res.Words, v, p.minConf)
	p.logger.Debug("ocr.pass.ok",
		"variant", v.Name,
		"words", len(res.Words),
		"kept", len(pass.Blocks),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return pass
}

// ToBlocks maps recognized words into source raster coordinates, dropping
// words below minConfidence.
func ToBlocks(words []Word, v preprocess.Variant, minConfidence float64) []calendar.TextBlock {
	scale := v.Scale
	if scale <= 0 {
		scale = 1
		v.Scale = 1
	}
	out := make([]calendar.TextBlock, 0, len(words))
	for _, w := range words {
		if w.Confidence < minConfidence || w.Text == "" {
			continue
		}
		x, y := v.ToSource(w.X, w.Y)
		out = append(out, calendar.TextBlock{
			Text:       w.Text,
			X:          x,
			Y:          y,
			Width:      w.Width / scale,
			Height:     w.Height / scale,
			Confidence: w.Confidence,
			Source:     v.Name,
		})
	}
	return out
}

// Blocks flattens the blocks of every pass.
func Blocks(passes []Pass) []calendar.TextBlock {
	var out []calendar.TextBlock
	for _, p := range passes {
		out = append(out, p.Blocks...)
	}
	return out
}
