package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
)

// GosseractEngine recognizes through libtesseract. Initialized clients are
// kept in a fixed pool and reused across rasters.
type GosseractEngine struct {
	pool   chan *gosseract.Client
	size   int
	logger *slog.Logger
}

func NewGosseractEngine(cfg Config, logger *slog.Logger) (*GosseractEngine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	size := cfg.PoolSize
	if size <= 0 {
		size = 1
	}
	psm := gosseract.PSM_SPARSE_TEXT
	if cfg.PSM > 0 {
		psm = gosseract.PageSegMode(cfg.PSM)
	}
	langs := languageList(cfg.Languages)

	e := &GosseractEngine{pool: make(chan *gosseract.Client, size), size: size, logger: logger}
	for i := 0; i < size; i++ {
		client := gosseract.NewClient()
		if cfg.TessdataDir != "" {
			client.TessdataPrefix = cfg.TessdataDir
		}
		if err := client.SetLanguage(langs...); err != nil {
			_ = client.Close()
			_ = e.Close()
			return nil, fmt.Errorf("set ocr languages: %w", err)
		}
		if err := client.SetPageSegMode(psm); err != nil {
			_ = client.Close()
			_ = e.Close()
			return nil, fmt.Errorf("set page segmentation mode: %w", err)
		}
		e.pool <- client
	}
	logger.Info("ocr.gosseract.ready", "pool", size, "languages", strings.Join(langs, "+"), "psm", int(psm))
	return e, nil
}

// Recognize waits for a free client, so at most PoolSize rasters are being
// recognized at once.
func (e *GosseractEngine) Recognize(ctx context.Context, png []byte) (Result, error) {
	var client *gosseract.Client
	select {
	case client = <-e.pool:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	defer func() { e.pool <- client }()

	start := time.Now()
	if err := client.SetImageFromBytes(png); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize text: %w", err)
	}
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Result{}, fmt.Errorf("get word boxes: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		w := strings.TrimSpace(b.Word)
		if w == "" {
			continue
		}
		words = append(words, Word{
			Text:       w,
			X:          float64(b.Box.Min.X),
			Y:          float64(b.Box.Min.Y),
			Width:      float64(b.Box.Dx()),
			Height:     float64(b.Box.Dy()),
			Confidence: b.Confidence,
		})
	}
	e.logger.Debug("ocr.gosseract.ok", "words", len(words), "elapsed_ms", time.Since(start).Milliseconds())
	return Result{Text: Normalize(text), Words: words}, nil
}

// Close releases every pooled client. It must not race with Recognize.
func (e *GosseractEngine) Close() error {
	var firstErr error
	for {
		select {
		case c := <-e.pool:
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		default:
			return firstErr
		}
	}
}
