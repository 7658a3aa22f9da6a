// Package ocr recognizes words on rasters. Engines sit behind the Recognizer
// seam; RunPasses fans variants out to an engine and maps every word back to
// source raster coordinates.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/shifts-tracker/internal/common"
)

// MinWordConfidence is the engine confidence below which words are dropped.
const MinWordConfidence = 20

// Word is one recognized word in the pixel space of the recognized raster.
type Word struct {
	Text       string
	X, Y       float64
	Width      float64
	Height     float64
	Confidence float64 // 0..100
}

// Result is the outcome of one recognition.
type Result struct {
	Text  string
	Words []Word
}

// Recognizer turns PNG bytes into text and positioned words.
type Recognizer interface {
	Recognize(ctx context.Context, png []byte) (Result, error)
}

// Config selects and tunes an engine.
type Config struct {
	Engine      string // "gosseract" | "cli"
	Languages   string // "spa+eng"
	Tesseract   string
	TessdataDir string
	PSM         int
	PoolSize    int
	TempDir     string
}

// ConfigFromCommon maps the application OCR section onto engine settings.
func ConfigFromCommon(c common.OCRConfig) Config {
	return Config{
		Engine:      c.Engine,
		Languages:   c.Languages,
		Tesseract:   c.Tesseract,
		TessdataDir: c.TessdataDir,
		PoolSize:    c.Concurrency,
		TempDir:     c.ArtifactCacheDir,
	}
}

// Engine is a Recognizer that owns resources.
type Engine interface {
	Recognizer
	Close() error
}

// NewEngine builds the configured engine. The cli engine shells out through
// runner; a nil runner uses os/exec.
func NewEngine(cfg Config, runner Runner, logger *slog.Logger) (Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Engine {
	case "", "gosseract":
		return NewGosseractEngine(cfg, logger)
	case "cli":
		if runner == nil {
			runner = NewExecRunner(logger)
		}
		return NewCLIEngine(cfg, runner, logger), nil
	default:
		return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown ocr engine %q", cfg.Engine), common.ErrInvalidInput)
	}
}

func languageList(spec string) []string {
	var out []string
	for _, l := range strings.FieldsFunc(spec, func(r rune) bool { return r == '+' || r == ',' || r == ' ' }) {
		out = append(out, l)
	}
	if len(out) == 0 {
		out = []string{"spa", "eng"}
	}
	return out
}
