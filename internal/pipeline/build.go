package pipeline

import (
	"log/slog"

	"github.com/joseph-ayodele/shifts-tracker/internal/common"
	"github.com/joseph-ayodele/shifts-tracker/internal/ocr"
	"github.com/joseph-ayodele/shifts-tracker/internal/vision"
)

// FromConfig wires the configured OCR engine, vision provider, HEIC converter
// and PDF rasterizer into an importer. The returned close func releases the
// engine.
func FromConfig(cfg *common.Config, logger *slog.Logger) (*Importer, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	runner := ocr.NewExecRunner(logger)

	engine, err := ocr.NewEngine(ocr.ConfigFromCommon(cfg.OCR), runner, logger)
	if err != nil {
		return nil, nil, err
	}
	closeEngine := func() {
		if err := engine.Close(); err != nil {
			logger.Warn("failed to close ocr engine", "error", err)
		}
	}

	parser, err := vision.NewParser(cfg.Vision, logger)
	if err != nil {
		closeEngine()
		return nil, nil, err
	}

	im := NewImporter(engine,
		WithLogger(logger),
		WithVision(parser),
		WithConcurrency(cfg.OCR.Concurrency),
		WithMinConfidence(cfg.OCR.MinConfidence),
		WithHEICConverter(ocr.HEICConverter{
			Runner:    runner,
			Converter: cfg.OCR.HeicConverter,
			CacheDir:  cfg.OCR.ArtifactCacheDir,
			Logger:    logger,
		}),
		WithRasterizer(ocr.PDFRasterizer{
			Runner:   runner,
			Pdftoppm: cfg.OCR.Pdftoppm,
			DPI:      cfg.OCR.DPI,
			Logger:   logger,
		}),
	)
	logger.Info("importer ready",
		"ocr_engine", cfg.OCR.Engine,
		"languages", cfg.OCR.Languages,
		"vision", cfg.Vision.Provider,
		"concurrency", cfg.OCR.Concurrency,
	)
	return im, closeEngine, nil
}
