package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// CLIEngine runs the tesseract binary in TSV mode. It needs no cgo.
type CLIEngine struct {
	runner    Runner
	bin       string
	languages string
	tessdata  string
	psm       int
	tempDir   string
	logger    *slog.Logger
}

func NewCLIEngine(cfg Config, runner Runner, logger *slog.Logger) *CLIEngine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &CLIEngine{
		runner:    runner,
		bin:       cfg.Tesseract,
		languages: strings.Join(languageList(cfg.Languages), "+"),
		tessdata:  cfg.TessdataDir,
		psm:       cfg.PSM,
		tempDir:   cfg.TempDir,
		logger:    logger,
	}
	if e.bin == "" {
		e.bin = "tesseract"
	}
	if e.psm <= 0 {
		e.psm = 11 // sparse text
	}
	return e
}

func (e *CLIEngine) Recognize(ctx context.Context, png []byte) (Result, error) {
	if e.tempDir != "" {
		if err := os.MkdirAll(e.tempDir, 0o755); err != nil {
			return Result{}, fmt.Errorf("create temp dir: %w", err)
		}
	}
	f, err := os.CreateTemp(e.tempDir, "shift-ocr-*.png")
	if err != nil {
		return Result{}, fmt.Errorf("create temp image: %w", err)
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("failed to remove temp image", "path", path, "error", err)
		}
	}()
	if _, err := f.Write(png); err != nil {
		_ = f.Close()
		return Result{}, fmt.Errorf("write temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		return Result{}, fmt.Errorf("close temp image: %w", err)
	}

	// tesseract <file> stdout -l <lang> --psm N [--tessdata-dir D] tsv
	args := []string{path, "stdout", "-l", e.languages, "--psm", strconv.Itoa(e.psm)}
	if e.tessdata != "" {
		args = append(args, "--tessdata-dir", e.tessdata)
	}
	args = append(args, "tsv")

	start := time.Now()
	out, errb, err := e.runner.Run(ctx, e.bin, args...)
	if err != nil {
		return Result{}, fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	res := ParseTSV(out)
	e.logger.Debug("ocr.cli.ok", "words", len(res.Words), "elapsed_ms", time.Since(start).Milliseconds())
	return res, nil
}

func (e *CLIEngine) Close() error { return nil }
