package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/shifts-tracker/internal/common"
)

// HEICConverter turns HEIC/HEIF photos into PNG through an external tool:
// "heif-convert" | "magick" | "sips". With a cache dir, the PNG is kept at
// {cacheDir}/{sha256}.png and reused.
type HEICConverter struct {
	Runner    Runner
	Converter string
	CacheDir  string
	Logger    *slog.Logger
}

func (h HEICConverter) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// Convert returns PNG bytes for the HEIC payload.
func (h HEICConverter) Convert(ctx context.Context, data []byte) ([]byte, error) {
	logger := h.logger()
	hashHex, ok := common.ContentHashFromContext(ctx)
	if !ok || hashHex == "" {
		sum := sha256.Sum256(data)
		hashHex = hex.EncodeToString(sum[:])
	}

	var cached string
	if h.CacheDir != "" {
		cached = filepath.Join(h.CacheDir, hashHex+".png")
		if png, err := os.ReadFile(cached); err == nil && len(png) > 0 {
			logger.Debug("ocr.heic.cache_hit", "cache", cached)
			return png, nil
		}
	}

	tmpDir, err := os.MkdirTemp("", "shifts-heic-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	in := filepath.Join(tmpDir, "input.heic")
	out := filepath.Join(tmpDir, "page.png")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("write heic: %w", err)
	}

	var errb []byte
	switch h.Converter {
	case "heif-convert":
		_, errb, err = h.Runner.Run(ctx, "heif-convert", in, out)
	case "magick":
		_, errb, err = h.Runner.Run(ctx, "magick", in, out)
	case "sips":
		_, errb, err = h.Runner.Run(ctx, "sips", "-s", "format", "png", in, "--out", out)
	default:
		return nil, common.NewAppError("UNSUPPORTED_FORMAT",
			"HEIC not supported: set HEIC_CONVERTER to one of: heif-convert | magick | sips", common.ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s convert failed: %w: %s", h.Converter, err, truncate(string(errb), 512))
	}

	png, err := os.ReadFile(out)
	if err != nil || len(png) == 0 {
		return nil, fmt.Errorf("HEIC conversion produced no output: %v", err)
	}

	if cached != "" {
		if err := os.MkdirAll(h.CacheDir, 0o755); err != nil {
			logger.Warn("ocr.heic.cache_failed", "dir", h.CacheDir, "error", err)
		} else if err := os.WriteFile(cached, png, 0o644); err != nil {
			logger.Warn("ocr.heic.cache_failed", "cache", cached, "error", err)
		} else {
			logger.Debug("ocr.heic.cached", "cache", cached)
		}
	}
	return png, nil
}
