package pipeline

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/joseph-ayodele/shifts-tracker/constants"
	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
	"github.com/joseph-ayodele/shifts-tracker/internal/common"
	"github.com/joseph-ayodele/shifts-tracker/internal/ocr"
	"github.com/joseph-ayodele/shifts-tracker/internal/preprocess"
	"github.com/joseph-ayodele/shifts-tracker/internal/vision"
)

// pageScan is what the variant passes recognized on one page.
type pageScan struct {
	raw    []byte
	img    image.Image
	passes []ocr.Pass
	blocks []calendar.TextBlock
	text   string
	// at least one pass answered, even if it read nothing
	readable bool
}

// importImage handles photos, screenshots and rasterized PDF pages. Pages
// share one period and are reconciled together.
func (im *Importer) importImage(ctx context.Context, pages [][]byte, mime string, hint *calendar.Period, method string) (*Result, error) {
	if im.recognizer == nil && im.vision == nil {
		return nil, common.NewAppError("UNSUPPORTED_FORMAT", "no OCR engine or vision model configured for images", common.ErrUnsupportedFormat)
	}
	res := &Result{Method: method}

	scans := make([]pageScan, 0, len(pages))
	var texts []string
	for _, raw := range pages {
		img, err := preprocess.Decode(raw)
		if err != nil {
			return nil, err
		}
		scan, err := im.scan(ctx, raw, img, res)
		if err != nil {
			return nil, err
		}
		scans = append(scans, scan)
		if scan.text != "" {
			texts = append(texts, scan.text)
		}
	}
	res.Text = strings.Join(texts, "\n\n")
	res.Period = calendar.DetectPeriod(res.Text, im.now()).Resolve(hint)

	var candidates []calendar.ParsedCalendarShift
	visionHits := 0
	for _, scan := range scans {
		if scan.readable {
			fromOCR, err := im.ocrCandidates(ctx, scan, res)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, fromOCR...)
		}
		fromVision := im.askVision(ctx, vision.Request{Image: scan.raw, MIMEType: mime, OCRText: scan.text, Period: res.Period}, res)
		visionHits += len(fromVision)
		candidates = append(candidates, fromVision...)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("import canceled: %w", err)
	}
	if visionHits > 0 && method == constants.MethodImageOCR {
		res.Method = constants.MethodImageVision
	}

	res.Shifts = calendar.InferMissingTimes(calendar.Consolidate(candidates))
	return res, nil
}

// scan runs the full-frame and regional variants through the recognizer.
func (im *Importer) scan(ctx context.Context, raw []byte, img image.Image, res *Result) (pageScan, error) {
	scan := pageScan{raw: raw, img: img}
	if im.recognizer == nil {
		return scan, nil
	}
	runner := ocr.NewPassRunner(im.recognizer, im.limit, im.minConf, im.logger)
	scan.passes = runner.Run(ctx, preprocess.Bank(img, im.variants))
	if err := ctx.Err(); err != nil {
		return scan, fmt.Errorf("ocr passes: %w", err)
	}

	failed := 0
	var texts []string
	for _, p := range scan.passes {
		if p.Err != nil {
			failed++
			continue
		}
		if t := ocr.Normalize(p.Text); t != "" {
			texts = append(texts, t)
		}
	}
	scan.readable = failed < len(scan.passes)
	if !scan.readable && failed > 0 {
		res.warn("OCR failed on every image variant")
	}
	scan.blocks = calendar.DedupeBlocks(ocr.Blocks(scan.passes))
	scan.text = strings.Join(texts, "\n")
	return scan, nil
}

// ocrCandidates runs the grid, row and per-cell strategies over one page. A
// page where no day number was read still gets per-cell crops over the
// approximate grid.
func (im *Importer) ocrCandidates(ctx context.Context, scan pageScan, res *Result) ([]calendar.ParsedCalendarShift, error) {
	b := scan.img.Bounds()
	cells, approximate := calendar.BuildGrid(scan.blocks, res.Period, float64(b.Dx()), float64(b.Dy()))
	if approximate && !res.GridApproximate {
		res.GridApproximate = true
		res.warn("calendar grid not found, an approximate layout was used")
	}

	out := calendar.ExtractFromCells(cells, scan.blocks, res.Period, "grid")
	for _, p := range scan.passes {
		out = append(out, calendar.ExtractFromText(p.Text, res.Period)...)
	}
	fromCells, err := im.cellCandidates(ctx, scan.img, cells, out, res.Period)
	if err != nil {
		return nil, err
	}
	return append(out, fromCells...), nil
}

// cellCandidates re-reads the cells still lacking a complete shift from
// tight crops of the source raster.
func (im *Importer) cellCandidates(ctx context.Context, img image.Image, cells []calendar.CalendarCell, found []calendar.ParsedCalendarShift, period calendar.Period) ([]calendar.ParsedCalendarShift, error) {
	if im.recognizer == nil || len(cells) == 0 {
		return nil, nil
	}
	settled := map[string]bool{}
	for _, s := range found {
		if s.IsValid || s.IsOffDay() {
			settled[s.Date] = true
		}
	}

	var crops []preprocess.Variant
	var owners []calendar.CalendarCell
	for _, cell := range cells {
		if settled[period.Date(cell.Day)] {
			continue
		}
		for _, v := range preprocess.CellCrops(img, cell, im.variants) {
			crops = append(crops, v)
			owners = append(owners, cell)
		}
	}
	if len(crops) == 0 {
		return nil, nil
	}

	runner := ocr.NewPassRunner(im.recognizer, im.limit, im.minConf, im.logger)
	passes := runner.Run(ctx, crops)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("cell ocr: %w", err)
	}
	var out []calendar.ParsedCalendarShift
	for i, p := range passes {
		if s, ok := calendar.ExtractFromCellCrop(owners[i], p.Blocks, period, p.Variant); ok {
			out = append(out, s)
		}
	}
	im.logger.Debug("import.cells.ok", "crops", len(crops), "candidates", len(out))
	return out, nil
}
