package pipeline

import (
	"context"
	"time"

	"github.com/joseph-ayodele/shifts-tracker/constants"
	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
	"github.com/joseph-ayodele/shifts-tracker/internal/common"
	"github.com/joseph-ayodele/shifts-tracker/internal/pdftable"
)

// importPDF reads the roster row of the selected employee. PDFs without a
// text layer are rasterized and imported as images.
func (im *Importer) importPDF(ctx context.Context, in Input) (*Result, error) {
	items, err := im.readPDF(in.Data)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return im.importScannedPDF(ctx, in)
	}

	if in.Employee == nil {
		return nil, common.NewAppError("INVALID_INPUT", "PDF rosters need an employee name or ID", common.ErrInvalidInput)
	}
	res := &Result{Method: constants.MethodPDFTable}
	res.Period = pdftable.DetectPeriod(items, im.now()).Resolve(in.Hint)

	start := time.Now()
	rows, err := pdftable.ExtractEmployeeShifts(items, res.Period, *in.Employee)
	if err != nil {
		return nil, err
	}
	im.logger.Debug("import.pdf.row",
		"items", len(items),
		"candidates", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	res.Shifts = calendar.Consolidate(rows, calendar.WithOffDays())
	return res, nil
}

func (im *Importer) importScannedPDF(ctx context.Context, in Input) (*Result, error) {
	if im.rasterizer == nil {
		return nil, common.NewAppError("UNSUPPORTED_FORMAT", "PDF has no text layer and no rasterizer is configured", common.ErrUnsupportedFormat)
	}
	pages, err := im.rasterizer.Rasterize(ctx, in.Data)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, common.NewAppError("DECODE_ERROR", "PDF has no pages", common.ErrDecode)
	}
	im.logger.Debug("import.pdf.rasterized", "pages", len(pages))
	return im.importImage(ctx, pages, "image/png", in.Hint, constants.MethodPDFOCR)
}
