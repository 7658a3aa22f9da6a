// Package pipeline runs one calendar import end to end: it picks the path for
// the source (image, PDF roster, scanned PDF or plain text), collects shift
// candidates from every strategy and reconciles them into one shift per date.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/shifts-tracker/constants"
	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
	"github.com/joseph-ayodele/shifts-tracker/internal/common"
	"github.com/joseph-ayodele/shifts-tracker/internal/ocr"
	"github.com/joseph-ayodele/shifts-tracker/internal/pdftable"
	"github.com/joseph-ayodele/shifts-tracker/internal/preprocess"
	"github.com/joseph-ayodele/shifts-tracker/internal/vision"
)

// WarnNoShifts is attached to results without a single recognized shift.
const WarnNoShifts = "no shifts recognized; try a sharper photo, a PDF export or pasted text"

// Input is one import request. Either Data (with a Filename that names its
// format) or Text must be set.
type Input struct {
	Data     []byte
	Filename string
	Text     string
	Hint     *calendar.Period
	Employee *pdftable.Employee
}

// Result is the reconciled outcome of an import. Shifts are sorted by date
// with at most one per date.
type Result struct {
	Shifts          []calendar.ParsedCalendarShift `json:"shifts"`
	Period          calendar.Period                `json:"period"`
	Method          string                         `json:"method"`
	GridApproximate bool                           `json:"gridApproximate"`
	Warnings        []string                       `json:"warnings,omitempty"`
	Text            string                         `json:"text,omitempty"`
	Duration        time.Duration                  `json:"duration"`
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// HEICConverter turns HEIC/HEIF payloads into PNG.
type HEICConverter interface {
	Convert(ctx context.Context, data []byte) ([]byte, error)
}

// Rasterizer renders the pages of a scanned PDF to PNG.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte) ([][]byte, error)
}

// Importer wires the recognition engines to the reconciliation core.
type Importer struct {
	logger     *slog.Logger
	recognizer ocr.Recognizer
	vision     vision.Parser
	heic       HEICConverter
	rasterizer Rasterizer
	variants   preprocess.Options
	limit      int
	minConf    float64
	now        func() time.Time
	readPDF    func([]byte) ([]pdftable.Item, error)
}

type Option func(*Importer)

func WithLogger(l *slog.Logger) Option {
	return func(im *Importer) {
		if l != nil {
			im.logger = l
		}
	}
}

// WithVision adds a vision model next to local OCR. A nil parser is ignored.
func WithVision(p vision.Parser) Option {
	return func(im *Importer) { im.vision = p }
}

func WithHEICConverter(c HEICConverter) Option {
	return func(im *Importer) { im.heic = c }
}

func WithRasterizer(r Rasterizer) Option {
	return func(im *Importer) { im.rasterizer = r }
}

// WithConcurrency bounds the number of OCR passes in flight.
func WithConcurrency(n int) Option {
	return func(im *Importer) {
		if n > 0 {
			im.limit = n
		}
	}
}

// WithMinConfidence sets the word confidence floor (0-100).
func WithMinConfidence(c float64) Option {
	return func(im *Importer) {
		if c > 0 {
			im.minConf = c
		}
	}
}

func WithPreprocessOptions(o preprocess.Options) Option {
	return func(im *Importer) { im.variants = o }
}

// WithClock overrides the clock used for period defaults.
func WithClock(now func() time.Time) Option {
	return func(im *Importer) {
		if now != nil {
			im.now = now
		}
	}
}

// NewImporter builds an importer around a recognizer. The recognizer may be
// nil for deployments that only import PDF rosters and text.
func NewImporter(rec ocr.Recognizer, opts ...Option) *Importer {
	im := &Importer{
		logger:     slog.Default(),
		recognizer: rec,
		variants:   preprocess.DefaultOptions(),
		limit:      4,
		minConf:    ocr.MinWordConfidence,
		now:        time.Now,
		readPDF:    pdftable.ReadItems,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import reconciles one source into shifts. Only infrastructure failures are
// returned as errors; an empty result is a warning.
func (im *Importer) Import(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	logger := im.logger.With("file", in.Filename, "req_id", common.RequestIDFromContext(ctx))

	res, err := im.dispatch(ctx, in)
	if err != nil {
		logger.Error("import.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	if len(res.Shifts) == 0 {
		res.warn(WarnNoShifts)
	}
	res.Duration = time.Since(start)

	logger.Info("import.ok",
		"method", res.Method,
		"period", res.Period.String(),
		"shifts", len(res.Shifts),
		"grid_approximate", res.GridApproximate,
		"warnings", len(res.Warnings),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (im *Importer) dispatch(ctx context.Context, in Input) (*Result, error) {
	if len(in.Data) == 0 {
		if strings.TrimSpace(in.Text) == "" {
			return nil, common.NewAppError("INVALID_INPUT", "nothing to import: provide a file or text", common.ErrInvalidInput)
		}
		return im.importText(ctx, in.Text, in.Hint), nil
	}

	ext := filepath.Ext(in.Filename)
	format := constants.MapExtToFormat(ext)
	if format == "" {
		if ext != "" {
			return nil, common.NewAppError("UNSUPPORTED_FORMAT", fmt.Sprintf("unsupported file type %q", ext), common.ErrUnsupportedFormat)
		}
		format = sniffFormat(in.Data)
	}

	switch format {
	case constants.PDF:
		return im.importPDF(ctx, in)
	case constants.TXT:
		return im.importText(ctx, string(in.Data), in.Hint), nil
	default:
		data := in.Data
		mime := constants.MimeTypeForExt(ext)
		if constants.IsHEICExt(ext) {
			if im.heic == nil {
				return nil, common.NewAppError("UNSUPPORTED_FORMAT", "no HEIC converter configured", common.ErrUnsupportedFormat)
			}
			png, err := im.heic.Convert(ctx, data)
			if err != nil {
				return nil, err
			}
			data, mime = png, "image/png"
		}
		return im.importImage(ctx, [][]byte{data}, mime, in.Hint, constants.MethodImageOCR)
	}
}

// importText runs the row strategy over pasted or extracted text, plus the
// vision model in text mode when one is configured.
func (im *Importer) importText(ctx context.Context, text string, hint *calendar.Period) *Result {
	res := &Result{Method: constants.MethodText, Text: text}
	res.Period = calendar.DetectPeriod(text, im.now()).Resolve(hint)

	candidates := calendar.ExtractFromText(text, res.Period)
	candidates = append(candidates, im.askVision(ctx, vision.Request{OCRText: text, Period: res.Period}, res)...)

	res.Shifts = calendar.InferMissingTimes(calendar.Consolidate(candidates))
	return res
}

// askVision returns the vision model candidates, or nothing when no model is
// configured or the call fails. Failures become warnings.
func (im *Importer) askVision(ctx context.Context, req vision.Request, res *Result) []calendar.ParsedCalendarShift {
	if im.vision == nil {
		return nil
	}
	if len(req.Image) > constants.MaxVisionMBDefault<<20 {
		res.warn("image larger than %d MB, vision model skipped", constants.MaxVisionMBDefault)
		return nil
	}
	start := time.Now()
	cands, _, err := im.vision.ExtractShifts(ctx, req)
	if err != nil {
		im.logger.Warn("import.vision.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		res.warn("vision model failed: %v", err)
		return nil
	}
	parsed := vision.ToParsed(cands, req.Period)
	im.logger.Debug("import.vision.ok", "candidates", len(cands), "shifts", len(parsed), "elapsed_ms", time.Since(start).Milliseconds())
	return parsed
}

func sniffFormat(data []byte) string {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return constants.PDF
	}
	return constants.IMAGE
}
