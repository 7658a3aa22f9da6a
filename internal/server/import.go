package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/shifts-tracker/internal/common"
	"github.com/joseph-ayodele/shifts-tracker/internal/entity"
	"github.com/joseph-ayodele/shifts-tracker/internal/export"
	"github.com/joseph-ayodele/shifts-tracker/internal/ingest"
	"github.com/joseph-ayodele/shifts-tracker/internal/pipeline"
	"github.com/joseph-ayodele/shifts-tracker/internal/repository"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeJSON = "application/json"
)

// ImportService implements shifts.v1.ImportService.
type ImportService struct {
	importer ingest.Importer
	store    *ingest.Service
	shifts   repository.ShiftRepository
	jobs     repository.ImportJobRepository
	exporter *export.Service
	logger   *slog.Logger
	now      func() time.Time
}

func NewImportService(
	importer ingest.Importer,
	store *ingest.Service,
	shifts repository.ShiftRepository,
	jobs repository.ImportJobRepository,
	exporter *export.Service,
	logger *slog.Logger,
) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{
		importer: importer,
		store:    store,
		shifts:   shifts,
		jobs:     jobs,
		exporter: exporter,
		logger:   logger,
		now:      time.Now,
	}
}

// ParseCalendar runs an import without storing anything.
func (s *ImportService) ParseCalendar(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := parseImportRequest(in, s.now())
	if err != nil {
		return nil, common.ToStatus(err)
	}
	res, err := s.importer.Import(ctx, pipeline.Input{
		Data:     req.data,
		Filename: req.filename,
		Text:     req.text,
		Hint:     req.hint,
		Employee: req.employee,
	})
	if err != nil {
		s.logger.Error("grpc.parse.failed", "filename", req.filename, "error", err)
		return nil, common.ToStatus(err)
	}
	return toStruct(resultDoc(res))
}

// ImportCalendar parses a calendar and replaces the stored shifts of its month.
func (s *ImportService) ImportCalendar(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := parseImportRequest(in, s.now())
	if err != nil {
		return nil, common.ToStatus(err)
	}
	name := req.filename
	if name == "" && len(req.data) == 0 {
		name = "pasted-text"
	}
	out, res, err := s.store.Store(ctx, ingest.Source{
		Name:     name,
		Data:     req.data,
		Text:     req.text,
		Hint:     req.hint,
		Employee: req.employee,
	})
	if err != nil {
		s.logger.Error("grpc.import.failed", "filename", name, "job_id", out.JobID, "error", err)
		return nil, common.ToStatus(err)
	}
	doc := resultDoc(res)
	doc["jobId"] = out.JobID.String()
	doc["status"] = string(out.Status)
	doc["stored"] = out.Shifts
	return toStruct(doc)
}

// ListShifts returns stored shifts between the optional "from" and "to" dates.
func (s *ImportService) ListShifts(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	from, err := parseDate(in, "from")
	if err != nil {
		return nil, common.ToStatus(err)
	}
	to, err := parseDate(in, "to")
	if err != nil {
		return nil, common.ToStatus(err)
	}
	shifts, err := s.shifts.ListRange(ctx, from, to)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	if shifts == nil {
		shifts = []entity.Shift{}
	}
	return toStruct(map[string]any{"shifts": shifts})
}

// ExportShifts returns a workbook ("xlsx", the default, needs month) or a JSON
// document ("json", optional from/to) as base64.
func (s *ImportService) ExportShifts(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	format := strings.ToLower(str(in, "format"))
	var (
		data        []byte
		filename    string
		contentType string
		err         error
	)
	switch format {
	case "", "xlsx":
		period, perr := parsePeriod(in, s.now(), true)
		if perr != nil {
			return nil, common.ToStatus(perr)
		}
		data, err = s.exporter.MonthXLSX(ctx, *period)
		filename = fmt.Sprintf("turnos-%s.xlsx", period.String())
		contentType = contentTypeXLSX
	case "json":
		from, ferr := parseDate(in, "from")
		if ferr != nil {
			return nil, common.ToStatus(ferr)
		}
		to, terr := parseDate(in, "to")
		if terr != nil {
			return nil, common.ToStatus(terr)
		}
		data, err = s.exporter.RangeJSON(ctx, from, to)
		filename = "turnos.json"
		contentType = contentTypeJSON
	default:
		return nil, common.InvalidArgumentErrorf("format must be xlsx or json, got %q", format)
	}
	if err != nil {
		s.logger.Error("grpc.export.failed", "format", format, "error", err)
		return nil, common.ToStatus(err)
	}
	return toStruct(map[string]any{
		"filename":    filename,
		"contentType": contentType,
		"data":        base64.StdEncoding.EncodeToString(data),
	})
}

// ListImportJobs returns the most recent import attempts.
func (s *ImportService) ListImportJobs(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	jobs, err := s.jobs.ListRecent(ctx, num(in, "limit"))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	if jobs == nil {
		jobs = []*entity.ImportJob{}
	}
	return toStruct(map[string]any{"jobs": jobs})
}
