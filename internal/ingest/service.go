package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/shifts-tracker/constants"
	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
	"github.com/joseph-ayodele/shifts-tracker/internal/common"
	"github.com/joseph-ayodele/shifts-tracker/internal/entity"
	"github.com/joseph-ayodele/shifts-tracker/internal/pdftable"
	"github.com/joseph-ayodele/shifts-tracker/internal/pipeline"
	"github.com/joseph-ayodele/shifts-tracker/internal/repository"
)

// Importer is the import seam the service drives.
type Importer interface {
	Import(ctx context.Context, in pipeline.Input) (*pipeline.Result, error)
}

// Service imports files from disk and stores their shifts. Every attempt is
// recorded as an import job.
type Service struct {
	importer Importer
	shifts   repository.ShiftRepository
	jobs     repository.ImportJobRepository
	logger   *slog.Logger
	employee *pdftable.Employee
	hint     *calendar.Period
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEmployee selects the roster row used for PDF rosters.
func WithEmployee(e *pdftable.Employee) Option {
	return func(s *Service) { s.employee = e }
}

// WithPeriodHint supplies the month used when a source does not name one.
func WithPeriodHint(p *calendar.Period) Option {
	return func(s *Service) { s.hint = p }
}

func NewService(importer Importer, shifts repository.ShiftRepository, jobs repository.ImportJobRepository, opts ...Option) *Service {
	s := &Service{
		importer: importer,
		shifts:   shifts,
		jobs:     jobs,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Source is one payload to import and store. Nil Hint and Employee fall back
// to the service defaults.
type Source struct {
	Name     string
	Data     []byte
	Text     string
	Hint     *calendar.Period
	Employee *pdftable.Employee
}

// IngestPath imports one file. When shifts are found they replace the stored
// shifts of the detected month; an empty import leaves the store untouched.
func (s *Service) IngestPath(ctx context.Context, path string) (Outcome, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Outcome{SourcePath: path}, fmt.Errorf("abs path: %w", err)
	}
	ext := filepath.Ext(abs)
	if !AllowedExt(ext) {
		return Outcome{SourcePath: abs}, common.NewAppError("UNSUPPORTED_FORMAT", fmt.Sprintf("unsupported or missing extension %q", ext), common.ErrUnsupportedFormat)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		s.logger.Error("ingest.read.failed", "path", abs, "error", err)
		return Outcome{SourcePath: abs}, fmt.Errorf("read %s: %w", abs, err)
	}
	out, _, err := s.Store(ctx, Source{Name: abs, Data: data})
	return out, err
}

// Store imports one payload, replaces the stored shifts of its month and
// records the attempt as an import job.
func (s *Service) Store(ctx context.Context, src Source) (Outcome, *pipeline.Result, error) {
	start := time.Now()
	out := Outcome{SourcePath: src.Name}
	if src.Hint == nil {
		src.Hint = s.hint
	}
	if src.Employee == nil {
		src.Employee = s.employee
	}

	format := constants.TXT
	if len(src.Data) > 0 {
		sum := sha256.Sum256(src.Data)
		out.HashHex = hex.EncodeToString(sum[:])
		ctx = common.WithContentHash(ctx, out.HashHex)
		if format = constants.MapExtToFormat(filepath.Ext(src.Name)); format == "" {
			format = constants.IMAGE
		}
	}

	job, err := s.jobs.Start(ctx, src.Name, format)
	if err != nil {
		return out, nil, err
	}
	out.JobID = job.ID

	res, err := s.importer.Import(ctx, pipeline.Input{
		Data:     src.Data,
		Filename: src.Name,
		Text:     src.Text,
		Hint:     src.Hint,
		Employee: src.Employee,
	})
	if err != nil {
		out, err = s.fail(ctx, out, err)
		return out, nil, err
	}
	out.Method = res.Method
	out.Period = res.Period.String()
	out.Warnings = res.Warnings

	stored := entity.FromParsed(res.Shifts, s.now().UTC())
	out.Shifts = len(stored)
	out.Status = constants.JobStatusEmpty
	if len(stored) > 0 {
		from, to := res.Period.Date(1), res.Period.Date(res.Period.DaysInMonth())
		if err := s.shifts.ReplaceRange(ctx, from, to, stored); err != nil {
			out, err = s.fail(ctx, out, err)
			return out, res, err
		}
		out.Status = constants.JobStatusParsed
	}

	if err := s.finish(ctx, out); err != nil {
		return out, res, err
	}
	s.logger.Info("ingest.ok",
		"source", src.Name,
		"job_id", out.JobID,
		"status", out.Status,
		"method", out.Method,
		"period", out.Period,
		"shifts", out.Shifts,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, res, nil
}

// ProcessFile is IngestPath for the worker queue.
func (s *Service) ProcessFile(ctx context.Context, path string) error {
	_, err := s.IngestPath(ctx, path)
	return err
}

func (s *Service) fail(ctx context.Context, out Outcome, cause error) (Outcome, error) {
	out.Status = constants.JobStatusFailed
	out.Err = cause.Error()
	if err := s.finish(ctx, out); err != nil {
		s.logger.Error("ingest.job.finish.failed", "job_id", out.JobID, "error", err)
	}
	s.logger.Error("ingest.failed", "path", out.SourcePath, "job_id", out.JobID, "error", cause)
	return out, cause
}

// finish closes the job row even when ctx is already canceled.
func (s *Service) finish(ctx context.Context, out Outcome) error {
	return s.jobs.Finish(context.WithoutCancel(ctx), out.JobID, repository.JobOutcome{
		Status:       out.Status,
		Method:       out.Method,
		ShiftsFound:  out.Shifts,
		Period:       out.Period,
		ErrorMessage: out.Err,
	})
}

// IngestDirectory walks root, skips hidden entries if requested, and imports
// each importable file. Per-file failures are reported in the results.
func (s *Service) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]Outcome, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, common.NewAppError("INVALID_INPUT", "root path is required", common.ErrInvalidInput)
	}

	var results []Outcome
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, Outcome{SourcePath: path, Status: constants.JobStatusFailed, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		out, err := s.IngestPath(ctx, path)
		results = append(results, out)
		switch {
		case err != nil:
			if out.Err == "" {
				results[len(results)-1].Status = constants.JobStatusFailed
				results[len(results)-1].Err = err.Error()
			}
			stats.Failed++
		case out.Status == constants.JobStatusEmpty:
			stats.Empty++
		default:
			stats.Succeeded++
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ctx.Err()) {
			return results, stats, err
		}
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	s.logger.Info("ingest.directory.ok",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"empty", stats.Empty,
		"failed", stats.Failed,
	)
	return results, stats, nil
}
