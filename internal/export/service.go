package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
	"github.com/joseph-ayodele/shifts-tracker/internal/entity"
	"github.com/joseph-ayodele/shifts-tracker/internal/repository"
)

// Service exports stored shifts.
type Service struct {
	shifts repository.ShiftRepository
	logger *slog.Logger
}

func NewService(shifts repository.ShiftRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{shifts: shifts, logger: logger}
}

// MonthXLSX returns the calendar workbook of a month, including the stored
// shifts of the neighbouring days shown on the grid.
func (s *Service) MonthXLSX(ctx context.Context, period calendar.Period) ([]byte, error) {
	start := time.Now()
	if !period.Valid() {
		return CalendarXLSX(nil, period)
	}
	from, to := gridBounds(period)
	stored, err := s.shifts.ListRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("query shifts: %w", err)
	}
	parsed := make([]calendar.ParsedCalendarShift, len(stored))
	for i, sh := range stored {
		parsed[i] = sh.ToParsed()
	}

	out, err := CalendarXLSX(parsed, period)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"period", period.String(),
		"rows", len(stored),
		"bytes", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// RangeJSON returns the stored shifts with from <= date <= to as indented JSON.
func (s *Service) RangeJSON(ctx context.Context, from, to string) ([]byte, error) {
	start := time.Now()
	stored, err := s.shifts.ListRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("query shifts: %w", err)
	}
	if stored == nil {
		stored = []entity.Shift{}
	}
	out, err := JSON(stored)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.json.ok", "from", from, "to", to, "rows", len(stored), "elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

// JSON encodes v with two-space indentation.
func JSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json export: %w", err)
	}
	return b, nil
}
