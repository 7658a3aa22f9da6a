package export

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/shifts-tracker/constants"
	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
	"github.com/joseph-ayodele/shifts-tracker/internal/common"
	"github.com/joseph-ayodele/shifts-tracker/internal/entity"
	"github.com/joseph-ayodele/shifts-tracker/internal/repository"
)

var march2025 = calendar.NewPeriod(2, 2025)

func openBook(t *testing.T, b []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func fillOf(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	id, err := f.GetCellStyle(sheet, cell)
	require.NoError(t, err)
	style, err := f.GetStyle(id)
	require.NoError(t, err)
	require.NotEmpty(t, style.Fill.Color, cell)
	return strings.ToUpper(style.Fill.Color[0])
}

func TestCalendarXLSX_March2025(t *testing.T) {
	shifts := []calendar.ParsedCalendarShift{
		{Date: "2025-03-01", StartTime: "08:00", EndTime: "16:00", ShiftType: "Regular", Color: constants.ColorBlue, IsValid: true},
		{Date: "2025-03-01", StartTime: "20:00", EndTime: "08:00", ShiftType: "Regular"},
		{Date: "2025-03-02", StartTime: calendar.UnknownTime, EndTime: calendar.UnknownTime, ShiftType: "Libre", Color: constants.ColorRed},
		{Date: "2025-03-03", StartTime: "14:00", EndTime: calendar.UnknownTime, ShiftType: "JT", Notes: "guardia"},
	}
	b, err := CalendarXLSX(shifts, march2025)
	require.NoError(t, err)

	f := openBook(t, b)
	sheet := "Turnos Marzo 2025"
	assert.Equal(t, []string{sheet}, f.GetSheetList())

	for cell, want := range map[string]string{
		"A1": "Lunes",
		"C1": "Miércoles",
		"G1": "Domingo",
		"A2": "24",
		"F2": "1\nRegular\n08:00-16:00",
		"G2": "2\nLibre",
		"A3": "3\nJT\n14:00\nguardia",
		"B3": "4",
		"A7": "31",
		"B7": "1",
		"G7": "6",
	} {
		got, err := f.GetCellValue(sheet, cell)
		require.NoError(t, err)
		assert.Equal(t, want, got, cell)
	}

	assert.True(t, strings.HasSuffix(fillOf(t, f, sheet, "A1"), "4472C4"))
	assert.True(t, strings.HasSuffix(fillOf(t, f, sheet, "A2"), "F0F0F0"), "previous month")
	assert.True(t, strings.HasSuffix(fillOf(t, f, sheet, "B7"), "F0F0F0"), "next month")
	assert.True(t, strings.HasSuffix(fillOf(t, f, sheet, "F2"), "E5F0FF"))
	assert.True(t, strings.HasSuffix(fillOf(t, f, sheet, "G2"), "FFE5E5"))
	assert.True(t, strings.HasSuffix(fillOf(t, f, sheet, "A3"), "E8E8E8"), "JT falls back to its type color")
	assert.True(t, strings.HasSuffix(fillOf(t, f, sheet, "B3"), "FFFFFF"))

	width, err := f.GetColWidth(sheet, "D")
	require.NoError(t, err)
	assert.Equal(t, float64(colWidth), width)
	height, err := f.GetRowHeight(sheet, 4)
	require.NoError(t, err)
	assert.Equal(t, float64(rowHeight), height)
}

func TestCalendarXLSX_InvalidPeriod(t *testing.T) {
	_, err := CalendarXLSX(nil, calendar.Period{Month: 12, Year: 2025})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestGridBounds(t *testing.T) {
	tests := []struct {
		period   calendar.Period
		from, to string
		cells    int
	}{
		{march2025, "2025-02-24", "2025-04-06", 42},
		{calendar.NewPeriod(0, 2026), "2025-12-29", "2026-02-01", 35},
		{calendar.NewPeriod(11, 2025), "2025-12-01", "2026-01-04", 35},
		{calendar.NewPeriod(1, 2027), "2027-02-01", "2027-02-28", 28},
	}
	for _, tt := range tests {
		t.Run(tt.period.String(), func(t *testing.T) {
			from, to := gridBounds(tt.period)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, to)
			assert.Len(t, gridDays(tt.period), tt.cells)
		})
	}
}

func TestCellText(t *testing.T) {
	assert.Equal(t, "7", cellText(7, calendar.ParsedCalendarShift{}, false))
	assert.Equal(t, "7\n22:00", cellText(7, calendar.ParsedCalendarShift{StartTime: calendar.UnknownTime, EndTime: "22:00"}, true))
}

func newService(t *testing.T) (*Service, repository.ShiftRepository) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.Open(ctx, repository.Config{Driver: "sqlite", DSN: ":memory:"}, logger)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(func() { db.Close(logger) })
	repo := repository.NewShiftRepository(db, logger)
	return NewService(repo, logger), repo
}

func TestService_MonthXLSX(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	now := time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpsertMany(ctx, []entity.Shift{
		{ID: "feb10", Date: "2025-02-10", StartTime: "08:00", EndTime: "15:00", Location: "Regular", Origin: "IMG", CreatedAt: now},
		{ID: "feb24", Date: "2025-02-24", StartTime: "08:00", EndTime: "15:00", Location: "Regular", Origin: "IMG", CreatedAt: now},
		{ID: "mar15", Date: "2025-03-15", Location: "Libre", Origin: "PDF", CreatedAt: now},
	}))

	b, err := svc.MonthXLSX(ctx, march2025)
	require.NoError(t, err)
	f := openBook(t, b)
	sheet := SheetName(march2025)

	got, err := f.GetCellValue(sheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "24\nRegular\n08:00-15:00", got)
	got, err = f.GetCellValue(sheet, "F3")
	require.NoError(t, err)
	assert.Equal(t, "8", got)
	// March 15 is the Saturday of the third week.
	got, err = f.GetCellValue(sheet, "F4")
	require.NoError(t, err)
	assert.Equal(t, "15\nLibre", got)
}

func TestService_RangeJSON(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	require.NoError(t, repo.UpsertMany(ctx, []entity.Shift{
		{ID: "a", Date: "2025-03-01", StartTime: "08:00", EndTime: "15:00", Location: "Regular", Origin: "IMG"},
		{ID: "b", Date: "2025-04-01", Location: "Libre", Origin: "IMG"},
	}))

	b, err := svc.RangeJSON(ctx, "2025-03-01", "2025-03-31")
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(b, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0]["id"])
	assert.Equal(t, "08:00", rows[0]["startTime"])
	assert.Contains(t, string(b), "\n  {")

	b, err = svc.RangeJSON(ctx, "2030-01-01", "")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}
