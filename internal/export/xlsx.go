// Package export renders shifts as a month-calendar workbook or as JSON.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/shifts-tracker/constants"
	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
	"github.com/joseph-ayodele/shifts-tracker/internal/common"
)

const (
	colWidth  = 20
	rowHeight = 70

	headerFill  = "4472C4"
	outsideFill = "F0F0F0"
	plainFill   = "FFFFFF"
	offDayFill  = "FFE5E5"
)

var weekdays = []string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado", "Domingo"}

var monthTitles = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

var fillByColor = map[string]string{
	constants.ColorBlue:  "E5F0FF",
	constants.ColorRed:   "FFE5E5",
	constants.ColorGray:  "E8E8E8",
	constants.ColorGreen: "E5FFE5",
}

// SheetName is the worksheet title of a month, e.g. "Turnos Marzo 2025".
func SheetName(p calendar.Period) string {
	return fmt.Sprintf("Turnos %s %d", monthTitles[p.Month], p.Year)
}

// CalendarXLSX lays shifts out as a Monday-first month grid. Leading and
// trailing days of the neighbouring months fill the first and last weeks and
// are greyed out. Only the first shift of each date is shown.
func CalendarXLSX(shifts []calendar.ParsedCalendarShift, period calendar.Period) ([]byte, error) {
	if !period.Valid() {
		return nil, common.NewAppError("INVALID_INPUT", "export needs a valid month and year", common.ErrInvalidInput)
	}
	byDate := make(map[string]calendar.ParsedCalendarShift, len(shifts))
	for _, s := range shifts {
		if _, ok := byDate[s.Date]; !ok {
			byDate[s.Date] = s
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := SheetName(period)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	if err := writeHeader(f, sheet); err != nil {
		return nil, err
	}

	styles := map[string]int{}
	for i, day := range gridDays(period) {
		col, row := i%7+1, i/7+2
		cell, _ := excelize.CoordinatesToCellName(col, row)

		s, has := byDate[day.date]
		fill := plainFill
		switch {
		case !day.inMonth:
			fill = outsideFill
		case has:
			fill = cellFill(s)
		}
		if err := f.SetCellValue(sheet, cell, cellText(day.day, s, has)); err != nil {
			return nil, fmt.Errorf("xlsx cell %s: %w", cell, err)
		}
		style, err := bodyStyle(f, styles, fill)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return nil, fmt.Errorf("xlsx style %s: %w", cell, err)
		}
		if col == 1 {
			_ = f.SetRowHeight(sheet, row, rowHeight)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder(),
	})
	if err != nil {
		return fmt.Errorf("xlsx header style: %w", err)
	}
	for i, name := range weekdays {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "G1", style); err != nil {
		return fmt.Errorf("xlsx header style: %w", err)
	}
	return f.SetColWidth(sheet, "A", "G", colWidth)
}

// bodyStyle returns the style for a fill color, creating it once per workbook.
func bodyStyle(f *excelize.File, cache map[string]int, fill string) (int, error) {
	if id, ok := cache[fill]; ok {
		return id, nil
	}
	id, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 10},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
		Border:    thinBorder(),
	})
	if err != nil {
		return 0, fmt.Errorf("xlsx cell style: %w", err)
	}
	cache[fill] = id
	return id, nil
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "top", Color: "000000", Style: 1},
		{Type: "left", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
}

func cellText(day int, s calendar.ParsedCalendarShift, has bool) string {
	lines := []string{strconv.Itoa(day)}
	if !has {
		return lines[0]
	}
	if t := strings.TrimSpace(s.ShiftType); t != "" {
		lines = append(lines, t)
	}
	switch {
	case s.HasStart() && s.HasEnd():
		lines = append(lines, s.StartTime+"-"+s.EndTime)
	case s.HasStart():
		lines = append(lines, s.StartTime)
	case s.HasEnd():
		lines = append(lines, s.EndTime)
	}
	if n := strings.TrimSpace(s.Notes); n != "" {
		lines = append(lines, n)
	}
	return strings.Join(lines, "\n")
}

func cellFill(s calendar.ParsedCalendarShift) string {
	if strings.Contains(strings.ToLower(s.ShiftType), "libre") {
		return offDayFill
	}
	color := s.Color
	if color == "" {
		st, _ := constants.CanonicalShiftType(s.ShiftType)
		color = constants.DefaultColor(st)
	}
	if fill, ok := fillByColor[color]; ok {
		return fill
	}
	return plainFill
}

type gridDay struct {
	date    string
	day     int
	inMonth bool
}

// gridDays lists the cells of the month grid in reading order, whole weeks
// from the Monday on or before day 1.
func gridDays(p calendar.Period) []gridDay {
	lead := p.FirstWeekday()
	days := p.DaysInMonth()
	total := 7 * ((lead + days + 6) / 7)
	prev, next := addMonths(p, -1), addMonths(p, 1)
	prevDays := prev.DaysInMonth()

	out := make([]gridDay, 0, total)
	for i := 0; i < total; i++ {
		switch {
		case i < lead:
			d := prevDays - lead + 1 + i
			out = append(out, gridDay{date: prev.Date(d), day: d})
		case i < lead+days:
			d := i - lead + 1
			out = append(out, gridDay{date: p.Date(d), day: d, inMonth: true})
		default:
			d := i - lead - days + 1
			out = append(out, gridDay{date: next.Date(d), day: d})
		}
	}
	return out
}

// gridBounds is the first and last date shown on the month grid.
func gridBounds(p calendar.Period) (string, string) {
	days := gridDays(p)
	return days[0].date, days[len(days)-1].date
}

func addMonths(p calendar.Period, delta int) calendar.Period {
	m := p.Month + delta
	y := p.Year + m/12
	m %= 12
	if m < 0 {
		m += 12
		y--
	}
	return calendar.NewPeriod(m, y)
}
