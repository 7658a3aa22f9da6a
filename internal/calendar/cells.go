package calendar

import (
	"fmt"
	"sort"
	"strings"
)

// Confidence assigned by source reliability.
const (
	ConfCellBoth   = 0.90
	ConfCellSingle = 0.60
	ConfCropBoth   = 0.88
	ConfCropSingle = 0.58
	ConfRowBoth    = 0.75
	ConfRowSingle  = 0.50
	ConfRowSparse  = 0.45
)

type timeHit struct {
	value string
	y     float64
}

// ExtractFromCells assigns recognized tokens to grid cells and pairs the
// times found in each cell into a shift candidate.
func ExtractFromCells(cells []CalendarCell, blocks []TextBlock, period Period, source string) []ParsedCalendarShift {
	var out []ParsedCalendarShift
	for _, cell := range cells {
		inside := blocksInCell(cell, blocks)
		if s, ok := shiftFromCell(cell, inside, period, source, ConfCellBoth, ConfCellSingle); ok {
			out = append(out, s)
		}
	}
	return out
}

// ExtractFromCellCrop handles the tokens of one per-cell OCR crop. The blocks
// must already be mapped into source coordinates.
func ExtractFromCellCrop(cell CalendarCell, blocks []TextBlock, period Period, source string) (ParsedCalendarShift, bool) {
	return shiftFromCell(cell, blocks, period, source, ConfCropBoth, ConfCropSingle)
}

func blocksInCell(cell CalendarCell, blocks []TextBlock) []TextBlock {
	var inside []TextBlock
	for _, b := range blocks {
		if cell.Contains(b.CenterX(), b.CenterY()) {
			inside = append(inside, b)
		}
	}
	return inside
}

func shiftFromCell(cell CalendarCell, blocks []TextBlock, period Period, source string, confBoth, confSingle float64) (ParsedCalendarShift, bool) {
	date := period.Date(cell.Day)
	if date == "" || len(blocks) == 0 {
		return ParsedCalendarShift{}, false
	}
	ordered := append([]TextBlock(nil), blocks...)
	SortReadingOrder(ordered)

	texts := make([]string, 0, len(ordered))
	for _, b := range ordered {
		texts = append(texts, strings.TrimSpace(b.Text))
	}
	joined := strings.Join(texts, " ")
	raw := fmt.Sprintf("%s d=%d: %s", source, cell.Day, joined)

	if st, ok := OffDayMarker(joined); ok && !HasTimeShape(joined) {
		return newOffDay(date, st, confBoth, raw), true
	}

	var hits []timeHit
	for _, b := range ordered {
		for _, t := range TimesIn(b.Text) {
			hits = append(hits, timeHit{value: t, y: b.CenterY()})
		}
	}
	if len(hits) == 0 {
		return ParsedCalendarShift{}, false
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].y < hits[j].y })

	if len(hits) >= 2 {
		return newShift(date, hits[0].value, hits[1].value, confBoth, raw), true
	}
	mid := cell.Top + cell.Height()/2
	if hits[0].y < mid {
		return newShift(date, hits[0].value, UnknownTime, confSingle, raw), true
	}
	return newShift(date, UnknownTime, hits[0].value, confSingle, raw), true
}
