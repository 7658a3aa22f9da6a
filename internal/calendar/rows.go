package calendar

import (
	"fmt"
	"strconv"
	"strings"
)

// ExtractFromText parses already-recognized text line by line. It needs no
// coordinates: a line made mostly of day numbers opens a row and the lines
// below it, up to the next day row, carry the times for those days.
func ExtractFromText(text string, period Period) []ParsedCalendarShift {
	lines := nonEmptyLines(text)

	var out []ParsedCalendarShift
	for i := 0; i < len(lines); i++ {
		days, ok := dayRow(lines[i])
		if !ok {
			continue
		}
		var data []string
		for j := i + 1; j < len(lines); j++ {
			if _, next := dayRow(lines[j]); next {
				break
			}
			data = append(data, lines[j])
		}
		if len(days) == 1 {
			if s, ok := singleDayShift(days[0], data, period); ok {
				out = append(out, s)
			}
			continue
		}
		out = append(out, multiDayShifts(days, data, period)...)
	}
	return out
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, ln := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

// dayRow reports whether a line is a row of day numbers and returns them.
func dayRow(line string) ([]int, bool) {
	if strings.Contains(line, ":") {
		return nil, false
	}
	var days []int
	tokens := 0
	for _, tok := range strings.Fields(line) {
		tok = strings.Trim(tok, "|")
		if tok == "" {
			continue
		}
		tokens++
		if !reDayNumber.MatchString(tok) {
			continue
		}
		if d, _ := strconv.Atoi(tok); d >= 1 && d <= 31 {
			days = append(days, d)
		}
	}
	if tokens == 0 || len(days) == 0 || float64(len(days)) < 0.5*float64(tokens) {
		return nil, false
	}
	return days, true
}

func singleDayShift(day int, data []string, period Period) (ParsedCalendarShift, bool) {
	date := period.Date(day)
	if date == "" {
		return ParsedCalendarShift{}, false
	}
	joined := strings.Join(data, " ")
	raw := fmt.Sprintf("row d=%d: %s", day, joined)

	var times []string
	firstLineHasTime := false
	for i, ln := range data {
		found := TimesIn(ln)
		if i == 0 && len(found) > 0 {
			firstLineHasTime = true
		}
		times = append(times, found...)
	}
	if len(times) == 0 {
		if st, ok := OffDayMarker(joined); ok {
			return newOffDay(date, st, ConfRowBoth, raw), true
		}
		return ParsedCalendarShift{}, false
	}
	if len(times) >= 2 {
		return newShift(date, times[0], times[1], ConfRowBoth, raw), true
	}
	if firstLineHasTime || len(data) < 2 {
		return newShift(date, times[0], UnknownTime, ConfRowSingle, raw), true
	}
	return newShift(date, UnknownTime, times[0], ConfRowSingle, raw), true
}

func multiDayShifts(days []int, data []string, period Period) []ParsedCalendarShift {
	var rowsWithContent [][]string
	for _, ln := range data {
		cols := splitColumns(ln, len(days))
		if len(cols) > 0 {
			rowsWithContent = append(rowsWithContent, cols)
		}
		if len(rowsWithContent) == 2 {
			break
		}
	}
	if len(rowsWithContent) == 0 {
		return nil
	}
	starts := rightAlign(rowsWithContent[0], len(days))
	var ends []string
	if len(rowsWithContent) > 1 {
		ends = rightAlign(rowsWithContent[1], len(days))
	} else {
		ends = make([]string, len(days))
	}

	var out []ParsedCalendarShift
	for i, day := range days {
		date := period.Date(day)
		if date == "" {
			continue
		}
		startTok, endTok := starts[i], ends[i]
		raw := fmt.Sprintf("row d=%d: %s / %s", day, startTok, endTok)
		// a marker in either column wins: the other column may hold a
		// neighbour's time shifted in by right alignment
		if st, ok := OffDayMarker(startTok); ok {
			out = append(out, newOffDay(date, st, ConfRowBoth, raw))
			continue
		}
		if st, ok := OffDayMarker(endTok); ok {
			out = append(out, newOffDay(date, st, ConfRowBoth, raw))
			continue
		}
		start, end := UnknownTime, UnknownTime
		if ts := TimesIn(startTok); len(ts) > 0 {
			start = ts[0]
			if len(ts) > 1 && endTok == "" {
				end = ts[1]
			}
		}
		if ts := TimesIn(endTok); len(ts) > 0 {
			end = ts[0]
		}
		s := newShift(date, start, end, ConfRowBoth, raw)
		switch s.KnownEndpoints() {
		case 0:
			continue
		case 1:
			s.Confidence = ConfRowSingle
			if len(rowsWithContent) < 2 {
				s.Confidence = ConfRowSparse
			}
		}
		out = append(out, s)
	}
	return out
}

// splitColumns prefers '|' delimited cells and falls back to whitespace tokens.
// Empty cells between pipes are kept so positions survive.
func splitColumns(line string, want int) []string {
	if !strings.Contains(line, "|") {
		return strings.Fields(line)
	}
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	// a trailing or leading pipe adds an empty edge cell
	for len(parts) > want && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for len(parts) > want && parts[0] == "" {
		parts = parts[1:]
	}
	allEmpty := true
	for _, p := range parts {
		if p != "" {
			allEmpty = false
			break
		}
	}
	if allEmpty {
		return nil
	}
	return parts
}

// rightAlign fits cols to n slots. OCR tends to lose the leftmost cells of
// colored rows, so short lists are padded on the left and long lists keep
// their rightmost n entries.
func rightAlign(cols []string, n int) []string {
	out := make([]string, n)
	if len(cols) >= n {
		copy(out, cols[len(cols)-n:])
		return out
	}
	copy(out[n-len(cols):], cols)
	return out
}
