package pdftable

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/shifts-tracker/constants"
	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
	"github.com/joseph-ayodele/shifts-tracker/internal/common"
)

// Layout constants, in PDF points.
const (
	LabelMaxX      = 80.0 // names and IDs sit left of this
	ColumnCluster  = 8.0  // items of one day column
	HeaderDistance = 12.0 // max distance from a column to its dd/mm header
)

// Confidence of roster cells.
const (
	ConfidenceOff   = 0.95
	ConfidenceTimes = 0.9
)

// SplitShiftNote prefixes the notes of days worked in several parts.
const SplitShiftNote = "turno partido: "

// Employee selects a roster row by name, ID or both. The ID wins when both
// are present on the page.
type Employee struct {
	Name string
	ID   string
}

var (
	reNonDigit  = regexp.MustCompile(`\D`)
	reIDToken   = regexp.MustCompile(`^\(\d+\)$`)
	reSeparator = regexp.MustCompile(`^-+$`)
	reLabel     = regexp.MustCompile(`^[A-Za-zÁÉÍÓÚÜÑáéíóúüñ.,' -]+$`)
	reSpaces    = regexp.MustCompile(`\s+`)
)

// ExtractEmployeeShifts reads the row of one employee. A day can yield more
// than one candidate when its cell holds split shifts.
func ExtractEmployeeShifts(items []Item, period calendar.Period, emp Employee) ([]calendar.ParsedCalendarShift, error) {
	if strings.TrimSpace(emp.Name) == "" && digits(emp.ID) == "" {
		return nil, common.NewAppError("INVALID_INPUT", "employee name or ID is required for PDF rosters", common.ErrInvalidInput)
	}

	rowItems, page, ok := findEmployeeRow(items, emp)
	if !ok {
		return nil, common.NewAppError("EMPLOYEE_NOT_FOUND",
			fmt.Sprintf("no roster row for %s (%s)", emp.Name, emp.ID), common.ErrEmployeeNotFound)
	}
	groups := clusterByX(rowItems)

	headers := dayHeaders(items, page, period)
	if len(headers) == 0 {
		return nil, common.NewAppError("PDF_LAYOUT", "no day headers on the roster page", common.ErrInvalidInput)
	}
	columns := mapColumnsToDays(groups, headers)
	if len(columns) == 0 {
		return nil, common.NewAppError("PDF_LAYOUT", "roster columns do not line up with day headers", common.ErrInvalidInput)
	}

	var out []calendar.ParsedCalendarShift
	for _, col := range columns {
		date := period.Date(col.day)
		if date == "" {
			continue
		}
		sort.SliceStable(col.items, func(i, j int) bool {
			if col.items[i].Y != col.items[j].Y {
				return col.items[i].Y > col.items[j].Y
			}
			return col.items[i].X < col.items[j].X
		})
		var tokens []string
		for _, it := range col.items {
			tokens = append(tokens, tokenize(it.Text)...)
		}
		out = append(out, dayEntries(date, col.day, tokens)...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

// dayEntries turns the tokens of one cell into candidates. "-" separates
// segments; a segment of off markers is a day off, otherwise its times pair
// up in order.
func dayEntries(date string, day int, tokens []string) []calendar.ParsedCalendarShift {
	if len(tokens) == 0 {
		return nil
	}

	var segments [][]string
	var cur []string
	for _, t := range tokens {
		if reSeparator.MatchString(t) {
			if len(cur) > 0 {
				segments = append(segments, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		segments = append(segments, cur)
	}

	var out []calendar.ParsedCalendarShift
	for _, seg := range segments {
		raw := fmt.Sprintf("pdf d=%d: %s", day, strings.Join(seg, " "))
		if st, ok := offSegment(seg); ok {
			out = append(out, calendar.ParsedCalendarShift{
				Date:       date,
				StartTime:  calendar.UnknownTime,
				EndTime:    calendar.UnknownTime,
				Confidence: ConfidenceOff,
				RawText:    raw,
				ShiftType:  string(st),
				Color:      constants.DefaultColor(st),
				Origin:     constants.OriginPDF,
			})
			continue
		}

		var times []string
		for _, t := range seg {
			if hhmm, ok := calendar.NormalizeTime(t); ok {
				times = append(times, hhmm)
			}
		}
		for i := 0; i < len(times); i += 2 {
			end := calendar.UnknownTime
			if i+1 < len(times) {
				end = times[i+1]
			}
			out = append(out, calendar.ParsedCalendarShift{
				Date:       date,
				StartTime:  times[i],
				EndTime:    end,
				IsValid:    end != calendar.UnknownTime,
				Confidence: ConfidenceTimes,
				RawText:    raw,
				ShiftType:  string(constants.ShiftRegular),
				Color:      constants.ColorBlue,
				Origin:     constants.OriginPDF,
			})
		}
	}
	markSplitShift(out)
	return out
}

// markSplitShift names every timed part of a split shift in the notes of
// each part, so the part kept by consolidation still shows the others.
func markSplitShift(entries []calendar.ParsedCalendarShift) {
	var idx []int
	var parts []string
	for i, e := range entries {
		if e.IsOffDay() {
			continue
		}
		idx = append(idx, i)
		parts = append(parts, e.StartTime+"-"+e.EndTime)
	}
	if len(idx) < 2 {
		return
	}
	note := SplitShiftNote + strings.Join(parts, ", ")
	for _, i := range idx {
		entries[i].Notes = note
	}
}

func offSegment(seg []string) (constants.ShiftType, bool) {
	var st constants.ShiftType
	for _, t := range seg {
		s, ok := constants.CanonicalShiftType(t)
		if !ok || !s.IsOffDay() {
			return "", false
		}
		if st == "" {
			st = s
		}
	}
	return st, st != ""
}

// tokenize splits a text run into tokens. A standalone dash run stays a
// separator token; a dash inside a token such as "08:00-12:00" only splits it.
func tokenize(text string) []string {
	var out []string
	for _, f := range strings.Fields(text) {
		if reSeparator.MatchString(f) {
			out = append(out, f)
			continue
		}
		for _, part := range strings.Split(f, "-") {
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func findEmployeeRow(items []Item, emp Employee) ([]Item, int, bool) {
	targetID := digits(emp.ID)
	var nameTokens []string
	for _, tok := range strings.Split(normalizeText(emp.Name), " ") {
		if len([]rune(tok)) >= 3 {
			nameTokens = append(nameTokens, tok)
		}
	}

	for _, page := range pages(items) {
		pageItems := readingOrder(items, page)

		idIndex, nameIndex := -1, -1
		for i, it := range pageItems {
			if it.X >= LabelMaxX {
				continue
			}
			if idIndex < 0 && targetID != "" && digits(it.Text) == targetID {
				idIndex = i
			}
			if nameIndex < 0 && isNameLabel(it.Text) && matchesName(it.Text, nameTokens) {
				nameIndex = i
			}
		}
		anchor := idIndex
		if anchor < 0 {
			anchor = nameIndex
		}
		if anchor < 0 {
			continue
		}

		// an ID printed under the name starts the row at that name
		start := anchor
		for i := anchor - 1; anchor == idIndex && i >= 0; i-- {
			if pageItems[i].X < LabelMaxX {
				if isNameLabel(pageItems[i].Text) {
					start = i
				}
				break
			}
		}
		end := len(pageItems)
		for i := anchor + 1; i < len(pageItems); i++ {
			if pageItems[i].X < LabelMaxX && isNameLabel(pageItems[i].Text) {
				end = i
				break
			}
		}

		var row []Item
		for _, it := range pageItems[start:end] {
			if it.X > LabelMaxX {
				row = append(row, it)
			}
		}
		if len(row) > 0 {
			return row, page, true
		}
	}
	return nil, 0, false
}

func matchesName(label string, nameTokens []string) bool {
	if len(nameTokens) == 0 {
		return false
	}
	words := strings.Split(normalizeText(label), " ")
	for _, tok := range nameTokens {
		for _, w := range words {
			if w == "" {
				continue
			}
			if strings.HasPrefix(w, tok) || (len([]rune(w)) >= 3 && strings.HasPrefix(tok, w)) {
				return true
			}
		}
	}
	return false
}

func pages(items []Item) []int {
	seen := map[int]bool{}
	var out []int
	for _, it := range items {
		if !seen[it.Page] {
			seen[it.Page] = true
			out = append(out, it.Page)
		}
	}
	sort.Ints(out)
	return out
}

// readingOrder sorts the items of a page top to bottom, then left to right.
func readingOrder(items []Item, page int) []Item {
	var out []Item
	for _, it := range items {
		if it.Page == page {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if math.Abs(out[i].Y-out[j].Y) > 1 {
			return out[i].Y > out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// clusterByX groups items whose X lies within ColumnCluster of the running
// center of the current group.
func clusterByX(items []Item) [][]Item {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var groups [][]Item
	var sum float64
	for _, it := range sorted {
		if n := len(groups); n > 0 {
			last := groups[n-1]
			if math.Abs(it.X-sum/float64(len(last))) <= ColumnCluster {
				groups[n-1] = append(last, it)
				sum += it.X
				continue
			}
		}
		groups = append(groups, []Item{it})
		sum = it.X
	}
	return groups
}

func dayHeaders(items []Item, page int, period calendar.Period) []dayHeader {
	var out []dayHeader
	for _, it := range items {
		if it.Page != page {
			continue
		}
		if h, ok := parseHeader(it); ok && h.month0 == period.Month {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].x < out[j].x })
	return out
}

type dayColumn struct {
	day   int
	items []Item
}

// mapColumnsToDays assigns each column group, left to right, to the nearest
// unused day header within HeaderDistance.
func mapColumnsToDays(groups [][]Item, headers []dayHeader) []dayColumn {
	used := map[int]bool{}
	var out []dayColumn
	for _, g := range groups {
		var center float64
		for _, it := range g {
			center += it.X
		}
		center /= float64(len(g))

		best, bestDist := -1, math.Inf(1)
		for i, h := range headers {
			if used[h.day] {
				continue
			}
			if d := math.Abs(h.x - center); d < bestDist {
				best, bestDist = i, d
			}
		}
		if best < 0 || bestDist > HeaderDistance {
			continue
		}
		used[headers[best].day] = true
		out = append(out, dayColumn{day: headers[best].day, items: g})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].day < out[j].day })
	return out
}

func isNameLabel(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" || reIDToken.MatchString(t) || reSeparator.MatchString(t) {
		return false
	}
	if _, ok := calendar.NormalizeTime(t); ok {
		return false
	}
	if st, ok := constants.CanonicalShiftType(t); ok && st.IsOffDay() {
		return false
	}
	return reLabel.MatchString(t)
}

func digits(s string) string { return reNonDigit.ReplaceAllString(s, "") }

// normalizeText folds accents, collapses whitespace and lowercases.
func normalizeText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(reSpaces.ReplaceAllString(folded, " ")))
}
