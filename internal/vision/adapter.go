package vision

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/joseph-ayodele/shifts-tracker/constants"
	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
)

// Confidence of model-reported days.
const (
	ConfidenceBoth    = 0.92
	ConfidencePartial = 0.62
)

// ToParsed maps model candidates onto the common shift shape, one per date,
// sorted by date. Days without any information and impossible dates are
// dropped. Times go through the same normalizer as every OCR strategy.
func ToParsed(cands []Candidate, period calendar.Period) []calendar.ParsedCalendarShift {
	byDate := map[string]calendar.ParsedCalendarShift{}
	for _, c := range cands {
		s, ok := toParsed(c, period)
		if !ok {
			continue
		}
		if prev, seen := byDate[s.Date]; seen && rank(prev) > rank(s) {
			continue
		}
		byDate[s.Date] = s
	}

	out := make([]calendar.ParsedCalendarShift, 0, len(byDate))
	for _, s := range byDate {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func rank(s calendar.ParsedCalendarShift) float64 {
	r := math.Round(s.Confidence * 10)
	if s.IsValid {
		r += 10
	}
	return r
}

func toParsed(c Candidate, period calendar.Period) (calendar.ParsedCalendarShift, bool) {
	start, hasStart := normalizeOptional(c.StartTime)
	end, hasEnd := normalizeOptional(c.EndTime)
	notes := strings.TrimSpace(c.Notes)
	if strings.TrimSpace(c.ShiftType) == "" && notes == "" && !hasStart && !hasEnd {
		return calendar.ParsedCalendarShift{}, false
	}

	month := period.Month + 1
	if c.Month != nil {
		month = *c.Month
	}
	year := period.Year
	if c.Year != nil {
		year = *c.Year
	}
	if month < 1 || month > 12 || year <= 0 {
		return calendar.ParsedCalendarShift{}, false
	}
	date := calendar.Period{Month: month - 1, Year: year}.Date(c.Day)
	if date == "" {
		return calendar.ParsedCalendarShift{}, false
	}

	st := shiftType(c.ShiftType, hasStart || hasEnd)
	color := strings.ToLower(strings.TrimSpace(c.Color))
	if color == "" {
		color = constants.DefaultColor(st)
	}

	s := calendar.ParsedCalendarShift{
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		IsValid:    hasStart && hasEnd,
		Confidence: ConfidencePartial,
		RawText:    rawJSON(c),
		ShiftType:  string(st),
		Notes:      notes,
		Color:      color,
		Origin:     constants.OriginImage,
	}
	if s.IsValid {
		s.Confidence = ConfidenceBoth
	}
	return s, true
}

// shiftType keeps JT, Libre, TD and Regular; anything else defaults by
// whether the day carries times.
func shiftType(label string, timed bool) constants.ShiftType {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "JT":
		return constants.ShiftJT
	case "LIBRE":
		return constants.ShiftLibre
	case "TD":
		return constants.ShiftTD
	case "REGULAR":
		return constants.ShiftRegular
	}
	if timed {
		return constants.ShiftRegular
	}
	return constants.ShiftLibre
}

func normalizeOptional(v *string) (string, bool) {
	if v == nil {
		return calendar.UnknownTime, false
	}
	if t, ok := calendar.NormalizeTime(*v); ok {
		return t, true
	}
	return calendar.UnknownTime, false
}

func rawJSON(c Candidate) string {
	b, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return "vision: " + string(b)
}
