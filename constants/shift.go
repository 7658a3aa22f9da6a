package constants

import (
	"strings"
)

type ShiftType string

const (
	ShiftRegular ShiftType = "Regular"
	ShiftLibre   ShiftType = "Libre"
	ShiftTD      ShiftType = "TD"
	ShiftJT      ShiftType = "JT"
)

var allShiftTypes = []ShiftType{
	ShiftRegular,
	ShiftLibre,
	ShiftTD,
	ShiftJT,
}

func ShiftTypesAsStrings() []string {
	result := make([]string, len(allShiftTypes))
	for i, st := range allShiftTypes {
		result[i] = string(st)
	}
	return result
}

// IsOffDay reports whether the shift type marks a day without work hours.
func (s ShiftType) IsOffDay() bool {
	return s == ShiftLibre || s == ShiftTD
}

// CanonicalShiftType maps a free-form label onto a known shift type.
func CanonicalShiftType(input string) (ShiftType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return ShiftRegular, false
	}

	synonyms := map[string]ShiftType{
		"off":      ShiftLibre,
		"libre":    ShiftLibre,
		"descanso": ShiftLibre,
		"free":     ShiftLibre,
		"td":       ShiftTD,
		"jt":       ShiftJT,
		"regular":  ShiftRegular,
		"turno":    ShiftRegular,
	}
	if st, ok := synonyms[normalized]; ok {
		return st, true
	}
	return ShiftRegular, false
}

// Colors used by the calendar views and the spreadsheet export.
const (
	ColorBlue  = "blue"
	ColorRed   = "red"
	ColorGray  = "gray"
	ColorGreen = "green"
)

// DefaultColor returns the display color of a shift type.
func DefaultColor(st ShiftType) string {
	switch st {
	case ShiftLibre:
		return ColorRed
	case ShiftTD, ShiftJT:
		return ColorGray
	default:
		return ColorBlue
	}
}

// Origins stored with persisted shifts.
const (
	OriginImage = "IMG"
	OriginPDF   = "PDF"
)

// NormalizeOrigin falls back to IMG for anything that is not PDF.
func NormalizeOrigin(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), OriginPDF) {
		return OriginPDF
	}
	return OriginImage
}
