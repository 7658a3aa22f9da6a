// Package calendar reconstructs per-day shifts from recognized calendar text.
//
// The package is pure: it never touches images, files or the network. OCR
// passes, PDF rows and vision model answers are all converted into TextBlocks
// or ParsedCalendarShifts before they get here.
package calendar

import (
	"strings"

	"github.com/joseph-ayodele/shifts-tracker/constants"
)

// UnknownTime marks a start or end time that could not be recognized.
const UnknownTime = "??:??"

// TextBlock is a single recognized word positioned in source raster pixels.
type TextBlock struct {
	Text       string  `json:"text"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"` // 0..100
	Source     string  `json:"source"`
}

func (b TextBlock) CenterX() float64 { return b.X + b.Width/2 }
func (b TextBlock) CenterY() float64 { return b.Y + b.Height/2 }

// CalendarCell is the pixel region of one day of the month.
type CalendarCell struct {
	Day    int     `json:"day"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Contains is half-open so adjacent cells never both claim a point.
func (c CalendarCell) Contains(x, y float64) bool {
	return x >= c.Left && x < c.Right && y >= c.Top && y < c.Bottom
}

func (c CalendarCell) Width() float64  { return c.Right - c.Left }
func (c CalendarCell) Height() float64 { return c.Bottom - c.Top }

// ParsedCalendarShift is one candidate shift for one date.
type ParsedCalendarShift struct {
	Date       string  `json:"date"`
	StartTime  string  `json:"startTime"`
	EndTime    string  `json:"endTime"`
	IsValid    bool    `json:"isValid"`
	Confidence float64 `json:"confidence"`
	RawText    string  `json:"rawText"`
	ShiftType  string  `json:"shiftType,omitempty"`
	Notes      string  `json:"notes,omitempty"`
	Color      string  `json:"color,omitempty"`
	Origin     string  `json:"origin,omitempty"`
}

func (s ParsedCalendarShift) HasStart() bool { return s.StartTime != "" && s.StartTime != UnknownTime }
func (s ParsedCalendarShift) HasEnd() bool   { return s.EndTime != "" && s.EndTime != UnknownTime }

// IsOffDay reports whether the candidate is an explicit day-off marker.
func (s ParsedCalendarShift) IsOffDay() bool {
	return constants.ShiftType(s.ShiftType).IsOffDay() && !s.HasStart() && !s.HasEnd()
}

// KnownEndpoints counts how many of start and end are recognized.
func (s ParsedCalendarShift) KnownEndpoints() int {
	n := 0
	if s.HasStart() {
		n++
	}
	if s.HasEnd() {
		n++
	}
	return n
}

func (s *ParsedCalendarShift) refreshValidity() {
	s.IsValid = s.HasStart() && s.HasEnd()
}

// newShift builds a time-bearing candidate with sentinel defaults.
func newShift(date, start, end string, confidence float64, raw string) ParsedCalendarShift {
	if start == "" {
		start = UnknownTime
	}
	if end == "" {
		end = UnknownTime
	}
	s := ParsedCalendarShift{
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		Confidence: confidence,
		RawText:    raw,
		ShiftType:  string(constants.ShiftRegular),
		Color:      constants.ColorBlue,
		Origin:     constants.OriginImage,
	}
	s.refreshValidity()
	return s
}

// newOffDay builds an off-day marker for a date.
func newOffDay(date string, st constants.ShiftType, confidence float64, raw string) ParsedCalendarShift {
	return ParsedCalendarShift{
		Date:       date,
		StartTime:  UnknownTime,
		EndTime:    UnknownTime,
		Confidence: confidence,
		RawText:    raw,
		ShiftType:  string(st),
		Color:      constants.DefaultColor(st),
		Origin:     constants.OriginImage,
	}
}

func joinRaw(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " | ")
}
