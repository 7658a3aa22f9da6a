package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/shifts-tracker/constants"
	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
)

// Shift is a stored shift. Unknown times are stored as "".
type Shift struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Location  string    `json:"location"`
	Origin    string    `json:"origin"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Category is Mañana, Tarde or Noche by start time, or "" without one.
func (s Shift) Category() string {
	if s.StartTime == "" {
		return ""
	}
	return calendar.Category(s.StartTime)
}

// Hours is the shift length, wrapping past midnight. Zero when a time is missing.
func (s Shift) Hours() float64 {
	if s.StartTime == "" || s.EndTime == "" {
		return 0
	}
	m, ok := calendar.DurationMinutes(s.StartTime, s.EndTime)
	if !ok {
		return 0
	}
	return float64(m) / 60
}

// IsOffDay reports a stored day off (Libre or TD without times).
func (s Shift) IsOffDay() bool {
	st, _ := constants.CanonicalShiftType(s.Location)
	return st.IsOffDay() && s.StartTime == "" && s.EndTime == ""
}

// FromParsed turns import candidates into new shifts with fresh IDs. Rows
// carrying neither a type nor a time are skipped.
func FromParsed(parsed []calendar.ParsedCalendarShift, now time.Time) []Shift {
	out := make([]Shift, 0, len(parsed))
	for _, p := range parsed {
		start, end := knownOrEmpty(p.StartTime), knownOrEmpty(p.EndTime)
		if strings.TrimSpace(p.ShiftType) == "" && start == "" && end == "" {
			continue
		}
		out = append(out, Shift{
			ID:        uuid.NewString(),
			Date:      p.Date,
			StartTime: start,
			EndTime:   end,
			Location:  locationLabel(p.ShiftType),
			Origin:    constants.NormalizeOrigin(p.Origin),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return out
}

// ToParsed is the inverse used by exports of stored shifts.
func (s Shift) ToParsed() calendar.ParsedCalendarShift {
	st, _ := constants.CanonicalShiftType(s.Location)
	p := calendar.ParsedCalendarShift{
		Date:       s.Date,
		StartTime:  orUnknown(s.StartTime),
		EndTime:    orUnknown(s.EndTime),
		Confidence: 1,
		ShiftType:  s.Location,
		Color:      constants.DefaultColor(st),
		Origin:     s.Origin,
	}
	p.IsValid = p.HasStart() && p.HasEnd()
	return p
}

func locationLabel(shiftType string) string {
	st, ok := constants.CanonicalShiftType(shiftType)
	if ok {
		return string(st)
	}
	if t := strings.TrimSpace(shiftType); t != "" {
		return t
	}
	return string(constants.ShiftRegular)
}

func knownOrEmpty(t string) string {
	if t == calendar.UnknownTime {
		return ""
	}
	return t
}

func orUnknown(t string) string {
	if t == "" {
		return calendar.UnknownTime
	}
	return t
}
