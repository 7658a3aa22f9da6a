// Package vision asks a multimodal model to read the calendar. Whatever the
// provider, answers are validated against one JSON schema and funnelled
// through ToParsed so they compete with local OCR candidates on equal terms.
package vision

import (
	"context"

	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
)

// Candidate is one day as reported by a model. Month and Year are 1-based
// when present; days of adjacent months may be reported.
type Candidate struct {
	Day       int     `json:"day"`
	Month     *int    `json:"month,omitempty"`
	Year      *int    `json:"year,omitempty"`
	ShiftType string  `json:"shiftType,omitempty"`
	StartTime *string `json:"startTime,omitempty"`
	EndTime   *string `json:"endTime,omitempty"`
	Color     string  `json:"color,omitempty"`
	Notes     string  `json:"notes,omitempty"`
}

// Request carries either an image or recognized text, plus the period the
// calendar is believed to show.
type Request struct {
	Image    []byte
	MIMEType string
	OCRText  string
	Period   calendar.Period
}

func (r Request) hasImage() bool { return len(r.Image) > 0 }

// Parser is the seam the import pipeline depends on.
type Parser interface {
	ExtractShifts(ctx context.Context, req Request) ([]Candidate, []byte /*rawJSON*/, error)
}
