package vision

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
)

const (
	systemPromptImage = "You are a work shift calendar analyzer. Analyze images of work schedules and extract shift data as JSON."
	systemPromptText  = "You are a work shift schedule parser. Extract shifts from OCR text and return valid JSON."
)

var monthNamesEn = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

func monthName(p calendar.Period) string {
	if p.Month < 0 || p.Month > 11 {
		return "Unknown"
	}
	return monthNamesEn[p.Month]
}

var promptRules = []string{
	"Look at EVERY day cell, including days from the previous and next month if they appear.",
	"ONLY include days that have AT LEAST ONE piece of information: type, notes, start time or end time. Skip empty days.",
	"A day may have a shift type label (JT, TD, Libre, Regular) and times written on separate lines, like 17:00 and 01:00.",
	"When a day has two times on separate lines, the first is the START time and the second is the END time.",
	"Libre days are days off with no times (they may carry TD as notes). TD days are special days with no times.",
	"Write times as HH:MM in 24-hour format.",
	"Without an explicit type use Regular when the day has times and Libre otherwise.",
}

const answerShape = `Return ONLY a JSON array. For each day:
- day: day of month (1-31)
- month: month number (1-12)
- year: year number
- shiftType: "Regular", "Libre", "TD" or "JT"
- startTime: "HH:MM" or null
- endTime: "HH:MM" or null
- color: "blue" for Regular, "red" for Libre, "gray" for TD/JT
- notes: any notes, or null`

// BuildVisionPrompt is the user instruction sent next to a calendar image.
func BuildVisionPrompt(p calendar.Period) string {
	var b strings.Builder
	b.WriteString("You are an expert at reading work shift schedules from calendar images.\n")
	fmt.Fprintf(&b, "The calendar shows work shifts for %s %d (month %d).\n\n", monthName(p), p.Year, p.Month+1)
	writeRules(&b)
	b.WriteString(answerShape)
	return b.String()
}

// BuildTextPrompt is the instruction used when only recognized text is
// available. The text is capped to keep requests small.
func BuildTextPrompt(ocrText string, p calendar.Period) string {
	var b strings.Builder
	b.WriteString("You are an expert at reading work shift schedules from OCR text.\n")
	fmt.Fprintf(&b, "The text was recognized from a calendar of work shifts for %s %d (month %d).\n\n", monthName(p), p.Year, p.Month+1)
	b.WriteString("OCR text:\n")
	if len(ocrText) > 6000 {
		ocrText = ocrText[:6000]
	}
	b.WriteString(ocrText)
	b.WriteString("\n\n")
	writeRules(&b)
	b.WriteString(answerShape)
	return b.String()
}

func writeRules(b *strings.Builder) {
	b.WriteString("RULES:\n")
	for i, r := range promptRules {
		fmt.Fprintf(b, "%d. %s\n", i+1, r)
	}
	b.WriteString("\n")
}

func systemPrompt(req Request) string {
	if req.hasImage() {
		return systemPromptImage
	}
	return systemPromptText
}

func userPrompt(req Request) string {
	if req.hasImage() {
		return BuildVisionPrompt(req.Period)
	}
	return BuildTextPrompt(req.OCRText, req.Period)
}
