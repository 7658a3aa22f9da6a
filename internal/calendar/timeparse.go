package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/shifts-tracker/constants"
)

var (
	reTwelveHour = regexp.MustCompile(`^(\d{1,2}):(\d{2})(AM|PM)$`)
	reClock      = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	reCompact    = regexp.MustCompile(`^(\d{2})(\d{2})$`)

	// time-shaped substrings, including the letter confusions NormalizeTime repairs
	reTimeShaped = regexp.MustCompile(`(?i)[0-9OIL]{1,2}\s?[:.,;]\s?[0-9OIL]{2}(?:\s?[AP]M)?`)
	reDigitsOnly = regexp.MustCompile(`^\d{4}$`)
	reOffDay     = regexp.MustCompile(`(?i)\b(libre|td)\b`)

	confusions = strings.NewReplacer("O", "0", "I", "1", "L", "1", ".", ":", ",", ":", ";", ":")
)

// NormalizeTime turns a noisy OCR token into canonical HH:MM. It never guesses:
// anything outside the accepted shapes or bounds is rejected.
func NormalizeTime(raw string) (string, bool) {
	s := strings.Join(strings.Fields(strings.ToUpper(raw)), "")
	if s == "" {
		return "", false
	}
	// keep the meridiem suffix readable before mapping letter confusions
	suffix := ""
	if strings.HasSuffix(s, "AM") || strings.HasSuffix(s, "PM") {
		suffix = s[len(s)-2:]
		s = s[:len(s)-2]
	}
	s = confusions.Replace(s) + suffix

	if m := reTwelveHour.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 12 || minute > 59 {
			return "", false
		}
		switch {
		case m[3] == "PM" && hour != 12:
			hour += 12
		case m[3] == "AM" && hour == 12:
			hour = 0
		}
		return formatClock(hour, minute), true
	}
	if m := reClock.FindStringSubmatch(s); m != nil {
		return boundedClock(m[1], m[2])
	}
	if m := reCompact.FindStringSubmatch(s); m != nil {
		return boundedClock(m[1], m[2])
	}
	return "", false
}

func boundedClock(h, m string) (string, bool) {
	hour, _ := strconv.Atoi(h)
	minute, _ := strconv.Atoi(m)
	if hour > 23 || minute > 59 {
		return "", false
	}
	return formatClock(hour, minute), true
}

func formatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// TimesIn returns every normalizable time found in text, in reading order.
func TimesIn(text string) []string {
	var out []string
	for _, m := range reTimeShaped.FindAllString(text, -1) {
		if t, ok := NormalizeTime(m); ok {
			out = append(out, t)
		}
	}
	if len(out) > 0 {
		return out
	}
	// compact HHMM only counts when it is a whole token
	for _, tok := range strings.FieldsFunc(text, isTokenSeparator) {
		if reDigitsOnly.MatchString(tok) {
			if t, ok := NormalizeTime(tok); ok {
				out = append(out, t)
			}
		}
	}
	return out
}

// HasTimeShape reports whether text contains anything that looks like a clock time.
func HasTimeShape(text string) bool {
	return reTimeShaped.MatchString(text)
}

// OffDayMarker returns the off-day type named in text, if any.
func OffDayMarker(text string) (constants.ShiftType, bool) {
	m := reOffDay.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if strings.EqualFold(m[1], "td") {
		return constants.ShiftTD, true
	}
	return constants.ShiftLibre, true
}

func isTokenSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '|', '-', '/', '–', '—':
		return true
	}
	return false
}

// Minutes converts canonical HH:MM to minutes after midnight.
func Minutes(hhmm string) (int, bool) {
	m := reClock.FindStringSubmatch(hhmm)
	if m == nil {
		return 0, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

// ClockFromMinutes wraps any minute count onto a 24h clock.
func ClockFromMinutes(total int) string {
	total %= 24 * 60
	if total < 0 {
		total += 24 * 60
	}
	return formatClock(total/60, total%60)
}

// DurationMinutes is the shift length, wrapping past midnight when end <= start.
func DurationMinutes(start, end string) (int, bool) {
	s, ok := Minutes(start)
	if !ok {
		return 0, false
	}
	e, ok := Minutes(end)
	if !ok {
		return 0, false
	}
	if e <= s {
		e += 24 * 60
	}
	return e - s, true
}

// Shift categories by start time.
const (
	CategoryMorning   = "Mañana"
	CategoryAfternoon = "Tarde"
	CategoryNight     = "Noche"
)

// Category buckets a start time: [08:00,14:00) morning, [14:00,22:00) afternoon, otherwise night.
func Category(start string) string {
	m, ok := Minutes(start)
	if !ok {
		return CategoryNight
	}
	switch {
	case m >= 8*60 && m < 14*60:
		return CategoryMorning
	case m >= 14*60 && m < 22*60:
		return CategoryAfternoon
	default:
		return CategoryNight
	}
}
