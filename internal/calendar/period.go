package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Period anchors day numbers to a month. Month is 0-based.
type Period struct {
	Month      int  `json:"month"`
	Year       int  `json:"year"`
	MonthFound bool `json:"monthFound"`
	YearFound  bool `json:"yearFound"`
}

// NewPeriod builds a period from an explicit month (0-based) and year.
func NewPeriod(month0, year int) Period {
	return Period{Month: month0, Year: year, MonthFound: true, YearFound: true}
}

var spanishMonths = []struct {
	name  string
	month int
}{
	{"enero", 0},
	{"febrero", 1},
	{"marzo", 2},
	{"abril", 3},
	{"mayo", 4},
	{"junio", 5},
	{"julio", 6},
	{"agosto", 7},
	{"septiembre", 8},
	{"setiembre", 8},
	{"octubre", 9},
	{"noviembre", 10},
	{"diciembre", 11},
}

var reYear = regexp.MustCompile(`\b(202[4-9]|203[0-9])\b`)

// DetectPeriod scans recognized text for a Spanish month name and a year.
// The earliest month name in the text wins; the first year match wins.
// Missing parts default to now.
func DetectPeriod(text string, now time.Time) Period {
	p := Period{Month: int(now.Month()) - 1, Year: now.Year()}
	lower := strings.ToLower(text)

	best := -1
	for _, m := range spanishMonths {
		idx := strings.Index(lower, m.name)
		if idx >= 0 && (best < 0 || idx < best) {
			best = idx
			p.Month = m.month
			p.MonthFound = true
		}
	}
	if m := reYear.FindStringSubmatch(text); m != nil {
		p.Year, _ = strconv.Atoi(m[1])
		p.YearFound = true
	}
	return p
}

// Resolve combines detected evidence with a caller hint: text evidence wins,
// the hint fills what the text did not show.
func (p Period) Resolve(hint *Period) Period {
	if hint == nil {
		return p
	}
	out := p
	if !p.MonthFound {
		out.Month = hint.Month
		out.MonthFound = hint.MonthFound
	}
	if !p.YearFound {
		out.Year = hint.Year
		out.YearFound = hint.YearFound
	}
	return out
}

func (p Period) Valid() bool {
	return p.Month >= 0 && p.Month <= 11 && p.Year > 0
}

func (p Period) DaysInMonth() int { return DaysInMonth(p.Year, p.Month) }

func (p Period) FirstWeekday() int { return FirstWeekday(p.Year, p.Month) }

// Date formats a day of the period, or "" when the day does not exist.
func (p Period) Date(day int) string {
	if day < 1 || day > p.DaysInMonth() {
		return ""
	}
	return ISODate(p.Year, p.Month, day)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month+1)
}

// DaysInMonth returns the number of days of a 0-based month.
func DaysInMonth(year, month0 int) int {
	return time.Date(year, time.Month(month0+2), 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday returns the weekday of day 1 with Monday=0 .. Sunday=6.
func FirstWeekday(year, month0 int) int {
	wd := time.Date(year, time.Month(month0+1), 1, 0, 0, 0, 0, time.UTC).Weekday()
	return (int(wd) + 6) % 7
}

func ISODate(year, month0, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month0+1, day)
}
