package pdftable

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
)

var (
	reDayHeader = regexp.MustCompile(`^(\d{2})/(\d{2})$`)
	reYear      = regexp.MustCompile(`\b(20\d{2})\b`)
)

type dayHeader struct {
	day, month0 int
	x           float64
	page        int
}

func parseHeader(it Item) (dayHeader, bool) {
	m := reDayHeader.FindStringSubmatch(strings.TrimSpace(it.Text))
	if m == nil {
		return dayHeader{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return dayHeader{}, false
	}
	return dayHeader{day: day, month0: month - 1, x: it.X, page: it.Page}, true
}

// DetectPeriod takes the month that most dd/mm headers point at (first seen
// wins a tie) and the first plausible year printed anywhere. Missing parts
// default to now.
func DetectPeriod(items []Item, now time.Time) calendar.Period {
	p := calendar.Period{Month: int(now.Month()) - 1, Year: now.Year()}

	counts := map[int]int{}
	var order []int
	for _, it := range items {
		h, ok := parseHeader(it)
		if !ok {
			continue
		}
		if counts[h.month0] == 0 {
			order = append(order, h.month0)
		}
		counts[h.month0]++
	}
	best := -1
	for _, m := range order {
		if best < 0 || counts[m] > counts[best] {
			best = m
		}
	}
	if best >= 0 {
		p.Month = best
		p.MonthFound = true
	}

	for _, it := range items {
		m := reYear.FindStringSubmatch(it.Text)
		if m == nil {
			continue
		}
		if y, _ := strconv.Atoi(m[1]); y >= 2020 && y <= 2100 {
			p.Year = y
			p.YearFound = true
			break
		}
	}
	return p
}
