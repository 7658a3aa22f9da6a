package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetectPeriod(t *testing.T) {
	now := time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		text string
		want Period
	}{
		{"month and year", "CUADRANTE MARZO 2025", Period{Month: 2, Year: 2025, MonthFound: true, YearFound: true}},
		{"earliest month wins", "turnos de julio, revisar en agosto 2026", Period{Month: 6, Year: 2026, MonthFound: true, YearFound: true}},
		{"setiembre alias", "Setiembre", Period{Month: 8, Year: 2026, MonthFound: true}},
		{"year out of range", "enero 2019", Period{Month: 0, Year: 2026, MonthFound: true}},
		{"first year wins", "2031 y 2029", Period{Month: 9, Year: 2031, YearFound: true}},
		{"nothing found", "1 2 3 4", Period{Month: 9, Year: 2026}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPeriod(tt.text, now))
		})
	}
}

func TestPeriodResolve(t *testing.T) {
	hint := NewPeriod(2, 2025)

	detected := Period{Month: 9, Year: 2026}
	assert.Equal(t, hint, detected.Resolve(&hint))

	detected = Period{Month: 4, Year: 2026, MonthFound: true}
	got := detected.Resolve(&hint)
	assert.Equal(t, 4, got.Month)
	assert.Equal(t, 2025, got.Year)

	assert.Equal(t, detected, detected.Resolve(nil))
}

func TestCalendarMath(t *testing.T) {
	assert.Equal(t, 31, DaysInMonth(2025, 2))
	assert.Equal(t, 29, DaysInMonth(2024, 1))
	assert.Equal(t, 28, DaysInMonth(2025, 1))
	// 1 March 2025 is a Saturday
	assert.Equal(t, 5, FirstWeekday(2025, 2))
	// 1 September 2025 is a Monday
	assert.Equal(t, 0, FirstWeekday(2025, 8))
	assert.Equal(t, "2025-03-02", NewPeriod(2, 2025).Date(2))
	assert.Equal(t, "", NewPeriod(1, 2025).Date(30))
}
