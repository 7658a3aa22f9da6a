package calendar

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/shifts-tracker/constants"
)

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"17:00", "17:00", true},
		{"l7:OO", "17:00", true},
		{" 8.30 ", "08:30", true},
		{"9,15", "09:15", true},
		{"9;15", "09:15", true},
		{"I0:45", "10:45", true},
		{"0730", "07:30", true},
		{"5:30PM", "17:30", true},
		{"5:30 pm", "17:30", true},
		{"12:00AM", "00:00", true},
		{"12:15PM", "12:15", true},
		{"11:59AM", "11:59", true},
		{"24:00", "", false},
		{"23:60", "", false},
		{"2400", "", false},
		{"13:00PM", "", false},
		{"730", "", false},
		{"Libre", "", false},
		{"", "", false},
		{"12", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeTime(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeTimeTotalAndIdempotent(t *testing.T) {
	for h := 0; h <= 23; h++ {
		for m := 0; m <= 59; m++ {
			in := fmt.Sprintf("%02d:%02d", h, m)
			got, ok := NormalizeTime(in)
			require.True(t, ok, in)
			require.Equal(t, in, got)

			again, ok := NormalizeTime(got)
			require.True(t, ok)
			require.Equal(t, got, again)
		}
	}
}

func TestNormalizeTimeRejectsOutOfRange(t *testing.T) {
	for h := 24; h <= 99; h++ {
		_, ok := NormalizeTime(fmt.Sprintf("%02d:30", h))
		assert.False(t, ok, "hour %d", h)
	}
	for m := 60; m <= 99; m++ {
		_, ok := NormalizeTime(fmt.Sprintf("10:%02d", m))
		assert.False(t, ok, "minute %d", m)
	}
}

func TestTimesIn(t *testing.T) {
	assert.Equal(t, []string{"17:00", "01:00"}, TimesIn("17:00-01:00"))
	assert.Equal(t, []string{"08:00", "16:30"}, TimesIn("Turno 8.00 / l6:3O"))
	assert.Equal(t, []string{"07:00"}, TimesIn("0700"))
	assert.Empty(t, TimesIn("Libre"))
	assert.Equal(t, []string{"07:30", "15:30"}, TimesIn("0730 1530"))
}

func TestOffDayMarker(t *testing.T) {
	st, ok := OffDayMarker("día LIBRE")
	require.True(t, ok)
	assert.Equal(t, constants.ShiftLibre, st)

	st, ok = OffDayMarker("TD")
	require.True(t, ok)
	assert.Equal(t, constants.ShiftTD, st)

	_, ok = OffDayMarker("STD 08:00")
	assert.False(t, ok)
}

func TestDurationAndCategory(t *testing.T) {
	d, ok := DurationMinutes("17:00", "01:00")
	require.True(t, ok)
	assert.Equal(t, 480, d)

	d, ok = DurationMinutes("08:00", "08:00")
	require.True(t, ok)
	assert.Equal(t, 24*60, d)

	_, ok = DurationMinutes(UnknownTime, "08:00")
	assert.False(t, ok)

	assert.Equal(t, CategoryMorning, Category("08:00"))
	assert.Equal(t, CategoryAfternoon, Category("14:00"))
	assert.Equal(t, CategoryNight, Category("22:00"))
	assert.Equal(t, CategoryNight, Category("07:59"))
	assert.Equal(t, "17:00", ClockFromMinutes(-420))
}
