package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/shifts-tracker/constants"
	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
)

func TestFromParsed(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	parsed := []calendar.ParsedCalendarShift{
		{Date: "2025-03-03", StartTime: "08:00", EndTime: "16:00", IsValid: true, ShiftType: "Regular", Origin: "IMG"},
		{Date: "2025-03-04", StartTime: calendar.UnknownTime, EndTime: calendar.UnknownTime, ShiftType: "libre", Origin: "PDF"},
		{Date: "2025-03-05", StartTime: "22:00", EndTime: calendar.UnknownTime},
		{Date: "2025-03-06", StartTime: calendar.UnknownTime, EndTime: calendar.UnknownTime},
		{Date: "2025-03-07", StartTime: "09:00", EndTime: "13:00", ShiftType: "Guardia"},
	}

	got := FromParsed(parsed, now)
	require.Len(t, got, 4)

	_, err := uuid.Parse(got[0].ID)
	assert.NoError(t, err)
	assert.NotEqual(t, got[0].ID, got[1].ID)
	assert.Equal(t, now, got[0].CreatedAt)

	assert.Equal(t, "Regular", got[0].Location)
	assert.Equal(t, constants.OriginImage, got[0].Origin)

	assert.Equal(t, "Libre", got[1].Location)
	assert.Equal(t, "", got[1].StartTime)
	assert.Equal(t, constants.OriginPDF, got[1].Origin)
	assert.True(t, got[1].IsOffDay())

	assert.Equal(t, "22:00", got[2].StartTime)
	assert.Equal(t, "", got[2].EndTime)
	assert.Equal(t, "Regular", got[2].Location)

	assert.Equal(t, "Guardia", got[3].Location)
}

func TestShiftDerived(t *testing.T) {
	night := Shift{StartTime: "22:00", EndTime: "06:00", Location: "Regular"}
	assert.Equal(t, "Noche", night.Category())
	assert.Equal(t, 8.0, night.Hours())

	morning := Shift{StartTime: "08:00", EndTime: "14:30"}
	assert.Equal(t, "Mañana", morning.Category())
	assert.Equal(t, 6.5, morning.Hours())

	open := Shift{EndTime: "14:00"}
	assert.Equal(t, "", open.Category())
	assert.Zero(t, open.Hours())
}

func TestShiftToParsed(t *testing.T) {
	p := Shift{Date: "2025-03-04", Location: "TD", Origin: "PDF"}.ToParsed()
	assert.Equal(t, calendar.UnknownTime, p.StartTime)
	assert.Equal(t, constants.ColorGray, p.Color)
	assert.True(t, p.IsOffDay())
	assert.False(t, p.IsValid)

	p = Shift{Date: "2025-03-05", StartTime: "08:00", EndTime: "16:00", Location: "Regular"}.ToParsed()
	assert.True(t, p.IsValid)
	assert.Equal(t, constants.ColorBlue, p.Color)
}
