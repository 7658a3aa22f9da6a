package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferMissingStartFromCommonDuration(t *testing.T) {
	shifts := []ParsedCalendarShift{
		newShift("2025-03-01", "09:00", "17:00", 0.9, ""),
		newShift("2025-03-02", "09:00", "17:00", 0.9, ""),
		newShift("2025-03-03", "09:00", "17:00", 0.9, ""),
		newShift("2025-03-04", "07:00", "15:00", 0.9, ""),
		newShift("2025-03-20", UnknownTime, "01:00", 0.5, "cell d=20"),
	}
	got := InferMissingTimes(shifts)
	require.Len(t, got, 5)

	s := got[4]
	assert.Equal(t, "17:00", s.StartTime)
	assert.Equal(t, "01:00", s.EndTime)
	assert.True(t, s.IsValid)
	assert.Equal(t, InferredMinConfidence, s.Confidence)
	assert.Contains(t, s.RawText, "infer:start=17:00")

	assert.Equal(t, UnknownTime, shifts[4].StartTime, "input is not mutated")
}

func TestInferPrefersDirectPairing(t *testing.T) {
	shifts := []ParsedCalendarShift{
		newShift("2025-03-01", "14:00", "22:00", 0.9, ""),
		newShift("2025-03-02", "14:00", "22:00", 0.9, ""),
		newShift("2025-03-03", "14:00", "21:00", 0.9, ""),
		newShift("2025-03-10", "14:00", UnknownTime, 0.6, ""),
	}
	got := InferMissingTimes(shifts)
	assert.Equal(t, "22:00", got[3].EndTime)
	assert.Equal(t, 0.6, got[3].Confidence, "confidence already above the floor")
}

func TestInferUsesNeighbors(t *testing.T) {
	shifts := []ParsedCalendarShift{
		newShift("2025-03-01", "08:00", "15:00", 0.9, ""),
		newShift("2025-03-02", "10:00", "17:00", 0.9, ""),
		newShift("2025-03-16", "09:00", "16:00", 0.9, ""),
		newShift("2025-03-17", "09:00", "16:00", 0.9, ""),
		newShift("2025-03-18", UnknownTime, "16:00", 0.45, ""),
	}
	got := InferMissingTimes(shifts)
	assert.Equal(t, "09:00", got[4].StartTime)
}

func TestInferNonFabrication(t *testing.T) {
	shifts := []ParsedCalendarShift{
		newShift("2025-03-01", "09:00", "10:00", 0.9, ""),
		newShift("2025-03-02", "09:00", "10:00", 0.9, ""),
		newShift("2025-03-03", UnknownTime, "01:00", 0.5, "cell"),
		newShift("2025-03-04", UnknownTime, UnknownTime, 0.5, "nothing"),
	}
	got := InferMissingTimes(shifts)
	assert.Equal(t, shifts, got)
}

func TestInferWithoutCompleteShifts(t *testing.T) {
	shifts := []ParsedCalendarShift{newShift("2025-03-03", "08:00", UnknownTime, 0.5, "")}
	assert.Equal(t, shifts, InferMissingTimes(shifts))
}
