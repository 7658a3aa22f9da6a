package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupeBlocks(t *testing.T) {
	blocks := []TextBlock{
		{Text: "17:00", X: 100, Y: 200, Width: 40, Height: 12, Confidence: 60, Source: "original"},
		{Text: "17:00", X: 110, Y: 205, Width: 40, Height: 12, Confidence: 85, Source: "contrast"},
		{Text: "17:00", X: 300, Y: 200, Width: 40, Height: 12, Confidence: 70, Source: "original"},
		{Text: "libre", X: 100, Y: 400, Width: 40, Height: 12, Confidence: 50, Source: "original"},
		{Text: "LIBRE", X: 102, Y: 401, Width: 40, Height: 12, Confidence: 40, Source: "inverted"},
		{Text: "  ", X: 0, Y: 0, Width: 1, Height: 1, Confidence: 99},
	}

	got := DedupeBlocks(blocks)
	require.Len(t, got, 3)

	assert.Equal(t, "contrast", got[1].Source, "higher confidence copy wins")
	assert.Equal(t, float64(85), got[1].Confidence)
	assert.Equal(t, "libre", got[2].Text)
	assert.Equal(t, "original", got[0].Source)
}

func TestDedupeKeepsDifferentText(t *testing.T) {
	blocks := []TextBlock{
		{Text: "8:00", X: 10, Y: 10, Width: 30, Height: 10, Confidence: 80},
		{Text: "9:00", X: 12, Y: 10, Width: 30, Height: 10, Confidence: 80},
	}
	assert.Len(t, DedupeBlocks(blocks), 2)
}
