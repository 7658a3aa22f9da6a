package calendar

import (
	"math"
	"sort"
	"strings"
)

// DedupeRadius is the per-axis center distance under which two equal tokens
// are treated as the same physical word.
const DedupeRadius = 18.0

// DedupeBlocks merges near-duplicate tokens gathered from several passes,
// keeping the highest-confidence instance. Output is in reading order.
func DedupeBlocks(blocks []TextBlock) []TextBlock {
	ordered := make([]TextBlock, 0, len(blocks))
	for _, b := range blocks {
		if strings.TrimSpace(b.Text) != "" {
			ordered = append(ordered, b)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Confidence > ordered[j].Confidence
	})

	kept := make([]TextBlock, 0, len(ordered))
	for _, b := range ordered {
		if !isDuplicate(kept, b) {
			kept = append(kept, b)
		}
	}
	SortReadingOrder(kept)
	return kept
}

func isDuplicate(kept []TextBlock, b TextBlock) bool {
	key := strings.ToLower(strings.TrimSpace(b.Text))
	for _, k := range kept {
		if strings.ToLower(strings.TrimSpace(k.Text)) != key {
			continue
		}
		if math.Abs(k.CenterX()-b.CenterX()) <= DedupeRadius && math.Abs(k.CenterY()-b.CenterY()) <= DedupeRadius {
			return true
		}
	}
	return false
}

// SortReadingOrder sorts top to bottom, then left to right.
func SortReadingOrder(blocks []TextBlock) {
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].Y != blocks[j].Y {
			return blocks[i].Y < blocks[j].Y
		}
		return blocks[i].X < blocks[j].X
	})
}
