package calendar

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Grid inference tuning.
const (
	MinDayTokens     = 10
	MinDayConfidence = 35.0

	minColumns = 7
	minRows    = 5
	maxRows    = 6

	// day numbers sit near the top of their cell, so a row starts this
	// fraction of the row gap above its day-number line
	rowLead = 0.25
)

var reDayNumber = regexp.MustCompile(`^\d{1,2}$`)

type dayToken struct {
	day  int
	x, y float64
}

type axisCluster struct {
	center float64
	n      int
}

// InferGrid reconstructs the month grid from recognized day numbers. It
// returns nil when the tokens are too few or do not cluster into a 7-column
// grid; callers then fall back to ApproximateGrid.
func InferGrid(blocks []TextBlock, period Period, width, height float64) []CalendarCell {
	tokens, widths, heights := dayTokens(blocks)
	if len(tokens) < MinDayTokens {
		return nil
	}

	xs := make([]float64, len(tokens))
	ys := make([]float64, len(tokens))
	for i, t := range tokens {
		xs[i], ys[i] = t.x, t.y
	}
	cols := clusterAxis(xs, math.Max(1.5*median(widths), 6))
	rows := clusterAxis(ys, math.Max(1.5*median(heights), 6))
	cols = keepMostPopulated(cols, minColumns)
	rows = keepMostPopulated(rows, maxRows)
	if len(cols) < minColumns || len(rows) < minRows {
		return nil
	}

	colCenters := centers(cols)
	rowCenters := centers(rows)
	offset, anchorRow := anchorDayOne(tokens, colCenters, rowCenters, period.FirstWeekday())

	days := period.DaysInMonth()
	needRows := (offset + days + 6) / 7
	rowCenters = extendRows(rowCenters[anchorRow:], needRows)

	colEdges := columnEdges(colCenters, width)
	rowEdges := rowEdges(rowCenters, height)

	cells := make([]CalendarCell, 0, days)
	for day := 1; day <= days; day++ {
		idx := offset + day - 1
		r, c := idx/7, idx%7
		cells = append(cells, CalendarCell{
			Day:    day,
			Left:   colEdges[c],
			Right:  colEdges[c+1],
			Top:    rowEdges[r],
			Bottom: rowEdges[r+1],
		})
	}
	return cells
}

// ApproximateGrid lays a uniform 7x6 grid over the part of the raster where
// month calendars usually sit.
func ApproximateGrid(width, height float64, period Period) []CalendarCell {
	if width <= 0 || height <= 0 {
		return nil
	}
	left, right := 0.02*width, 0.98*width
	top, bottom := 0.22*height, 0.90*height
	cw := (right - left) / 7
	ch := (bottom - top) / 6

	offset := period.FirstWeekday()
	days := period.DaysInMonth()
	cells := make([]CalendarCell, 0, days)
	for day := 1; day <= days; day++ {
		idx := offset + day - 1
		r, c := idx/7, idx%7
		cells = append(cells, CalendarCell{
			Day:    day,
			Left:   left + float64(c)*cw,
			Right:  left + float64(c+1)*cw,
			Top:    top + float64(r)*ch,
			Bottom: top + float64(r+1)*ch,
		})
	}
	return cells
}

// BuildGrid tries block-based inference and falls back to the approximate
// grid. When the raster size is unknown the token extent stands in for it.
func BuildGrid(blocks []TextBlock, period Period, width, height float64) ([]CalendarCell, bool) {
	if cells := InferGrid(blocks, period, width, height); len(cells) > 0 {
		return cells, false
	}
	if width <= 0 || height <= 0 {
		for _, b := range blocks {
			width = math.Max(width, b.X+b.Width)
			height = math.Max(height, b.Y+b.Height)
		}
	}
	return ApproximateGrid(width, height, period), true
}

func dayTokens(blocks []TextBlock) ([]dayToken, []float64, []float64) {
	var tokens []dayToken
	var widths, heights []float64
	for _, b := range blocks {
		text := strings.TrimSpace(b.Text)
		if !reDayNumber.MatchString(text) || b.Confidence < MinDayConfidence {
			continue
		}
		day, _ := strconv.Atoi(text)
		if day < 1 || day > 31 {
			continue
		}
		tokens = append(tokens, dayToken{day: day, x: b.CenterX(), y: b.CenterY()})
		widths = append(widths, b.Width)
		heights = append(heights, b.Height)
	}
	return tokens, widths, heights
}

// clusterAxis groups sorted values greedily: a value joins the last cluster
// when it lies within threshold of that cluster's running mean.
func clusterAxis(values []float64, threshold float64) []axisCluster {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var out []axisCluster
	for _, v := range sorted {
		if n := len(out); n > 0 && v-out[n-1].center <= threshold {
			last := &out[n-1]
			last.center = (last.center*float64(last.n) + v) / float64(last.n+1)
			last.n++
			continue
		}
		out = append(out, axisCluster{center: v, n: 1})
	}
	return out
}

// keepMostPopulated drops sparse clusters beyond limit, keeping axis order.
func keepMostPopulated(cs []axisCluster, limit int) []axisCluster {
	if len(cs) <= limit {
		return cs
	}
	byCount := append([]axisCluster(nil), cs...)
	sort.SliceStable(byCount, func(i, j int) bool { return byCount[i].n > byCount[j].n })
	byCount = byCount[:limit]
	sort.Slice(byCount, func(i, j int) bool { return byCount[i].center < byCount[j].center })
	return byCount
}

func centers(cs []axisCluster) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.center
	}
	return out
}

func nearestIndex(cs []float64, v float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, c := range cs {
		if d := math.Abs(c - v); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// anchorDayOne finds the grid position of day 1. Every day token votes for
// the slot day 1 must occupy if that token is in the right place; a literal
// "1" counts double. Ties go to the column nearest the civil first weekday.
func anchorDayOne(tokens []dayToken, cols, rows []float64, firstWeekday int) (offset, anchorRow int) {
	votes := map[int]int{}
	for _, t := range tokens {
		r := nearestIndex(rows, t.y)
		c := nearestIndex(cols, t.x)
		slot := r*7 + c - (t.day - 1)
		if slot < 0 || slot/7 >= len(rows) {
			continue
		}
		w := 1
		if t.day == 1 {
			w = 2
		}
		votes[slot] += w
	}
	if len(votes) == 0 {
		return firstWeekday, 0
	}

	best, bestVotes := -1, -1
	for slot, v := range votes {
		better := v > bestVotes
		if v == bestVotes {
			dNew := absInt(slot%7 - firstWeekday)
			dOld := absInt(best%7 - firstWeekday)
			better = dNew < dOld || (dNew == dOld && slot < best)
		}
		if better {
			best, bestVotes = slot, v
		}
	}
	return best % 7, best / 7
}

// extendRows makes sure there are n row centers, extrapolating with the last gap.
func extendRows(rows []float64, n int) []float64 {
	out := append([]float64(nil), rows...)
	for len(out) < n {
		gap := 1.0
		if k := len(out); k >= 2 {
			gap = out[k-1] - out[k-2]
		}
		out = append(out, out[len(out)-1]+gap)
	}
	return out[:n]
}

// columnEdges places boundaries at midpoints between column centers and
// extrapolates half the nearest gap at both ends.
func columnEdges(cs []float64, width float64) []float64 {
	n := len(cs)
	edges := make([]float64, n+1)
	for i := 1; i < n; i++ {
		edges[i] = (cs[i-1] + cs[i]) / 2
	}
	edges[0] = cs[0] - (cs[1]-cs[0])/2
	edges[n] = cs[n-1] + (cs[n-1]-cs[n-2])/2
	clampEdges(edges, width)
	return edges
}

// rowEdges starts each row a little above its day-number line so the times
// written under the number stay inside the same cell.
func rowEdges(rs []float64, height float64) []float64 {
	n := len(rs)
	edges := make([]float64, n+1)
	gapAt := func(i int) float64 {
		switch {
		case n == 1:
			return 1
		case i+1 < n:
			return rs[i+1] - rs[i]
		default:
			return rs[i] - rs[i-1]
		}
	}
	for i := 0; i < n; i++ {
		edges[i] = rs[i] - rowLead*gapAt(i)
	}
	edges[n] = rs[n-1] + (1-rowLead)*gapAt(n-1)
	clampEdges(edges, height)
	return edges
}

func clampEdges(edges []float64, limit float64) {
	if limit <= 0 {
		return
	}
	for i, e := range edges {
		edges[i] = math.Min(math.Max(e, 0), limit)
	}
}

func median(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	s := append([]float64(nil), vs...)
	sort.Float64s(s)
	return s[len(s)/2]
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
