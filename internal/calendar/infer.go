package calendar

import (
	"math"
	"sort"
	"time"
)

const (
	// InferredMinConfidence is the floor applied to shifts completed by inference.
	InferredMinConfidence = 0.58

	topDurations    = 4
	neighborMaxDays = 2
)

type pairTable map[string]map[string]int

func (t pairTable) add(a, b string) {
	if t[a] == nil {
		t[a] = map[string]int{}
	}
	t[a][b]++
}

// batchStats is built from the complete shifts of one import.
type batchStats struct {
	startToEnd pairTable
	endToStart pairTable
	startFreq  map[string]int
	endFreq    map[string]int
	durations  []int // most common first, at most topDurations
	complete   []ParsedCalendarShift
}

func collectStats(shifts []ParsedCalendarShift) batchStats {
	st := batchStats{
		startToEnd: pairTable{},
		endToStart: pairTable{},
		startFreq:  map[string]int{},
		endFreq:    map[string]int{},
	}
	hist := map[int]int{}
	for _, s := range shifts {
		if !s.HasStart() || !s.HasEnd() || s.StartTime == s.EndTime {
			continue
		}
		d, ok := DurationMinutes(s.StartTime, s.EndTime)
		if !ok {
			continue
		}
		st.complete = append(st.complete, s)
		st.startToEnd.add(s.StartTime, s.EndTime)
		st.endToStart.add(s.EndTime, s.StartTime)
		st.startFreq[s.StartTime]++
		st.endFreq[s.EndTime]++
		hist[d]++
	}
	for d := range hist {
		st.durations = append(st.durations, d)
	}
	sort.Slice(st.durations, func(i, j int) bool {
		a, b := st.durations[i], st.durations[j]
		if hist[a] != hist[b] {
			return hist[a] > hist[b]
		}
		return a < b
	})
	if len(st.durations) > topDurations {
		st.durations = st.durations[:topDurations]
	}
	return st
}

// InferMissingTimes completes shifts that have exactly one known endpoint,
// using the pairings, durations and neighbors observed in the same batch.
// Shifts with no qualifying candidate are returned unchanged.
func InferMissingTimes(shifts []ParsedCalendarShift) []ParsedCalendarShift {
	st := collectStats(shifts)
	out := make([]ParsedCalendarShift, len(shifts))
	copy(out, shifts)
	if len(st.complete) == 0 {
		return out
	}
	for i, s := range out {
		if s.KnownEndpoints() != 1 || s.IsOffDay() {
			continue
		}
		if s.HasEnd() {
			if c, ok := st.bestStart(s); ok {
				out[i].StartTime = c
				out[i] = markInferred(out[i], "start", c)
			}
			continue
		}
		if c, ok := st.bestEnd(s); ok {
			out[i].EndTime = c
			out[i] = markInferred(out[i], "end", c)
		}
	}
	return out
}

func markInferred(s ParsedCalendarShift, role, value string) ParsedCalendarShift {
	s.IsValid = true
	s.Confidence = math.Max(s.Confidence, InferredMinConfidence)
	s.RawText = joinRaw(s.RawText, "infer:"+role+"="+value)
	return s
}

func (st batchStats) bestStart(s ParsedCalendarShift) (string, bool) {
	end, _ := Minutes(s.EndTime)
	implied := map[string]int{}
	for _, d := range st.durations {
		implied[ClockFromMinutes(end-d)]++
	}
	neighbors := map[string]int{}
	for _, n := range st.neighborsOf(s.Date) {
		neighbors[n.StartTime]++
	}
	return pickCandidate(
		candidateSet(st.endToStart[s.EndTime], implied, neighbors, st.startFreq),
		func(c string) (int, bool) { return DurationMinutes(c, s.EndTime) },
		st.endToStart[s.EndTime], implied, neighbors, st.startFreq,
	)
}

func (st batchStats) bestEnd(s ParsedCalendarShift) (string, bool) {
	start, _ := Minutes(s.StartTime)
	implied := map[string]int{}
	for _, d := range st.durations {
		implied[ClockFromMinutes(start+d)]++
	}
	neighbors := map[string]int{}
	for _, n := range st.neighborsOf(s.Date) {
		neighbors[n.EndTime]++
	}
	return pickCandidate(
		candidateSet(st.startToEnd[s.StartTime], implied, neighbors, st.endFreq),
		func(c string) (int, bool) { return DurationMinutes(s.StartTime, c) },
		st.startToEnd[s.StartTime], implied, neighbors, st.endFreq,
	)
}

func candidateSet(sources ...map[string]int) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, src := range sources {
		for k := range src {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}

// pickCandidate scores every candidate and returns the best one whose implied
// duration is plausible. Ties keep the earliest clock value.
func pickCandidate(cands []string, duration func(string) (int, bool), paired, implied, neighbors, freq map[string]int) (string, bool) {
	best, bestScore := "", math.Inf(-1)
	for _, c := range cands {
		d, ok := duration(c)
		if !ok || !plausible(d) {
			continue
		}
		score := 25*float64(paired[c]) + 12*float64(implied[c]) + 10*float64(neighbors[c]) + float64(freq[c])
		if typical(d) {
			score += 10
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best, best != ""
}

// neighborsOf returns complete shifts dated within neighborMaxDays of date.
func (st batchStats) neighborsOf(date string) []ParsedCalendarShift {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return nil
	}
	var out []ParsedCalendarShift
	for _, c := range st.complete {
		ct, err := time.Parse(time.DateOnly, c.Date)
		if err != nil {
			continue
		}
		days := math.Abs(ct.Sub(t).Hours() / 24)
		if days <= neighborMaxDays {
			out = append(out, c)
		}
	}
	return out
}
