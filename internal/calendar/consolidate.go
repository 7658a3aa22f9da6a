package calendar

import (
	"sort"
)

// Duration bands in minutes.
const (
	minPlausible = 3 * 60
	maxPlausible = 12 * 60
	minTypical   = 6 * 60
	maxTypical   = 9 * 60
)

func plausible(d int) bool { return d >= minPlausible && d <= maxPlausible }
func typical(d int) bool   { return d >= minTypical && d <= maxTypical }

// Score ranks competing candidates for the same date.
func Score(s ParsedCalendarShift) float64 {
	score := s.Confidence * 100
	if s.HasStart() {
		score += 60
	}
	if s.HasEnd() {
		score += 60
	}
	if s.IsValid {
		score += 40
	}
	if !s.HasStart() || !s.HasEnd() {
		return score
	}
	if s.StartTime == s.EndTime {
		return score - 180
	}
	d, ok := DurationMinutes(s.StartTime, s.EndTime)
	if !ok {
		return score
	}
	if plausible(d) {
		score += 80
		if typical(d) {
			score += 35
		}
	} else {
		score -= 120
	}
	return score
}

type consolidateOptions struct {
	keepOffDays bool
}

type ConsolidateOption func(*consolidateOptions)

// WithOffDays keeps explicit day-off markers as rows in the output instead of
// only using them to suppress speculative times.
func WithOffDays() ConsolidateOption {
	return func(o *consolidateOptions) { o.keepOffDays = true }
}

// Consolidate reduces candidates from every strategy to one shift per date,
// sorted by date.
func Consolidate(candidates []ParsedCalendarShift, opts ...ConsolidateOption) []ParsedCalendarShift {
	var o consolidateOptions
	for _, opt := range opts {
		opt(&o)
	}

	byDate := map[string][]ParsedCalendarShift{}
	var dates []string
	for _, c := range candidates {
		if c.Date == "" {
			continue
		}
		if _, seen := byDate[c.Date]; !seen {
			dates = append(dates, c.Date)
		}
		byDate[c.Date] = append(byDate[c.Date], c)
	}
	sort.Strings(dates)

	out := make([]ParsedCalendarShift, 0, len(dates))
	for _, date := range dates {
		if s, ok := consolidateDate(byDate[date], o); ok {
			out = append(out, s)
		}
	}
	return out
}

func consolidateDate(group []ParsedCalendarShift, o consolidateOptions) (ParsedCalendarShift, bool) {
	var offDays, timed []ParsedCalendarShift
	for _, c := range group {
		switch {
		case c.IsOffDay():
			offDays = append(offDays, c)
		case c.KnownEndpoints() > 0:
			timed = append(timed, c)
		}
	}
	if len(offDays) > 0 {
		if !o.keepOffDays {
			return ParsedCalendarShift{}, false
		}
		best := offDays[0]
		for _, c := range offDays[1:] {
			if c.Confidence > best.Confidence {
				best = c
			}
		}
		return best, true
	}
	if len(timed) == 0 {
		return ParsedCalendarShift{}, false
	}

	sort.SliceStable(timed, func(i, j int) bool { return Score(timed[i]) > Score(timed[j]) })

	// a lone endpoint may only pair up with some of the others, so every
	// candidate gets a turn as the base and the best merged result wins
	var best ParsedCalendarShift
	bestScore := 0.0
	for i, base := range timed {
		merged := base
		for j, c := range timed {
			if i != j {
				merged = mergeInto(merged, c)
			}
		}
		if s := Score(merged); i == 0 || s > bestScore {
			best, bestScore = merged, s
		}
	}
	return best, true
}

// mergeInto fills unknown endpoints of best from other when the completed
// pair stays plausible, keeping the higher confidence and both provenances.
func mergeInto(best, other ParsedCalendarShift) ParsedCalendarShift {
	out := best
	if !out.HasStart() && other.HasStart() && fillKeepsPlausible(other.StartTime, out.EndTime) {
		out.StartTime = other.StartTime
	}
	if !out.HasEnd() && other.HasEnd() && fillKeepsPlausible(out.StartTime, other.EndTime) {
		out.EndTime = other.EndTime
	}
	if other.Confidence > out.Confidence {
		out.Confidence = other.Confidence
	}
	if out.Notes == "" {
		out.Notes = other.Notes
	}
	out.RawText = joinRaw(out.RawText, other.RawText)
	out.refreshValidity()
	return out
}

func fillKeepsPlausible(start, end string) bool {
	if start == UnknownTime || end == UnknownTime {
		return true
	}
	d, ok := DurationMinutes(start, end)
	return ok && start != end && plausible(d)
}
