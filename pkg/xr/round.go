package xr

import (
	"sort"
	"time"
)

// AssignRounds fills in matchweek numbers from date clustering. The match
// dates are sorted and each cluster of nearby dates becomes one matchweek;
// a gap larger than Config.RoundGapDays between consecutive match days
// starts the next one. Rounds are numbered from 1.
//
// Explicit round numbers already present on a record are overwritten, since
// a refreshed feed can shuffle rearranged fixtures between matchweeks.
func AssignRounds(matches []*MatchRecord) {
	if len(matches) == 0 {
		return
	}

	// Unique match days, sorted
	daySet := make(map[time.Time]bool)
	for _, m := range matches {
		if m.UTCTime.IsZero() {
			continue
		}
		daySet[dayOf(m.UTCTime)] = true
	}

	days := make([]time.Time, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	gap := time.Duration(Config.RoundGapDays) * 24 * time.Hour

	dayToRound := make(map[time.Time]int, len(days))
	roundNum := 0
	var prev time.Time
	for i, d := range days {
		if i == 0 || d.Sub(prev) > gap {
			roundNum++
		}
		dayToRound[d] = roundNum
		prev = d
	}

	for _, m := range matches {
		if m.UTCTime.IsZero() {
			continue
		}
		m.Round = dayToRound[dayOf(m.UTCTime)]
	}
}

// dayOf truncates a kickoff time to its UTC calendar day
func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// GroupByRound groups matches by their matchweek number
func GroupByRound(matches []*MatchRecord) map[int][]*MatchRecord {
	rounds := make(map[int][]*MatchRecord)
	for _, m := range matches {
		if m.Round > 0 {
			rounds[m.Round] = append(rounds[m.Round], m)
		}
	}
	return rounds
}

// SortedRounds returns matchweek numbers in ascending order
func SortedRounds(rounds map[int][]*MatchRecord) []int {
	out := make([]int, 0, len(rounds))
	for r := range rounds {
		out = append(out, r)
	}
	sort.Ints(out)
	return out
}
