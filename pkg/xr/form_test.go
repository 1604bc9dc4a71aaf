package xr

import (
	"fmt"
	"math"
	"testing"
	"time"
)

// playedMatch builds a finished fixture with sensible stats for form tests
func playedMatch(id int, day time.Time, home, away string, homeXG, awayXG float64) *MatchRecord {
	m := NewMatchRecord()
	m.ID = fmt.Sprintf("t-%04d", id)
	m.Season = Config.Season
	m.UTCTime = day
	m.HomeTeam = home
	m.AwayTeam = away
	m.HomeGoals = 1
	m.AwayGoals = 1
	m.HomeXG = homeXG
	m.AwayXG = awayXG
	m.HomeShots = 12
	m.AwayShots = 10
	m.HomePossession = 55
	m.HomePassesCompleted = 400
	m.HomePassesAttempted = 500
	m.AwayPassesCompleted = 300
	m.AwayPassesAttempted = 400
	return m
}

func TestExponentialWeightsNormalized(t *testing.T) {
	for _, n := range []int{1, 4, 10} {
		weights := ExponentialWeights(n, 4)
		if len(weights) != n {
			t.Fatalf("expected %d weights, got %d", n, len(weights))
		}
		sum := 0.0
		for _, w := range weights {
			sum += w
		}
		if math.Abs(sum-1.0) > 1e-12 {
			t.Errorf("weights for n=%d sum to %f, want 1", n, sum)
		}
	}
	if ExponentialWeights(0, 4) != nil {
		t.Error("expected nil weights for empty window")
	}
}

func TestExponentialWeightsMonotonicAndHalving(t *testing.T) {
	halflife := 4
	weights := ExponentialWeights(10, halflife)

	for i := 1; i < len(weights); i++ {
		if weights[i] <= weights[i-1] {
			t.Fatalf("weights not strictly increasing toward recent at %d", i)
		}
	}

	// Going back halflife matches should halve the weight
	last := len(weights) - 1
	ratio := weights[last] / weights[last-halflife]
	if math.Abs(ratio-2.0) > 1e-9 {
		t.Errorf("halving ratio = %f, want 2", ratio)
	}
}

func TestComputeFormWindowAndCutoff(t *testing.T) {
	start := time.Date(2025, 8, 16, 12, 0, 0, 0, time.UTC)

	var matches []*MatchRecord
	for i := 0; i < 15; i++ {
		matches = append(matches, playedMatch(i, start.AddDate(0, 0, 7*i), "Arsenal", "Chelsea", 2.0, 1.0))
	}

	cutoff := start.AddDate(0, 0, 7*15)
	form, used := ComputeForm(matches, "Arsenal", cutoff)

	if form.MatchesCount != Config.RollingWindow {
		t.Errorf("matches count = %d, want window %d", form.MatchesCount, Config.RollingWindow)
	}
	if len(used) != Config.RollingWindow {
		t.Errorf("used %d matches, want %d", len(used), Config.RollingWindow)
	}

	// Contributing matches must be the most recent ones, chronological
	for i := 1; i < len(used); i++ {
		if !used[i].UTCTime.After(used[i-1].UTCTime) {
			t.Fatal("used matches not in chronological order")
		}
	}
	if !used[0].UTCTime.Equal(start.AddDate(0, 0, 7*5)) {
		t.Errorf("oldest used match = %v, expected window to start at match 5", used[0].UTCTime)
	}
}

func TestComputeFormStrictCutoff(t *testing.T) {
	kickoff := time.Date(2025, 10, 4, 15, 0, 0, 0, time.UTC)
	matches := []*MatchRecord{
		playedMatch(0, kickoff.AddDate(0, 0, -7), "Arsenal", "Chelsea", 2.0, 1.0),
		// Kicks off exactly at the cutoff, must be excluded
		playedMatch(1, kickoff, "Arsenal", "Fulham", 3.0, 0.5),
	}

	form, used := ComputeForm(matches, "Arsenal", kickoff)
	if form.MatchesCount != 1 {
		t.Fatalf("matches count = %d, want 1 (same-instant match must not leak)", form.MatchesCount)
	}
	if used[0].ID != "t-0000" {
		t.Errorf("used wrong match: %s", used[0].ID)
	}
	if math.Abs(form.XGFor-2.0) > 1e-9 {
		t.Errorf("single-match xG for = %f, want 2.0", form.XGFor)
	}
}

func TestComputeFormNoHistory(t *testing.T) {
	form, used := ComputeForm(nil, "Arsenal", time.Now())

	if form.MatchesCount != 0 {
		t.Errorf("matches count = %d, want 0", form.MatchesCount)
	}
	if used != nil {
		t.Error("expected no used matches")
	}
	// Neutral defaults keep downstream adjustments inert
	if form.PossessionPct != 50 || form.PPDA != 10.0 {
		t.Errorf("empty form not neutral: possession=%f ppda=%f", form.PossessionPct, form.PPDA)
	}
	if form.PassesAttempted != 1 {
		t.Errorf("empty form passes attempted = %f, want 1", form.PassesAttempted)
	}
	if form.PassCompletionPct() != 0 {
		t.Errorf("empty form pass completion = %f, want 0", form.PassCompletionPct())
	}
}

func TestComputeFormPastResultlessFixtureCounts(t *testing.T) {
	day := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

	played := playedMatch(0, day, "Arsenal", "Chelsea", 2.0, 1.0)

	// A postponed fixture: past-dated but still without a result. It
	// occupies a window slot and contributes its neutral defaults.
	postponed := NewMatchRecord()
	postponed.ID = "t-post"
	postponed.UTCTime = day.AddDate(0, 0, 3)
	postponed.HomeTeam = "Arsenal"
	postponed.AwayTeam = "Fulham"

	form, used := ComputeForm([]*MatchRecord{played, postponed}, "Arsenal", day.AddDate(0, 0, 7))
	if form.MatchesCount != 2 {
		t.Fatalf("matches count = %d, want 2", form.MatchesCount)
	}
	if len(used) != 2 || used[1].ID != "t-post" {
		t.Fatalf("used slice wrong: %v", used)
	}

	w := ExponentialWeights(2, Config.WeightHalflife)
	if math.Abs(form.XGFor-w[0]*2.0) > 1e-9 {
		t.Errorf("xG for = %f, want %f (resultless fixture adds 0)", form.XGFor, w[0]*2.0)
	}
	if math.Abs(form.Goals-w[0]*1.0) > 1e-9 {
		t.Errorf("goals = %f, want %f", form.Goals, w[0]*1.0)
	}
	if math.Abs(form.PossessionPct-(w[0]*55+w[1]*50)) > 1e-9 {
		t.Errorf("possession = %f, want %f (default 50 for the resultless fixture)",
			form.PossessionPct, w[0]*55+w[1]*50)
	}
	if math.Abs(form.PPDA-10.0) > 1e-9 {
		t.Errorf("ppda = %f, want 10.0", form.PPDA)
	}
}

func TestComputeFormAwayPossessionComplement(t *testing.T) {
	day := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	m := playedMatch(0, day, "Chelsea", "Arsenal", 1.0, 2.0)
	m.HomePossession = 65

	form, _ := ComputeForm([]*MatchRecord{m}, "Arsenal", day.AddDate(0, 0, 1))
	if math.Abs(form.PossessionPct-35) > 1e-9 {
		t.Errorf("away possession = %f, want 35", form.PossessionPct)
	}
	if math.Abs(form.XGFor-2.0) > 1e-9 {
		t.Errorf("away xG for = %f, want 2.0", form.XGFor)
	}
	if math.Abs(form.XGAgainst-1.0) > 1e-9 {
		t.Errorf("away xG against = %f, want 1.0", form.XGAgainst)
	}
}

func TestFormAccessors(t *testing.T) {
	form := &TeamFormStats{
		XGFor:           1.8,
		Shots:           12,
		PossessionPct:   60,
		PassesCompleted: 420,
		PassesAttempted: 500,
		ShotsAgainst:    9,
	}

	if math.Abs(form.XGPerShot()-0.15) > 1e-9 {
		t.Errorf("xG per shot = %f", form.XGPerShot())
	}
	if math.Abs(form.PassCompletionPct()-84.0) > 1e-9 {
		t.Errorf("pass completion = %f", form.PassCompletionPct())
	}
	if math.Abs(form.PossessionProductivity()-0.03) > 1e-9 {
		t.Errorf("possession productivity = %f", form.PossessionProductivity())
	}
	if form.DefenseSolidity() != 9 {
		t.Errorf("defense solidity = %f", form.DefenseSolidity())
	}

	// Degenerate inputs fall back rather than dividing by zero
	empty := &TeamFormStats{}
	if empty.XGPerShot() != 0.1 {
		t.Errorf("shotless xG per shot = %f, want 0.1", empty.XGPerShot())
	}
	if empty.PassCompletionPct() != 0 {
		t.Errorf("passless completion = %f, want 0", empty.PassCompletionPct())
	}
}
