package xr

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildPredictionFromHistory(t *testing.T) {
	start := time.Date(2025, 8, 16, 12, 0, 0, 0, time.UTC)

	var history []*MatchRecord
	for i := 0; i < 6; i++ {
		history = append(history,
			playedMatch(i*2, start.AddDate(0, 0, 7*i), "Arsenal", "Fulham", 2.2, 0.8),
			playedMatch(i*2+1, start.AddDate(0, 0, 7*i+1), "Chelsea", "Everton", 1.4, 1.1),
		)
	}

	fixture := NewMatchRecord()
	fixture.ID = "future-1"
	fixture.Season = Config.Season
	fixture.Round = 7
	fixture.HomeTeam = "Arsenal"
	fixture.AwayTeam = "Chelsea"
	fixture.UTCTime = start.AddDate(0, 0, 7*7)
	history = append(history, fixture)

	now := start.AddDate(0, 0, 7*6)
	p := BuildPrediction(history, fixture, now)

	require.Equal(t, "future-1", p.MatchID)
	require.Equal(t, 6, p.HomeForm.Matches)
	require.Equal(t, 6, p.AwayForm.Matches)
	require.InDelta(t, 2.2, p.HomeForm.XGFor, 1e-9)
	require.InDelta(t, 168.0, p.HoursUntilKickoff, 1e-9)

	// Consistent with running the model pieces directly
	homeForm, _ := ComputeForm(history, "Arsenal", fixture.UTCTime)
	awayForm, _ := ComputeForm(history, "Chelsea", fixture.UTCTime)
	homeXG, awayXG, _ := ComputeMatchupXG(homeForm, awayForm, MatchupOptions{})
	require.InDelta(t, roundTo(homeXG, 2), p.PredXGHome, 1e-9)
	require.InDelta(t, roundTo(awayXG, 2), p.PredXGAway, 1e-9)

	dist := ComputeMatchProbabilities(homeXG, awayXG)
	require.Equal(t, dist.HomeWinPct, p.HomeWinPct)
	require.Equal(t, dist.MostLikely, p.MostLikely)

	// Unplayed fixture carries the sentinels through
	require.Equal(t, -1, p.HomeGoals)
	require.Equal(t, -1, p.AwayGoals)
}

func TestBuildPredictionsCoversWholeSeason(t *testing.T) {
	gen := NewGenerator(11)
	matches, err := gen.GenerateSeason(GeneratorTeams())
	require.NoError(t, err)

	predictions := BuildPredictions(matches, time.Now().UTC())
	require.Len(t, predictions, len(matches))

	for _, p := range predictions {
		require.GreaterOrEqual(t, p.PredXGHome, Config.MinXGPrediction)
		require.LessOrEqual(t, p.PredXGHome, Config.MaxXGPrediction)

		total := p.HomeWinPct + p.DrawPct + p.AwayWinPct
		require.InDelta(t, 100.0, total, 0.2, "fixture %s", p.MatchID)
	}
}

func TestPredictionBeforeSaveMarshalsNested(t *testing.T) {
	p := &Prediction{
		MatchID:  "bs-1",
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		HomeForm: FormSummary{Matches: 5, XGFor: 1.8},
		Adjustments: []MatchupAdjustment{
			{Name: "Home advantage", Magnitude: 0.3},
		},
		TopScorelines: []Scoreline{{1, 0, 11.2}, {1, 1, 10.8}},
	}

	require.NoError(t, p.BeforeSave())
	require.Contains(t, p.HomeFormJSON, `"xgFor":1.8`)
	require.Contains(t, p.AdjustmentsJSON, `"Home advantage"`)
	require.Contains(t, p.TopScorelinesJSON, `"homeGoals":1`)
	require.False(t, p.CreatedAt.IsZero())

	// A loaded copy rebuilds the nested structures from the JSON shadows
	loaded := &Prediction{
		MatchID:           "bs-1",
		HomeFormJSON:      p.HomeFormJSON,
		AdjustmentsJSON:   p.AdjustmentsJSON,
		TopScorelinesJSON: p.TopScorelinesJSON,
	}
	require.NoError(t, loaded.HydrateNested())
	require.Equal(t, 5, loaded.HomeForm.Matches)
	require.Len(t, loaded.Adjustments, 1)
	require.Equal(t, Scoreline{1, 0, 11.2}, loaded.MostLikely)
}

func TestPredictionPersistenceRoundTrip(t *testing.T) {
	withTempDB(t)
	require.NoError(t, CreateTables())

	p := &Prediction{
		MatchID:    "db-1",
		Season:     Config.Season,
		Round:      3,
		UTCTime:    time.Date(2025, 9, 13, 15, 0, 0, 0, time.UTC),
		HomeTeam:   "Arsenal",
		AwayTeam:   "Chelsea",
		PredXGHome: 1.9,
		PredXGAway: 1.1,
		HomeWinPct: 52.3,
		DrawPct:    24.1,
		AwayWinPct: 23.6,
		HomeForm:   FormSummary{Matches: 4, PossessionPct: 58.2},
		TopScorelines: []Scoreline{
			{1, 0, 10.1}, {2, 1, 9.7},
		},
		HomeGoals: -1,
		AwayGoals: -1,
	}
	require.NoError(t, Save(p))

	loaded, err := LoadStoredPredictions()
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	require.Equal(t, "db-1", got.MatchID)
	require.InDelta(t, 1.9, got.PredXGHome, 1e-9)
	require.Equal(t, 4, got.HomeForm.Matches)
	require.InDelta(t, 58.2, got.HomeForm.PossessionPct, 1e-9)
	require.Len(t, got.TopScorelines, 2)
	require.Equal(t, Scoreline{1, 0, 10.1}, got.MostLikely)
}

func TestSummarizeRounding(t *testing.T) {
	form := &TeamFormStats{
		MatchesCount:    7,
		XGFor:           1.23456,
		XGAgainst:       0.98765,
		Goals:           1.44,
		PossessionPct:   55.55,
		PassesCompleted: 400,
		PassesAttempted: 500,
	}
	s := summarize(form)

	if s.Matches != 7 {
		t.Errorf("matches = %d", s.Matches)
	}
	if math.Abs(s.XGFor-1.23) > 1e-9 || math.Abs(s.XGAgainst-0.99) > 1e-9 {
		t.Errorf("xG rounding wrong: %f / %f", s.XGFor, s.XGAgainst)
	}
	if math.Abs(s.Goals-1.4) > 1e-9 {
		t.Errorf("goals rounding wrong: %f", s.Goals)
	}
	if math.Abs(s.PossessionPct-55.6) > 1e-9 {
		t.Errorf("possession rounding wrong: %f", s.PossessionPct)
	}
	if math.Abs(s.PassCompletionPct-80.0) > 1e-9 {
		t.Errorf("pass completion wrong: %f", s.PassCompletionPct)
	}
}
