package xr

import (
	"math"
	"sort"
	"time"
)

// TeamFormStats holds exponentially weighted rolling averages over a team's
// recent matches. All figures are per-match weighted means, not totals.
type TeamFormStats struct {
	Team         string `json:"team"`
	MatchesCount int    `json:"matchesCount"`

	// Attack
	XGFor         float64 `json:"xgFor"`
	Shots         float64 `json:"shots"`
	ShotsOnTarget float64 `json:"shotsOnTarget"`
	Goals         float64 `json:"goals"`

	// Defense
	XGAgainst            float64 `json:"xgAgainst"`
	ShotsAgainst         float64 `json:"shotsAgainst"`
	ShotsOnTargetAgainst float64 `json:"shotsOnTargetAgainst"`
	GoalsAgainst         float64 `json:"goalsAgainst"`

	// Possession / Tempo
	PossessionPct      float64 `json:"possessionPct"`
	PassesCompleted    float64 `json:"passesCompleted"`
	PassesAttempted    float64 `json:"passesAttempted"`
	ProgressivePasses  float64 `json:"progressivePasses"`
	ProgressiveCarries float64 `json:"progressiveCarries"`

	// Pressing / Defensive activity
	Pressures     float64 `json:"pressures"`
	Tackles       float64 `json:"tackles"`
	Interceptions float64 `json:"interceptions"`

	// PPDA = passes allowed per defensive action. Lower = more aggressive press.
	// 10.0 is league average. Roughly 5 (intense) to 15+ (passive low block).
	PPDA float64 `json:"ppda"`

	// Set pieces
	Crosses float64 `json:"crosses"`
	Corners float64 `json:"corners"`
}

// XGPerShot returns xG efficiency per shot taken
func (f *TeamFormStats) XGPerShot() float64 {
	if f.Shots < 1 {
		return 0.1
	}
	return f.XGFor / f.Shots
}

// PossessionProductivity returns xG per possession percent, a proxy
// for how dangerous a team is with the ball it has
func (f *TeamFormStats) PossessionProductivity() float64 {
	if f.PossessionPct < 1 {
		return 0.0
	}
	return f.XGFor / math.Max(f.PossessionPct, 10)
}

// PassCompletionPct returns the pass completion percentage
func (f *TeamFormStats) PassCompletionPct() float64 {
	if f.PassesAttempted < 1 {
		return 0.0
	}
	return 100.0 * f.PassesCompleted / f.PassesAttempted
}

// DefenseSolidity returns weighted shots conceded per match. Lower is better.
func (f *TeamFormStats) DefenseSolidity() float64 {
	return f.ShotsAgainst
}

// emptyForm is what a team with no history looks like. The neutral
// possession and PPDA values keep the matchup adjustments inert.
func emptyForm(team string) *TeamFormStats {
	return &TeamFormStats{
		Team:            team,
		MatchesCount:    0,
		PossessionPct:   50,
		PassesAttempted: 1,
		PPDA:            10.0,
	}
}

// ExponentialWeights creates exponential decay weights for a rolling window.
// Returned oldest to newest, normalized to sum to 1, with the most recent
// match carrying the highest weight and the weight halving every halflife
// matches going back.
func ExponentialWeights(n int, halflife int) []float64 {
	if n <= 0 {
		return nil
	}
	if halflife < 1 {
		halflife = 1
	}

	decayRate := math.Log(2) / float64(halflife)
	weights := make([]float64, n)
	sum := 0.0
	for i := 0; i < n; i++ {
		weights[i] = math.Exp(decayRate * float64(i-n+1))
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// ComputeForm computes rolling form for a team over its most recent matches
// strictly before the cutoff, at most Config.RollingWindow of them. Past-dated
// fixtures without a result still occupy window slots and contribute their
// neutral defaults. Returns the form and the matches that contributed, in
// chronological order.
func ComputeForm(matches []*MatchRecord, team string, cutoff time.Time) (*TeamFormStats, []*MatchRecord) {
	type sided struct {
		match  *MatchRecord
		isHome bool
	}

	var recent []sided
	for _, m := range matches {
		if !m.UTCTime.Before(cutoff) {
			continue
		}
		if m.HomeTeam == team {
			recent = append(recent, sided{m, true})
		} else if m.AwayTeam == team {
			recent = append(recent, sided{m, false})
		}
	}

	// Most recent first, trim to the window, then back to chronological order
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].match.UTCTime.After(recent[j].match.UTCTime)
	})
	if len(recent) > Config.RollingWindow {
		recent = recent[:Config.RollingWindow]
	}
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}

	if len(recent) == 0 {
		return emptyForm(team), nil
	}

	weights := ExponentialWeights(len(recent), Config.WeightHalflife)

	form := &TeamFormStats{Team: team, MatchesCount: len(recent)}
	used := make([]*MatchRecord, 0, len(recent))

	for i, s := range recent {
		w := weights[i]
		m := s.match
		used = append(used, m)

		if s.isHome {
			form.XGFor += w * orFloat(m.HomeXG, 0)
			form.Shots += w * orInt(m.HomeShots, 0)
			form.ShotsOnTarget += w * orInt(m.HomeShotsOnTarget, 0)
			form.Goals += w * orInt(m.HomeGoals, 0)
			form.XGAgainst += w * orFloat(m.AwayXG, 0)
			form.ShotsAgainst += w * orInt(m.AwayShots, 0)
			form.ShotsOnTargetAgainst += w * orInt(m.AwayShotsOnTarget, 0)
			form.GoalsAgainst += w * orInt(m.AwayGoals, 0)
			form.PossessionPct += w * orFloat(m.HomePossession, 50)
			form.PassesCompleted += w * orInt(m.HomePassesCompleted, 0)
			form.PassesAttempted += w * orInt(m.HomePassesAttempted, 1)
			form.ProgressivePasses += w * orInt(m.HomeProgressivePasses, 0)
			form.ProgressiveCarries += w * orInt(m.HomeProgressiveCarries, 0)
			form.Pressures += w * orInt(m.HomePressures, 0)
			form.Tackles += w * orInt(m.HomeTackles, 0)
			form.Interceptions += w * orInt(m.HomeInterceptions, 0)
			form.Crosses += w * orInt(m.HomeCrosses, 0)
			form.Corners += w * orInt(m.HomeCorners, 0)
			form.PPDA += w * orFloat(m.HomePPDA, 10.0)
		} else {
			form.XGFor += w * orFloat(m.AwayXG, 0)
			form.Shots += w * orInt(m.AwayShots, 0)
			form.ShotsOnTarget += w * orInt(m.AwayShotsOnTarget, 0)
			form.Goals += w * orInt(m.AwayGoals, 0)
			form.XGAgainst += w * orFloat(m.HomeXG, 0)
			form.ShotsAgainst += w * orInt(m.HomeShots, 0)
			form.ShotsOnTargetAgainst += w * orInt(m.HomeShotsOnTarget, 0)
			form.GoalsAgainst += w * orInt(m.HomeGoals, 0)
			// away possession is the complement of the home figure
			form.PossessionPct += w * (100 - orFloat(m.HomePossession, 50))
			form.PassesCompleted += w * orInt(m.AwayPassesCompleted, 0)
			form.PassesAttempted += w * orInt(m.AwayPassesAttempted, 1)
			form.ProgressivePasses += w * orInt(m.AwayProgressivePasses, 0)
			form.ProgressiveCarries += w * orInt(m.AwayProgressiveCarries, 0)
			form.Pressures += w * orInt(m.AwayPressures, 0)
			form.Tackles += w * orInt(m.AwayTackles, 0)
			form.Interceptions += w * orInt(m.AwayInterceptions, 0)
			form.Crosses += w * orInt(m.AwayCrosses, 0)
			form.Corners += w * orInt(m.AwayCorners, 0)
			form.PPDA += w * orFloat(m.AwayPPDA, 10.0)
		}
	}

	return form, used
}

// orFloat substitutes def for the -1.0 absent-value sentinel
func orFloat(v float64, def float64) float64 {
	if v < 0 {
		return def
	}
	return v
}

// orInt substitutes def for the -1 absent-value sentinel
func orInt(v int, def float64) float64 {
	if v < 0 {
		return def
	}
	return float64(v)
}
