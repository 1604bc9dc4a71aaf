package xr

import (
	"math"
)

// MatchupAdjustment describes one applied modifier to a side's predicted xG.
// Evidence carries the raw figures that triggered it, for display.
type MatchupAdjustment struct {
	Name      string             `json:"name"`
	Magnitude float64            `json:"magnitude"`
	Evidence  map[string]float64 `json:"evidence,omitempty"`
}

// MatchupOptions bounds the matchup model. Zero value fields fall back to
// the global configuration.
type MatchupOptions struct {
	MinXG         float64
	MaxXG         float64
	HomeAdvantage float64
}

func (o *MatchupOptions) applyDefaults() {
	if o.MinXG == 0 {
		o.MinXG = Config.MinXGPrediction
	}
	if o.MaxXG == 0 {
		o.MaxXG = Config.MaxXGPrediction
	}
	if o.HomeAdvantage == 0 {
		o.HomeAdvantage = Config.HomeAdvantage
	}
}

// ComputeMatchupXG predicts expected goals for both sides from their rolling
// form and the stylistic interaction between them.
//
// The base figure blends a team's own attacking output with how fully the
// opponent's defense suppresses teams of that attacking level. On top of the
// base, three matchup factors may apply:
//   - pressing intensity against a possession-heavy opponent
//   - crossing threat against a side with weak box presence
//   - counter threat against a possession-dominant home side
//
// plus the flat home advantage. The final figures are clamped to the
// configured sane range.
func ComputeMatchupXG(homeForm, awayForm *TeamFormStats, opts MatchupOptions) (float64, float64, []MatchupAdjustment) {
	opts.applyDefaults()

	adjustments := []MatchupAdjustment{}

	// Base xG: blend of attack form and opponent defense form
	baseHomeXG := homeForm.XGFor*Config.AttackBlendWeight +
		(1-awayForm.XGAgainst/math.Max(homeForm.XGFor, 1))*homeForm.XGFor*Config.DefenseBlendWeight
	baseAwayXG := awayForm.XGFor*Config.AttackBlendWeight +
		(1-homeForm.XGAgainst/math.Max(awayForm.XGFor, 1))*awayForm.XGFor*Config.DefenseBlendWeight

	// Too little history to trust the blend
	if homeForm.MatchesCount < Config.SparseFormFloor {
		baseHomeXG = Config.SparseFormXG
	}
	if awayForm.MatchesCount < Config.SparseFormFloor {
		baseAwayXG = Config.SparseFormXG
	}

	homeXG := baseHomeXG
	awayXG := baseAwayXG

	// Matchup adjustment 1: PPDA-based pressing intensity.
	// A pressing team against a possession-dominant opponent forces turnovers
	// in dangerous areas. League average PPDA is about 10, an elite press
	// runs under 8 and a passive low block over 12.
	if homeForm.PPDA < Config.PPDALeagueAverage {
		pressStrength := (Config.PPDALeagueAverage - homeForm.PPDA) / Config.PPDALeagueAverage
		possessionExposure := math.Max(0.0, awayForm.PossessionPct-Config.PossessionExposureBase) / Config.PossessionExposureRange
		adjustment := roundTo(math.Min(Config.PressAdjustmentCap, pressStrength*possessionExposure*Config.PressAdjustmentScale), 3)
		if adjustment > Config.PressTriggerFloor {
			homeXG += adjustment
			adjustments = append(adjustments, MatchupAdjustment{
				Name:      "Pressing advantage (home)",
				Magnitude: adjustment,
				Evidence:  map[string]float64{"home_ppda": homeForm.PPDA},
			})
		}
	}

	if awayForm.PPDA < Config.PPDALeagueAverage {
		pressStrength := (Config.PPDALeagueAverage - awayForm.PPDA) / Config.PPDALeagueAverage
		possessionExposure := math.Max(0.0, homeForm.PossessionPct-Config.PossessionExposureBase) / Config.PossessionExposureRange
		adjustment := roundTo(math.Min(Config.PressAdjustmentCap, pressStrength*possessionExposure*Config.PressAdjustmentScale), 3)
		if adjustment > Config.PressTriggerFloor {
			awayXG += adjustment
			adjustments = append(adjustments, MatchupAdjustment{
				Name:      "Pressing advantage (away)",
				Magnitude: adjustment,
				Evidence:  map[string]float64{"away_ppda": awayForm.PPDA},
			})
		}
	}

	// Matchup adjustment 2: crossing threat against weak box defense
	homeCrossingThreat := homeForm.Crosses + homeForm.ProgressivePasses*Config.ProgressivePassWeight
	awayCrossingThreat := awayForm.Crosses + awayForm.ProgressivePasses*Config.ProgressivePassWeight

	homeDefensivePresence := homeForm.Tackles + homeForm.Interceptions
	awayDefensivePresence := awayForm.Tackles + awayForm.Interceptions

	if homeCrossingThreat > Config.CrossingThreatThreshold && awayDefensivePresence < Config.DefensivePresenceThreshold {
		adjustment := math.Min(Config.CrossingAdjustmentCap,
			(homeCrossingThreat-Config.CrossingThreatThreshold)*Config.CrossingAdjustmentRate)
		homeXG += adjustment
		adjustments = append(adjustments, MatchupAdjustment{
			Name:      "Home crossing threat vs Away weak defense",
			Magnitude: adjustment,
			Evidence: map[string]float64{
				"home_crosses":            homeForm.Crosses,
				"away_defensive_presence": awayDefensivePresence,
			},
		})
	}

	if awayCrossingThreat > Config.CrossingThreatThreshold && homeDefensivePresence < Config.DefensivePresenceThreshold {
		adjustment := math.Min(Config.CrossingAdjustmentCap,
			(awayCrossingThreat-Config.CrossingThreatThreshold)*Config.CrossingAdjustmentRate)
		awayXG += adjustment
		adjustments = append(adjustments, MatchupAdjustment{
			Name:      "Away crossing threat vs Home weak defense",
			Magnitude: adjustment,
			Evidence: map[string]float64{
				"away_crosses":            awayForm.Crosses,
				"home_defensive_presence": homeDefensivePresence,
			},
		})
	}

	// Matchup adjustment 3: counter threat against possession dominance.
	// A side conceding the ball heavily can still be dangerous if its shots
	// are high quality.
	homePossessionDominance := homeForm.PossessionPct - awayForm.PossessionPct
	awayCounterThreat := 0.1
	if awayForm.Shots > 0 {
		awayCounterThreat = awayForm.XGFor / math.Max(awayForm.Shots, 1)
	}

	if homePossessionDominance > Config.CounterPossessionGap && awayCounterThreat > Config.CounterXGPerShotFloor {
		adjustment := math.Min(Config.CounterAdjustmentCap,
			(homePossessionDominance/Config.CounterPossessionScale)*awayCounterThreat)
		awayXG += adjustment
		adjustments = append(adjustments, MatchupAdjustment{
			Name:      "Away counter threat vs Home possession dominance",
			Magnitude: adjustment,
			Evidence: map[string]float64{
				"possession_diff":  homePossessionDominance,
				"away_xg_per_shot": awayCounterThreat,
			},
		})
	}

	// Home advantage
	homeXG += opts.HomeAdvantage
	adjustments = append(adjustments, MatchupAdjustment{
		Name:      "Home advantage",
		Magnitude: opts.HomeAdvantage,
	})

	// Clamp to sane range
	homeXG = math.Max(opts.MinXG, math.Min(opts.MaxXG, homeXG))
	awayXG = math.Max(opts.MinXG, math.Min(opts.MaxXG, awayXG))

	return homeXG, awayXG, adjustments
}

// roundTo rounds to the given number of decimal places
func roundTo(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}
