package xr

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// XRConfig contains all configurable parameters that influence prediction outcomes
// This centralizes all magic numbers and constants for easy adjustment.
// The adjustment thresholds and caps are empirically tuned values with no
// analytical derivation.
type XRConfig struct {
	// Paths
	AssetsPath string `envconfig:"ASSETS_PATH"` // base directory for local assets
	CachePath  string `envconfig:"CACHE_PATH"`  // location of cached downloaded data
	DbPath     string `envconfig:"DB_PATH"`     // location of the sqlite database

	// League / season
	League      string `envconfig:"LEAGUE"`       // Understat league key (default: EPL)
	Season      string `envconfig:"SEASON"`       // canonical season label, e.g. "2025-26"
	SeasonStart int    `envconfig:"SEASON_START"` // first calendar year of the season

	// === FORM AGGREGATION ===

	RollingWindow   int // max recent matches contributing to form (default: 10)
	WeightHalflife  int // matches back at which a weight halves (default: 4)
	SparseFormFloor int // below this many matches form is "insufficient" (default: 2)

	// === MATCHUP MODEL ===

	MinXGPrediction float64 // lower clamp on predicted xG (default: 0.2)
	MaxXGPrediction float64 // upper clamp on predicted xG (default: 3.5)
	HomeAdvantage   float64 // flat xG added to the home side (default: 0.3)
	SparseFormXG    float64 // base xG forced when form is insufficient (default: 1.0)

	AttackBlendWeight  float64 // weight of raw attack form in base xG (default: 0.6)
	DefenseBlendWeight float64 // weight of the opponent-defense term (1 - AttackBlendWeight)

	// Pressing adjustment
	PPDALeagueAverage       float64 // league-average PPDA baseline (default: 10.0)
	PressAdjustmentScale    float64 // press * exposure multiplier (default: 0.35)
	PressAdjustmentCap      float64 // max pressing adjustment (default: 0.2)
	PressTriggerFloor       float64 // adjustments at or below this are dropped (default: 0.01)
	PossessionExposureBase  float64 // possession above this counts as exposure (default: 45)
	PossessionExposureRange float64 // exposure normalization divisor (default: 55)

	// Crossing adjustment
	CrossingThreatThreshold    float64 // crosses + weighted prog passes trigger (default: 30)
	DefensivePresenceThreshold float64 // tackles+interceptions below this is weak (default: 15)
	CrossingAdjustmentRate     float64 // xG per unit of threat over threshold (default: 0.01)
	CrossingAdjustmentCap      float64 // max crossing adjustment (default: 0.25)
	ProgressivePassWeight      float64 // progressive-pass weight in threat (default: 0.1)

	// Counter-attack adjustment
	CounterPossessionGap   float64 // home-away possession gap trigger (default: 15)
	CounterXGPerShotFloor  float64 // away xG/shot must exceed this (default: 0.15)
	CounterPossessionScale float64 // possession-gap normalization divisor (default: 20)
	CounterAdjustmentCap   float64 // max counter adjustment (default: 0.2)

	// === OUTCOME ENGINE ===

	PoissonMaxGoals int // scoreline grid upper bound per side (default: 10)
	TopScorelines   int // number of scorelines reported (default: 5)

	// === ROUND ASSIGNMENT ===

	RoundGapDays       int // a date gap larger than this starts a new matchweek (default: 10)
	DefaultKickoffHour int // hour padded onto date-only kickoffs (default: 12)

	// === SERVING / SCHEDULING ===

	ListenAddr  string `envconfig:"LISTEN_ADDR"`  // HTTP API listen address
	RefreshCron string `envconfig:"REFRESH_CRON"` // cron expression for datasource refresh

	// === SYNTHETIC GENERATOR ===

	GeneratorMatchweeks int // matchweeks in a generated season (default: 38)
	CompletedMatchweeks int // generated matchweeks carrying results (default: 25)
}

// DefaultXRConfig returns the default configuration with all standard values
func DefaultXRConfig() *XRConfig {
	assetsPath := "/tmp/.xr-football/"
	config := &XRConfig{
		AssetsPath: assetsPath,
		CachePath:  assetsPath + "cache/",
		DbPath:     assetsPath + "xr.db",

		League:      "EPL",
		Season:      "2025-26",
		SeasonStart: 2025,

		// === FORM AGGREGATION ===
		RollingWindow:   10,
		WeightHalflife:  4,
		SparseFormFloor: 2,

		// === MATCHUP MODEL ===
		MinXGPrediction: 0.2,
		MaxXGPrediction: 3.5,
		HomeAdvantage:   0.3,
		SparseFormXG:    1.0,

		AttackBlendWeight:  0.6,
		DefenseBlendWeight: 0.4, // recalculated as 1.0 - AttackBlendWeight

		PPDALeagueAverage:       10.0,
		PressAdjustmentScale:    0.35,
		PressAdjustmentCap:      0.2,
		PressTriggerFloor:       0.01,
		PossessionExposureBase:  45.0,
		PossessionExposureRange: 55.0,

		CrossingThreatThreshold:    30.0,
		DefensivePresenceThreshold: 15.0,
		CrossingAdjustmentRate:     0.01,
		CrossingAdjustmentCap:      0.25,
		ProgressivePassWeight:      0.1,

		CounterPossessionGap:   15.0,
		CounterXGPerShotFloor:  0.15,
		CounterPossessionScale: 20.0,
		CounterAdjustmentCap:   0.2,

		// === OUTCOME ENGINE ===
		PoissonMaxGoals: 10,
		TopScorelines:   5,

		// === ROUND ASSIGNMENT ===
		RoundGapDays:       10,
		DefaultKickoffHour: 12,

		// === SERVING / SCHEDULING ===
		ListenAddr:  ":8080",
		RefreshCron: "0 4 * * *",

		// === SYNTHETIC GENERATOR ===
		GeneratorMatchweeks: 38,
		CompletedMatchweeks: 25,
	}

	// Ensure the blend weights always sum to 1
	config.DefenseBlendWeight = 1.0 - config.AttackBlendWeight

	return config
}

// Global configuration instance
var Config *XRConfig

// init initializes the global configuration with default values
func init() {
	Config = DefaultXRConfig()
}

// UpdateConfig allows updating the global configuration
func UpdateConfig(newConfig *XRConfig) {
	newConfig.DefenseBlendWeight = 1.0 - newConfig.AttackBlendWeight
	Config = newConfig
}

// LoadConfigFromEnv applies XR_* environment overrides on top of the defaults.
// A .env file in the working directory is honoured when present.
func LoadConfigFromEnv() error {
	// Missing .env is not an error; explicit env vars still apply
	_ = godotenv.Load()

	if err := envconfig.Process("xr", Config); err != nil {
		return fmt.Errorf("failed to process environment config: %w", err)
	}
	Config.DefenseBlendWeight = 1.0 - Config.AttackBlendWeight
	return nil
}

// === CONFIGURATION VALIDATION ===

// ValidateConfig ensures all configuration values are within reasonable ranges
func ValidateConfig(config *XRConfig) error {
	if config.RollingWindow < 1 {
		return fmt.Errorf("RollingWindow must be at least 1, got: %d", config.RollingWindow)
	}

	if config.WeightHalflife < 1 {
		return fmt.Errorf("WeightHalflife must be at least 1, got: %d", config.WeightHalflife)
	}

	if config.MinXGPrediction <= 0 || config.MinXGPrediction >= config.MaxXGPrediction {
		return fmt.Errorf("xG bounds must satisfy 0 < min < max, got: [%f, %f]",
			config.MinXGPrediction, config.MaxXGPrediction)
	}

	if config.AttackBlendWeight < 0.0 || config.AttackBlendWeight > 1.0 {
		return fmt.Errorf("AttackBlendWeight must be between 0.0 and 1.0, got: %f", config.AttackBlendWeight)
	}

	if config.PoissonMaxGoals < 3 {
		return fmt.Errorf("PoissonMaxGoals should be at least 3 to capture realistic scores, got: %d", config.PoissonMaxGoals)
	}

	if config.PPDALeagueAverage <= 0 {
		return fmt.Errorf("PPDALeagueAverage must be positive, got: %f", config.PPDALeagueAverage)
	}

	if config.RoundGapDays < 1 {
		return fmt.Errorf("RoundGapDays must be at least 1, got: %d", config.RoundGapDays)
	}

	if config.GeneratorMatchweeks < 2 || config.CompletedMatchweeks < 0 ||
		config.CompletedMatchweeks > config.GeneratorMatchweeks {
		return fmt.Errorf("matchweeks must satisfy 0 <= completed <= total, got: %d of %d",
			config.CompletedMatchweeks, config.GeneratorMatchweeks)
	}

	return nil
}

// === HELPER FUNCTIONS FOR EASY ACCESS ===

// GetPPDALeagueAverage returns the pressing baseline used by the matchup model
func GetPPDALeagueAverage() float64 {
	return Config.PPDALeagueAverage
}

// GetHomeAdvantage returns the flat home-side xG bonus
func GetHomeAdvantage() float64 {
	return Config.HomeAdvantage
}

// GetRollingWindow returns the form window size
func GetRollingWindow() int {
	return Config.RollingWindow
}

// GetWeightHalflife returns the exponential weight halflife in matches
func GetWeightHalflife() int {
	return Config.WeightHalflife
}

// SetAttackBlendWeight updates the blend weight and recalculates its complement
func SetAttackBlendWeight(weight float64) {
	Config.AttackBlendWeight = weight
	Config.DefenseBlendWeight = 1.0 - weight
}
