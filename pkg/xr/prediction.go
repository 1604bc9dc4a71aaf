package xr

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adamsebhat/xr-football/internal/logger"
)

// Compile-time check to ensure Prediction implements Persistable interface
var _ Persistable = (*Prediction)(nil)

// FormSummary is the condensed form picture shown alongside a prediction
type FormSummary struct {
	Matches           int     `json:"matches"`
	XGFor             float64 `json:"xgFor"`
	XGAgainst         float64 `json:"xgAgainst"`
	Goals             float64 `json:"goals"`
	PossessionPct     float64 `json:"possessionPct"`
	PassCompletionPct float64 `json:"passCompletionPct"`
}

// Prediction is one fixture's full model output. The nested adjustment and
// scoreline structures are marshaled into TEXT columns around saves, the
// scalar fields persist as ordinary columns.
type Prediction struct {
	// Primary key, shared with the match it predicts
	MatchID string `json:"matchId" column:"matchId" dbtype:"TEXT" primary:"true" index:"true"`

	Season   string    `json:"season" column:"season" dbtype:"TEXT" index:"true"`
	Round    int       `json:"round" column:"round" dbtype:"INTEGER DEFAULT -1" index:"true"`
	UTCTime  time.Time `json:"utcTime" column:"utcTime" dbtype:"DATETIME" index:"true"`
	HomeTeam string    `json:"homeTeam" column:"homeTeam" dbtype:"TEXT NOT NULL" index:"true"`
	AwayTeam string    `json:"awayTeam" column:"awayTeam" dbtype:"TEXT NOT NULL" index:"true"`

	HomeForm FormSummary `json:"homeForm"`
	AwayForm FormSummary `json:"awayForm"`

	// Raw attacking form figures before matchup treatment
	BaseXGHome float64 `json:"baseXGHome" column:"baseXGHome" dbtype:"REAL DEFAULT -1.0"`
	BaseXGAway float64 `json:"baseXGAway" column:"baseXGAway" dbtype:"REAL DEFAULT -1.0"`

	// Final predicted expected goals
	PredXGHome float64 `json:"predXGHome" column:"predXGHome" dbtype:"REAL DEFAULT -1.0"`
	PredXGAway float64 `json:"predXGAway" column:"predXGAway" dbtype:"REAL DEFAULT -1.0"`

	Adjustments []MatchupAdjustment `json:"matchupAdjustments"`

	HomeWinPct float64 `json:"homeWinPct" column:"homeWinPct" dbtype:"REAL DEFAULT -1.0"`
	DrawPct    float64 `json:"drawPct" column:"drawPct" dbtype:"REAL DEFAULT -1.0"`
	AwayWinPct float64 `json:"awayWinPct" column:"awayWinPct" dbtype:"REAL DEFAULT -1.0"`
	XPtsHome   float64 `json:"xptsHome" column:"xptsHome" dbtype:"REAL DEFAULT -1.0"`
	XPtsAway   float64 `json:"xptsAway" column:"xptsAway" dbtype:"REAL DEFAULT -1.0"`

	TopScorelines []Scoreline `json:"topScorelines"`
	MostLikely    Scoreline   `json:"mostLikelyScoreline"`

	HoursUntilKickoff float64 `json:"hoursUntilKickoff" column:"hoursUntilKickoff" dbtype:"REAL DEFAULT -1.0"`

	// Actual result when the fixture has been played, -1 otherwise
	HomeGoals int `json:"homeGoals" column:"homeGoals" dbtype:"INTEGER DEFAULT -1"`
	AwayGoals int `json:"awayGoals" column:"awayGoals" dbtype:"INTEGER DEFAULT -1"`

	// JSON shadows of the nested structures, for the database only
	HomeFormJSON      string `json:"-" column:"homeForm" dbtype:"TEXT"`
	AwayFormJSON      string `json:"-" column:"awayForm" dbtype:"TEXT"`
	AdjustmentsJSON   string `json:"-" column:"adjustments" dbtype:"TEXT"`
	TopScorelinesJSON string `json:"-" column:"topScorelines" dbtype:"TEXT"`

	// Metadata
	CreatedAt time.Time `json:"createdAt" column:"created_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updatedAt" column:"updated_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
}

/////////////////////////////////////////////////////////////////////////
////// Persistable Interface Implementation
/////////////////////////////////////////////////////////////////////////

// GetPrimaryKey returns the primary key as a map
func (p *Prediction) GetPrimaryKey() map[string]interface{} {
	return map[string]any{
		"matchId": p.MatchID,
	}
}

// SetPrimaryKey sets the primary key from a map
func (p *Prediction) SetPrimaryKey(pk map[string]interface{}) error {
	if id, ok := pk["matchId"]; ok {
		if idStr, ok := id.(string); ok {
			p.MatchID = idStr
			return nil
		}
		return fmt.Errorf("primary key 'matchId' must be a string")
	}
	return fmt.Errorf("primary key 'matchId' not found")
}

// GetTableName returns the table name for predictions
func (p *Prediction) GetTableName() string {
	return "prediction"
}

// BeforeSave marshals the nested structures into their TEXT columns
func (p *Prediction) BeforeSave() error {
	var err error
	if p.HomeFormJSON, err = marshalString(p.HomeForm); err != nil {
		return err
	}
	if p.AwayFormJSON, err = marshalString(p.AwayForm); err != nil {
		return err
	}
	if p.AdjustmentsJSON, err = marshalString(p.Adjustments); err != nil {
		return err
	}
	if p.TopScorelinesJSON, err = marshalString(p.TopScorelines); err != nil {
		return err
	}

	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	return nil
}

// AfterSave is called after saving the prediction
func (p *Prediction) AfterSave() error {
	return nil
}

// BeforeDelete is called before deleting the prediction
func (p *Prediction) BeforeDelete() error {
	return nil
}

// AfterDelete is called after deleting the prediction
func (p *Prediction) AfterDelete() error {
	return nil
}

// HydrateNested unmarshals the TEXT columns back into the nested structures
// after a database load
func (p *Prediction) HydrateNested() error {
	if p.HomeFormJSON != "" {
		if err := json.Unmarshal([]byte(p.HomeFormJSON), &p.HomeForm); err != nil {
			return fmt.Errorf("failed to unmarshal home form: %w", err)
		}
	}
	if p.AwayFormJSON != "" {
		if err := json.Unmarshal([]byte(p.AwayFormJSON), &p.AwayForm); err != nil {
			return fmt.Errorf("failed to unmarshal away form: %w", err)
		}
	}
	if p.AdjustmentsJSON != "" {
		if err := json.Unmarshal([]byte(p.AdjustmentsJSON), &p.Adjustments); err != nil {
			return fmt.Errorf("failed to unmarshal adjustments: %w", err)
		}
	}
	if p.TopScorelinesJSON != "" {
		if err := json.Unmarshal([]byte(p.TopScorelinesJSON), &p.TopScorelines); err != nil {
			return fmt.Errorf("failed to unmarshal scorelines: %w", err)
		}
		if len(p.TopScorelines) > 0 {
			p.MostLikely = p.TopScorelines[0]
		}
	}
	return nil
}

// ToJSONIndented serializes the prediction to pretty-printed JSON bytes
func (p *Prediction) ToJSONIndented() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

func marshalString(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal prediction field: %w", err)
	}
	return string(b), nil
}

/////////////////////////////////////////////////////////////////////////
////// Prediction Building
/////////////////////////////////////////////////////////////////////////

// summarize condenses a full form into the display figures
func summarize(form *TeamFormStats) FormSummary {
	return FormSummary{
		Matches:           form.MatchesCount,
		XGFor:             roundTo(form.XGFor, 2),
		XGAgainst:         roundTo(form.XGAgainst, 2),
		Goals:             roundTo(form.Goals, 1),
		PossessionPct:     roundTo(form.PossessionPct, 1),
		PassCompletionPct: roundTo(form.PassCompletionPct(), 1),
	}
}

// BuildPrediction runs the full model for a single fixture. Form is computed
// from the given match history using only matches strictly before kickoff.
func BuildPrediction(history []*MatchRecord, match *MatchRecord, now time.Time) *Prediction {
	homeForm, _ := ComputeForm(history, match.HomeTeam, match.UTCTime)
	awayForm, _ := ComputeForm(history, match.AwayTeam, match.UTCTime)

	homeXG, awayXG, adjustments := ComputeMatchupXG(homeForm, awayForm, MatchupOptions{})
	probs := ComputeMatchProbabilities(homeXG, awayXG)

	return &Prediction{
		MatchID:  match.ID,
		Season:   match.Season,
		Round:    match.Round,
		UTCTime:  match.UTCTime,
		HomeTeam: match.HomeTeam,
		AwayTeam: match.AwayTeam,

		HomeForm: summarize(homeForm),
		AwayForm: summarize(awayForm),

		BaseXGHome: roundTo(homeForm.XGFor, 2),
		BaseXGAway: roundTo(awayForm.XGFor, 2),
		PredXGHome: roundTo(homeXG, 2),
		PredXGAway: roundTo(awayXG, 2),

		Adjustments: adjustments,

		HomeWinPct: probs.HomeWinPct,
		DrawPct:    probs.DrawPct,
		AwayWinPct: probs.AwayWinPct,
		XPtsHome:   probs.XPtsHome,
		XPtsAway:   probs.XPtsAway,

		TopScorelines: probs.TopScorelines,
		MostLikely:    probs.MostLikely,

		HoursUntilKickoff: roundTo(match.UTCTime.Sub(now).Hours(), 1),

		HomeGoals: match.HomeGoals,
		AwayGoals: match.AwayGoals,
	}
}

// BuildPredictions runs the model over a whole season of fixtures, played and
// unplayed alike. Completed fixtures are predicted retrospectively from the
// form available before their kickoff, which is what makes the model's
// accuracy measurable.
func BuildPredictions(matches []*MatchRecord, now time.Time) []*Prediction {
	predictions := make([]*Prediction, 0, len(matches))
	for _, match := range matches {
		if match.HomeTeam == "" || match.AwayTeam == "" {
			logger.Warn("Skipping fixture with missing team names", match.ID)
			continue
		}
		predictions = append(predictions, BuildPrediction(matches, match, now))
	}
	logger.Info("Built predictions", len(predictions))
	return predictions
}

// SavePredictions saves predictions to the database using BulkSave
func SavePredictions(predictions []*Prediction) error {
	var persistables []Persistable
	for _, p := range predictions {
		persistables = append(persistables, p)
	}

	if len(persistables) > 0 {
		if err := BulkSave(persistables); err != nil {
			return fmt.Errorf("failed to bulk save predictions: %w", err)
		}
		logger.Info("Bulk saved/updated predictions", len(persistables))
	}
	return nil
}
