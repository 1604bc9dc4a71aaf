package xr

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/adamsebhat/xr-football/internal/logger"
)

// Compile-time check to ensure MatchRecord implements Persistable interface
var _ Persistable = (*MatchRecord)(nil)

// MatchRecord represents a single fixture with database persistence annotations.
// Played matches carry goals, xG and the per-side style statistics that feed the
// matchup model; scheduled matches carry -1 in every numeric slot.
type MatchRecord struct {
	// Primary key
	ID string `json:"id" column:"id" dbtype:"TEXT" primary:"true" index:"true"`

	// Info
	UTCTime time.Time `json:"utcTime" column:"utcTime" dbtype:"DATETIME" index:"true"`
	Round   int       `json:"round" column:"round" dbtype:"INTEGER DEFAULT -1" index:"true"`
	Season  string    `json:"season" column:"season" dbtype:"TEXT" index:"true"`
	League  string    `json:"league" column:"league" dbtype:"TEXT" index:"true"`
	Status  string    `json:"status" column:"status" dbtype:"TEXT"` // "finished", "scheduled", "in_progress"

	HomeTeam string `json:"homeTeam" column:"homeTeam" dbtype:"TEXT NOT NULL" index:"true"`
	AwayTeam string `json:"awayTeam" column:"awayTeam" dbtype:"TEXT NOT NULL" index:"true"`

	// Result
	HomeGoals int `json:"homeGoals" column:"homeGoals" dbtype:"INTEGER DEFAULT -1"`
	AwayGoals int `json:"awayGoals" column:"awayGoals" dbtype:"INTEGER DEFAULT -1"`

	// Expected goals actually produced in the match
	HomeXG float64 `json:"homeXG" column:"homeXG" dbtype:"REAL DEFAULT -1.0"`
	AwayXG float64 `json:"awayXG" column:"awayXG" dbtype:"REAL DEFAULT -1.0"`

	// Volume and style statistics, home side
	HomeShots              int     `json:"homeShots,omitempty" column:"homeShots" dbtype:"INTEGER DEFAULT -1"`
	HomeShotsOnTarget      int     `json:"homeShotsOnTarget,omitempty" column:"homeShotsOnTarget" dbtype:"INTEGER DEFAULT -1"`
	HomePossession         float64 `json:"homePossession,omitempty" column:"homePossession" dbtype:"REAL DEFAULT -1.0"`
	HomePassesCompleted    int     `json:"homePassesCompleted,omitempty" column:"homePassesCompleted" dbtype:"INTEGER DEFAULT -1"`
	HomePassesAttempted    int     `json:"homePassesAttempted,omitempty" column:"homePassesAttempted" dbtype:"INTEGER DEFAULT -1"`
	HomeCrosses            int     `json:"homeCrosses,omitempty" column:"homeCrosses" dbtype:"INTEGER DEFAULT -1"`
	HomeCorners            int     `json:"homeCorners,omitempty" column:"homeCorners" dbtype:"INTEGER DEFAULT -1"`
	HomeProgressivePasses  int     `json:"homeProgressivePasses,omitempty" column:"homeProgressivePasses" dbtype:"INTEGER DEFAULT -1"`
	HomeProgressiveCarries int     `json:"homeProgressiveCarries,omitempty" column:"homeProgressiveCarries" dbtype:"INTEGER DEFAULT -1"`
	HomePressures          int     `json:"homePressures,omitempty" column:"homePressures" dbtype:"INTEGER DEFAULT -1"`
	HomeTackles            int     `json:"homeTackles,omitempty" column:"homeTackles" dbtype:"INTEGER DEFAULT -1"`
	HomeInterceptions      int     `json:"homeInterceptions,omitempty" column:"homeInterceptions" dbtype:"INTEGER DEFAULT -1"`
	HomePPDA               float64 `json:"homePPDA,omitempty" column:"homePPDA" dbtype:"REAL DEFAULT -1.0"`

	// Volume and style statistics, away side
	AwayShots              int     `json:"awayShots,omitempty" column:"awayShots" dbtype:"INTEGER DEFAULT -1"`
	AwayShotsOnTarget      int     `json:"awayShotsOnTarget,omitempty" column:"awayShotsOnTarget" dbtype:"INTEGER DEFAULT -1"`
	AwayPossession         float64 `json:"awayPossession,omitempty" column:"awayPossession" dbtype:"REAL DEFAULT -1.0"`
	AwayPassesCompleted    int     `json:"awayPassesCompleted,omitempty" column:"awayPassesCompleted" dbtype:"INTEGER DEFAULT -1"`
	AwayPassesAttempted    int     `json:"awayPassesAttempted,omitempty" column:"awayPassesAttempted" dbtype:"INTEGER DEFAULT -1"`
	AwayCrosses            int     `json:"awayCrosses,omitempty" column:"awayCrosses" dbtype:"INTEGER DEFAULT -1"`
	AwayCorners            int     `json:"awayCorners,omitempty" column:"awayCorners" dbtype:"INTEGER DEFAULT -1"`
	AwayProgressivePasses  int     `json:"awayProgressivePasses,omitempty" column:"awayProgressivePasses" dbtype:"INTEGER DEFAULT -1"`
	AwayProgressiveCarries int     `json:"awayProgressiveCarries,omitempty" column:"awayProgressiveCarries" dbtype:"INTEGER DEFAULT -1"`
	AwayPressures          int     `json:"awayPressures,omitempty" column:"awayPressures" dbtype:"INTEGER DEFAULT -1"`
	AwayTackles            int     `json:"awayTackles,omitempty" column:"awayTackles" dbtype:"INTEGER DEFAULT -1"`
	AwayInterceptions      int     `json:"awayInterceptions,omitempty" column:"awayInterceptions" dbtype:"INTEGER DEFAULT -1"`
	AwayPPDA               float64 `json:"awayPPDA,omitempty" column:"awayPPDA" dbtype:"REAL DEFAULT -1.0"`

	// Metadata
	CreatedAt time.Time `json:"createdAt" column:"created_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updatedAt" column:"updated_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
}

// NewMatchRecord creates a new MatchRecord with default values for numeric fields
// All numeric fields default to -1 (int) or -1.0 (float64) to distinguish from valid zero values
func NewMatchRecord() *MatchRecord {
	return &MatchRecord{
		Round:                  -1,
		HomeGoals:              -1,
		AwayGoals:              -1,
		HomeXG:                 -1.0,
		AwayXG:                 -1.0,
		HomeShots:              -1,
		HomeShotsOnTarget:      -1,
		HomePossession:         -1.0,
		HomePassesCompleted:    -1,
		HomePassesAttempted:    -1,
		HomeCrosses:            -1,
		HomeCorners:            -1,
		HomeProgressivePasses:  -1,
		HomeProgressiveCarries: -1,
		HomePressures:          -1,
		HomeTackles:            -1,
		HomeInterceptions:      -1,
		HomePPDA:               -1.0,
		AwayShots:              -1,
		AwayShotsOnTarget:      -1,
		AwayPossession:         -1.0,
		AwayPassesCompleted:    -1,
		AwayPassesAttempted:    -1,
		AwayCrosses:            -1,
		AwayCorners:            -1,
		AwayProgressivePasses:  -1,
		AwayProgressiveCarries: -1,
		AwayPressures:          -1,
		AwayTackles:            -1,
		AwayInterceptions:      -1,
		AwayPPDA:               -1.0,
	}
}

/////////////////////////////////////////////////////////////////////////
////// Persistable Interface Implementation
/////////////////////////////////////////////////////////////////////////

// GetPrimaryKey returns the primary key as a map
func (m *MatchRecord) GetPrimaryKey() map[string]interface{} {
	return map[string]any{
		"id": m.ID,
	}
}

// SetPrimaryKey sets the primary key from a map
func (m *MatchRecord) SetPrimaryKey(pk map[string]interface{}) error {
	if id, ok := pk["id"]; ok {
		if idStr, ok := id.(string); ok {
			m.ID = idStr
			return nil
		}
		return fmt.Errorf("primary key 'id' must be a string")
	}
	return fmt.Errorf("primary key 'id' not found")
}

// GetTableName returns the table name for match records
func (m *MatchRecord) GetTableName() string {
	return "match"
}

// BeforeSave is called before saving the record
func (m *MatchRecord) BeforeSave() error {
	m.deriveStatus()

	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	return nil
}

// AfterSave is called after saving the record
func (m *MatchRecord) AfterSave() error {
	return nil
}

// BeforeDelete is called before deleting the record
func (m *MatchRecord) BeforeDelete() error {
	return nil
}

// AfterDelete is called after deleting the record
func (m *MatchRecord) AfterDelete() error {
	return nil
}

// deriveStatus sets a simple status based on the match data
func (m *MatchRecord) deriveStatus() {
	if m.Status != "" {
		return // Don't override explicitly set status
	}

	if m.HasBeenPlayed() {
		m.Status = "finished"
	} else if !m.UTCTime.IsZero() && m.UTCTime.Before(time.Now()) {
		m.Status = "in_progress"
	} else {
		m.Status = "scheduled"
	}
}

/////////////////////////////////////////////////////////////////////////
////// Status Query Methods
/////////////////////////////////////////////////////////////////////////

// HasBeenPlayed determines if the match has been completed
func (m *MatchRecord) HasBeenPlayed() bool {
	return m.HomeGoals >= 0 && m.AwayGoals >= 0
}

// IsScheduled determines if the match is in the future
func (m *MatchRecord) IsScheduled() bool {
	return !m.HasBeenPlayed() && m.UTCTime.After(time.Now())
}

// Involves reports whether the given team played on either side
func (m *MatchRecord) Involves(team string) bool {
	return m.HomeTeam == team || m.AwayTeam == team
}

// RecreateScoreStr generates a score string from actual goals
func (m *MatchRecord) RecreateScoreStr() string {
	if !m.HasBeenPlayed() {
		return ""
	}
	return fmt.Sprintf("%d - %d", m.HomeGoals, m.AwayGoals)
}

// Merges the data from n into m if the data in m
// is missing and n has it
func (m *MatchRecord) Merge(n *MatchRecord) error {
	if n == nil {
		return fmt.Errorf("must pass a match record")
	}

	// Use reflection to iterate through all fields
	mVal := reflect.ValueOf(m).Elem()
	nVal := reflect.ValueOf(n).Elem()
	mType := mVal.Type()

	for i := 0; i < mVal.NumField(); i++ {
		field := mVal.Field(i)
		fieldType := mType.Field(i)
		nField := nVal.Field(i)

		// Skip unexported fields
		if !field.CanSet() {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			// If string field is empty, copy from n
			if field.String() == "" && nField.String() != "" {
				field.SetString(nField.String())
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			// If int field is -1, copy from n
			if field.Int() == -1 && nField.Int() != -1 {
				field.SetInt(nField.Int())
			}
		case reflect.Float32, reflect.Float64:
			// If float field is -1.0, copy from n
			if field.Float() == -1.0 && nField.Float() != -1.0 {
				field.SetFloat(nField.Float())
			}
		case reflect.Struct:
			// Special handling for time.Time
			if fieldType.Type == reflect.TypeOf(time.Time{}) {
				timeField := field.Interface().(time.Time)
				nTimeField := nField.Interface().(time.Time)
				if timeField.IsZero() && !nTimeField.IsZero() {
					field.Set(nField)
				}
			}
		default:
			logger.Info("failed to determine field type", fieldType.Type)
		}
	}
	return nil
}

/**
* Returns true if the given MatchRecord is ostensibly the same fixture
* That is, has the same match ID or refers to the same date, season and teams
 */
func (m *MatchRecord) Equals(n *MatchRecord) bool {
	if n == nil {
		return false
	}
	// same ID means same match regardless of any other content
	if m.ID != "" && m.ID == n.ID {
		return true
	}
	if m.HomeTeam == "" && m.Season == "" && m.UTCTime.IsZero() {
		return false
	}
	if m.HomeTeam != n.HomeTeam || m.AwayTeam != n.AwayTeam {
		return false
	}
	if m.Season != n.Season {
		return false
	}
	if !m.UTCTime.IsZero() {
		if n.UTCTime.IsZero() {
			return false
		}
		// fixtures on different days are different matches
		if m.UTCTime.Year() != n.UTCTime.Year() || m.UTCTime.YearDay() != n.UTCTime.YearDay() {
			return false
		}
	}
	return true
}

/////////////////////////////////////////////////////////////////////////
////// Parsing Helpers
/////////////////////////////////////////////////////////////////////////

// matchTimeLayouts are tried in order when parsing feed timestamps
var matchTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseMatchTime parses a feed timestamp. Date-only values are padded with the
// configured default kickoff hour so that same-day cutoff comparisons stay sane.
func ParseMatchTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty match time")
	}

	for _, layout := range matchTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(),
			Config.DefaultKickoffHour, 0, 0, 0, time.UTC), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized match time %q", s)
}

// ToJSON serializes the MatchRecord to JSON bytes
func (m *MatchRecord) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ToJSONIndented serializes the MatchRecord to pretty-printed JSON bytes
func (m *MatchRecord) ToJSONIndented() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

/////////////////////////////////////////////////////////////////////////
////// Match Collection Operations
/////////////////////////////////////////////////////////////////////////

// SaveMatches saves match records to the database using BulkSave
func SaveMatches(matches []*MatchRecord) error {
	logger.Info("Saving matches to database", len(matches))

	var persistables []Persistable
	for _, match := range matches {
		persistables = append(persistables, match)
	}

	if len(persistables) > 0 {
		if err := BulkSave(persistables); err != nil {
			return fmt.Errorf("failed to bulk save matches: %w", err)
		}
		logger.Info("Bulk saved/updated matches", len(persistables))
	} else {
		logger.Info("No matches to save")
	}

	return nil
}

// TeamsFromMatches extracts the sorted-by-first-appearance unique team names
func TeamsFromMatches(matches []*MatchRecord) []string {
	seen := make(map[string]bool)
	teams := make([]string, 0, 20)

	for _, match := range matches {
		if match.HomeTeam != "" && !seen[match.HomeTeam] {
			seen[match.HomeTeam] = true
			teams = append(teams, match.HomeTeam)
		}
		if match.AwayTeam != "" && !seen[match.AwayTeam] {
			seen[match.AwayTeam] = true
			teams = append(teams, match.AwayTeam)
		}
	}

	return teams
}
