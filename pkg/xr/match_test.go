package xr

import (
	"testing"
	"time"
)

func TestNewMatchRecordSentinels(t *testing.T) {
	m := NewMatchRecord()
	if m.HomeGoals != -1 || m.AwayGoals != -1 {
		t.Error("goals should default to -1")
	}
	if m.HomeXG != -1.0 || m.AwayPPDA != -1.0 {
		t.Error("float fields should default to -1.0")
	}
	if m.HasBeenPlayed() {
		t.Error("fresh record should not count as played")
	}
}

func TestHasBeenPlayedWithZeroGoals(t *testing.T) {
	m := NewMatchRecord()
	m.HomeGoals = 0
	m.AwayGoals = 0
	if !m.HasBeenPlayed() {
		t.Error("a goalless draw is still a played match")
	}
	if m.RecreateScoreStr() != "0 - 0" {
		t.Errorf("score string = %q", m.RecreateScoreStr())
	}
}

func TestMergeFillsOnlyMissingFields(t *testing.T) {
	m := NewMatchRecord()
	m.ID = "x"
	m.HomeTeam = "Arsenal"
	m.HomeGoals = 2 // already known, must survive

	n := NewMatchRecord()
	n.ID = "x"
	n.HomeTeam = "Wrong Name" // must not overwrite
	n.AwayTeam = "Chelsea"
	n.HomeGoals = 5
	n.AwayGoals = 1
	n.HomeXG = 1.8
	n.UTCTime = time.Date(2025, 9, 1, 15, 0, 0, 0, time.UTC)

	if err := m.Merge(n); err != nil {
		t.Fatal(err)
	}

	if m.HomeTeam != "Arsenal" {
		t.Error("populated string overwritten by merge")
	}
	if m.HomeGoals != 2 {
		t.Error("populated int overwritten by merge")
	}
	if m.AwayTeam != "Chelsea" {
		t.Error("missing string not filled by merge")
	}
	if m.AwayGoals != 1 {
		t.Error("missing int not filled by merge")
	}
	if m.HomeXG != 1.8 {
		t.Error("missing float not filled by merge")
	}
	if !m.UTCTime.Equal(n.UTCTime) {
		t.Error("zero time not filled by merge")
	}
}

func TestMergeNil(t *testing.T) {
	m := NewMatchRecord()
	if err := m.Merge(nil); err == nil {
		t.Error("merging nil should fail")
	}
}

func TestEquals(t *testing.T) {
	day := time.Date(2025, 9, 1, 15, 0, 0, 0, time.UTC)

	a := NewMatchRecord()
	a.ID = "1"
	a.HomeTeam = "Arsenal"
	a.AwayTeam = "Chelsea"
	a.Season = "2025-26"
	a.UTCTime = day

	// Same ID is always the same match
	b := NewMatchRecord()
	b.ID = "1"
	if !a.Equals(b) {
		t.Error("matching IDs should be equal")
	}

	// Same teams, season and day without an ID match
	c := NewMatchRecord()
	c.ID = "other"
	c.HomeTeam = "Arsenal"
	c.AwayTeam = "Chelsea"
	c.Season = "2025-26"
	c.UTCTime = day.Add(3 * time.Hour)
	if !a.Equals(c) {
		t.Error("same fixture on the same day should be equal")
	}

	// Different day is a different fixture
	d := NewMatchRecord()
	d.ID = "other"
	d.HomeTeam = "Arsenal"
	d.AwayTeam = "Chelsea"
	d.Season = "2025-26"
	d.UTCTime = day.AddDate(0, 0, 7)
	if a.Equals(d) {
		t.Error("different days should not be equal")
	}

	if a.Equals(nil) {
		t.Error("nil should never be equal")
	}
}

func TestParseMatchTime(t *testing.T) {
	// Full timestamps parse as given
	got, err := ParseMatchTime("2025-09-01 15:00:00")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, 9, 1, 15, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parsed %v, want %v", got, want)
	}

	// RFC3339 works too
	if _, err := ParseMatchTime("2025-09-01T15:00:00Z"); err != nil {
		t.Errorf("RFC3339 parse failed: %v", err)
	}

	// Date-only values get the default kickoff hour so cutoff comparisons
	// within the same day behave
	got, err = ParseMatchTime("2025-09-01")
	if err != nil {
		t.Fatal(err)
	}
	if got.Hour() != Config.DefaultKickoffHour {
		t.Errorf("date-only hour = %d, want %d", got.Hour(), Config.DefaultKickoffHour)
	}

	if _, err := ParseMatchTime(""); err == nil {
		t.Error("empty time should fail")
	}
	if _, err := ParseMatchTime("not a time"); err == nil {
		t.Error("garbage time should fail")
	}
}

func TestTeamsFromMatches(t *testing.T) {
	day := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	matches := []*MatchRecord{
		fixtureOn("a", day, "Arsenal", "Chelsea"),
		fixtureOn("b", day, "Chelsea", "Fulham"),
		fixtureOn("c", day, "Arsenal", "Fulham"),
	}

	teams := TeamsFromMatches(matches)
	if len(teams) != 3 {
		t.Fatalf("got %d teams, want 3", len(teams))
	}
	if teams[0] != "Arsenal" || teams[1] != "Chelsea" || teams[2] != "Fulham" {
		t.Errorf("teams = %v, want first-appearance order", teams)
	}
}
