package xr

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/adamsebhat/xr-football/internal/logger"
	"github.com/adamsebhat/xr-football/pkg/transport"
	"github.com/adamsebhat/xr-football/pkg/util"
)

// Datasource fetches and caches league data from understat.com.
// The league page embeds its data as JSON.parse('...') blobs inside script
// tags; fixtures live in datesData and the per-team match histories
// (including PPDA) in teamsData.
type Datasource struct {
	mu      sync.RWMutex
	matches []*MatchRecord
	loaded  time.Time
}

var (
	dsInstance *Datasource
	dsOnce     sync.Once
)

// GetDatasource returns the shared datasource instance
func GetDatasource() *Datasource {
	dsOnce.Do(func() {
		dsInstance = &Datasource{}
	})
	return dsInstance
}

/////////////////////////////////////////////////////////////////////////
////// Raw Fetch and Script Extraction
/////////////////////////////////////////////////////////////////////////

// leagueURL builds the understat league page URL for the configured season
func leagueURL() string {
	year, err := SeasonStartYear(Config.Season)
	if err != nil {
		year = Config.SeasonStart
	}
	return fmt.Sprintf("https://understat.com/league/%s/%d", Config.League, year)
}

// fetchLeaguePage returns the league page HTML, from the day's disk cache
// when present so repeated runs don't hammer the site
func (ds *Datasource) fetchLeaguePage() (string, error) {
	if err := util.EnsureDir(Config.CachePath); err != nil {
		return "", err
	}

	cacheFile := fmt.Sprintf("%s%s_%s_%s.html",
		Config.CachePath, Config.League, Config.Season, time.Now().UTC().Format("2006-01-02"))

	if util.FileExists(cacheFile) {
		data, err := os.ReadFile(cacheFile)
		if err == nil && len(data) > 0 {
			logger.Debug("Using cached league page", cacheFile)
			return string(data), nil
		}
	}

	url := leagueURL()
	logger.Info("Fetching league page", url)
	html, err := transport.GetHTML(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch league page: %w", err)
	}

	if err := util.WriteFileAtomic(cacheFile, html); err != nil {
		logger.Warn("Failed to cache league page", err)
	}

	return string(html), nil
}

// extractScriptJSON pulls a JSON.parse('...') variable out of the page's
// script tags and returns the decoded JSON text
func extractScriptJSON(html, varName string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse league page: %w", err)
	}

	pattern := regexp.MustCompile(varName + `\s*=\s*JSON\.parse\('(.+?)'\)`)

	var raw string
	doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, varName) {
			return true
		}
		if m := pattern.FindStringSubmatch(text); m != nil {
			raw = m[1]
			return false
		}
		return true
	})

	if raw == "" {
		return "", fmt.Errorf("could not find %s in league page", varName)
	}

	return unescapeScriptJSON(raw), nil
}

// unescapeScriptJSON decodes the \xNN and \uNNNN escapes understat uses
// inside its single-quoted JSON blobs
func unescapeScriptJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] == '\\' && i+3 < len(s) && s[i+1] == 'x' {
			if v, err := strconv.ParseUint(s[i+2:i+4], 16, 32); err == nil {
				b.WriteRune(rune(v))
				i += 4
				continue
			}
		}
		if s[i] == '\\' && i+5 < len(s) && s[i+1] == 'u' {
			if v, err := strconv.ParseUint(s[i+2:i+6], 16, 32); err == nil {
				b.WriteRune(rune(v))
				i += 6
				continue
			}
		}
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == '\'' {
			b.WriteByte('\'')
			i += 2
			continue
		}
		b.WriteByte(s[i])
		i++
	}

	return b.String()
}

/////////////////////////////////////////////////////////////////////////
////// Understat Payload Shapes
/////////////////////////////////////////////////////////////////////////

type understatSide struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type understatPair struct {
	H string `json:"h"`
	A string `json:"a"`
}

type understatFixture struct {
	ID       string        `json:"id"`
	IsResult bool          `json:"isResult"`
	Datetime string        `json:"datetime"`
	H        understatSide `json:"h"`
	A        understatSide `json:"a"`
	Goals    understatPair `json:"goals"`
	XG       understatPair `json:"xG"`
}

type understatPPDA struct {
	Att float64 `json:"att"`
	Def float64 `json:"def"`
}

type understatHistory struct {
	Date string        `json:"date"`
	PPDA understatPPDA `json:"ppda"`
}

type understatTeam struct {
	Title   string             `json:"title"`
	History []understatHistory `json:"history"`
}

/////////////////////////////////////////////////////////////////////////
////// Parsing
/////////////////////////////////////////////////////////////////////////

// parseFixtures converts the datesData payload into match records
func parseFixtures(datesJSON string) ([]*MatchRecord, error) {
	var fixtures []understatFixture
	if err := json.Unmarshal([]byte(datesJSON), &fixtures); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fixtures: %w", err)
	}

	matches := make([]*MatchRecord, 0, len(fixtures))
	for _, f := range fixtures {
		if f.H.Title == "" || f.A.Title == "" {
			continue
		}

		m := NewMatchRecord()
		m.ID = f.ID
		m.Season = Config.Season
		m.League = Config.League
		m.HomeTeam = f.H.Title
		m.AwayTeam = f.A.Title

		if t, err := ParseMatchTime(f.Datetime); err == nil {
			m.UTCTime = t
		} else {
			logger.Warn("Skipping fixture with unparseable kickoff", f.ID, f.Datetime)
			continue
		}

		// understat sends "" for the goals of unplayed fixtures
		if f.IsResult {
			if g, err := util.GetAsInteger(f.Goals.H); err == nil {
				m.HomeGoals = g
			}
			if g, err := util.GetAsInteger(f.Goals.A); err == nil {
				m.AwayGoals = g
			}
			if x, err := util.GetAsFloat(f.XG.H); err == nil {
				m.HomeXG = roundTo(x, 4)
			}
			if x, err := util.GetAsFloat(f.XG.A); err == nil {
				m.AwayXG = roundTo(x, 4)
			}
		}

		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].UTCTime.Before(matches[j].UTCTime)
	})

	return matches, nil
}

// ppdaKey identifies one team's performance on one calendar day
type ppdaKey struct {
	team string
	day  string
}

// parsePPDA converts the teamsData payload into a (team, day) PPDA lookup.
// PPDA is opposition passes allowed divided by defensive actions made.
func parsePPDA(teamsJSON string) (map[ppdaKey]float64, error) {
	var teams map[string]understatTeam
	if err := json.Unmarshal([]byte(teamsJSON), &teams); err != nil {
		return nil, fmt.Errorf("failed to unmarshal teams data: %w", err)
	}

	lookup := make(map[ppdaKey]float64)
	for _, t := range teams {
		for _, h := range t.History {
			if h.PPDA.Def <= 0 {
				continue
			}
			day := h.Date
			if len(day) > 10 {
				day = day[:10]
			}
			lookup[ppdaKey{t.Title, day}] = h.PPDA.Att / h.PPDA.Def
		}
	}

	return lookup, nil
}

// attachPPDA joins the PPDA lookup onto played match records by team and day
func attachPPDA(matches []*MatchRecord, lookup map[ppdaKey]float64) {
	for _, m := range matches {
		if !m.HasBeenPlayed() {
			continue
		}
		day := m.UTCTime.UTC().Format("2006-01-02")
		if v, ok := lookup[ppdaKey{m.HomeTeam, day}]; ok {
			m.HomePPDA = roundTo(v, 2)
		}
		if v, ok := lookup[ppdaKey{m.AwayTeam, day}]; ok {
			m.AwayPPDA = roundTo(v, 2)
		}
	}
}

/////////////////////////////////////////////////////////////////////////
////// Pipeline
/////////////////////////////////////////////////////////////////////////

// Fetch downloads and parses the season's fixtures without touching the
// database. PPDA figures are joined in when teamsData is available.
func (ds *Datasource) Fetch() ([]*MatchRecord, error) {
	html, err := ds.fetchLeaguePage()
	if err != nil {
		return nil, err
	}

	datesJSON, err := extractScriptJSON(html, "datesData")
	if err != nil {
		return nil, err
	}

	matches, err := parseFixtures(datesJSON)
	if err != nil {
		return nil, err
	}
	logger.Info("Parsed fixtures", len(matches))

	// PPDA is a nice-to-have, a missing teamsData blob shouldn't fail the run
	if teamsJSON, err := extractScriptJSON(html, "teamsData"); err == nil {
		if lookup, err := parsePPDA(teamsJSON); err == nil {
			attachPPDA(matches, lookup)
			logger.Info("Attached PPDA figures", len(lookup))
		} else {
			logger.Warn("Failed to parse teams data", err)
		}
	} else {
		logger.Warn("No teams data found in league page", err)
	}

	AssignRounds(matches)

	return matches, nil
}

// Update runs the full refresh: fetch fixtures, merge into any previously
// stored records, rebuild predictions and persist the lot.
func (ds *Datasource) Update() error {
	fetched, err := ds.Fetch()
	if err != nil {
		return err
	}

	if err := CreateTables(); err != nil {
		return err
	}

	// Merge stored detail (style statistics from other feeds) into the
	// fresh records rather than losing it on every refresh
	stored, err := LoadStoredMatches()
	if err != nil {
		logger.Warn("Failed to load stored matches, continuing with fetched only", err)
		stored = nil
	}
	byID := make(map[string]*MatchRecord, len(stored))
	for _, m := range stored {
		byID[m.ID] = m
	}
	for _, m := range fetched {
		if prev, ok := byID[m.ID]; ok {
			if err := m.Merge(prev); err != nil {
				logger.Warn("Failed to merge stored match", m.ID, err)
			}
		}
	}

	if err := SaveMatches(fetched); err != nil {
		return err
	}

	predictions := BuildPredictions(fetched, time.Now().UTC())
	if err := SavePredictions(predictions); err != nil {
		return err
	}

	ds.mu.Lock()
	ds.matches = fetched
	ds.loaded = time.Now()
	ds.mu.Unlock()

	logger.Info("Datasource update complete", len(fetched), "matches,", len(predictions), "predictions")
	return nil
}

// Matches returns the in-memory season, loading from the database on first
// use if no update has run yet
func (ds *Datasource) Matches() ([]*MatchRecord, error) {
	ds.mu.RLock()
	if ds.matches != nil {
		defer ds.mu.RUnlock()
		return ds.matches, nil
	}
	ds.mu.RUnlock()

	stored, err := LoadStoredMatches()
	if err != nil {
		return nil, err
	}

	ds.mu.Lock()
	ds.matches = stored
	ds.loaded = time.Now()
	ds.mu.Unlock()

	return stored, nil
}

// SetMatches replaces the in-memory season, used by the synthetic generator
// and by tests
func (ds *Datasource) SetMatches(matches []*MatchRecord) {
	ds.mu.Lock()
	ds.matches = matches
	ds.loaded = time.Now()
	ds.mu.Unlock()
}

// LoadedAt reports when the in-memory season was last refreshed
func (ds *Datasource) LoadedAt() time.Time {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.loaded
}

/////////////////////////////////////////////////////////////////////////
////// Database Loads
/////////////////////////////////////////////////////////////////////////

// LoadStoredMatches loads the configured season's matches from the database
func LoadStoredMatches() ([]*MatchRecord, error) {
	if err := CreateTables(); err != nil {
		return nil, err
	}

	rows, err := FindWhere(&MatchRecord{}, "season = ? ORDER BY utcTime", Config.Season)
	if err != nil {
		return nil, err
	}

	matches := make([]*MatchRecord, 0, len(rows))
	for _, r := range rows {
		if m, ok := r.(*MatchRecord); ok {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// LoadStoredPredictions loads the configured season's predictions from the
// database with their nested structures rebuilt
func LoadStoredPredictions() ([]*Prediction, error) {
	if err := CreateTables(); err != nil {
		return nil, err
	}

	rows, err := FindWhere(&Prediction{}, "season = ? ORDER BY utcTime", Config.Season)
	if err != nil {
		return nil, err
	}

	predictions := make([]*Prediction, 0, len(rows))
	for _, r := range rows {
		p, ok := r.(*Prediction)
		if !ok {
			continue
		}
		if err := p.HydrateNested(); err != nil {
			logger.Warn("Failed to hydrate prediction", p.MatchID, err)
		}
		predictions = append(predictions, p)
	}
	return predictions, nil
}
