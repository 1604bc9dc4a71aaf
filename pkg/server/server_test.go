package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adamsebhat/xr-football/pkg/xr"
)

// setupSeason points the database at a temp file and loads a small
// synthetic season into the datasource
func setupSeason(t *testing.T) []*xr.MatchRecord {
	t.Helper()

	prevAssets, prevDb := xr.Config.AssetsPath, xr.Config.DbPath
	dir := t.TempDir()
	xr.Config.AssetsPath = dir + "/"
	xr.Config.DbPath = filepath.Join(dir, "xr_test.db")
	require.NoError(t, xr.CloseDatabase())

	t.Cleanup(func() {
		require.NoError(t, xr.CloseDatabase())
		xr.Config.AssetsPath, xr.Config.DbPath = prevAssets, prevDb
		xr.GetDatasource().SetMatches(nil)
	})

	require.NoError(t, xr.GenerateAndStore(42))

	matches, err := xr.GetDatasource().Matches()
	require.NoError(t, err)
	return matches
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := New(":0")
	rec := get(t, s.Handler(), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	s := New(":0")
	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMatchesEndpoint(t *testing.T) {
	matches := setupSeason(t)
	s := New(":0")

	rec := get(t, s.Handler(), "/api/matches")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []*xr.MatchRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, len(matches))
}

func TestMatchesEndpointFilters(t *testing.T) {
	setupSeason(t)
	s := New(":0")

	rec := get(t, s.Handler(), "/api/matches?round=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var byRound []*xr.MatchRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &byRound))
	require.NotEmpty(t, byRound)
	for _, m := range byRound {
		require.Equal(t, 1, m.Round)
	}

	rec = get(t, s.Handler(), "/api/matches?team=Arsenal")
	var byTeam []*xr.MatchRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &byTeam))
	require.NotEmpty(t, byTeam)
	for _, m := range byTeam {
		require.True(t, m.Involves("Arsenal"))
	}

	rec = get(t, s.Handler(), "/api/matches?round=first")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictionsEndpoint(t *testing.T) {
	matches := setupSeason(t)
	s := New(":0")

	rec := get(t, s.Handler(), "/api/predictions")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []*xr.Prediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, len(matches))

	// Nested structures came back hydrated, not as raw JSON strings
	require.NotEmpty(t, got[0].TopScorelines)

	rec = get(t, s.Handler(), "/api/predictions?round=2")
	var round2 []*xr.Prediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &round2))
	require.NotEmpty(t, round2)
	for _, p := range round2 {
		require.Equal(t, 2, p.Round)
	}
}

func TestMetadataEndpoint(t *testing.T) {
	matches := setupSeason(t)
	s := New(":0")

	rec := get(t, s.Handler(), "/api/metadata")
	require.Equal(t, http.StatusOK, rec.Code)

	var meta struct {
		Season         string   `json:"season"`
		MatchCount     int      `json:"matchCount"`
		CompletedCount int      `json:"completedCount"`
		MatchweekCount int      `json:"matchweekCount"`
		Teams          []string `json:"teams"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	require.Equal(t, xr.Config.Season, meta.Season)
	require.Equal(t, len(matches), meta.MatchCount)
	require.Equal(t, 38, meta.MatchweekCount)
	require.Len(t, meta.Teams, 20)
	require.Greater(t, meta.CompletedCount, 0)
}

func TestTeamFormEndpoint(t *testing.T) {
	setupSeason(t)
	s := New(":0")

	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
	rec := get(t, s.Handler(), "/api/teams/Arsenal/form?before="+cutoff)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Team string            `json:"team"`
		Form *xr.TeamFormStats `json:"form"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Arsenal", resp.Team)
	require.Equal(t, xr.Config.RollingWindow, resp.Form.MatchesCount)

	rec = get(t, s.Handler(), "/api/teams/NotARealClub/form")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, s.Handler(), "/api/teams/Arsenal/form?before=yesterday")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
