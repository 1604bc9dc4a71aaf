// Package server exposes the prediction data over a small JSON API.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adamsebhat/xr-football/internal/logger"
	"github.com/adamsebhat/xr-football/internal/metrics"
	"github.com/adamsebhat/xr-football/pkg/xr"
)

// Server wraps the HTTP API around the shared datasource
type Server struct {
	router *mux.Router
	http   *http.Server
}

// New builds the API server listening on addr
func New(addr string) *Server {
	s := &Server{router: mux.NewRouter()}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/predictions", s.handlePredictions).Methods(http.MethodGet)
	api.HandleFunc("/matches", s.handleMatches).Methods(http.MethodGet)
	api.HandleFunc("/metadata", s.handleMetadata).Methods(http.MethodGet)
	api.HandleFunc("/teams/{team}/form", s.handleTeamForm).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.router.Use(instrument)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving the API
func (s *Server) ListenAndServe() error {
	logger.Info("API listening on", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the routing tree, used by tests
func (s *Server) Handler() http.Handler {
	return s.router
}

/////////////////////////////////////////////////////////////////////////
////// Middleware
/////////////////////////////////////////////////////////////////////////

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request counts and latency per route
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

/////////////////////////////////////////////////////////////////////////
////// Handlers
/////////////////////////////////////////////////////////////////////////

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	predictions, err := xr.LoadStoredPredictions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load predictions")
		logger.Error("handlePredictions:", err)
		return
	}

	if roundStr := r.URL.Query().Get("round"); roundStr != "" {
		round, err := strconv.Atoi(roundStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "round must be an integer")
			return
		}
		filtered := predictions[:0]
		for _, p := range predictions {
			if p.Round == round {
				filtered = append(filtered, p)
			}
		}
		predictions = filtered
	}

	writeJSON(w, predictions)
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := xr.GetDatasource().Matches()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load matches")
		logger.Error("handleMatches:", err)
		return
	}

	q := r.URL.Query()
	if roundStr := q.Get("round"); roundStr != "" {
		round, err := strconv.Atoi(roundStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "round must be an integer")
			return
		}
		filtered := make([]*xr.MatchRecord, 0)
		for _, m := range matches {
			if m.Round == round {
				filtered = append(filtered, m)
			}
		}
		matches = filtered
	}
	if team := q.Get("team"); team != "" {
		filtered := make([]*xr.MatchRecord, 0)
		for _, m := range matches {
			if m.Involves(team) {
				filtered = append(filtered, m)
			}
		}
		matches = filtered
	}

	writeJSON(w, matches)
}

// seasonMetadata summarizes what the service currently knows
type seasonMetadata struct {
	Season          string    `json:"season"`
	League          string    `json:"league"`
	MatchCount      int       `json:"matchCount"`
	CompletedCount  int       `json:"completedCount"`
	UpcomingCount   int       `json:"upcomingCount"`
	MatchweekCount  int       `json:"matchweekCount"`
	Teams           []string  `json:"teams"`
	TeamCount       int       `json:"teamCount"`
	LastRefreshedAt time.Time `json:"lastRefreshedAt"`
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	ds := xr.GetDatasource()
	matches, err := ds.Matches()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load matches")
		logger.Error("handleMetadata:", err)
		return
	}

	completed := 0
	for _, m := range matches {
		if m.HasBeenPlayed() {
			completed++
		}
	}
	teams := xr.TeamsFromMatches(matches)
	rounds := xr.GroupByRound(matches)

	writeJSON(w, seasonMetadata{
		Season:          xr.Config.Season,
		League:          xr.Config.League,
		MatchCount:      len(matches),
		CompletedCount:  completed,
		UpcomingCount:   len(matches) - completed,
		MatchweekCount:  len(rounds),
		Teams:           teams,
		TeamCount:       len(teams),
		LastRefreshedAt: ds.LoadedAt(),
	})
}

// teamFormResponse pairs the computed form with the matches behind it
type teamFormResponse struct {
	Team    string            `json:"team"`
	Cutoff  time.Time         `json:"cutoff"`
	Form    *xr.TeamFormStats `json:"form"`
	Matches []*xr.MatchRecord `json:"matches"`
}

func (s *Server) handleTeamForm(w http.ResponseWriter, r *http.Request) {
	team := mux.Vars(r)["team"]

	cutoff := time.Now().UTC()
	if before := r.URL.Query().Get("before"); before != "" {
		t, err := time.Parse(time.RFC3339, before)
		if err != nil {
			writeError(w, http.StatusBadRequest, "before must be RFC3339")
			return
		}
		cutoff = t
	}

	matches, err := xr.GetDatasource().Matches()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load matches")
		logger.Error("handleTeamForm:", err)
		return
	}

	form, used := xr.ComputeForm(matches, team, cutoff)
	if form.MatchesCount == 0 {
		// Distinguish an unknown team from a known team with no history yet
		known := false
		for _, t := range xr.TeamsFromMatches(matches) {
			if t == team {
				known = true
				break
			}
		}
		if !known {
			writeError(w, http.StatusNotFound, "unknown team")
			return
		}
	}

	writeJSON(w, teamFormResponse{
		Team:    team,
		Cutoff:  cutoff,
		Form:    form,
		Matches: used,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

/////////////////////////////////////////////////////////////////////////
////// Response Helpers
/////////////////////////////////////////////////////////////////////////

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
