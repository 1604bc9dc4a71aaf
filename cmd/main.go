package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/adamsebhat/xr-football/internal/logger"
	"github.com/adamsebhat/xr-football/internal/metrics"
	"github.com/adamsebhat/xr-football/internal/scheduler"
	"github.com/adamsebhat/xr-football/pkg/server"
	"github.com/adamsebhat/xr-football/pkg/xr"
)

func main() {
	logger.SetShowDateTime(true)

	if err := xr.LoadConfigFromEnv(); err != nil {
		logger.Fatal("Failed to load configuration:", err)
	}
	if err := xr.ValidateConfig(xr.Config); err != nil {
		logger.Fatal("Invalid configuration:", err)
	}

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "update":
		runUpdate()
	case "generate":
		runGenerate()
	case "predict":
		runPredict()
	case "serve":
		runServe()
	default:
		fmt.Fprintf(os.Stderr, "usage: %s [update|generate [seed]|predict [home away]|serve]\n", os.Args[0])
		os.Exit(2)
	}
}

// runUpdate fetches the live season and rebuilds everything once
func runUpdate() {
	logger.Info("Refreshing season data for", xr.Config.Season)
	if err := xr.GetDatasource().Update(); err != nil {
		logger.Fatal("Update failed:", err)
	}
	logger.Info("Update complete")
}

// runGenerate builds a synthetic season instead of fetching a live one.
// An optional second argument sets the seed.
func runGenerate() {
	seed := int64(42)
	if len(os.Args) > 2 {
		v, err := strconv.ParseInt(os.Args[2], 10, 64)
		if err != nil {
			logger.Fatal("Seed must be an integer:", os.Args[2])
		}
		seed = v
	}

	logger.Info("Generating synthetic season with seed", seed)
	if err := xr.GenerateAndStore(seed); err != nil {
		logger.Fatal("Generate failed:", err)
	}
	logger.Info("Generate complete")
}

// runPredict rebuilds predictions from whatever matches are stored, without
// touching the network. With two team names it prints a one-off matchup
// prediction instead of persisting anything.
func runPredict() {
	matches, err := xr.LoadStoredMatches()
	if err != nil {
		logger.Fatal("Failed to load stored matches:", err)
	}
	if len(matches) == 0 {
		logger.Fatal("No stored matches; run 'update' or 'generate' first")
	}

	now := time.Now().UTC()

	if len(os.Args) > 3 {
		fixture := xr.NewMatchRecord()
		fixture.HomeTeam = os.Args[2]
		fixture.AwayTeam = os.Args[3]
		fixture.Season = xr.Config.Season
		fixture.UTCTime = now

		p := xr.BuildPrediction(matches, fixture, now)
		out, err := p.ToJSONIndented()
		if err != nil {
			logger.Fatal("Failed to serialize prediction:", err)
		}
		fmt.Println(string(out))
		return
	}

	predictions := xr.BuildPredictions(matches, now)
	if err := xr.SavePredictions(predictions); err != nil {
		logger.Fatal("Failed to save predictions:", err)
	}
	metrics.PredictionsBuilt.Set(float64(len(predictions)))
	logger.Info("Rebuilt predictions", len(predictions))
}

// runServe starts the API with the cron refresh running alongside it
func runServe() {
	sched := scheduler.New(func() error {
		err := xr.GetDatasource().Update()
		if err == nil {
			if matches, merr := xr.GetDatasource().Matches(); merr == nil {
				metrics.MatchesLoaded.Set(float64(len(matches)))
			}
		}
		return err
	})
	if err := sched.Start(xr.Config.RefreshCron); err != nil {
		logger.Fatal("Failed to start scheduler:", err)
	}

	srv := server.New(xr.Config.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Received signal, shutting down:", sig.String())
	case err := <-errCh:
		logger.Error("Server error:", err)
	}

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error:", err)
	}

	if err := xr.CloseDatabase(); err != nil {
		logger.Error("Failed to close database:", err)
	}

	logger.Info("Goodbye")
}
