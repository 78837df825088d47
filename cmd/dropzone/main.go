package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmoroni/dropzone/internal/config"
	"github.com/lmoroni/dropzone/internal/dataset"
	"github.com/lmoroni/dropzone/internal/league"
	"github.com/lmoroni/dropzone/internal/logger"
	"github.com/lmoroni/dropzone/internal/report"
	"github.com/lmoroni/dropzone/internal/sim"
	"github.com/lmoroni/dropzone/internal/storage"
	"github.com/lmoroni/dropzone/internal/telegram"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	dataPath   = flag.String("data", "", "League snapshot JSON file to import and simulate; default is the latest stored snapshot")
	baseline   = flag.Bool("baseline-only", false, "Skip the with-form run even when the snapshot carries form data")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.MaxSnapshots, cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize snapshot store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close snapshot store: %v", err)
		}
	}()

	snap, err := resolveSnapshot(store)
	if err != nil {
		logger.Fatal("%v", err)
	}
	logger.Info("Snapshot: %s %s, matchday %d, %d teams, %d remaining fixtures",
		snap.League, snap.Season, snap.Matchday, len(snap.Teams), len(snap.Fixtures))

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
			cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Simulation.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.Simulation.Timeout)
		defer cancel()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, stopping trial dispatch...")
		cancel()
	}()

	base, withForm, err := runBatches(ctx, cfg, snap)
	if err != nil {
		logger.Error("Simulation failed: %v", err)
		if telegramClient != nil {
			if sendErr := telegramClient.SendError(err); sendErr != nil {
				logger.Warn("Failed to send error notification: %v", sendErr)
			}
		}
		os.Exit(1)
	}

	if err := report.Render(os.Stdout, snap, base, withForm, cfg.League.SafePointsCutoff); err != nil {
		logger.Fatal("Failed to render report: %v", err)
	}

	if telegramClient != nil {
		final := withForm
		if final == nil {
			final = base
		}
		rows := report.BuildRows(snap, base, withForm, cfg.League.SafePointsCutoff)
		if err := telegramClient.SendReport(snap, rows, final); err != nil {
			logger.Error("Failed to send Telegram report: %v", err)
		} else {
			logger.Info("Sent Telegram report for run %s", final.RunID)
		}
	}
}

// resolveSnapshot imports the -data file into the store when given,
// otherwise falls back to the most recent stored snapshot.
func resolveSnapshot(store *storage.Store) (*league.Snapshot, error) {
	if *dataPath == "" {
		return store.LoadLatest()
	}
	snap, err := dataset.Load(*dataPath)
	if err != nil {
		return nil, err
	}
	id, err := store.SaveSnapshot(snap)
	if err != nil {
		return nil, err
	}
	logger.Info("Imported snapshot %s from %s", id, *dataPath)
	return snap, nil
}

// runBatches runs the baseline batch and, when the snapshot carries form
// data, the with-form batch. Both use the same seeds, so any difference in
// the aggregates comes from the ratings alone.
func runBatches(ctx context.Context, cfg *config.Config, snap *league.Snapshot) (base, withForm *sim.Aggregate, err error) {
	makeRequest := func(useForm bool) sim.Request {
		req := sim.RequestFromSnapshot(snap, useForm)
		req.Trials = cfg.Simulation.Trials
		req.BaseSeed = cfg.Simulation.BaseSeed
		req.Workers = cfg.Simulation.Workers
		req.ParallelMinTrials = cfg.Simulation.ParallelMinTrials
		req.AllowPartial = cfg.Simulation.AllowPartial
		req.Params = cfg.Params()
		return req
	}

	logger.Info("Running baseline batch: %d trials, chaos %.2f, %d workers",
		cfg.Simulation.Trials, cfg.Simulation.ChaosFactor, cfg.Simulation.Workers)
	base, err = sim.Run(ctx, makeRequest(false))
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Baseline batch %s: %d trials in %v", base.RunID, base.Completed, base.Elapsed)

	if *baseline || len(snap.Form) == 0 {
		return base, nil, nil
	}

	logger.Info("Running with-form batch")
	withForm, err = sim.Run(ctx, makeRequest(true))
	if err != nil {
		return nil, nil, err
	}
	logger.Info("With-form batch %s: %d trials in %v", withForm.RunID, withForm.Completed, withForm.Elapsed)
	return base, withForm, nil
}
