package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"solarharvest/internal/config"
	"solarharvest/internal/fetchers"
	"solarharvest/internal/gec"
	"solarharvest/internal/harvester"
	"solarharvest/internal/logger"
	"solarharvest/internal/models"
	"solarharvest/internal/storage"
)

// App wires configuration, storage and the Helioviewer fetcher into a runner
type App struct {
	config  *config.Config
	storage storage.StorageClient
	runner  *harvester.Runner
	log     *logger.Logger
}

// NewApp creates the storage backend and the runner for cfg
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := storage.NewStorageClient(ctx, storage.StorageMode(cfg.StorageMode), cfg)
	if err != nil {
		return nil, err
	}

	fetcher := fetchers.NewHelioviewerFetcher(fetchers.HelioviewerOptions{
		BaseURL:           cfg.HelioviewerBaseURL,
		Scale:             cfg.ImageScale,
		LookupTimeout:     cfg.LookupTimeout,
		DownloadTimeout:   cfg.DownloadTimeout,
		RequestsPerSecond: cfg.RateLimit,
	})

	worker := harvester.NewWorker(fetcher, store, cfg.ValidateImages)

	return &App{
		config:  cfg,
		storage: store,
		runner:  harvester.NewRunner(worker, harvester.OptionsFromConfig(cfg)),
		log:     logger.Component("harvester"),
	}, nil
}

// Close releases the storage backend
func (a *App) Close() error {
	return a.storage.Close()
}

// LoadObservations reads the GEC table selected by the configuration
func (a *App) LoadObservations() ([]models.Observation, error) {
	start, end, err := a.config.DateRange()
	if err != nil {
		return nil, err
	}
	return gec.LoadFile(a.config.InputFile, gec.Filter{
		Hour:  a.config.ObservationHour,
		Start: start,
		End:   end,
	})
}

// Run loads the observations and harvests every task for them
func (a *App) Run(ctx context.Context) (*harvester.Summary, error) {
	observations, err := a.LoadObservations()
	if err != nil {
		return nil, fmt.Errorf("failed to load input: %w", err)
	}
	a.log.Info("Loaded observations", logger.Fields{
		"input":        a.config.InputFile,
		"observations": len(observations),
		"start":        a.config.StartDate,
		"end":          a.config.EndDate,
		"hour":         a.config.ObservationHour,
	})

	return a.runner.Run(ctx, observations)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx))
}

// run returns the process exit code
func run(ctx context.Context) int {
	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Error("Failed to load configuration", err)
		return 1
	}

	if err := logger.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		logger.Error("Invalid logging configuration", err)
		return 1
	}

	log := logger.Component("harvester")
	log.Info("Starting solar imagery harvester", logger.Fields{
		"version":     config.GetVersion(),
		"environment": cfg.Environment,
		"storage":     cfg.StorageMode,
		"workers":     cfg.Workers,
	})

	app, err := NewApp(ctx, cfg)
	if err != nil {
		log.Error("Failed to initialize harvester", err)
		return 1
	}
	defer app.Close()

	summary, err := app.Run(ctx)
	if err != nil {
		if summary == nil {
			log.Error("Harvest aborted", err)
			return 1
		}
		// Tasks already ran, only the manifest is missing
		log.Error("Failed to write failure manifest", err)
	}

	if summary.Interrupted {
		log.Warn("Harvest interrupted, re-run to resume", logger.Fields{
			"processed": summary.Processed,
			"total":     summary.Total,
		})
	}
	log.Info("Done", logger.Fields{
		"output":     app.storage.Location(),
		"downloaded": summary.Downloaded(),
		"failed":     len(summary.Failures),
	})
	return 0
}
