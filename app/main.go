package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bookwell/bookbridge/app/cfg"
	"github.com/bookwell/bookbridge/app/config"
	"github.com/bookwell/bookbridge/app/database"
	"github.com/bookwell/bookbridge/app/enrich"
	"github.com/bookwell/bookbridge/app/feed"
	"github.com/bookwell/bookbridge/app/pricing"
	"github.com/bookwell/bookbridge/app/retriever"
	"github.com/bookwell/bookbridge/app/retry"
	"github.com/bookwell/bookbridge/app/tasks"
	"github.com/bookwell/bookbridge/app/uploader"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogging(appCfg.Debug)
	slog.Info("Starting BookBridge catalog sync", "version", appCfg.Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	profiles, err := config.NewLoader(appCfg.ProfilesDir).LoadAll()
	if err != nil {
		slog.Error("Failed to load supplier profiles", "error", err)
		os.Exit(1)
	}
	if len(profiles) == 0 {
		slog.Error("No supplier profiles found, nothing to do", "dir", appCfg.ProfilesDir)
		os.Exit(1)
	}
	slog.Info("Loaded supplier profiles", "count", len(profiles))

	db, err := database.NewConnection(appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	repo := database.NewCatalogRepository(db, appCfg.CatalogTable)
	policy := retry.DefaultPolicy()

	enricher := enrich.NewClient(appCfg.APIBaseURL, appCfg.APIKey, appCfg.UserAgent, policy)
	merger := feed.NewMerger()
	writer := feed.NewWriter(appCfg.OutputDir)
	calculator := pricing.NewCalculator()
	dial := retriever.DialFTPS(appCfg.FTPHost, appCfg.FTPPort, appCfg.FTPUser, appCfg.FTPPassword)

	runner := tasks.NewRunner()
	for _, profile := range profiles {
		ret := retriever.NewRetriever(dial, appCfg.StagingDir)
		up := uploader.NewUploader(repo, policy, profile.Settings.UpsertBatchSize, appCfg.OutputDir)
		runner.Add(tasks.NewSyncCatalogTask(profile, ret, enricher, merger, writer, calculator, up))
	}

	if err := runner.Run(ctx); err != nil {
		slog.Error("Catalog sync finished with failures", "error", err)
		os.Exit(1)
	}

	slog.Info("Catalog sync completed")
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
