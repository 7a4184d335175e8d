package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"thinkink/ingest/internal/config"
	"thinkink/ingest/internal/database"
	"thinkink/ingest/internal/run"
	"thinkink/ingest/internal/scheduler"
	"thinkink/ingest/internal/scraper"
	"thinkink/ingest/internal/server"
	"thinkink/ingest/internal/snapshot"
	"thinkink/ingest/internal/sources"
	"thinkink/ingest/internal/storage"
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"})
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

func main() {
	cfg := config.DefaultConfig()

	scrapeCmd := flag.NewFlagSet("scrape", flag.ExitOnError)
	addCommonFlags(scrapeCmd, cfg)
	scrapeCmd.IntVar(&cfg.ScrapeLimit, "limit", config.GetEnvInt("INGEST_LIMIT", config.DefaultScrapeLimit),
		"Maximum number of posts to fully fetch (env: INGEST_LIMIT)")
	scrapeCmd.BoolVar(&cfg.SaveToDB, "save", config.GetEnvBool("INGEST_SAVE_TO_DB", true),
		"Persist scraped posts to the database (env: INGEST_SAVE_TO_DB)")
	var sourceNames string
	scrapeCmd.StringVar(&sourceNames, "sources", "",
		"Comma-separated source names to restrict the run to (default: all)")
	scrapeLogLevel := addLogLevelFlag(scrapeCmd)

	runCmd := flag.NewFlagSet("run", flag.ExitOnError)
	addCommonFlags(runCmd, cfg)
	runCmd.StringVar(&cfg.Schedule, "schedule", config.GetEnvString("INGEST_SCHEDULE", config.DefaultSchedule),
		"Cron expression for scheduled scraping runs (env: INGEST_SCHEDULE)")
	runCmd.IntVar(&cfg.ScrapeLimit, "limit", config.GetEnvInt("INGEST_LIMIT", config.DefaultScrapeLimit),
		"Maximum number of posts to fully fetch per run (env: INGEST_LIMIT)")
	runCmd.BoolVar(&cfg.SaveToDB, "save", config.GetEnvBool("INGEST_SAVE_TO_DB", true),
		"Persist scraped posts to the database (env: INGEST_SAVE_TO_DB)")
	runLogLevel := addLogLevelFlag(runCmd)

	serverCmd := flag.NewFlagSet("server", flag.ExitOnError)
	addCommonFlags(serverCmd, cfg)
	serverCmd.StringVar(&cfg.ServerHost, "host", config.GetEnvString("INGEST_HOST", config.DefaultServerHost),
		"Host to bind the server to (env: INGEST_HOST)")
	serverCmd.IntVar(&cfg.ServerPort, "port", config.GetEnvInt("INGEST_PORT", config.DefaultServerPort),
		"Port to listen on (env: INGEST_PORT)")
	serverLogLevel := addLogLevelFlag(serverCmd)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "scrape":
		scrapeCmd.Parse(os.Args[2:])
		applyLogLevel(cfg, *scrapeLogLevel)

		var names []string
		if sourceNames != "" {
			names = strings.Split(sourceNames, ",")
		}
		if err := runScrape(cfg, names); err != nil {
			log.Error().Err(err).Msg("Scrape failed")
			os.Exit(1)
		}

	case "run":
		runCmd.Parse(os.Args[2:])
		applyLogLevel(cfg, *runLogLevel)

		if err := runScheduled(cfg); err != nil {
			log.Error().Err(err).Msg("Scheduler failed")
			os.Exit(1)
		}

	case "server":
		serverCmd.Parse(os.Args[2:])
		applyLogLevel(cfg, *serverLogLevel)

		if err := runServer(cfg); err != nil {
			log.Error().Err(err).Msg("Server failed")
			os.Exit(1)
		}

	case "-h", "--help", "help":
		printUsage()
		os.Exit(0)

	default:
		log.Error().Str("command", os.Args[1]).Msg("Unknown command")
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: ingest [command] [options]")
	fmt.Println("Commands: scrape, run, server")
	fmt.Println("\nFor command-specific options, use: ingest [command] -h")
}

func addCommonFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.DBPath, "db", config.GetEnvString("INGEST_DB_PATH", config.DefaultDBPath),
		"Path to the SQLite database file (env: INGEST_DB_PATH)")
	fs.StringVar(&cfg.SourcesPath, "sources-file", config.GetEnvString("INGEST_SOURCES_PATH", config.DefaultSourcesPath),
		"Path to the sources YAML file; built-in defaults are used if absent (env: INGEST_SOURCES_PATH)")
	fs.StringVar(&cfg.SnapshotDir, "snapshot-dir", config.GetEnvString("INGEST_SNAPSHOT_DIR", config.DefaultSnapshotDir),
		"Directory for run snapshot files (env: INGEST_SNAPSHOT_DIR)")
}

func addLogLevelFlag(fs *flag.FlagSet) *string {
	var levelStr string
	fs.StringVar(&levelStr, "log-level", config.GetEnvString("INGEST_LOG_LEVEL", config.DefaultLogLevel),
		"Log level: debug, info, warn, error (env: INGEST_LOG_LEVEL)")
	return &levelStr
}

func applyLogLevel(cfg *config.Config, levelStr string) {
	if level, err := zerolog.ParseLevel(levelStr); err == nil {
		cfg.LogLevel = level
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)
}

// buildRunner assembles the pipeline. The returned database handle is nil when
// withDB is false; the caller owns closing it.
func buildRunner(cfg *config.Config, withDB bool) (*run.Runner, *storage.Store, *database.DB, error) {
	registry, err := sources.Load(cfg.SourcesPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load sources: %w", err)
	}
	log.Info().Int("sources", registry.Len()).Msg("Source registry loaded")

	sc := scraper.New(scraper.Options{})
	snapshots := snapshot.NewStore(cfg.SnapshotDir)

	var db *database.DB
	var store *storage.Store
	if withDB {
		db, err = database.NewDB(database.NewConfig(cfg.DBPath))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		store = storage.NewStore(db)
	}

	var postStore run.PostStore
	if store != nil {
		postStore = store
	}
	return run.NewRunner(registry, sc, snapshots, postStore), store, db, nil
}

// runScrape executes a single one-shot scraping run from the CLI.
func runScrape(cfg *config.Config, sourceNames []string) error {
	runner, _, db, err := buildRunner(cfg, cfg.SaveToDB)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := runner.Run(ctx, run.Params{
		Limit:    cfg.ScrapeLimit,
		Sources:  sourceNames,
		SaveToDB: cfg.SaveToDB,
	})
	if err != nil {
		return err
	}

	log.Info().
		Int("total", result.Summary.Total).
		Int("successful", result.Summary.Successful).
		Int("failed", result.Summary.Failed).
		Int("avg_words", result.Summary.AvgWords).
		Strs("sources", result.Summary.Sources).
		Msg("Scrape complete")
	if result.Persistence != nil {
		log.Info().
			Int("saved", result.Persistence.Saved).
			Int("skipped", result.Persistence.Skipped).
			Int("errors", len(result.Persistence.Errors)).
			Msg("Persistence outcome")
	}
	return nil
}

// runScheduled starts the cron scheduler and blocks until a shutdown signal.
func runScheduled(cfg *config.Config) error {
	runner, _, db, err := buildRunner(cfg, cfg.SaveToDB)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	sched, err := scheduler.New(cfg.Schedule, runner, run.Params{
		Limit:    cfg.ScrapeLimit,
		SaveToDB: cfg.SaveToDB,
	})
	if err != nil {
		return err
	}

	sched.Start()
	log.Info().Str("schedule", cfg.Schedule).Msg("Waiting for scheduled runs")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdown
	log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

	sched.Stop()
	return nil
}

// runServer starts the HTTP API server with the provided configuration.
func runServer(cfg *config.Config) error {
	runner, store, db, err := buildRunner(cfg, true)
	if err != nil {
		return err
	}
	defer db.Close()

	return server.RunServer(runner, store, cfg.ListenAddr(), log.Logger, cfg.APIKey)
}
