package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	// File paths
	DBPath      string
	SourcesPath string
	SnapshotDir string

	// Server settings
	ServerHost string
	ServerPort int
	APIKey     string

	// Scraping settings
	ScrapeLimit int
	SaveToDB    bool
	Schedule    string

	// Log settings
	LogLevel zerolog.Level
}

// DefaultConfig returns an initial configuration with hardcoded defaults.
func DefaultConfig() *Config {
	logLevel, _ := zerolog.ParseLevel(DefaultLogLevel)

	return &Config{
		DBPath:      DefaultDBPath,
		SourcesPath: DefaultSourcesPath,
		SnapshotDir: DefaultSnapshotDir,
		ServerHost:  DefaultServerHost,
		ServerPort:  DefaultServerPort,
		APIKey:      GetEnvString("INGEST_API_KEY", ""),
		ScrapeLimit: DefaultScrapeLimit,
		SaveToDB:    true,
		Schedule:    DefaultSchedule,
		LogLevel:    logLevel,
	}
}

// ListenAddr returns the formatted listen address for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
