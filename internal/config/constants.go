package config

// Constants defining default values for application configuration
const (
	DefaultDBPath      = "./thinkink.db"
	DefaultSourcesPath = "./sources.yaml"
	DefaultSnapshotDir = "./data"

	DefaultServerPort = 8080
	DefaultServerHost = "" // Empty string means all interfaces

	DefaultScrapeLimit = 15
	MaxScrapeLimit     = 50
	MaxCustomURLs      = 10

	// Midnight UTC on the 1st, 7th, 13th, 19th, 25th and 31st
	DefaultSchedule = "0 0 */6 * *"

	DefaultLogLevel = "debug"
)
