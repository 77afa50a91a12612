package config

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. Every component receives
// the fields it needs explicitly; nothing is read from the environment
// past Load.
type Config struct {
	DataDir       string
	BackupDir     string
	DBName        string
	FeedPath      string
	Keyword       string
	NVDBaseURL    string
	VersionIndex  string
	LookupTimeout time.Duration
	Addr          string
	Update        bool
	MockMode      bool
	MockPosts     int
	Debug         bool
}

// Load reads a .env file when present, then environment variables, then
// command line flags. Flags take precedence over environment variables.
func Load() *Config {
	// Credentials and overrides may live in a .env next to the binary;
	// a missing file is fine.
	godotenv.Load()

	cfg := &Config{}

	dataRoot := getEnv("CRAWLER_DATA_ROOT", defaultDataRoot())
	cfg.DataDir = getEnv("CRAWLER_DATA_DIR", filepath.Join(dataRoot, "data"))
	cfg.BackupDir = getEnv("CRAWLER_BACKUP_DIR", filepath.Join(dataRoot, "backup"))
	cfg.DBName = getEnv("CRAWLER_DB_NAME", "Data.db")
	cfg.FeedPath = getEnv("CRAWLER_FEED", "")
	cfg.Keyword = getEnv("CRAWLER_KEYWORD", "CVE-")
	cfg.NVDBaseURL = getEnv("CRAWLER_NVD_URL", "")
	cfg.VersionIndex = getEnv("CRAWLER_VERSION_INDEX", "")
	cfg.LookupTimeout = getEnvDuration("CRAWLER_LOOKUP_TIMEOUT", 15*time.Second)
	cfg.Addr = getEnv("CRAWLER_ADDR", ":8080")
	cfg.MockMode = getEnvBool("CRAWLER_MOCK", false)

	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory holding the database file")
	flag.StringVar(&cfg.BackupDir, "backup-dir", cfg.BackupDir, "Sibling backup directory used by rollback")
	flag.StringVar(&cfg.FeedPath, "feed", cfg.FeedPath, "Path to a JSONL feed file (one raw tweet per line)")
	flag.StringVar(&cfg.Keyword, "keyword", cfg.Keyword, "Search keyword associated with persisted posts")
	flag.StringVar(&cfg.NVDBaseURL, "nvd-url", cfg.NVDBaseURL, "Override the NVD API base URL")
	flag.StringVar(&cfg.VersionIndex, "version-index", cfg.VersionIndex, "Override the release index URL for the update check")
	flag.DurationVar(&cfg.LookupTimeout, "lookup-timeout", cfg.LookupTimeout, "Per-lookup timeout for enrichment requests")
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Ops HTTP server address")
	flag.BoolVar(&cfg.Update, "u", false, "Update the database to the latest (run the crawl)")
	flag.BoolVar(&cfg.Update, "update", false, "Update the database to the latest (run the crawl)")
	flag.BoolVar(&cfg.MockMode, "mock", cfg.MockMode, "Run against a generated mock feed")
	flag.IntVar(&cfg.MockPosts, "mock-posts", 100, "Number of posts the mock feed yields")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")

	flag.Parse()

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// defaultDataRoot places the data tree under the user's home directory,
// falling back to the working directory when home is unavailable.
func defaultDataRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Data"
	}
	return filepath.Join(home, ".twitter-crawler")
}
