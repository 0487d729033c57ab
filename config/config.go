package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"tubeseed/common"
)

type Config struct {
	RankingPath  string
	LivePath     string
	DefaultsPath string
	OutputPath   string
	DatabasePath string
	RecordRuns   bool
	AdminSecret  string
	Port         string
	LogLevel     string
	Timezone     string
}

// Load reads an optional env file, then the process environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return &Config{
		RankingPath:  getEnv("TUBESEED_RANKING_CSV", "TubeTrend_Ranking.csv"),
		LivePath:     getEnv("TUBESEED_LIVE_CSV", "TubeTrend_LiveCandidates.csv"),
		DefaultsPath: getEnv("TUBESEED_DEFAULTS_CSV", "TubeTrend.csv"),
		OutputPath:   getEnv("TUBESEED_OUTPUT_JS", "src/default_channels.js"),
		DatabasePath: getEnv("TUBESEED_DB_PATH", "tubeseed.db"),
		RecordRuns:   getBool("TUBESEED_RECORD_RUNS", false),
		AdminSecret:  os.Getenv("TUBESEED_ADMIN_SECRET"),
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Timezone:     getEnv("TUBESEED_TZ", "Asia/Seoul"),
	}, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs common.ValidationErrors
	errs.Add(common.ValidateRequired("output_path", c.OutputPath))
	errs.Add(common.ValidateRequired("database_path", c.DatabasePath))
	errs.Add(common.ValidatePort("port", c.Port))
	errs.Add(common.ValidateEnum("log_level", c.LogLevel, common.LogLevels))
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, common.ValidationError{Field: "timezone", Message: err.Error()})
	}
	return errs.Err()
}

// Location returns the configured time zone, UTC if it cannot be loaded
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
