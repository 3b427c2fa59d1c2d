package storage

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	ProfilePath  string             `yaml:"profile_path"`
	SnapshotPath string             `yaml:"snapshot_path"`
	Spaces       SpacesConfig       `yaml:"spaces"`
	Search       SearchConfig       `yaml:"search"`
	Autocomplete AutocompleteConfig `yaml:"autocomplete"`
	Engine       EngineConfig       `yaml:"engine"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Log          LogConfig          `yaml:"log"`
	OpenExternal bool               `yaml:"open_external"`
}

// SpacesConfig locates the bookmark folder whose subfolders are collections.
type SpacesConfig struct {
	RootTitle string `yaml:"root_title"`
	RootID    string `yaml:"root_id"` // optional; skips the title search when set
}

// SearchConfig configures web searches.
type SearchConfig struct {
	EngineURL string `yaml:"engine_url"` // %s is replaced by the escaped query
}

// AutocompleteConfig configures the remote suggestion source.
type AutocompleteConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Endpoint      string        `yaml:"endpoint"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
}

// EngineConfig tunes ranking.
type EngineConfig struct {
	MaxResults     int     `yaml:"max_results"`
	MinQueryLength int     `yaml:"min_query_length"`
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`
}

// SchedulerConfig tunes debouncing and the query cache.
type SchedulerConfig struct {
	Debounce  time.Duration `yaml:"debounce"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
	CacheSize int           `yaml:"cache_size"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Spaces: SpacesConfig{
			RootTitle: "Spaces",
		},
		Search: SearchConfig{
			EngineURL: "https://www.google.com/search?q=%s",
		},
		Autocomplete: AutocompleteConfig{
			Enabled:       true,
			Endpoint:      "https://suggestqueries.google.com/complete/search?client=firefox&q=%s",
			Timeout:       3 * time.Second,
			RatePerSecond: 5,
		},
		Engine: EngineConfig{
			MaxResults:     8,
			MinQueryLength: 2,
			FuzzyThreshold: 0.4,
		},
		Scheduler: SchedulerConfig{
			Debounce:  150 * time.Millisecond,
			CacheTTL:  30 * time.Second,
			CacheSize: 128,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads config from the YAML file.
// Creates the file with defaults if it doesn't exist.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			config := DefaultConfig()
			// Non-fatal: return defaults even if save fails
			_ = SaveConfig(path, &config)
			return &config, nil
		}
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()
	return &config, nil
}

// applyDefaults fills fields missing from the file.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Spaces.RootTitle == "" {
		c.Spaces.RootTitle = defaults.Spaces.RootTitle
	}
	if c.Search.EngineURL == "" {
		c.Search.EngineURL = defaults.Search.EngineURL
	}
	if c.Autocomplete.Endpoint == "" {
		c.Autocomplete.Endpoint = defaults.Autocomplete.Endpoint
	}
	if c.Autocomplete.Timeout <= 0 {
		c.Autocomplete.Timeout = defaults.Autocomplete.Timeout
	}
	if c.Autocomplete.RatePerSecond <= 0 {
		c.Autocomplete.RatePerSecond = defaults.Autocomplete.RatePerSecond
	}
	if c.Engine.MaxResults <= 0 {
		c.Engine.MaxResults = defaults.Engine.MaxResults
	}
	if c.Engine.MinQueryLength <= 0 {
		c.Engine.MinQueryLength = defaults.Engine.MinQueryLength
	}
	if c.Engine.FuzzyThreshold <= 0 {
		c.Engine.FuzzyThreshold = defaults.Engine.FuzzyThreshold
	}
	if c.Scheduler.Debounce <= 0 {
		c.Scheduler.Debounce = defaults.Scheduler.Debounce
	}
	if c.Scheduler.CacheTTL <= 0 {
		c.Scheduler.CacheTTL = defaults.Scheduler.CacheTTL
	}
	if c.Scheduler.CacheSize <= 0 {
		c.Scheduler.CacheSize = defaults.Scheduler.CacheSize
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// SaveConfig writes config to the YAML file.
// Creates the directory if it doesn't exist.
func SaveConfig(path string, config *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfigDir returns ~/.config/spotlight.
func DefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "spotlight"), nil
}

// DefaultConfigFilePath returns the default config path: ~/.config/spotlight/config.yaml
func DefaultConfigFilePath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ResolvePaths fills ProfilePath and SnapshotPath relative to dir when unset.
func (c *Config) ResolvePaths(dir string) {
	if c.ProfilePath == "" {
		c.ProfilePath = filepath.Join(dir, "profile.db")
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = filepath.Join(dir, "spaces.json")
	}
}
