package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
	Panel   PanelConfig   `yaml:"panel" envconfig:"PANEL"`
	Fetch   FetchConfig   `yaml:"fetch" envconfig:"FETCH"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	// RateLimitRPS caps request throughput across all clients; zero
	// disables the limiter.
	RateLimitRPS   float64 `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" default:"100"`
	RateLimitBurst int     `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST" default:"50"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// PathsConfig contains file system path configuration. Relative paths
// resolve against the executable directory.
type PathsConfig struct {
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// PanelConfig is the configuration surface consumed by the panel pipeline:
// the rank threshold splitting individually modeled institutions from the
// tail aggregate, the earliest reporting year included, and the default rate
// column regressed against downstream.
type PanelConfig struct {
	RankThreshold int    `yaml:"rank_threshold" envconfig:"RANK_THRESHOLD" default:"200"`
	StartYear     int    `yaml:"start_year" envconfig:"START_YEAR" default:"1950"`
	RateColumn    string `yaml:"rate_column" envconfig:"RATE_COLUMN" default:"ff_t"`
}

// AnnualizeFields returns the YTD flow fields to annualize.
func (c PanelConfig) AnnualizeFields() []string {
	return append([]string(nil), AnnualizeFields...)
}

// NonAnnualizeFields returns the balance fields carried through unchanged.
func (c PanelConfig) NonAnnualizeFields() []string {
	return append([]string(nil), NonAnnualizeFields...)
}

// FetchConfig contains upstream API client configuration.
type FetchConfig struct {
	FDICBaseURL string        `yaml:"fdic_base_url" envconfig:"FDIC_BASE_URL" default:"https://banks.data.fdic.gov/api/financials"`
	FREDBaseURL string        `yaml:"fred_base_url" envconfig:"FRED_BASE_URL" default:"https://api.stlouisfed.org/fred/series/observations"`
	FREDAPIKey  string        `yaml:"fred_api_key" envconfig:"FRED_API_KEY"`
	BatchSize   int           `yaml:"batch_size" envconfig:"BATCH_SIZE" default:"100"`
	RPS         float64       `yaml:"rps" envconfig:"RPS" default:"5"`
	Burst       int           `yaml:"burst" envconfig:"BURST" default:"5"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"30s"`
}

// Load loads configuration from environment variables (DB_* prefix) with an
// optional YAML file underneath. Environment values win.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("DB", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := findConfigFile(); configFile != "" {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
		cfg = merge(*fileCfg, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// merge overlays env config on top of file config.
func merge(fileCfg, envCfg Config) Config {
	if envCfg.Server.Port == 0 {
		envCfg.Server.Port = fileCfg.Server.Port
	}
	if envCfg.Panel.RankThreshold == 0 {
		envCfg.Panel.RankThreshold = fileCfg.Panel.RankThreshold
	}
	if envCfg.Panel.StartYear == 0 {
		envCfg.Panel.StartYear = fileCfg.Panel.StartYear
	}
	if envCfg.Fetch.FREDAPIKey == "" {
		envCfg.Fetch.FREDAPIKey = fileCfg.Fetch.FREDAPIKey
	}
	return envCfg
}

// validate checks the loaded configuration.
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive, got %d", c.Server.RateLimitBurst)
	}
	if c.Panel.RankThreshold <= 0 {
		return fmt.Errorf("rank threshold must be positive, got %d", c.Panel.RankThreshold)
	}
	if c.Panel.StartYear < 1900 {
		return fmt.Errorf("start year %d predates FDIC reporting", c.Panel.StartYear)
	}
	found := false
	for _, f := range RateFields {
		if f == c.Panel.RateColumn {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown rate column %q", c.Panel.RateColumn)
	}
	if c.Fetch.BatchSize <= 0 {
		return fmt.Errorf("fetch batch size must be positive, got %d", c.Fetch.BatchSize)
	}
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}
	return nil
}

// findConfigFile returns the first config file found in the usual locations.
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimitRPS:    100,
			RateLimitBurst:  50,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir: "data",
			LogsDir: "logs",
		},
		Panel: PanelConfig{
			RankThreshold: DefaultRankThreshold,
			StartYear:     DefaultStartYear,
			RateColumn:    "ff_t",
		},
		Fetch: FetchConfig{
			FDICBaseURL: FDICFinancialsURL,
			FREDBaseURL: FREDObservationsURL,
			BatchSize:   DefaultFetchBatchSize,
			RPS:         DefaultFetchRPS,
			Burst:       DefaultFetchBurst,
			Timeout:     DefaultHTTPTimeout,
		},
	}
}
