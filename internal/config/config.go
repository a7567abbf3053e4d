package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider timeout bounds, seconds.
const (
	MinTimeoutSec     = 10
	MaxTimeoutSec     = 20
	DefaultTimeoutSec = 15
)

// Config holds the nearby service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Places   PlacesConfig   `yaml:"places"`
	Ranking  RankingConfig  `yaml:"ranking"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Events   EventsConfig   `yaml:"events"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// GeocoderConfig selects and configures the geocoding service.
type GeocoderConfig struct {
	Provider   string `yaml:"provider"` // photon (default), nominatim
	BaseURL    string `yaml:"base_url"`
	UserAgent  string `yaml:"user_agent"`
	Language   string `yaml:"language"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// PlacesConfig selects and configures the place search provider.
type PlacesConfig struct {
	Provider     string `yaml:"provider"` // foursquare (default), overpass, openplaces
	BaseURL      string `yaml:"base_url"`
	DataDir      string `yaml:"data_dir"` // openplaces: parquet file or directory
	APIKey       string `yaml:"api_key"`
	APIVersion   string `yaml:"api_version"`
	RadiusMeters int    `yaml:"radius_m"`
	TimeoutSec   int    `yaml:"timeout_sec"`
}

// RankingConfig holds filter settings.
type RankingConfig struct {
	Unrated string `yaml:"unrated"` // include (default), exclude
}

// ArchiveConfig holds export archive settings. Empty driver disables the archive.
type ArchiveConfig struct {
	Driver           string       `yaml:"driver"` // "", valkey, s3
	TTLSec           int          `yaml:"ttl_sec"`
	ReadinessTimeout int          `yaml:"readiness_timeout_sec"`
	Valkey           ValkeyConfig `yaml:"valkey"`
	S3               S3Config     `yaml:"s3"`
}

// ValkeyConfig holds Valkey/Redis connection settings.
type ValkeyConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
}

// S3Config holds S3-compatible object storage settings.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// EventsConfig holds Kafka settings. No brokers disables publishing.
type EventsConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Enabled reports whether search events are published.
func (e EventsConfig) Enabled() bool { return len(e.Brokers) > 0 }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first when present.
func Load(env string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in data and decodes, defaults and validates it.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
// List entries left empty by env expansion are dropped.
func (c *Config) ApplyDefaults() {
	c.Auth.APIKeys = compact(c.Auth.APIKeys)
	c.Archive.Valkey.Addrs = compact(c.Archive.Valkey.Addrs)
	c.Events.Brokers = compact(c.Events.Brokers)

	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// a search may spend a full provider timeout on each hop
		c.HTTP.WriteTimeoutSec = 2*MaxTimeoutSec + 5
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Geocoder.Provider == "" {
		c.Geocoder.Provider = "photon"
	}
	if c.Geocoder.TimeoutSec == 0 {
		c.Geocoder.TimeoutSec = DefaultTimeoutSec
	}
	if c.Places.Provider == "" {
		c.Places.Provider = "foursquare"
	}
	if c.Places.TimeoutSec == 0 {
		c.Places.TimeoutSec = DefaultTimeoutSec
	}
	if c.Ranking.Unrated == "" {
		c.Ranking.Unrated = "include"
	}
	if c.Archive.TTLSec <= 0 {
		c.Archive.TTLSec = 3600
	}
	if c.Archive.ReadinessTimeout <= 0 {
		c.Archive.ReadinessTimeout = 10
	}
	if c.Archive.S3.Bucket == "" {
		c.Archive.S3.Bucket = "nearby-exports"
	}
	if c.Events.Topic == "" {
		c.Events.Topic = "nearby.searches"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Geocoder.Provider {
	case "photon", "nominatim":
	default:
		return fmt.Errorf("geocoder.provider must be \"photon\" or \"nominatim\", got %q", c.Geocoder.Provider)
	}
	if err := validateTimeout("geocoder.timeout_sec", c.Geocoder.TimeoutSec); err != nil {
		return err
	}

	switch c.Places.Provider {
	case "foursquare":
		if c.Places.APIKey == "" {
			return fmt.Errorf("places.api_key is required for foursquare")
		}
	case "overpass":
	case "openplaces":
		if c.Places.DataDir == "" {
			return fmt.Errorf("places.data_dir is required for openplaces")
		}
	default:
		return fmt.Errorf("places.provider must be \"foursquare\", \"overpass\" or \"openplaces\", got %q", c.Places.Provider)
	}
	if c.Places.RadiusMeters < 0 {
		return fmt.Errorf("places.radius_m must not be negative, got %d", c.Places.RadiusMeters)
	}
	if err := validateTimeout("places.timeout_sec", c.Places.TimeoutSec); err != nil {
		return err
	}

	switch c.Ranking.Unrated {
	case "include", "exclude":
	default:
		return fmt.Errorf("ranking.unrated must be \"include\" or \"exclude\", got %q", c.Ranking.Unrated)
	}

	switch c.Archive.Driver {
	case "":
	case "valkey":
		if len(c.Archive.Valkey.Addrs) == 0 {
			return fmt.Errorf("archive.valkey.addrs is required")
		}
	case "s3":
		if c.Archive.S3.Endpoint == "" {
			return fmt.Errorf("archive.s3.endpoint is required")
		}
	default:
		return fmt.Errorf("archive.driver must be empty, \"valkey\" or \"s3\", got %q", c.Archive.Driver)
	}

	if c.Events.Enabled() && c.Events.Topic == "" {
		return fmt.Errorf("events.topic is required when brokers are set")
	}
	return nil
}

func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func validateTimeout(field string, sec int) error {
	if sec < MinTimeoutSec || sec > MaxTimeoutSec {
		return fmt.Errorf("%s must be between %d and %d, got %d", field, MinTimeoutSec, MaxTimeoutSec, sec)
	}
	return nil
}

// loadDotEnv exports variables from path without overriding ones already set.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
