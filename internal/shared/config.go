package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Policy   PolicyConfig   `toml:"policy"`
	Proxy    ProxyConfig    `toml:"proxy"`
	Database DatabaseConfig `toml:"database"`
	Output   OutputConfig   `toml:"output"`
}

// PolicyConfig holds the matching and cleanup policy options.
//
// Threshold overrides the duplicate acceptance bar when > 0; zero means
// the mode's default applies.
type PolicyConfig struct {
	Mode               string  `toml:"mode"`
	PreferExplicit     bool    `toml:"prefer_explicit"`
	ReplaceInPlaylists bool    `toml:"replace_in_playlists"`
	UnlikeLosers       bool    `toml:"unlike_losers"`
	DryRun             bool    `toml:"dry_run"`
	Threshold          float64 `toml:"threshold"`
}

// ProxyConfig contains settings for the catalog mutation proxy.
type ProxyConfig struct {
	BaseURL     string  `toml:"base_url"`
	Token       string  `toml:"token"`
	RateLimit   float64 `toml:"rate_limit"`
	MaxRetries  int     `toml:"max_retries"`
	TimeoutSecs int     `toml:"timeout_secs"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// OutputConfig controls where reports, plans, and undo logs land.
type OutputConfig struct {
	Dir          string `toml:"dir"`
	ReportFormat string `toml:"report_format"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
