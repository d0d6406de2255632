package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const defaultTimeout = 5 * time.Minute

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend  BackendConfig  `toml:"backend"`
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Download DownloadConfig `toml:"download"`
	Log      LogConfig      `toml:"log"`
	UI       UIConfig       `toml:"ui"`
}

// BackendConfig locates the external search/packaging service and, optionally,
// the OAuth2 client credentials used to reach it.
type BackendConfig struct {
	URL          string   `toml:"url"`
	SearchPath   string   `toml:"search_path"`
	DownloadPath string   `toml:"download_path"`
	Timeout      string   `toml:"timeout"`
	Provider     string   `toml:"provider"`
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	TokenURL     string   `toml:"token_url"`
	Scopes       []string `toml:"scopes"`
}

// ServerConfig contains HTTP relay server settings.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	RateLimit      float64  `toml:"rate_limit"`
	Burst          int      `toml:"burst"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// DownloadConfig contains settings for saving archives.
type DownloadConfig struct {
	OutputDir string `toml:"output_dir"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	Locale string `toml:"locale"`
}

// Addr returns the listen address for the relay server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TimeoutDuration parses [BackendConfig.Timeout], falling back to five minutes when unset or malformed.
//
// Packaging a playlist can take minutes, so the default is generous.
func (b BackendConfig) TimeoutDuration() time.Duration {
	if b.Timeout == "" {
		return defaultTimeout
	}
	d, err := time.ParseDuration(b.Timeout)
	if err != nil || d <= 0 {
		return defaultTimeout
	}
	return d
}

// UsesClientCredentials reports whether OAuth2 client credentials are configured.
func (b BackendConfig) UsesClientCredentials() bool {
	return b.ClientID != "" && b.ClientSecret != "" && b.TokenURL != ""
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
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
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration and reports every problem found at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Backend.URL == "" {
		problems = append(problems, "backend.url cannot be empty")
	} else if u, err := url.Parse(c.Backend.URL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("backend.url is not a valid URL: %s", c.Backend.URL))
	}

	if c.Backend.Timeout != "" {
		if _, err := time.ParseDuration(c.Backend.Timeout); err != nil {
			problems = append(problems, fmt.Sprintf("backend.timeout is not a duration: %s", c.Backend.Timeout))
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port must be between 1 and 65535, got: %d", c.Server.Port))
	}

	if c.Server.RateLimit < 0 {
		problems = append(problems, "server.rate_limit cannot be negative")
	}

	if _, ok := catalogs[c.UI.Locale]; c.UI.Locale != "" && !ok {
		problems = append(problems, fmt.Sprintf("ui.locale must be one of: en, pt-BR, got: %s", c.UI.Locale))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(problems, "\n  - "))
	}

	return nil
}
