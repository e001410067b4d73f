package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Owner       string            `toml:"owner"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Playlists   PlaylistsConfig   `toml:"playlists"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// PlaylistsConfig describes the managed playlist roster: retention window,
// genre split list, and per-kind naming settings.
type PlaylistsConfig struct {
	RetentionMonths     int               `toml:"retention_months"`
	SplitGenres         []string          `toml:"split_genres"`
	SplitTemplate       string            `toml:"split_template"`
	SplitYearlyTemplate string            `toml:"split_yearly_template"`
	DescriptionTemplate string            `toml:"description_template"`
	Finds               KindConfig        `toml:"finds"`
	Top                 KindConfig        `toml:"top"`
	Discovery           KindConfig        `toml:"discovery"`
	GenreMaster         GenreMasterConfig `toml:"genre_master"`
}

// KindConfig contains naming settings for one monthly/yearly playlist kind.
type KindConfig struct {
	Enabled         bool   `toml:"enabled"`
	Prefix          string `toml:"prefix"`
	MonthlyTemplate string `toml:"monthly_template"`
	YearlyTemplate  string `toml:"yearly_template"`
}

// GenreMasterConfig contains naming settings for the all-time genre playlists.
type GenreMasterConfig struct {
	Prefix   string `toml:"prefix"`
	Template string `toml:"template"`
}

// Validate checks invariants that must hold before any remote mutation is attempted.
func (c *Config) Validate() error {
	if c.Owner == "" {
		return fmt.Errorf("%w: owner name is required", ErrInvalidConfig)
	}
	if c.Playlists.RetentionMonths < 1 {
		return fmt.Errorf("%w: retention_months must be >= 1, got %d", ErrInvalidConfig, c.Playlists.RetentionMonths)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Spotify credentials may be overridden by SPOTIFY_ID / SPOTIFY_SECRET
// environment variables, loaded from a .env file when one is present.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnvOverrides()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnvOverrides()
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

// applyEnvOverrides layers environment variables (and a .env file, if one
// exists in the working directory) over file-based credentials.
func (c *Config) applyEnvOverrides() {
	_ = godotenv.Load()

	if v := os.Getenv("SPOTIFY_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("PLAYLIST_OWNER_NAME"); v != "" {
		c.Owner = v
	}
}
