package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Sync        SyncConfig        `toml:"sync"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Lastfm  LastfmConfig  `toml:"lastfm"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
}

// Map converts Spotify credentials to the map form the service constructor
// takes. Token fields are included only when set.
func (s *SpotifyConfig) Map() map[string]string {
	creds := map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
	if s.AccessToken != "" {
		creds["access_token"] = s.AccessToken
	}
	if s.RefreshToken != "" {
		creds["refresh_token"] = s.RefreshToken
	}
	return creds
}

// Update stores tokens from a completed OAuth flow. The refresh token is kept
// when the new token omits one.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: no access token", ErrInvalidCredentials)
	}
	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	return nil
}

// LastfmConfig contains Last.fm API credentials.
type LastfmConfig struct {
	APIKey       string `toml:"api_key"`
	SharedSecret string `toml:"shared_secret"`
	Username     string `toml:"username"`
}

// Map converts Last.fm credentials to the map form the service constructor
// takes.
func (l *LastfmConfig) Map() map[string]string {
	return map[string]string{
		"api_key":       l.APIKey,
		"shared_secret": l.SharedSecret,
		"username":      l.Username,
	}
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// SyncConfig contains defaults for sync operations.
type SyncConfig struct {
	HistoryDays int `toml:"history_days"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Credentials left blank in the file fall back to environment variables
// (SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET, LASTFM_API_KEY,
// LASTFM_SHARED_SECRET, LASTFM_USERNAME), sourced from a .env file when one
// exists in the working directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
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

// SaveConfig writes the configuration back to path as TOML.
func SaveConfig(path string, config *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// applyEnv fills blank credential fields from the environment. A .env file in
// the working directory is loaded first when present; existing process
// environment always wins.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}

	fill(&c.Credentials.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	fill(&c.Credentials.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	fill(&c.Credentials.Spotify.RedirectURI, "SPOTIFY_REDIRECT_URI")
	fill(&c.Credentials.Lastfm.APIKey, "LASTFM_API_KEY")
	fill(&c.Credentials.Lastfm.SharedSecret, "LASTFM_SHARED_SECRET")
	fill(&c.Credentials.Lastfm.Username, "LASTFM_USERNAME")
}
