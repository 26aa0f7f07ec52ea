package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	BackendDataAPI = "data_api"
	BackendProxy   = "proxy"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Convert     ConvertConfig     `toml:"convert"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// SpotifyConfig contains Spotify client-credentials settings.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	ClientCreds  string `toml:"client_creds"` // pre-encoded base64(client_id:client_secret)
	TokenURL     string `toml:"token_url"`
	APIURL       string `toml:"api_url"`
}

// YouTubeConfig contains video search settings.
type YouTubeConfig struct {
	Backend     string `toml:"backend"`
	APIKey      string `toml:"api_key"`
	APIURL      string `toml:"api_url"`
	ProxyURL    string `toml:"proxy_url"`
	HeadersPath string `toml:"headers_path"` // browser auth file forwarded to the proxy
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ConvertConfig contains spreadsheet conversion settings.
type ConvertConfig struct {
	Output         string  `toml:"output"`
	Column         string  `toml:"column"`
	RateLimit      float64 `toml:"rate_limit"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Cache          bool    `toml:"cache"`
}

// Timeout returns the HTTP timeout for upstream calls.
func (c ConvertConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep their defaults from the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
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
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnv loads envFile (if present) into the process environment and overlays credential variables onto the config.
//
// Variables already set in the environment win over the file.
func LoadEnv(config *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	ApplyEnv(config)
	return nil
}

// ApplyEnv overlays non-empty credential environment variables onto the config.
func ApplyEnv(config *Config) {
	overlay := map[string]*string{
		"SPOTIFY_CLIENT_ID":     &config.Credentials.Spotify.ClientID,
		"SPOTIFY_CLIENT_SECRET": &config.Credentials.Spotify.ClientSecret,
		"SPOTIFY_CLIENT_CREDS":  &config.Credentials.Spotify.ClientCreds,
		"YOUTUBE_API_KEY":       &config.Credentials.YouTube.APIKey,
	}
	for key, field := range overlay {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}
}

// ValidateSpotify reports whether enough Spotify credentials are present to request a token.
func (c *Config) ValidateSpotify() error {
	s := c.Credentials.Spotify
	if s.ClientCreds != "" {
		return nil
	}
	if s.ClientID == "" || s.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret (or client_creds) are required", ErrMissingCredentials)
	}
	return nil
}

// ValidateYouTube reports whether the configured search backend can be used.
func (c *Config) ValidateYouTube() error {
	y := c.Credentials.YouTube
	switch y.Backend {
	case "", BackendDataAPI:
		if y.APIKey == "" {
			return fmt.Errorf("%w: youtube api_key is required", ErrMissingCredentials)
		}
	case BackendProxy:
		if y.ProxyURL == "" {
			return fmt.Errorf("%w: youtube proxy_url is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown youtube backend %q", ErrInvalidConfig, y.Backend)
	}
	return nil
}

// Validate checks every credential needed for a full conversion.
func (c *Config) Validate() error {
	return errors.Join(c.ValidateSpotify(), c.ValidateYouTube())
}
