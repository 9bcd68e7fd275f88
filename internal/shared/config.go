package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	EnvClientID    = "YOTOSHARE_CLIENT_ID"
	EnvRedirectURI = "YOTOSHARE_REDIRECT_URI"
	EnvAPIURL      = "YOTOSHARE_API_URL"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Yoto        YotoConfig        `toml:"yoto"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Credentials CredentialsConfig `toml:"credentials"`
	Card        CardConfig        `toml:"card"`
	HTTP        HTTPConfig        `toml:"http"`
}

// YotoConfig contains the OAuth client registration and API endpoints.
type YotoConfig struct {
	ClientID    string `toml:"client_id"`
	RedirectURI string `toml:"redirect_uri"`
	APIURL      string `toml:"api_url"`
	AuthURL     string `toml:"auth_url"`
	TokenURL    string `toml:"token_url"`
	Audience    string `toml:"audience"`
	Scope       string `toml:"scope"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the loopback callback server settings.
type ServerConfig struct {
	Host    string   `toml:"host"`
	Port    int      `toml:"port"`
	Timeout Duration `toml:"timeout"`
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Credential storage backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// CredentialsConfig selects where tokens and PKCE transaction state are persisted.
type CredentialsConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// CardConfig contains playlist card rendering defaults.
type CardConfig struct {
	Theme      string `toml:"theme"`
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	PixelRatio int    `toml:"pixel_ratio"`
	Signature  string `toml:"signature"`
	OutputDir  string `toml:"output_dir"`
}

// HTTPConfig contains outbound HTTP client settings.
type HTTPConfig struct {
	Timeout   Duration `toml:"timeout"`
	RateLimit float64  `toml:"rate_limit"`
}

// Duration is a [time.Duration] that decodes from TOML strings such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values and environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.ApplyEnv(os.LookupEnv)
	if err := config.Validate(); err != nil {
		return nil, err
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

// ApplyEnv overrides client registration values from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvClientID); ok && v != "" {
		c.Yoto.ClientID = v
	}
	if v, ok := lookup(EnvRedirectURI); ok && v != "" {
		c.Yoto.RedirectURI = v
	}
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		c.Yoto.APIURL = v
	}
}

// Validate reports the first missing or unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.Yoto.ClientID == "":
		return fmt.Errorf("%w: yoto.client_id", ErrMissingConfig)
	case c.Yoto.RedirectURI == "":
		return fmt.Errorf("%w: yoto.redirect_uri", ErrMissingConfig)
	case c.Yoto.AuthURL == "" || c.Yoto.TokenURL == "":
		return fmt.Errorf("%w: yoto.auth_url and yoto.token_url", ErrMissingConfig)
	case c.Yoto.APIURL == "":
		return fmt.Errorf("%w: yoto.api_url", ErrMissingConfig)
	}

	switch c.Credentials.Backend {
	case BackendSQLite, BackendMemory:
	case BackendFile:
		if c.Credentials.Path == "" {
			return fmt.Errorf("%w: credentials.path is required for the file backend", ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown credentials backend %q", ErrInvalidConfig, c.Credentials.Backend)
	}

	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("%w: http.rate_limit must not be negative", ErrInvalidConfig)
	}
	return nil
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

// SaveConfig encodes config as TOML and writes it to path, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
