package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvAuthURL = "GOBANK_AUTH_URL"
	EnvBankURL = "GOBANK_BANK_URL"
	EnvTimeout = "GOBANK_TIMEOUT"
)

// ClientConfig holds configuration for the gobank client.
type ClientConfig struct {
	AuthURL     string        `yaml:"auth_url"`     // Authentication service base URL
	BankURL     string        `yaml:"bank_url"`     // Banking service base URL
	Timeout     time.Duration `yaml:"-"`            // Per-request timeout, 0 for none
	LogLevel    string        `yaml:"log_level"`    // debug, info, warn, error
	LogFormat   string        `yaml:"log_format"`   // text, json
	HistoryFile string        `yaml:"history_file"` // Shell history, "" disables it
}

// clientFile is the on-disk shape; the timeout is written as "10s".
type clientFile struct {
	ClientConfig `yaml:",inline"`
	Timeout      string `yaml:"timeout"`
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		AuthURL:     "http://localhost:8083",
		BankURL:     "http://localhost:8084",
		LogLevel:    "warn",
		LogFormat:   "text",
		HistoryFile: defaultHistoryFile(),
	}
}

// DefaultClientConfigPath is ~/.gobank/config.yaml.
func DefaultClientConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".gobank", "config.yaml")
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".gobank", "history")
}

// LoadClientConfig starts from the defaults, applies the YAML file at path
// if it exists, then the environment. An empty path skips the file.
func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := cfg.decode(data); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *ClientConfig) decode(data []byte) error {
	f := clientFile{ClientConfig: *c}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		f.ClientConfig.Timeout = d
	}
	*c = f.ClientConfig
	return nil
}

func (c *ClientConfig) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAuthURL); ok && v != "" {
		c.AuthURL = v
	}
	if v, ok := lookup(EnvBankURL); ok && v != "" {
		c.BankURL = v
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c ClientConfig) Validate() error {
	if c.AuthURL == "" || c.BankURL == "" {
		return errors.New("auth and bank URLs are required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// ServerConfig holds configuration for the gobank stub services.
type ServerConfig struct {
	AuthAddr  string        // Auth service listen address (default ":8083")
	BankAddr  string        // Banking service listen address (default ":8084")
	DBPath    string        // SQLite database path, ":memory:" for testing
	JWTSecret string        // HMAC key for bearer tokens
	TokenTTL  time.Duration // Lifetime of issued tokens
	MaxUsers  int           // Registrations allowed before MAX_ACCOUNT_LIMIT_REACHED, 0 = unlimited
	LogLevel  string        // Log level: debug, info, warn, error
	LogFormat string        // Log format: text, json
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		AuthAddr:  ":8083",
		BankAddr:  ":8084",
		DBPath:    ":memory:",
		JWTSecret: "gobank-dev-secret",
		TokenTTL:  time.Hour,
		MaxUsers:  1000,
		LogLevel:  "info",
		LogFormat: "text",
	}
}
