package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mdexplorer/internal/explorer"
	"github.com/starford/mdexplorer/internal/storage"
)

// Default values used when neither the config file nor the command line set them.
const (
	DefaultHost          = "127.0.0.1"
	DefaultPort          = 3939
	DefaultUIPath        = "ui.html"
	DefaultWatchThrottle = 2 * time.Second
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Explorer ExplorerConfig    `yaml:"explorer"`
	Search   SearchConfig      `yaml:"search"`
	Watch    WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Explorer.Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	return c.Watch.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ExplorerConfig describes the served directory.
type ExplorerConfig struct {
	Root         string `yaml:"root"`
	UIPath       string `yaml:"ui_path"`
	MaxFileBytes int64  `yaml:"max_file_bytes"`
}

// Validate validates the explorer configuration.
func (c *ExplorerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.MaxFileBytes, validation.Min(int64(0))),
	)
}

// SearchConfig holds search limits.
type SearchConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	if c.Timeout < 0 {
		return errors.New("search: timeout must not be negative")
	}
	return nil
}

// WatchConfig controls live change notifications.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Throttle time.Duration `yaml:"throttle"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	if c.Throttle < 0 {
		return fmt.Errorf("watch: throttle must not be negative, got %s", c.Throttle)
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
// The root defaults to the user's home directory.
func NewDefaultConfig() *Config {
	root, err := os.UserHomeDir()
	if err != nil {
		root = "."
	}
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Host: DefaultHost,
				Port: DefaultPort,
			},
		},
		Explorer: ExplorerConfig{
			Root:         root,
			UIPath:       DefaultUIPath,
			MaxFileBytes: storage.DefaultMaxFileBytes,
		},
		Search: SearchConfig{
			Timeout: explorer.DefaultSearchTimeout,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Throttle: DefaultWatchThrottle,
		},
	}
}
