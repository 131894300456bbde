package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/adrg/xdg"
)

const (
	AppName = "sway-stashgrid"

	DefaultTitle   = "stashgrid"
	DefaultMatch   = "path of exile"
	DefaultRPCAddr = "localhost:7855"
)

var ErrInvalid = errors.New("invalid config")

// Config is the daemon configuration, read from
// $XDG_CONFIG_HOME/sway-stashgrid/config.toml and STASHGRID_* env vars.
type Config struct {
	Overlay  OverlayConfig  `mapstructure:"overlay" toml:"overlay"`
	Tracker  TrackerConfig  `mapstructure:"tracker" toml:"tracker"`
	Database DatabaseConfig `mapstructure:"database" toml:"database"`
	Logging  LoggingConfig  `mapstructure:"logging" toml:"logging"`
	RPC      RPCConfig      `mapstructure:"rpc" toml:"rpc"`
}

type OverlayConfig struct {
	// Title of the overlay window.
	Title string `mapstructure:"title" toml:"title"`
	// MarginY is subtracted from the top of the overlay (window decorations).
	MarginY float64 `mapstructure:"margin_y" toml:"margin_y"`
	// ScaleX and ScaleY are the output scale factors.
	ScaleX float64 `mapstructure:"scale_x" toml:"scale_x"`
	ScaleY float64 `mapstructure:"scale_y" toml:"scale_y"`
	// Autoconfig adds the for_window rules of the overlay to sway.
	Autoconfig bool `mapstructure:"autoconfig" toml:"autoconfig"`
}

type TrackerConfig struct {
	// Match is a case-insensitive part of the game's app ID, class or title.
	Match string `mapstructure:"match" toml:"match"`
}

type DatabaseConfig struct {
	// Path defaults to $XDG_DATA_HOME/sway-stashgrid/tabs.db
	Path string `mapstructure:"path" toml:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" toml:"level"`
	Format string `mapstructure:"format" toml:"format"`
}

type RPCConfig struct {
	Addr string `mapstructure:"addr" toml:"addr"`
}

func Default() *Config {
	return &Config{
		Overlay: OverlayConfig{
			Title:      DefaultTitle,
			ScaleX:     1,
			ScaleY:     1,
			Autoconfig: true,
		},
		Tracker: TrackerConfig{Match: DefaultMatch},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		RPC:     RPCConfig{Addr: DefaultRPCAddr},
	}
}

// DatabaseFile returns the configured database path, or the XDG default.
func (c *Config) DatabaseFile() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}
	path, err := xdg.DataFile(AppName + "/tabs.db")
	if err != nil {
		return "", fmt.Errorf("failed to determine database path: %w", err)
	}
	return path, nil
}

func normalize(c *Config) {
	c.Overlay.Title = strings.TrimSpace(c.Overlay.Title)
	c.Tracker.Match = strings.TrimSpace(c.Tracker.Match)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

// Validate returns an error wrapping ErrInvalid for every bad value.
func Validate(c *Config) error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Overlay.Title == "" {
		bad("overlay.title is empty")
	}
	if math.IsNaN(c.Overlay.MarginY) || math.IsInf(c.Overlay.MarginY, 0) {
		bad("overlay.margin_y must be a number")
	}
	if !(c.Overlay.ScaleX > 0) || math.IsInf(c.Overlay.ScaleX, 0) {
		bad("overlay.scale_x must be positive, got %v", c.Overlay.ScaleX)
	}
	if !(c.Overlay.ScaleY > 0) || math.IsInf(c.Overlay.ScaleY, 0) {
		bad("overlay.scale_y must be positive, got %v", c.Overlay.ScaleY)
	}
	if c.Tracker.Match == "" {
		bad("tracker.match is empty")
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		bad("logging.format must be console or json, got %q", c.Logging.Format)
	}
	if c.RPC.Addr == "" {
		bad("rpc.addr is empty")
	}

	return errors.Join(errs...)
}
