package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// Manager loads and reloads the configuration.
type Manager struct {
	viper     *viper.Viper
	path      string
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a manager for the config file at path. An empty path
// means the XDG config location.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		var err error
		path, err = xdg.ConfigFile(AppName + "/config.toml")
		if err != nil {
			return nil, fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetEnvPrefix("STASHGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("logging.level", "STASHGRID_LOG_LEVEL"); err != nil {
		return nil, fmt.Errorf("failed to bind STASHGRID_LOG_LEVEL: %w", err)
	}

	m := &Manager{viper: v, path: path}
	m.setDefaults()

	return m, nil
}

func (m *Manager) setDefaults() {
	d := Default()
	m.viper.SetDefault("overlay.title", d.Overlay.Title)
	m.viper.SetDefault("overlay.margin_y", d.Overlay.MarginY)
	m.viper.SetDefault("overlay.scale_x", d.Overlay.ScaleX)
	m.viper.SetDefault("overlay.scale_y", d.Overlay.ScaleY)
	m.viper.SetDefault("overlay.autoconfig", d.Overlay.Autoconfig)
	m.viper.SetDefault("tracker.match", d.Tracker.Match)
	m.viper.SetDefault("database.path", d.Database.Path)
	m.viper.SetDefault("logging.level", d.Logging.Level)
	m.viper.SetDefault("logging.format", d.Logging.Format)
	m.viper.SetDefault("rpc.addr", d.RPC.Addr)
}

// Path returns the config file location.
func (m *Manager) Path() string {
	return m.path
}

// Load reads the config file, creating a default one when missing.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.path); errors.Is(err, os.ErrNotExist) {
		if err := writeDefault(m.path); err != nil {
			return fmt.Errorf("failed to create default config at %s: %w", m.path, err)
		}
	}

	cfg, err := m.read()
	if err != nil {
		return err
	}
	m.config = cfg

	return nil
}

// Reload re-reads the config file and notifies the OnChange callbacks. On
// error the previous config stays.
func (m *Manager) Reload() error {
	m.mu.Lock()
	cfg, err := m.read()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.config = cfg
	callbacks := make([]func(*Config), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	for _, fn := range callbacks {
		c := *cfg
		fn(&c)
	}

	return nil
}

func (m *Manager) read() (*Config, error) {
	if err := m.viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file at %s: %w", m.path, err)
	}

	cfg := &Config{}
	if err := m.viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file at %s: %w", m.path, err)
	}
	normalize(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Get returns a copy of the current config.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return Default()
	}
	c := *m.config
	return &c
}

// OnChange registers fn to be called after every successful Reload.
func (m *Manager) OnChange(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

func writeDefault(path string) error {
	const dirPerm = 0o750
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return err
	}

	data, err := toml.Marshal(Default())
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}
