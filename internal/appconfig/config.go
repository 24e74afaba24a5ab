package appconfig

import (
	"os"
	"path/filepath"
	"time"

	"pkt.systems/tablayout/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int            `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string         `mapstructure:"state_dir" yaml:"state_dir"`
	LayoutsDir    string         `mapstructure:"layouts_dir" yaml:"layouts_dir"`
	Format        string         `mapstructure:"format" yaml:"format"`
	Locale        string         `mapstructure:"locale" yaml:"locale"`
	SortBy        string         `mapstructure:"sort_by" yaml:"sort_by"`
	Autosave      AutosaveConfig `mapstructure:"autosave" yaml:"autosave"`
	Restore       RestoreConfig  `mapstructure:"restore" yaml:"restore"`
	Watch         WatchConfig    `mapstructure:"watch" yaml:"watch"`
	Logging       LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// AutosaveConfig controls saving the active layout after editor changes.
type AutosaveConfig struct {
	Enabled    bool `mapstructure:"enabled" yaml:"enabled"`
	DebounceMS int  `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// RestoreConfig controls how layouts are reopened.
type RestoreConfig struct {
	HonorFirstTabActive bool `mapstructure:"honor_first_tab_active" yaml:"honor_first_tab_active"`
}

// WatchConfig controls watching the layouts directory for external edits.
type WatchConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// LoggingConfig controls audit logging behavior.
type LoggingConfig struct {
	DisableAuditTrails bool `mapstructure:"disable_audit_trails" yaml:"disable_audit_trails"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".tablayout", "state"),
		LayoutsDir:    schema.DefaultLayoutsDir,
		Format:        string(schema.FormatJSON),
		Locale:        schema.DefaultLocale,
		SortBy:        string(schema.SortByRecent),
		Autosave: AutosaveConfig{
			Enabled:    true,
			DebounceMS: 5000,
		},
		Restore: RestoreConfig{
			HonorFirstTabActive: false,
		},
		Watch: WatchConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			DisableAuditTrails: false,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tablayout", "config.yaml"), nil
}

// ServiceConfig returns the layout service settings.
func (c Config) ServiceConfig() schema.ServiceConfig {
	return schema.ServiceConfig{
		StateDir:            c.StateDir,
		LayoutsDir:          c.LayoutsDir,
		Format:              schema.LayoutFormat(c.Format),
		Locale:              c.Locale,
		HonorFirstTabActive: c.Restore.HonorFirstTabActive,
		DisableAuditLogging: c.Logging.DisableAuditTrails,
	}
}

// AutosaveWindow returns the autosave quiescence window.
func (c Config) AutosaveWindow() time.Duration {
	return time.Duration(c.Autosave.DebounceMS) * time.Millisecond
}

// SortMethod returns the initial listing order.
func (c Config) SortMethod() schema.SortMethod {
	method, err := schema.ParseSortMethod(c.SortBy)
	if err != nil {
		return schema.SortByRecent
	}
	return method
}
