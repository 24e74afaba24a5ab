package appconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	"pkt.systems/tablayout/internal/persist"
	"pkt.systems/tablayout/schema"
)

// Load reads configuration from path, or DefaultConfigPath when empty.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	path, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return Config{}, err
		}
	} else if err := checkVersion(v); err != nil {
		return Config{}, err
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return DefaultConfigPath()
}

func setDefaults(v *viper.Viper, cfg Config) {
	defaults := map[string]any{
		"config_version":                 cfg.ConfigVersion,
		"state_dir":                      cfg.StateDir,
		"layouts_dir":                    cfg.LayoutsDir,
		"format":                         cfg.Format,
		"locale":                         cfg.Locale,
		"sort_by":                        cfg.SortBy,
		"autosave.enabled":               cfg.Autosave.Enabled,
		"autosave.debounce_ms":           cfg.Autosave.DebounceMS,
		"restore.honor_first_tab_active": cfg.Restore.HonorFirstTabActive,
		"watch.enabled":                  cfg.Watch.Enabled,
		"logging.disable_audit_trails":   cfg.Logging.DisableAuditTrails,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// checkVersion requires a loaded file to declare the supported version.
func checkVersion(v *viper.Viper) error {
	if !v.InConfig("config_version") {
		return fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
	}
	if got := v.GetInt("config_version"); got != CurrentConfigVersion {
		return fmt.Errorf("unsupported config_version %d; expected %d", got, CurrentConfigVersion)
	}
	return nil
}

func validate(cfg Config) error {
	switch schema.LayoutFormat(cfg.Format) {
	case schema.FormatJSON, schema.FormatYAML:
	default:
		return fmt.Errorf("unsupported format %q; expected json or yaml", cfg.Format)
	}
	if _, err := schema.ParseSortMethod(cfg.SortBy); err != nil {
		return fmt.Errorf("sort_by: %w", err)
	}
	if cfg.Autosave.DebounceMS <= 0 {
		return fmt.Errorf("autosave.debounce_ms must be positive")
	}
	if filepath.IsAbs(cfg.LayoutsDir) {
		return fmt.Errorf("layouts_dir must be relative to the workspace root")
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.StateDir = expandEnv(cfg.StateDir)
	cfg.LayoutsDir = expandEnv(cfg.LayoutsDir)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to path, or DefaultConfigPath
// when empty, and returns the path written.
func WriteDefault(path string, overwrite bool) (string, error) {
	path, err := resolvePath(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil && !overwrite {
		return "", fmt.Errorf("config already exists at %s", path)
	}
	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := persist.WriteFileAtomic(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
