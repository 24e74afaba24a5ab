package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LayoutFormat selects the encoding of stored layout files.
type LayoutFormat string

const (
	// FormatJSON stores layouts as tab-indented JSON.
	FormatJSON LayoutFormat = "json"
	// FormatYAML stores layouts as YAML.
	FormatYAML LayoutFormat = "yaml"
)

// Ext returns the file extension (without dot) for the format.
func (f LayoutFormat) Ext() string {
	return string(f)
}

// DefaultLayoutsDir is the layouts directory relative to the workspace root.
const DefaultLayoutsDir = ".vscode/layouts"

// StateKeyActiveLayout is the workspace state key of the active layout pointer.
const StateKeyActiveLayout = "activeLayout"

// DefaultLocale is the collation locale for name ordering.
const DefaultLocale = "en"

// ServiceConfig defines defaults for the layout service.
type ServiceConfig struct {
	// StateDir holds workspace-scoped state files.
	StateDir string
	// LayoutsDir is relative to the workspace root.
	LayoutsDir string
	Format     LayoutFormat
	Locale     string
	// HonorFirstTabActive treats an active tab index of zero as a real
	// active tab during restore. Off by default: zero means no active tab.
	HonorFirstTabActive bool
	// DisableAuditLogging disables audit trail debug logs for commands.
	DisableAuditLogging bool
}

// NormalizeServiceConfig applies defaults and validates the config.
func NormalizeServiceConfig(cfg ServiceConfig) (ServiceConfig, error) {
	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ServiceConfig{}, err
		}
		cfg.StateDir = filepath.Join(home, ".tablayout", "state")
	}
	if strings.TrimSpace(cfg.LayoutsDir) == "" {
		cfg.LayoutsDir = DefaultLayoutsDir
	}
	if filepath.IsAbs(cfg.LayoutsDir) {
		return ServiceConfig{}, fmt.Errorf("layouts dir must be relative to the workspace root: %s", cfg.LayoutsDir)
	}
	cfg.LayoutsDir = filepath.Clean(cfg.LayoutsDir)
	if strings.HasPrefix(cfg.LayoutsDir, "..") {
		return ServiceConfig{}, fmt.Errorf("layouts dir must stay inside the workspace root: %s", cfg.LayoutsDir)
	}
	switch cfg.Format {
	case "":
		cfg.Format = FormatJSON
	case FormatJSON, FormatYAML:
	default:
		return ServiceConfig{}, fmt.Errorf("unsupported layout format %q", cfg.Format)
	}
	if strings.TrimSpace(cfg.Locale) == "" {
		cfg.Locale = DefaultLocale
	}
	return cfg, nil
}
