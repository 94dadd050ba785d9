// Package config handles stashy configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents stashy configuration.
type Config struct {
	UI    UIConfig    `toml:"ui"`
	Check CheckConfig `toml:"check"`
	Watch WatchConfig `toml:"watch"`
	Keys  KeysConfig  `toml:"keys"`
	Debug DebugConfig `toml:"debug"`
}

// UIConfig contains UI settings.
type UIConfig struct {
	// Rows given to the stash list above the preview
	ListHeight int `toml:"list_height"`

	// Lines the preview scrolls per page up/down
	ScrollLines int `toml:"scroll_lines"`

	// Show the command bar on startup
	ShowHelp bool `toml:"show_help"`

	// Enable mouse selection and wheel scrolling
	Mouse bool `toml:"mouse"`
}

// CheckConfig contains settings for the patch dry run.
type CheckConfig struct {
	// Timeout for a single `git apply --check`, e.g. "10s". Empty or "0" means none.
	Timeout string `toml:"timeout"`
}

// WatchConfig controls reloading when the stash changes outside stashy.
type WatchConfig struct {
	Enabled bool `toml:"enabled"`
}

// DebugConfig contains debug logging settings.
type DebugConfig struct {
	// File to write debug logs to. Empty disables logging unless --debug is given.
	LogFile string `toml:"log_file"`
}

// KeysConfig contains keybinding settings.
type KeysConfig struct {
	Up         string `toml:"up"`
	Down       string `toml:"down"`
	Home       string `toml:"home"`
	End        string `toml:"end"`
	Drop       string `toml:"drop"`
	Apply      string `toml:"apply"`
	Pop        string `toml:"pop"`
	ScrollUp   string `toml:"scroll_up"`
	ScrollDown string `toml:"scroll_down"`
	Filter     string `toml:"filter"`
	Help       string `toml:"help"`
	Quit       string `toml:"quit"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		UI: UIConfig{
			ListHeight:  5,
			ScrollLines: 3,
			ShowHelp:    true,
			Mouse:       true,
		},
		Check: CheckConfig{
			Timeout: "",
		},
		Watch: WatchConfig{
			Enabled: true,
		},
		Keys: KeysConfig{
			Up:         "up,k",
			Down:       "down,j",
			Home:       "home,g",
			End:        "end,G",
			Drop:       "d",
			Apply:      "a",
			Pop:        "p",
			ScrollUp:   "pgup",
			ScrollDown: "pgdown",
			Filter:     "/",
			Help:       "?",
			Quit:       "q,esc,ctrl+c",
		},
	}
}

// CheckTimeout returns the parsed check timeout, or zero if unset or invalid.
func (c *Config) CheckTimeout() time.Duration {
	if c.Check.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Check.Timeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// ConfigPath returns the path to the config file.
// Uses ~/.config/stashy/config.toml (XDG style) on all Unix systems.
func ConfigPath() string {
	// Respect XDG_CONFIG_HOME if set
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "stashy", "config.toml")
	}
	// Default to ~/.config on Unix (including macOS)
	home := os.Getenv("HOME")
	if home != "" {
		return filepath.Join(home, ".config", "stashy", "config.toml")
	}
	// Fallback to os.UserConfigDir() for Windows
	configDir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "stashy", "config.toml")
	}
	return filepath.Join(configDir, "stashy", "config.toml")
}

// Load loads configuration from the config file.
func Load() (*Config, error) {
	return LoadFromPath(ConfigPath())
}

// LoadFromPath loads configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file, use defaults
			return cfg, nil
		}
		return nil, err
	}

	// go-toml/v2 only overwrites fields present in the TOML file,
	// preserving defaults for unspecified fields (including booleans).
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return cfg, nil
}

// Validate validates the configuration and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.UI.ListHeight < 1 {
		warnings = append(warnings, fmt.Sprintf("Invalid value for ui.list_height: %d (must be at least 1)", c.UI.ListHeight))
	}
	if c.UI.ScrollLines < 1 {
		warnings = append(warnings, fmt.Sprintf("Invalid value for ui.scroll_lines: %d (must be at least 1)", c.UI.ScrollLines))
	}

	if c.Check.Timeout != "" {
		d, err := time.ParseDuration(c.Check.Timeout)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Invalid value for check.timeout: %q (expected a duration like \"10s\")", c.Check.Timeout))
		} else if d < 0 {
			warnings = append(warnings, fmt.Sprintf("Invalid value for check.timeout: %q (must not be negative)", c.Check.Timeout))
		}
	}

	// Every action needs at least one key, or it becomes unreachable.
	bindings := map[string]string{
		"up":          c.Keys.Up,
		"down":        c.Keys.Down,
		"drop":        c.Keys.Drop,
		"apply":       c.Keys.Apply,
		"pop":         c.Keys.Pop,
		"scroll_up":   c.Keys.ScrollUp,
		"scroll_down": c.Keys.ScrollDown,
		"help":        c.Keys.Help,
		"quit":        c.Keys.Quit,
	}
	for name, keys := range bindings {
		if strings.Trim(keys, ", ") == "" {
			warnings = append(warnings, fmt.Sprintf("keys.%s has no keys bound", name))
		}
	}

	return warnings
}

// Normalize replaces out-of-range values with defaults.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.UI.ListHeight < 1 {
		c.UI.ListHeight = def.UI.ListHeight
	}
	if c.UI.ScrollLines < 1 {
		c.UI.ScrollLines = def.UI.ScrollLines
	}
}
