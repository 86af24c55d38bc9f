// Package config loads the window manager configuration: the desktop
// layout, focus behavior, and per-application window rules.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/winstate/internal/deco"
)

// Desktops configures the virtual desktop layout.
type Desktops struct {
	Count uint     `yaml:"count"`
	Names []string `yaml:"names,omitempty"`
}

// Rule matches windows by their identity hints and overrides their initial
// state. Empty match fields are wildcards; a rule with no match fields set
// never matches.
type Rule struct {
	// Match fields, compared against WM_CLASS instance/class,
	// WM_WINDOW_ROLE and the window title. Title matching is a substring
	// match; the others are exact.
	Name  string `yaml:"name,omitempty"`
	Class string `yaml:"class,omitempty"`
	Role  string `yaml:"role,omitempty"`
	Title string `yaml:"title,omitempty"`

	// Placement overrides.
	Desktop     *uint `yaml:"desktop,omitempty"`
	AllDesktops bool  `yaml:"all_desktops,omitempty"`

	// State overrides.
	SkipTaskbar bool `yaml:"skip_taskbar,omitempty"`
	SkipPager   bool `yaml:"skip_pager,omitempty"`

	// Layer pins the window above or below its normal stacking band:
	// "above", "below" or empty for no pin.
	Layer string `yaml:"layer,omitempty"`

	// DisableDecorations lists chrome elements to suppress: titlebar,
	// handle, border, icon, iconify, maximize, all-desktops, close.
	DisableDecorations []string `yaml:"disable_decorations,omitempty"`
}

// Config is the top-level configuration.
type Config struct {
	Desktops Desktops `yaml:"desktops"`

	// FocusNew gives newly mapped normal windows input focus.
	FocusNew bool `yaml:"focus_new"`

	Rules []Rule `yaml:"rules,omitempty"`
}

// Default returns the built-in configuration: four unnamed desktops,
// focus-new enabled, no rules.
func Default() *Config {
	return &Config{
		Desktops: Desktops{Count: 4},
		FocusNew: true,
	}
}

// Path returns the config file location. WINSTATE_CONFIG overrides the
// XDG lookup entirely.
func Path() (string, error) {
	if p := os.Getenv("WINSTATE_CONFIG"); p != "" {
		return p, nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "winstate", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "winstate", "config.yaml"), nil
}

// Load reads the config file, falling back to defaults when it does not
// exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads and validates the config at the given path. A missing
// file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate normalizes the desktop layout and checks the rules.
func (c *Config) validate() error {
	if c.Desktops.Count < 1 {
		return fmt.Errorf("desktops.count must be at least 1, got %d", c.Desktops.Count)
	}
	// Pad or truncate names to the desktop count.
	for uint(len(c.Desktops.Names)) < c.Desktops.Count {
		c.Desktops.Names = append(c.Desktops.Names,
			fmt.Sprintf("Desktop %d", len(c.Desktops.Names)+1))
	}
	c.Desktops.Names = c.Desktops.Names[:c.Desktops.Count]

	for i := range c.Rules {
		r := &c.Rules[i]
		if r.Name == "" && r.Class == "" && r.Role == "" && r.Title == "" {
			return fmt.Errorf("rule %d has no match fields", i)
		}
		if r.Desktop != nil && *r.Desktop >= c.Desktops.Count {
			return fmt.Errorf("rule %d places windows on desktop %d, only %d exist",
				i, *r.Desktop, c.Desktops.Count)
		}
		if _, err := decorMask(r.DisableDecorations); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
		switch r.Layer {
		case "", "above", "below":
		default:
			return fmt.Errorf("rule %d: unknown layer %q", i, r.Layer)
		}
	}
	return nil
}

// Match reports whether the rule matches the given window identity.
func (r *Rule) Match(name, class, role, title string) bool {
	if r.Name == "" && r.Class == "" && r.Role == "" && r.Title == "" {
		return false
	}
	if r.Name != "" && r.Name != name {
		return false
	}
	if r.Class != "" && r.Class != class {
		return false
	}
	if r.Role != "" && r.Role != role {
		return false
	}
	if r.Title != "" && !strings.Contains(title, r.Title) {
		return false
	}
	return true
}

// DisabledDecorations returns the rule's decoration disable-mask. Unknown
// names were rejected at load time.
func (r *Rule) DisabledDecorations() deco.DecorFlags {
	mask, _ := decorMask(r.DisableDecorations)
	return mask
}

func decorMask(names []string) (deco.DecorFlags, error) {
	var mask deco.DecorFlags
	for _, n := range names {
		switch n {
		case "titlebar":
			mask |= deco.DecorTitlebar
		case "handle":
			mask |= deco.DecorHandle
		case "border":
			mask |= deco.DecorBorder
		case "icon":
			mask |= deco.DecorIcon
		case "iconify":
			mask |= deco.DecorIconify
		case "maximize":
			mask |= deco.DecorMaximize
		case "all-desktops":
			mask |= deco.DecorAllDesktops
		case "close":
			mask |= deco.DecorClose
		default:
			return 0, fmt.Errorf("unknown decoration %q", n)
		}
	}
	return mask, nil
}
