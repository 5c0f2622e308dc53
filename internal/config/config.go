package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	LogFile  string         `toml:"log_file"`
	Window   WindowConfig   `toml:"window"`
	Grid     GridConfig     `toml:"grid"`
	Search   SearchConfig   `toml:"search"`
	Apps     AppsConfig     `toml:"apps"`
	Icons    IconsConfig    `toml:"icons"`
	Keys     KeysConfig     `toml:"keys"`
	Launch   LaunchConfig   `toml:"launch"`
	Behavior BehaviorConfig `toml:"behavior"`
}

type WindowConfig struct {
	Width        int     `toml:"width"`
	Height       int     `toml:"height"`
	Opacity      float64 `toml:"opacity"`
	Resizable    bool    `toml:"resizable"`
	Decorated    bool    `toml:"decorated"`
	MarginTop    int     `toml:"margin_top"`
	MarginBottom int     `toml:"margin_bottom"`
	MarginLeft   int     `toml:"margin_left"`
	MarginRight  int     `toml:"margin_right"`
}

type GridConfig struct {
	IconSize      int `toml:"icon_size"`
	EntrySize     int `toml:"entry_size"`
	LabelMaxChars int `toml:"label_max_chars"`
}

type SearchConfig struct {
	Fuzzy            bool `toml:"fuzzy"`
	MatchDescription bool `toml:"match_description"`
	MatchKeywords    bool `toml:"match_keywords"`
	ShowHidden       bool `toml:"show_hidden"`
	CacheSize        int  `toml:"cache_size"`
}

type AppsConfig struct {
	Dirs             []string `toml:"dirs"`
	Watch            bool     `toml:"watch"`
	WatchDebounceMs  int      `toml:"watch_debounce_ms"`
	CacheDir         string   `toml:"cache_dir"`
	CacheFile        string   `toml:"cache_file"`
	CacheMaxAgeHours int      `toml:"cache_max_age_hours"`
	Sort             string   `toml:"sort"` // "name" or "frecency"
}

type IconsConfig struct {
	Fallback  string `toml:"fallback"`
	CacheSize int    `toml:"cache_size"`
}

type KeysConfig struct {
	Close   []string `toml:"close"`
	Details []string `toml:"details"`
	Back    []string `toml:"back"`
	Up      []string `toml:"up"`
	Down    []string `toml:"down"`
	Left    []string `toml:"left"`
	Right   []string `toml:"right"`
}

type LaunchConfig struct {
	Backend  string `toml:"backend"` // "direct" or "sway"
	Terminal string `toml:"terminal"`
}

type BehaviorConfig struct {
	Resident   bool   `toml:"resident"`
	SocketPath string `toml:"socket_path"`
	PidFile    string `toml:"pid_file"`
}

const DefaultPath = "~/.config/shell-search/config.toml"

var DefaultConfig = Config{
	LogFile: "~/.cache/shell-search/shell-search.log",
	Window: WindowConfig{
		Width:        600,
		Height:       500,
		Opacity:      0.9,
		Resizable:    false,
		Decorated:    false,
		MarginTop:    200,
		MarginBottom: 200,
		MarginLeft:   400,
		MarginRight:  400,
	},
	Grid: GridConfig{
		IconSize:      128,
		EntrySize:     128 + 64,
		LabelMaxChars: 8,
	},
	Search: SearchConfig{
		Fuzzy:            false,
		MatchDescription: true,
		MatchKeywords:    true,
		ShowHidden:       false,
		CacheSize:        200,
	},
	Apps: AppsConfig{
		Dirs:             []string{},
		Watch:            true,
		WatchDebounceMs:  250,
		CacheDir:         "~/.cache/shell-search",
		CacheFile:        "apps.json",
		CacheMaxAgeHours: 24,
		Sort:             "name",
	},
	Icons: IconsConfig{
		Fallback:  "application-x-executable",
		CacheSize: 500,
	},
	Keys: KeysConfig{
		Close:   []string{"Escape"},
		Details: []string{"space"},
		Back:    []string{"BackSpace"},
		Up:      []string{"Up"},
		Down:    []string{"Down"},
		Left:    []string{"Left"},
		Right:   []string{"Right"},
	},
	Launch: LaunchConfig{
		Backend:  "direct",
		Terminal: "xterm -e",
	},
	Behavior: BehaviorConfig{
		Resident:   false,
		SocketPath: "/tmp/shell-search.sock",
		PidFile:    "/tmp/shell-search.pid",
	},
}

// Default returns a deep copy of DefaultConfig.
func Default() *Config {
	cfg := DefaultConfig
	cfg.Apps.Dirs = append([]string{}, DefaultConfig.Apps.Dirs...)
	cfg.Keys = KeysConfig{
		Close:   append([]string{}, DefaultConfig.Keys.Close...),
		Details: append([]string{}, DefaultConfig.Keys.Details...),
		Back:    append([]string{}, DefaultConfig.Keys.Back...),
		Up:      append([]string{}, DefaultConfig.Keys.Up...),
		Down:    append([]string{}, DefaultConfig.Keys.Down...),
		Left:    append([]string{}, DefaultConfig.Keys.Left...),
		Right:   append([]string{}, DefaultConfig.Keys.Right...),
	}
	return &cfg
}

// LoadConfig reads the TOML file at path on top of the defaults. A missing
// file is not an error.
func LoadConfig(path string) (*Config, error) {
	expandedPath := ExpandPath(path)
	cfg := Default()

	if _, err := os.Stat(expandedPath); os.IsNotExist(err) {
		cfg.expandPaths()
		return cfg, nil
	}

	data, err := os.ReadFile(expandedPath)
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", expandedPath, err)
	}

	cfg.expandPaths()
	return cfg, nil
}

func (c *Config) expandPaths() {
	c.LogFile = ExpandPath(c.LogFile)
	c.Apps.CacheDir = ExpandPath(c.Apps.CacheDir)
	c.Behavior.SocketPath = ExpandPath(c.Behavior.SocketPath)
	c.Behavior.PidFile = ExpandPath(c.Behavior.PidFile)
	for i, dir := range c.Apps.Dirs {
		c.Apps.Dirs[i] = ExpandPath(dir)
	}
}

func LoadAndValidateConfig(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// ExpandPath expands a leading ~ to the current user's home directory.
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		usr, err := user.Current()
		if err == nil {
			return filepath.Join(usr.HomeDir, path[1:])
		}
	}
	return path
}

func SaveConfig(cfg *Config, path string) error {
	expandedPath := ExpandPath(path)

	dir := filepath.Dir(expandedPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(expandedPath, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.validateWindow(); err != nil {
		return err
	}
	if err := c.validateGrid(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateApps(); err != nil {
		return err
	}
	if err := c.validateIcons(); err != nil {
		return err
	}
	if err := c.validateKeys(); err != nil {
		return err
	}
	if err := c.validateLaunch(); err != nil {
		return err
	}
	if err := c.validateBehavior(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWindow() error {
	w := c.Window
	if w.Width < 100 || w.Width > 4000 {
		return fmt.Errorf("invalid window width: %d (must be 100-4000)", w.Width)
	}
	if w.Height < 100 || w.Height > 4000 {
		return fmt.Errorf("invalid window height: %d (must be 100-4000)", w.Height)
	}
	if w.Opacity <= 0 || w.Opacity > 1 {
		return fmt.Errorf("invalid window opacity: %.2f (must be in (0, 1])", w.Opacity)
	}
	for name, m := range map[string]int{
		"margin_top":    w.MarginTop,
		"margin_bottom": w.MarginBottom,
		"margin_left":   w.MarginLeft,
		"margin_right":  w.MarginRight,
	} {
		if m < 0 || m > 4000 {
			return fmt.Errorf("invalid %s: %d (must be 0-4000)", name, m)
		}
	}
	return nil
}

func (c *Config) validateGrid() error {
	g := c.Grid
	if g.IconSize < 16 || g.IconSize > 512 {
		return fmt.Errorf("invalid icon_size: %d (must be 16-512)", g.IconSize)
	}
	if g.EntrySize < g.IconSize {
		return fmt.Errorf("invalid entry_size: %d (must be at least icon_size %d)", g.EntrySize, g.IconSize)
	}
	if g.LabelMaxChars < 1 || g.LabelMaxChars > 200 {
		return fmt.Errorf("invalid label_max_chars: %d (must be 1-200)", g.LabelMaxChars)
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.CacheSize < 1 || c.Search.CacheSize > 10000 {
		return fmt.Errorf("invalid search cache_size: %d (must be 1-10000)", c.Search.CacheSize)
	}
	return nil
}

func (c *Config) validateApps() error {
	a := c.Apps
	if a.WatchDebounceMs < 0 || a.WatchDebounceMs > 10000 {
		return fmt.Errorf("invalid watch_debounce_ms: %d (must be 0-10000)", a.WatchDebounceMs)
	}
	if a.CacheMaxAgeHours < 0 || a.CacheMaxAgeHours > 168 {
		return fmt.Errorf("invalid cache_max_age_hours: %d (must be 0-168, 0 disables the cache)", a.CacheMaxAgeHours)
	}
	if a.CacheMaxAgeHours > 0 && a.CacheFile == "" {
		return fmt.Errorf("apps cache enabled but cache_file is empty")
	}
	switch a.Sort {
	case "name", "frecency":
	default:
		return fmt.Errorf("invalid apps sort: %q (must be one of: name, frecency)", a.Sort)
	}
	return nil
}

func (c *Config) validateIcons() error {
	i := c.Icons
	if i.Fallback == "" {
		return fmt.Errorf("icons fallback must not be empty")
	}
	if i.CacheSize < 10 || i.CacheSize > 10000 {
		return fmt.Errorf("invalid icons cache_size: %d (must be 10-10000)", i.CacheSize)
	}
	return nil
}

func (c *Config) validateKeys() error {
	k := c.Keys
	for name, keys := range map[string][]string{
		"close":   k.Close,
		"details": k.Details,
		"up":      k.Up,
		"down":    k.Down,
		"left":    k.Left,
		"right":   k.Right,
	} {
		if len(keys) == 0 {
			return fmt.Errorf("keys.%s must have at least one binding", name)
		}
		for _, key := range keys {
			if key == "" {
				return fmt.Errorf("keys.%s contains an empty binding", name)
			}
		}
	}
	return nil
}

func (c *Config) validateLaunch() error {
	switch c.Launch.Backend {
	case "direct", "sway":
	default:
		return fmt.Errorf("invalid launch backend: %q (must be one of: direct, sway)", c.Launch.Backend)
	}
	return nil
}

func (c *Config) validateBehavior() error {
	if c.Behavior.Resident && c.Behavior.SocketPath == "" {
		return fmt.Errorf("resident mode requires socket_path")
	}
	return nil
}

func ValidateConfig(path string) error {
	_, err := LoadAndValidateConfig(path)
	return err
}
