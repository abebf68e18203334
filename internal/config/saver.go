package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// saveConfig is the JSON intermediary that uses string durations.
type saveConfig struct {
	List     saveListConfig     `json:"list"`
	Provider saveProviderConfig `json:"provider"`
	Seed     SeedConfig         `json:"seed,omitempty"`
	Keymap   KeymapConfig       `json:"keymap"`
	UI       saveUIConfig       `json:"ui"`
}

type saveListConfig struct {
	ItemExtent int  `json:"itemExtent,omitempty"`
	SpareSlots *int `json:"spareSlots,omitempty"`
	Prefetch   int  `json:"prefetch,omitempty"`
}

type saveProviderConfig struct {
	Kind      string `json:"kind,omitempty"`
	ID        string `json:"id,omitempty"`
	Source    string `json:"source,omitempty"`
	Latency   string `json:"latency,omitempty"`
	FailEvery int    `json:"failEvery,omitempty"`
	Watch     *bool  `json:"watch,omitempty"`
}

type saveUIConfig struct {
	Theme          string            `json:"theme,omitempty"`
	ThemeOverrides map[string]string `json:"themeOverrides,omitempty"`
	ShowScrollbar  *bool             `json:"showScrollbar,omitempty"`
	ShowFooter     *bool             `json:"showFooter,omitempty"`
	Animate        *bool             `json:"animate,omitempty"`
}

// toSaveConfig converts Config to the JSON-serializable format.
func toSaveConfig(cfg *Config) saveConfig {
	sc := saveConfig{
		List: saveListConfig{
			ItemExtent: cfg.List.ItemExtent,
			SpareSlots: &cfg.List.SpareSlots,
			Prefetch:   cfg.List.Prefetch,
		},
		Provider: saveProviderConfig{
			Kind:      cfg.Provider.Kind,
			ID:        cfg.Provider.ID,
			Source:    cfg.Provider.Source,
			FailEvery: cfg.Provider.FailEvery,
			Watch:     &cfg.Provider.Watch,
		},
		Seed:   cfg.Seed,
		Keymap: cfg.Keymap,
		UI: saveUIConfig{
			Theme:          cfg.UI.Theme,
			ThemeOverrides: cfg.UI.ThemeOverrides,
			ShowScrollbar:  &cfg.UI.ShowScrollbar,
			ShowFooter:     &cfg.UI.ShowFooter,
			Animate:        &cfg.UI.Animate,
		},
	}
	if cfg.Provider.Latency > 0 {
		sc.Provider.Latency = cfg.Provider.Latency.String()
	}
	return sc
}

// apply overlays the saved form onto cfg. Absent fields keep cfg's values.
func (sc saveConfig) apply(cfg *Config) error {
	if sc.List.ItemExtent != 0 {
		cfg.List.ItemExtent = sc.List.ItemExtent
	}
	if sc.List.SpareSlots != nil {
		cfg.List.SpareSlots = *sc.List.SpareSlots
	}
	if sc.List.Prefetch != 0 {
		cfg.List.Prefetch = sc.List.Prefetch
	}

	p := sc.Provider
	if p.Kind != "" {
		cfg.Provider.Kind = p.Kind
	}
	if p.ID != "" {
		cfg.Provider.ID = p.ID
	}
	if p.Source != "" {
		cfg.Provider.Source = p.Source
	}
	if p.Latency != "" {
		d, err := time.ParseDuration(p.Latency)
		if err != nil {
			return fmt.Errorf("provider.latency: %w", err)
		}
		cfg.Provider.Latency = d
	}
	if p.FailEvery != 0 {
		cfg.Provider.FailEvery = p.FailEvery
	}
	if p.Watch != nil {
		cfg.Provider.Watch = *p.Watch
	}

	if sc.Seed.Path != "" {
		cfg.Seed.Path = sc.Seed.Path
	}
	for key, cmdID := range sc.Keymap.Overrides {
		cfg.Keymap.Overrides[key] = cmdID
	}

	ui := sc.UI
	if ui.Theme != "" {
		cfg.UI.Theme = ui.Theme
	}
	for key, value := range ui.ThemeOverrides {
		cfg.UI.ThemeOverrides[key] = value
	}
	if ui.ShowScrollbar != nil {
		cfg.UI.ShowScrollbar = *ui.ShowScrollbar
	}
	if ui.ShowFooter != nil {
		cfg.UI.ShowFooter = *ui.ShowFooter
	}
	if ui.Animate != nil {
		cfg.UI.Animate = *ui.Animate
	}
	return nil
}

// ConfigPath returns ~/.config/vlist/config.json.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "vlist", "config.json")
	}
	return filepath.Join(home, ".config", "vlist", "config.json")
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Load reads the config at ConfigPath. A missing file yields the defaults.
func Load() (*Config, error) {
	cfg, err := LoadFrom(ConfigPath())
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadFrom reads the config at path over the defaults and validates it.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, err
	}
	var sc saveConfig
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg := Default()
	if err := sc.apply(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Provider.Source = ExpandPath(cfg.Provider.Source)
	cfg.Seed.Path = ExpandPath(cfg.Seed.Path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to ConfigPath.
func Save(cfg *Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg *Config) error {
	path = ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(toSaveConfig(cfg), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
