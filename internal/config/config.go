package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/wilbur182/vlist/internal/virtual"
)

var (
	ErrInvalidItemExtent = errors.New("config: list.itemExtent must be positive")
	ErrMissingProvider   = errors.New("config: provider.kind is required")
)

// Config is the root configuration structure.
type Config struct {
	List     ListConfig     `json:"list"`
	Provider ProviderConfig `json:"provider"`
	Seed     SeedConfig     `json:"seed"`
	Keymap   KeymapConfig   `json:"keymap"`
	UI       UIConfig       `json:"ui"`
}

// ListConfig sizes the virtual list.
type ListConfig struct {
	ItemExtent int `json:"itemExtent"` // rows per item
	SpareSlots int `json:"spareSlots"` // off-screen slots kept for reuse
	Prefetch   int `json:"prefetch"`   // items resolved eagerly before the first render
}

// ProviderConfig selects the item source.
type ProviderConfig struct {
	Kind      string        `json:"kind"`
	ID        string        `json:"id"`
	Source    string        `json:"source"` // path, or the item count for "synthetic"
	Latency   time.Duration `json:"latency"`
	FailEvery int           `json:"failEvery"`
	Watch     bool          `json:"watch"`
}

// SeedConfig points at a file of initial items.
type SeedConfig struct {
	Path string `json:"path"`
}

// KeymapConfig holds key binding overrides.
type KeymapConfig struct {
	Overrides map[string]string `json:"overrides"`
}

// UIConfig configures UI appearance.
type UIConfig struct {
	Theme          string            `json:"theme"`
	ThemeOverrides map[string]string `json:"themeOverrides"` // palette key or hex color per key
	ShowScrollbar  bool              `json:"showScrollbar"`
	ShowFooter     bool              `json:"showFooter"`
	Animate        bool              `json:"animate"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		List: ListConfig{
			ItemExtent: 1,
			SpareSlots: virtual.DefaultSpareSlots,
		},
		Provider: ProviderConfig{
			Kind:   "synthetic",
			Source: "10k",
			Watch:  true,
		},
		Keymap: KeymapConfig{
			Overrides: make(map[string]string),
		},
		UI: UIConfig{
			Theme:          "default",
			ThemeOverrides: make(map[string]string),
			ShowScrollbar:  true,
			ShowFooter:     true,
			Animate:        true,
		},
	}
}

// Validate checks the configuration for errors. Out-of-range optional values
// are reset to their defaults.
func (c *Config) Validate() error {
	if c.List.ItemExtent <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidItemExtent, c.List.ItemExtent)
	}
	if c.Provider.Kind == "" {
		return ErrMissingProvider
	}
	if c.List.SpareSlots < 0 {
		c.List.SpareSlots = virtual.DefaultSpareSlots
	}
	if c.List.Prefetch < 0 {
		c.List.Prefetch = 0
	}
	if c.Provider.Latency < 0 {
		c.Provider.Latency = 0
	}
	if c.Provider.FailEvery < 0 {
		c.Provider.FailEvery = 0
	}
	if c.Keymap.Overrides == nil {
		c.Keymap.Overrides = make(map[string]string)
	}
	if c.UI.ThemeOverrides == nil {
		c.UI.ThemeOverrides = make(map[string]string)
	}
	if c.UI.Theme == "" {
		c.UI.Theme = "default"
	}
	return nil
}
