package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/wilbur182/vlist/internal/app"
	"github.com/wilbur182/vlist/internal/config"
	"github.com/wilbur182/vlist/internal/provider"
	_ "github.com/wilbur182/vlist/internal/provider/bolt"
	_ "github.com/wilbur182/vlist/internal/provider/markdown"
	_ "github.com/wilbur182/vlist/internal/provider/source"
	_ "github.com/wilbur182/vlist/internal/provider/sqlite"
	"github.com/wilbur182/vlist/internal/provider/synthetic"
	"github.com/wilbur182/vlist/internal/seed"
	"github.com/wilbur182/vlist/internal/styles"
	"github.com/wilbur182/vlist/internal/virtual"
	"github.com/wilbur182/vlist/internal/watch"
)

// Version is set at build time via ldflags
var Version = ""

var (
	configPath   = flag.String("config", "", "path to config file")
	providerKind = flag.String("provider", "", "provider kind (bolt, markdown, source, sqlite, synthetic)")
	sourceFlag   = flag.String("source", "", "provider source: a path, or an item count for synthetic")
	seedPath     = flag.String("seed", "", "YAML or JSON file of initial items")
	writeSeed    = flag.String("write-seed", "", "write the seeded and prefetched items to this YAML file and exit")
	extentFlag   = flag.Int("extent", 0, "rows per item")
	debugFlag    = flag.Bool("debug", false, "enable debug logging")
	logPath      = flag.String("log", "", "write logs to this file")
	versionFlag  = flag.Bool("version", false, "print version and exit")
	shortVersion = flag.Bool("v", false, "print version and exit (short)")
)

func main() {
	flag.Parse()

	if *versionFlag || *shortVersion {
		fmt.Printf("vlist version %s\n", effectiveVersion(Version))
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if *writeSeed != "" {
		if err := snapshot(cfg, config.ExpandPath(*writeSeed)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "vlist needs a terminal on stdout")
		os.Exit(1)
	}

	logger, closeLog, err := setupLogging(*logPath, *debugFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if styles.IsValidTheme(cfg.UI.Theme) {
		styles.ApplyThemeWithOverrides(cfg.UI.Theme, cfg.UI.ThemeOverrides)
	} else {
		logger.Warn("unknown theme, using default", "theme", cfg.UI.Theme)
	}

	if err := run(cfg, logger); err != nil {
		closeLog()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	width := 0
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w - 2
	}
	prov, err := provider.Open(provider.Source{
		Kind:      cfg.Provider.Kind,
		ID:        cfg.Provider.ID,
		Path:      cfg.Provider.Source,
		Latency:   cfg.Provider.Latency,
		FailEvery: cfg.Provider.FailEvery,
		Width:     width,
		Lines:     cfg.List.ItemExtent,
	})
	if err != nil {
		return err
	}
	providers := provider.NewRegistry()
	if err := providers.Add(prov); err != nil {
		prov.Close()
		return err
	}

	initial, err := initialItems(ctx, cfg, prov, logger)
	if err != nil {
		providers.Close()
		return err
	}

	var watcher *watch.Watcher
	if cfg.Provider.Watch && cfg.Provider.Kind != synthetic.Kind {
		watcher, err = watch.New(prov.ID(), cfg.Provider.Source, watch.DefaultDelay)
		if err != nil {
			logger.Warn("watch disabled", "source", cfg.Provider.Source, "err", err)
			watcher = nil
		}
	}

	model, err := app.New(app.Options{
		Config:       cfg,
		Providers:    providers,
		Provider:     prov,
		InitialItems: initial,
		Watcher:      watcher,
		Logger:       logger,
		Version:      effectiveVersion(Version),
		SaveConfig:   saveConfig,
	})
	if err != nil {
		if watcher != nil {
			watcher.Close()
		}
		providers.Close()
		return err
	}
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}

// snapshot resolves the initial items without starting the TUI and saves
// them as a seed file for later runs.
func snapshot(cfg *config.Config, path string) error {
	ctx := context.Background()
	prov, err := provider.Open(provider.Source{
		Kind:      cfg.Provider.Kind,
		ID:        cfg.Provider.ID,
		Path:      cfg.Provider.Source,
		Latency:   cfg.Provider.Latency,
		FailEvery: cfg.Provider.FailEvery,
		Lines:     cfg.List.ItemExtent,
	})
	if err != nil {
		return err
	}
	defer prov.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	items, err := initialItems(ctx, cfg, prov, logger)
	if err != nil {
		return err
	}
	if err := seed.Save(path, items); err != nil {
		return fmt.Errorf("writing seed: %w", err)
	}
	fmt.Printf("wrote %d items to %s\n", len(items), path)
	return nil
}

// initialItems combines the seed file with eagerly prefetched items.
func initialItems(ctx context.Context, cfg *config.Config, prov provider.Provider, logger *slog.Logger) (map[int]virtual.Item, error) {
	var items map[int]virtual.Item
	if cfg.Seed.Path != "" {
		seeded, err := seed.Load(cfg.Seed.Path)
		if err != nil {
			return nil, err
		}
		count, err := prov.Count(ctx)
		if err != nil {
			return nil, err
		}
		items = make(map[int]virtual.Item, len(seeded))
		for index, item := range seeded {
			if index >= count {
				logger.Warn("seed index beyond item count", "index", index, "count", count)
				continue
			}
			items[index] = item
		}
	}
	if cfg.List.Prefetch > 0 {
		fetched, err := seed.Prefetch(ctx, prov, cfg.List.Prefetch)
		if err != nil {
			logger.Warn("prefetch incomplete", "fetched", len(fetched), "err", err)
		}
		items = seed.Merge(items, fetched)
	}
	return items, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// saveConfig writes back to the -config file when one was given.
func saveConfig(cfg *config.Config) error {
	if *configPath != "" {
		return config.SaveTo(*configPath, cfg)
	}
	return config.Save(cfg)
}

// applyFlags overrides config values with explicitly set flags.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "provider":
			cfg.Provider.Kind = *providerKind
		case "source":
			cfg.Provider.Source = config.ExpandPath(*sourceFlag)
		case "seed":
			cfg.Seed.Path = config.ExpandPath(*seedPath)
		case "extent":
			cfg.List.ItemExtent = *extentFlag
		}
	})
}

// setupLogging returns a logger writing to path. With no path, debug logs go
// to a file in the temp dir and everything else is discarded, since the TUI
// owns the terminal.
func setupLogging(path string, debugMode bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	if path == "" && debugMode {
		path = filepath.Join(os.TempDir(), "vlist.log")
	}

	var w io.Writer = io.Discard
	closeFn := func() {}
	if path != "" {
		f, err := os.OpenFile(config.ExpandPath(path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		w = f
		closeFn = func() { f.Close() }
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return logger, closeFn, nil
}

// effectiveVersion returns the version string, with fallback to build info.
func effectiveVersion(v string) string {
	if v != "" {
		return v
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if revision == "" {
		return "devel"
	}
	ver := "devel+" + revision
	if len(ver) > 20 {
		ver = ver[:20]
	}
	if dirty {
		ver += "+dirty"
	}
	return ver
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vlist [options]\n\n")
		fmt.Fprintf(os.Stderr, "Browse very large lists in the terminal.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
}
