package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wilbur182/vlist/internal/config"
	"github.com/wilbur182/vlist/internal/interact"
	"github.com/wilbur182/vlist/internal/keymap"
	"github.com/wilbur182/vlist/internal/mouse"
	"github.com/wilbur182/vlist/internal/provider"
	"github.com/wilbur182/vlist/internal/styles"
	"github.com/wilbur182/vlist/internal/ui"
	"github.com/wilbur182/vlist/internal/virtual"
	"github.com/wilbur182/vlist/internal/watch"
)

const (
	headerRows      = 1
	statusDuration  = 3 * time.Second
	jumpPlaceholder = "item number"
)

// Options carries what the model needs from main.
type Options struct {
	Config       *config.Config
	Providers    *provider.Registry
	Provider     provider.Provider // must already be in Providers
	InitialItems map[int]virtual.Item
	Watcher      *watch.Watcher // optional
	Logger       *slog.Logger
	Version      string

	// Clipboard writes copied text; defaults to the system clipboard.
	Clipboard func(string) error
	// SaveConfig persists config changes such as the theme; nil disables saving.
	SaveConfig func(*config.Config) error
}

// Model is the root Bubble Tea model of the list viewer.
type Model struct {
	cfg       *config.Config
	providers *provider.Registry
	prov      provider.Provider
	seeded    map[int]virtual.Item
	watcher   *watch.Watcher
	logger    *slog.Logger
	version   string

	clipboard  func(string) error
	saveConfig func(*config.Config) error

	keymap   *keymap.Registry
	viewport *ui.Viewport
	sheet    *styles.Sheet
	attacher *interact.Attacher
	engine   *virtual.Engine
	mouse    *mouse.Handler
	spinner  ui.Spinner

	// UI state
	width, height int
	ready         bool
	jumping       bool
	jumpInput     textinput.Model

	// Status/toast messages
	statusMsg     string
	statusExpiry  time.Time
	statusIsError bool
	now           func() time.Time
}

// New builds the model and its list engine.
func New(opts Options) (*Model, error) {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Providers == nil || opts.Provider == nil {
		return nil, fmt.Errorf("app: provider required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}

	ti := textinput.New()
	ti.Placeholder = jumpPlaceholder
	ti.Prompt = "jump to: "
	ti.PromptStyle = styles.PromptLabel
	ti.CharLimit = 20
	ti.Width = 24

	m := &Model{
		cfg:        opts.Config,
		providers:  opts.Providers,
		prov:       opts.Provider,
		seeded:     opts.InitialItems,
		watcher:    opts.Watcher,
		logger:     opts.Logger,
		version:    opts.Version,
		clipboard:  opts.Clipboard,
		saveConfig: opts.SaveConfig,
		keymap:     keymap.NewRegistry(),
		viewport:   ui.NewViewport(0),
		sheet:      styles.NewSheet(),
		mouse:      mouse.NewHandler(),
		jumpInput:  ti,
		now:        time.Now,
	}
	m.attacher = interact.NewAttacher(m.sheet)

	m.registerCommands()
	keymap.RegisterDefaults(m.keymap)
	if err := m.keymap.ApplyOverrides(m.cfg.Keymap.Overrides); err != nil {
		return nil, err
	}

	if err := m.buildEngine(context.Background()); err != nil {
		return nil, err
	}
	return m, nil
}

// buildEngine creates the list engine over the provider's current count,
// replacing any previous engine.
func (m *Model) buildEngine(ctx context.Context) error {
	count, err := m.prov.Count(ctx)
	if err != nil {
		return fmt.Errorf("count %s: %w", m.prov.ID(), err)
	}

	seeded := make(map[int]virtual.Item, len(m.seeded))
	for index, item := range m.seeded {
		if index < count {
			seeded[index] = item
		}
	}

	engine, err := virtual.New(virtual.Config{
		ItemCount:    count,
		ItemExtent:   m.cfg.List.ItemExtent,
		InitialItems: seeded,
		ProviderID:   m.prov.ID(),
		ScrollHost:   m.viewport,
	}, virtual.Options{
		Fetcher:       m.providers,
		Interactor:    m.attacher,
		Styles:        m.sheet,
		SpareSlots:    m.cfg.List.SpareSlots,
		ShowScrollbar: m.cfg.UI.ShowScrollbar,
		Animate:       m.cfg.UI.Animate,
		Logger:        m.logger,
	})
	if err != nil {
		return err
	}
	if m.engine != nil {
		m.engine.Destroy()
	}
	m.engine = engine
	return nil
}

// Init starts the first render pass and the source watcher.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.engine.Init()}
	if m.watcher != nil {
		cmds = append(cmds, m.watcher.Listen())
	}
	return tea.Batch(cmds...)
}

// Close releases the engine, the watcher, and every provider.
func (m *Model) Close() error {
	m.engine.Destroy()
	var err error
	if m.watcher != nil {
		err = m.watcher.Close()
	}
	if cerr := m.providers.Close(); err == nil {
		err = cerr
	}
	return err
}

// Engine returns the list engine.
func (m *Model) Engine() *virtual.Engine { return m.engine }

// Viewport returns the scroll host of the list.
func (m *Model) Viewport() *ui.Viewport { return m.viewport }

// ShowToast displays a temporary status message.
func (m *Model) ShowToast(msg string, isError bool) {
	m.statusMsg = msg
	m.statusIsError = isError
	m.statusExpiry = m.now().Add(statusDuration)
}

// status returns the live status message, if any.
func (m *Model) status() (string, bool) {
	if m.statusMsg == "" || m.now().After(m.statusExpiry) {
		return "", false
	}
	return m.statusMsg, m.statusIsError
}

// listRows is the number of terminal rows given to the list.
func (m *Model) listRows() int {
	rows := m.height - headerRows
	if m.cfg.UI.ShowFooter || m.jumping {
		rows--
	}
	return max(0, rows)
}

// topIndex is the first visible item, or -1 for an empty list.
func (m *Model) topIndex() int {
	visible := m.engine.Visible()
	if len(visible) == 0 {
		return -1
	}
	offset := m.viewport.ScrollOffset()
	for _, index := range visible {
		if (index+1)*m.engine.ItemExtent() > offset {
			return index
		}
	}
	return visible[0]
}
