package keymap

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const sequenceTimeout = 500 * time.Millisecond

// Contexts the list app dispatches in.
const (
	ContextGlobal = "global"
	ContextList   = "list"
	ContextJump   = "jump"
)

// ErrUnknownCommand is returned when an override names no registered command.
var ErrUnknownCommand = errors.New("keymap: unknown command")

// Command represents a registered command handler.
type Command struct {
	ID      string
	Name    string // short label for the footer
	Handler func() tea.Cmd
}

// Binding maps a key or key sequence to a command.
type Binding struct {
	Key     string // e.g. "down", "ctrl+g", "g g"
	Command string // Command ID
	Context string // ContextGlobal, ContextList, ...
}

// Registry manages key bindings and command dispatch. It is driven from the
// Bubble Tea update loop and is not safe for concurrent use.
type Registry struct {
	commands      map[string]Command   // ID -> Command
	bindings      map[string][]Binding // context -> bindings
	userOverrides map[string]string    // key -> command ID
	pendingKey    string
	pendingTime   time.Time
	now           func() time.Time
}

// NewRegistry creates a new keymap registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:      make(map[string]Command),
		bindings:      make(map[string][]Binding),
		userOverrides: make(map[string]string),
		now:           time.Now,
	}
}

// RegisterCommand adds a command to the registry.
func (r *Registry) RegisterCommand(cmd Command) {
	r.commands[cmd.ID] = cmd
}

// RegisterBinding adds a key binding.
func (r *Registry) RegisterBinding(b Binding) {
	if b.Context == "" {
		b.Context = ContextGlobal
	}
	r.bindings[b.Context] = append(r.bindings[b.Context], b)
}

// SetUserOverride sets a user-configured key override.
func (r *Registry) SetUserOverride(key, commandID string) error {
	if _, ok := r.commands[commandID]; !ok {
		return fmt.Errorf("%w: %q for key %q", ErrUnknownCommand, commandID, key)
	}
	r.userOverrides[key] = commandID
	return nil
}

// ApplyOverrides installs every key -> command override, stopping at the
// first unknown command.
func (r *Registry) ApplyOverrides(overrides map[string]string) error {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := r.SetUserOverride(k, overrides[k]); err != nil {
			return err
		}
	}
	return nil
}

// Handle dispatches a key event to the matching command. The bool reports
// whether the key was consumed, either by a command or as the first key of a
// pending sequence.
func (r *Registry) Handle(key tea.KeyMsg, activeContext string) (tea.Cmd, bool) {
	keyStr := KeyString(key)
	now := r.now()

	if r.pendingKey != "" {
		seq := r.pendingKey + " " + keyStr
		fresh := now.Sub(r.pendingTime) < sequenceTimeout
		r.pendingKey = ""
		if fresh {
			if cmd, ok := r.findCommand(seq, activeContext); ok {
				return cmd, true
			}
			// Sequence didn't match, try just the new key
		}
	}

	if r.isSequenceStart(keyStr, activeContext) {
		r.pendingKey = keyStr
		r.pendingTime = now
		return nil, true
	}

	return r.findCommand(keyStr, activeContext)
}

// findCommand looks up a command for the given key in order of precedence:
// user overrides, the active context, then global bindings.
func (r *Registry) findCommand(key, activeContext string) (tea.Cmd, bool) {
	if cmdID, ok := r.userOverrides[key]; ok {
		if cmd, ok := r.commands[cmdID]; ok && cmd.Handler != nil {
			return cmd.Handler(), true
		}
	}

	if activeContext != "" && activeContext != ContextGlobal {
		if cmd, found := r.findInContext(key, activeContext); found {
			return cmd, true
		}
	}

	return r.findInContext(key, ContextGlobal)
}

func (r *Registry) findInContext(key, context string) (tea.Cmd, bool) {
	for _, b := range r.bindings[context] {
		if b.Key == key {
			if cmd, ok := r.commands[b.Command]; ok && cmd.Handler != nil {
				return cmd.Handler(), true
			}
		}
	}
	return nil, false
}

// isSequenceStart checks if this key could start a multi-key sequence.
func (r *Registry) isSequenceStart(key, activeContext string) bool {
	prefix := key + " "

	contexts := []string{ContextGlobal}
	if activeContext != "" && activeContext != ContextGlobal {
		contexts = append(contexts, activeContext)
	}
	for _, ctx := range contexts {
		for _, b := range r.bindings[ctx] {
			if strings.HasPrefix(b.Key, prefix) {
				return true
			}
		}
	}
	for k := range r.userOverrides {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// ResetPending clears any pending key sequence.
func (r *Registry) ResetPending() {
	r.pendingKey = ""
}

// HasPending returns true if there's a pending key sequence.
func (r *Registry) HasPending() bool {
	return r.pendingKey != "" && r.now().Sub(r.pendingTime) < sequenceTimeout
}

// Hint is one footer entry: a key and the name of what it does.
type Hint struct {
	Key  string
	Name string
}

// Hints returns the bindings of a context in registration order, with user
// overrides for the same command shown instead of the default key.
func (r *Registry) Hints(context string) []Hint {
	overridden := make(map[string]string)
	for key, id := range r.userOverrides {
		if prev, ok := overridden[id]; !ok || key < prev {
			overridden[id] = key
		}
	}

	var out []Hint
	seen := make(map[string]bool)
	for _, b := range r.bindings[context] {
		cmd, ok := r.commands[b.Command]
		if !ok || cmd.Name == "" || seen[b.Command] {
			continue
		}
		seen[b.Command] = true
		key := b.Key
		if k, ok := overridden[b.Command]; ok {
			key = k
		}
		out = append(out, Hint{Key: key, Name: cmd.Name})
	}
	return out
}

// KeyString converts a tea.KeyMsg to its binding representation.
func KeyString(key tea.KeyMsg) string {
	switch key.Type {
	case tea.KeySpace:
		return "space"
	case tea.KeyRunes:
		if key.Alt {
			return "alt+" + string(key.Runes)
		}
		return string(key.Runes)
	default:
		return key.String()
	}
}
