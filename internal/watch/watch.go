// Package watch reports changes to a provider's backing file or directory
// as Bubble Tea messages.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is how long the watcher waits for more events before
// signalling a change.
const DefaultDelay = 100 * time.Millisecond

// ChangedMsg reports that the source of list ListID changed.
type ChangedMsg struct {
	ListID string
}

// Watcher monitors one file or one directory (not recursively).
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	listID    string
	target    string // file name to filter on; empty when watching a directory
	delay     time.Duration

	events   chan struct{}
	stop     chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	debounce *time.Timer
	closed   bool
}

// New watches path for list listID. A file is watched through its parent
// directory so editors that replace the file on save are still seen.
// A non-positive delay means DefaultDelay.
func New(listID, path string, delay time.Duration) (*Watcher, error) {
	if delay <= 0 {
		delay = DefaultDelay
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	dir, target := path, ""
	if !info.IsDir() {
		dir, target = filepath.Dir(path), filepath.Base(path)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsw,
		listID:    listID,
		target:    target,
		delay:     delay,
		events:    make(chan struct{}, 1),
		stop:      make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer func() {
		w.mu.Lock()
		w.closed = true
		if w.debounce != nil {
			w.debounce.Stop()
		}
		w.mu.Unlock()
		close(w.events)
	}()

	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.target != "" && filepath.Base(event.Name) != w.target {
				continue
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			w.schedule()
		case _, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// schedule (re)starts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.closed {
			return
		}
		select {
		case w.events <- struct{}{}:
		default: // a change is already pending
		}
	})
}

// Listen returns a command that waits for the next change. It yields nil
// once the watcher is closed. Issue it again after every ChangedMsg.
func (w *Watcher) Listen() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-w.events; !ok {
			return nil
		}
		return ChangedMsg{ListID: w.listID}
	}
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stop)
		err = w.fsWatcher.Close()
	})
	return err
}
