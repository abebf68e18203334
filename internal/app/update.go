package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wilbur182/vlist/internal/keymap"
	"github.com/wilbur182/vlist/internal/mouse"
	"github.com/wilbur182/vlist/internal/ui"
	"github.com/wilbur182/vlist/internal/virtual"
	"github.com/wilbur182/vlist/internal/watch"
)

// Update handles all messages and returns the updated model and commands.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.jumpInput.Width = max(1, msg.Width-len(m.jumpInput.Prompt)-2)
		return m, m.listResized()

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case virtual.ItemLoadedMsg:
		m.spinner.Advance()
		return m, m.engine.Update(msg)

	case ui.SkeletonTickMsg:
		return m, m.engine.Update(msg)

	case watch.ChangedMsg:
		if m.watcher == nil {
			return m, nil
		}
		return m, tea.Batch(m.reload(), m.watcher.Listen())

	case ReloadedMsg:
		return m, m.applyReload(msg)

	case CopiedMsg:
		if msg.Err != nil {
			m.logger.Warn("clipboard write failed", "index", msg.Index, "err", msg.Err)
			m.ShowToast("copy failed: "+msg.Err.Error(), true)
		} else {
			m.ShowToast(fmt.Sprintf("copied item %d", msg.Index), false)
		}
		return m, nil
	}

	if m.jumping {
		var cmd tea.Cmd
		m.jumpInput, cmd = m.jumpInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// listResized gives the list the rows left over by the header and footer.
func (m *Model) listResized() tea.Cmd {
	return m.viewport.SetExtent(m.listRows())
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.jumping {
		if cmd, ok := m.keymap.Handle(msg, keymap.ContextJump); ok {
			return cmd
		}
		var cmd tea.Cmd
		m.jumpInput, cmd = m.jumpInput.Update(msg)
		return cmd
	}
	cmd, _ := m.keymap.Handle(msg, keymap.ContextList)
	return cmd
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	action := m.mouse.HandleMouse(msg)
	switch action.Type {
	case mouse.ActionScrollUp, mouse.ActionScrollDown:
		return m.viewport.ScrollBy(action.Delta)
	case mouse.ActionClick, mouse.ActionDoubleClick:
		if action.Region == nil {
			return nil
		}
		if hit, ok := action.Region.Data.(virtual.ZoneHit); ok {
			return m.dispatchZone(hit)
		}
	}
	return nil
}
