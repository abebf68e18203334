package keymap

// Command IDs of the list app.
const (
	CmdDown       = "scroll-down"
	CmdUp         = "scroll-up"
	CmdPageDown   = "page-down"
	CmdPageUp     = "page-up"
	CmdTop        = "top"
	CmdBottom     = "bottom"
	CmdRefreshAll = "refresh-all"
	CmdRefreshTop = "refresh-top"
	CmdCopy       = "copy"
	CmdJump       = "jump"
	CmdJumpSubmit = "jump-submit"
	CmdJumpCancel = "jump-cancel"
	CmdTheme      = "cycle-theme"
	CmdQuit       = "quit"
)

// DefaultBindings returns the built-in bindings.
func DefaultBindings() []Binding {
	return []Binding{
		{Key: "j", Command: CmdDown, Context: ContextList},
		{Key: "down", Command: CmdDown, Context: ContextList},
		{Key: "k", Command: CmdUp, Context: ContextList},
		{Key: "up", Command: CmdUp, Context: ContextList},
		{Key: "pgdown", Command: CmdPageDown, Context: ContextList},
		{Key: "ctrl+d", Command: CmdPageDown, Context: ContextList},
		{Key: "pgup", Command: CmdPageUp, Context: ContextList},
		{Key: "ctrl+u", Command: CmdPageUp, Context: ContextList},
		{Key: "g g", Command: CmdTop, Context: ContextList},
		{Key: "home", Command: CmdTop, Context: ContextList},
		{Key: "G", Command: CmdBottom, Context: ContextList},
		{Key: "end", Command: CmdBottom, Context: ContextList},
		{Key: "r", Command: CmdRefreshAll, Context: ContextList},
		{Key: "R", Command: CmdRefreshTop, Context: ContextList},
		{Key: "y", Command: CmdCopy, Context: ContextList},
		{Key: "ctrl+g", Command: CmdJump, Context: ContextList},
		{Key: "t", Command: CmdTheme, Context: ContextList},
		{Key: "q", Command: CmdQuit, Context: ContextList},

		{Key: "enter", Command: CmdJumpSubmit, Context: ContextJump},
		{Key: "esc", Command: CmdJumpCancel, Context: ContextJump},

		{Key: "ctrl+c", Command: CmdQuit, Context: ContextGlobal},
	}
}

// RegisterDefaults adds every default binding to r.
func RegisterDefaults(r *Registry) {
	for _, b := range DefaultBindings() {
		r.RegisterBinding(b)
	}
}
