package virtual

import "strings"

// Unbound is the sentinel index of a slot that displays no item. It is never
// a valid item index, so a pass that meets it always rebinds.
const Unbound = -1

// Offscreen is the row a slot is parked at when the window no longer needs it.
const Offscreen = -1 << 30

// SlotState describes what a slot is currently showing.
type SlotState int

const (
	SlotEmpty   SlotState = iota // nothing bound
	SlotLoading                  // waiting on a fetch
	SlotReady                    // showing resolved content
	SlotFailed                   // fetch failed, showing error placeholder
)

func (s SlotState) String() string {
	switch s {
	case SlotEmpty:
		return "empty"
	case SlotLoading:
		return "loading"
	case SlotReady:
		return "ready"
	case SlotFailed:
		return "failed"
	}
	return "unknown"
}

// Zone is a clickable cell range inside a slot, relative to the slot's first
// row and first column.
type Zone struct {
	Line   int
	Start  int // first cell, inclusive
	End    int // last cell, exclusive
	Action string
}

// Content is the materialized content of a slot: the raw fragment as
// delivered, the display lines derived from it, and any interactive zones.
// Interactors rewrite Lines and Zones from Raw.
type Content struct {
	Raw   string
	Lines []string
	Zones []Zone
}

// reset materializes raw into a fresh content root.
func (c *Content) reset(raw string) {
	c.Raw = raw
	c.Lines = strings.Split(raw, "\n")
	c.Zones = nil
}

// Slot is a reusable block of rows bound to at most one item index.
type Slot struct {
	id       int
	index    int
	top      int
	onscreen bool
	state    SlotState
	content  Content
	err      error
}

func newSlot(id int) *Slot {
	return &Slot{id: id, index: Unbound, top: Offscreen}
}

// ID returns the slot's stable identity within its pool.
func (s *Slot) ID() int { return s.id }

// Index returns the bound item index, or Unbound.
func (s *Slot) Index() int { return s.index }

// Top returns the row offset the slot is positioned at.
func (s *Slot) Top() int { return s.top }

// Onscreen reports whether the slot is part of the current window.
func (s *Slot) Onscreen() bool { return s.onscreen }

// State returns what the slot is showing.
func (s *Slot) State() SlotState { return s.state }

// Content returns the slot's content root.
func (s *Slot) Content() *Content { return &s.content }

// Err returns the fetch error for a failed slot.
func (s *Slot) Err() error { return s.err }

func (s *Slot) bind(index int) {
	s.index = index
	s.state = SlotEmpty
	s.err = nil
	s.content = Content{}
}

func (s *Slot) unbind() {
	s.index = Unbound
}

func (s *Slot) park() {
	s.onscreen = false
	s.top = Offscreen
	s.bind(Unbound)
}

func (s *Slot) showLoading() {
	s.state = SlotLoading
	s.err = nil
	s.content = Content{}
}

func (s *Slot) showError(err error) {
	s.state = SlotFailed
	s.err = err
	s.content = Content{}
}

func (s *Slot) apply(item Item) {
	s.state = SlotReady
	s.err = nil
	s.content.reset(item.Content)
}
