// Package mouse maps terminal mouse events onto named screen regions.
package mouse

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// doubleClickWindow is the maximum gap between clicks on one region that
// counts as a double click.
const doubleClickWindow = 400 * time.Millisecond

// WheelRows is how many rows a single wheel notch scrolls.
const WheelRows = 3

// Rect represents a rectangular region.
type Rect struct {
	X, Y, W, H int
}

// Contains returns true if the point (x, y) is within the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Region is a named rectangular hit region with associated data.
type Region struct {
	ID   string
	Rect Rect
	Data any
}

// HitMap tracks hit regions for mouse click detection.
// It is rebuilt every frame by whoever renders the regions.
type HitMap struct {
	regions []Region
}

// NewHitMap creates a new empty HitMap.
func NewHitMap() *HitMap {
	return &HitMap{
		regions: make([]Region, 0, 32),
	}
}

// Clear removes all regions from the hit map.
func (h *HitMap) Clear() {
	h.regions = h.regions[:0]
}

// Add adds a new region to the hit map.
func (h *HitMap) Add(id string, rect Rect, data any) {
	h.regions = append(h.regions, Region{
		ID:   id,
		Rect: rect,
		Data: data,
	})
}

// AddRect adds a region using individual coordinates.
func (h *HitMap) AddRect(id string, x, y, w, height int, data any) {
	h.Add(id, Rect{X: x, Y: y, W: w, H: height}, data)
}

// Test returns the first region containing the point, or nil if none.
func (h *HitMap) Test(x, y int) *Region {
	// Test in reverse order so later (topmost) regions take priority
	for i := len(h.regions) - 1; i >= 0; i-- {
		if h.regions[i].Rect.Contains(x, y) {
			return &h.regions[i]
		}
	}
	return nil
}

// Regions returns a copy of all registered regions (for testing).
func (h *HitMap) Regions() []Region {
	return append([]Region(nil), h.regions...)
}

// Handler combines a HitMap with click tracking for double-click detection.
type Handler struct {
	HitMap *HitMap

	lastClickTime   time.Time
	lastClickRegion string
	now             func() time.Time
}

// NewHandler creates a new mouse handler.
func NewHandler() *Handler {
	return &Handler{
		HitMap: NewHitMap(),
		now:    time.Now,
	}
}

// ActionType represents the type of mouse action detected.
type ActionType int

const (
	ActionNone ActionType = iota
	ActionClick
	ActionDoubleClick
	ActionScrollUp
	ActionScrollDown
	ActionHover
)

// MouseAction represents a processed mouse event.
type MouseAction struct {
	Type   ActionType
	Region *Region
	X, Y   int
	Delta  int // Scroll delta in rows
}

// HandleMouse translates a tea.MouseMsg into an action against the hit map.
func (h *Handler) HandleMouse(msg tea.MouseMsg) MouseAction {
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			region := h.HitMap.Test(msg.X, msg.Y)
			if region == nil {
				return MouseAction{Type: ActionNone}
			}
			typ := ActionClick
			if h.isDoubleClick(region.ID) {
				typ = ActionDoubleClick
			}
			return MouseAction{Type: typ, Region: region, X: msg.X, Y: msg.Y}
		case tea.MouseButtonWheelUp:
			return MouseAction{
				Type:   ActionScrollUp,
				Region: h.HitMap.Test(msg.X, msg.Y),
				X:      msg.X,
				Y:      msg.Y,
				Delta:  -WheelRows,
			}
		case tea.MouseButtonWheelDown:
			return MouseAction{
				Type:   ActionScrollDown,
				Region: h.HitMap.Test(msg.X, msg.Y),
				X:      msg.X,
				Y:      msg.Y,
				Delta:  WheelRows,
			}
		}

	case tea.MouseActionMotion:
		return MouseAction{
			Type:   ActionHover,
			Region: h.HitMap.Test(msg.X, msg.Y),
			X:      msg.X,
			Y:      msg.Y,
		}
	}

	return MouseAction{Type: ActionNone}
}

// isDoubleClick records a click on regionID and reports whether it completes
// a double click.
func (h *Handler) isDoubleClick(regionID string) bool {
	now := h.now()
	if regionID == h.lastClickRegion && now.Sub(h.lastClickTime) < doubleClickWindow {
		// Reset to prevent triple-click counting as double
		h.lastClickRegion = ""
		h.lastClickTime = time.Time{}
		return true
	}
	h.lastClickRegion = regionID
	h.lastClickTime = now
	return false
}
