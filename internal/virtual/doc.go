// Package virtual renders very large ordered collections inside a bounded
// viewport by materializing only the visible items.
//
// An Engine recycles a small pool of render slots as the viewport scrolls.
// Slot content comes from a pre-seeded cache or, on a miss, from a Fetcher
// run as a tea.Cmd; its result returns to the engine as an ItemLoadedMsg and
// is applied only if a slot is still bound to that index. All engine state is
// mutated on the Bubble Tea update loop, so the engine takes no locks.
package virtual
