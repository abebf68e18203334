package virtual

// Entry is one visible item and the row offset it is drawn at.
type Entry struct {
	Index int
	Top   int
}

// VisibleRange returns the items intersecting the viewport, ascending by index.
//
// The window is [floor(offset/itemExtent), ceil((offset+extent)/itemExtent)]
// clamped to [0, itemCount-1], so it may include one row past the bottom edge.
// An offset past the end of the content yields only the last item.
func VisibleRange(scrollOffset, viewportExtent, itemExtent, itemCount int) []Entry {
	if itemCount <= 0 || itemExtent <= 0 {
		return nil
	}
	if viewportExtent < 0 {
		viewportExtent = 0
	}

	last := itemCount - 1
	start := min(max(0, floorDiv(scrollOffset, itemExtent)), last)
	end := min(last, ceilDiv(scrollOffset+viewportExtent, itemExtent))
	if end < start {
		end = start
	}

	entries := make([]Entry, 0, end-start+1)
	for i := start; i <= end; i++ {
		entries = append(entries, Entry{Index: i, Top: i * itemExtent})
	}
	return entries
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) == (b < 0) {
		q++
	}
	return q
}
