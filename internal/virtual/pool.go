package virtual

// DefaultSpareSlots is how many parked slots a pool keeps for regrowth.
const DefaultSpareSlots = 4

// Pool is a growable set of render slots assigned positionally to the
// visible window: the k-th visible entry always takes the k-th slot.
//
// Slots beyond the window are parked off-screen and unbound. At most spare
// parked slots are retained after a pass; the rest are released, so the pool
// never holds more than len(window)+spare slots between passes.
type Pool struct {
	slots     []*Slot
	spare     int
	nextID    int
	highWater int
}

// NewPool creates an empty pool retaining up to spare parked slots.
// A negative spare means DefaultSpareSlots.
func NewPool(spare int) *Pool {
	if spare < 0 {
		spare = DefaultSpareSlots
	}
	return &Pool{spare: spare}
}

// Assign positions a slot for every entry and returns the slots whose bound
// index changed. Returned slots are already bound to their new index and
// need content resolved.
func (p *Pool) Assign(entries []Entry) []*Slot {
	for len(p.slots) < len(entries) {
		p.slots = append(p.slots, newSlot(p.nextID))
		p.nextID++
	}
	p.highWater = max(p.highWater, len(p.slots))

	var rebound []*Slot
	for k, e := range entries {
		s := p.slots[k]
		s.top = e.Top
		s.onscreen = true
		if s.index != e.Index {
			s.bind(e.Index)
			rebound = append(rebound, s)
		}
	}

	for _, s := range p.slots[len(entries):] {
		if s.onscreen || s.index != Unbound {
			s.park()
		}
	}

	if keep := len(entries) + p.spare; len(p.slots) > keep {
		clear(p.slots[keep:])
		p.slots = p.slots[:keep]
	}
	return rebound
}

// Find returns the slot bound to index, or nil.
func (p *Pool) Find(index int) *Slot {
	if index == Unbound {
		return nil
	}
	for _, s := range p.slots {
		if s.index == index {
			return s
		}
	}
	return nil
}

// Unbind marks the slot bound to index as unbound and reports whether one was.
func (p *Pool) Unbind(index int) bool {
	if s := p.Find(index); s != nil {
		s.unbind()
		return true
	}
	return false
}

// UnbindAll marks every slot unbound.
func (p *Pool) UnbindAll() {
	for _, s := range p.slots {
		s.unbind()
	}
}

// Slots returns the pool's slots in positional order.
func (p *Pool) Slots() []*Slot {
	return append([]*Slot(nil), p.slots...)
}

// Len returns the number of slots currently held.
func (p *Pool) Len() int {
	return len(p.slots)
}

// HighWater returns the most slots the pool has held at once.
func (p *Pool) HighWater() int {
	return p.highWater
}

// Release drops every slot.
func (p *Pool) Release() {
	clear(p.slots)
	p.slots = p.slots[:0]
}
