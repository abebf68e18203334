package virtual

import "time"

// Item is resolved content for one index plus an optional style fragment.
type Item struct {
	Content string `json:"content" yaml:"content"`
	Style   string `json:"style,omitempty" yaml:"style,omitempty"`
}

// HasStyle reports whether the item carries a style fragment.
func (it Item) HasStyle() bool { return it.Style != "" }

// Cache maps item indices to resolved content. Entries live until deleted;
// there is no eviction. Cache is owned by a single Engine and only touched
// from the update loop, so it takes no locks.
type Cache struct {
	entries map[int]Item
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[int]Item)}
}

// Get returns the cached item for index.
// Returns (item, true) on hit, (zero, false) on miss.
func (c *Cache) Get(index int) (Item, bool) {
	item, ok := c.entries[index]
	return item, ok
}

// Has reports whether index is cached.
func (c *Cache) Has(index int) bool {
	_, ok := c.entries[index]
	return ok
}

// Set stores item for index, replacing any previous entry.
func (c *Cache) Set(index int, item Item) {
	c.entries[index] = item
}

// Delete removes the entry for index.
func (c *Cache) Delete(index int) {
	delete(c.entries, index)
}

// Clear removes every entry.
func (c *Cache) Clear() {
	clear(c.entries)
}

// Len returns the number of entries in the cache.
func (c *Cache) Len() int {
	return len(c.entries)
}

// request records an in-flight fetch.
type request struct {
	Seq    uint64
	Issued time.Time
}

// Pending tracks at most one in-flight fetch per index.
type Pending struct {
	requests map[int]request
	seq      uint64
}

// NewPending creates an empty pending-request table.
func NewPending() *Pending {
	return &Pending{requests: make(map[int]request)}
}

// Begin registers a fetch for index. It returns false, and registers nothing,
// if a fetch for index is already in flight.
func (p *Pending) Begin(index int) (uint64, bool) {
	if _, ok := p.requests[index]; ok {
		return 0, false
	}
	p.seq++
	p.requests[index] = request{Seq: p.seq, Issued: time.Now()}
	return p.seq, true
}

// Done removes the record for index and returns how long it was in flight.
func (p *Pending) Done(index int) (time.Duration, bool) {
	req, ok := p.requests[index]
	if !ok {
		return 0, false
	}
	delete(p.requests, index)
	return time.Since(req.Issued), true
}

// Has reports whether a fetch for index is in flight.
func (p *Pending) Has(index int) bool {
	_, ok := p.requests[index]
	return ok
}

// Len returns the number of in-flight fetches.
func (p *Pending) Len() int {
	return len(p.requests)
}
