package virtual

import "github.com/cespare/xxhash/v2"

// StyleDestination receives style fragments accompanying resolved content.
type StyleDestination interface {
	AppendStyle(fragment string)
}

// StyleSink forwards each distinct style fragment to its destination once.
// Membership is exact: fragments are bucketed by xxhash and compared in full
// within a bucket, so neither a hash collision nor a fragment that happens to
// be a substring of another changes the outcome.
type StyleSink struct {
	dest    StyleDestination
	applied map[uint64][]string
	count   int
}

// NewStyleSink creates a sink writing to dest. A nil dest discards fragments
// but still tracks membership.
func NewStyleSink(dest StyleDestination) *StyleSink {
	return &StyleSink{
		dest:    dest,
		applied: make(map[uint64][]string),
	}
}

// Apply adds fragment to the destination unless it was already applied.
// Empty fragments are ignored. Reports whether the fragment was new.
func (s *StyleSink) Apply(fragment string) bool {
	if fragment == "" {
		return false
	}
	key := xxhash.Sum64String(fragment)
	for _, seen := range s.applied[key] {
		if seen == fragment {
			return false
		}
	}
	s.applied[key] = append(s.applied[key], fragment)
	s.count++
	if s.dest != nil {
		s.dest.AppendStyle(fragment)
	}
	return true
}

// Contains reports whether fragment has been applied.
func (s *StyleSink) Contains(fragment string) bool {
	for _, seen := range s.applied[xxhash.Sum64String(fragment)] {
		if seen == fragment {
			return true
		}
	}
	return false
}

// Len returns the number of distinct fragments applied.
func (s *StyleSink) Len() int {
	return s.count
}
