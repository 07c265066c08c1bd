package irc

import "strings"

// ChannelSet is an ordered set of channel names compared with Fold.
// The zero value is an empty set.
type ChannelSet struct {
	names []string
	index map[string]int
}

// NewChannelSet builds a set from names, keeping first-seen order and dropping
// blanks and case-insensitive duplicates.
func NewChannelSet(names ...string) ChannelSet {
	var s ChannelSet
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name if it is not already present.
func (s *ChannelSet) Add(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	key := Fold(name)
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = len(s.names)
	s.names = append(s.names, name)
	return true
}

// Contains reports whether name is in the set.
func (s ChannelSet) Contains(name string) bool {
	_, ok := s.index[Fold(strings.TrimSpace(name))]
	return ok
}

// Len returns the number of channels.
func (s ChannelSet) Len() int { return len(s.names) }

// Names returns a copy of the channels in insertion order.
func (s ChannelSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Equal reports whether both sets hold the same channels in the same order.
func (s ChannelSet) Equal(other ChannelSet) bool {
	if len(s.names) != len(other.names) {
		return false
	}
	for i := range s.names {
		if Fold(s.names[i]) != Fold(other.names[i]) {
			return false
		}
	}
	return true
}

// Diff returns the channels to join (desired but not observed, in desired
// order) and to part (observed but not desired, in observed order).
func (s ChannelSet) Diff(observed []string) (join, part []string) {
	seen := NewChannelSet(observed...)
	for _, name := range s.names {
		if !seen.Contains(name) {
			join = append(join, name)
		}
	}
	for _, name := range seen.names {
		if !s.Contains(name) {
			part = append(part, name)
		}
	}
	return join, part
}
