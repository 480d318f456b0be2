package store

import (
	"cmp"
	"slices"

	"github.com/getAlby/relay.go/lib/events"
	"github.com/nbd-wtf/go-nostr"
)

// Store holds accepted events. Implementations are not required to be safe
// for concurrent use: the relay serializes all access behind its own lock.
type Store interface {
	// Append inserts ev unless an event with the same id is already stored
	// and reports whether it did.
	Append(ev *nostr.Event) bool
	Query(filters nostr.Filters) []*nostr.Event
	Len() int
}

// Memory is an append-only in-memory Store with an id index for dedupe.
// Nothing is ever evicted.
type Memory struct {
	events []*nostr.Event
	byID   map[string]*nostr.Event
}

func NewMemory() *Memory {
	return &Memory{
		byID: make(map[string]*nostr.Event),
	}
}

func (m *Memory) Append(ev *nostr.Event) bool {
	if _, ok := m.byID[ev.ID]; ok {
		return false
	}
	m.byID[ev.ID] = ev
	m.events = append(m.events, ev)
	return true
}

func (m *Memory) Len() int {
	return len(m.events)
}

// Query applies every filter on its own, newest first and capped by that
// filter's limit, then merges the results by id. The limit is a per-filter
// cap, not a cap on the merged result.
func (m *Memory) Query(filters nostr.Filters) []*nostr.Event {
	seen := make(map[string]struct{})
	result := []*nostr.Event{}
	for i := range filters {
		f := &filters[i]
		matched := []*nostr.Event{}
		for j := len(m.events) - 1; j >= 0; j-- {
			if events.Matches(m.events[j], f) {
				matched = append(matched, m.events[j])
			}
		}
		sortNewestFirst(matched)
		if f.Limit > 0 && len(matched) > f.Limit {
			matched = matched[:f.Limit]
		}
		for _, ev := range matched {
			if _, ok := seen[ev.ID]; ok {
				continue
			}
			seen[ev.ID] = struct{}{}
			result = append(result, ev)
		}
	}
	sortNewestFirst(result)
	return result
}

func sortNewestFirst(evs []*nostr.Event) {
	slices.SortStableFunc(evs, func(a, b *nostr.Event) int {
		return cmp.Compare(b.CreatedAt, a.CreatedAt)
	})
}
