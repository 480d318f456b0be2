package events

import (
	"slices"

	"github.com/nbd-wtf/go-nostr"
)

// Matches reports whether ev satisfies every constraint present on f.
// Only kinds, authors, since and until are evaluated: ids and tag
// constraints are accepted in filters but never applied.
func Matches(ev *nostr.Event, f *nostr.Filter) bool {
	if f.Kinds != nil && !slices.Contains(f.Kinds, ev.Kind) {
		return false
	}
	if f.Authors != nil && !slices.Contains(f.Authors, ev.PubKey) {
		return false
	}
	if f.Since != nil && ev.CreatedAt < *f.Since {
		return false
	}
	if f.Until != nil && ev.CreatedAt > *f.Until {
		return false
	}
	return true
}

// MatchesAny is the OR over a subscription's filters.
func MatchesAny(ev *nostr.Event, filters nostr.Filters) bool {
	for i := range filters {
		if Matches(ev, &filters[i]) {
			return true
		}
	}
	return false
}
