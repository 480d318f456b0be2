package service

import (
	"github.com/getAlby/relay.go/lib/events"
	"github.com/nbd-wtf/go-nostr"
)

type subscription struct {
	filters nostr.Filters
	// pending subscriptions are still streaming their snapshot; live
	// matches are held back until the snapshot's EOSE has been queued
	pending bool
	backlog []*nostr.Event
}

type target struct {
	conn           Conn
	subscriptionID string
}

type listenerSub struct {
	id      string
	filters nostr.Filters
}

// Subscriptions maps every connection to its subscriptions by id, and
// keeps in-process listeners apart from them. It does no locking of its
// own; RelayService guards it together with the store.
type Subscriptions struct {
	subs         map[Conn]map[string]*subscription
	listeners    map[Conn]listenerSub
	backlogLimit int
}

func NewSubscriptions(backlogLimit int) *Subscriptions {
	return &Subscriptions{
		subs:         make(map[Conn]map[string]*subscription),
		listeners:    make(map[Conn]listenerSub),
		backlogLimit: backlogLimit,
	}
}

// Subscribe registers filters under subID for conn, replacing any existing
// subscription with the same id.
func (s *Subscriptions) Subscribe(conn Conn, subID string, filters nostr.Filters, pending bool) *subscription {
	if s.subs[conn] == nil {
		s.subs[conn] = make(map[string]*subscription)
	}
	sub := &subscription{filters: filters, pending: pending}
	s.subs[conn][subID] = sub
	return sub
}

// Activate ends the pending state of sub and hands back what was held
// back meanwhile. Nothing is returned if sub has been replaced or removed.
func (s *Subscriptions) Activate(conn Conn, subID string, sub *subscription) []*nostr.Event {
	if s.subs[conn] == nil || s.subs[conn][subID] != sub {
		return nil
	}
	backlog := sub.backlog
	sub.pending = false
	sub.backlog = nil
	return backlog
}

// Unsubscribe removes subID from conn; unknown ids are ignored.
func (s *Subscriptions) Unsubscribe(conn Conn, subID string) bool {
	if s.subs[conn] == nil {
		return false
	}
	if _, ok := s.subs[conn][subID]; !ok {
		return false
	}
	delete(s.subs[conn], subID)
	return true
}

// DropConnection forgets every subscription of conn and returns how many
// there were.
func (s *Subscriptions) DropConnection(conn Conn) int {
	n := len(s.subs[conn])
	delete(s.subs, conn)
	return n
}

// Targets lists the active subscriptions ev has to be delivered to. Pending
// subscriptions that match keep ev in their backlog instead; dropped counts
// the ones whose backlog was already full.
func (s *Subscriptions) Targets(ev *nostr.Event) (targets []target, dropped int) {
	for conn, subs := range s.subs {
		for subID, sub := range subs {
			if !events.MatchesAny(ev, sub.filters) {
				continue
			}
			if sub.pending {
				if len(sub.backlog) < s.backlogLimit {
					sub.backlog = append(sub.backlog, ev)
				} else {
					dropped++
				}
				continue
			}
			targets = append(targets, target{conn: conn, subscriptionID: subID})
		}
	}
	return targets, dropped
}

func (s *Subscriptions) AddListener(conn Conn, id string, filters nostr.Filters) {
	s.listeners[conn] = listenerSub{id: id, filters: filters}
}

func (s *Subscriptions) RemoveListener(conn Conn) {
	delete(s.listeners, conn)
}

// ListenerTargets lists the listeners ev has to be delivered to.
func (s *Subscriptions) ListenerTargets(ev *nostr.Event) []target {
	var targets []target
	for conn, l := range s.listeners {
		if events.MatchesAny(ev, l.filters) {
			targets = append(targets, target{conn: conn, subscriptionID: l.id})
		}
	}
	return targets
}

func (s *Subscriptions) ListenerLen() int {
	return len(s.listeners)
}

// Len is the number of live subscriptions across all connections,
// listeners not included.
func (s *Subscriptions) Len() int {
	n := 0
	for _, subs := range s.subs {
		n += len(subs)
	}
	return n
}
