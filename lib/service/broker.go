package service

import (
	"context"

	"github.com/getAlby/relay.go/lib/events"
	"github.com/getAlby/relay.go/lib/requests"
	"github.com/getAlby/relay.go/lib/responses"
	"github.com/nbd-wtf/go-nostr"
)

// HandleMessage decodes one inbound message from client and acts on it.
// Protocol problems are answered with a notice; a non-nil error means the
// client can no longer be answered and its connection should be closed.
func (svc *RelayService) HandleMessage(ctx context.Context, client *Client, raw []byte) error {
	frame, err := requests.Decode(raw)
	if err != nil {
		return client.Reply(ctx, responses.Notice(err.Error()))
	}
	switch f := frame.(type) {
	case requests.Publish:
		return svc.PublishEvent(ctx, f.Event, func(ack responses.Frame) error {
			return client.Reply(ctx, ack)
		})
	case requests.Subscribe:
		return svc.Subscribe(ctx, client, f.SubscriptionID, f.Filters)
	case requests.Close:
		svc.Unsubscribe(client, f.SubscriptionID)
		return nil
	default:
		return client.Reply(ctx, responses.Notice("unsupported message type: "+frame.Label()))
	}
}

// PublishEvent verifies raw, stores it and offers it to every matching
// subscription of every connection. ack gets the OK frame before fan-out
// starts. A valid duplicate is acknowledged and fanned out again to socket
// subscriptions but only stored once, and listeners never see it twice.
func (svc *RelayService) PublishEvent(ctx context.Context, raw []byte, ack func(responses.Frame) error) error {
	ev, err := events.CheckEvent(raw)
	if err != nil {
		claimedID := events.ClaimedID(raw)
		eventsReceived.WithLabelValues(events.Reason(err)).Inc()
		svc.Logger.Debugf("Rejected event %s: %v", claimedID, err)
		return ack(responses.OK(claimedID, false, err.Error()))
	}

	inserted, targets, dropped, stored := svc.storeEvent(ev)

	if inserted {
		eventsReceived.WithLabelValues("accepted").Inc()
	} else {
		eventsReceived.WithLabelValues("duplicate").Inc()
	}
	eventsStored.Set(float64(stored))
	fanoutDropped.Add(float64(dropped))
	svc.Logger.Debugf("Accepted event %s of kind %d (new: %t, targets: %d)", ev.ID, ev.Kind, inserted, len(targets))

	err = ack(responses.OK(ev.ID, true, "accepted"))
	svc.fanOut(ev, targets)
	return err
}

// storeEvent appends ev and picks its fan-out targets in one step, so a
// concurrent REQ sees the event either in its snapshot or live, never both.
func (svc *RelayService) storeEvent(ev *nostr.Event) (inserted bool, targets []target, dropped, stored int) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	inserted = svc.store.Append(ev)
	targets, dropped = svc.subscriptions.Targets(ev)
	if inserted {
		targets = append(targets, svc.subscriptions.ListenerTargets(ev)...)
	}
	return inserted, targets, dropped, svc.store.Len()
}

// Subscribe registers subID for client, streams the stored events matching
// filters and then EOSE. Live events only follow after the EOSE.
func (svc *RelayService) Subscribe(ctx context.Context, client *Client, subID string, filters nostr.Filters) error {
	sub, snapshot := svc.openSubscription(client, subID, filters)

	for _, ev := range snapshot {
		if err := client.Reply(ctx, responses.Event(subID, ev)); err != nil {
			return err
		}
	}
	if err := client.Reply(ctx, responses.EOSE(subID)); err != nil {
		return err
	}

	svc.fanOutTo(client, subID, svc.activate(client, subID, sub))
	return nil
}

func (svc *RelayService) openSubscription(client *Client, subID string, filters nostr.Filters) (*subscription, []*nostr.Event) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	sub := svc.subscriptions.Subscribe(client, subID, filters, true)
	subscriptionsOpen.Set(float64(svc.subscriptions.Len()))
	return sub, svc.store.Query(filters)
}

func (svc *RelayService) activate(client *Client, subID string, sub *subscription) []*nostr.Event {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.subscriptions.Activate(client, subID, sub)
}

func (svc *RelayService) Unsubscribe(conn Conn, subID string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.subscriptions.Unsubscribe(conn, subID)
	subscriptionsOpen.Set(float64(svc.subscriptions.Len()))
}

func (svc *RelayService) Connect(client *Client) {
	connectionsOpen.Set(float64(svc.clients.Add(1)))
	svc.Logger.Infof("Client %s connected", client.ID)
}

// Disconnect drops every subscription of client before closing it, so no
// fan-out computed afterwards can target it.
func (svc *RelayService) Disconnect(client *Client) {
	dropped := svc.dropConnection(client)

	client.Close()
	connectionsOpen.Set(float64(svc.clients.Add(-1)))
	svc.Logger.Infof("Client %s disconnected, dropped %d subscriptions", client.ID, dropped)
}

func (svc *RelayService) dropConnection(client *Client) int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	dropped := svc.subscriptions.DropConnection(client)
	subscriptionsOpen.Set(float64(svc.subscriptions.Len()))
	return dropped
}

// Listen subscribes an in-process listener to every event stored from now
// on that matches filters. The returned func removes it again. Listeners
// are not client subscriptions and are counted apart from them.
func (svc *RelayService) Listen(subID string, filters nostr.Filters) (*Listener, func()) {
	listener := NewListener(svc.Config.SendBufferSize)
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.subscriptions.AddListener(listener, subID, filters)
	listenersOpen.Set(float64(svc.subscriptions.ListenerLen()))

	return listener, func() {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		svc.subscriptions.RemoveListener(listener)
		listenersOpen.Set(float64(svc.subscriptions.ListenerLen()))
	}
}

// fanOut runs without holding mu: a slow or vanished subscriber costs a
// dropped frame, never a stalled relay.
func (svc *RelayService) fanOut(ev *nostr.Event, targets []target) {
	for _, t := range targets {
		svc.deliver(t.conn, t.subscriptionID, ev)
	}
}

func (svc *RelayService) fanOutTo(conn Conn, subID string, evs []*nostr.Event) {
	for _, ev := range evs {
		svc.deliver(conn, subID, ev)
	}
}

func (svc *RelayService) deliver(conn Conn, subID string, ev *nostr.Event) {
	if err := conn.Send(responses.Event(subID, ev)); err != nil {
		fanoutDropped.Inc()
		svc.Logger.Debugf("Dropped event %s for subscription %s: %v", ev.ID, subID, err)
	}
}
