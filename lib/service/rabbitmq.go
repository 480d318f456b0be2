package service

import (
	"context"
	"encoding/json"
	"io"

	"github.com/nbd-wtf/go-nostr"
)

const rabbitmqSubscriptionID = "rabbitmq"

// SubscribeAcceptedEvents hands out every event accepted from now on. The
// returned func stops the subscription.
func (svc *RelayService) SubscribeAcceptedEvents() (<-chan *nostr.Event, func(), error) {
	listener, cancel := svc.Listen(rabbitmqSubscriptionID, nostr.Filters{{}})
	return listener.Events(), cancel, nil
}

func (svc *RelayService) EncodeEvent(ctx context.Context, w io.Writer, ev *nostr.Event) error {
	return json.NewEncoder(w).Encode(ev)
}
