package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/getAlby/relay.go/lib/responses"
	"github.com/nbd-wtf/go-nostr"
)

var ErrMirrorClosed = errors.New("upstream subscription closed")

// StartMirrorRoutine copies events from the upstream relay at uri into this
// relay: first what upstream has stored since lastSeen, then live events,
// until ctx is done or the upstream goes away. Copies are verified like any
// other publish. lastSeen is advanced to the newest created_at copied so a
// reconnect does not replay the whole upstream history.
func (svc *RelayService) StartMirrorRoutine(ctx context.Context, uri string, lastSeen *nostr.Timestamp) error {
	relay, err := nostr.RelayConnect(ctx, uri)
	if err != nil {
		return err
	}
	defer relay.Close()

	filter := nostr.Filter{}
	if len(svc.Config.MirrorKinds) > 0 {
		filter.Kinds = svc.Config.MirrorKinds
	}
	if *lastSeen > 0 {
		since := *lastSeen
		filter.Since = &since
	}
	sub, err := relay.Subscribe(ctx, nostr.Filters{filter})
	if err != nil {
		return err
	}
	defer sub.Unsub()

	copied := 0
	eose := sub.EndOfStoredEvents
	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case <-eose:
			svc.Logger.Infof("Mirror %s: copied %d stored events", uri, copied)
			eose = nil
		case ev, ok := <-sub.Events:
			if !ok {
				return fmt.Errorf("mirror %s: %w", uri, ErrMirrorClosed)
			}
			if ev.CreatedAt > *lastSeen {
				*lastSeen = ev.CreatedAt
			}
			raw, err := json.Marshal(ev)
			if err != nil {
				svc.Logger.Error(err)
				continue
			}
			err = svc.PublishEvent(ctx, raw, func(ack responses.Frame) error {
				if accepted, _ := ack[2].(bool); !accepted {
					svc.Logger.Debugf("Mirror %s: rejected event %v: %v", uri, ack[1], ack[3])
					return nil
				}
				copied++
				return nil
			})
			if err != nil {
				return err
			}
		}
	}
}

// RunMirror keeps StartMirrorRoutine running, reconnecting with exponential
// backoff, until ctx is done.
func (svc *RelayService) RunMirror(ctx context.Context, uri string) {
	expontentialBackoff := backoff.NewExponentialBackOff()
	expontentialBackoff.MaxInterval = time.Minute
	expontentialBackoff.MaxElapsedTime = 0

	var lastSeen nostr.Timestamp
	_ = backoff.Retry(func() error {
		err := svc.StartMirrorRoutine(ctx, uri, &lastSeen)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		svc.Logger.Errorf("Mirror %s stopped, reconnecting: %v", uri, err)
		return err
	}, backoff.WithContext(expontentialBackoff, ctx))
}
