package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookPostsConfiguredKinds(t *testing.T) {
	received := make(chan nostr.Event, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ev := nostr.Event{}
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		received <- ev
	}))
	defer server.Close()

	svc := newTestService(16)
	svc.Config.WebhookKinds = []int{7}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.StartWebhookSubscription(ctx, server.URL)
	require.Eventually(t, func() bool { return svc.Stats().Listeners == 1 }, time.Second, 10*time.Millisecond)

	sk := nostr.GeneratePrivateKey()
	publish(t, svc, signed(t, sk, 1, 1700000000, "note"))
	reaction := signed(t, sk, 7, 1700000000, "+")
	publish(t, svc, reaction)

	select {
	case ev := <-received:
		assert.Equal(t, eventID(t, reaction), ev.ID)
		assert.Equal(t, 7, ev.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not called")
	}
	select {
	case ev := <-received:
		t.Fatalf("unexpected webhook call for kind %d", ev.Kind)
	case <-time.After(100 * time.Millisecond):
	}
}
