package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/nbd-wtf/go-nostr"
)

const webhookSubscriptionID = "webhook"

// StartWebhookSubscription posts every accepted event of the configured
// kinds to url until ctx is done.
func (svc *RelayService) StartWebhookSubscription(ctx context.Context, url string) {
	svc.Logger.Infof("Starting webhook subscription with webhook url %s", url)
	filter := nostr.Filter{}
	if len(svc.Config.WebhookKinds) > 0 {
		filter.Kinds = svc.Config.WebhookKinds
	}
	listener, cancel := svc.Listen(webhookSubscriptionID, nostr.Filters{filter})
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-listener.Events():
			svc.postToWebhook(ctx, client, url, ev)
		}
	}
}

func (svc *RelayService) postToWebhook(ctx context.Context, client *http.Client, url string, ev *nostr.Event) {
	payload := new(bytes.Buffer)
	err := json.NewEncoder(payload).Encode(ev)
	if err != nil {
		svc.Logger.Error(err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		svc.Logger.Error(err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		svc.Logger.Error(err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			svc.Logger.Error(err)
		}
		svc.Logger.Errorf("Webhook status code was %d, body: %s", resp.StatusCode, msg)
	}
}
