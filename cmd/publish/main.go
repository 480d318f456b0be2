package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip04"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/sirupsen/logrus"
)

type Config struct {
	RelayUrl   string `envconfig:"RELAY_URL" default:"ws://localhost:3000"`
	PrivateKey string `envconfig:"NOSTR_PRIVATE_KEY" required:"true"`
}

// publish signs a note, or an encrypted direct message when -to is given,
// sends it to RELAY_URL and waits for the relay's answer.
func main() {
	content := flag.String("content", "", "note content")
	kind := flag.Int("kind", nostr.KindTextNote, "event kind")
	to := flag.String("to", "", "npub or hex pubkey to send an encrypted direct message to")
	flag.Parse()

	err := godotenv.Load(".env")
	if err != nil {
		logrus.Info("Failed to load .env file")
	}
	c := &Config{}
	err = envconfig.Process("", c)
	if err != nil {
		logrus.Fatalf("Error loading environment variables: %v", err)
	}

	sk := c.PrivateKey
	if prefix, value, err := nip19.Decode(sk); err == nil && prefix == "nsec" {
		sk = value.(string)
	}
	pk, err := nostr.GetPublicKey(sk)
	if err != nil {
		logrus.Fatalf("invalid private key: %v", err)
	}

	ev := nostr.Event{
		PubKey:    pk,
		CreatedAt: nostr.Now(),
		Kind:      *kind,
		Tags:      nostr.Tags{},
		Content:   *content,
	}

	if *to != "" {
		recipient := *to
		if prefix, value, err := nip19.Decode(recipient); err == nil && prefix == "npub" {
			recipient = value.(string)
		}
		shared, err := nip04.ComputeSharedSecret(recipient, sk)
		if err != nil {
			logrus.Fatalf("failed to compute shared secret: %v", err)
		}
		ev.Content, err = nip04.Encrypt(*content, shared)
		if err != nil {
			logrus.Fatalf("failed to encrypt message: %v", err)
		}
		ev.Kind = nostr.KindEncryptedDirectMessage
		ev.Tags = nostr.Tags{{"p", recipient}}
	}

	err = ev.Sign(sk)
	if err != nil {
		logrus.Fatalf("failed to sign event: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	relay, err := nostr.RelayConnect(ctx, c.RelayUrl)
	if err != nil {
		logrus.Fatalf("failed to connect to %s: %v", c.RelayUrl, err)
	}
	defer relay.Close()

	err = relay.Publish(ctx, ev)
	if err != nil {
		logrus.Fatalf("relay rejected event %s: %v", ev.ID, err)
	}
	logrus.WithFields(logrus.Fields{
		"id":    ev.ID,
		"kind":  ev.Kind,
		"relay": c.RelayUrl,
	}).Info("event published")
	fmt.Println(ev.ID)
}
