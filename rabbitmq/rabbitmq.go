package rabbitmq

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/gommon/log"
	"github.com/nbd-wtf/go-nostr"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ziflex/lecho/v3"
)

// bufPool lets concurrent publishers reuse encoding buffers instead of
// allocating one per event.
var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

const (
	contentTypeJSON = "application/json"
)

type (
	SubscribeToEventsFunc = func() (events <-chan *nostr.Event, cancel func(), err error)
	EncodeEventFunc       = func(ctx context.Context, w io.Writer, ev *nostr.Event) error
)

type Client interface {
	StartPublishEvents(context.Context, SubscribeToEventsFunc, EncodeEventFunc) error
	// Close will close all connections to rabbitmq
	Close() error
}

type DefaultClient struct {
	amqpClient AMQPClient

	logger *lecho.Logger

	eventExchange string
}

type ClientOption = func(client *DefaultClient)

func WithEventExchange(exchange string) ClientOption {
	return func(client *DefaultClient) {
		client.eventExchange = exchange
	}
}

func WithLogger(logger *lecho.Logger) ClientOption {
	return func(client *DefaultClient) {
		client.logger = logger
	}
}

func NewClient(amqpClient AMQPClient, options ...ClientOption) (Client, error) {
	client := &DefaultClient{
		amqpClient: amqpClient,

		logger: lecho.New(
			os.Stdout,
			lecho.WithLevel(log.DEBUG),
			lecho.WithTimestamp(),
		),

		eventExchange: "relay_events",
	}

	for _, opt := range options {
		opt(client)
	}

	return client, nil
}

func (client *DefaultClient) Close() error { return client.amqpClient.Close() }

// StartPublishEvents publishes every event handed out by subscribe to the
// event exchange, routed by kind, until ctx is done.
func (client *DefaultClient) StartPublishEvents(ctx context.Context, subscribe SubscribeToEventsFunc, payloadFunc EncodeEventFunc) error {
	err := client.amqpClient.ExchangeDeclare(
		client.eventExchange,
		// topic lets consumers bind to single kinds or to event.kind.#
		"topic",
		// Durable and Non-Auto-Deleted exchanges will survive server restarts and remain
		// declared when there are no remaining bindings.
		true,
		false,
		// Non-Internal exchange's accept direct publishing
		false,
		// Nowait: We set this to false as we want to wait for a server response
		// to check whether the exchange was created succesfully
		false,
		nil,
	)
	if err != nil {
		return err
	}

	events, cancel, err := subscribe()
	if err != nil {
		return err
	}
	defer cancel()

	client.logger.Info("Starting rabbitmq event publisher")
	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case ev := <-events:
			err = client.publishToEventExchange(ctx, ev, payloadFunc)
			if err != nil {
				captureErr(client.logger, err)
			}
		}
	}
}

func RoutingKey(ev *nostr.Event) string {
	return fmt.Sprintf("event.kind.%d", ev.Kind)
}

func (client *DefaultClient) publishToEventExchange(ctx context.Context, ev *nostr.Event, payloadFunc EncodeEventFunc) error {
	payload := bufPool.Get().(*bytes.Buffer)
	defer func() {
		payload.Reset()
		bufPool.Put(payload)
	}()

	err := payloadFunc(ctx, payload, ev)
	if err != nil {
		return err
	}

	err = client.amqpClient.PublishWithContext(ctx,
		client.eventExchange,
		RoutingKey(ev),
		false,
		false,
		amqp.Publishing{
			ContentType: contentTypeJSON,
			Body:        payload.Bytes(),
		},
	)
	if err != nil {
		return err
	}

	client.logger.Debugf("Successfully published event %s to rabbitmq", ev.ID)
	return nil
}

func captureErr(logger *lecho.Logger, err error) {
	logger.Error(err)
	sentry.CaptureException(err)
}
