package integration_tests

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/getAlby/relay.go/lib/responses"
	"github.com/getAlby/relay.go/lib/service"
	"github.com/getAlby/relay.go/rabbitmq"
	"github.com/nbd-wtf/go-nostr"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RabbitMQTestSuite needs a broker; it only runs when RABBITMQ_URI is set.
type RabbitMQTestSuite struct {
	suite.Suite
	svc           *service.RelayService
	cancel        context.CancelFunc
	testQueueName string
}

func (suite *RabbitMQTestSuite) SetupSuite() {
	uri, ok := os.LookupEnv("RABBITMQ_URI")
	if !ok {
		suite.T().Skip("RABBITMQ_URI not set")
	}

	svc := RelayTestServiceInit()
	svc.Config.RabbitMQUri = uri
	svc.Config.RabbitMQEventExchange = "test_relay_events"
	suite.testQueueName = "test_relay_event"

	amqpClient, err := rabbitmq.DialAMQP(uri)
	require.NoError(suite.T(), err)
	svc.RabbitMQClient, err = rabbitmq.NewClient(amqpClient,
		rabbitmq.WithLogger(svc.Logger),
		rabbitmq.WithEventExchange(svc.Config.RabbitMQEventExchange),
	)
	require.NoError(suite.T(), err)

	ctx, cancel := context.WithCancel(context.Background())
	suite.cancel = cancel
	suite.svc = svc
	go func() {
		_ = svc.RabbitMQClient.StartPublishEvents(ctx, svc.SubscribeAcceptedEvents, svc.EncodeEvent)
	}()
	require.Eventually(suite.T(), func() bool {
		return svc.Stats().Listeners == 1
	}, 5*time.Second, 20*time.Millisecond)
}

func (suite *RabbitMQTestSuite) TestPublishEvent() {
	conn, err := amqp.Dial(suite.svc.Config.RabbitMQUri)
	require.NoError(suite.T(), err)
	defer conn.Close()

	ch, err := conn.Channel()
	require.NoError(suite.T(), err)
	defer ch.Close()

	q, err := ch.QueueDeclare(suite.testQueueName, false, true, false, false, nil)
	require.NoError(suite.T(), err)
	err = ch.QueueBind(q.Name, "event.kind.1", suite.svc.Config.RabbitMQEventExchange, false, nil)
	require.NoError(suite.T(), err)

	m, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	require.NoError(suite.T(), err)

	sk := nostr.GeneratePrivateKey()
	for _, ev := range []nostr.Event{
		signedEvent(sk, 7, 1700000000, "+"),
		signedEvent(sk, 1, 1700000000, "to the exchange"),
	} {
		raw, err := json.Marshal(&ev)
		require.NoError(suite.T(), err)
		err = suite.svc.PublishEvent(context.Background(), raw, func(responses.Frame) error { return nil })
		require.NoError(suite.T(), err)
	}

	select {
	case msg := <-m:
		assert.Equal(suite.T(), "event.kind.1", msg.RoutingKey)
		received := nostr.Event{}
		require.NoError(suite.T(), json.NewDecoder(bytes.NewReader(msg.Body)).Decode(&received))
		assert.Equal(suite.T(), "to the exchange", received.Content)
	case <-time.After(5 * time.Second):
		suite.T().Fatal("no event published to rabbitmq")
	}
}

func (suite *RabbitMQTestSuite) TearDownSuite() {
	if suite.cancel != nil {
		suite.cancel()
	}
	if suite.svc != nil && suite.svc.RabbitMQClient != nil {
		suite.svc.RabbitMQClient.Close()
	}
}

func TestRabbitMQTestSuite(t *testing.T) {
	suite.Run(t, new(RabbitMQTestSuite))
}
