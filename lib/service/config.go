package service

type Config struct {
	SentryDSN              string   `envconfig:"SENTRY_DSN"`
	SentryTracesSampleRate float64  `envconfig:"SENTRY_TRACES_SAMPLE_RATE"`
	DatadogAgentUrl        string   `envconfig:"DATADOG_AGENT_URL"`
	LogFilePath            string   `envconfig:"LOG_FILE_PATH"`
	RelayName              string   `envconfig:"RELAY_NAME" default:"relay.go"`
	RelayDescription       string   `envconfig:"RELAY_DESCRIPTION" default:"In-memory nostr relay"`
	RelayContact           string   `envconfig:"RELAY_CONTACT"`
	Host                   string   `envconfig:"HOST" default:"localhost:3000"`
	Port                   int      `envconfig:"PORT" default:"3000"`
	EnablePrometheus       bool     `envconfig:"ENABLE_PROMETHEUS" default:"false"`
	PrometheusPort         int      `envconfig:"PROMETHEUS_PORT" default:"9092"`
	SendBufferSize         int      `envconfig:"SEND_BUFFER_SIZE" default:"256"`    // frames queued per connection
	MaxMessageSize         int64    `envconfig:"MAX_MESSAGE_SIZE" default:"512000"` // bytes per inbound frame
	WebhookUrl             string   `envconfig:"WEBHOOK_URL"`
	WebhookKinds           []int    `envconfig:"WEBHOOK_KINDS"` // empty means every kind
	MirrorRelays           []string `envconfig:"MIRROR_RELAYS"`
	MirrorKinds            []int    `envconfig:"MIRROR_KINDS"` // empty means every kind
	RabbitMQUri            string   `envconfig:"RABBITMQ_URI"`
	RabbitMQEventExchange  string   `envconfig:"RABBITMQ_EVENT_EXCHANGE" default:"relay_events"`
}
