package service

import (
	"sync"
	"sync/atomic"

	"github.com/getAlby/relay.go/rabbitmq"
	"github.com/getAlby/relay.go/store"
	"github.com/ziflex/lecho/v3"
)

// RelayService owns the relay state shared by every connection: the event
// store and the subscription registry, both guarded by mu.
type RelayService struct {
	Config         *Config
	Logger         *lecho.Logger
	RabbitMQClient rabbitmq.Client

	mu            sync.Mutex
	store         store.Store
	subscriptions *Subscriptions

	clients atomic.Int64
}

func NewRelayService(c *Config, st store.Store, logger *lecho.Logger) *RelayService {
	return &RelayService{
		Config:        c,
		Logger:        logger,
		store:         st,
		subscriptions: NewSubscriptions(c.SendBufferSize),
	}
}

type Stats struct {
	Events        int
	Clients       int
	Subscriptions int
	Listeners     int
}

func (svc *RelayService) Stats() Stats {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return Stats{
		Events:        svc.store.Len(),
		Clients:       int(svc.clients.Load()),
		Subscriptions: svc.subscriptions.Len(),
		Listeners:     svc.subscriptions.ListenerLen(),
	}
}
