package whatsapp

import (
	"sync"
	"time"

	"github.com/jdcera4/pruebaBot/pkg/logger"
)

// InboundMessage is a message received by the gateway session and forwarded
// to us over the events webhook.
type InboundMessage struct {
	FromAddress string    `json:"fromAddress"`
	FromName    string    `json:"fromName"`
	Body        string    `json:"body"`
	IsSelf      bool      `json:"isSelf"`
	ReceivedAt  time.Time `json:"receivedAt"`
}

// Events fans gateway session events out to subscribers. Subscriptions are
// registered at startup; Publish calls run handlers synchronously in
// registration order.
type Events struct {
	mu             sync.RWMutex
	onInbound      []func(InboundMessage)
	onReady        []func()
	onDisconnected []func(reason string)
}

func NewEvents() *Events {
	return &Events{}
}

func (e *Events) OnInbound(fn func(InboundMessage)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onInbound = append(e.onInbound, fn)
}

func (e *Events) OnReady(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onReady = append(e.onReady, fn)
}

func (e *Events) OnDisconnected(fn func(reason string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onDisconnected = append(e.onDisconnected, fn)
}

func (e *Events) PublishInbound(msg InboundMessage) {
	e.mu.RLock()
	handlers := e.onInbound
	e.mu.RUnlock()

	for _, fn := range handlers {
		fn(msg)
	}
}

func (e *Events) PublishReady() {
	logger.Infof("WhatsApp gateway session is ready")

	e.mu.RLock()
	handlers := e.onReady
	e.mu.RUnlock()

	for _, fn := range handlers {
		fn()
	}
}

func (e *Events) PublishDisconnected(reason string) {
	logger.Warnf("WhatsApp gateway session disconnected: %s", reason)

	e.mu.RLock()
	handlers := e.onDisconnected
	e.mu.RUnlock()

	for _, fn := range handlers {
		fn(reason)
	}
}
