package bus

import (
	"context"
	"log"
	"sync"
)

// MessageBus decouples transport channels from the dialog gateway. Inbound
// events flow to a single consumer; outbound replies are fanned out to the
// channel that registered for them.
type MessageBus struct {
	Inbound  chan InboundMessage
	Outbound chan OutboundMessage

	mu       sync.RWMutex
	handlers map[string]func(OutboundMessage)
}

func NewMessageBus(bufSize int) *MessageBus {
	if bufSize <= 0 {
		bufSize = 1
	}
	return &MessageBus{
		Inbound:  make(chan InboundMessage, bufSize),
		Outbound: make(chan OutboundMessage, bufSize),
		handlers: make(map[string]func(OutboundMessage)),
	}
}

func (b *MessageBus) SubscribeOutbound(channel string, fn func(OutboundMessage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[channel] = fn
}

// DispatchOutbound delivers outbound messages to their channel handler until
// the context is cancelled. Messages for unknown channels are dropped with a
// log line rather than blocking the loop.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		select {
		case msg := <-b.Outbound:
			b.mu.RLock()
			fn := b.handlers[msg.Channel]
			b.mu.RUnlock()
			if fn == nil {
				log.Printf("[bus] no outbound handler for channel %q", msg.Channel)
				continue
			}
			fn(msg)
		case <-ctx.Done():
			return
		}
	}
}
