package bus

import (
	"context"
	"testing"
	"time"
)

func TestSessionKey(t *testing.T) {
	m := InboundMessage{Channel: "telegram", ChatID: 42}
	if got := m.SessionKey(); got != "telegram:42" {
		t.Errorf("SessionKey = %q", got)
	}
}

func TestDispatchOutbound_RoutesToHandler(t *testing.T) {
	b := NewMessageBus(4)
	got := make(chan OutboundMessage, 1)
	b.SubscribeOutbound("telegram", func(msg OutboundMessage) {
		got <- msg
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.DispatchOutbound(ctx)

	b.Outbound <- OutboundMessage{Channel: "telegram", ChatID: 1, Text: "привет"}

	select {
	case msg := <-got:
		if msg.Text != "привет" {
			t.Errorf("Text = %q", msg.Text)
		}
	case <-time.After(time.Second):
		t.Fatal("handler not invoked")
	}
}

func TestDispatchOutbound_UnknownChannelDropped(t *testing.T) {
	b := NewMessageBus(4)
	got := make(chan OutboundMessage, 2)
	b.SubscribeOutbound("telegram", func(msg OutboundMessage) {
		got <- msg
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.DispatchOutbound(ctx)

	// The unknown-channel message must not wedge the loop.
	b.Outbound <- OutboundMessage{Channel: "nosuch", ChatID: 1, Text: "пропадает"}
	b.Outbound <- OutboundMessage{Channel: "telegram", ChatID: 1, Text: "доходит"}

	select {
	case msg := <-got:
		if msg.Text != "доходит" {
			t.Errorf("Text = %q", msg.Text)
		}
	case <-time.After(time.Second):
		t.Fatal("dispatch stalled on unknown channel")
	}
}
