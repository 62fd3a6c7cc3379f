package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// ChannelBus is the in-process bus used when no NATS server is configured.
// Nothing is persisted; events published before a subscriber exists are lost.
type ChannelBus struct {
	pubSub *gochannel.GoChannel
	ctx    context.Context
	cancel context.CancelFunc
	onErr  func(eventType string, err error)
}

func NewChannelBus(logger watermill.LoggerAdapter, onErr func(eventType string, err error)) *ChannelBus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	if onErr == nil {
		onErr = func(string, error) {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ChannelBus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger),
		ctx:    ctx,
		cancel: cancel,
		onErr:  onErr,
	}
}

func (b *ChannelBus) Publish(ctx context.Context, event Event) error {
	payload, err := Marshal(event)
	if err != nil {
		return err
	}
	return b.pubSub.Publish(Subject(event.EventType()), message.NewMessage(watermill.NewUUID(), payload))
}

// Subscribe acks every message after the handler runs. The in-process bus has no
// redelivery limit, so handler errors are reported through onErr instead of a nack loop.
func (b *ChannelBus) Subscribe(eventType, durable string, handler Handler) error {
	messages, err := b.pubSub.Subscribe(b.ctx, Subject(eventType))
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			evt, err := Unmarshal(msg.Payload)
			if err != nil {
				b.onErr(eventType, err)
				msg.Ack()
				continue
			}
			if err := handler(msg.Context(), evt); err != nil {
				b.onErr(eventType, err)
			}
			msg.Ack()
		}
	}()
	return nil
}

func (b *ChannelBus) Close() error {
	b.cancel()
	return b.pubSub.Close()
}
