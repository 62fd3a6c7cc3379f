package nats

import (
	"github.com/filezingme/BibiChat-sub000/internal/pkg/logger"
)

// Bus pairs a publisher and a subscriber into an events.Bus.
type Bus struct {
	*Publisher
	*Subscriber
}

func NewBus(url string, log logger.ILogger) (*Bus, error) {
	pub, err := NewPublisher(url)
	if err != nil {
		return nil, err
	}
	sub, err := NewSubscriber(url, log)
	if err != nil {
		pub.Close()
		return nil, err
	}
	return &Bus{Publisher: pub, Subscriber: sub}, nil
}

func (b *Bus) Close() error {
	b.Subscriber.Close()
	b.Publisher.Close()
	return nil
}
