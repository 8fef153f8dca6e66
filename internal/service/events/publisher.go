package events

import (
	"context"

	"github.com/Domenick1991/airledger/internal/clock"
	"github.com/Domenick1991/airledger/internal/kafka"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Publisher sends ledger events after a change has been committed. A
// failed publish is logged and never undoes the change.
type Publisher struct {
	producer           Producer
	ledgerTopic        string
	notificationsTopic string
	clock              clock.Clock
	log                logrus.FieldLogger
}

type PublisherOption func(*Publisher)

func WithNotificationsTopic(topic string) PublisherOption {
	return func(p *Publisher) {
		p.notificationsTopic = topic
	}
}

func WithClock(clk clock.Clock) PublisherOption {
	return func(p *Publisher) {
		p.clock = clk
	}
}

func NewPublisher(producer Producer, ledgerTopic string, log logrus.FieldLogger, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		producer:    producer,
		ledgerTopic: ledgerTopic,
		clock:       clock.NewSystem(),
		log:         log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish stamps the event with an id and time and writes it to the ledger
// topic, then to the notifications topic when one is configured. A nil
// Publisher drops the event.
func (p *Publisher) Publish(ctx context.Context, event kafka.LedgerEvent) {
	if p == nil || p.producer == nil || p.ledgerTopic == "" {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.clock.Now()
	}

	topics := []string{p.ledgerTopic}
	if p.notificationsTopic != "" {
		topics = append(topics, p.notificationsTopic)
	}
	for _, topic := range topics {
		if err := p.producer.Publish(ctx, topic, event.Key(), event); err != nil {
			p.log.WithError(err).WithFields(logrus.Fields{
				"topic":    topic,
				"event":    event.Type,
				"event_id": event.ID,
			}).Warn("failed to publish ledger event")
		}
	}
}
