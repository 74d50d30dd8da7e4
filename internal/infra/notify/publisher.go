// Package notify provides billing.Publisher implementations: a structured-log
// sink and a fan-out combinator. The Telegram sink lives in infra/telegram.
package notify

import (
	"context"

	"billvault/internal/domain/billing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LogPublisher writes every engine event to the structured log. Each emission
// gets its own notification ID so downstream log tooling can deduplicate.
type LogPublisher struct {
	log *logrus.Logger
}

func NewLogPublisher(log *logrus.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, event billing.Event) {
	p.log.WithFields(logrus.Fields{
		"event":           event.EventName(),
		"notification_id": uuid.NewString(),
		"payload":         event,
	}).Info("engine event")
}

// MultiPublisher fans an event out to several sinks.
type MultiPublisher struct {
	sinks []billing.Publisher
}

func NewMultiPublisher(sinks ...billing.Publisher) *MultiPublisher {
	return &MultiPublisher{sinks: sinks}
}

func (p *MultiPublisher) Publish(ctx context.Context, event billing.Event) {
	for _, sink := range p.sinks {
		sink.Publish(ctx, event)
	}
}
