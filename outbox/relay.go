// Package outbox moves committed domain events out of the database and into
// the message broker. Mutations insert events in the same transaction as
// their data change; the relay polls pending rows so a broker outage can
// never lose an email that a committed order expects.
package outbox

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"bazario/repository"
)

// Publisher is the broker half of the relay.
type Publisher interface {
	PublishEvent(kind string, body []byte, priority uint8) error
}

const (
	defaultInterval = 2 * time.Second
	batchSize       = 50
	defaultPriority = 5
)

type Relay struct {
	repo      repository.OutboxRepository
	publisher Publisher
	interval  time.Duration
	log       *logrus.Entry
}

func NewRelay(repo repository.OutboxRepository, publisher Publisher) *Relay {
	return &Relay{
		repo:      repo,
		publisher: publisher,
		interval:  defaultInterval,
		log:       logrus.WithField("component", "outbox"),
	}
}

// Run polls until the context is canceled. A failed publish leaves the row
// pending; it is retried on the next tick.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Drain(ctx); err != nil {
				r.log.WithError(err).Warn("outbox drain failed")
			}
		}
	}
}

// Drain publishes one batch of pending records.
func (r *Relay) Drain(ctx context.Context) error {
	records, err := r.repo.FetchPending(ctx, batchSize)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := r.publisher.PublishEvent(rec.Kind, rec.Payload, defaultPriority); err != nil {
			r.log.WithError(err).WithField("event_id", rec.EventID).Warn("publish failed, will retry")
			return err
		}
		if err := r.repo.MarkSent(ctx, rec.ID); err != nil {
			return err
		}
	}
	return nil
}
