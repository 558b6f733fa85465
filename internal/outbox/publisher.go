package outbox

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Ayooluwa21/tikker-backend/internal/adapters/crdb"
	"github.com/Ayooluwa21/tikker-backend/internal/adapters/rabbit"
	"github.com/Ayooluwa21/tikker-backend/internal/observability"
)

// Publisher drains the outbox table into the broker. Messages stay NEW
// until the broker accepts them, so delivery is at-least-once and
// consumers dedupe on the message id.
type Publisher struct {
	repo      *crdb.Repository
	rabbitPub *rabbit.Publisher
	logger    observability.Logger
	interval  time.Duration
	batchSize int
}

func NewPublisher(repo *crdb.Repository, rabbitPub *rabbit.Publisher, logger observability.Logger) *Publisher {
	return &Publisher{
		repo:      repo,
		rabbitPub: rabbitPub,
		logger:    logger,
		interval:  5 * time.Second,
		batchSize: 50,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *Publisher) sweep(ctx context.Context) {
	msgs, err := p.repo.GetUnpublishedOutbox(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("failed to read outbox: ", err)
		return
	}
	if len(msgs) == 0 {
		observability.OutboxLag.Set(0)
		return
	}
	observability.OutboxLag.Set(time.Since(msgs[0].CreatedAt).Seconds())

	for _, m := range msgs {
		pub := amqp.Publishing{
			MessageId:   m.DedupeKey,
			ContentType: "application/json",
			Body:        m.Payload,
		}
		if err := p.rabbitPub.Publish(ctx, m.EventType, pub); err != nil {
			p.logger.WithField("outbox_id", m.ID).Error("failed to publish: ", err)
			continue
		}
		if err := p.repo.MarkPublished(ctx, m.ID, time.Now().UTC()); err != nil {
			p.logger.WithField("outbox_id", m.ID).Error("failed to mark published: ", err)
		}
	}
}
