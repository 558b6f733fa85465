package crdb

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/Ayooluwa21/tikker-backend/internal/domain"
)

// InsertOutbox stages a message inside the caller's transaction so it
// commits or aborts together with the state change it describes.
func (r *Repository) InsertOutbox(ctx context.Context, msg domain.OutboxMessage) error {
	_, err := r.q(ctx).Exec(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload_json, status, dedupe_key)
		VALUES ($1, $2, $3, $4, $5, 'NEW', $6)
	`, msg.ID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.Payload, msg.DedupeKey)
	if err != nil {
		return errors.Wrap(err, "insert outbox")
	}
	return nil
}

// GetUnpublishedOutbox claims a batch of NEW messages, skipping rows
// another publisher instance already holds.
func (r *Repository) GetUnpublishedOutbox(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload_json, created_at, published_at, status, dedupe_key
		FROM outbox WHERE status = 'NEW' ORDER BY created_at ASC LIMIT $1 FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "get unpublished outbox")
	}
	defer rows.Close()

	var msgs []domain.OutboxMessage
	for rows.Next() {
		var m domain.OutboxMessage
		if err := rows.Scan(&m.ID, &m.AggregateType, &m.AggregateID, &m.EventType, &m.Payload,
			&m.CreatedAt, &m.PublishedAt, &m.Status, &m.DedupeKey); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *Repository) MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error {
	_, err := r.q(ctx).Exec(ctx, `
		UPDATE outbox SET status = 'PUBLISHED', published_at = $2 WHERE id = $1
	`, id, publishedAt)
	if err != nil {
		return errors.Wrap(err, "mark outbox published")
	}
	return nil
}
