package crdb

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Ayooluwa21/tikker-backend/internal/domain"
)

func (r *Repository) CreateEvent(ctx context.Context, e domain.Event) error {
	return r.WithTx(ctx, func(txCtx context.Context) error {
		q := r.q(txCtx)
		_, err := q.Exec(txCtx, `
			INSERT INTO events (id, title, description, venue, date, organizer_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, e.ID, e.Title, e.Description, e.Venue, e.Date, e.OrganizerID, e.CreatedAt, e.UpdatedAt)
		if err != nil {
			return errors.Wrap(err, "insert event")
		}
		return r.insertTicketTypes(txCtx, e.ID, e.TicketTypes)
	})
}

func (r *Repository) insertTicketTypes(ctx context.Context, eventID uuid.UUID, types []domain.TicketType) error {
	q := r.q(ctx)
	for i, tt := range types {
		_, err := q.Exec(ctx, `
			INSERT INTO ticket_types (event_id, name, price, quantity, position)
			VALUES ($1, $2, $3, $4, $5)
		`, eventID, tt.Name, tt.Price, tt.Quantity, i)
		if err != nil {
			if isUniqueViolation(err) {
				return errors.Wrapf(domain.ErrInvalidRequest, "duplicate ticket type %q", tt.Name)
			}
			return errors.Wrap(err, "insert ticket type")
		}
	}
	return nil
}

func (r *Repository) GetEvent(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	q := r.q(ctx)

	var e domain.Event
	err := q.QueryRow(ctx, `
		SELECT id, title, description, venue, date, organizer_id, created_at, updated_at
		FROM events WHERE id = $1
	`, id).Scan(&e.ID, &e.Title, &e.Description, &e.Venue, &e.Date, &e.OrganizerID, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Event{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Event{}, errors.Wrap(err, "get event")
	}

	rows, err := q.Query(ctx, `
		SELECT name, price, quantity FROM ticket_types WHERE event_id = $1 ORDER BY position
	`, id)
	if err != nil {
		return domain.Event{}, errors.Wrap(err, "get ticket types")
	}
	defer rows.Close()
	for rows.Next() {
		var tt domain.TicketType
		if err := rows.Scan(&tt.Name, &tt.Price, &tt.Quantity); err != nil {
			return domain.Event{}, err
		}
		e.TicketTypes = append(e.TicketTypes, tt)
	}
	return e, rows.Err()
}

func (r *Repository) ListEvents(ctx context.Context) ([]domain.Event, error) {
	q := r.q(ctx)

	rows, err := q.Query(ctx, `
		SELECT id, title, description, venue, date, organizer_id, created_at, updated_at
		FROM events ORDER BY date ASC, id
	`)
	if err != nil {
		return nil, errors.Wrap(err, "list events")
	}
	defer rows.Close()

	var events []domain.Event
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Venue, &e.Date, &e.OrganizerID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		index[e.ID] = len(events)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return events, nil
	}

	ids := make([]uuid.UUID, 0, len(events))
	for id := range index {
		ids = append(ids, id)
	}
	ttRows, err := q.Query(ctx, `
		SELECT event_id, name, price, quantity
		FROM ticket_types WHERE event_id = ANY($1) ORDER BY event_id, position
	`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "list ticket types")
	}
	defer ttRows.Close()
	for ttRows.Next() {
		var eventID uuid.UUID
		var tt domain.TicketType
		if err := ttRows.Scan(&eventID, &tt.Name, &tt.Price, &tt.Quantity); err != nil {
			return nil, err
		}
		i := index[eventID]
		events[i].TicketTypes = append(events[i].TicketTypes, tt)
	}
	return events, ttRows.Err()
}

// UpdateEvent replaces the event row and its ticket types wholesale.
// The booking path never goes through here; a concurrent reservation
// holding the inventory rows serializes against this rewrite.
func (r *Repository) UpdateEvent(ctx context.Context, e domain.Event) error {
	return r.WithTx(ctx, func(txCtx context.Context) error {
		q := r.q(txCtx)
		tag, err := q.Exec(txCtx, `
			UPDATE events SET title = $2, description = $3, venue = $4, date = $5, updated_at = $6
			WHERE id = $1
		`, e.ID, e.Title, e.Description, e.Venue, e.Date, e.UpdatedAt)
		if err != nil {
			return errors.Wrap(err, "update event")
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		if _, err := q.Exec(txCtx, `DELETE FROM ticket_types WHERE event_id = $1`, e.ID); err != nil {
			return errors.Wrap(err, "clear ticket types")
		}
		return r.insertTicketTypes(txCtx, e.ID, e.TicketTypes)
	})
}

func (r *Repository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q(ctx).Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete event")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
