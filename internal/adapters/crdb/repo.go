package crdb

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ayooluwa21/tikker-backend/internal/domain"
	"github.com/Ayooluwa21/tikker-backend/internal/observability"
)

const (
	serializationFailureCode = "40001"
	uniqueViolationCode      = "23505"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txKey struct{}

func txFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

// querier is satisfied by both the pool and a transaction, so every
// query method works inside and outside WithTx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *Repository) q(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == serializationFailureCode
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// WithTx runs fn inside one SERIALIZABLE transaction carried through
// the context. A serialization failure, whether raised mid-transaction
// or at commit, comes back as domain.ErrConflict so callers can retry
// the whole operation.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	start := time.Now()
	defer func() {
		observability.DBTxDuration.Observe(time.Since(start).Seconds())
	}()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if isSerializationFailure(err) {
			return domain.ErrConflict
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			return domain.ErrConflict
		}
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

// GetEventForUpdate loads the event and its ticket types, locking the
// inventory rows for the rest of the transaction.
func (r *Repository) GetEventForUpdate(ctx context.Context, eventID uuid.UUID) (domain.Event, error) {
	q := r.q(ctx)

	var e domain.Event
	err := q.QueryRow(ctx, `
		SELECT id, title, description, venue, date, organizer_id, created_at, updated_at
		FROM events WHERE id = $1 FOR UPDATE
	`, eventID).Scan(&e.ID, &e.Title, &e.Description, &e.Venue, &e.Date, &e.OrganizerID, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Event{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Event{}, errors.Wrap(err, "get event")
	}

	rows, err := q.Query(ctx, `
		SELECT name, price, quantity
		FROM ticket_types WHERE event_id = $1 ORDER BY position FOR UPDATE
	`, eventID)
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

// UpdateTicketQuantities persists new remaining quantities for the
// event's ticket types. The quantity >= 0 check stays in the schema as
// a last line against oversell.
func (r *Repository) UpdateTicketQuantities(ctx context.Context, eventID uuid.UUID, types []domain.TicketType) error {
	q := r.q(ctx)
	for _, tt := range types {
		tag, err := q.Exec(ctx, `
			UPDATE ticket_types SET quantity = $3 WHERE event_id = $1 AND name = $2
		`, eventID, tt.Name, tt.Quantity)
		if err != nil {
			return errors.Wrapf(err, "update ticket type %q", tt.Name)
		}
		if tag.RowsAffected() == 0 {
			return errors.Wrapf(domain.ErrUnknownTicketType, "ticket type %q", tt.Name)
		}
	}
	return nil
}

func (r *Repository) CreateBooking(ctx context.Context, b domain.Booking) error {
	q := r.q(ctx)
	_, err := q.Exec(ctx, `
		INSERT INTO bookings (id, user_id, event_id, total_price, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, b.ID, b.UserID, b.EventID, b.TotalPrice, b.Status, b.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "insert booking")
	}
	for i, t := range b.Tickets {
		_, err := q.Exec(ctx, `
			INSERT INTO booking_tickets (booking_id, position, name, price, quantity)
			VALUES ($1, $2, $3, $4, $5)
		`, b.ID, i, t.Name, t.Price, t.Quantity)
		if err != nil {
			return errors.Wrap(err, "insert booking ticket")
		}
	}
	return nil
}

// ListBookingsByUser returns the user's bookings newest first, each
// joined with the current state of its event. Bookings outlive their
// event, so the join is a left one.
func (r *Repository) ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	q := r.q(ctx)

	rows, err := q.Query(ctx, `
		SELECT b.id, b.event_id, b.total_price, b.status, b.created_at,
		       e.id, e.title, e.description, e.venue, e.date, e.organizer_id, e.created_at, e.updated_at
		FROM bookings b
		LEFT JOIN events e ON e.id = b.event_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC, b.id
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list bookings")
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b := domain.Booking{UserID: userID}
		var e domain.Event
		var eventID *uuid.UUID
		var title, description, venue *string
		var date, createdAt, updatedAt *time.Time
		var organizerID *uuid.UUID
		if err := rows.Scan(&b.ID, &b.EventID, &b.TotalPrice, &b.Status, &b.CreatedAt,
			&eventID, &title, &description, &venue, &date, &organizerID, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if eventID != nil {
			e = domain.Event{ID: *eventID, Title: *title, Description: *description, Venue: *venue,
				Date: *date, OrganizerID: *organizerID, CreatedAt: *createdAt, UpdatedAt: *updatedAt}
			b.Event = &e
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachBookingTickets(ctx, bookings); err != nil {
		return nil, err
	}
	if err := r.attachEventTicketTypes(ctx, bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *Repository) attachBookingTickets(ctx context.Context, bookings []domain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(bookings))
	index := make(map[uuid.UUID]*domain.Booking, len(bookings))
	for i := range bookings {
		ids[i] = bookings[i].ID
		index[bookings[i].ID] = &bookings[i]
	}

	rows, err := r.q(ctx).Query(ctx, `
		SELECT booking_id, name, price, quantity
		FROM booking_tickets WHERE booking_id = ANY($1) ORDER BY booking_id, position
	`, ids)
	if err != nil {
		return errors.Wrap(err, "list booking tickets")
	}
	defer rows.Close()

	for rows.Next() {
		var bookingID uuid.UUID
		var t domain.BookingTicket
		if err := rows.Scan(&bookingID, &t.Name, &t.Price, &t.Quantity); err != nil {
			return err
		}
		if b, ok := index[bookingID]; ok {
			b.Tickets = append(b.Tickets, t)
		}
	}
	return rows.Err()
}

func (r *Repository) attachEventTicketTypes(ctx context.Context, bookings []domain.Booking) error {
	events := make(map[uuid.UUID][]*domain.Event)
	var ids []uuid.UUID
	for i := range bookings {
		if e := bookings[i].Event; e != nil {
			if _, seen := events[e.ID]; !seen {
				ids = append(ids, e.ID)
			}
			events[e.ID] = append(events[e.ID], e)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	rows, err := r.q(ctx).Query(ctx, `
		SELECT event_id, name, price, quantity
		FROM ticket_types WHERE event_id = ANY($1) ORDER BY event_id, position
	`, ids)
	if err != nil {
		return errors.Wrap(err, "list event ticket types")
	}
	defer rows.Close()

	for rows.Next() {
		var eventID uuid.UUID
		var tt domain.TicketType
		if err := rows.Scan(&eventID, &tt.Name, &tt.Price, &tt.Quantity); err != nil {
			return err
		}
		for _, e := range events[eventID] {
			e.TicketTypes = append(e.TicketTypes, tt)
		}
	}
	return rows.Err()
}
