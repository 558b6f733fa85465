package booking

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/Ayooluwa21/tikker-backend/internal/clock"
	"github.com/Ayooluwa21/tikker-backend/internal/domain"
)

// Repository is the durable store the coordinator runs against. The
// function passed to WithTx executes inside a single serializable
// transaction; the returned context carries the transaction and must be
// used for every call made within fn. WithTx returns
// domain.ErrConflict when the store detects a concurrent mutation.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetEventForUpdate(ctx context.Context, eventID uuid.UUID) (domain.Event, error)
	UpdateTicketQuantities(ctx context.Context, eventID uuid.UUID, types []domain.TicketType) error
	CreateBooking(ctx context.Context, b domain.Booking) error
	InsertOutbox(ctx context.Context, msg domain.OutboxMessage) error
	ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
}

// LineItem is one requested ticket type and quantity.
type LineItem struct {
	Name     string
	Quantity int
}

// Service is the reservation coordinator: the only writer of ticket
// inventory. A reservation either commits the decremented inventory
// together with exactly one confirmed booking, or changes nothing.
type Service struct {
	repo  Repository
	clock clock.Clock
}

func NewService(repo Repository, clk clock.Clock) *Service {
	return &Service{repo: repo, clock: clk}
}

// conflictRetries bounds how many times a reservation is re-run after
// the store reports a serialization conflict before the conflict is
// surfaced to the caller.
const conflictRetries = 3

// Reserve validates the request against a single snapshot of the
// event, applies every line's deduction, and persists the mutated
// inventory and the new booking atomically. Any validation failure
// aborts the whole request with no effect.
func (s *Service) Reserve(ctx context.Context, eventID uuid.UUID, identity domain.Identity, lines []LineItem) (domain.Booking, error) {
	if identity.IsZero() {
		return domain.Booking{}, domain.ErrUnauthenticated
	}
	if eventID == uuid.Nil || len(lines) == 0 {
		return domain.Booking{}, domain.ErrInvalidRequest
	}
	for _, line := range lines {
		if strings.TrimSpace(line.Name) == "" || line.Quantity <= 0 {
			return domain.Booking{}, domain.ErrInvalidRequest
		}
	}

	var result domain.Booking
	var err error
	for attempt := 0; attempt <= conflictRetries; attempt++ {
		result, err = s.reserveOnce(ctx, eventID, identity, lines)
		if !errors.Is(err, domain.ErrConflict) {
			break
		}
	}
	return result, err
}

func (s *Service) reserveOnce(ctx context.Context, eventID uuid.UUID, identity domain.Identity, lines []LineItem) (domain.Booking, error) {
	now := s.clock.Now()
	var result domain.Booking

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if event.Date.Before(now) {
			return domain.ErrBookingWindowClosed
		}

		// Evaluate every line against this one snapshot. Deductions
		// accumulate on the local copy so repeated names in a single
		// request draw from the same remaining count.
		var total float64
		tickets := make([]domain.BookingTicket, 0, len(lines))
		for _, line := range lines {
			tt := event.TicketType(line.Name)
			if tt == nil {
				return errors.Wrapf(domain.ErrUnknownTicketType, "ticket type %q", line.Name)
			}
			if tt.Quantity < line.Quantity {
				return errors.Wrapf(domain.ErrInsufficientInventory, "ticket type %q", line.Name)
			}
			tt.Quantity -= line.Quantity
			total += tt.Price * float64(line.Quantity)
			tickets = append(tickets, domain.BookingTicket{
				Name:     tt.Name,
				Price:    tt.Price,
				Quantity: line.Quantity,
			})
		}

		if err := s.repo.UpdateTicketQuantities(txCtx, event.ID, event.TicketTypes); err != nil {
			return err
		}

		b := domain.Booking{
			ID:         uuid.New(),
			UserID:     identity.UserID,
			EventID:    event.ID,
			Tickets:    tickets,
			TotalPrice: total,
			Status:     domain.BookingStatusConfirmed,
			CreatedAt:  now,
		}
		if err := s.repo.CreateBooking(txCtx, b); err != nil {
			return err
		}

		payload, err := json.Marshal(map[string]interface{}{
			"booking_id":  b.ID,
			"event_id":    b.EventID,
			"user_id":     b.UserID,
			"total_price": b.TotalPrice,
		})
		if err != nil {
			return err
		}
		if err := s.repo.InsertOutbox(txCtx, domain.OutboxMessage{
			ID:            uuid.New(),
			AggregateType: "booking",
			AggregateID:   b.ID,
			EventType:     "booking.confirmed",
			Payload:       payload,
			DedupeKey:     b.ID.String(),
		}); err != nil {
			return err
		}

		result = b
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return result, nil
}

// ListByUser returns the caller's committed bookings, newest first,
// each joined with its event's current public data.
func (s *Service) ListByUser(ctx context.Context, identity domain.Identity) ([]domain.Booking, error) {
	if identity.IsZero() {
		return nil, domain.ErrUnauthenticated
	}
	return s.repo.ListBookingsByUser(ctx, identity.UserID)
}
