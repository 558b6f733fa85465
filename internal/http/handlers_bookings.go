package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/Ayooluwa21/tikker-backend/internal/booking"
	"github.com/Ayooluwa21/tikker-backend/internal/domain"
	"github.com/Ayooluwa21/tikker-backend/internal/idempotency"
	"github.com/Ayooluwa21/tikker-backend/internal/observability"
)

// quantity accepts both JSON numbers and numeric strings, rejecting
// anything that does not parse to an integer.
type quantity int

func (q *quantity) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.Wrap(domain.ErrInvalidRequest, "quantity must be an integer")
	}
	*q = quantity(n)
	return nil
}

func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	if existing, err := h.idemp.Get(r.Context(), key); err != nil {
		loggerFrom(r.Context(), h.logger).Warn("idempotency lookup failed: ", err)
	} else if existing != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(existing.Status)
		w.Write(existing.Result)
		return
	}

	var req struct {
		EventID uuid.UUID `json:"event_id"`
		Tickets []struct {
			Name     string   `json:"name"`
			Quantity quantity `json:"quantity"`
		} `json:"tickets"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidRequest)
		return
	}

	lines := make([]booking.LineItem, 0, len(req.Tickets))
	for _, t := range req.Tickets {
		lines = append(lines, booking.LineItem{Name: t.Name, Quantity: int(t.Quantity)})
	}

	b, err := h.bookings.Reserve(r.Context(), req.EventID, identityFrom(r.Context()), lines)
	if err != nil {
		observability.BookingsTotal.WithLabelValues(bookingResult(err)).Inc()
		writeError(w, err)
		return
	}
	observability.BookingsTotal.WithLabelValues("confirmed").Inc()
	for _, t := range b.Tickets {
		observability.TicketsSold.Add(float64(t.Quantity))
	}

	data, _ := json.Marshal(toBookingDTO(b))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(data)

	if err := h.idemp.Set(r.Context(), key, idempotency.Response{Status: http.StatusCreated, Result: data}); err != nil {
		loggerFrom(r.Context(), h.logger).Warn("idempotency store failed: ", err)
	}
}

func bookingResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInsufficientInventory),
		errors.Is(err, domain.ErrUnknownTicketType),
		errors.Is(err, domain.ErrBookingWindowClosed),
		errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrUnauthenticated):
		return "rejected"
	default:
		return "failed"
	}
}

func (h *Handlers) MyBookings(w http.ResponseWriter, r *http.Request) {
	list, err := h.bookings.ListByUser(r.Context(), identityFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]bookingDTO, 0, len(list))
	for _, b := range list {
		dtos = append(dtos, toBookingDTO(b))
	}
	writeJSON(w, http.StatusOK, dtos)
}
