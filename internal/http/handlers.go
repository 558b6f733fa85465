package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	redisadapter "github.com/Ayooluwa21/tikker-backend/internal/adapters/redis"
	"github.com/Ayooluwa21/tikker-backend/internal/auth"
	"github.com/Ayooluwa21/tikker-backend/internal/booking"
	"github.com/Ayooluwa21/tikker-backend/internal/domain"
	"github.com/Ayooluwa21/tikker-backend/internal/events"
	"github.com/Ayooluwa21/tikker-backend/internal/idempotency"
	"github.com/Ayooluwa21/tikker-backend/internal/observability"
)

type Handlers struct {
	logger   observability.Logger
	bookings *booking.Service
	events   *events.Service
	auth     *auth.Service
	cache    *redisadapter.Cache
	idemp    *idempotency.Idempotency
}

func NewHandlers(logger observability.Logger, bookings *booking.Service, eventsSvc *events.Service, authSvc *auth.Service, cache *redisadapter.Cache, idemp *idempotency.Idempotency) *Handlers {
	return &Handlers{
		logger:   logger,
		bookings: bookings,
		events:   eventsSvc,
		auth:     authSvc,
		cache:    cache,
		idemp:    idemp,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type ticketTypeDTO struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type eventDTO struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Venue       string          `json:"venue"`
	Date        time.Time       `json:"date"`
	OrganizerID uuid.UUID       `json:"organizer_id"`
	TicketTypes []ticketTypeDTO `json:"ticket_types"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toEventDTO(e domain.Event) eventDTO {
	dto := eventDTO{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Venue:       e.Venue,
		Date:        e.Date,
		OrganizerID: e.OrganizerID,
		TicketTypes: make([]ticketTypeDTO, 0, len(e.TicketTypes)),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	for _, tt := range e.TicketTypes {
		dto.TicketTypes = append(dto.TicketTypes, ticketTypeDTO{Name: tt.Name, Price: tt.Price, Quantity: tt.Quantity})
	}
	return dto
}

type bookingDTO struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	EventID    uuid.UUID       `json:"event_id"`
	Tickets    []ticketTypeDTO `json:"tickets"`
	TotalPrice float64         `json:"total_price"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	Event      *eventDTO       `json:"event,omitempty"`
}

func toBookingDTO(b domain.Booking) bookingDTO {
	dto := bookingDTO{
		ID:         b.ID,
		UserID:     b.UserID,
		EventID:    b.EventID,
		Tickets:    make([]ticketTypeDTO, 0, len(b.Tickets)),
		TotalPrice: b.TotalPrice,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
	}
	for _, t := range b.Tickets {
		dto.Tickets = append(dto.Tickets, ticketTypeDTO{Name: t.Name, Price: t.Price, Quantity: t.Quantity})
	}
	if b.Event != nil {
		e := toEventDTO(*b.Event)
		dto.Event = &e
	}
	return dto
}
