package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Ayooluwa21/tikker-backend/internal/domain"
	"github.com/Ayooluwa21/tikker-backend/internal/events"
)

type ticketTypeInput struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

func toTicketTypes(in []ticketTypeInput) []domain.TicketType {
	if in == nil {
		return nil
	}
	out := make([]domain.TicketType, 0, len(in))
	for _, tt := range in {
		out = append(out, domain.TicketType{Name: tt.Name, Price: tt.Price, Quantity: tt.Quantity})
	}
	return out
}

func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	list, err := h.events.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]eventDTO, 0, len(list))
	for _, e := range list {
		dtos = append(dtos, toEventDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidRequest)
		return
	}

	if cached, err := h.cache.GetEvent(r.Context(), id.String()); err != nil {
		loggerFrom(r.Context(), h.logger).Warn("event cache read failed: ", err)
	} else if cached != nil {
		writeJSON(w, http.StatusOK, toEventDTO(*cached))
		return
	}

	e, err := h.events.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.cache.SetEvent(r.Context(), e); err != nil {
		loggerFrom(r.Context(), h.logger).Warn("event cache write failed: ", err)
	}
	writeJSON(w, http.StatusOK, toEventDTO(e))
}

func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string            `json:"title"`
		Description string            `json:"description"`
		Venue       string            `json:"venue"`
		Date        time.Time         `json:"date"`
		TicketTypes []ticketTypeInput `json:"ticket_types"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidRequest)
		return
	}

	e, err := h.events.Create(r.Context(), identityFrom(r.Context()), events.Input{
		Title:       req.Title,
		Description: req.Description,
		Venue:       req.Venue,
		Date:        req.Date,
		TicketTypes: toTicketTypes(req.TicketTypes),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(e))
}

func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidRequest)
		return
	}

	var req struct {
		Title       *string           `json:"title"`
		Description *string           `json:"description"`
		Venue       *string           `json:"venue"`
		Date        *time.Time        `json:"date"`
		TicketTypes []ticketTypeInput `json:"ticket_types"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidRequest)
		return
	}

	e, err := h.events.Update(r.Context(), identityFrom(r.Context()), id, events.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Venue:       req.Venue,
		Date:        req.Date,
		TicketTypes: toTicketTypes(req.TicketTypes),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.cache.InvalidateEvent(r.Context(), id.String()); err != nil {
		loggerFrom(r.Context(), h.logger).Warn("event cache invalidation failed: ", err)
	}
	writeJSON(w, http.StatusOK, toEventDTO(e))
}

func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidRequest)
		return
	}

	if err := h.events.Delete(r.Context(), identityFrom(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	if err := h.cache.InvalidateEvent(r.Context(), id.String()); err != nil {
		loggerFrom(r.Context(), h.logger).Warn("event cache invalidation failed: ", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "event deleted"})
}
