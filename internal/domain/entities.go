package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// Identity is the verified caller of a request, as issued by the auth
// layer. A zero UserID means the request is unauthenticated.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}

func (id Identity) IsZero() bool {
	return id.UserID == uuid.Nil
}

type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// TicketType is one priced inventory bucket of an event. Quantity is
// the remaining inventory and never goes below zero.
type TicketType struct {
	Name     string
	Price    float64
	Quantity int
}

type Event struct {
	ID          uuid.UUID
	Title       string
	Description string
	Venue       string
	Date        time.Time
	OrganizerID uuid.UUID
	TicketTypes []TicketType
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TicketType returns the ticket type with the given name, or nil.
func (e *Event) TicketType(name string) *TicketType {
	for i := range e.TicketTypes {
		if e.TicketTypes[i].Name == name {
			return &e.TicketTypes[i]
		}
	}
	return nil
}

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// BookingTicket is a frozen snapshot of a ticket type at booking time.
// Later price or name edits on the event do not touch it.
type BookingTicket struct {
	Name     string
	Price    float64
	Quantity int
}

type Booking struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	EventID    uuid.UUID
	Tickets    []BookingTicket
	TotalPrice float64
	Status     BookingStatus
	CreatedAt  time.Time

	// Event carries the referenced event's current public data when a
	// booking is read back for display. Nil on the write path.
	Event *Event
}
