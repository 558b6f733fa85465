package events

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/Ayooluwa21/tikker-backend/internal/clock"
	"github.com/Ayooluwa21/tikker-backend/internal/domain"
)

type Repository interface {
	CreateEvent(ctx context.Context, e domain.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
	UpdateEvent(ctx context.Context, e domain.Event) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

// Service manages the event catalog. It never touches inventory on the
// booking path; the reservation coordinator is the only decrementer.
type Service struct {
	repo  Repository
	clock clock.Clock
}

func NewService(repo Repository, clk clock.Clock) *Service {
	return &Service{repo: repo, clock: clk}
}

type Input struct {
	Title       string
	Description string
	Venue       string
	Date        time.Time
	TicketTypes []domain.TicketType
}

func validateTicketTypes(types []domain.TicketType) error {
	seen := make(map[string]struct{}, len(types))
	for _, tt := range types {
		if strings.TrimSpace(tt.Name) == "" {
			return errors.Wrap(domain.ErrInvalidRequest, "ticket type name required")
		}
		if tt.Price < 0 {
			return errors.Wrapf(domain.ErrInvalidRequest, "ticket type %q: negative price", tt.Name)
		}
		if tt.Quantity < 0 {
			return errors.Wrapf(domain.ErrInvalidRequest, "ticket type %q: negative quantity", tt.Name)
		}
		if _, dup := seen[tt.Name]; dup {
			return errors.Wrapf(domain.ErrInvalidRequest, "duplicate ticket type %q", tt.Name)
		}
		seen[tt.Name] = struct{}{}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, identity domain.Identity, in Input) (domain.Event, error) {
	if identity.IsZero() {
		return domain.Event{}, domain.ErrUnauthenticated
	}
	if strings.TrimSpace(in.Title) == "" {
		return domain.Event{}, errors.Wrap(domain.ErrInvalidRequest, "title is required")
	}
	if err := validateTicketTypes(in.TicketTypes); err != nil {
		return domain.Event{}, err
	}

	now := s.clock.Now()
	e := domain.Event{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Venue:       in.Venue,
		Date:        in.Date,
		OrganizerID: identity.UserID,
		TicketTypes: in.TicketTypes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateEvent(ctx, e); err != nil {
		return domain.Event{}, err
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	return s.repo.GetEvent(ctx, id)
}

// List returns all events ordered by date ascending.
func (s *Service) List(ctx context.Context) ([]domain.Event, error) {
	return s.repo.ListEvents(ctx)
}

// UpdateInput carries only the fields to change; nil means keep.
type UpdateInput struct {
	Title       *string
	Description *string
	Venue       *string
	Date        *time.Time
	TicketTypes []domain.TicketType
}

func canManage(identity domain.Identity, e domain.Event) bool {
	return identity.Role == domain.RoleAdmin || e.OrganizerID == identity.UserID
}

func (s *Service) Update(ctx context.Context, identity domain.Identity, id uuid.UUID, in UpdateInput) (domain.Event, error) {
	if identity.IsZero() {
		return domain.Event{}, domain.ErrUnauthenticated
	}
	e, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return domain.Event{}, err
	}
	if !canManage(identity, e) {
		return domain.Event{}, domain.ErrForbidden
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return domain.Event{}, errors.Wrap(domain.ErrInvalidRequest, "title is required")
		}
		e.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Venue != nil {
		e.Venue = *in.Venue
	}
	if in.Date != nil {
		e.Date = *in.Date
	}
	if in.TicketTypes != nil {
		if err := validateTicketTypes(in.TicketTypes); err != nil {
			return domain.Event{}, err
		}
		e.TicketTypes = in.TicketTypes
	}
	e.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateEvent(ctx, e); err != nil {
		return domain.Event{}, err
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, identity domain.Identity, id uuid.UUID) error {
	if identity.IsZero() {
		return domain.ErrUnauthenticated
	}
	e, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(identity, e) {
		return domain.ErrForbidden
	}
	return s.repo.DeleteEvent(ctx, id)
}
