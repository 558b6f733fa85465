package events

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/Ayooluwa21/tikker-backend/internal/clock"
	"github.com/Ayooluwa21/tikker-backend/internal/domain"
)

type fakeEventRepo struct {
	events map[uuid.UUID]domain.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[uuid.UUID]domain.Event)}
}

func (r *fakeEventRepo) CreateEvent(ctx context.Context, e domain.Event) error {
	r.events[e.ID] = e
	return nil
}

func (r *fakeEventRepo) GetEvent(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	e, ok := r.events[id]
	if !ok {
		return domain.Event{}, domain.ErrNotFound
	}
	return e, nil
}

func (r *fakeEventRepo) ListEvents(ctx context.Context) ([]domain.Event, error) {
	out := make([]domain.Event, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakeEventRepo) UpdateEvent(ctx context.Context, e domain.Event) error {
	if _, ok := r.events[e.ID]; !ok {
		return domain.ErrNotFound
	}
	r.events[e.ID] = e
	return nil
}

func (r *fakeEventRepo) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

func TestService_Create(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	organizer := domain.Identity{UserID: uuid.New(), Role: domain.RoleOrganizer}
	svc := NewService(newFakeEventRepo(), clock.NewFixed(now))

	e, err := svc.Create(context.Background(), organizer, Input{
		Title: "  Go Conf  ",
		Venue: "Hall A",
		Date:  now.AddDate(0, 1, 0),
		TicketTypes: []domain.TicketType{
			{Name: "GA", Price: 25, Quantity: 200},
			{Name: "VIP", Price: 90, Quantity: 20},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.Title != "Go Conf" {
		t.Fatalf("expected trimmed title, got %q", e.Title)
	}
	if e.OrganizerID != organizer.UserID {
		t.Fatalf("expected organizer %s, got %s", organizer.UserID, e.OrganizerID)
	}

	bad := map[string]Input{
		"missing title":   {TicketTypes: []domain.TicketType{{Name: "GA"}}},
		"blank type name": {Title: "x", TicketTypes: []domain.TicketType{{Name: " "}}},
		"negative price":  {Title: "x", TicketTypes: []domain.TicketType{{Name: "GA", Price: -1}}},
		"negative qty":    {Title: "x", TicketTypes: []domain.TicketType{{Name: "GA", Quantity: -1}}},
		"duplicate name":  {Title: "x", TicketTypes: []domain.TicketType{{Name: "GA"}, {Name: "GA"}}},
	}
	for name, in := range bad {
		if _, err := svc.Create(context.Background(), organizer, in); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Fatalf("%s: expected ErrInvalidRequest, got %v", name, err)
		}
	}

	if _, err := svc.Create(context.Background(), domain.Identity{}, Input{Title: "x"}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestService_UpdateOwnership(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeEventRepo()
	svc := NewService(repo, clock.NewFixed(now))

	owner := domain.Identity{UserID: uuid.New(), Role: domain.RoleOrganizer}
	e, err := svc.Create(context.Background(), owner, Input{Title: "Go Conf", Date: now.AddDate(0, 1, 0)})
	if err != nil {
		t.Fatal(err)
	}

	stranger := domain.Identity{UserID: uuid.New(), Role: domain.RoleOrganizer}
	title := "Hijacked"
	if _, err := svc.Update(context.Background(), stranger, e.ID, UpdateInput{Title: &title}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(context.Background(), stranger, e.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	admin := domain.Identity{UserID: uuid.New(), Role: domain.RoleAdmin}
	renamed := "Go Conf EU"
	updated, err := svc.Update(context.Background(), admin, e.ID, UpdateInput{Title: &renamed})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if updated.Title != "Go Conf EU" {
		t.Fatalf("expected updated title, got %q", updated.Title)
	}

	if err := svc.Delete(context.Background(), owner, e.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), e.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestService_ListOrdersByDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeEventRepo()
	svc := NewService(repo, clock.NewFixed(now))
	organizer := domain.Identity{UserID: uuid.New(), Role: domain.RoleOrganizer}

	for _, months := range []int{3, 1, 2} {
		if _, err := svc.Create(context.Background(), organizer, Input{Title: "e", Date: now.AddDate(0, months, 0)}); err != nil {
			t.Fatal(err)
		}
	}

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(list); i++ {
		if list[i].Date.Before(list[i-1].Date) {
			t.Fatalf("expected events ordered by date ascending")
		}
	}
}
