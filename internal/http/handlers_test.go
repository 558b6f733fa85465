package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisadapter "github.com/Ayooluwa21/tikker-backend/internal/adapters/redis"
	"github.com/Ayooluwa21/tikker-backend/internal/auth"
	"github.com/Ayooluwa21/tikker-backend/internal/booking"
	"github.com/Ayooluwa21/tikker-backend/internal/clock"
	"github.com/Ayooluwa21/tikker-backend/internal/domain"
	"github.com/Ayooluwa21/tikker-backend/internal/events"
	"github.com/Ayooluwa21/tikker-backend/internal/idempotency"
	"github.com/Ayooluwa21/tikker-backend/internal/observability"
	"github.com/Ayooluwa21/tikker-backend/internal/rateLimit"
)

// memStore backs the full router with in-memory state, standing in for
// the crdb repository across all three service interfaces.
type memStore struct {
	mu       sync.Mutex
	users    map[string]domain.User
	events   map[uuid.UUID]domain.Event
	bookings []domain.Booking
	outbox   []domain.OutboxMessage
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[string]domain.User),
		events: make(map[uuid.UUID]domain.Event),
	}
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := make(map[uuid.UUID]domain.Event, len(s.events))
	for id, e := range s.events {
		tts := make([]domain.TicketType, len(e.TicketTypes))
		copy(tts, e.TicketTypes)
		e.TicketTypes = tts
		saved[id] = e
	}
	savedBookings := len(s.bookings)
	savedOutbox := len(s.outbox)

	if err := fn(ctx); err != nil {
		s.events = saved
		s.bookings = s.bookings[:savedBookings]
		s.outbox = s.outbox[:savedOutbox]
		return err
	}
	return nil
}

func (s *memStore) GetEventForUpdate(ctx context.Context, eventID uuid.UUID) (domain.Event, error) {
	e, ok := s.events[eventID]
	if !ok {
		return domain.Event{}, domain.ErrNotFound
	}
	tts := make([]domain.TicketType, len(e.TicketTypes))
	copy(tts, e.TicketTypes)
	e.TicketTypes = tts
	return e, nil
}

func (s *memStore) UpdateTicketQuantities(ctx context.Context, eventID uuid.UUID, types []domain.TicketType) error {
	e, ok := s.events[eventID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, tt := range types {
		updated := false
		for i := range e.TicketTypes {
			if e.TicketTypes[i].Name == tt.Name {
				e.TicketTypes[i].Quantity = tt.Quantity
				updated = true
			}
		}
		if !updated {
			return domain.ErrUnknownTicketType
		}
	}
	s.events[eventID] = e
	return nil
}

func (s *memStore) CreateBooking(ctx context.Context, b domain.Booking) error {
	s.bookings = append(s.bookings, b)
	return nil
}

func (s *memStore) InsertOutbox(ctx context.Context, msg domain.OutboxMessage) error {
	s.outbox = append(s.outbox, msg)
	return nil
}

func (s *memStore) ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Booking
	for _, b := range s.bookings {
		if b.UserID != userID {
			continue
		}
		if e, ok := s.events[b.EventID]; ok {
			ev := e
			b.Event = &ev
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) CreateEvent(ctx context.Context, e domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
	return nil
}

func (s *memStore) GetEvent(ctx context.Context, id uuid.UUID) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return domain.Event{}, domain.ErrNotFound
	}
	return e, nil
}

func (s *memStore) ListEvents(ctx context.Context) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *memStore) UpdateEvent(ctx context.Context, e domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; !ok {
		return domain.ErrNotFound
	}
	s.events[e.ID] = e
	return nil
}

func (s *memStore) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, id)
	return nil
}

func (s *memStore) CreateUser(ctx context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Email]; ok {
		return domain.ErrEmailTaken
	}
	s.users[u.Email] = u
	return nil
}

func (s *memStore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

// newTestServer wires the real router over memStore. The redis client
// points at a closed port, so cache, idempotency and rate limiting all
// degrade the way they do when redis is down.
func newTestServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()

	store := newMemStore()
	logger := observability.NewLogger()
	clk := clock.NewSystem()

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { redisClient.Close() })
	cache := redisadapter.NewCache(redisClient, time.Minute)
	idemp := idempotency.New(redisadapter.NewIdempotency(redisClient), time.Hour)
	rl := rateLimit.New(cache)

	authSvc := auth.NewService(store, clk, "test-secret")
	handlers := NewHandlers(logger, booking.NewService(store, clk), events.NewService(store, clk), authSvc, cache, idemp)

	srv := httptest.NewServer(SetupRouter(handlers, logger, authSvc, rl))
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url, token string, body interface{}, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func register(t *testing.T, url, name, email, role string) sessionResponse {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, url+"/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret123", "role": role,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var sess sessionResponse
	require.NoError(t, json.Unmarshal(body, &sess))
	return sess
}

func TestAPI_AuthFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	sess := register(t, srv.URL, "Ada", "Ada@Example.com", "")
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "ada@example.com", sess.User.Email)
	assert.Equal(t, domain.RoleUser, sess.User.Role)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "secret123",
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong-pass",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"name": "Ada II", "email": "ada@example.com", "password": "secret123",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_EventLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	organizer := register(t, srv.URL, "Org", "org@example.com", "organizer")
	stranger := register(t, srv.URL, "Eve", "eve@example.com", "")

	create := map[string]interface{}{
		"title": "Go Conf",
		"venue": "Hall A",
		"date":  time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"ticket_types": []map[string]interface{}{
			{"name": "GA", "price": 10.0, "quantity": 100},
		},
	}

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/events", "", create, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/events", organizer.Token, create, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created eventDTO
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, organizer.User.ID, created.OrganizerID)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/events/"+created.ID.String(), "", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched eventDTO
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, "Go Conf", fetched.Title)

	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/api/events/"+created.ID.String(), stranger.Token,
		map[string]string{"title": "Hijacked"}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = doJSON(t, http.MethodPut, srv.URL+"/api/events/"+created.ID.String(), organizer.Token,
		map[string]string{"title": "Go Conf 2026"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, "Go Conf 2026", fetched.Title)
	assert.Len(t, fetched.TicketTypes, 1)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/events/"+created.ID.String(), stranger.Token, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/events/"+created.ID.String(), organizer.Token, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/events/"+created.ID.String(), "", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func seedHTTPEvent(t *testing.T, store *memStore, quantity int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	err := store.CreateEvent(context.Background(), domain.Event{
		ID:          id,
		Title:       "Show",
		Venue:       "Hall B",
		Date:        time.Now().Add(24 * time.Hour),
		OrganizerID: uuid.New(),
		TicketTypes: []domain.TicketType{
			{Name: "GA", Price: 10, Quantity: quantity},
			{Name: "VIP", Price: 50, Quantity: 5},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
	require.NoError(t, err)
	return id
}

func TestAPI_CreateBooking(t *testing.T) {
	srv, store := newTestServer(t)
	user := register(t, srv.URL, "Bea", "bea@example.com", "")
	eventID := seedHTTPEvent(t, store, 10)

	idempKey := map[string]string{"Idempotency-Key": "0123456789abcdef"}
	reqBody := map[string]interface{}{
		"event_id": eventID,
		"tickets": []map[string]interface{}{
			{"name": "GA", "quantity": 2},
			{"name": "VIP", "quantity": "1"},
		},
	}

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/bookings", "", reqBody, idempKey)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/bookings", user.Token, reqBody, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing Idempotency-Key")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/bookings", user.Token, reqBody, idempKey)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var b bookingDTO
	require.NoError(t, json.Unmarshal(body, &b))
	assert.Equal(t, user.User.ID, b.UserID)
	assert.Equal(t, 70.0, b.TotalPrice)
	assert.Equal(t, string(domain.BookingStatusConfirmed), string(b.Status))

	e, err := store.GetEvent(context.Background(), eventID)
	require.NoError(t, err)
	assert.Equal(t, 8, e.TicketType("GA").Quantity)
	assert.Equal(t, 4, e.TicketType("VIP").Quantity)
	assert.Len(t, store.outbox, 1)

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/bookings", user.Token, map[string]interface{}{
		"event_id": eventID,
		"tickets":  []map[string]interface{}{{"name": "GA", "quantity": 100}},
	}, idempKey)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/bookings", user.Token, map[string]interface{}{
		"event_id": eventID,
		"tickets":  []map[string]interface{}{{"name": "Backstage", "quantity": 1}},
	}, idempKey)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Backstage")

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/bookings", user.Token, map[string]interface{}{
		"event_id": uuid.New(),
		"tickets":  []map[string]interface{}{{"name": "GA", "quantity": 1}},
	}, idempKey)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_MyBookings(t *testing.T) {
	srv, store := newTestServer(t)
	user := register(t, srv.URL, "Cal", "cal@example.com", "")
	other := register(t, srv.URL, "Dee", "dee@example.com", "")
	eventID := seedHTTPEvent(t, store, 10)

	for i := 0; i < 2; i++ {
		resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/bookings", user.Token, map[string]interface{}{
			"event_id": eventID,
			"tickets":  []map[string]interface{}{{"name": "GA", "quantity": 1}},
		}, map[string]string{"Idempotency-Key": fmt.Sprintf("key-%d-abcdefghij", i)})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	}

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/bookings/my-bookings", user.Token, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine []bookingDTO
	require.NoError(t, json.Unmarshal(body, &mine))
	require.Len(t, mine, 2)
	for _, b := range mine {
		assert.Equal(t, user.User.ID, b.UserID)
		require.NotNil(t, b.Event)
		assert.Equal(t, "Show", b.Event.Title)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/bookings/my-bookings", other.Token, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var none []bookingDTO
	require.NoError(t, json.Unmarshal(body, &none))
	assert.Empty(t, none)
}

func TestAPI_Health(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}
