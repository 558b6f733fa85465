package auth

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/Ayooluwa21/tikker-backend/internal/clock"
	"github.com/Ayooluwa21/tikker-backend/internal/domain"
)

type fakeUserRepo struct {
	byEmail map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]domain.User)}
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, u domain.User) error {
	if _, ok := r.byEmail[u.Email]; ok {
		return domain.ErrEmailTaken
	}
	r.byEmail[u.Email] = u
	return nil
}

func (r *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func TestService_RegisterLoginVerify(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(newFakeUserRepo(), clock.NewFixed(now), "test-secret")

	sess, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Ada",
		Email:    "Ada@Example.com",
		Password: "hunter22",
		Role:     domain.RoleOrganizer,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sess.User.Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %q", sess.User.Email)
	}
	if sess.User.PasswordHash == "hunter22" {
		t.Fatal("password stored in the clear")
	}

	identity, err := svc.VerifyToken(sess.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.UserID != sess.User.ID || identity.Role != domain.RoleOrganizer {
		t.Fatalf("unexpected identity %+v", identity)
	}

	login, err := svc.Login(context.Background(), "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User.ID != sess.User.ID {
		t.Fatalf("expected same user, got %s", login.User.ID)
	}

	if _, err := svc.Login(context.Background(), "ada@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "hunter22"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeUserRepo()
	svc := NewService(repo, clock.NewFixed(now), "test-secret")

	cases := map[string]RegisterInput{
		"missing name":   {Email: "a@b.co", Password: "secret1"},
		"bad email":      {Name: "Ada", Email: "not-an-email", Password: "secret1"},
		"short password": {Name: "Ada", Email: "a@b.co", Password: "abc"},
		"unknown role":   {Name: "Ada", Email: "a@b.co", Password: "secret1", Role: "superuser"},
	}
	for name, in := range cases {
		if _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Fatalf("%s: expected ErrInvalidRequest, got %v", name, err)
		}
	}

	ok := RegisterInput{Name: "Ada", Email: "a@b.co", Password: "secret1"}
	sess, err := svc.Register(context.Background(), ok)
	if err != nil {
		t.Fatal(err)
	}
	if sess.User.Role != domain.RoleUser {
		t.Fatalf("expected default role user, got %s", sess.User.Role)
	}

	if _, err := svc.Register(context.Background(), ok); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestService_VerifyToken_Garbage(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeUserRepo(), clock.NewSystem(), "test-secret")
	if _, err := svc.VerifyToken("not.a.token"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	other := NewService(newFakeUserRepo(), clock.NewSystem(), "other-secret")
	sess, err := other.Register(context.Background(), RegisterInput{Name: "Eve", Email: "eve@b.co", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.VerifyToken(sess.Token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for foreign signature, got %v", err)
	}
}
