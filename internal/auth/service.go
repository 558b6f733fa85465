package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ayooluwa21/tikker-backend/internal/clock"
	"github.com/Ayooluwa21/tikker-backend/internal/domain"
)

type Repository interface {
	CreateUser(ctx context.Context, u domain.User) error
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
}

// Service issues and verifies the identities the booking core consumes.
type Service struct {
	repo     Repository
	clock    clock.Clock
	secret   []byte
	tokenTTL time.Duration
}

const defaultTokenTTL = 7 * 24 * time.Hour

func NewService(repo Repository, clk clock.Clock, secret string) *Service {
	return &Service{
		repo:     repo,
		clock:    clk,
		secret:   []byte(secret),
		tokenTTL: defaultTokenTTL,
	}
}

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

type Session struct {
	Token string
	User  domain.User
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return Session{}, domain.ErrInvalidRequest
	}
	if !emailPattern.MatchString(in.Email) {
		return Session{}, errors.Wrap(domain.ErrInvalidRequest, "invalid email")
	}
	if len(in.Password) < 6 {
		return Session{}, errors.Wrap(domain.ErrInvalidRequest, "password must be at least 6 characters")
	}
	switch in.Role {
	case "":
		in.Role = domain.RoleUser
	case domain.RoleUser, domain.RoleOrganizer, domain.RoleAdmin:
	default:
		return Session{}, errors.Wrapf(domain.ErrInvalidRequest, "unknown role %q", in.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, err
	}

	u := domain.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return Session{}, err
	}

	token, err := s.issueToken(u)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: u}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, domain.ErrInvalidRequest
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Session{}, domain.ErrInvalidCredentials
		}
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Session{}, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: u}, nil
}

type claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *Service) issueToken(u domain.User) (string, error) {
	now := s.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})
	return token.SignedString(s.secret)
}

// VerifyToken parses a bearer token back into the identity the booking
// core trusts. Any parse or expiry failure maps to ErrUnauthenticated.
func (s *Service) VerifyToken(tokenString string) (domain.Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Newf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Identity{}, domain.ErrUnauthenticated
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return domain.Identity{UserID: userID, Role: c.Role}, nil
}
