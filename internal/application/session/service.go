package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/water-delivery-api/internal/domain"
	pkgtoken "github.com/water-delivery-api/internal/pkg/token"
	"github.com/water-delivery-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Service interface {
	// Login checks credentials and opens a new session. Existing sessions
	// of the customer stay valid.
	Login(ctx context.Context, req LoginRequest) (*domain.Customer, string, error)
	// Logout forgets token. Unknown or empty tokens are not an error.
	Logout(ctx context.Context, token string) error
	// Authenticate resolves a session token to its customer.
	Authenticate(ctx context.Context, token string) (*domain.Customer, error)
}

type customerStore interface {
	Get(ctx context.Context, customerID string) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
}

type service struct {
	customers customerStore
	cache     domain.Cache
	logger    *logrus.Logger
}

type ServiceDeps struct {
	CustomerRepo customerStore
	Cache        domain.Cache
	Logger       *logrus.Logger
}

func NewService(deps ServiceDeps) Service {
	return &service{
		customers: deps.CustomerRepo,
		cache:     deps.Cache,
		logger:    deps.Logger,
	}
}

// dummyHash is compared against for unknown emails so both credential
// failures cost one bcrypt round.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("water-delivery-dummy"), bcrypt.DefaultCost)

func (s *service) Login(ctx context.Context, req LoginRequest) (*domain.Customer, string, error) {
	if err := validate.Struct(req); err != nil {
		return nil, "", err
	}
	c, err := s.customers.GetByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
		return nil, "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(req.Password)) != nil {
		return nil, "", domain.ErrInvalidCredentials
	}
	if !c.IsVerified() {
		return c, "", domain.ErrUnverified
	}

	token, err := pkgtoken.New()
	if err != nil {
		return nil, "", err
	}
	if err := s.cache.Put(ctx, domain.SessionKey(token), c.CustomerID, domain.SessionTTL); err != nil {
		return nil, "", fmt.Errorf("store session: %w", err)
	}
	return c, token, nil
}

func (s *service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.cache.Forget(ctx, domain.SessionKey(token))
}

func (s *service) Authenticate(ctx context.Context, token string) (*domain.Customer, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	customerID, err := s.cache.Get(ctx, domain.SessionKey(token))
	if errors.Is(err, domain.ErrCacheMiss) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	c, err := s.customers.Get(ctx, customerID)
	if errors.Is(err, domain.ErrNotFound) {
		if ferr := s.cache.Forget(ctx, domain.SessionKey(token)); ferr != nil {
			s.logger.WithError(ferr).WithField("customer_id", customerID).Warn("could not evict orphaned session")
		}
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
