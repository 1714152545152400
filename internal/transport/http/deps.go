package http

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/water-delivery-api/internal/domain"
	jwtinfra "github.com/water-delivery-api/internal/infrastructure/jwt"
	"github.com/water-delivery-api/internal/infrastructure/smtp"
	"github.com/water-delivery-api/internal/infrastructure/sns"
	"github.com/water-delivery-api/internal/transport/http/handler"
)

// CustomerRepository is the minimal interface the router requires from a customer store.
type CustomerRepository interface {
	Create(ctx context.Context, c *domain.Customer) error
	Get(ctx context.Context, customerID string) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	GetMany(ctx context.Context, customerIDs []string) (map[string]*domain.Customer, error)
	Update(ctx context.Context, customerID string, updates map[string]interface{}) error
}

// AddressRepository is the minimal interface the router requires from an address-book store.
type AddressRepository interface {
	Put(ctx context.Context, a *domain.Address) error
	Get(ctx context.Context, customerID, addressID string) (*domain.Address, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Address, error)
	Update(ctx context.Context, customerID, addressID string, updates map[string]interface{}) error
	Delete(ctx context.Context, customerID, addressID string) error
	SetDefault(ctx context.Context, customerID, addressID string, others []string) error
	CreateAsDefault(ctx context.Context, a *domain.Address, others []string) error
}

// OrderRepository is the minimal interface the router requires from an order store.
type OrderRepository interface {
	Put(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
}

// ChatRepository is the minimal interface the router requires from a chat store.
type ChatRepository interface {
	Append(ctx context.Context, m *domain.ChatMessage) error
	ListMessages(ctx context.Context, customerID string) ([]domain.ChatMessage, error)
	ListThreads(ctx context.Context) ([]domain.ChatThread, error)
	MarkCustomerMessagesRead(ctx context.Context, customerID string, at time.Time) error
}

// AdminNotificationRepository is the minimal interface the router requires from the admin feed store.
type AdminNotificationRepository interface {
	Put(ctx context.Context, n *domain.AdminNotification) error
	List(ctx context.Context, unreadOnly bool) ([]domain.AdminNotification, error)
	CountUnread(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, notificationID string, at time.Time) error
	MarkAllRead(ctx context.Context, at time.Time) (int, error)
}

// CustomerNotificationRepository is the minimal interface the router requires from the customer feed store.
type CustomerNotificationRepository interface {
	Put(ctx context.Context, n *domain.CustomerNotification) error
	ListByCustomer(ctx context.Context, customerID string) ([]domain.CustomerNotification, error)
	MarkRead(ctx context.Context, customerID, notificationID string, at time.Time) error
}

// ObjectStore is the minimal interface the router requires from an object storage backend.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	URL(ctx context.Context, key string) (string, error)
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	CustomerRepo             CustomerRepository
	AddressRepo              AddressRepository
	OrderRepo                OrderRepository
	ChatRepo                 ChatRepository
	AdminNotificationRepo    AdminNotificationRepository
	CustomerNotificationRepo CustomerNotificationRepository
	Cache                    domain.Cache
	ObjectStore              ObjectStore
	Mailer                   smtp.Mailer
	Publisher                sns.Publisher
	// JWTProvider is nil when no admin key is configured; /admin then answers 503.
	JWTProvider *jwtinfra.Provider
	// HealthChecks are pinged by GET /health.
	HealthChecks map[string]handler.Pinger
	Logger       *logrus.Logger
}
