package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/water-delivery-api/internal/domain"
	"github.com/water-delivery-api/internal/pkg/id"
	"github.com/water-delivery-api/internal/pkg/page"
)

// Page sizes for notification feeds.
const (
	DefaultPerPage = 20
	MaxPerPage     = 50
)

// AdminEvent describes something the admin dashboard should hear about.
type AdminEvent struct {
	Type        string
	Title       string
	Message     string
	CustomerID  string
	RelatedType string
	RelatedID   string
	Data        map[string]string
}

// AdminPage is one page of the admin feed.
type AdminPage struct {
	Items       []domain.AdminNotification
	Meta        page.Meta
	UnreadCount int
}

type Service interface {
	// NotifyAdmin records e in the admin feed and publishes it to the admin
	// topic. Failures are logged, never returned.
	NotifyAdmin(ctx context.Context, e AdminEvent)
	// NotifyCustomer records n in the customer's feed. Failures are logged.
	NotifyCustomer(ctx context.Context, n *domain.CustomerNotification)

	ListAdmin(ctx context.Context, unreadOnly bool, p page.Params) (*AdminPage, error)
	AdminUnreadCount(ctx context.Context) (int, error)
	MarkAdminRead(ctx context.Context, notificationID string) error
	MarkAllAdminRead(ctx context.Context) (int, error)

	ListCustomer(ctx context.Context, customerID string, p page.Params) ([]domain.CustomerNotification, page.Meta, error)
	MarkCustomerRead(ctx context.Context, customerID, notificationID string) error
}

type adminStore interface {
	Put(ctx context.Context, n *domain.AdminNotification) error
	List(ctx context.Context, unreadOnly bool) ([]domain.AdminNotification, error)
	CountUnread(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, notificationID string, at time.Time) error
	MarkAllRead(ctx context.Context, at time.Time) (int, error)
}

type customerStore interface {
	Put(ctx context.Context, n *domain.CustomerNotification) error
	ListByCustomer(ctx context.Context, customerID string) ([]domain.CustomerNotification, error)
	MarkRead(ctx context.Context, customerID, notificationID string, at time.Time) error
}

type publisher interface {
	Publish(ctx context.Context, subject, message string) error
}

type service struct {
	admin     adminStore
	customers customerStore
	publisher publisher
	logger    *logrus.Logger
	now       func() time.Time
}

type ServiceDeps struct {
	AdminRepo    adminStore
	CustomerRepo customerStore
	Publisher    publisher
	Logger       *logrus.Logger
}

func NewService(deps ServiceDeps) Service {
	return &service{
		admin:     deps.AdminRepo,
		customers: deps.CustomerRepo,
		publisher: deps.Publisher,
		logger:    deps.Logger,
		now:       time.Now,
	}
}

func (s *service) NotifyAdmin(ctx context.Context, e AdminEvent) {
	n := &domain.AdminNotification{
		NotificationID: id.New(),
		Type:           e.Type,
		Title:          e.Title,
		Message:        e.Message,
		CustomerID:     optional(e.CustomerID),
		RelatedType:    optional(e.RelatedType),
		RelatedID:      optional(e.RelatedID),
		Data:           e.Data,
		CreatedAt:      s.now().UTC(),
	}
	log := s.logger.WithFields(logrus.Fields{"type": e.Type, "customer_id": e.CustomerID})
	if err := s.admin.Put(ctx, n); err != nil {
		log.WithError(err).Error("could not store admin notification")
	}
	if err := s.publisher.Publish(ctx, e.Title, e.Message); err != nil {
		log.WithError(err).Warn("could not publish admin notification")
	}
}

func (s *service) NotifyCustomer(ctx context.Context, n *domain.CustomerNotification) {
	if n.NotificationID == "" {
		n.NotificationID = id.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	if err := s.customers.Put(ctx, n); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"type":        n.Type,
			"customer_id": n.CustomerID,
		}).Error("could not store customer notification")
	}
}

func (s *service) ListAdmin(ctx context.Context, unreadOnly bool, p page.Params) (*AdminPage, error) {
	all, err := s.admin.List(ctx, unreadOnly)
	if err != nil {
		return nil, err
	}
	unread, err := s.admin.CountUnread(ctx)
	if err != nil {
		return nil, err
	}
	items, meta := page.Slice(all, p.Normalize(DefaultPerPage, MaxPerPage))
	return &AdminPage{Items: items, Meta: meta, UnreadCount: unread}, nil
}

func (s *service) AdminUnreadCount(ctx context.Context) (int, error) {
	return s.admin.CountUnread(ctx)
}

func (s *service) MarkAdminRead(ctx context.Context, notificationID string) error {
	if err := s.admin.MarkRead(ctx, notificationID, s.now().UTC()); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *service) MarkAllAdminRead(ctx context.Context) (int, error) {
	return s.admin.MarkAllRead(ctx, s.now().UTC())
}

func (s *service) ListCustomer(ctx context.Context, customerID string, p page.Params) ([]domain.CustomerNotification, page.Meta, error) {
	all, err := s.customers.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, page.Meta{}, err
	}
	items, meta := page.Slice(all, p.Normalize(DefaultPerPage, MaxPerPage))
	return items, meta, nil
}

func (s *service) MarkCustomerRead(ctx context.Context, customerID, notificationID string) error {
	if err := s.customers.MarkRead(ctx, customerID, notificationID, s.now().UTC()); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
