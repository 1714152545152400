package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/water-delivery-api/internal/application/media"
	"github.com/water-delivery-api/internal/application/notification"
	"github.com/water-delivery-api/internal/domain"
	"github.com/water-delivery-api/internal/pkg/id"
	"github.com/water-delivery-api/internal/pkg/token"
	"github.com/water-delivery-api/internal/pkg/validate"
)

type PlaceRequest struct {
	ProductName     string   `json:"product_name" validate:"required,max=255"`
	ProductType     string   `json:"product_type" validate:"required,max=255"`
	GallonSize      string   `json:"gallon_size" validate:"required,max=50"`
	ProductImage    *string  `json:"product_image" validate:"omitempty,max=500"`
	DeliveryDate    string   `json:"delivery_date" validate:"required,datetime=2006-01-02"`
	DeliveryTime    string   `json:"delivery_time" validate:"required,max=50"`
	DeliveryAddress string   `json:"delivery_address" validate:"required,max=500"`
	Amount          *float64 `json:"amount" validate:"required,min=0"`
	PaymentMethod   string   `json:"payment_method" validate:"required,max=50"`
	CustomerName    *string  `json:"customer_name" validate:"omitempty,max=255"`
	CustomerPhone   *string  `json:"customer_phone" validate:"omitempty,max=20"`
	CustomerImage   *string  `json:"customer_image" validate:"omitempty,max=500"`
}

// View is the order projection returned to customers.
type View struct {
	domain.Order
	ProductImageURL *string `json:"product_image_url"`
}

type Service interface {
	Place(ctx context.Context, c *domain.Customer, req PlaceRequest) (*View, error)
	// List returns the customer's orders, newest first.
	List(ctx context.Context, c *domain.Customer) ([]View, error)
	Get(ctx context.Context, c *domain.Customer, orderID string) (*View, error)
}

type orderStore interface {
	Put(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
}

type notifier interface {
	NotifyAdmin(ctx context.Context, e notification.AdminEvent)
	NotifyCustomer(ctx context.Context, n *domain.CustomerNotification)
}

type service struct {
	repo     orderStore
	media    media.Service
	notifier notifier
	now      func() time.Time
	newTxnID func() (string, error)
}

type ServiceDeps struct {
	OrderRepo orderStore
	Media     media.Service
	Notifier  notifier
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:     deps.OrderRepo,
		media:    deps.Media,
		notifier: deps.Notifier,
		now:      time.Now,
		newTxnID: token.NewTransactionID,
	}
}

func (s *service) Place(ctx context.Context, c *domain.Customer, req PlaceRequest) (*View, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	txn, err := s.newTxnID()
	if err != nil {
		return nil, err
	}
	phone := ""
	if c.ContactNo != nil {
		phone = *c.ContactNo
	}
	o := &domain.Order{
		OrderID:         id.New(),
		TransactionID:   txn,
		CustomerID:      c.CustomerID,
		CustomerName:    orDefault(req.CustomerName, c.FullName()),
		CustomerPhone:   orDefault(req.CustomerPhone, phone),
		CustomerImage:   orDefault(req.CustomerImage, c.Image),
		ProductName:     strings.TrimSpace(req.ProductName),
		ProductType:     strings.TrimSpace(req.ProductType),
		GallonSize:      strings.TrimSpace(req.GallonSize),
		ProductImage:    orDefault(req.ProductImage, domain.DefaultProductImage),
		DeliveryDate:    req.DeliveryDate,
		DeliveryTime:    strings.TrimSpace(req.DeliveryTime),
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		Amount:          *req.Amount,
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
		Status:          domain.OrderStatusPending,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.Put(ctx, o); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	v := s.view(ctx, *o)
	relatedType := "Order"
	s.notifier.NotifyCustomer(ctx, &domain.CustomerNotification{
		CustomerID:  c.CustomerID,
		Type:        domain.CustomerNotifyOrderPlaced,
		Title:       o.ProductName,
		Message:     "Your order has been placed successfully.",
		ImageURL:    v.ProductImageURL,
		RelatedType: &relatedType,
		RelatedID:   &o.OrderID,
		Data:        map[string]string{"transaction_id": o.TransactionID},
	})
	s.notifier.NotifyAdmin(ctx, notification.AdminEvent{
		Type:        domain.AdminNotifyNewOrder,
		Title:       "New order",
		Message:     fmt.Sprintf("%s placed an order for %s (%s).", o.CustomerName, o.ProductName, o.TransactionID),
		CustomerID:  c.CustomerID,
		RelatedType: relatedType,
		RelatedID:   o.OrderID,
		Data: map[string]string{
			"transaction_id": o.TransactionID,
			"amount":         fmt.Sprintf("%.2f", o.Amount),
		},
	})
	return &v, nil
}

func (s *service) List(ctx context.Context, c *domain.Customer) ([]View, error) {
	orders, err := s.repo.ListByCustomer(ctx, c.CustomerID)
	if err != nil {
		return nil, err
	}
	out := make([]View, len(orders))
	for i := range orders {
		out[i] = s.view(ctx, orders[i])
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, c *domain.Customer, orderID string) (*View, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != c.CustomerID {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	v := s.view(ctx, *o)
	return &v, nil
}

func (s *service) view(ctx context.Context, o domain.Order) View {
	v := View{Order: o}
	if strings.HasPrefix(o.ProductImage, "http://") || strings.HasPrefix(o.ProductImage, "https://") {
		v.ProductImageURL = &o.ProductImage
	} else {
		v.ProductImageURL = s.media.URL(ctx, o.ProductImage)
	}
	return v
}

func orDefault(p *string, def string) string {
	if p == nil {
		return def
	}
	if v := strings.TrimSpace(*p); v != "" {
		return v
	}
	return def
}
