package customer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/water-delivery-api/internal/application/media"
	"github.com/water-delivery-api/internal/application/notification"
	"github.com/water-delivery-api/internal/domain"
	"github.com/water-delivery-api/internal/pkg/validate"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldFirstName = "firstname"
	fieldLastName  = "lastname"
	fieldContactNo = "contact_no"
	fieldImage     = "image"
)

// Profile is the customer projection returned by the account endpoints.
type Profile struct {
	ID        string  `json:"id"`
	FirstName string  `json:"firstname"`
	LastName  string  `json:"lastname"`
	Email     string  `json:"email"`
	ContactNo *string `json:"contact_no"`
	Image     string  `json:"image"`
	ImageURL  *string `json:"image_url"`
	Status    string  `json:"status"`
	domain.AddressFields
	FullAddress *string `json:"full_address"`
}

type UpdateProfileRequest struct {
	FirstName string  `json:"firstname" validate:"required,max=50"`
	LastName  string  `json:"lastname" validate:"required,max=50"`
	ContactNo *string `json:"contact_no" validate:"omitempty,max=20,phone"`
	// Image is an optional base64 data URL; multipart uploads arrive as
	// the separate upload argument.
	Image *string `json:"image"`
}

type Service interface {
	Profile(ctx context.Context, c *domain.Customer) *Profile
	UpdateProfile(ctx context.Context, c *domain.Customer, req UpdateProfileRequest, upload *media.Image) (*Profile, error)
	UpdateAddress(ctx context.Context, c *domain.Customer, req domain.AddressInput) (*Profile, error)
}

type customerStore interface {
	Update(ctx context.Context, customerID string, updates map[string]interface{}) error
}

type notifier interface {
	NotifyAdmin(ctx context.Context, e notification.AdminEvent)
}

type service struct {
	repo     customerStore
	media    media.Service
	notifier notifier
	now      func() time.Time
}

type ServiceDeps struct {
	CustomerRepo customerStore
	Media        media.Service
	Notifier     notifier
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:     deps.CustomerRepo,
		media:    deps.Media,
		notifier: deps.Notifier,
		now:      time.Now,
	}
}

func (s *service) Profile(ctx context.Context, c *domain.Customer) *Profile {
	image := c.Image
	if image == "" {
		image = domain.DefaultCustomerImage
	}
	status := c.Status
	if status == "" {
		status = domain.CustomerStatusActive
	}
	return &Profile{
		ID:            c.CustomerID,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Email:         c.Email,
		ContactNo:     c.ContactNo,
		Image:         image,
		ImageURL:      s.media.URL(ctx, image),
		Status:        status,
		AddressFields: c.AddressFields,
		FullAddress:   c.FullAddress(),
	}
}

func (s *service) UpdateProfile(ctx context.Context, c *domain.Customer, req UpdateProfileRequest, upload *media.Image) (*Profile, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	img := upload
	if img == nil && req.Image != nil && strings.TrimSpace(*req.Image) != "" {
		decoded, err := media.FromDataURL(strings.TrimSpace(*req.Image), "image")
		if err != nil {
			return nil, err
		}
		img = decoded
	}

	updates := map[string]interface{}{
		fieldFirstName: req.FirstName,
		fieldLastName:  req.LastName,
		fieldContactNo: nil,
	}
	contact := trimmedOrNil(req.ContactNo)
	if contact != nil {
		updates[fieldContactNo] = *contact
	}
	var imageKey string
	if img != nil {
		key, err := s.media.Store(ctx, fmt.Sprintf("customers/customer_%s", c.CustomerID), img)
		if err != nil {
			return nil, fmt.Errorf("store profile image: %w", err)
		}
		imageKey = key
		updates[fieldImage] = key
	}
	if err := s.repo.Update(ctx, c.CustomerID, updates); err != nil {
		return nil, err
	}

	c.FirstName, c.LastName, c.ContactNo = req.FirstName, req.LastName, contact
	if imageKey != "" {
		c.Image = imageKey
	}
	c.UpdatedAt = s.now().UTC()

	s.notifier.NotifyAdmin(ctx, notification.AdminEvent{
		Type:        domain.AdminNotifyProfileUpdated,
		Title:       "Profile updated",
		Message:     fmt.Sprintf("%s updated their Profile.", c.FullName()),
		CustomerID:  c.CustomerID,
		RelatedType: "Customer",
		RelatedID:   c.CustomerID,
	})
	return s.Profile(ctx, c), nil
}

func (s *service) UpdateAddress(ctx context.Context, c *domain.Customer, req domain.AddressInput) (*Profile, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	updates := req.Updates()
	if len(updates) == 0 {
		return nil, fmt.Errorf("no address fields: %w", domain.ErrBadRequest)
	}
	if err := s.repo.Update(ctx, c.CustomerID, updates); err != nil {
		return nil, err
	}
	req.Apply(&c.AddressFields)
	c.UpdatedAt = s.now().UTC()

	s.notifier.NotifyAdmin(ctx, addressUpdatedEvent(c))
	return s.Profile(ctx, c), nil
}

// addressUpdatedEvent is the admin notification for any address change of c.
func addressUpdatedEvent(c *domain.Customer) notification.AdminEvent {
	e := notification.AdminEvent{
		Type:        domain.AdminNotifyAddressUpdated,
		Title:       "Address updated",
		Message:     fmt.Sprintf("%s updated their address.", c.FullName()),
		CustomerID:  c.CustomerID,
		RelatedType: "Customer",
		RelatedID:   c.CustomerID,
	}
	if full := c.FullAddress(); full != nil {
		e.Data = map[string]string{"full_address": *full}
	}
	return e
}

func trimmedOrNil(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
