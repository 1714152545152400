package address

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/water-delivery-api/internal/application/notification"
	"github.com/water-delivery-api/internal/domain"
	"github.com/water-delivery-api/internal/pkg/id"
	"github.com/water-delivery-api/internal/pkg/validate"
)

const fieldIsDefault = "is_default"

// Request is the body of address create and update calls.
type Request struct {
	FirstName *string `json:"firstname" validate:"omitempty,max=50"`
	LastName  *string `json:"lastname" validate:"omitempty,max=50"`
	ContactNo *string `json:"contact_no" validate:"omitempty,max=20,phone"`
	domain.AddressInput
	IsDefault *bool `json:"is_default"`
}

// View is the address projection returned to clients.
type View struct {
	domain.Address
	FullAddress *string `json:"full_address"`
}

func toView(a domain.Address) View {
	return View{Address: a, FullAddress: a.FullAddress()}
}

type Service interface {
	// List returns the address book, default first then oldest first.
	List(ctx context.Context, c *domain.Customer) ([]View, error)
	Get(ctx context.Context, c *domain.Customer, addressID string) (*View, error)
	Create(ctx context.Context, c *domain.Customer, req Request) (*View, error)
	Update(ctx context.Context, c *domain.Customer, addressID string, req Request) (*View, error)
	Delete(ctx context.Context, c *domain.Customer, addressID string) error
	SetDefault(ctx context.Context, c *domain.Customer, addressID string) (*View, error)
}

type addressStore interface {
	Put(ctx context.Context, a *domain.Address) error
	Get(ctx context.Context, customerID, addressID string) (*domain.Address, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Address, error)
	Update(ctx context.Context, customerID, addressID string, updates map[string]interface{}) error
	Delete(ctx context.Context, customerID, addressID string) error
	SetDefault(ctx context.Context, customerID, addressID string, others []string) error
	CreateAsDefault(ctx context.Context, a *domain.Address, others []string) error
}

type notifier interface {
	NotifyAdmin(ctx context.Context, e notification.AdminEvent)
}

type service struct {
	repo     addressStore
	notifier notifier
	now      func() time.Time
}

type ServiceDeps struct {
	AddressRepo addressStore
	Notifier    notifier
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.AddressRepo, notifier: deps.Notifier, now: time.Now}
}

func (s *service) List(ctx context.Context, c *domain.Customer) ([]View, error) {
	all, err := s.repo.ListByCustomer(ctx, c.CustomerID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].IsDefault != all[j].IsDefault {
			return all[i].IsDefault
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	out := make([]View, len(all))
	for i := range all {
		out[i] = toView(all[i])
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, c *domain.Customer, addressID string) (*View, error) {
	a, err := s.repo.Get(ctx, c.CustomerID, addressID)
	if err != nil {
		return nil, err
	}
	v := toView(*a)
	return &v, nil
}

func (s *service) Create(ctx context.Context, c *domain.Customer, req Request) (*View, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.ListByCustomer(ctx, c.CustomerID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	a := &domain.Address{
		CustomerID: c.CustomerID,
		AddressID:  id.New(),
		FirstName:  trimmedOrNil(req.FirstName),
		LastName:   trimmedOrNil(req.LastName),
		ContactNo:  trimmedOrNil(req.ContactNo),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	req.AddressInput.Apply(&a.AddressFields)

	wantDefault := req.IsDefault != nil && *req.IsDefault
	a.IsDefault = len(existing) == 0 || wantDefault
	if wantDefault && len(existing) > 0 {
		if err := s.repo.CreateAsDefault(ctx, a, defaultIDs(existing)); err != nil {
			return nil, fmt.Errorf("create default address: %w", err)
		}
	} else if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}

	s.notify(ctx, c)
	v := toView(*a)
	return &v, nil
}

func (s *service) Update(ctx context.Context, c *domain.Customer, addressID string, req Request) (*View, error) {
	if _, err := s.repo.Get(ctx, c.CustomerID, addressID); err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	updates := req.AddressInput.Updates()
	domain.PutTrimmed(updates, "firstname", req.FirstName)
	domain.PutTrimmed(updates, "lastname", req.LastName)
	domain.PutTrimmed(updates, "contact_no", req.ContactNo)
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, c.CustomerID, addressID, updates); err != nil {
			return nil, err
		}
	}
	if req.IsDefault != nil && *req.IsDefault {
		if err := s.makeDefault(ctx, c.CustomerID, addressID); err != nil {
			return nil, err
		}
	}

	s.notify(ctx, c)
	return s.Get(ctx, c, addressID)
}

func (s *service) Delete(ctx context.Context, c *domain.Customer, addressID string) error {
	a, err := s.repo.Get(ctx, c.CustomerID, addressID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, c.CustomerID, addressID); err != nil {
		return err
	}
	if !a.IsDefault {
		return nil
	}
	rest, err := s.repo.ListByCustomer(ctx, c.CustomerID)
	if err != nil || len(rest) == 0 {
		return err
	}
	earliest := rest[0]
	for _, r := range rest[1:] {
		if r.CreatedAt.Before(earliest.CreatedAt) {
			earliest = r
		}
	}
	if err := s.repo.Update(ctx, c.CustomerID, earliest.AddressID, map[string]interface{}{fieldIsDefault: true}); err != nil {
		return fmt.Errorf("promote default address: %w", err)
	}
	return nil
}

func (s *service) SetDefault(ctx context.Context, c *domain.Customer, addressID string) (*View, error) {
	if _, err := s.repo.Get(ctx, c.CustomerID, addressID); err != nil {
		return nil, err
	}
	if err := s.makeDefault(ctx, c.CustomerID, addressID); err != nil {
		return nil, err
	}
	s.notify(ctx, c)
	return s.Get(ctx, c, addressID)
}

// makeDefault flags addressID and clears every other default of the customer.
func (s *service) makeDefault(ctx context.Context, customerID, addressID string) error {
	all, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	var others []string
	for _, a := range all {
		if a.AddressID != addressID && a.IsDefault {
			others = append(others, a.AddressID)
		}
	}
	if err := s.repo.SetDefault(ctx, customerID, addressID, others); err != nil {
		return fmt.Errorf("swap default address: %w", err)
	}
	return nil
}

func (s *service) notify(ctx context.Context, c *domain.Customer) {
	e := notification.AdminEvent{
		Type:        domain.AdminNotifyAddressUpdated,
		Title:       "Address updated",
		Message:     fmt.Sprintf("%s updated their address book.", c.FullName()),
		CustomerID:  c.CustomerID,
		RelatedType: "Customer",
		RelatedID:   c.CustomerID,
	}
	s.notifier.NotifyAdmin(ctx, e)
}

// defaultIDs returns the ids of the addresses currently flagged default.
func defaultIDs(as []domain.Address) []string {
	var out []string
	for _, a := range as {
		if a.IsDefault {
			out = append(out, a.AddressID)
		}
	}
	return out
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
