package notification

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/water-delivery-api/internal/domain"
	"github.com/water-delivery-api/internal/pkg/page"
)

// --- mocks ---

type mockAdminStore struct{ mock.Mock }

func (m *mockAdminStore) Put(ctx context.Context, n *domain.AdminNotification) error {
	return m.Called(ctx, n).Error(0)
}
func (m *mockAdminStore) List(ctx context.Context, unreadOnly bool) ([]domain.AdminNotification, error) {
	args := m.Called(ctx, unreadOnly)
	items, _ := args.Get(0).([]domain.AdminNotification)
	return items, args.Error(1)
}
func (m *mockAdminStore) CountUnread(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
func (m *mockAdminStore) MarkRead(ctx context.Context, notificationID string, at time.Time) error {
	return m.Called(ctx, notificationID, at).Error(0)
}
func (m *mockAdminStore) MarkAllRead(ctx context.Context, at time.Time) (int, error) {
	args := m.Called(ctx, at)
	return args.Int(0), args.Error(1)
}

type mockCustomerStore struct{ mock.Mock }

func (m *mockCustomerStore) Put(ctx context.Context, n *domain.CustomerNotification) error {
	return m.Called(ctx, n).Error(0)
}
func (m *mockCustomerStore) ListByCustomer(ctx context.Context, customerID string) ([]domain.CustomerNotification, error) {
	args := m.Called(ctx, customerID)
	items, _ := args.Get(0).([]domain.CustomerNotification)
	return items, args.Error(1)
}
func (m *mockCustomerStore) MarkRead(ctx context.Context, customerID, notificationID string, at time.Time) error {
	return m.Called(ctx, customerID, notificationID, at).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, subject, message string) error {
	return m.Called(ctx, subject, message).Error(0)
}

// --- helpers ---

var fixedNow = time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)

func newSvc(as *mockAdminStore, cs *mockCustomerStore, pub *mockPublisher) *service {
	l := logrus.New()
	l.SetOutput(io.Discard)
	s := NewService(ServiceDeps{AdminRepo: as, CustomerRepo: cs, Publisher: pub, Logger: l}).(*service)
	s.now = func() time.Time { return fixedNow }
	return s
}

// --- NotifyAdmin ---

func TestNotifyAdmin_StoresAndPublishes(t *testing.T) {
	as := &mockAdminStore{}
	pub := &mockPublisher{}
	var stored *domain.AdminNotification
	as.On("Put", mock.Anything, mock.AnythingOfType("*domain.AdminNotification")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.AdminNotification) }).Return(nil)
	pub.On("Publish", mock.Anything, "New order", "Ana Cruz placed an order.").Return(nil)

	newSvc(as, nil, pub).NotifyAdmin(context.Background(), AdminEvent{
		Type:        domain.AdminNotifyNewOrder,
		Title:       "New order",
		Message:     "Ana Cruz placed an order.",
		CustomerID:  "c1",
		RelatedType: "Order",
		RelatedID:   "o1",
	})

	require.NotNil(t, stored)
	assert.NotEmpty(t, stored.NotificationID)
	assert.Equal(t, "c1", *stored.CustomerID)
	assert.Equal(t, "o1", *stored.RelatedID)
	assert.Nil(t, stored.ReadAt)
	assert.Equal(t, fixedNow, stored.CreatedAt)
	pub.AssertExpectations(t)
}

func TestNotifyAdmin_FailuresAreSwallowed(t *testing.T) {
	as := &mockAdminStore{}
	pub := &mockPublisher{}
	as.On("Put", mock.Anything, mock.Anything).Return(errors.New("throttled"))
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("no topic"))

	assert.NotPanics(t, func() {
		newSvc(as, nil, pub).NotifyAdmin(context.Background(), AdminEvent{Type: domain.AdminNotifyProfileUpdated})
	})
	pub.AssertCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotifyCustomer_FillsIDAndTime(t *testing.T) {
	cs := &mockCustomerStore{}
	cs.On("Put", mock.Anything, mock.Anything).Return(nil)
	n := &domain.CustomerNotification{CustomerID: "c1", Type: domain.CustomerNotifyOrderPlaced}

	newSvc(nil, cs, nil).NotifyCustomer(context.Background(), n)

	assert.NotEmpty(t, n.NotificationID)
	assert.Equal(t, fixedNow, n.CreatedAt)
}

// --- admin feed ---

func TestListAdmin_PagesAndCountsUnread(t *testing.T) {
	as := &mockAdminStore{}
	items := make([]domain.AdminNotification, 25)
	for i := range items {
		items[i].NotificationID = string(rune('a' + i))
	}
	as.On("List", mock.Anything, false).Return(items, nil)
	as.On("CountUnread", mock.Anything).Return(7, nil)

	res, err := newSvc(as, nil, nil).ListAdmin(context.Background(), false, page.Params{Page: 2})

	require.NoError(t, err)
	assert.Len(t, res.Items, 5)
	assert.Equal(t, "u", res.Items[0].NotificationID)
	assert.Equal(t, page.Meta{CurrentPage: 2, LastPage: 2, PerPage: 20, Total: 25}, res.Meta)
	assert.Equal(t, 7, res.UnreadCount)
}

func TestListAdmin_PerPageCapped(t *testing.T) {
	as := &mockAdminStore{}
	as.On("List", mock.Anything, true).Return([]domain.AdminNotification{}, nil)
	as.On("CountUnread", mock.Anything).Return(0, nil)

	res, err := newSvc(as, nil, nil).ListAdmin(context.Background(), true, page.Params{PerPage: 500})

	require.NoError(t, err)
	assert.Equal(t, 50, res.Meta.PerPage)
	assert.Equal(t, 1, res.Meta.LastPage)
}

func TestMarkAdminRead_NotFound(t *testing.T) {
	as := &mockAdminStore{}
	as.On("MarkRead", mock.Anything, "n1", fixedNow).Return(domain.ErrNotFound)

	err := newSvc(as, nil, nil).MarkAdminRead(context.Background(), "n1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkAllAdminRead(t *testing.T) {
	as := &mockAdminStore{}
	as.On("MarkAllRead", mock.Anything, fixedNow).Return(3, nil)

	n, err := newSvc(as, nil, nil).MarkAllAdminRead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

// --- customer feed ---

func TestListCustomer(t *testing.T) {
	cs := &mockCustomerStore{}
	cs.On("ListByCustomer", mock.Anything, "c1").Return([]domain.CustomerNotification{{NotificationID: "n2"}, {NotificationID: "n1"}}, nil)

	items, meta, err := newSvc(nil, cs, nil).ListCustomer(context.Background(), "c1", page.Params{})

	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, meta.Total)
}

func TestMarkCustomerRead_ScopedToCustomer(t *testing.T) {
	cs := &mockCustomerStore{}
	cs.On("MarkRead", mock.Anything, "c1", "n9", fixedNow).Return(domain.ErrNotFound)

	err := newSvc(nil, cs, nil).MarkCustomerRead(context.Background(), "c1", "n9")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
