package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/water-delivery-api/internal/application/address"
	"github.com/water-delivery-api/internal/application/auth"
	"github.com/water-delivery-api/internal/application/chat"
	"github.com/water-delivery-api/internal/application/customer"
	"github.com/water-delivery-api/internal/application/media"
	"github.com/water-delivery-api/internal/application/notification"
	"github.com/water-delivery-api/internal/application/order"
	"github.com/water-delivery-api/internal/application/session"
	"github.com/water-delivery-api/internal/domain"
	"github.com/water-delivery-api/internal/pkg/page"
	"github.com/water-delivery-api/internal/transport/http/middleware"
)

// --- mocks ---

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) Register(ctx context.Context, req auth.RegisterRequest) (*domain.Customer, error) {
	args := m.Called(ctx, req)
	if c, _ := args.Get(0).(*domain.Customer); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) VerifyEmail(ctx context.Context, req auth.VerifyOTPRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockAuthSvc) ResendVerification(ctx context.Context, req auth.EmailRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockAuthSvc) ForgotPassword(ctx context.Context, req auth.EmailRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockAuthSvc) VerifyForgotPassword(ctx context.Context, req auth.VerifyOTPRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockAuthSvc) ResetPassword(ctx context.Context, req auth.ResetPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockAuthSvc) ChangePasswordSendOTP(ctx context.Context, c *domain.Customer, req auth.EmailRequest) error {
	return m.Called(ctx, c, req).Error(0)
}

func (m *mockAuthSvc) ChangePasswordVerifyOTP(ctx context.Context, c *domain.Customer, req auth.OTPRequest) error {
	return m.Called(ctx, c, req).Error(0)
}

func (m *mockAuthSvc) ChangePasswordUpdate(ctx context.Context, c *domain.Customer, token string, req auth.ChangePasswordRequest) (bool, error) {
	args := m.Called(ctx, c, token, req)
	return args.Bool(0), args.Error(1)
}

type mockSessionSvc struct{ mock.Mock }

func (m *mockSessionSvc) Login(ctx context.Context, req session.LoginRequest) (*domain.Customer, string, error) {
	args := m.Called(ctx, req)
	c, _ := args.Get(0).(*domain.Customer)
	return c, args.String(1), args.Error(2)
}

func (m *mockSessionSvc) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockSessionSvc) Authenticate(ctx context.Context, token string) (*domain.Customer, error) {
	args := m.Called(ctx, token)
	c, _ := args.Get(0).(*domain.Customer)
	return c, args.Error(1)
}

type mockCustomerSvc struct{ mock.Mock }

func (m *mockCustomerSvc) Profile(ctx context.Context, c *domain.Customer) *customer.Profile {
	p, _ := m.Called(ctx, c).Get(0).(*customer.Profile)
	return p
}

func (m *mockCustomerSvc) UpdateProfile(ctx context.Context, c *domain.Customer, req customer.UpdateProfileRequest, upload *media.Image) (*customer.Profile, error) {
	args := m.Called(ctx, c, req, upload)
	p, _ := args.Get(0).(*customer.Profile)
	return p, args.Error(1)
}

func (m *mockCustomerSvc) UpdateAddress(ctx context.Context, c *domain.Customer, req domain.AddressInput) (*customer.Profile, error) {
	args := m.Called(ctx, c, req)
	p, _ := args.Get(0).(*customer.Profile)
	return p, args.Error(1)
}

type mockAddressSvc struct{ mock.Mock }

func (m *mockAddressSvc) List(ctx context.Context, c *domain.Customer) ([]address.View, error) {
	args := m.Called(ctx, c)
	v, _ := args.Get(0).([]address.View)
	return v, args.Error(1)
}

func (m *mockAddressSvc) Get(ctx context.Context, c *domain.Customer, addressID string) (*address.View, error) {
	args := m.Called(ctx, c, addressID)
	v, _ := args.Get(0).(*address.View)
	return v, args.Error(1)
}

func (m *mockAddressSvc) Create(ctx context.Context, c *domain.Customer, req address.Request) (*address.View, error) {
	args := m.Called(ctx, c, req)
	v, _ := args.Get(0).(*address.View)
	return v, args.Error(1)
}

func (m *mockAddressSvc) Update(ctx context.Context, c *domain.Customer, addressID string, req address.Request) (*address.View, error) {
	args := m.Called(ctx, c, addressID, req)
	v, _ := args.Get(0).(*address.View)
	return v, args.Error(1)
}

func (m *mockAddressSvc) Delete(ctx context.Context, c *domain.Customer, addressID string) error {
	return m.Called(ctx, c, addressID).Error(0)
}

func (m *mockAddressSvc) SetDefault(ctx context.Context, c *domain.Customer, addressID string) (*address.View, error) {
	args := m.Called(ctx, c, addressID)
	v, _ := args.Get(0).(*address.View)
	return v, args.Error(1)
}

type mockOrderSvc struct{ mock.Mock }

func (m *mockOrderSvc) Place(ctx context.Context, c *domain.Customer, req order.PlaceRequest) (*order.View, error) {
	args := m.Called(ctx, c, req)
	v, _ := args.Get(0).(*order.View)
	return v, args.Error(1)
}

func (m *mockOrderSvc) List(ctx context.Context, c *domain.Customer) ([]order.View, error) {
	args := m.Called(ctx, c)
	v, _ := args.Get(0).([]order.View)
	return v, args.Error(1)
}

func (m *mockOrderSvc) Get(ctx context.Context, c *domain.Customer, orderID string) (*order.View, error) {
	args := m.Called(ctx, c, orderID)
	v, _ := args.Get(0).(*order.View)
	return v, args.Error(1)
}

type mockChatSvc struct{ mock.Mock }

func (m *mockChatSvc) Messages(ctx context.Context, c *domain.Customer, p page.Params) ([]chat.Message, page.Meta, error) {
	args := m.Called(ctx, c, p)
	v, _ := args.Get(0).([]chat.Message)
	return v, args.Get(1).(page.Meta), args.Error(2)
}

func (m *mockChatSvc) Send(ctx context.Context, c *domain.Customer, body *string, img *media.Image) (*chat.Message, error) {
	args := m.Called(ctx, c, body, img)
	v, _ := args.Get(0).(*chat.Message)
	return v, args.Error(1)
}

func (m *mockChatSvc) Threads(ctx context.Context, p page.Params) ([]chat.Thread, page.Meta, error) {
	args := m.Called(ctx, p)
	v, _ := args.Get(0).([]chat.Thread)
	return v, args.Get(1).(page.Meta), args.Error(2)
}

func (m *mockChatSvc) Conversation(ctx context.Context, customerID string, p page.Params) (*chat.Conversation, page.Meta, error) {
	args := m.Called(ctx, customerID, p)
	v, _ := args.Get(0).(*chat.Conversation)
	return v, args.Get(1).(page.Meta), args.Error(2)
}

func (m *mockChatSvc) Reply(ctx context.Context, customerID string, body *string, img *media.Image) (*chat.Message, error) {
	args := m.Called(ctx, customerID, body, img)
	v, _ := args.Get(0).(*chat.Message)
	return v, args.Error(1)
}

func (m *mockChatSvc) MarkRead(ctx context.Context, customerID string) error {
	return m.Called(ctx, customerID).Error(0)
}

type mockNotificationSvc struct{ mock.Mock }

func (m *mockNotificationSvc) NotifyAdmin(ctx context.Context, e notification.AdminEvent) {
	m.Called(ctx, e)
}

func (m *mockNotificationSvc) NotifyCustomer(ctx context.Context, n *domain.CustomerNotification) {
	m.Called(ctx, n)
}

func (m *mockNotificationSvc) ListAdmin(ctx context.Context, unreadOnly bool, p page.Params) (*notification.AdminPage, error) {
	args := m.Called(ctx, unreadOnly, p)
	v, _ := args.Get(0).(*notification.AdminPage)
	return v, args.Error(1)
}

func (m *mockNotificationSvc) AdminUnreadCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationSvc) MarkAdminRead(ctx context.Context, notificationID string) error {
	return m.Called(ctx, notificationID).Error(0)
}

func (m *mockNotificationSvc) MarkAllAdminRead(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationSvc) ListCustomer(ctx context.Context, customerID string, p page.Params) ([]domain.CustomerNotification, page.Meta, error) {
	args := m.Called(ctx, customerID, p)
	v, _ := args.Get(0).([]domain.CustomerNotification)
	return v, args.Get(1).(page.Meta), args.Error(2)
}

func (m *mockNotificationSvc) MarkCustomerRead(ctx context.Context, customerID, notificationID string) error {
	return m.Called(ctx, customerID, notificationID).Error(0)
}

// --- helpers ---

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testCustomer() *domain.Customer {
	return &domain.Customer{
		CustomerID: "c1",
		FirstName:  "Ana",
		LastName:   "Cruz",
		Email:      "ana@example.com",
		Status:     domain.CustomerStatusActive,
	}
}

// jsonReq builds a request with body marshalled as JSON. A nil body sends none.
func jsonReq(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var rd io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	r := httptest.NewRequest(method, target, rd)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// signedIn attaches a session identity for c to r.
func signedIn(r *http.Request, c *domain.Customer) *http.Request {
	return r.WithContext(middleware.WithIdentity(r.Context(), middleware.Identity{Customer: c, Token: "tok-1"}))
}

// withParam sets a chi URL parameter as the router would.
func withParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}
