package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/water-delivery-api/internal/application/customer"
	"github.com/water-delivery-api/internal/application/media"
	"github.com/water-delivery-api/internal/domain"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func TestMe_RequiresIdentity(t *testing.T) {
	h := NewAccountHandler(&mockCustomerSvc{}, quietLogger())
	rr := httptest.NewRecorder()
	Authed(h.Me)(rr, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMe_And_Account(t *testing.T) {
	svc := &mockCustomerSvc{}
	h := NewAccountHandler(svc, quietLogger())
	c := testCustomer()
	svc.On("Profile", mock.Anything, c).Return(&customer.Profile{ID: "c1", FirstName: "Ana"})

	rr := httptest.NewRecorder()
	Authed(h.Me)(rr, signedIn(httptest.NewRequest(http.MethodGet, "/api/v1/me", nil), c))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Ana", decodeBody(t, rr)["customer"].(map[string]interface{})["firstname"])

	rr = httptest.NewRecorder()
	Authed(h.Account)(rr, signedIn(httptest.NewRequest(http.MethodGet, "/api/v1/account", nil), c))
	body := decodeBody(t, rr)
	assert.Equal(t, "Account information retrieved.", body["message"])
	assert.Contains(t, body, "account")
	assert.NotContains(t, body, "customer")
}

func TestUpdateProfile_JSON(t *testing.T) {
	svc := &mockCustomerSvc{}
	h := NewAccountHandler(svc, quietLogger())
	c := testCustomer()
	req := customer.UpdateProfileRequest{FirstName: "Ana", LastName: "Reyes"}
	svc.On("UpdateProfile", mock.Anything, c, req, (*media.Image)(nil)).
		Return(&customer.Profile{ID: "c1", LastName: "Reyes"}, nil)

	rr := httptest.NewRecorder()
	Authed(h.UpdateProfile)(rr, signedIn(jsonReq(t, http.MethodPost, "/api/v1/profile/update", req), c))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "Profile updated successfully.", body["message"])
	assert.Equal(t, "Reyes", body["customer"].(map[string]interface{})["lastname"])
}

func TestUpdateProfile_Multipart(t *testing.T) {
	svc := &mockCustomerSvc{}
	h := NewAccountHandler(svc, quietLogger())
	c := testCustomer()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("firstname", "Ana"))
	require.NoError(t, mw.WriteField("lastname", "Cruz"))
	require.NoError(t, mw.WriteField("contact_no", ""))
	part, err := mw.CreateFormFile("image", "me.png")
	require.NoError(t, err)
	_, err = part.Write(pngHeader)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	svc.On("UpdateProfile", mock.Anything, c,
		mock.MatchedBy(func(req customer.UpdateProfileRequest) bool {
			return req.FirstName == "Ana" && req.ContactNo != nil && *req.ContactNo == ""
		}),
		mock.MatchedBy(func(img *media.Image) bool {
			return img != nil && img.ContentType == "image/png"
		}),
	).Return(&customer.Profile{ID: "c1"}, nil)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/profile/update", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	Authed(h.UpdateProfile)(rr, signedIn(r, c))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestUpdateProfile_MultipartDataURL(t *testing.T) {
	svc := &mockCustomerSvc{}
	h := NewAccountHandler(svc, quietLogger())
	c := testCustomer()
	dataURL := "data:image/png;base64,iVBORw0KGgo="

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("firstname", "Ana"))
	require.NoError(t, mw.WriteField("lastname", "Cruz"))
	require.NoError(t, mw.WriteField("image", dataURL))
	require.NoError(t, mw.Close())

	svc.On("UpdateProfile", mock.Anything, c,
		mock.MatchedBy(func(req customer.UpdateProfileRequest) bool {
			return req.Image != nil && *req.Image == dataURL
		}),
		mock.MatchedBy(func(img *media.Image) bool { return img == nil }),
	).Return(&customer.Profile{ID: "c1"}, nil)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/profile/update", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	Authed(h.UpdateProfile)(rr, signedIn(r, c))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestUpdateProfile_ValidationError(t *testing.T) {
	svc := &mockCustomerSvc{}
	h := NewAccountHandler(svc, quietLogger())
	svc.On("UpdateProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.FieldErrors{"firstname": "The firstname field is required."})

	rr := httptest.NewRecorder()
	Authed(h.UpdateProfile)(rr, signedIn(jsonReq(t, http.MethodPost, "/api/v1/profile/update", map[string]string{}), testCustomer()))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "The firstname field is required.", decodeBody(t, rr)["message"])
}

func TestUpdateAddress_NothingToUpdate(t *testing.T) {
	svc := &mockCustomerSvc{}
	h := NewAccountHandler(svc, quietLogger())
	svc.On("UpdateAddress", mock.Anything, mock.Anything, domain.AddressInput{}).Return(nil, domain.ErrBadRequest)

	rr := httptest.NewRecorder()
	Authed(h.UpdateAddress)(rr, signedIn(jsonReq(t, http.MethodPut, "/api/v1/address", map[string]string{}), testCustomer()))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "Provide at least one address field to update.", decodeBody(t, rr)["message"])
}

func TestChangePassword_SendOTP(t *testing.T) {
	as := &mockAuthSvc{}
	h := NewChangePasswordHandler(as, &mockCustomerSvc{}, quietLogger())
	c := testCustomer()
	as.On("ChangePasswordSendOTP", mock.Anything, c, mock.Anything).Return(nil)

	rr := httptest.NewRecorder()
	Authed(h.SendOTP)(rr, signedIn(jsonReq(t, http.MethodPost, "/api/v1/change-password/send-otp", map[string]string{"email": c.Email}), c))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, c.Email, decodeBody(t, rr)["email"])
}

func TestChangePassword_ResendDeliveryFailure(t *testing.T) {
	as := &mockAuthSvc{}
	h := NewChangePasswordHandler(as, &mockCustomerSvc{}, quietLogger())
	as.On("ChangePasswordSendOTP", mock.Anything, mock.Anything, mock.Anything).Return(domain.ErrDelivery)

	rr := httptest.NewRecorder()
	Authed(h.ResendOTP)(rr, signedIn(jsonReq(t, http.MethodPost, "/api/v1/change-password/resend-otp", map[string]string{"email": "ana@example.com"}), testCustomer()))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Could not send the new code. Please try again later.", decodeBody(t, rr)["message"])
}

func TestChangePassword_VerifyOTP(t *testing.T) {
	as := &mockAuthSvc{}
	h := NewChangePasswordHandler(as, &mockCustomerSvc{}, quietLogger())
	as.On("ChangePasswordVerifyOTP", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	rr := httptest.NewRecorder()
	Authed(h.VerifyOTP)(rr, signedIn(jsonReq(t, http.MethodPost, "/api/v1/change-password/verify-otp", map[string]string{"otp": "1234"}), testCustomer()))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(10), decodeBody(t, rr)["expires_in_minutes"])
}

func TestChangePassword_UpdateLogsOut(t *testing.T) {
	as := &mockAuthSvc{}
	h := NewChangePasswordHandler(as, &mockCustomerSvc{}, quietLogger())
	c := testCustomer()
	as.On("ChangePasswordUpdate", mock.Anything, c, "tok-1", mock.Anything).Return(true, nil)

	rr := httptest.NewRecorder()
	Authed(h.Update)(rr, signedIn(jsonReq(t, http.MethodPost, "/api/v1/change-password/update", map[string]interface{}{
		"current_password": "old", "password": "secret1", "password_confirmation": "secret1",
	}), c))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["logged_out"])
	assert.NotContains(t, body, "token")
}

func TestChangePassword_UpdateKeepsSession(t *testing.T) {
	as := &mockAuthSvc{}
	cs := &mockCustomerSvc{}
	h := NewChangePasswordHandler(as, cs, quietLogger())
	c := testCustomer()
	as.On("ChangePasswordUpdate", mock.Anything, c, "tok-1", mock.Anything).Return(false, nil)
	cs.On("Profile", mock.Anything, c).Return(&customer.Profile{ID: "c1"})

	rr := httptest.NewRecorder()
	Authed(h.Update)(rr, signedIn(jsonReq(t, http.MethodPost, "/api/v1/change-password/update", map[string]interface{}{
		"current_password": "old", "password": "secret1", "password_confirmation": "secret1", "keep_logged_in": true,
	}), c))

	body := decodeBody(t, rr)
	assert.Equal(t, false, body["logged_out"])
	assert.Equal(t, "tok-1", body["token"])
	assert.Contains(t, body, "customer")
}

func TestChangePassword_UpdateNotVerified(t *testing.T) {
	as := &mockAuthSvc{}
	h := NewChangePasswordHandler(as, &mockCustomerSvc{}, quietLogger())
	as.On("ChangePasswordUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, domain.ErrNotVerified)

	rr := httptest.NewRecorder()
	Authed(h.Update)(rr, signedIn(jsonReq(t, http.MethodPost, "/api/v1/change-password/update", map[string]string{}), testCustomer()))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, decodeBody(t, rr)["message"], "verify the OTP first")
}
