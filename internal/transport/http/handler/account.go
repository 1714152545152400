package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/water-delivery-api/internal/application/customer"
	"github.com/water-delivery-api/internal/application/media"
	"github.com/water-delivery-api/internal/domain"
	"github.com/water-delivery-api/internal/transport/http/middleware"
)

// maxFormBytes bounds multipart bodies: one image plus a few text fields.
const maxFormBytes = media.MaxImageBytes + 1<<20

// AccountHandler serves the signed-in customer's own profile.
type AccountHandler struct {
	customers customer.Service
	logger    *logrus.Logger
}

func NewAccountHandler(customers customer.Service, logger *logrus.Logger) *AccountHandler {
	return &AccountHandler{customers: customers, logger: logger}
}

// Me serves /me and /profile.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	writeOK(w, Envelope{Customer: h.customers.Profile(r.Context(), id.Customer)})
}

func (h *AccountHandler) Account(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	writeOK(w, Envelope{
		Message: "Account information retrieved.",
		Account: h.customers.Profile(r.Context(), id.Customer),
	})
}

// UpdateProfile accepts JSON (image as a base64 data URL) or multipart form
// data (image as a file part).
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	var (
		req    customer.UpdateProfileRequest
		upload *media.Image
	)
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxFormBytes); err != nil {
			writeError(w, http.StatusBadRequest, msgBadBody)
			return
		}
		req.FirstName = r.FormValue("firstname")
		req.LastName = r.FormValue("lastname")
		if v, present := formValue(r, "contact_no"); present {
			req.ContactNo = &v
		}
		img, err := formImage(r, "image")
		if err != nil {
			httpError(w, r, h.logger, err, nil)
			return
		}
		upload = img
		if img == nil {
			if v, present := formValue(r, "image"); present {
				req.Image = &v
			}
		}
	} else if !decode(w, r, &req) {
		return
	}

	p, err := h.customers.UpdateProfile(r.Context(), id.Customer, req, upload)
	if err != nil {
		httpError(w, r, h.logger, err, nil)
		return
	}
	writeOK(w, Envelope{Message: "Profile updated successfully.", Customer: p})
}

// UpdateAddress sets the location fields stored on the customer record itself.
func (h *AccountHandler) UpdateAddress(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	var req domain.AddressInput
	if !decode(w, r, &req) {
		return
	}
	p, err := h.customers.UpdateAddress(r.Context(), id.Customer, req)
	if err != nil {
		httpError(w, r, h.logger, err, messages{
			domain.ErrBadRequest: "Provide at least one address field to update.",
		})
		return
	}
	writeOK(w, Envelope{Message: "Address updated successfully.", Customer: p})
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// formValue reports whether field was sent at all, distinguishing "" from absent.
func formValue(r *http.Request, field string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	vs, ok := r.MultipartForm.Value[field]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// formImage reads an optional image file part. A missing part is not an error.
func formImage(r *http.Request, field string) (*media.Image, error) {
	f, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.FieldErrors{field: "The " + field + " failed to upload."}
	}
	defer f.Close()
	return media.FromReader(f, field)
}
