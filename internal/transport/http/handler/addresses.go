package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/water-delivery-api/internal/application/address"
	"github.com/water-delivery-api/internal/domain"
	"github.com/water-delivery-api/internal/transport/http/middleware"
)

var addressMessages = messages{domain.ErrNotFound: "Address not found."}

// AddressHandler handles the customer's address book.
type AddressHandler struct {
	svc    address.Service
	logger *logrus.Logger
}

func NewAddressHandler(svc address.Service, logger *logrus.Logger) *AddressHandler {
	return &AddressHandler{svc: svc, logger: logger}
}

type addressList struct {
	Addresses []address.View `json:"addresses"`
	Count     int            `json:"count"`
}

func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	views, err := h.svc.List(r.Context(), id.Customer)
	if err != nil {
		httpError(w, r, h.logger, err, nil)
		return
	}
	writeOK(w, Envelope{Data: addressList{Addresses: views, Count: len(views)}})
}

func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	v, err := h.svc.Get(r.Context(), id.Customer, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, h.logger, err, addressMessages)
		return
	}
	writeOK(w, Envelope{Data: v})
}

func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	var req address.Request
	if !decode(w, r, &req) {
		return
	}
	v, err := h.svc.Create(r.Context(), id.Customer, req)
	if err != nil {
		httpError(w, r, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, Envelope{Success: true, Message: "Address added successfully.", Data: v})
}

func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	var req address.Request
	if !decode(w, r, &req) {
		return
	}
	v, err := h.svc.Update(r.Context(), id.Customer, chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, r, h.logger, err, addressMessages)
		return
	}
	writeOK(w, Envelope{Message: "Address updated successfully.", Data: v})
}

func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	if err := h.svc.Delete(r.Context(), id.Customer, chi.URLParam(r, "id")); err != nil {
		httpError(w, r, h.logger, err, addressMessages)
		return
	}
	writeOK(w, Envelope{Message: "Address deleted."})
}

func (h *AddressHandler) SetDefault(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	v, err := h.svc.SetDefault(r.Context(), id.Customer, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, h.logger, err, addressMessages)
		return
	}
	writeOK(w, Envelope{Message: "Default address updated.", Data: v})
}
