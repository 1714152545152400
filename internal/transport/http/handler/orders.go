package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/water-delivery-api/internal/application/order"
	"github.com/water-delivery-api/internal/domain"
	"github.com/water-delivery-api/internal/transport/http/middleware"
)

// OrderHandler handles the customer's orders.
type OrderHandler struct {
	svc    order.Service
	logger *logrus.Logger
}

func NewOrderHandler(svc order.Service, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, logger: logger}
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	orders, err := h.svc.List(r.Context(), id.Customer)
	if err != nil {
		httpError(w, r, h.logger, err, nil)
		return
	}
	writeOK(w, Envelope{Data: orders})
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	o, err := h.svc.Get(r.Context(), id.Customer, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, h.logger, err, messages{domain.ErrNotFound: "Order not found."})
		return
	}
	writeOK(w, Envelope{Data: o})
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	var req order.PlaceRequest
	if !decode(w, r, &req) {
		return
	}
	o, err := h.svc.Place(r.Context(), id.Customer, req)
	if err != nil {
		httpError(w, r, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, Envelope{Success: true, Data: o})
}
