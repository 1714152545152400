package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/water-delivery-api/internal/application/notification"
	"github.com/water-delivery-api/internal/domain"
	"github.com/water-delivery-api/internal/transport/http/middleware"
)

var notificationMessages = messages{domain.ErrNotFound: "Notification not found."}

// NotificationHandler handles the customer feed and the admin dashboard feed.
type NotificationHandler struct {
	svc    notification.Service
	logger *logrus.Logger
}

func NewNotificationHandler(svc notification.Service, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, logger: logger}
}

func (h *NotificationHandler) ListMine(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	items, meta, err := h.svc.ListCustomer(r.Context(), id.Customer.CustomerID, parsePagination(r))
	if err != nil {
		httpError(w, r, h.logger, err, nil)
		return
	}
	writeOK(w, Envelope{Data: items, Meta: &meta})
}

func (h *NotificationHandler) MarkMineRead(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	if err := h.svc.MarkCustomerRead(r.Context(), id.Customer.CustomerID, chi.URLParam(r, "id")); err != nil {
		httpError(w, r, h.logger, err, notificationMessages)
		return
	}
	writeOK(w, Envelope{Message: "Marked as read."})
}

func (h *NotificationHandler) ListAdmin(w http.ResponseWriter, r *http.Request) {
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread_only"))
	p, err := h.svc.ListAdmin(r.Context(), unreadOnly, parsePagination(r))
	if err != nil {
		httpError(w, r, h.logger, err, nil)
		return
	}
	writeOK(w, Envelope{Data: p.Items, Meta: &p.Meta, UnreadCount: intPtr(p.UnreadCount)})
}

func (h *NotificationHandler) AdminUnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.AdminUnreadCount(r.Context())
	if err != nil {
		httpError(w, r, h.logger, err, nil)
		return
	}
	writeOK(w, Envelope{UnreadCount: intPtr(n)})
}

func (h *NotificationHandler) MarkAdminRead(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.MarkAdminRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, r, h.logger, err, notificationMessages)
		return
	}
	writeOK(w, Envelope{Message: "Marked as read."})
}

func (h *NotificationHandler) MarkAllAdminRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.MarkAllAdminRead(r.Context())
	if err != nil {
		httpError(w, r, h.logger, err, nil)
		return
	}
	writeOK(w, Envelope{Message: "All marked as read.", Count: intPtr(n)})
}
