package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/water-delivery-api/internal/application/chat"
	"github.com/water-delivery-api/internal/application/media"
	"github.com/water-delivery-api/internal/domain"
	"github.com/water-delivery-api/internal/transport/http/middleware"
)

var chatMessages = messages{domain.ErrNotFound: "Customer not found."}

// ChatHandler serves both sides of the support chat: the customer's own
// conversation and the admin inbox.
type ChatHandler struct {
	svc    chat.Service
	logger *logrus.Logger
}

func NewChatHandler(svc chat.Service, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, logger: logger}
}

// messageInput reads {body} as JSON, or body plus an image part from a
// multipart form. It answers the request itself when ok is false.
func (h *ChatHandler) messageInput(w http.ResponseWriter, r *http.Request) (body *string, img *media.Image, ok bool) {
	if !isMultipart(r) {
		var req struct {
			Body *string `json:"body"`
		}
		if !decode(w, r, &req) {
			return nil, nil, false
		}
		return req.Body, nil, true
	}
	if err := r.ParseMultipartForm(maxFormBytes); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return nil, nil, false
	}
	if v, present := formValue(r, "body"); present {
		body = &v
	}
	img, err := formImage(r, "image")
	if err != nil {
		httpError(w, r, h.logger, err, nil)
		return nil, nil, false
	}
	return body, img, true
}

func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	msgs, meta, err := h.svc.Messages(r.Context(), id.Customer, parsePagination(r))
	if err != nil {
		httpError(w, r, h.logger, err, nil)
		return
	}
	writeOK(w, Envelope{Data: msgs, Meta: &meta})
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request, id middleware.Identity) {
	body, img, ok := h.messageInput(w, r)
	if !ok {
		return
	}
	m, err := h.svc.Send(r.Context(), id.Customer, body, img)
	if err != nil {
		httpError(w, r, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, Envelope{Success: true, Data: m})
}

func (h *ChatHandler) Threads(w http.ResponseWriter, r *http.Request) {
	threads, meta, err := h.svc.Threads(r.Context(), parsePagination(r))
	if err != nil {
		httpError(w, r, h.logger, err, nil)
		return
	}
	writeOK(w, Envelope{Data: threads, Meta: &meta})
}

func (h *ChatHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	conv, meta, err := h.svc.Conversation(r.Context(), chi.URLParam(r, "id"), parsePagination(r))
	if err != nil {
		httpError(w, r, h.logger, err, chatMessages)
		return
	}
	writeOK(w, Envelope{Data: conv, Meta: &meta})
}

func (h *ChatHandler) Reply(w http.ResponseWriter, r *http.Request) {
	body, img, ok := h.messageInput(w, r)
	if !ok {
		return
	}
	m, err := h.svc.Reply(r.Context(), chi.URLParam(r, "id"), body, img)
	if err != nil {
		httpError(w, r, h.logger, err, chatMessages)
		return
	}
	writeOK(w, Envelope{Data: m})
}

func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.MarkRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, r, h.logger, err, chatMessages)
		return
	}
	writeOK(w, Envelope{Message: "Marked as read."})
}
