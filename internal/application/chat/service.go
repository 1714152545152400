// Package chat implements the customer support conversation shared by a
// customer and the admins.
package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/water-delivery-api/internal/application/media"
	"github.com/water-delivery-api/internal/domain"
	"github.com/water-delivery-api/internal/pkg/id"
	"github.com/water-delivery-api/internal/pkg/page"
)

// Page sizes.
const (
	DefaultMessagesPerPage = 50
	MaxMessagesPerPage     = 100
	DefaultThreadsPerPage  = 20
	MaxThreadsPerPage      = 50
)

const (
	maxBodyLength = 5000
	msgEmpty      = "Provide a message (body) or an image."
	msgBodyLong   = "The body may not be greater than 5000 characters."
)

// Message is the projection of a chat message returned to clients.
type Message struct {
	ID         string     `json:"id"`
	SenderType string     `json:"sender_type"`
	Body       *string    `json:"body"`
	ImageURL   *string    `json:"image_url"`
	CreatedAt  time.Time  `json:"created_at"`
	ReadAt     *time.Time `json:"read_at"`
}

// Participant identifies the customer side of a conversation.
type Participant struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	ContactNo *string `json:"contact_no"`
}

// Thread is one row of the admin inbox.
type Thread struct {
	Participant
	UnreadCount int      `json:"unread_count"`
	LastMessage *Message `json:"last_message"`
}

// Conversation is a page of one customer's messages.
type Conversation struct {
	Customer Participant `json:"customer"`
	Messages []Message   `json:"messages"`
}

type Service interface {
	// Messages returns the customer's own conversation, oldest first.
	Messages(ctx context.Context, c *domain.Customer, p page.Params) ([]Message, page.Meta, error)
	Send(ctx context.Context, c *domain.Customer, body *string, img *media.Image) (*Message, error)

	// Threads lists customers with at least one message, latest activity first.
	Threads(ctx context.Context, p page.Params) ([]Thread, page.Meta, error)
	Conversation(ctx context.Context, customerID string, p page.Params) (*Conversation, page.Meta, error)
	Reply(ctx context.Context, customerID string, body *string, img *media.Image) (*Message, error)
	MarkRead(ctx context.Context, customerID string) error
}

type chatStore interface {
	Append(ctx context.Context, m *domain.ChatMessage) error
	ListMessages(ctx context.Context, customerID string) ([]domain.ChatMessage, error)
	ListThreads(ctx context.Context) ([]domain.ChatThread, error)
	MarkCustomerMessagesRead(ctx context.Context, customerID string, at time.Time) error
}

type customerStore interface {
	Get(ctx context.Context, customerID string) (*domain.Customer, error)
	GetMany(ctx context.Context, customerIDs []string) (map[string]*domain.Customer, error)
}

type service struct {
	repo      chatStore
	customers customerStore
	media     media.Service
	now       func() time.Time
}

type ServiceDeps struct {
	ChatRepo     chatStore
	CustomerRepo customerStore
	Media        media.Service
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:      deps.ChatRepo,
		customers: deps.CustomerRepo,
		media:     deps.Media,
		now:       time.Now,
	}
}

func (s *service) Messages(ctx context.Context, c *domain.Customer, p page.Params) ([]Message, page.Meta, error) {
	return s.page(ctx, c.CustomerID, p)
}

func (s *service) Send(ctx context.Context, c *domain.Customer, body *string, img *media.Image) (*Message, error) {
	return s.post(ctx, c.CustomerID, domain.SenderCustomer, body, img)
}

func (s *service) Threads(ctx context.Context, p page.Params) ([]Thread, page.Meta, error) {
	threads, err := s.repo.ListThreads(ctx)
	if err != nil {
		return nil, page.Meta{}, err
	}
	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].LastMessageAt.After(threads[j].LastMessageAt)
	})
	items, meta := page.Slice(threads, p.Normalize(DefaultThreadsPerPage, MaxThreadsPerPage))
	if len(items) == 0 {
		return []Thread{}, meta, nil
	}

	ids := make([]string, len(items))
	for i, t := range items {
		ids[i] = t.CustomerID
	}
	customers, err := s.customers.GetMany(ctx, ids)
	if err != nil {
		return nil, page.Meta{}, fmt.Errorf("load chat customers: %w", err)
	}

	out := make([]Thread, 0, len(items))
	for _, t := range items {
		th := Thread{Participant: Participant{ID: t.CustomerID, Name: "Customer"}, UnreadCount: t.UnreadFromCustomer}
		if c, ok := customers[t.CustomerID]; ok {
			th.Participant = participant(c)
		}
		if t.LastMessage != nil {
			m := s.toMessage(ctx, *t.LastMessage)
			th.LastMessage = &m
		}
		out = append(out, th)
	}
	return out, meta, nil
}

func (s *service) Conversation(ctx context.Context, customerID string, p page.Params) (*Conversation, page.Meta, error) {
	c, err := s.customers.Get(ctx, customerID)
	if err != nil {
		return nil, page.Meta{}, err
	}
	msgs, meta, err := s.page(ctx, customerID, p)
	if err != nil {
		return nil, page.Meta{}, err
	}
	return &Conversation{Customer: participant(c), Messages: msgs}, meta, nil
}

func (s *service) Reply(ctx context.Context, customerID string, body *string, img *media.Image) (*Message, error) {
	if _, err := s.customers.Get(ctx, customerID); err != nil {
		return nil, err
	}
	return s.post(ctx, customerID, domain.SenderAdmin, body, img)
}

func (s *service) MarkRead(ctx context.Context, customerID string) error {
	if _, err := s.customers.Get(ctx, customerID); err != nil {
		return err
	}
	if err := s.repo.MarkCustomerMessagesRead(ctx, customerID, s.now().UTC()); err != nil {
		return fmt.Errorf("mark chat read: %w", err)
	}
	return nil
}

func (s *service) page(ctx context.Context, customerID string, p page.Params) ([]Message, page.Meta, error) {
	all, err := s.repo.ListMessages(ctx, customerID)
	if err != nil {
		return nil, page.Meta{}, err
	}
	items, meta := page.Slice(all, p.Normalize(DefaultMessagesPerPage, MaxMessagesPerPage))
	out := make([]Message, len(items))
	for i := range items {
		out[i] = s.toMessage(ctx, items[i])
	}
	return out, meta, nil
}

// post stores a message from sender. A blank body with no image is rejected.
func (s *service) post(ctx context.Context, customerID, sender string, body *string, img *media.Image) (*Message, error) {
	var text *string
	if body != nil {
		if v := strings.TrimSpace(*body); v != "" {
			text = &v
		}
	}
	if text == nil && img == nil {
		return nil, domain.FieldErrors{"body": msgEmpty}
	}
	if text != nil && len([]rune(*text)) > maxBodyLength {
		return nil, domain.FieldErrors{"body": msgBodyLong}
	}

	m := &domain.ChatMessage{
		CustomerID: customerID,
		MessageID:  id.New(),
		SenderType: sender,
		Body:       text,
		CreatedAt:  s.now().UTC(),
	}
	if img != nil {
		key, err := s.media.Store(ctx, fmt.Sprintf("chat/%s/%s", customerID, m.MessageID), img)
		if err != nil {
			return nil, fmt.Errorf("store chat image: %w", err)
		}
		m.ImagePath = &key
	}
	if err := s.repo.Append(ctx, m); err != nil {
		return nil, fmt.Errorf("append chat message: %w", err)
	}
	out := s.toMessage(ctx, *m)
	return &out, nil
}

func (s *service) toMessage(ctx context.Context, m domain.ChatMessage) Message {
	out := Message{
		ID:         m.MessageID,
		SenderType: m.SenderType,
		Body:       m.Body,
		CreatedAt:  m.CreatedAt,
		ReadAt:     m.ReadAt,
	}
	if m.ImagePath != nil {
		out.ImageURL = s.media.URL(ctx, *m.ImagePath)
	}
	return out
}

func participant(c *domain.Customer) Participant {
	return Participant{ID: c.CustomerID, Name: c.FullName(), Email: c.Email, ContactNo: c.ContactNo}
}
