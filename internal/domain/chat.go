package domain

import "time"

const (
	SenderCustomer = "customer"
	SenderAdmin    = "admin"
)

// ChatMessage is one message in a customer's conversation with the admins.
// PK: customer_id, SK: message_id (ULID).
type ChatMessage struct {
	CustomerID string     `json:"-" dynamodbav:"customer_id"`
	MessageID  string     `json:"id" dynamodbav:"message_id"`
	SenderType string     `json:"sender_type" dynamodbav:"sender_type"`
	Body       *string    `json:"body" dynamodbav:"body"`
	ImagePath  *string    `json:"-" dynamodbav:"image_path"`
	ReadAt     *time.Time `json:"read_at" dynamodbav:"read_at"`
	CreatedAt  time.Time  `json:"created_at" dynamodbav:"created_at"`
}

// ChatThread summarises a conversation for the admin inbox.
type ChatThread struct {
	CustomerID         string       `dynamodbav:"customer_id"`
	LastMessage        *ChatMessage `dynamodbav:"last_message"`
	LastMessageAt      time.Time    `dynamodbav:"last_message_at"`
	UnreadFromCustomer int          `dynamodbav:"unread_from_customer"`
}
