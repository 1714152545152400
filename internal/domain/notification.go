package domain

import "time"

// Admin notification types.
const (
	AdminNotifyNewOrder       = "new_order"
	AdminNotifyAddressUpdated = "address_updated"
	AdminNotifyProfileUpdated = "profile_updated"
)

// Customer notification types.
const (
	CustomerNotifyOrderPlaced = "order_placed"
)

// AdminNotificationScope is the single partition all admin notifications share.
const AdminNotificationScope = "admin"

// AdminNotification is an entry in the admin dashboard feed.
// PK: scope, SK: notification_id (ULID, newest sorts last).
type AdminNotification struct {
	Scope          string            `json:"-" dynamodbav:"scope"`
	NotificationID string            `json:"id" dynamodbav:"notification_id"`
	Type           string            `json:"type" dynamodbav:"type"`
	Title          string            `json:"title" dynamodbav:"title"`
	Message        string            `json:"message" dynamodbav:"message"`
	CustomerID     *string           `json:"customer_id" dynamodbav:"customer_id"`
	RelatedType    *string           `json:"related_type" dynamodbav:"related_type"`
	RelatedID      *string           `json:"related_id" dynamodbav:"related_id"`
	Data           map[string]string `json:"data,omitempty" dynamodbav:"data"`
	ReadAt         *time.Time        `json:"read_at" dynamodbav:"read_at"`
	CreatedAt      time.Time         `json:"created_at" dynamodbav:"created_at"`
}

// CustomerNotification is an entry in a customer's own feed.
// PK: customer_id, SK: notification_id.
type CustomerNotification struct {
	CustomerID     string            `json:"-" dynamodbav:"customer_id"`
	NotificationID string            `json:"id" dynamodbav:"notification_id"`
	Type           string            `json:"type" dynamodbav:"type"`
	Title          string            `json:"title" dynamodbav:"title"`
	Message        string            `json:"message" dynamodbav:"message"`
	ImageURL       *string           `json:"image_url" dynamodbav:"image_url"`
	RelatedType    *string           `json:"related_type" dynamodbav:"related_type"`
	RelatedID      *string           `json:"related_id" dynamodbav:"related_id"`
	Data           map[string]string `json:"data,omitempty" dynamodbav:"data"`
	ReadAt         *time.Time        `json:"read_at" dynamodbav:"read_at"`
	CreatedAt      time.Time         `json:"created_at" dynamodbav:"created_at"`
}
