package dynamo

// DynamoDB attribute names used in key conditions and update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldCustomerID         = "customer_id"
	fieldEmail              = "email"
	fieldAddressID          = "address_id"
	fieldOrderID            = "order_id"
	fieldMessageID          = "message_id"
	fieldNotificationID     = "notification_id"
	fieldScope              = "scope"
	fieldCreatedAt          = "created_at"
	fieldUpdatedAt          = "updated_at"
	fieldIsDefault          = "is_default"
	fieldReadAt             = "read_at"
	fieldSenderType         = "sender_type"
	fieldUnreadFromCustomer = "unread_from_customer"
)

const (
	indexEmail             = "email-index"
	indexCustomerCreatedAt = "customer_id-created_at-index"
)
