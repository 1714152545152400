package domain

import "time"

const (
	OrderStatusPending  = "pending"
	DefaultProductImage = "img/default-product.png"
)

type Order struct {
	OrderID         string    `json:"id" dynamodbav:"order_id"`
	TransactionID   string    `json:"transaction_id" dynamodbav:"transaction_id"`
	CustomerID      string    `json:"-" dynamodbav:"customer_id"`
	CustomerName    string    `json:"-" dynamodbav:"customer_name"`
	CustomerPhone   string    `json:"-" dynamodbav:"customer_phone"`
	CustomerImage   string    `json:"-" dynamodbav:"customer_image"`
	ProductName     string    `json:"product_name" dynamodbav:"product_name"`
	ProductType     string    `json:"product_type" dynamodbav:"product_type"`
	GallonSize      string    `json:"gallon_size" dynamodbav:"gallon_size"`
	ProductImage    string    `json:"product_image" dynamodbav:"product_image"`
	DeliveryDate    string    `json:"delivery_date" dynamodbav:"delivery_date"` // YYYY-MM-DD
	DeliveryTime    string    `json:"delivery_time" dynamodbav:"delivery_time"`
	DeliveryAddress string    `json:"delivery_address" dynamodbav:"delivery_address"`
	Amount          float64   `json:"amount" dynamodbav:"amount"`
	PaymentMethod   string    `json:"payment_method" dynamodbav:"payment_method"`
	Status          string    `json:"status" dynamodbav:"status"`
	CreatedAt       time.Time `json:"created_at" dynamodbav:"created_at"`
}
