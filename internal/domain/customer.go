package domain

import (
	"strings"
	"time"
)

const (
	CustomerStatusActive = "active"
	DefaultCustomerImage = "img/default-user.png"
)

// Customer is the persisted customer record. The OTP challenge lives on the
// record itself; at most one is active at a time.
type Customer struct {
	CustomerID      string     `json:"id" dynamodbav:"customer_id"`
	FirstName       string     `json:"firstname" dynamodbav:"firstname"`
	LastName        string     `json:"lastname" dynamodbav:"lastname"`
	Email           string     `json:"email" dynamodbav:"email"`
	ContactNo       *string    `json:"contact_no" dynamodbav:"contact_no"`
	PasswordHash    string     `json:"-" dynamodbav:"password_hash"`
	Image           string     `json:"image" dynamodbav:"image"`
	Status          string     `json:"status" dynamodbav:"status"`
	EmailVerifiedAt *time.Time `json:"email_verified_at" dynamodbav:"email_verified_at"`
	OTP             *string    `json:"-" dynamodbav:"otp"`
	OTPExpiresAt    *time.Time `json:"-" dynamodbav:"otp_expires_at"`
	AddressFields
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// AddressFields are the location attributes shared by the customer record
// and address-book entries.
type AddressFields struct {
	Province   *string `json:"province" dynamodbav:"province"`
	City       *string `json:"city" dynamodbav:"city"`
	Barangay   *string `json:"barangay" dynamodbav:"barangay"`
	PostalCode *string `json:"postal_code" dynamodbav:"postal_code"`
	StreetName *string `json:"street_name" dynamodbav:"street_name"`
	LabelAs    *string `json:"label_as" dynamodbav:"label_as"`
	Reason     *string `json:"reason" dynamodbav:"reason"`
}

// FullAddress joins the non-empty parts as "street, barangay, <city> City, province, postal".
// It returns nil when every part is empty.
func (a AddressFields) FullAddress() *string {
	var parts []string
	add := func(p *string, suffix string) {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, *p+suffix)
		}
	}
	add(a.StreetName, "")
	add(a.Barangay, "")
	add(a.City, " City")
	add(a.Province, "")
	add(a.PostalCode, "")
	if len(parts) == 0 {
		return nil
	}
	s := strings.Join(parts, ", ")
	return &s
}

// IsVerified reports whether the customer completed email OTP verification.
func (c *Customer) IsVerified() bool { return c.EmailVerifiedAt != nil }

// FullName returns "first last", falling back to "Customer" when both are blank.
func (c *Customer) FullName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return "Customer"
	}
	return name
}

// NormalizeEmail lower-cases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
