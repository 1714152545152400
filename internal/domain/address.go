package domain

import (
	"strings"
	"time"
)

// Address is an entry in a customer's address book.
// PK: customer_id, SK: address_id (ULID, creation ordered).
type Address struct {
	CustomerID string  `json:"customer_id" dynamodbav:"customer_id"`
	AddressID  string  `json:"id" dynamodbav:"address_id"`
	FirstName  *string `json:"firstname" dynamodbav:"firstname"`
	LastName   *string `json:"lastname" dynamodbav:"lastname"`
	ContactNo  *string `json:"contact_no" dynamodbav:"contact_no"`
	AddressFields
	IsDefault bool      `json:"is_default" dynamodbav:"is_default"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// AddressInput carries the optional location fields accepted by the
// customer-level and address-book endpoints.
type AddressInput struct {
	Province   *string `json:"province" validate:"omitempty,max=100"`
	City       *string `json:"city" validate:"omitempty,max=100"`
	Barangay   *string `json:"barangay" validate:"omitempty,max=100"`
	PostalCode *string `json:"postal_code" validate:"omitempty,max=20"`
	StreetName *string `json:"street_name" validate:"omitempty,max=255"`
	LabelAs    *string `json:"label_as" validate:"omitempty,max=50"`
	Reason     *string `json:"reason" validate:"omitempty,max=500"`
}

// Updates returns the trimmed non-blank fields keyed by attribute name.
func (in AddressInput) Updates() map[string]interface{} {
	out := map[string]interface{}{}
	PutTrimmed(out, "province", in.Province)
	PutTrimmed(out, "city", in.City)
	PutTrimmed(out, "barangay", in.Barangay)
	PutTrimmed(out, "postal_code", in.PostalCode)
	PutTrimmed(out, "street_name", in.StreetName)
	PutTrimmed(out, "label_as", in.LabelAs)
	PutTrimmed(out, "reason", in.Reason)
	return out
}

// Apply copies the trimmed non-blank fields onto a.
func (in AddressInput) Apply(a *AddressFields) {
	setTrimmed(&a.Province, in.Province)
	setTrimmed(&a.City, in.City)
	setTrimmed(&a.Barangay, in.Barangay)
	setTrimmed(&a.PostalCode, in.PostalCode)
	setTrimmed(&a.StreetName, in.StreetName)
	setTrimmed(&a.LabelAs, in.LabelAs)
	setTrimmed(&a.Reason, in.Reason)
}

// PutTrimmed stores the trimmed value of p under key when it is not blank.
func PutTrimmed(m map[string]interface{}, key string, p *string) {
	if p == nil {
		return
	}
	if v := strings.TrimSpace(*p); v != "" {
		m[key] = v
	}
}

func setTrimmed(dst **string, p *string) {
	if p == nil {
		return
	}
	if v := strings.TrimSpace(*p); v != "" {
		*dst = &v
	}
}
