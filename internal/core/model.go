package core

import "time"

// Company is a tenant: one photography agency.
type Company struct {
	ID          int       `json:"id"`
	CompanyCode string    `json:"company_code"`
	Name        string    `json:"name"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

// Customer is a client of the agency (usually a real-estate brokerage), scoped to a company.
type Customer struct {
	ID        int    `json:"id"`
	CompanyID int    `json:"company_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	// PaymentTermsDays is nil when the customer uses the agency default.
	PaymentTermsDays *int      `json:"payment_terms_days,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// PaymentTerms returns the customer's payment terms in days, or defaultDays when unset.
func (c *Customer) PaymentTerms(defaultDays int) int {
	if c == nil || c.PaymentTermsDays == nil {
		return defaultDays
	}
	return *c.PaymentTermsDays
}

// CustomerInput is used when creating a customer.
type CustomerInput struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	PaymentTermsDays *int   `json:"payment_terms_days,omitempty"`
}

// Validate checks required customer fields.
func (in CustomerInput) Validate() error {
	if in.Code == "" {
		return FieldError("code", "customer code is required")
	}
	if in.Name == "" {
		return FieldError("name", "customer name is required")
	}
	if in.PaymentTermsDays != nil && *in.PaymentTermsDays < 0 {
		return FieldError("payment_terms_days", "payment terms must not be negative")
	}
	return nil
}
