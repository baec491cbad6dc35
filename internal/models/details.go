package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/pehel/mortgage-app/internal/catalog"
)

// ProductDetails carries the product-specific fields collected at the
// application-details step. Which fields are required depends on the
// selected product.
type ProductDetails struct {
	// Loans.
	Amount     float64 `json:"amount,omitempty"`
	TermMonths int     `json:"term,omitempty"`

	// Credit card.
	AnnualIncome   float64 `json:"annualIncome,omitempty"`
	EmploymentType string  `json:"employmentType,omitempty"`

	// Overdraft.
	RequestedLimit float64 `json:"requestedLimit,omitempty"`
	AccountType    string  `json:"accountType,omitempty"`
}

var (
	employmentTypes = []interface{}{"full_time", "part_time", "self_employed", "retired"}
	accountTypes    = []interface{}{"current", "savings", "business"}
)

// ValidateFor checks the fields required by the given product. Numeric
// fields must be strictly positive.
func (d ProductDetails) ValidateFor(id catalog.ProductID) error {
	if id.IsLoan() {
		return validation.ValidateStruct(&d,
			validation.Field(&d.Amount, validation.Required, validation.Min(0.0).Exclusive()),
			validation.Field(&d.TermMonths, validation.Required, validation.Min(0).Exclusive()),
		)
	}
	switch id {
	case catalog.ProductCreditCard:
		return validation.ValidateStruct(&d,
			validation.Field(&d.AnnualIncome, validation.Required, validation.Min(0.0).Exclusive()),
			validation.Field(&d.EmploymentType, validation.Required, validation.In(employmentTypes...)),
		)
	case catalog.ProductOverdraft:
		return validation.ValidateStruct(&d,
			validation.Field(&d.RequestedLimit, validation.Required, validation.Min(0.0).Exclusive()),
			validation.Field(&d.AccountType, validation.Required, validation.In(accountTypes...)),
		)
	}
	return nil
}

// Decision is the application decision state.
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionApproved Decision = "approved"
	DecisionDenied   Decision = "denied"
)
