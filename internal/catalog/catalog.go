// Package catalog holds the static list of offerable products. The catalog
// is loaded once at process start and never mutated.
package catalog

import "strings"

// ProductID is the fixed product enumeration.
type ProductID string

const (
	ProductPersonalLoan ProductID = "personal_loan"
	ProductTermLoan     ProductID = "term_loan"
	ProductGreenLoan    ProductID = "green_loan"
	ProductCreditCard   ProductID = "credit_card"
	ProductOverdraft    ProductID = "overdraft"
)

// IsLoan reports whether the product is a loan-like product.
func (id ProductID) IsLoan() bool {
	return strings.Contains(string(id), "loan")
}

// Limits is the offerable amount range in euro.
type Limits struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// RateRange is the advertised annual rate range. Only loans carry one.
type RateRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Product is an immutable catalog entry.
type Product struct {
	ID                ProductID  `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Limits            Limits     `json:"limits"`
	RateRange         *RateRange `json:"rateRange,omitempty"`
	RequiredDocuments []string   `json:"requiredDocuments"`
}

// Catalog is the static product list.
type Catalog struct {
	products []Product
	byID     map[ProductID]*Product
}

// New builds the fixed catalog.
func New() *Catalog {
	products := []Product{
		{
			ID:          ProductPersonalLoan,
			Name:        "Personal Loan",
			Description: "Quick personal loans up to €10,000 with instant approval",
			Limits:      Limits{Min: 1000, Max: 10000},
			RateRange:   &RateRange{Min: 3.5, Max: 8.9},
			RequiredDocuments: []string{
				"Passport/ID",
				"Bank Statement (3 months)",
				"Income Proof",
			},
		},
		{
			ID:          ProductTermLoan,
			Name:        "Term Loan",
			Description: "Long-term loans for major expenses with competitive rates",
			Limits:      Limits{Min: 5000, Max: 300000},
			RateRange:   &RateRange{Min: 2.9, Max: 6.5},
			RequiredDocuments: []string{
				"Passport/ID",
				"Bank Statement (6 months)",
				"Income Proof",
				"Address Proof",
			},
		},
		{
			ID:          ProductGreenLoan,
			Name:        "Green Loan",
			Description: "Eco-friendly financing for sustainable projects",
			Limits:      Limits{Min: 2000, Max: 50000},
			RateRange:   &RateRange{Min: 2.5, Max: 5.9},
			RequiredDocuments: []string{
				"Passport/ID",
				"Bank Statement (6 months)",
				"Income Proof",
				"Address Proof",
			},
		},
		{
			ID:          ProductCreditCard,
			Name:        "Credit Card",
			Description: "Flexible credit cards with rewards and benefits",
			Limits:      Limits{Min: 500, Max: 15000},
			RequiredDocuments: []string{
				"Passport/ID",
				"Bank Statement (3 months)",
				"Income Proof",
				"Employment Letter",
			},
		},
		{
			ID:          ProductOverdraft,
			Name:        "Overdraft",
			Description: "Flexible overdraft facility for your current account",
			Limits:      Limits{Min: 100, Max: 5000},
			RequiredDocuments: []string{
				"Passport/ID",
				"Bank Statement (6 months)",
				"Address Proof",
			},
		},
	}

	byID := make(map[ProductID]*Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return &Catalog{products: products, byID: byID}
}

// Products returns a copy of the catalog entries in catalog order.
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// ByID looks up a product by id.
func (c *Catalog) ByID(id ProductID) (*Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Loans returns every loan-like product in catalog order.
func (c *Catalog) Loans() []Product {
	var out []Product
	for _, p := range c.products {
		if p.ID.IsLoan() {
			out = append(out, p)
		}
	}
	return out
}
