// Package loan computes loan amortization quotes.
package loan

import (
	"fmt"
	"math"

	"github.com/pehel/mortgage-app/internal/catalog"
	"github.com/pehel/mortgage-app/internal/common/config"
	"github.com/pehel/mortgage-app/internal/common/errors"
)

// Quote is the amortization result for a principal, term and product rate.
// All money amounts are rounded half-up to cents.
type Quote struct {
	Principal      float64 `json:"principal"`
	TermMonths     int     `json:"term"`
	AnnualRate     float64 `json:"interestRate"`
	MonthlyPayment float64 `json:"monthlyPayment"`
	TotalAmount    float64 `json:"totalAmount"`
	TotalInterest  float64 `json:"totalInterest"`
}

// Calculator resolves per-product annual rates and computes quotes.
type Calculator struct {
	rates       map[catalog.ProductID]float64
	defaultRate float64
}

func NewCalculator(cfg config.ProductsConfig) *Calculator {
	rates := make(map[catalog.ProductID]float64, len(cfg.Rates))
	for id, rate := range cfg.Rates {
		rates[catalog.ProductID(id)] = rate
	}
	return &Calculator{rates: rates, defaultRate: cfg.DefaultLoanRate}
}

// RateFor returns the annual rate applied to the given product. Products
// without a configured rate fall back to the default loan rate.
func (c *Calculator) RateFor(id catalog.ProductID) float64 {
	if rate, ok := c.rates[id]; ok {
		return rate
	}
	return c.defaultRate
}

// Amortize computes the fixed monthly payment for the given product, using
// the standard annuity formula:
//
//	monthlyPayment = P × r × (1+r)^n / ((1+r)^n − 1)
//
// where r is the monthly rate and n the term in months. A zero term or zero
// monthly rate would divide by zero and is rejected.
func (c *Calculator) Amortize(id catalog.ProductID, principal float64, termMonths int) (*Quote, error) {
	if principal <= 0 {
		return nil, errors.NewValidation(errors.CodeAmortizationInput,
			fmt.Sprintf("principal must be positive, got %v", principal), "amount")
	}
	if termMonths <= 0 {
		return nil, errors.NewValidation(errors.CodeAmortizationInput,
			fmt.Sprintf("term must be positive, got %v", termMonths), "term")
	}

	annualRate := c.RateFor(id)
	monthlyRate := annualRate / 100 / 12
	if monthlyRate == 0 {
		return nil, errors.NewValidation(errors.CodeAmortizationInput,
			"monthly rate is zero", "interestRate")
	}

	growth := math.Pow(1+monthlyRate, float64(termMonths))
	monthlyPayment := principal * monthlyRate * growth / (growth - 1)
	totalAmount := monthlyPayment * float64(termMonths)
	totalInterest := totalAmount - principal

	return &Quote{
		Principal:      principal,
		TermMonths:     termMonths,
		AnnualRate:     annualRate,
		MonthlyPayment: roundMoney(monthlyPayment),
		TotalAmount:    roundMoney(totalAmount),
		TotalInterest:  roundMoney(totalInterest),
	}, nil
}

// EstimatedCreditLimit is the credit-card limit estimate shown at the
// application-details step: 30% of annual income, capped at €15,000.
func EstimatedCreditLimit(annualIncome float64) float64 {
	return roundMoney(math.Min(annualIncome*0.3, 15000))
}

// roundMoney rounds to 2 decimal places, half away from zero for positive
// amounts.
func roundMoney(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}
