package loan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pehel/mortgage-app/internal/catalog"
	"github.com/pehel/mortgage-app/internal/common/config"
	"github.com/pehel/mortgage-app/internal/common/errors"
)

func testCalculator() *Calculator {
	return NewCalculator(config.ProductsConfig{
		Rates: map[string]float64{
			"green_loan": 3.8,
			"term_loan":  4.2,
		},
		DefaultLoanRate: 5.5,
	})
}

func TestRateFor(t *testing.T) {
	c := testCalculator()

	assert.Equal(t, 3.8, c.RateFor(catalog.ProductGreenLoan))
	assert.Equal(t, 4.2, c.RateFor(catalog.ProductTermLoan))
	assert.Equal(t, 5.5, c.RateFor(catalog.ProductPersonalLoan), "unconfigured products use the default rate")
}

func TestAmortize(t *testing.T) {
	tests := []struct {
		name       string
		product    catalog.ProductID
		principal  float64
		termMonths int

		wantRate     float64
		wantMonthly  float64
		wantTotal    float64
		wantInterest float64
	}{
		{
			name:         "personal loan at default rate",
			product:      catalog.ProductPersonalLoan,
			principal:    10000,
			termMonths:   24,
			wantRate:     5.5,
			wantMonthly:  440.96,
			wantTotal:    10582.96,
			wantInterest: 582.96,
		},
		{
			name:         "green loan",
			product:      catalog.ProductGreenLoan,
			principal:    20000,
			termMonths:   60,
			wantRate:     3.8,
			wantMonthly:  366.53,
			wantTotal:    21991.69,
			wantInterest: 1991.69,
		},
		{
			name:         "term loan",
			product:      catalog.ProductTermLoan,
			principal:    100000,
			termMonths:   120,
			wantRate:     4.2,
			wantMonthly:  1021.98,
			wantTotal:    122638.05,
			wantInterest: 22638.05,
		},
		{
			name:         "one year personal loan",
			product:      catalog.ProductPersonalLoan,
			principal:    5000,
			termMonths:   12,
			wantRate:     5.5,
			wantMonthly:  429.18,
			wantTotal:    5150.21,
			wantInterest: 150.21,
		},
	}

	c := testCalculator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := c.Amortize(tt.product, tt.principal, tt.termMonths)
			require.NoError(t, err)

			assert.Equal(t, tt.wantRate, quote.AnnualRate)
			assert.Equal(t, tt.wantMonthly, quote.MonthlyPayment)
			assert.Equal(t, tt.wantTotal, quote.TotalAmount)
			assert.Equal(t, tt.wantInterest, quote.TotalInterest)
			assert.Equal(t, tt.principal, quote.Principal)
			assert.Equal(t, tt.termMonths, quote.TermMonths)
		})
	}
}

func TestAmortizeTotalsReconcile(t *testing.T) {
	c := testCalculator()

	// totalAmount minus totalInterest recovers the principal exactly for
	// principals expressed in whole cents.
	for _, principal := range []float64{1000, 2500.50, 9999.99, 300000} {
		quote, err := c.Amortize(catalog.ProductTermLoan, principal, 48)
		require.NoError(t, err)
		assert.InDelta(t, principal, quote.TotalAmount-quote.TotalInterest, 0.001)
	}
}

func TestAmortizeRejectsBadInput(t *testing.T) {
	c := testCalculator()

	tests := []struct {
		name       string
		principal  float64
		termMonths int
		wantField  string
	}{
		{"zero principal", 0, 24, "amount"},
		{"negative principal", -100, 24, "amount"},
		{"zero term", 10000, 0, "term"},
		{"negative term", 10000, -6, "term"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Amortize(catalog.ProductPersonalLoan, tt.principal, tt.termMonths)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
			assert.Equal(t, errors.CodeAmortizationInput, errors.CodeOf(err))

			var wizErr *errors.WizardError
			require.ErrorAs(t, err, &wizErr)
			assert.Contains(t, wizErr.Fields, tt.wantField)
		})
	}
}

func TestAmortizeRejectsZeroRate(t *testing.T) {
	c := NewCalculator(config.ProductsConfig{DefaultLoanRate: 0})

	_, err := c.Amortize(catalog.ProductPersonalLoan, 10000, 24)
	require.Error(t, err)
	assert.Equal(t, errors.CodeAmortizationInput, errors.CodeOf(err))
}

func TestEstimatedCreditLimit(t *testing.T) {
	assert.Equal(t, 15000.0, EstimatedCreditLimit(65000), "30% of income capped at 15000")
	assert.Equal(t, 14400.0, EstimatedCreditLimit(48000))
	assert.Equal(t, 15000.0, EstimatedCreditLimit(200000))
	assert.Equal(t, 0.0, EstimatedCreditLimit(0))
}
