package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogContents(t *testing.T) {
	c := New()

	products := c.Products()
	require.Len(t, products, 5)

	ids := make([]ProductID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []ProductID{
		ProductPersonalLoan,
		ProductTermLoan,
		ProductGreenLoan,
		ProductCreditCard,
		ProductOverdraft,
	}, ids, "catalog order is fixed")
}

func TestCatalogLimits(t *testing.T) {
	c := New()

	tests := []struct {
		id       ProductID
		min, max float64
		docs     int
	}{
		{ProductPersonalLoan, 1000, 10000, 3},
		{ProductTermLoan, 5000, 300000, 4},
		{ProductGreenLoan, 2000, 50000, 4},
		{ProductCreditCard, 500, 15000, 4},
		{ProductOverdraft, 100, 5000, 3},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			p, ok := c.ByID(tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.min, p.Limits.Min)
			assert.Equal(t, tt.max, p.Limits.Max)
			assert.Len(t, p.RequiredDocuments, tt.docs)
		})
	}
}

func TestByIDUnknown(t *testing.T) {
	c := New()
	_, ok := c.ByID("mortgage")
	assert.False(t, ok)
}

func TestIsLoan(t *testing.T) {
	assert.True(t, ProductPersonalLoan.IsLoan())
	assert.True(t, ProductTermLoan.IsLoan())
	assert.True(t, ProductGreenLoan.IsLoan())
	assert.False(t, ProductCreditCard.IsLoan())
	assert.False(t, ProductOverdraft.IsLoan())
}

func TestLoans(t *testing.T) {
	c := New()
	loans := c.Loans()
	require.Len(t, loans, 3)
	for _, p := range loans {
		assert.True(t, p.ID.IsLoan())
	}
}

func TestRateRanges(t *testing.T) {
	c := New()

	for _, id := range []ProductID{ProductPersonalLoan, ProductTermLoan, ProductGreenLoan} {
		p, ok := c.ByID(id)
		require.True(t, ok)
		require.NotNil(t, p.RateRange, "loans advertise a rate range")
		assert.Less(t, p.RateRange.Min, p.RateRange.Max)
	}

	overdraft, _ := c.ByID(ProductOverdraft)
	assert.Nil(t, overdraft.RateRange)
}
