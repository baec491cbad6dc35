package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pehel/mortgage-app/internal/catalog"
	"github.com/pehel/mortgage-app/internal/common/logger"
)

func testClassifier(t *testing.T) *Classifier {
	t.Helper()
	return NewClassifier(catalog.New(), logger.NewTestLogger(t))
}

func suggestionIDs(r Result) []catalog.ProductID {
	ids := make([]catalog.ProductID, 0, len(r.Suggestions))
	for _, p := range r.Suggestions {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantRule string
		wantIDs  []catalog.ProductID
	}{
		{
			name:     "personal loan beats generic loan rule",
			message:  "I need a personal loan quickly",
			wantRule: "personal_loan",
			wantIDs:  []catalog.ProductID{catalog.ProductPersonalLoan},
		},
		{
			name:     "term loan for large amounts",
			message:  "I want to borrow a large amount long term",
			wantRule: "term_loan",
			wantIDs:  []catalog.ProductID{catalog.ProductTermLoan},
		},
		{
			name:     "green loan",
			message:  "do you finance eco projects",
			wantRule: "green_loan",
			wantIDs:  []catalog.ProductID{catalog.ProductGreenLoan},
		},
		{
			name:     "bare loan falls through to all loans",
			message:  "loan",
			wantRule: "all_loans",
			wantIDs: []catalog.ProductID{
				catalog.ProductPersonalLoan,
				catalog.ProductTermLoan,
				catalog.ProductGreenLoan,
			},
		},
		{
			name:     "credit card",
			message:  "I'd like a credit card",
			wantRule: "credit_card",
			wantIDs:  []catalog.ProductID{catalog.ProductCreditCard},
		},
		{
			name:     "overdraft via account keyword",
			message:  "something flexible on my account",
			wantRule: "overdraft",
			wantIDs:  []catalog.ProductID{catalog.ProductOverdraft},
		},
		{
			name:     "general inquiry lists full catalog",
			message:  "what can you offer",
			wantRule: "general_inquiry",
			wantIDs: []catalog.ProductID{
				catalog.ProductPersonalLoan,
				catalog.ProductTermLoan,
				catalog.ProductGreenLoan,
				catalog.ProductCreditCard,
				catalog.ProductOverdraft,
			},
		},
	}

	c := testClassifier(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Classify(tt.message)
			assert.Equal(t, tt.wantRule, result.Rule)
			assert.Equal(t, tt.wantIDs, suggestionIDs(result))
			assert.NotEmpty(t, result.Message)
		})
	}
}

func TestClassifyNoMatch(t *testing.T) {
	c := testClassifier(t)

	result := c.Classify("xyz")
	assert.Equal(t, "no_match", result.Rule)
	assert.Empty(t, result.Suggestions)
	require.NotEmpty(t, result.Message, "no-match still answers with a clarifying message")
}

func TestClassifyCaseInsensitive(t *testing.T) {
	c := testClassifier(t)

	lower := c.Classify("i need a personal loan")
	upper := c.Classify("I NEED A PERSONAL LOAN")
	assert.Equal(t, lower.Rule, upper.Rule)
	assert.Equal(t, suggestionIDs(lower), suggestionIDs(upper))
}

func TestClassifyDeterministic(t *testing.T) {
	c := testClassifier(t)

	first := c.Classify("I need a quick loan for a green project")
	for i := 0; i < 5; i++ {
		again := c.Classify("I need a quick loan for a green project")
		assert.Equal(t, first.Rule, again.Rule, "same input always hits the same rule")
	}
}
