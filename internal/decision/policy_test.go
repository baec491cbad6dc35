package decision

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pehel/mortgage-app/internal/catalog"
	"github.com/pehel/mortgage-app/internal/collaborators"
	"github.com/pehel/mortgage-app/internal/common/errors"
	"github.com/pehel/mortgage-app/internal/common/logger"
	"github.com/pehel/mortgage-app/internal/models"
)

func testRequest(existingCustomer bool) *collaborators.DecisionRequest {
	return &collaborators.DecisionRequest{
		ApplicationRef: "APP0000TEST",
		Product:        catalog.ProductPersonalLoan,
		Applicant: models.Applicant{
			FirstName:          "Rajat",
			LastName:           "Maheshwari",
			Email:              "rajat@example.com",
			IsExistingCustomer: existingCustomer,
		},
		Details: models.ProductDetails{Amount: 10000, TermMonths: 24},
	}
}

func TestHeuristicExistingCustomerAlwaysApproved(t *testing.T) {
	// Draw always above threshold; the existing-customer rule must win
	// before the draw happens.
	p := NewHeuristicPolicy(0.70, func() float64 { return 0.99 }, logger.NewTestLogger(t))

	for i := 0; i < 10; i++ {
		outcome, rationale, err := p.Decide(context.Background(), testRequest(true))
		require.NoError(t, err)
		assert.Equal(t, models.DecisionApproved, outcome)
		assert.Equal(t, "existing customer", rationale)
	}
}

func TestHeuristicDraw(t *testing.T) {
	tests := []struct {
		draw float64
		want models.Decision
	}{
		{0.0, models.DecisionApproved},
		{0.69, models.DecisionApproved},
		{0.70, models.DecisionDenied},
		{0.99, models.DecisionDenied},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("draw=%v", tt.draw), func(t *testing.T) {
			p := NewHeuristicPolicy(0.70, func() float64 { return tt.draw }, logger.NewTestLogger(t))
			outcome, rationale, err := p.Decide(context.Background(), testRequest(false))
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome)
			assert.NotEmpty(t, rationale)
		})
	}
}

func TestHeuristicZeroProbabilityDeniesEveryone(t *testing.T) {
	p := NewHeuristicPolicy(0, func() float64 { return 0.0 }, logger.NewTestLogger(t))

	outcome, _, err := p.Decide(context.Background(), testRequest(false))
	require.NoError(t, err)
	assert.Equal(t, models.DecisionDenied, outcome)
}

type stubDecisionService struct {
	result *collaborators.DecisionResult
	err    error
}

func (s *stubDecisionService) Evaluate(_ context.Context, _ *collaborators.DecisionRequest) (*collaborators.DecisionResult, error) {
	return s.result, s.err
}

func TestServicePolicy(t *testing.T) {
	t.Run("approved", func(t *testing.T) {
		p := NewServicePolicy(&stubDecisionService{
			result: &collaborators.DecisionResult{Approved: true, Rationale: "score above threshold"},
		})
		outcome, rationale, err := p.Decide(context.Background(), testRequest(false))
		require.NoError(t, err)
		assert.Equal(t, models.DecisionApproved, outcome)
		assert.Equal(t, "score above threshold", rationale)
	})

	t.Run("denied", func(t *testing.T) {
		p := NewServicePolicy(&stubDecisionService{
			result: &collaborators.DecisionResult{Approved: false, Rationale: "insufficient income"},
		})
		outcome, _, err := p.Decide(context.Background(), testRequest(false))
		require.NoError(t, err)
		assert.Equal(t, models.DecisionDenied, outcome)
	})

	t.Run("service failure leaves decision pending", func(t *testing.T) {
		p := NewServicePolicy(&stubDecisionService{err: fmt.Errorf("connection refused")})
		outcome, _, err := p.Decide(context.Background(), testRequest(false))
		require.Error(t, err)
		assert.Equal(t, models.DecisionPending, outcome)
		assert.True(t, errors.IsCollaborator(err))
		assert.Equal(t, errors.CodeDecisionServiceFailed, errors.CodeOf(err))
	})

	t.Run("expired context maps to timeout", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		p := NewServicePolicy(&stubDecisionService{err: context.Canceled})
		_, _, err := p.Decide(ctx, testRequest(false))
		require.Error(t, err)
		assert.Equal(t, errors.CodeCollaboratorTimeout, errors.CodeOf(err))
	})
}
