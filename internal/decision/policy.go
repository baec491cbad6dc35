// Package decision holds the approval policy applied at the review step.
package decision

import (
	"context"
	"math/rand"

	"github.com/pehel/mortgage-app/internal/collaborators"
	"github.com/pehel/mortgage-app/internal/common/errors"
	"github.com/pehel/mortgage-app/internal/common/logger"
	"github.com/pehel/mortgage-app/internal/models"
)

// Policy decides a submitted application. Implementations must be
// deterministic for testing when given a deterministic source.
type Policy interface {
	Decide(ctx context.Context, req *collaborators.DecisionRequest) (models.Decision, string, error)
}

// HeuristicPolicy approves existing customers unconditionally; all other
// applicants are drawn from an approval probability. The draw source is
// injectable so tests can pin the outcome.
type HeuristicPolicy struct {
	approvalProbability float64
	draw                func() float64
	logger              logger.Logger
}

// NewHeuristicPolicy builds the default policy. draw returns a value in
// [0,1); nil uses the global math/rand source.
func NewHeuristicPolicy(approvalProbability float64, draw func() float64, log logger.Logger) *HeuristicPolicy {
	if draw == nil {
		draw = rand.Float64
	}
	return &HeuristicPolicy{
		approvalProbability: approvalProbability,
		draw:                draw,
		logger:              log.WithFields(map[string]interface{}{"component": "decision-policy"}),
	}
}

func (p *HeuristicPolicy) Decide(_ context.Context, req *collaborators.DecisionRequest) (models.Decision, string, error) {
	if req.Applicant.IsExistingCustomer {
		p.logger.Info("application approved", map[string]interface{}{
			"applicationRef": req.ApplicationRef,
			"rationale":      "existing customer",
		})
		return models.DecisionApproved, "existing customer", nil
	}

	if p.draw() < p.approvalProbability {
		p.logger.Info("application approved", map[string]interface{}{
			"applicationRef": req.ApplicationRef,
			"rationale":      "passed eligibility screening",
		})
		return models.DecisionApproved, "passed eligibility screening", nil
	}

	p.logger.Info("application denied", map[string]interface{}{
		"applicationRef": req.ApplicationRef,
	})
	return models.DecisionDenied, "did not pass eligibility screening", nil
}

// ServicePolicy delegates the decision to an external decision service.
type ServicePolicy struct {
	svc collaborators.DecisionService
}

func NewServicePolicy(svc collaborators.DecisionService) *ServicePolicy {
	return &ServicePolicy{svc: svc}
}

func (p *ServicePolicy) Decide(ctx context.Context, req *collaborators.DecisionRequest) (models.Decision, string, error) {
	result, err := p.svc.Evaluate(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return models.DecisionPending, "", errors.NewCollaboratorTimeout("decision", err)
		}
		return models.DecisionPending, "", errors.NewCollaborator(errors.CodeDecisionServiceFailed, "decision", err)
	}
	if result.Approved {
		return models.DecisionApproved, result.Rationale, nil
	}
	return models.DecisionDenied, result.Rationale, nil
}
