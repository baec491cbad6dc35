// Package signing enforces primary-before-joint signature ordering and
// aggregates signing completion for the agreement step.
package signing

import (
	"context"
	"fmt"
	"time"

	"github.com/pehel/mortgage-app/internal/collaborators"
	"github.com/pehel/mortgage-app/internal/common/errors"
	"github.com/pehel/mortgage-app/internal/common/logger"
	"github.com/pehel/mortgage-app/internal/common/metrics"
	"github.com/pehel/mortgage-app/internal/models"
)

// State is the per-role signature state.
type State string

const (
	StateUnsigned State = "unsigned"
	StateSent     State = "sent"
	StateSigned   State = "signed"
)

// Coordinator drives signature collection for one application.
type Coordinator struct {
	ref     string
	appType models.ApplicationType
	states  map[models.Role]State
	svc     collaborators.SignatureService
	timeout time.Duration
	logger  logger.Logger
}

func NewCoordinator(ref string, appType models.ApplicationType, svc collaborators.SignatureService, timeout time.Duration, log logger.Logger) *Coordinator {
	states := make(map[models.Role]State)
	for _, role := range appType.ActiveRoles() {
		states[role] = StateUnsigned
	}
	return &Coordinator{
		ref:     ref,
		appType: appType,
		states:  states,
		svc:     svc,
		timeout: timeout,
		logger: log.WithFields(map[string]interface{}{
			"component":      "signing-coordinator",
			"applicationRef": ref,
		}),
	}
}

// Send dispatches a signature request for the given role and awaits the
// signed confirmation. Joint signing is only legal once the primary has
// signed. A delivery failure or timeout rolls the role back to unsigned and
// leaves the rest of the state untouched.
func (c *Coordinator) Send(ctx context.Context, role models.Role, email string) (*collaborators.SignatureConfirmation, error) {
	if !c.appType.Includes(role) {
		return nil, errors.NewValidation(errors.CodeInactiveRole,
			fmt.Sprintf("role %q is not active for a %s application", role, c.appType))
	}
	if role == models.RoleJoint && c.states[models.RolePrimary] != StateSigned {
		return nil, errors.NewSequence(errors.CodeSignatureOrder,
			"joint applicant cannot sign before the primary applicant")
	}
	if c.states[role] == StateSigned {
		return nil, errors.NewSequence(errors.CodeSignatureOrder,
			fmt.Sprintf("%s applicant has already signed", role))
	}

	c.states[role] = StateSent
	c.logger.Info("signature request dispatched", map[string]interface{}{
		"role":  role,
		"email": email,
	})

	sendCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	confirmation, err := c.svc.RequestSignature(sendCtx, c.ref, role, email)
	metrics.CollaboratorDuration.WithLabelValues("signature").Observe(time.Since(start).Seconds())
	if err != nil {
		c.states[role] = StateUnsigned
		metrics.SignatureDispatches.WithLabelValues(string(role), "failed").Inc()
		if sendCtx.Err() != nil {
			return nil, errors.NewCollaboratorTimeout("signature", err)
		}
		return nil, errors.NewCollaborator(errors.CodeSignatureDispatchFail, "signature", err)
	}

	c.states[role] = StateSigned
	metrics.SignatureDispatches.WithLabelValues(string(role), "signed").Inc()
	c.logger.Info("signature confirmed", map[string]interface{}{
		"role":       role,
		"envelopeId": confirmation.EnvelopeID,
	})
	return confirmation, nil
}

// State returns the signature state for a role.
func (c *Coordinator) State(role models.Role) State {
	if s, ok := c.states[role]; ok {
		return s
	}
	return StateUnsigned
}

// PrimarySigned reports whether the primary applicant has signed.
func (c *Coordinator) PrimarySigned() bool {
	return c.states[models.RolePrimary] == StateSigned
}

// JointSigned reports whether the joint applicant has signed.
func (c *Coordinator) JointSigned() bool {
	return c.states[models.RoleJoint] == StateSigned
}

// AllSigned reports whether every active role has signed. This is the
// trigger condition for the agreement-to-completion transition.
func (c *Coordinator) AllSigned() bool {
	for _, role := range c.appType.ActiveRoles() {
		if c.states[role] != StateSigned {
			return false
		}
	}
	return true
}
