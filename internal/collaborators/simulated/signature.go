package simulated

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pehel/mortgage-app/internal/collaborators"
	"github.com/pehel/mortgage-app/internal/common/logger"
	"github.com/pehel/mortgage-app/internal/models"
)

// SignatureService simulates an e-signature provider: it delivers the
// request over the configured email channel (if any) and confirms the
// signature after a fixed signing delay.
type SignatureService struct {
	delay  time.Duration
	mailer collaborators.EmailSender
	logger logger.Logger
}

// NewSignatureService builds the simulated provider. mailer may be nil, in
// which case delivery is logged only.
func NewSignatureService(delay time.Duration, mailer collaborators.EmailSender, log logger.Logger) *SignatureService {
	return &SignatureService{
		delay:  delay,
		mailer: mailer,
		logger: log.WithFields(map[string]interface{}{"component": "simulated_signature"}),
	}
}

func (s *SignatureService) RequestSignature(ctx context.Context, applicationRef string, role models.Role, email string) (*collaborators.SignatureConfirmation, error) {
	envelopeID := uuid.NewString()

	if s.mailer != nil {
		subject := fmt.Sprintf("Signature requested for application %s", applicationRef)
		body := fmt.Sprintf("Please review and sign the agreement for application %s.\nEnvelope: %s", applicationRef, envelopeID)
		if err := s.mailer.Send(ctx, email, subject, body); err != nil {
			return nil, fmt.Errorf("delivering signature request: %w", err)
		}
	}
	s.logger.Info("signature request delivered", map[string]interface{}{
		"applicationRef": applicationRef,
		"role":           role,
		"envelopeId":     envelopeID,
	})

	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &collaborators.SignatureConfirmation{
		ApplicationRef: applicationRef,
		Role:           role,
		EnvelopeID:     envelopeID,
		SignedAt:       time.Now().UTC(),
	}, nil
}
