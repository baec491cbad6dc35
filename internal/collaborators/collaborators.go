// Package collaborators defines the contracts of the external services the
// wizard core consumes. Implementations are swappable black boxes; the core
// only awaits them under a caller-visible timeout.
package collaborators

import (
	"context"
	"time"

	"github.com/pehel/mortgage-app/internal/catalog"
	"github.com/pehel/mortgage-app/internal/models"
)

// Document is an uploaded file handed to the extraction service.
type Document struct {
	Name    string
	Content []byte
}

// ExtractionService turns an uploaded bank statement into a partial
// applicant record. The core treats returned fields as authoritative but
// user-editable afterward.
type ExtractionService interface {
	Extract(ctx context.Context, role models.Role, doc Document) (*models.ExtractedProfile, error)
}

// SignatureConfirmation is the eventual "signed" confirmation, keyed by
// (application reference, role).
type SignatureConfirmation struct {
	ApplicationRef string      `json:"applicationRef"`
	Role           models.Role `json:"role"`
	EnvelopeID     string      `json:"envelopeId"`
	SignedAt       time.Time   `json:"signedAt"`
}

// SignatureService delivers a signature request to the applicant's email and
// blocks until the signed confirmation arrives, the context expires, or the
// delivery fails.
type SignatureService interface {
	RequestSignature(ctx context.Context, applicationRef string, role models.Role, email string) (*SignatureConfirmation, error)
}

// DecisionRequest is the applicant plus financial summary submitted to an
// external decision service.
type DecisionRequest struct {
	ApplicationRef string                `json:"applicationRef"`
	Product        catalog.ProductID     `json:"product"`
	Applicant      models.Applicant      `json:"applicant"`
	Details        models.ProductDetails `json:"details"`
}

// DecisionResult is the external decision plus rationale.
type DecisionResult struct {
	Approved  bool   `json:"approved"`
	Rationale string `json:"rationale"`
}

// DecisionService is an optional replacement for the built-in approval
// heuristic.
type DecisionService interface {
	Evaluate(ctx context.Context, req *DecisionRequest) (*DecisionResult, error)
}

// EmailSender is the channel used to deliver signature-request emails.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}
