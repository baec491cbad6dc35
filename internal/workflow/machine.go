// Package workflow implements the wizard step state machine. It sequences
// data collection across the ordered steps, branches for single vs. joint
// applicants, gates progress on document and signature completeness, and
// delegates to the catalog, classifier, calculator, decision policy and
// signing coordinator.
package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pehel/mortgage-app/internal/catalog"
	"github.com/pehel/mortgage-app/internal/collaborators"
	"github.com/pehel/mortgage-app/internal/common/config"
	"github.com/pehel/mortgage-app/internal/common/errors"
	"github.com/pehel/mortgage-app/internal/common/logger"
	"github.com/pehel/mortgage-app/internal/common/metrics"
	"github.com/pehel/mortgage-app/internal/common/observability"
	"github.com/pehel/mortgage-app/internal/decision"
	"github.com/pehel/mortgage-app/internal/documents"
	"github.com/pehel/mortgage-app/internal/intent"
	"github.com/pehel/mortgage-app/internal/loan"
	"github.com/pehel/mortgage-app/internal/models"
	"github.com/pehel/mortgage-app/internal/signing"
)

// DeniedMessage is the user-visible rejection shown when an application is
// denied. A denial is a valid terminal business outcome, not an error.
const DeniedMessage = "Application denied. Please contact our support team at support@aib.ie."

// Deps are the machine's collaborators and configuration.
type Deps struct {
	Catalog    *catalog.Catalog
	Classifier *intent.Classifier
	Calculator *loan.Calculator
	Policy     decision.Policy
	Extraction collaborators.ExtractionService
	Signatures collaborators.SignatureService

	DecisionTimeout   time.Duration
	ExtractionTimeout time.Duration
	SignatureTimeout  time.Duration

	Logger logger.Logger
	Obs    *observability.Observability
}

// DepsFromConfig fills the timeout fields from configuration.
func DepsFromConfig(deps Deps, cfg *config.Config) Deps {
	deps.DecisionTimeout = cfg.Decision.Timeout
	deps.ExtractionTimeout = cfg.Collaborators.ExtractionTimeout
	deps.SignatureTimeout = cfg.Collaborators.SignatureTimeout
	return deps
}

type edge struct {
	from, to Step
	guard    func(m *Machine) error
}

// Machine drives one application through the wizard. All operations are
// atomic with respect to the shared application context: overlapping calls
// on the same machine are rejected rather than interleaved.
type Machine struct {
	mu    sync.Mutex
	deps  Deps
	app   *Application
	edges []edge

	signing       *signing.Coordinator
	stepEnteredAt time.Time
	logger        logger.Logger
}

func NewMachine(deps Deps) *Machine {
	m := &Machine{
		deps:          deps,
		app:           newApplication(),
		stepEnteredAt: time.Now(),
	}
	m.logger = deps.Logger.WithFields(map[string]interface{}{
		"component":      "workflow",
		"applicationRef": m.app.Ref,
	})
	m.edges = []edge{
		{StepChat, StepProductSelection, func(*Machine) error { return nil }},
		{StepChat, StepApplicantDetails, (*Machine).guardProductSelected},
		{StepProductSelection, StepApplicantDetails, (*Machine).guardProductSelected},
		{StepApplicantDetails, StepProductDetails, (*Machine).guardApplicants},
		{StepProductDetails, StepDocumentUpload, (*Machine).guardProductDetails},
		{StepDocumentUpload, StepReview, (*Machine).guardDocumentsComplete},
		{StepReview, StepAgreement, (*Machine).guardApproved},
		{StepAgreement, StepCompletion, (*Machine).guardAllSigned},
	}
	return m
}

// Ref returns the stable application reference.
func (m *Machine) Ref() string { return m.app.Ref }

// begin acquires the machine for one atomic operation. A second operation
// arriving while another is still awaited is rejected, not queued.
func (m *Machine) begin() error {
	if !m.mu.TryLock() {
		return errors.NewSequence(errors.CodeTransitionInProgress,
			"another operation is in progress on this application")
	}
	return nil
}

// ensureActive rejects every operation other than Restart once the
// application has been denied.
func (m *Machine) ensureActive() error {
	if m.app.Decision == models.DecisionDenied {
		return errors.NewSequence(errors.CodeApplicationDenied,
			"application was denied; restart to begin a new application")
	}
	return nil
}

func (m *Machine) requireStep(s Step, op string) error {
	if m.app.Step != s {
		return errors.NewSequence(errors.CodeIllegalTransition,
			fmt.Sprintf("%s is only available in the %s step (current: %s)", op, s, m.app.Step))
	}
	return nil
}

// advance moves the application along the forward edge to the given step,
// provided the edge exists and its guard holds. A rejected transition
// leaves the current step unchanged.
func (m *Machine) advance(to Step) error {
	from := m.app.Step
	var found *edge
	for i := range m.edges {
		if m.edges[i].from == from && m.edges[i].to == to {
			found = &m.edges[i]
			break
		}
	}
	if found == nil {
		err := errors.NewSequence(errors.CodeIllegalTransition,
			fmt.Sprintf("no transition from %s to %s", from, to))
		metrics.WizardTransitionsRejected.WithLabelValues(from.String(), string(errors.CodeOf(err))).Inc()
		return err
	}
	if err := found.guard(m); err != nil {
		metrics.WizardTransitionsRejected.WithLabelValues(from.String(), string(errors.CodeOf(err))).Inc()
		m.logger.Warn("transition rejected", map[string]interface{}{
			"from":   from.String(),
			"to":     to.String(),
			"reason": err.Error(),
		})
		return err
	}
	m.enter(to)
	return nil
}

func (m *Machine) enter(to Step) {
	from := m.app.Step
	m.app.Step = to

	if to == StepAgreement && m.signing == nil {
		m.signing = signing.NewCoordinator(m.app.Ref, m.app.Type, m.deps.Signatures, m.deps.SignatureTimeout, m.deps.Logger)
	}

	metrics.WizardTransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
	if m.deps.Obs != nil {
		ctx := context.Background()
		m.deps.Obs.RecordTransition(ctx, from.String(), to.String())
		m.deps.Obs.RecordStepDuration(ctx, from.String(), time.Since(m.stepEnteredAt))
	}
	m.stepEnteredAt = time.Now()

	m.logger.Info("step transition", map[string]interface{}{
		"from": from.String(),
		"to":   to.String(),
	})
}

// --- guards ---

func (m *Machine) guardProductSelected() error {
	if m.app.Product == nil {
		return errors.NewValidation(errors.CodeProductNotSelected, "a product must be selected first")
	}
	return nil
}

func (m *Machine) guardApplicants() error {
	app := m.app
	if app.Type != models.ApplicationTypeSingle && app.Type != models.ApplicationTypeJoint {
		return errors.NewValidation(errors.CodeMissingRequiredField,
			"application type must be single or joint", "applicationType")
	}

	fields := models.FieldErrors("primary", app.Primary.Validate())
	if app.Type == models.ApplicationTypeJoint {
		if app.Joint == nil {
			fields = append(fields, "joint")
		} else {
			fields = append(fields, models.FieldErrors("joint", app.Joint.Validate())...)
		}
	}
	if len(fields) > 0 {
		return errors.NewValidation(errors.CodeMissingRequiredField,
			"applicant details are incomplete", fields...)
	}
	return nil
}

func (m *Machine) guardProductDetails() error {
	if err := m.guardProductSelected(); err != nil {
		return err
	}
	if err := m.app.Details.ValidateFor(m.app.Product.ID); err != nil {
		fields := models.FieldErrors("details", err)
		return errors.NewValidation(errors.CodeInvalidFieldValue,
			"product details are missing or invalid", fields...)
	}
	return nil
}

func (m *Machine) guardDocumentsComplete() error {
	if !m.app.Documents.IsComplete(m.app.Product, m.app.Type) {
		missing := m.app.Documents.Missing(m.app.Product, m.app.Type)
		return errors.NewValidation(errors.CodeDocumentsIncomplete,
			"required documents are missing", missing...)
	}
	return nil
}

func (m *Machine) guardApproved() error {
	switch m.app.Decision {
	case models.DecisionApproved:
		return nil
	case models.DecisionPending:
		return errors.NewSequence(errors.CodeDecisionNotMade,
			"a decision must be requested before continuing to the agreement")
	default:
		return errors.NewSequence(errors.CodeApplicationDenied,
			"application was denied")
	}
}

func (m *Machine) guardAllSigned() error {
	if m.signing == nil || !m.signing.AllSigned() {
		return errors.NewValidation(errors.CodeSignaturesIncomplete,
			"all active applicants must sign the agreement first")
	}
	return nil
}

// --- chat step ---

// Classify runs the intent classifier over a chat message. Only legal while
// in the chat step.
func (m *Machine) Classify(text string) (intent.Result, error) {
	if err := m.begin(); err != nil {
		return intent.Result{}, err
	}
	defer m.mu.Unlock()

	if err := m.ensureActive(); err != nil {
		return intent.Result{}, err
	}
	if err := m.requireStep(StepChat, "chat"); err != nil {
		return intent.Result{}, err
	}
	return m.deps.Classifier.Classify(text), nil
}

// BrowseProducts moves from chat to the product-selection step. Always
// legal from chat.
func (m *Machine) BrowseProducts() error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.mu.Unlock()

	if err := m.ensureActive(); err != nil {
		return err
	}
	return m.advance(StepProductSelection)
}

// SelectProduct sets the selected product and advances to applicant
// details. Selecting a product suggested in chat skips product selection.
// Re-selecting the same product changes nothing; choosing a different one
// invalidates the product-dependent data entered so far.
func (m *Machine) SelectProduct(id catalog.ProductID) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.mu.Unlock()

	if err := m.ensureActive(); err != nil {
		return err
	}
	if m.app.Step != StepChat && m.app.Step != StepProductSelection {
		return errors.NewSequence(errors.CodeIllegalTransition,
			fmt.Sprintf("product selection is not available in the %s step", m.app.Step))
	}

	product, ok := m.deps.Catalog.ByID(id)
	if !ok {
		return errors.NewValidation(errors.CodeUnknownProduct, fmt.Sprintf("unknown product %q", id))
	}

	if m.app.Product != nil && m.app.Product.ID != id {
		m.app.Details = models.ProductDetails{}
		m.app.Documents.Reset()
		m.app.Quote = nil
		m.logger.Info("product changed, product-dependent data reset", map[string]interface{}{
			"previous": m.app.Product.ID,
			"selected": id,
		})
	}
	m.app.Product = product
	return m.advance(StepApplicantDetails)
}

// --- applicant details step ---

// SubmitApplicants records the application type and applicant records and
// advances to product details. Missing identity fields are enumerated in
// the returned validation error.
func (m *Machine) SubmitApplicants(appType models.ApplicationType, primary models.Applicant, joint *models.Applicant) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.mu.Unlock()

	if err := m.ensureActive(); err != nil {
		return err
	}
	if err := m.requireStep(StepApplicantDetails, "applicant submission"); err != nil {
		return err
	}
	if appType == models.ApplicationTypeJoint && joint == nil {
		return errors.NewValidation(errors.CodeMissingRequiredField,
			"a joint application requires a joint applicant", "joint")
	}
	if appType != models.ApplicationTypeJoint && joint != nil {
		return errors.NewValidation(errors.CodeInvalidFieldValue,
			"a single application cannot carry a joint applicant", "joint")
	}

	m.app.Type = appType
	m.app.Primary = primary
	m.app.Joint = joint
	return m.advance(StepProductDetails)
}

// ExtractApplicant hands an uploaded bank statement to the extraction
// collaborator and merges the returned fields into the applicant record.
// The step does not change; the extracted fields stay user-editable.
func (m *Machine) ExtractApplicant(ctx context.Context, role models.Role, doc collaborators.Document) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.mu.Unlock()

	if err := m.ensureActive(); err != nil {
		return err
	}
	if err := m.requireStep(StepApplicantDetails, "document extraction"); err != nil {
		return err
	}
	if !role.Valid() {
		return errors.NewValidation(errors.CodeInactiveRole, fmt.Sprintf("unknown role %q", role))
	}
	if role == models.RoleJoint && m.app.Type != models.ApplicationTypeJoint {
		return errors.NewValidation(errors.CodeInactiveRole,
			"joint extraction requires a joint application")
	}
	if role == models.RoleJoint && m.app.Joint == nil {
		m.app.Joint = &models.Applicant{}
	}

	extractCtx, cancel := context.WithTimeout(ctx, m.deps.ExtractionTimeout)
	defer cancel()

	start := time.Now()
	profile, err := m.deps.Extraction.Extract(extractCtx, role, doc)
	metrics.CollaboratorDuration.WithLabelValues("extraction").Observe(time.Since(start).Seconds())
	if err != nil {
		if extractCtx.Err() != nil {
			return errors.NewCollaboratorTimeout("extraction", err)
		}
		return errors.NewCollaborator(errors.CodeExtractionFailed, "extraction", err)
	}

	m.app.activeApplicant(role).ApplyExtracted(*profile)
	m.logger.Info("applicant fields extracted", map[string]interface{}{"role": role})
	return nil
}

// --- product details step ---

// SubmitProductDetails validates the product-specific fields and advances
// to document upload. For loan products an amortization quote is computed
// and retained on the application.
func (m *Machine) SubmitProductDetails(details models.ProductDetails) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.mu.Unlock()

	if err := m.ensureActive(); err != nil {
		return err
	}
	if err := m.requireStep(StepProductDetails, "product details submission"); err != nil {
		return err
	}

	m.app.Details = details
	if err := m.advance(StepDocumentUpload); err != nil {
		return err
	}

	if m.app.Product.ID.IsLoan() {
		quote, err := m.deps.Calculator.Amortize(m.app.Product.ID, details.Amount, details.TermMonths)
		if err != nil {
			// Guarded fields were already validated; an amortization
			// failure here means the guard and calculator disagree.
			return err
		}
		m.app.Quote = quote
	}
	return nil
}

// --- document upload step ---

// UploadDocument records one uploaded document for an applicant role.
// Re-uploading the same document is a no-op.
func (m *Machine) UploadDocument(role models.Role, label string) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.mu.Unlock()

	if err := m.ensureActive(); err != nil {
		return err
	}
	if err := m.requireStep(StepDocumentUpload, "document upload"); err != nil {
		return err
	}
	return m.app.Documents.MarkUploaded(m.app.Product, m.app.Type, role, label)
}

// ContinueToReview advances to the review step once every active applicant
// has supplied the full required-document set.
func (m *Machine) ContinueToReview() error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.mu.Unlock()

	if err := m.ensureActive(); err != nil {
		return err
	}
	return m.advance(StepReview)
}

// --- review step ---

// RequestDecision evaluates the approval policy exactly once. A denial is a
// terminal business outcome: the returned message is user-visible and every
// subsequent operation except Restart is rejected.
func (m *Machine) RequestDecision(ctx context.Context) (models.Decision, string, error) {
	if err := m.begin(); err != nil {
		return models.DecisionPending, "", err
	}
	defer m.mu.Unlock()

	if err := m.ensureActive(); err != nil {
		return models.DecisionPending, "", err
	}
	if err := m.requireStep(StepReview, "decision request"); err != nil {
		return models.DecisionPending, "", err
	}
	if m.app.Decision != models.DecisionPending {
		return m.app.Decision, m.app.DecisionRationale,
			errors.NewSequence(errors.CodeDecisionAlreadyMade, "a decision has already been made")
	}

	decideCtx, cancel := context.WithTimeout(ctx, m.deps.DecisionTimeout)
	defer cancel()

	start := time.Now()
	outcome, rationale, err := m.deps.Policy.Decide(decideCtx, &collaborators.DecisionRequest{
		ApplicationRef: m.app.Ref,
		Product:        m.app.Product.ID,
		Applicant:      m.app.Primary,
		Details:        m.app.Details,
	})
	metrics.CollaboratorDuration.WithLabelValues("decision").Observe(time.Since(start).Seconds())
	if err != nil {
		return models.DecisionPending, "", err
	}

	m.app.Decision = outcome
	m.app.DecisionRationale = rationale
	metrics.WizardDecisionsTotal.WithLabelValues(string(outcome)).Inc()

	if outcome == models.DecisionDenied {
		m.logger.Info("application denied", map[string]interface{}{"rationale": rationale})
		return outcome, DeniedMessage, nil
	}
	return outcome, rationale, nil
}

// ContinueToAgreement advances past review; requires an approved decision.
func (m *Machine) ContinueToAgreement() error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.mu.Unlock()

	if err := m.ensureActive(); err != nil {
		return err
	}
	return m.advance(StepAgreement)
}

// --- agreement step ---

// SendForSignature dispatches a signature request for the given role and
// awaits confirmation. The primary applicant must sign before the joint
// applicant may be asked to.
func (m *Machine) SendForSignature(ctx context.Context, role models.Role) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.mu.Unlock()

	if err := m.ensureActive(); err != nil {
		return err
	}
	if err := m.requireStep(StepAgreement, "signature dispatch"); err != nil {
		return err
	}

	applicant := m.app.activeApplicant(role)
	if applicant == nil {
		return errors.NewValidation(errors.CodeInactiveRole,
			fmt.Sprintf("role %q is not active on this application", role))
	}
	_, err := m.signing.Send(ctx, role, applicant.Email)
	return err
}

// CompleteAgreement advances to completion once all active roles signed.
func (m *Machine) CompleteAgreement() error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.mu.Unlock()

	if err := m.ensureActive(); err != nil {
		return err
	}
	return m.advance(StepCompletion)
}

// --- navigation ---

// Back moves to the previous step without mutating any collected data.
// Chat has no predecessor, and completion is terminal.
func (m *Machine) Back() error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.mu.Unlock()

	if err := m.ensureActive(); err != nil {
		return err
	}
	if m.app.Step == StepChat {
		return errors.NewSequence(errors.CodeIllegalTransition, "already at the first step")
	}
	if m.app.Step == StepCompletion {
		return errors.NewSequence(errors.CodeIllegalTransition,
			"completion is terminal; restart to begin a new application")
	}
	m.enter(m.app.Step - 1)
	return nil
}

// Restart discards the application and returns to chat with a fresh
// application reference.
func (m *Machine) Restart() error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.mu.Unlock()

	old := m.app.Ref
	m.app = newApplication()
	m.signing = nil
	m.stepEnteredAt = time.Now()
	m.logger = m.deps.Logger.WithFields(map[string]interface{}{
		"component":      "workflow",
		"applicationRef": m.app.Ref,
	})
	m.logger.Info("application restarted", map[string]interface{}{"previousRef": old})
	return nil
}

// --- inspection ---

// Snapshot is a read-only view of the application for the presentation
// layer.
type Snapshot struct {
	Ref               string                 `json:"applicationRef"`
	Step              Step                   `json:"step"`
	StepName          string                 `json:"stepName"`
	Product           *catalog.Product       `json:"product,omitempty"`
	Type              models.ApplicationType `json:"applicationType,omitempty"`
	Primary           models.Applicant       `json:"primaryApplicant"`
	Joint             *models.Applicant      `json:"jointApplicant,omitempty"`
	Details           models.ProductDetails  `json:"productDetails"`
	Quote             *loan.Quote            `json:"quote,omitempty"`
	UploadedCount     int                    `json:"uploadedCount"`
	RequiredCount     int                    `json:"requiredCount"`
	MissingDocuments  []string               `json:"missingDocuments,omitempty"`
	Decision          models.Decision        `json:"decision"`
	DecisionRationale string                 `json:"decisionRationale,omitempty"`
	PrimarySigned     bool                   `json:"primarySigned"`
	JointSigned       bool                   `json:"jointSigned"`
}

// Snapshot copies the current application state. It blocks while an
// operation is in flight.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Ref:               m.app.Ref,
		Step:              m.app.Step,
		StepName:          m.app.Step.String(),
		Product:           m.app.Product,
		Type:              m.app.Type,
		Primary:           m.app.Primary,
		Joint:             m.app.Joint,
		Details:           m.app.Details,
		Quote:             m.app.Quote,
		UploadedCount:     m.app.Documents.Count(),
		Decision:          m.app.Decision,
		DecisionRationale: m.app.DecisionRationale,
	}
	if m.app.Product != nil {
		snap.RequiredCount = documents.RequiredCount(m.app.Product, m.app.Type)
		snap.MissingDocuments = m.app.Documents.Missing(m.app.Product, m.app.Type)
	}
	if m.signing != nil {
		snap.PrimarySigned = m.signing.PrimarySigned()
		snap.JointSigned = m.signing.JointSigned()
	}
	return snap
}

// Step returns the current step.
func (m *Machine) Step() Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.app.Step
}
