package workflow

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pehel/mortgage-app/internal/catalog"
	"github.com/pehel/mortgage-app/internal/documents"
	"github.com/pehel/mortgage-app/internal/loan"
	"github.com/pehel/mortgage-app/internal/models"
)

// Application is the shared context owned by the workflow machine. Each
// step's submit operation mutates it in place; it is discarded on restart.
type Application struct {
	Ref       string
	Step      Step
	Product   *catalog.Product
	Type      models.ApplicationType
	Primary   models.Applicant
	Joint     *models.Applicant
	Details   models.ProductDetails
	Documents *documents.Tracker
	Quote     *loan.Quote

	Decision          models.Decision
	DecisionRationale string

	CreatedAt time.Time
}

func newApplication() *Application {
	return &Application{
		Ref:       NewRef(),
		Step:      StepChat,
		Documents: documents.NewTracker(),
		Decision:  models.DecisionPending,
		CreatedAt: time.Now().UTC(),
	}
}

// NewRef generates the opaque application reference: "APP" followed by a
// 10-character uppercase alphanumeric suffix. The reference is generated
// once and stays stable for the application's lifetime.
func NewRef() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "APP" + suffix[:10]
}

// activeApplicant returns the applicant record for a role, or nil when the
// role is not active.
func (a *Application) activeApplicant(role models.Role) *models.Applicant {
	switch role {
	case models.RolePrimary:
		return &a.Primary
	case models.RoleJoint:
		return a.Joint
	}
	return nil
}
