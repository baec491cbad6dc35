// Package simulated provides in-process stand-ins for the external
// collaborators. They honor context cancellation and return the same shapes
// a real integration would, so the wizard core cannot tell them apart.
package simulated

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/pehel/mortgage-app/internal/collaborators"
	"github.com/pehel/mortgage-app/internal/common/logger"
	"github.com/pehel/mortgage-app/internal/models"
)

// extractionSchema validates the payload shape before it is handed back to
// the core, the same check a real extraction integration would run on its
// provider's response.
const extractionSchema = `{
  "type": "object",
  "properties": {
    "firstName": {"type": "string"},
    "lastName": {"type": "string"},
    "email": {"type": "string"},
    "phone": {"type": "string"},
    "dateOfBirth": {"type": "string"},
    "address": {"type": "string"},
    "currentBalance": {"type": "number"},
    "annualIncome": {"type": "number", "minimum": 0},
    "monthlySalary": {"type": "number", "minimum": 0}
  },
  "required": ["firstName", "lastName"],
  "additionalProperties": false
}`

func f64(v float64) *float64 { return &v }

// ExtractionService returns a canned profile per role after a configurable
// processing delay.
type ExtractionService struct {
	delay  time.Duration
	schema *gojsonschema.Schema
	logger logger.Logger
}

func NewExtractionService(delay time.Duration, log logger.Logger) (*ExtractionService, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(extractionSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling extraction schema: %w", err)
	}
	return &ExtractionService{
		delay:  delay,
		schema: schema,
		logger: log.WithFields(map[string]interface{}{"component": "simulated_extraction"}),
	}, nil
}

func (s *ExtractionService) Extract(ctx context.Context, role models.Role, doc collaborators.Document) (*models.ExtractedProfile, error) {
	if doc.Name == "" {
		return nil, fmt.Errorf("document has no name")
	}

	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	profile := cannedProfile(role)

	raw, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("encoding extraction payload: %w", err)
	}
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validating extraction payload: %w", err)
	}
	if !result.Valid() {
		descs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			descs = append(descs, e.String())
		}
		return nil, fmt.Errorf("extraction payload invalid: %s", strings.Join(descs, "; "))
	}

	s.logger.Info("bank statement processed", map[string]interface{}{
		"role":     role,
		"document": doc.Name,
	})
	return profile, nil
}

// cannedProfile mirrors what the real provider returns for the demo
// statements. Email, phone and date of birth stay manual input.
func cannedProfile(role models.Role) *models.ExtractedProfile {
	if role == models.RoleJoint {
		return &models.ExtractedProfile{
			FirstName:      "Sarah",
			LastName:       "Johnson",
			Address:        "456 O'Connell Street, Dublin 1, Ireland",
			CurrentBalance: f64(8750.25),
			AnnualIncome:   f64(48000),
			MonthlySalary:  f64(4000),
		}
	}
	return &models.ExtractedProfile{
		FirstName:      "Rajat",
		LastName:       "Maheshwari",
		Address:        "123 Grafton Street, Dublin 2, Ireland",
		CurrentBalance: f64(15420.50),
		AnnualIncome:   f64(65000),
		MonthlySalary:  f64(5416.67),
	}
}
