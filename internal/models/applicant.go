// Package models holds the shared data model of the application wizard.
package models

import (
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Role identifies an applicant within an application.
type Role string

const (
	RolePrimary Role = "primary"
	RoleJoint   Role = "joint"
)

// Valid reports whether r is a known applicant role.
func (r Role) Valid() bool {
	return r == RolePrimary || r == RoleJoint
}

// ApplicationType distinguishes single from joint applications.
type ApplicationType string

const (
	ApplicationTypeUnset  ApplicationType = ""
	ApplicationTypeSingle ApplicationType = "single"
	ApplicationTypeJoint  ApplicationType = "joint"
)

// ActiveRoles returns the applicant roles subject to document and signature
// requirements under this application type.
func (t ApplicationType) ActiveRoles() []Role {
	if t == ApplicationTypeJoint {
		return []Role{RolePrimary, RoleJoint}
	}
	return []Role{RolePrimary}
}

// Includes reports whether role is active under this application type.
func (t ApplicationType) Includes(role Role) bool {
	if role == RoleJoint {
		return t == ApplicationTypeJoint
	}
	return role == RolePrimary
}

// Applicant is one natural person's identity and financial data within an
// application. Identity fields are mandatory; financial fields are optional
// across all products.
type Applicant struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"dateOfBirth"`
	Address     string `json:"address"`

	CurrentBalance *float64 `json:"currentBalance,omitempty"`
	AnnualIncome   *float64 `json:"annualIncome,omitempty"`
	MonthlySalary  *float64 `json:"monthlySalary,omitempty"`

	IsExistingCustomer bool `json:"isExistingCustomer"`
}

// Validate checks the identity fields; it returns a validation.Errors map
// keyed by JSON field name when any are missing or malformed.
func (a Applicant) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.FirstName, validation.Required),
		validation.Field(&a.LastName, validation.Required),
		validation.Field(&a.Email, validation.Required, is.Email),
		validation.Field(&a.Phone, validation.Required),
		validation.Field(&a.DateOfBirth, validation.Required),
		validation.Field(&a.Address, validation.Required),
	)
}

// Complete reports whether every identity field is populated.
func (a Applicant) Complete() bool {
	return a.Validate() == nil
}

// ExtractedProfile is the partial applicant record returned by the document
// extraction collaborator. Returned fields are authoritative but remain
// user-editable afterward.
type ExtractedProfile struct {
	FirstName      string   `json:"firstName,omitempty"`
	LastName       string   `json:"lastName,omitempty"`
	Email          string   `json:"email,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	DateOfBirth    string   `json:"dateOfBirth,omitempty"`
	Address        string   `json:"address,omitempty"`
	CurrentBalance *float64 `json:"currentBalance,omitempty"`
	AnnualIncome   *float64 `json:"annualIncome,omitempty"`
	MonthlySalary  *float64 `json:"monthlySalary,omitempty"`
}

// ApplyExtracted merges the non-empty extracted fields into the applicant.
func (a *Applicant) ApplyExtracted(p ExtractedProfile) {
	if p.FirstName != "" {
		a.FirstName = p.FirstName
	}
	if p.LastName != "" {
		a.LastName = p.LastName
	}
	if p.Email != "" {
		a.Email = p.Email
	}
	if p.Phone != "" {
		a.Phone = p.Phone
	}
	if p.DateOfBirth != "" {
		a.DateOfBirth = p.DateOfBirth
	}
	if p.Address != "" {
		a.Address = p.Address
	}
	if p.CurrentBalance != nil {
		a.CurrentBalance = p.CurrentBalance
	}
	if p.AnnualIncome != nil {
		a.AnnualIncome = p.AnnualIncome
	}
	if p.MonthlySalary != nil {
		a.MonthlySalary = p.MonthlySalary
	}
}

// FieldErrors flattens a validation.Errors map into sorted, prefixed field
// names ("primary.email", ...). Non-validation errors yield the prefix alone.
func FieldErrors(prefix string, err error) []string {
	if err == nil {
		return nil
	}
	errs, ok := err.(validation.Errors)
	if !ok {
		return []string{prefix}
	}
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, prefix+"."+field)
	}
	sort.Strings(fields)
	return fields
}
