// Package documents tracks which required documents have been supplied per
// applicant and computes the completion gate for the document-upload step.
package documents

import (
	"fmt"
	"sort"

	"github.com/pehel/mortgage-app/internal/catalog"
	"github.com/pehel/mortgage-app/internal/common/errors"
	"github.com/pehel/mortgage-app/internal/models"
)

type uploadKey struct {
	role  models.Role
	label string
}

// Tracker is the set of (role, document label) pairs uploaded so far.
type Tracker struct {
	uploaded map[uploadKey]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{uploaded: make(map[uploadKey]struct{})}
}

// MarkUploaded records a document upload. Uploading the same (role, label)
// twice is a no-op. Labels outside the product's required list and roles not
// active under the application type are rejected.
func (t *Tracker) MarkUploaded(product *catalog.Product, appType models.ApplicationType, role models.Role, label string) error {
	if !appType.Includes(role) {
		return errors.NewValidation(errors.CodeInactiveRole,
			fmt.Sprintf("role %q is not active for a %s application", role, appType))
	}
	if !requires(product, label) {
		return errors.NewValidation(errors.CodeUnknownDocument,
			fmt.Sprintf("document %q is not required for %s", label, product.Name))
	}
	t.uploaded[uploadKey{role: role, label: label}] = struct{}{}
	return nil
}

// Count returns the number of distinct uploaded documents.
func (t *Tracker) Count() int {
	return len(t.uploaded)
}

// Has reports whether the given (role, label) pair has been uploaded.
func (t *Tracker) Has(role models.Role, label string) bool {
	_, ok := t.uploaded[uploadKey{role: role, label: label}]
	return ok
}

// IsComplete reports whether every active role has uploaded every document
// the product requires. The result is independent of upload order.
func (t *Tracker) IsComplete(product *catalog.Product, appType models.ApplicationType) bool {
	return len(t.Missing(product, appType)) == 0
}

// RequiredCount is the total number of documents needed: the product's
// required list once per active role.
func RequiredCount(product *catalog.Product, appType models.ApplicationType) int {
	return len(product.RequiredDocuments) * len(appType.ActiveRoles())
}

// Missing returns the outstanding role-qualified document labels, sorted.
func (t *Tracker) Missing(product *catalog.Product, appType models.ApplicationType) []string {
	var missing []string
	for _, role := range appType.ActiveRoles() {
		for _, label := range product.RequiredDocuments {
			if !t.Has(role, label) {
				missing = append(missing, string(role)+": "+label)
			}
		}
	}
	sort.Strings(missing)
	return missing
}

// Reset discards every recorded upload. Used when a different product is
// selected and the previously uploaded documents become invalid.
func (t *Tracker) Reset() {
	t.uploaded = make(map[uploadKey]struct{})
}

func requires(product *catalog.Product, label string) bool {
	for _, required := range product.RequiredDocuments {
		if required == label {
			return true
		}
	}
	return false
}
