package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pehel/mortgage-app/internal/catalog"
	"github.com/pehel/mortgage-app/internal/common/errors"
	"github.com/pehel/mortgage-app/internal/models"
)

func product(t *testing.T, id catalog.ProductID) *catalog.Product {
	t.Helper()
	p, ok := catalog.New().ByID(id)
	require.True(t, ok)
	return p
}

func TestMarkUploadedIdempotent(t *testing.T) {
	tr := NewTracker()
	p := product(t, catalog.ProductPersonalLoan)

	require.NoError(t, tr.MarkUploaded(p, models.ApplicationTypeSingle, models.RolePrimary, "Passport/ID"))
	require.NoError(t, tr.MarkUploaded(p, models.ApplicationTypeSingle, models.RolePrimary, "Passport/ID"))

	assert.Equal(t, 1, tr.Count())
	assert.True(t, tr.Has(models.RolePrimary, "Passport/ID"))
}

func TestMarkUploadedRejectsUnknownLabel(t *testing.T) {
	tr := NewTracker()
	p := product(t, catalog.ProductPersonalLoan)

	err := tr.MarkUploaded(p, models.ApplicationTypeSingle, models.RolePrimary, "Utility Bill")
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnknownDocument, errors.CodeOf(err))
	assert.Equal(t, 0, tr.Count())
}

func TestMarkUploadedRejectsInactiveRole(t *testing.T) {
	tr := NewTracker()
	p := product(t, catalog.ProductPersonalLoan)

	err := tr.MarkUploaded(p, models.ApplicationTypeSingle, models.RoleJoint, "Passport/ID")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInactiveRole, errors.CodeOf(err))
}

func TestCompletionSingle(t *testing.T) {
	tr := NewTracker()
	p := product(t, catalog.ProductPersonalLoan)

	assert.Equal(t, 3, RequiredCount(p, models.ApplicationTypeSingle))

	for _, label := range p.RequiredDocuments[:2] {
		require.NoError(t, tr.MarkUploaded(p, models.ApplicationTypeSingle, models.RolePrimary, label))
	}
	assert.False(t, tr.IsComplete(p, models.ApplicationTypeSingle))
	assert.Equal(t, []string{"primary: Income Proof"}, tr.Missing(p, models.ApplicationTypeSingle))

	require.NoError(t, tr.MarkUploaded(p, models.ApplicationTypeSingle, models.RolePrimary, "Income Proof"))
	assert.True(t, tr.IsComplete(p, models.ApplicationTypeSingle))
	assert.Empty(t, tr.Missing(p, models.ApplicationTypeSingle))
}

func TestCompletionJointNeedsBothRoles(t *testing.T) {
	tr := NewTracker()
	p := product(t, catalog.ProductTermLoan)

	assert.Equal(t, 8, RequiredCount(p, models.ApplicationTypeJoint))

	for _, label := range p.RequiredDocuments {
		require.NoError(t, tr.MarkUploaded(p, models.ApplicationTypeJoint, models.RolePrimary, label))
	}
	assert.False(t, tr.IsComplete(p, models.ApplicationTypeJoint), "joint documents still outstanding")
	assert.Len(t, tr.Missing(p, models.ApplicationTypeJoint), 4)

	for _, label := range p.RequiredDocuments {
		require.NoError(t, tr.MarkUploaded(p, models.ApplicationTypeJoint, models.RoleJoint, label))
	}
	assert.True(t, tr.IsComplete(p, models.ApplicationTypeJoint))
}

func TestCompletionOrderIndependent(t *testing.T) {
	p := product(t, catalog.ProductOverdraft)
	labels := p.RequiredDocuments

	orders := [][]int{
		{0, 1, 2},
		{2, 1, 0},
		{1, 0, 2},
	}
	for _, order := range orders {
		tr := NewTracker()
		for _, i := range order {
			require.NoError(t, tr.MarkUploaded(p, models.ApplicationTypeSingle, models.RolePrimary, labels[i]))
		}
		assert.True(t, tr.IsComplete(p, models.ApplicationTypeSingle))
	}
}

func TestReset(t *testing.T) {
	tr := NewTracker()
	p := product(t, catalog.ProductOverdraft)

	for _, label := range p.RequiredDocuments {
		require.NoError(t, tr.MarkUploaded(p, models.ApplicationTypeSingle, models.RolePrimary, label))
	}
	require.True(t, tr.IsComplete(p, models.ApplicationTypeSingle))

	tr.Reset()
	assert.Equal(t, 0, tr.Count())
	assert.False(t, tr.IsComplete(p, models.ApplicationTypeSingle))
}
