package workflow

import (
	"testing"

	"github.com/castrometro/sgm-contabilidad/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findingsOfKind(findings []Finding, kind models.IncidenceKind) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

func TestResolveCreatesAccountOnFirstSighting(t *testing.T) {
	resolver := NewClassificationResolver(newTestTaxonomy(false), nil)

	outcome := resolver.Resolve("1-01-001", "Caja")
	require.NotNil(t, outcome.Account)
	assert.True(t, outcome.Created)
	assert.Equal(t, "1-01-001", outcome.Account.Code)
	assert.Equal(t, "Caja", outcome.Account.Name)
	assert.Equal(t, 7, outcome.Account.ClientId)
	require.Len(t, resolver.NewAccounts(), 1)
}

func TestResolveReusesExistingAccount(t *testing.T) {
	existing := []*models.Account{{ID: 100, ClientId: 7, Code: "1-01-001", Name: "Caja"}}
	resolver := NewClassificationResolver(newTestTaxonomy(false), existing)

	outcome := resolver.Resolve("1-01-001", "Caja")
	assert.False(t, outcome.Created)
	assert.Equal(t, 100, outcome.Account.ID)
	assert.Empty(t, resolver.NewAccounts())
}

func TestResolveEmitsFindingsOncePerAccount(t *testing.T) {
	resolver := NewClassificationResolver(newTestTaxonomy(false), nil)

	first := resolver.Resolve("5-05-005", "Cuenta Nueva")
	// unclassified in all four sets
	assert.Len(t, findingsOfKind(first.Findings, models.IncidenceKindMissingClassification), 4)

	second := resolver.Resolve("5-05-005", "Cuenta Nueva")
	assert.Same(t, first, second)
	require.Len(t, resolver.NewAccounts(), 1)
}

func TestResolveClassifiedSetsEmitNoFindings(t *testing.T) {
	resolver := NewClassificationResolver(newTestTaxonomy(false), nil)

	// 1-01-001 holds values in sets 1 and 4; sets 2 and 3 are missing
	outcome := resolver.Resolve("1-01-001", "Caja")
	missing := findingsOfKind(outcome.Findings, models.IncidenceKindMissingClassification)
	require.Len(t, missing, 2)
	setIds := []int{missing[0].SetId, missing[1].SetId}
	assert.ElementsMatch(t, []int{2, 3}, setIds)
}

func TestResolveSetExceptionSuppressesFinding(t *testing.T) {
	resolver := NewClassificationResolver(newTestTaxonomy(false), nil)

	// 9-99-001 is exempt from set 1 and has no classification anywhere
	outcome := resolver.Resolve("9-99-001", "Cuenta Exenta")
	missing := findingsOfKind(outcome.Findings, models.IncidenceKindMissingClassification)
	require.Len(t, missing, 3)
	for _, f := range missing {
		assert.NotEqual(t, 1, f.SetId)
	}
}

func TestResolveBilingualMissingEnglishName(t *testing.T) {
	resolver := NewClassificationResolver(newTestTaxonomy(true), nil)

	outcome := resolver.Resolve("5-05-005", "Cuenta Nueva")
	assert.Len(t, findingsOfKind(outcome.Findings, models.IncidenceKindMissingEnglishName), 1)
}

func TestResolveTranslationOverrideFillsEnglishName(t *testing.T) {
	resolver := NewClassificationResolver(newTestTaxonomy(true), nil)

	// 1-01-001 has a translation override, so no missing-English finding
	outcome := resolver.Resolve("1-01-001", "Caja")
	assert.Equal(t, "Cash", outcome.Account.NameEn)
	assert.Empty(t, findingsOfKind(outcome.Findings, models.IncidenceKindMissingEnglishName))
}

func TestResolveNameUpdateOnExistingAccount(t *testing.T) {
	existing := []*models.Account{{ID: 100, ClientId: 7, Code: "1-01-001", Name: "Caja"}}
	resolver := NewClassificationResolver(newTestTaxonomy(true), existing)

	outcome := resolver.Resolve("1-01-001", "Caja")
	assert.True(t, outcome.NameUpdated)
	assert.Equal(t, "Cash", outcome.Account.NameEn)
	require.Len(t, resolver.NameUpdates(), 1)
}

func TestResolveMonolingualSkipsEnglishCheck(t *testing.T) {
	resolver := NewClassificationResolver(newTestTaxonomy(false), nil)

	outcome := resolver.Resolve("5-05-005", "Cuenta Nueva")
	assert.Empty(t, findingsOfKind(outcome.Findings, models.IncidenceKindMissingEnglishName))
}

func TestResolveCollectsBackfillCodes(t *testing.T) {
	resolver := NewClassificationResolver(newTestTaxonomy(false), nil)

	// 4-01-001 carries a temporary code-keyed classification in set 2
	resolver.Resolve("4-01-001", "Ventas")
	resolver.Resolve("4-01-001", "Ventas")
	assert.Equal(t, []string{"4-01-001"}, resolver.BackfillCodes())

	resolver.Resolve("1-01-001", "Caja")
	assert.Equal(t, []string{"4-01-001"}, resolver.BackfillCodes())
}
