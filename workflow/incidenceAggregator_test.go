package workflow

import (
	"testing"

	"github.com/castrometro/sgm-contabilidad/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorDeduplicatesByTuple(t *testing.T) {
	agg := NewIncidenceAggregator()
	for i := 0; i < 7; i++ {
		agg.Add(Finding{Kind: models.IncidenceKindEmptyDocType, AccountCode: "1-01-001"})
	}
	agg.Add(Finding{Kind: models.IncidenceKindEmptyDocType, AccountCode: "2-01-001"})

	incidences := agg.Finalize(3)
	require.Len(t, incidences, 2)
	assert.Equal(t, "1-01-001", incidences[0].AccountCode)
	assert.Equal(t, 7, incidences[0].Count)
	assert.Equal(t, "2-01-001", incidences[1].AccountCode)
	assert.Equal(t, 1, incidences[1].Count)
	assert.Equal(t, 3, incidences[0].PeriodId)
}

func TestAggregatorDistinguishesSetId(t *testing.T) {
	agg := NewIncidenceAggregator()
	agg.Add(Finding{Kind: models.IncidenceKindMissingClassification, AccountCode: "1-01-001", SetId: 1})
	agg.Add(Finding{Kind: models.IncidenceKindMissingClassification, AccountCode: "1-01-001", SetId: 2})

	incidences := agg.Finalize(1)
	require.Len(t, incidences, 2)
	require.NotNil(t, incidences[0].SetId)
	require.NotNil(t, incidences[1].SetId)
	assert.Equal(t, 1, *incidences[0].SetId)
	assert.Equal(t, 2, *incidences[1].SetId)
}

func TestAggregatorSeverityThresholds(t *testing.T) {
	cases := []struct {
		count int
		want  models.IncidenceSeverity
	}{
		{1, models.IncidenceSeverityLow},
		{4, models.IncidenceSeverityLow},
		{5, models.IncidenceSeverityMedium},
		{19, models.IncidenceSeverityMedium},
		{20, models.IncidenceSeverityHigh},
		{49, models.IncidenceSeverityHigh},
		{50, models.IncidenceSeverityCritical},
	}
	for _, c := range cases {
		agg := NewIncidenceAggregator()
		agg.AddN(Finding{Kind: models.IncidenceKindInvalidDate, AccountCode: "1-01-001"}, c.count)
		incidences := agg.Finalize(1)
		require.Len(t, incidences, 1)
		assert.Equal(t, c.want, incidences[0].Severity, "count %d", c.count)
	}
}

func TestAggregatorFinalizeDeterministicOrder(t *testing.T) {
	build := func() []*models.Incidence {
		agg := NewIncidenceAggregator()
		agg.Add(Finding{Kind: models.IncidenceKindUnknownDocType, AccountCode: "2-01-001", DocTypeCode: "77"})
		agg.Add(Finding{Kind: models.IncidenceKindEmptyDocType, AccountCode: "1-01-001"})
		agg.Add(Finding{Kind: models.IncidenceKindMissingClassification, AccountCode: "1-01-001", SetId: 2})
		agg.Add(Finding{Kind: models.IncidenceKindMissingClassification, AccountCode: "1-01-001", SetId: 1})
		return agg.Finalize(1)
	}
	first := build()
	second := build()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Kind, second[i].Kind)
		assert.Equal(t, first[i].AccountCode, second[i].AccountCode)
		assert.Equal(t, first[i].SetId, second[i].SetId)
	}
}

func TestAggregatorCarriesCatalogTexts(t *testing.T) {
	agg := NewIncidenceAggregator()
	agg.Add(Finding{Kind: models.IncidenceKindUnbalancedLedger})
	incidences := agg.Finalize(1)
	require.Len(t, incidences, 1)
	assert.NotEmpty(t, incidences[0].Description)
	assert.NotEmpty(t, incidences[0].Remediation)
}

func TestDiffAgainstNoPreviousSnapshot(t *testing.T) {
	agg := NewIncidenceAggregator()
	agg.Add(Finding{Kind: models.IncidenceKindEmptyDocType, AccountCode: "1-01-001"})
	diff, err := agg.Diff(nil)
	require.NoError(t, err)
	assert.True(t, diff.Empty())
}

func TestDiffResolvedKind(t *testing.T) {
	previous := NewIncidenceAggregator()
	previous.AddN(Finding{Kind: models.IncidenceKindMissingEnglishName, AccountCode: "1-01-001"}, 5)
	snapshot, err := previous.Snapshot(1, 1)
	require.NoError(t, err)

	current := NewIncidenceAggregator()
	diff, err := current.Diff(snapshot)
	require.NoError(t, err)
	assert.Equal(t, []models.IncidenceKind{models.IncidenceKindMissingEnglishName}, diff.Resolved)
	assert.Empty(t, diff.New)
}

func TestDiffNewImprovedWorsened(t *testing.T) {
	previous := NewIncidenceAggregator()
	previous.AddN(Finding{Kind: models.IncidenceKindEmptyDocType, AccountCode: "1-01-001"}, 10)
	previous.AddN(Finding{Kind: models.IncidenceKindInvalidDate, AccountCode: "1-01-001"}, 2)
	snapshot, err := previous.Snapshot(1, 1)
	require.NoError(t, err)

	current := NewIncidenceAggregator()
	current.AddN(Finding{Kind: models.IncidenceKindEmptyDocType, AccountCode: "1-01-001"}, 4)
	current.AddN(Finding{Kind: models.IncidenceKindInvalidDate, AccountCode: "1-01-001"}, 6)
	current.Add(Finding{Kind: models.IncidenceKindUnbalancedLedger})

	diff, err := current.Diff(snapshot)
	require.NoError(t, err)
	assert.Equal(t, []models.IncidenceKind{models.IncidenceKindUnbalancedLedger}, diff.New)
	assert.Equal(t, []models.IncidenceKind{models.IncidenceKindEmptyDocType}, diff.Improved)
	assert.Equal(t, []models.IncidenceKind{models.IncidenceKindInvalidDate}, diff.Worsened)
	assert.Empty(t, diff.Resolved)
}
