package workflow

import (
	"sort"

	"github.com/castrometro/sgm-contabilidad/models"
)

type findingKey struct {
	Kind        models.IncidenceKind
	AccountCode string
	SetId       int
	DocTypeCode string
}

// IncidenceAggregator collects findings into deduplicated, grouped counts.
// One Incidence per distinct (kind, account_code[, set_id|doc_type_code])
// tuple; cardinality is the Count, never one row per offending movement.
type IncidenceAggregator struct {
	counts map[findingKey]int
}

func NewIncidenceAggregator() *IncidenceAggregator {
	return &IncidenceAggregator{counts: make(map[findingKey]int)}
}

func (a *IncidenceAggregator) Add(f Finding) {
	a.AddN(f, 1)
}

func (a *IncidenceAggregator) AddN(f Finding, n int) {
	key := findingKey{Kind: f.Kind, AccountCode: f.AccountCode, SetId: f.SetId, DocTypeCode: f.DocTypeCode}
	a.counts[key] += n
}

// Finalize materializes the deduplicated Incidence rows for the period, in
// deterministic order.
func (a *IncidenceAggregator) Finalize(periodId int) []*models.Incidence {
	keys := make([]findingKey, 0, len(a.counts))
	for key := range a.counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		if keys[i].AccountCode != keys[j].AccountCode {
			return keys[i].AccountCode < keys[j].AccountCode
		}
		if keys[i].SetId != keys[j].SetId {
			return keys[i].SetId < keys[j].SetId
		}
		return keys[i].DocTypeCode < keys[j].DocTypeCode
	})

	incidences := make([]*models.Incidence, 0, len(keys))
	for _, key := range keys {
		count := a.counts[key]
		description, remediation := models.IncidenceTextFor(key.Kind)
		incidence := &models.Incidence{
			PeriodId:    periodId,
			Kind:        key.Kind,
			AccountCode: key.AccountCode,
			DocTypeCode: key.DocTypeCode,
			Count:       count,
			Severity:    models.SeverityForCount(count),
			Description: description,
			Remediation: remediation,
		}
		if key.SetId != 0 {
			setId := key.SetId
			incidence.SetId = &setId
		}
		incidences = append(incidences, incidence)
	}
	return incidences
}

// KindCounts sums affected counts per kind, the payload of a snapshot.
func (a *IncidenceAggregator) KindCounts() map[models.IncidenceKind]int {
	counts := make(map[models.IncidenceKind]int)
	for key, n := range a.counts {
		counts[key.Kind] += n
	}
	return counts
}

// Snapshot builds the immutable consolidated view for this iteration.
func (a *IncidenceAggregator) Snapshot(periodId int, iteration int) (*models.IncidenceSnapshot, error) {
	return models.NewIncidenceSnapshot(periodId, iteration, a.KindCounts())
}

// Diff compares this run against the previous iteration's snapshot.
// Kinds present before but absent now are resolved; present now but not
// before are new; present in both with a different count are improved or
// worsened by direction of the delta.
func (a *IncidenceAggregator) Diff(previous *models.IncidenceSnapshot) (*models.SnapshotDiff, error) {
	diff := &models.SnapshotDiff{}
	if previous == nil {
		return diff, nil
	}
	before, err := previous.KindCounts()
	if err != nil {
		return nil, err
	}
	now := a.KindCounts()

	kinds := make(map[models.IncidenceKind]bool)
	for kind := range before {
		kinds[kind] = true
	}
	for kind := range now {
		kinds[kind] = true
	}
	ordered := make([]models.IncidenceKind, 0, len(kinds))
	for kind := range kinds {
		ordered = append(ordered, kind)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	for _, kind := range ordered {
		prev, hadBefore := before[kind]
		curr, hasNow := now[kind]
		switch {
		case hadBefore && (!hasNow || curr == 0):
			diff.Resolved = append(diff.Resolved, kind)
		case !hadBefore && hasNow:
			diff.New = append(diff.New, kind)
		case hadBefore && hasNow && curr < prev:
			diff.Improved = append(diff.Improved, kind)
		case hadBefore && hasNow && curr > prev:
			diff.Worsened = append(diff.Worsened, kind)
		}
	}
	return diff, nil
}
