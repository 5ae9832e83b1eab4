package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/castrometro/sgm-contabilidad/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore keeps everything in memory with replacement semantics matching
// the real store: period rows are superseded, accounts are upserted by code.
type fakeStore struct {
	client   *models.Client
	period   *models.Period
	accounts []*models.Account
	data     TaxonomyData

	periodMovements map[int][]*PendingMovement
	periodOpenings  map[int][]*PendingOpening
	periodIncidents map[int][]*models.Incidence
	snapshots       []*models.IncidenceSnapshot
	batches         []*PeriodBatch
}

func newFakeStore() *fakeStore {
	bilingual := false
	return &fakeStore{
		client: &models.Client{ID: 7, Name: "Cliente Demo", IsBilingual: &bilingual},
		period: &models.Period{
			ID:          3,
			ClientId:    7,
			ClosingDate: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
			Status:      models.PeriodStatusOpen,
		},
		data:            testTaxonomyData(),
		periodMovements: make(map[int][]*PendingMovement),
		periodOpenings:  make(map[int][]*PendingOpening),
		periodIncidents: make(map[int][]*models.Incidence),
	}
}

func (s *fakeStore) GetClient(ctx context.Context, clientId int) (*models.Client, error) {
	if s.client.ID != clientId {
		return nil, errors.New("client not found")
	}
	return s.client, nil
}

func (s *fakeStore) GetPeriod(ctx context.Context, periodId int) (*models.Period, error) {
	if s.period.ID != periodId {
		return nil, errors.New("period not found")
	}
	return s.period, nil
}

func (s *fakeStore) LoadAccounts(ctx context.Context, clientId int) ([]*models.Account, error) {
	return s.accounts, nil
}

func (s *fakeStore) LoadClassificationSets(ctx context.Context, clientId int) ([]*models.ClassificationSet, error) {
	return s.data.Sets, nil
}

func (s *fakeStore) LoadClassificationOptions(ctx context.Context, clientId int) ([]*models.ClassificationOption, error) {
	return s.data.Options, nil
}

func (s *fakeStore) LoadAccountClassifications(ctx context.Context, clientId int) ([]*models.AccountClassification, error) {
	return s.data.Classifications, nil
}

func (s *fakeStore) LoadClassificationExceptions(ctx context.Context, clientId int) ([]*models.ClassificationException, error) {
	return s.data.ClassificationExceptions, nil
}

func (s *fakeStore) LoadDocTypeExceptions(ctx context.Context, clientId int) ([]*models.DocTypeException, error) {
	return s.data.DocTypeExceptions, nil
}

func (s *fakeStore) LoadDocTypes(ctx context.Context, clientId int) ([]*models.DocType, error) {
	return s.data.DocTypes, nil
}

func (s *fakeStore) LoadNameTranslations(ctx context.Context, clientId int) ([]*models.AccountNameTranslation, error) {
	return s.data.NameTranslations, nil
}

func (s *fakeStore) LatestSnapshot(ctx context.Context, periodId int) (*models.IncidenceSnapshot, error) {
	var latest *models.IncidenceSnapshot
	for _, snapshot := range s.snapshots {
		if snapshot.PeriodId != periodId {
			continue
		}
		if latest == nil || snapshot.Iteration > latest.Iteration {
			latest = snapshot
		}
	}
	return latest, nil
}

func (s *fakeStore) ReplacePeriodData(ctx context.Context, batch *PeriodBatch) error {
	s.batches = append(s.batches, batch)
	for _, account := range batch.NewAccounts {
		exists := false
		for _, have := range s.accounts {
			if have.Code == account.Code {
				exists = true
				break
			}
		}
		if !exists {
			account.ID = 1000 + len(s.accounts)
			s.accounts = append(s.accounts, account)
		}
	}
	s.periodMovements[batch.PeriodId] = batch.Movements
	s.periodOpenings[batch.PeriodId] = batch.OpeningBalances
	s.periodIncidents[batch.PeriodId] = batch.Incidences
	if batch.Snapshot != nil {
		s.snapshots = append(s.snapshots, batch.Snapshot)
	}
	s.period.Iteration = batch.Iteration
	s.period.Status = models.PeriodStatusCompleted
	return nil
}

func singleEntryRows() [][]string {
	return [][]string{
		{"Cuenta", "Fecha", "Glosa", "Debe", "Haber", "Tipo Doc", "Saldo"},
		{"SALDO ANTERIOR DE LA CUENTA: 1-01-001 Caja", "", "", "", "", "", "1.000"},
		{"", "05/03/2025", "Pago recibido", "500", "0", "33", ""},
	}
}

func incidenceKinds(incidences []*models.Incidence) []models.IncidenceKind {
	var kinds []models.IncidenceKind
	for _, inc := range incidences {
		kinds = append(kinds, inc.Kind)
	}
	return kinds
}

func TestRunIngestionSingleEntryUnbalanced(t *testing.T) {
	store := newFakeStore()
	result, err := RunIngestion(context.Background(), store, IngestionInput{ClientId: 7, PeriodId: 3},
		NewSliceRowSource(singleEntryRows()))
	require.NoError(t, err)

	assert.Equal(t, 1, result.AccountsCreated)
	assert.Equal(t, 1, result.OpeningBalances)
	assert.Equal(t, 1, result.MovementsCreated)
	assert.Equal(t, 1, result.Iteration)

	// 1-01-001 is classified ESF: opening 1000 + debit 500 with no
	// offsetting entries exceeds the 1000 tolerance
	assert.True(t, dec("1500").Equal(result.Balance.ESF.Balance))
	assert.True(t, dec("1500").Equal(result.Balance.Total))
	assert.False(t, result.Balance.Balanced)
	assert.Contains(t, incidenceKinds(result.Incidences), models.IncidenceKindUnbalancedLedger)

	require.Len(t, store.batches, 1)
	require.Len(t, store.periodMovements[3], 1)
	movement := store.periodMovements[3][0]
	assert.Equal(t, "1-01-001", movement.AccountCode)
	assert.True(t, dec("500").Equal(movement.Movement.Debit))
	assert.Equal(t, models.PeriodStatusCompleted, store.period.Status)
}

func TestRunIngestionZeroMonetaryRows(t *testing.T) {
	store := newFakeStore()
	rows := [][]string{
		{"Cuenta", "Fecha", "Glosa", "Debe", "Haber"},
	}
	result, err := RunIngestion(context.Background(), store, IngestionInput{ClientId: 7, PeriodId: 3},
		NewSliceRowSource(rows))
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 0, result.MovementsCreated)
	assert.Equal(t, 0, result.AccountsCreated)
	assert.True(t, result.Balance.Balanced)
	assert.Equal(t, 1, result.Iteration)
	// the flush still happens so the iteration and snapshot advance
	require.Len(t, store.batches, 1)
}

func TestRunIngestionIdempotentReingestion(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	input := IngestionInput{ClientId: 7, PeriodId: 3}

	first, err := RunIngestion(ctx, store, input, NewSliceRowSource(singleEntryRows()))
	require.NoError(t, err)
	second, err := RunIngestion(ctx, store, input, NewSliceRowSource(singleEntryRows()))
	require.NoError(t, err)

	assert.Equal(t, 1, first.Iteration)
	assert.Equal(t, 2, second.Iteration)
	// account created once, movements replaced not appended
	assert.Equal(t, 1, first.AccountsCreated)
	assert.Equal(t, 0, second.AccountsCreated)
	assert.Len(t, store.accounts, 1)
	assert.Len(t, store.periodMovements[3], 1)
	assert.Len(t, store.periodOpenings[3], 1)

	// identical data, so the second iteration's diff is empty
	require.NotNil(t, second.Diff)
	assert.True(t, second.Diff.Empty())
}

func TestRunIngestionDocTypeFindings(t *testing.T) {
	store := newFakeStore()
	rows := [][]string{
		{"Cuenta", "Fecha", "Glosa", "Debe", "Haber", "Tipo Doc"},
		{"SALDO ANTERIOR DE LA CUENTA: 5-05-005 Gastos Varios", "", "", "", "", ""},
		{"", "05/03/2025", "sin tipo", "100", "0", ""},
		{"", "06/03/2025", "tipo raro", "0", "100", "99"},
	}
	result, err := RunIngestion(context.Background(), store, IngestionInput{ClientId: 7, PeriodId: 3},
		NewSliceRowSource(rows))
	require.NoError(t, err)

	kinds := incidenceKinds(result.Incidences)
	assert.Contains(t, kinds, models.IncidenceKindEmptyDocType)
	assert.Contains(t, kinds, models.IncidenceKindUnknownDocType)
}

func TestRunIngestionDocTypeExceptionSuppresses(t *testing.T) {
	store := newFakeStore()
	// 1-01-001 is exempt from tipo_doc_vacio in the fixture
	rows := [][]string{
		{"Cuenta", "Fecha", "Glosa", "Debe", "Haber", "Tipo Doc"},
		{"SALDO ANTERIOR DE LA CUENTA: 1-01-001 Caja", "", "", "", "", ""},
		{"", "05/03/2025", "sin tipo", "100", "0", ""},
	}
	result, err := RunIngestion(context.Background(), store, IngestionInput{ClientId: 7, PeriodId: 3},
		NewSliceRowSource(rows))
	require.NoError(t, err)
	assert.NotContains(t, incidenceKinds(result.Incidences), models.IncidenceKindEmptyDocType)
}

func TestRunIngestionClassificationExceptionSuppresses(t *testing.T) {
	store := newFakeStore()
	// 9-99-001 has a classification exception for set 1 (the ESF set)
	rows := [][]string{
		{"Cuenta", "Fecha", "Glosa", "Debe", "Haber", "Tipo Doc"},
		{"SALDO ANTERIOR DE LA CUENTA: 9-99-001 Cuenta Exenta", "", "", "", "", ""},
		{"", "05/03/2025", "mov", "100", "0", "33"},
	}
	result, err := RunIngestion(context.Background(), store, IngestionInput{ClientId: 7, PeriodId: 3},
		NewSliceRowSource(rows))
	require.NoError(t, err)

	for _, inc := range result.Incidences {
		if inc.Kind == models.IncidenceKindMissingClassification && inc.AccountCode == "9-99-001" {
			require.NotNil(t, inc.SetId)
			assert.NotEqual(t, 1, *inc.SetId)
		}
	}
}

func TestRunIngestionBackfillAndDateFallback(t *testing.T) {
	store := newFakeStore()
	rows := [][]string{
		{"Cuenta", "Fecha", "Glosa", "Debe", "Haber", "Tipo Doc"},
		{"SALDO ANTERIOR DE LA CUENTA: 4-01-001 Ventas", "", "", "", "", ""},
		{"", "fecha rota", "venta", "0", "500", "33"},
	}
	result, err := RunIngestion(context.Background(), store, IngestionInput{ClientId: 7, PeriodId: 3},
		NewSliceRowSource(rows))
	require.NoError(t, err)

	// 4-01-001 carries a temporary classification to reattach
	require.Len(t, store.batches, 1)
	assert.Equal(t, []string{"4-01-001"}, store.batches[0].BackfillCodes)

	assert.Contains(t, incidenceKinds(result.Incidences), models.IncidenceKindInvalidDate)
	movement := store.periodMovements[3][0]
	assert.True(t, movement.Movement.DateFallback)
	assert.Equal(t, store.period.ClosingDate, movement.Movement.Date)
}

func TestRunIngestionDuplicateSentinelKeepsOneOpening(t *testing.T) {
	store := newFakeStore()
	rows := [][]string{
		{"Cuenta", "Fecha", "Glosa", "Debe", "Haber", "Saldo"},
		{"SALDO ANTERIOR DE LA CUENTA: 1-01-001 Caja", "", "", "", "", "1.000"},
		{"", "05/03/2025", "a", "100", "0", ""},
		{"SALDO ANTERIOR DE LA CUENTA: 1-01-001 Caja", "", "", "", "", "1.000"},
		{"", "06/03/2025", "b", "0", "100", ""},
	}
	result, err := RunIngestion(context.Background(), store, IngestionInput{ClientId: 7, PeriodId: 3},
		NewSliceRowSource(rows))
	require.NoError(t, err)

	assert.Equal(t, 1, result.OpeningBalances)
	assert.Equal(t, 2, result.MovementsCreated)
	assert.Equal(t, 1, result.AccountsSeen)

	seen := 0
	for _, inc := range result.Incidences {
		if inc.Kind == models.IncidenceKindMissingClassification {
			seen++
			assert.Equal(t, 1, inc.Count)
		}
	}
	assert.NotZero(t, seen)
}

func TestRunIngestionMissingColumnsFatal(t *testing.T) {
	store := newFakeStore()
	rows := [][]string{
		{"Cuenta", "Fecha", "Glosa"},
	}
	_, err := RunIngestion(context.Background(), store, IngestionInput{ClientId: 7, PeriodId: 3},
		NewSliceRowSource(rows))
	var missing *MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Empty(t, store.batches)
}

func TestRunIngestionRejectsForeignPeriod(t *testing.T) {
	store := newFakeStore()
	store.period.ClientId = 99
	_, err := RunIngestion(context.Background(), store, IngestionInput{ClientId: 7, PeriodId: 3},
		NewSliceRowSource(singleEntryRows()))
	require.Error(t, err)
}

func TestRunIngestionValidatesInput(t *testing.T) {
	store := newFakeStore()
	_, err := RunIngestion(context.Background(), store, IngestionInput{ClientId: 0, PeriodId: 3},
		NewSliceRowSource(singleEntryRows()))
	require.Error(t, err)
	assert.Empty(t, store.batches)
}
