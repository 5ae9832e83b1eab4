package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/castrometro/sgm-contabilidad/config"
	"github.com/castrometro/sgm-contabilidad/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PendingOpening is an opening balance buffered during the parse, keyed by
// account code; account ids are resolved at flush time.
type PendingOpening struct {
	AccountCode string
	Amount      decimal.Decimal
}

// PendingMovement is a movement buffered during the parse; AccountId on the
// embedded Movement is filled at flush time.
type PendingMovement struct {
	AccountCode string
	Movement    models.Movement
}

// PeriodBatch is everything one ingestion run writes, flushed atomically.
// The engine never performs per-row writes for movements.
type PeriodBatch struct {
	ClientId  int
	PeriodId  int
	Iteration int

	NewAccounts     []*models.Account
	NameUpdates     []*models.Account
	BackfillCodes   []string
	OpeningBalances []*PendingOpening
	Movements       []*PendingMovement
	Incidences      []*models.Incidence
	Snapshot        *models.IncidenceSnapshot
}

// Store is the persistence boundary of the ingestion engine: bulk loads in,
// one atomic batch out. No lazy per-row queries.
type Store interface {
	GetClient(ctx context.Context, clientId int) (*models.Client, error)
	GetPeriod(ctx context.Context, periodId int) (*models.Period, error)

	LoadAccounts(ctx context.Context, clientId int) ([]*models.Account, error)
	LoadClassificationSets(ctx context.Context, clientId int) ([]*models.ClassificationSet, error)
	LoadClassificationOptions(ctx context.Context, clientId int) ([]*models.ClassificationOption, error)
	LoadAccountClassifications(ctx context.Context, clientId int) ([]*models.AccountClassification, error)
	LoadClassificationExceptions(ctx context.Context, clientId int) ([]*models.ClassificationException, error)
	LoadDocTypeExceptions(ctx context.Context, clientId int) ([]*models.DocTypeException, error)
	LoadDocTypes(ctx context.Context, clientId int) ([]*models.DocType, error)
	LoadNameTranslations(ctx context.Context, clientId int) ([]*models.AccountNameTranslation, error)

	// LatestSnapshot returns the newest incidence snapshot for a period, or
	// nil when the period has never been ingested.
	LatestSnapshot(ctx context.Context, periodId int) (*models.IncidenceSnapshot, error)

	// ReplacePeriodData atomically supersedes the period's prior
	// Movements/OpeningBalances/Incidences with the batch. A failure leaves
	// no partial rows.
	ReplacePeriodData(ctx context.Context, batch *PeriodBatch) error
}

// GormStore implements Store on the shared gorm connection.
type GormStore struct{}

func NewGormStore() *GormStore {
	return &GormStore{}
}

func (s *GormStore) GetClient(ctx context.Context, clientId int) (*models.Client, error) {
	return models.GetClient(ctx, clientId)
}

func (s *GormStore) GetPeriod(ctx context.Context, periodId int) (*models.Period, error) {
	return models.GetPeriod(ctx, periodId)
}

func loadByClient[T any](ctx context.Context, clientId int) ([]*T, error) {
	db := config.GetDB()
	var results []*T
	err := db.WithContext(ctx).Where("client_id = ?", clientId).Order("id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *GormStore) LoadAccounts(ctx context.Context, clientId int) ([]*models.Account, error) {
	return loadByClient[models.Account](ctx, clientId)
}

func (s *GormStore) LoadClassificationSets(ctx context.Context, clientId int) ([]*models.ClassificationSet, error) {
	return loadByClient[models.ClassificationSet](ctx, clientId)
}

func (s *GormStore) LoadClassificationOptions(ctx context.Context, clientId int) ([]*models.ClassificationOption, error) {
	db := config.GetDB()
	var results []*models.ClassificationOption
	err := db.WithContext(ctx).
		Joins("JOIN classification_sets ON classification_sets.id = classification_options.set_id").
		Where("classification_sets.client_id = ?", clientId).
		Order("classification_options.id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *GormStore) LoadAccountClassifications(ctx context.Context, clientId int) ([]*models.AccountClassification, error) {
	return loadByClient[models.AccountClassification](ctx, clientId)
}

func (s *GormStore) LoadClassificationExceptions(ctx context.Context, clientId int) ([]*models.ClassificationException, error) {
	return loadByClient[models.ClassificationException](ctx, clientId)
}

func (s *GormStore) LoadDocTypeExceptions(ctx context.Context, clientId int) ([]*models.DocTypeException, error) {
	return loadByClient[models.DocTypeException](ctx, clientId)
}

func (s *GormStore) LoadDocTypes(ctx context.Context, clientId int) ([]*models.DocType, error) {
	return loadByClient[models.DocType](ctx, clientId)
}

func (s *GormStore) LoadNameTranslations(ctx context.Context, clientId int) ([]*models.AccountNameTranslation, error) {
	return loadByClient[models.AccountNameTranslation](ctx, clientId)
}

func (s *GormStore) LatestSnapshot(ctx context.Context, periodId int) (*models.IncidenceSnapshot, error) {
	db := config.GetDB()
	var snapshot models.IncidenceSnapshot
	err := db.WithContext(ctx).Where("period_id = ?", periodId).Order("iteration DESC").First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

const movementInsertBatchSize = 500

func (s *GormStore) ReplacePeriodData(ctx context.Context, batch *PeriodBatch) error {
	db := config.GetDB()
	// the advisory lock is connection scoped and must outlive the COMMIT,
	// so pin one connection and release only after the transaction closes
	return db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := AcquirePeriodPostingLock(conn, batch.ClientId, batch.PeriodId); err != nil {
			return err
		}
		defer ReleasePeriodPostingLock(conn, batch.ClientId, batch.PeriodId)

		return conn.Transaction(func(tx *gorm.DB) error {
			return s.replacePeriodData(tx, batch)
		})
	})
}

func (s *GormStore) replacePeriodData(tx *gorm.DB, batch *PeriodBatch) error {
	// prior period data is derived from the file; superseded wholesale
	if err := tx.Where("period_id = ?", batch.PeriodId).Delete(&models.Movement{}).Error; err != nil {
		return err
	}
	if err := tx.Where("period_id = ?", batch.PeriodId).Delete(&models.OpeningBalance{}).Error; err != nil {
		return err
	}
	if err := tx.Where("period_id = ?", batch.PeriodId).Delete(&models.Incidence{}).Error; err != nil {
		return err
	}

	if len(batch.NewAccounts) > 0 {
		// idempotent against concurrent first sightings of the same code
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}, {Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "name_en"}),
		}).Create(&batch.NewAccounts).Error; err != nil {
			return err
		}
	}
	for _, account := range batch.NameUpdates {
		if err := tx.Model(&models.Account{}).
			Where("client_id = ? AND code = ?", batch.ClientId, account.Code).
			Update("name_en", account.NameEn).Error; err != nil {
			return err
		}
	}

	accountIds, err := accountIdsByCode(tx, batch.ClientId)
	if err != nil {
		return err
	}

	// phase 2 of deferred FK resolution: compare-and-swap by natural key
	for _, code := range batch.BackfillCodes {
		accountId, ok := accountIds[code]
		if !ok {
			continue
		}
		if err := tx.Model(&models.AccountClassification{}).
			Where("client_id = ? AND account_code = ? AND account_id IS NULL", batch.ClientId, code).
			Update("account_id", accountId).Error; err != nil {
			return err
		}
	}

	openings := make([]*models.OpeningBalance, 0, len(batch.OpeningBalances))
	for _, pending := range batch.OpeningBalances {
		accountId, ok := accountIds[pending.AccountCode]
		if !ok {
			return errors.New("opening balance for unknown account code: " + pending.AccountCode)
		}
		openings = append(openings, &models.OpeningBalance{
			PeriodId:  batch.PeriodId,
			AccountId: accountId,
			Amount:    pending.Amount,
		})
	}
	if len(openings) > 0 {
		if err := tx.CreateInBatches(&openings, movementInsertBatchSize).Error; err != nil {
			return err
		}
	}

	movements := make([]*models.Movement, 0, len(batch.Movements))
	for _, pending := range batch.Movements {
		accountId, ok := accountIds[pending.AccountCode]
		if !ok {
			return errors.New("movement for unknown account code: " + pending.AccountCode)
		}
		movement := pending.Movement
		movement.PeriodId = batch.PeriodId
		movement.AccountId = accountId
		movements = append(movements, &movement)
	}
	if len(movements) > 0 {
		if err := tx.CreateInBatches(&movements, movementInsertBatchSize).Error; err != nil {
			return err
		}
	}

	if len(batch.Incidences) > 0 {
		if err := tx.CreateInBatches(&batch.Incidences, movementInsertBatchSize).Error; err != nil {
			return err
		}
	}
	if batch.Snapshot != nil {
		if err := tx.Create(batch.Snapshot).Error; err != nil {
			return err
		}
	}

	return tx.Model(&models.Period{}).Where("id = ?", batch.PeriodId).
		Updates(map[string]interface{}{
			"iteration":  batch.Iteration,
			"status":     models.PeriodStatusCompleted,
			"updated_at": time.Now(),
		}).Error
}

func accountIdsByCode(tx *gorm.DB, clientId int) (map[string]int, error) {
	type accountRow struct {
		ID   int
		Code string
	}
	var rows []accountRow
	if err := tx.Model(&models.Account{}).
		Select("id", "code").
		Where("client_id = ?", clientId).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	ids := make(map[string]int, len(rows))
	for _, row := range rows {
		ids[row.Code] = row.ID
	}
	return ids, nil
}
