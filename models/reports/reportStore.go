package reports

import (
	"context"

	"github.com/castrometro/sgm-contabilidad/config"
	"github.com/castrometro/sgm-contabilidad/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// AccountBalance is one account's aggregated period figures, pre-summed in
// the database so assembly never scans raw movements.
type AccountBalance struct {
	AccountId int             `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	NameEn    string          `json:"name_en"`
	Opening   decimal.Decimal `json:"opening"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// ReportStore is the read/write boundary of statement assembly.
type ReportStore interface {
	GetClient(ctx context.Context, clientId int) (*models.Client, error)
	GetPeriod(ctx context.Context, periodId int) (*models.Period, error)

	LoadClassificationSets(ctx context.Context, clientId int) ([]*models.ClassificationSet, error)
	LoadClassificationOptions(ctx context.Context, clientId int) ([]*models.ClassificationOption, error)
	LoadAccountClassifications(ctx context.Context, clientId int) ([]*models.AccountClassification, error)
	LoadAccountBalances(ctx context.Context, clientId int, periodId int) ([]*AccountBalance, error)

	SaveStatement(ctx context.Context, statement *models.FinancialStatement) error
	ListStatements(ctx context.Context, clientId int) ([]*models.FinancialStatement, error)
	DeletePeriodStatements(ctx context.Context, clientId int, periodId int) error
}

// GormReportStore implements ReportStore on the shared gorm connection.
type GormReportStore struct{}

func NewGormReportStore() *GormReportStore {
	return &GormReportStore{}
}

func (s *GormReportStore) GetClient(ctx context.Context, clientId int) (*models.Client, error) {
	return models.GetClient(ctx, clientId)
}

func (s *GormReportStore) GetPeriod(ctx context.Context, periodId int) (*models.Period, error) {
	return models.GetPeriod(ctx, periodId)
}

func (s *GormReportStore) LoadClassificationSets(ctx context.Context, clientId int) ([]*models.ClassificationSet, error) {
	return models.GetClassificationSets(ctx, clientId)
}

func (s *GormReportStore) LoadClassificationOptions(ctx context.Context, clientId int) ([]*models.ClassificationOption, error) {
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

func (s *GormReportStore) LoadAccountClassifications(ctx context.Context, clientId int) ([]*models.AccountClassification, error) {
	db := config.GetDB()
	var results []*models.AccountClassification
	err := db.WithContext(ctx).Where("client_id = ?", clientId).Order("id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *GormReportStore) LoadAccountBalances(ctx context.Context, clientId int, periodId int) ([]*AccountBalance, error) {
	db := config.GetDB()

	query := `
		SELECT
			a.id AS account_id,
			a.code AS code,
			a.name AS name,
			a.name_en AS name_en,
			COALESCE(ob.amount, 0) AS opening,
			COALESCE(m.debit, 0) AS debit,
			COALESCE(m.credit, 0) AS credit
		FROM accounts AS a
		LEFT JOIN opening_balances AS ob
			ON ob.account_id = a.id AND ob.period_id = ?
		LEFT JOIN (
			SELECT account_id, SUM(debit) AS debit, SUM(credit) AS credit
			FROM movements
			WHERE period_id = ?
			GROUP BY account_id
		) AS m ON m.account_id = a.id
		WHERE a.client_id = ?
			AND (ob.id IS NOT NULL OR m.account_id IS NOT NULL)
		ORDER BY a.code
	`

	var balances []*AccountBalance
	if err := db.WithContext(ctx).Raw(query, periodId, periodId, clientId).Scan(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}

func (s *GormReportStore) SaveStatement(ctx context.Context, statement *models.FinancialStatement) error {
	db := config.GetDB()
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}, {Name: "period_id"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"tree", "total", "excluded_accounts", "generated_at"}),
	}).Create(statement).Error
}

func (s *GormReportStore) ListStatements(ctx context.Context, clientId int) ([]*models.FinancialStatement, error) {
	db := config.GetDB()
	var statements []*models.FinancialStatement
	err := db.WithContext(ctx).Where("client_id = ?", clientId).Order("period_id, kind").Find(&statements).Error
	if err != nil {
		return nil, err
	}
	return statements, nil
}

func (s *GormReportStore) DeletePeriodStatements(ctx context.Context, clientId int, periodId int) error {
	db := config.GetDB()
	return db.WithContext(ctx).
		Where("client_id = ? AND period_id = ?", clientId, periodId).
		Delete(&models.FinancialStatement{}).Error
}
