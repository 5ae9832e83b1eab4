package models

import (
	"context"
	"errors"
	"time"

	"github.com/castrometro/sgm-contabilidad/config"
)

// ClassificationSet is a labeled taxonomy dimension owned by one client,
// e.g. "Estado de Situación Financiera" or an arbitrary grouping like
// "Área de Negocio".
type ClassificationSet struct {
	ID        int       `gorm:"primary_key" json:"id"`
	ClientId  int       `gorm:"uniqueIndex:idx_classification_sets_client_name;not null" json:"client_id"`
	Name      string    `gorm:"uniqueIndex:idx_classification_sets_client_name;size:200;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ClassificationOption is an allowed value within a set.
type ClassificationOption struct {
	ID          int    `gorm:"primary_key" json:"id"`
	SetId       int    `gorm:"uniqueIndex:idx_classification_options_set_value;not null" json:"set_id"`
	Value       string `gorm:"uniqueIndex:idx_classification_options_set_value;size:200;not null" json:"value"`
	ValueEn     string `gorm:"size:200" json:"value_en"`
	Description string `gorm:"type:text" json:"description"`
}

// AccountClassification assigns one option of one set to one account.
// Invariant: exactly one active row per (account, set).
//
// AccountId is nil for temporary entries recorded before the Account row
// existed; those are keyed by AccountCode and back-filled to the real
// Account the first time that code is parsed. The back-fill is an upsert on
// (client_id, account_code, set_id), never a blind insert.
type AccountClassification struct {
	ID          int       `gorm:"primary_key" json:"id"`
	ClientId    int       `gorm:"uniqueIndex:idx_account_classifications;not null" json:"client_id"`
	AccountId   *int      `gorm:"index" json:"account_id"`
	AccountCode string    `gorm:"uniqueIndex:idx_account_classifications;size:50;not null" json:"account_code"`
	SetId       int       `gorm:"uniqueIndex:idx_account_classifications;not null" json:"set_id"`
	OptionId    int       `gorm:"not null" json:"option_id"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Temporary reports whether the row is still keyed by code only.
func (ac *AccountClassification) Temporary() bool {
	return ac.AccountId == nil || *ac.AccountId == 0
}

// ClassificationException suppresses "missing classification" incidences for
// one (account, set) pair.
type ClassificationException struct {
	ID          int    `gorm:"primary_key" json:"id"`
	ClientId    int    `gorm:"uniqueIndex:idx_classification_exceptions;not null" json:"client_id"`
	SetId       int    `gorm:"uniqueIndex:idx_classification_exceptions;not null" json:"set_id"`
	AccountCode string `gorm:"uniqueIndex:idx_classification_exceptions;size:50;not null" json:"account_code"`
}

func GetClassificationSets(ctx context.Context, clientId int) ([]*ClassificationSet, error) {
	if clientId <= 0 {
		return nil, errors.New("client id is required")
	}
	db := config.GetDB()
	var results []*ClassificationSet
	err := db.WithContext(ctx).Where("client_id = ?", clientId).Order("id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
