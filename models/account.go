package models

import (
	"context"
	"errors"
	"time"

	"github.com/castrometro/sgm-contabilidad/config"
)

// Account is a ledger account as defined by the client's own chart of
// accounts. Created on first sighting during parsing; NameEn and the
// classification rows are filled in as data arrives. Accounts are
// client-scoped and outlive any single period.
type Account struct {
	ID        int       `gorm:"primary_key" json:"id"`
	ClientId  int       `gorm:"uniqueIndex:idx_accounts_client_code;not null" json:"client_id"`
	Code      string    `gorm:"uniqueIndex:idx_accounts_client_code;size:50;not null" json:"code"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	NameEn    string    `gorm:"size:200" json:"name_en"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetAccountsByClient(ctx context.Context, clientId int) ([]*Account, error) {
	if clientId <= 0 {
		return nil, errors.New("client id is required")
	}
	db := config.GetDB()
	var results []*Account
	err := db.WithContext(ctx).Where("client_id = ?", clientId).Order("code").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// AccountNameTranslation holds an English-name override keyed by account
// code, applied to the Account the first time that code is parsed.
type AccountNameTranslation struct {
	ID          int    `gorm:"primary_key" json:"id"`
	ClientId    int    `gorm:"uniqueIndex:idx_account_name_translations;not null" json:"client_id"`
	AccountCode string `gorm:"uniqueIndex:idx_account_name_translations;size:50;not null" json:"account_code"`
	NameEn      string `gorm:"size:200;not null" json:"name_en"`
}
