package models

import (
	"github.com/shopspring/decimal"
)

// OpeningBalance is the carried-over balance of one account at the start of
// a period, taken from the sentinel line of the ledger file. One row per
// (period, account); overwritten when the period is re-ingested.
type OpeningBalance struct {
	ID        int             `gorm:"primary_key" json:"id"`
	PeriodId  int             `gorm:"uniqueIndex:idx_opening_balances_period_account;not null" json:"period_id"`
	AccountId int             `gorm:"uniqueIndex:idx_opening_balances_period_account;not null" json:"account_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
}
