package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement is one monetary row of the ledger, tied to the account whose
// block it appeared in. Rows that failed validation are still recorded with
// Incomplete=true; monetary rows are never silently dropped.
type Movement struct {
	ID                int             `gorm:"primary_key" json:"id"`
	PeriodId          int             `gorm:"index;not null" json:"period_id"`
	AccountId         int             `gorm:"index;not null" json:"account_id"`
	Date              time.Time       `gorm:"index;not null" json:"date"`
	Debit             decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"debit"`
	Credit            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit"`
	Description       string          `gorm:"size:500" json:"description"`
	DocTypeCode       string          `gorm:"index;size:20" json:"doc_type_code"`
	DocNumber         string          `gorm:"size:50" json:"doc_number"`
	ComprobanteNumber string          `gorm:"size:50" json:"comprobante_number"`
	InternalNumber    string          `gorm:"size:50" json:"internal_number"`
	CostCenter        string          `gorm:"size:100" json:"cost_center"`
	Auxiliary         string          `gorm:"size:100" json:"auxiliary"`
	ExpenseDetail     string          `gorm:"size:200" json:"expense_detail"`
	// Incomplete marks a row kept despite a validation failure.
	Incomplete bool `gorm:"not null;default:false" json:"incomplete"`
	// DateFallback marks a row whose date failed every supported format and
	// was replaced with the period's closing date.
	DateFallback bool `gorm:"not null;default:false" json:"date_fallback"`
}
