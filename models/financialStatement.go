package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// FinancialStatement is the assembled, cached statement artifact for one
// (client, period, kind). Regenerable at any time from Account + Movement +
// AccountClassification state; only the 2 most recent complete periods per
// client are retained.
type FinancialStatement struct {
	ID               int             `gorm:"primary_key" json:"id"`
	ClientId         int             `gorm:"uniqueIndex:idx_financial_statements;not null" json:"client_id"`
	PeriodId         int             `gorm:"uniqueIndex:idx_financial_statements;not null" json:"period_id"`
	Kind             StatementKind   `gorm:"uniqueIndex:idx_financial_statements;size:3;not null" json:"kind"`
	Tree             []byte          `gorm:"type:json" json:"tree"`
	Total            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	ExcludedAccounts int             `gorm:"not null;default:0" json:"excluded_accounts"`
	GeneratedAt      time.Time       `gorm:"not null" json:"generated_at"`
}

// StatementNode is one level of the bilingual statement tree. Totals roll up
// from accounts through detail groups and subcategories to categories.
type StatementNode struct {
	NombreEs string             `json:"nombre_es"`
	NombreEn string             `json:"nombre_en"`
	Total    decimal.Decimal    `json:"total"`
	Opening  *decimal.Decimal   `json:"opening,omitempty"`
	Changes  *decimal.Decimal   `json:"changes,omitempty"`
	Children []*StatementNode   `json:"children,omitempty"`
	Accounts []StatementAccount `json:"accounts,omitempty"`
}

type StatementAccount struct {
	Code     string          `json:"code"`
	NombreEs string          `json:"nombre_es"`
	NombreEn string          `json:"nombre_en"`
	Amount   decimal.Decimal `json:"amount"`
}

func (fs *FinancialStatement) DecodeTree() ([]*StatementNode, error) {
	var tree []*StatementNode
	if len(fs.Tree) == 0 {
		return tree, nil
	}
	if err := json.Unmarshal(fs.Tree, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func EncodeStatementTree(tree []*StatementNode) ([]byte, error) {
	return json.Marshal(tree)
}
