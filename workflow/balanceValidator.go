package workflow

import (
	"github.com/castrometro/sgm-contabilidad/models"
	"github.com/shopspring/decimal"
)

// BucketTotals accumulates one balance bucket online, in the same pass as
// parsing. No second scan over movements.
type BucketTotals struct {
	Opening decimal.Decimal `json:"opening"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
}

func (b BucketTotals) Balance() decimal.Decimal {
	return b.Opening.Add(b.Debit).Sub(b.Credit)
}

// BucketResult is one bucket of the final balance check.
type BucketResult struct {
	Opening decimal.Decimal `json:"opening"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
	Balance decimal.Decimal `json:"balance"`
}

// BalanceCheck is the structured balance-invariant result of one run.
type BalanceCheck struct {
	ESF          BucketResult    `json:"esf"`
	ERI          BucketResult    `json:"eri"`
	Unclassified BucketResult    `json:"unclassified"`
	Total        decimal.Decimal `json:"total"`
	Balanced     bool            `json:"balanced"`
	Tolerance    decimal.Decimal `json:"tolerance"`
}

// BalanceValidator maintains the three running accumulators. Each account's
// category is resolved once and memoized; tolerance is an absolute decimal
// amount, not a percentage.
type BalanceValidator struct {
	taxonomy  *TaxonomyIndex
	tolerance decimal.Decimal

	esf          BucketTotals
	eri          BucketTotals
	unclassified BucketTotals

	categories map[string]models.AccountCategory
}

func NewBalanceValidator(taxonomy *TaxonomyIndex, tolerance decimal.Decimal) *BalanceValidator {
	return &BalanceValidator{
		taxonomy:   taxonomy,
		tolerance:  tolerance,
		categories: make(map[string]models.AccountCategory),
	}
}

func (v *BalanceValidator) bucketFor(accountCode string) *BucketTotals {
	category, ok := v.categories[accountCode]
	if !ok {
		category = v.taxonomy.Categorize(accountCode)
		v.categories[accountCode] = category
	}
	switch category {
	case models.AccountCategoryESF:
		return &v.esf
	case models.AccountCategoryERI:
		return &v.eri
	default:
		return &v.unclassified
	}
}

func (v *BalanceValidator) AddOpening(accountCode string, amount decimal.Decimal) {
	bucket := v.bucketFor(accountCode)
	bucket.Opening = bucket.Opening.Add(amount)
}

func (v *BalanceValidator) AddMovement(accountCode string, debit decimal.Decimal, credit decimal.Decimal) {
	bucket := v.bucketFor(accountCode)
	bucket.Debit = bucket.Debit.Add(debit)
	bucket.Credit = bucket.Credit.Add(credit)
}

func bucketResult(b BucketTotals) BucketResult {
	return BucketResult{
		Opening: b.Opening,
		Debit:   b.Debit,
		Credit:  b.Credit,
		Balance: b.Balance(),
	}
}

// Result computes the final check: total is the exact decimal sum of the
// three bucket balances, balanced iff |total| <= tolerance.
func (v *BalanceValidator) Result() BalanceCheck {
	total := v.esf.Balance().Add(v.eri.Balance()).Add(v.unclassified.Balance())
	return BalanceCheck{
		ESF:          bucketResult(v.esf),
		ERI:          bucketResult(v.eri),
		Unclassified: bucketResult(v.unclassified),
		Total:        total,
		Balanced:     total.Abs().LessThanOrEqual(v.tolerance),
		Tolerance:    v.tolerance,
	}
}
