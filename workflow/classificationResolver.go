package workflow

import (
	"github.com/castrometro/sgm-contabilidad/models"
)

// Finding is one raw data-quality observation emitted during the parse.
// Findings are aggregated into deduplicated Incidences; they never interrupt
// the run.
type Finding struct {
	Kind        models.IncidenceKind
	AccountCode string
	SetId       int
	DocTypeCode string
}

// AccountOutcome is the result of resolving one account sighting.
type AccountOutcome struct {
	Account *models.Account
	Created bool
	// NameUpdated means an existing account received its English name this run.
	NameUpdated bool
	Findings    []Finding
}

// ClassificationResolver creates/reuses Account entities and evaluates
// classification completeness exactly once per account per run, at first
// sighting. An account with 500 movement rows still produces at most one
// missing-classification finding per unmet set.
type ClassificationResolver struct {
	taxonomy *TaxonomyIndex
	clientId int

	accountsByCode map[string]*models.Account
	outcomes       map[string]*AccountOutcome

	newAccounts   []*models.Account
	nameUpdates   []*models.Account
	backfillCodes []string
}

// NewClassificationResolver indexes the client's existing accounts by code.
func NewClassificationResolver(taxonomy *TaxonomyIndex, existing []*models.Account) *ClassificationResolver {
	byCode := make(map[string]*models.Account, len(existing))
	for _, acc := range existing {
		byCode[acc.Code] = acc
	}
	return &ClassificationResolver{
		taxonomy:       taxonomy,
		clientId:       taxonomy.ClientId,
		accountsByCode: byCode,
		outcomes:       make(map[string]*AccountOutcome),
	}
}

// Resolve handles one account sighting. Repeat sightings reuse the first
// outcome and emit no further findings.
func (r *ClassificationResolver) Resolve(code string, name string) *AccountOutcome {
	if outcome, ok := r.outcomes[code]; ok {
		return outcome
	}

	outcome := &AccountOutcome{}

	account, exists := r.accountsByCode[code]
	if !exists {
		account = &models.Account{
			ClientId: r.clientId,
			Code:     code,
			Name:     name,
		}
		r.accountsByCode[code] = account
		r.newAccounts = append(r.newAccounts, account)
		outcome.Created = true
	}
	outcome.Account = account

	// temporary code-keyed classifications reattach to the real account;
	// the store performs the upsert by natural key, never a blind insert
	if len(r.taxonomy.TemporaryClassifications(code)) > 0 {
		r.backfillCodes = append(r.backfillCodes, code)
	}

	if account.NameEn == "" {
		if override := r.taxonomy.NameOverride(code); override != "" {
			account.NameEn = override
			if !outcome.Created {
				outcome.NameUpdated = true
				r.nameUpdates = append(r.nameUpdates, account)
			}
		}
	}

	for _, set := range r.taxonomy.Sets {
		if r.taxonomy.IsSetExempt(set.ID, code) {
			continue
		}
		if r.taxonomy.Classification(code, set.ID) == nil {
			outcome.Findings = append(outcome.Findings, Finding{
				Kind:        models.IncidenceKindMissingClassification,
				AccountCode: code,
				SetId:       set.ID,
			})
		}
	}

	if r.taxonomy.Bilingual && account.NameEn == "" &&
		!r.taxonomy.IsKindExempt(models.IncidenceKindMissingEnglishName, code) {
		outcome.Findings = append(outcome.Findings, Finding{
			Kind:        models.IncidenceKindMissingEnglishName,
			AccountCode: code,
		})
	}

	r.outcomes[code] = outcome
	return outcome
}

// Account returns the resolved account for a code seen this run, or nil.
func (r *ClassificationResolver) Account(code string) *models.Account {
	return r.accountsByCode[code]
}

// NewAccounts lists accounts first seen this run, in sighting order.
func (r *ClassificationResolver) NewAccounts() []*models.Account {
	return r.newAccounts
}

// NameUpdates lists existing accounts whose English name was filled this run.
func (r *ClassificationResolver) NameUpdates() []*models.Account {
	return r.nameUpdates
}

// BackfillCodes lists account codes whose temporary classifications need
// reattaching to the Account row.
func (r *ClassificationResolver) BackfillCodes() []string {
	return r.backfillCodes
}
