package workflow

import (
	"context"

	"github.com/castrometro/sgm-contabilidad/models"
)

// TaxonomyIndex preloads one client's classification universe into lookup
// maps so the single-pass parse never queries per row. Built once per
// ingestion run; read-only afterwards.
type TaxonomyIndex struct {
	ClientId  int
	Bilingual bool

	Sets         []*models.ClassificationSet
	OptionsById  map[int]*models.ClassificationOption
	OptionsBySet map[int][]*models.ClassificationOption

	// classification rows by natural key: account code -> set id. Both
	// FK-linked and temporary rows live here; the code is the natural key
	// either way.
	classByCode map[string]map[int]*models.AccountClassification

	setExceptions  map[int]map[string]bool
	kindExceptions map[models.IncidenceKind]map[string]bool
	docTypes       map[string]*models.DocType
	nameEnByCode   map[string]string

	esfSet *models.ClassificationSet
	eriSet *models.ClassificationSet
	ecpSet *models.ClassificationSet
}

// TaxonomyData is everything NewTaxonomyIndex needs, bulk-loaded up front.
type TaxonomyData struct {
	Sets                     []*models.ClassificationSet
	Options                  []*models.ClassificationOption
	Classifications          []*models.AccountClassification
	ClassificationExceptions []*models.ClassificationException
	DocTypeExceptions        []*models.DocTypeException
	DocTypes                 []*models.DocType
	NameTranslations         []*models.AccountNameTranslation
}

// NewTaxonomyIndex builds the lookup maps from bulk-loaded data. Pure; no
// store access.
func NewTaxonomyIndex(clientId int, bilingual bool, data TaxonomyData) *TaxonomyIndex {
	idx := &TaxonomyIndex{
		ClientId:       clientId,
		Bilingual:      bilingual,
		Sets:           data.Sets,
		OptionsById:    make(map[int]*models.ClassificationOption, len(data.Options)),
		OptionsBySet:   make(map[int][]*models.ClassificationOption),
		classByCode:    make(map[string]map[int]*models.AccountClassification),
		setExceptions:  make(map[int]map[string]bool),
		kindExceptions: make(map[models.IncidenceKind]map[string]bool),
		docTypes:       make(map[string]*models.DocType, len(data.DocTypes)),
		nameEnByCode:   make(map[string]string, len(data.NameTranslations)),
	}

	for _, opt := range data.Options {
		idx.OptionsById[opt.ID] = opt
		idx.OptionsBySet[opt.SetId] = append(idx.OptionsBySet[opt.SetId], opt)
	}
	for _, cls := range data.Classifications {
		bySet := idx.classByCode[cls.AccountCode]
		if bySet == nil {
			bySet = make(map[int]*models.AccountClassification)
			idx.classByCode[cls.AccountCode] = bySet
		}
		bySet[cls.SetId] = cls
	}
	for _, exc := range data.ClassificationExceptions {
		byCode := idx.setExceptions[exc.SetId]
		if byCode == nil {
			byCode = make(map[string]bool)
			idx.setExceptions[exc.SetId] = byCode
		}
		byCode[exc.AccountCode] = true
	}
	for _, exc := range data.DocTypeExceptions {
		byCode := idx.kindExceptions[exc.Kind]
		if byCode == nil {
			byCode = make(map[string]bool)
			idx.kindExceptions[exc.Kind] = byCode
		}
		byCode[exc.AccountCode] = true
	}
	for _, dt := range data.DocTypes {
		idx.docTypes[dt.Code] = dt
	}
	for _, tr := range data.NameTranslations {
		idx.nameEnByCode[tr.AccountCode] = tr.NameEn
	}

	// template sets are resolved once; a client legitimately may lack some
	if set, err := models.ResolveTemplateSet(data.Sets, clientId, models.StatementKindESF); err == nil {
		idx.esfSet = set
	}
	if set, err := models.ResolveTemplateSet(data.Sets, clientId, models.StatementKindERI); err == nil {
		idx.eriSet = set
	}
	if set, err := models.ResolveTemplateSet(data.Sets, clientId, models.StatementKindECP); err == nil {
		idx.ecpSet = set
	}

	return idx
}

// BuildTaxonomyIndex bulk-loads the client's classification data through the
// store and indexes it.
func BuildTaxonomyIndex(ctx context.Context, store Store, client *models.Client) (*TaxonomyIndex, error) {
	data := TaxonomyData{}
	var err error
	if data.Sets, err = store.LoadClassificationSets(ctx, client.ID); err != nil {
		return nil, err
	}
	if data.Options, err = store.LoadClassificationOptions(ctx, client.ID); err != nil {
		return nil, err
	}
	if data.Classifications, err = store.LoadAccountClassifications(ctx, client.ID); err != nil {
		return nil, err
	}
	if data.ClassificationExceptions, err = store.LoadClassificationExceptions(ctx, client.ID); err != nil {
		return nil, err
	}
	if data.DocTypeExceptions, err = store.LoadDocTypeExceptions(ctx, client.ID); err != nil {
		return nil, err
	}
	if data.DocTypes, err = store.LoadDocTypes(ctx, client.ID); err != nil {
		return nil, err
	}
	if data.NameTranslations, err = store.LoadNameTranslations(ctx, client.ID); err != nil {
		return nil, err
	}
	return NewTaxonomyIndex(client.ID, client.Bilingual(), data), nil
}

// Classification returns the row for (account code, set) or nil. Temporary
// and FK-linked rows are both considered.
func (idx *TaxonomyIndex) Classification(accountCode string, setId int) *models.AccountClassification {
	if bySet, ok := idx.classByCode[accountCode]; ok {
		return bySet[setId]
	}
	return nil
}

// TemporaryClassifications returns the account's code-keyed rows still
// waiting for a real Account.
func (idx *TaxonomyIndex) TemporaryClassifications(accountCode string) []*models.AccountClassification {
	var result []*models.AccountClassification
	for _, cls := range idx.classByCode[accountCode] {
		if cls.Temporary() {
			result = append(result, cls)
		}
	}
	return result
}

func (idx *TaxonomyIndex) IsSetExempt(setId int, accountCode string) bool {
	if byCode, ok := idx.setExceptions[setId]; ok {
		return byCode[accountCode]
	}
	return false
}

func (idx *TaxonomyIndex) IsKindExempt(kind models.IncidenceKind, accountCode string) bool {
	if byCode, ok := idx.kindExceptions[kind]; ok {
		return byCode[accountCode]
	}
	return false
}

func (idx *TaxonomyIndex) KnownDocType(code string) bool {
	_, ok := idx.docTypes[code]
	return ok
}

func (idx *TaxonomyIndex) NameOverride(accountCode string) string {
	return idx.nameEnByCode[accountCode]
}

// TemplateSet returns the resolved set for a statement kind, or nil.
func (idx *TaxonomyIndex) TemplateSet(kind models.StatementKind) *models.ClassificationSet {
	switch kind {
	case models.StatementKindESF:
		return idx.esfSet
	case models.StatementKindERI:
		return idx.eriSet
	case models.StatementKindECP:
		return idx.ecpSet
	}
	return nil
}

// Categorize resolves the balance bucket an account contributes to. ESF set
// membership wins over ERI when an account is classified in both.
func (idx *TaxonomyIndex) Categorize(accountCode string) models.AccountCategory {
	if idx.esfSet != nil && idx.Classification(accountCode, idx.esfSet.ID) != nil {
		return models.AccountCategoryESF
	}
	if idx.eriSet != nil && idx.Classification(accountCode, idx.eriSet.ID) != nil {
		return models.AccountCategoryERI
	}
	return models.AccountCategoryUnclassified
}
