package reports

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/castrometro/sgm-contabilidad/config"
	"github.com/castrometro/sgm-contabilidad/models"
	"github.com/shopspring/decimal"
)

// AssemblerOptions controls statement-assembly policy.
type AssemblerOptions struct {
	// IncludeUnmapped places accounts whose option value matches no template
	// rule under an explicit "Sin Clasificar" section instead of dropping
	// them from the tree. Either way they count toward ExcludedAccounts.
	IncludeUnmapped bool
}

// EvictFunc is invoked whenever retention removes a cached period.
type EvictFunc func(clientId int, periodId int)

// Assembler builds, persists and caches financial statements. Store and
// cache are injected; the Assembler holds no ambient state.
type Assembler struct {
	store   ReportStore
	cache   StatementCache
	options AssemblerOptions
	onEvict EvictFunc
}

func NewAssembler(store ReportStore, cache StatementCache, options AssemblerOptions, onEvict EvictFunc) *Assembler {
	return &Assembler{store: store, cache: cache, options: options, onEvict: onEvict}
}

// retainedPeriods is how many complete {ESF, ERI, ECP} periods per client
// survive retention.
const retainedPeriods = 2

type detailGroup struct {
	nameEs   string
	nameEn   string
	opening  decimal.Decimal
	changes  decimal.Decimal
	total    decimal.Decimal
	accounts []models.StatementAccount
}

type nodeGroup struct {
	opening decimal.Decimal
	changes decimal.Decimal
	total   decimal.Decimal
	details map[string]*detailGroup
}

// Statement returns the cached statement for (client, period, kind), falling
// back to the persisted row. Returns utils-style not-found as a plain error.
func (a *Assembler) Statement(ctx context.Context, clientId int, periodId int, kind models.StatementKind) (*models.FinancialStatement, error) {
	if cached, found, err := a.cache.Get(clientId, periodId, kind); err == nil && found {
		return cached, nil
	}
	statements, err := a.store.ListStatements(ctx, clientId)
	if err != nil {
		return nil, err
	}
	for _, statement := range statements {
		if statement.PeriodId == periodId && statement.Kind == kind {
			return statement, nil
		}
	}
	return nil, errors.New("financial statement not found")
}

// AssembleAll assembles every requested kind independently: a failure in one
// kind (typically TemplateSetNotFoundError) does not block the others.
func (a *Assembler) AssembleAll(ctx context.Context, clientId int, periodId int, kinds []models.StatementKind) (map[models.StatementKind]*models.FinancialStatement, map[models.StatementKind]error) {
	assembled := make(map[models.StatementKind]*models.FinancialStatement)
	failures := make(map[models.StatementKind]error)
	for _, kind := range kinds {
		statement, err := a.Assemble(ctx, clientId, periodId, kind)
		if err != nil {
			failures[kind] = err
			continue
		}
		assembled[kind] = statement
	}
	return assembled, failures
}

// Assemble builds one statement kind for a period from classified account
// balances, persists it, refreshes the cache and applies retention.
// Assembling the same period twice with unchanged data yields a byte
// identical tree.
func (a *Assembler) Assemble(ctx context.Context, clientId int, periodId int, kind models.StatementKind) (*models.FinancialStatement, error) {
	logger := config.GetLogger()

	if !kind.Valid() {
		return nil, errors.New("unknown statement kind: " + string(kind))
	}

	client, err := a.store.GetClient(ctx, clientId)
	if err != nil {
		return nil, err
	}
	period, err := a.store.GetPeriod(ctx, periodId)
	if err != nil {
		return nil, err
	}
	if period.ClientId != client.ID {
		return nil, errors.New("period does not belong to client")
	}

	sets, err := a.store.LoadClassificationSets(ctx, clientId)
	if err != nil {
		return nil, err
	}
	templateSet, err := models.ResolveTemplateSet(sets, clientId, kind)
	if err != nil {
		return nil, err
	}

	// all three template sets are excluded from detail grouping, not just
	// the one being assembled
	templateSetIds := map[int]bool{templateSet.ID: true}
	for _, other := range []models.StatementKind{models.StatementKindESF, models.StatementKindERI, models.StatementKindECP} {
		if set, err := models.ResolveTemplateSet(sets, clientId, other); err == nil {
			templateSetIds[set.ID] = true
		}
	}

	options, err := a.store.LoadClassificationOptions(ctx, clientId)
	if err != nil {
		return nil, err
	}
	optionsById := make(map[int]*models.ClassificationOption, len(options))
	for _, option := range options {
		optionsById[option.ID] = option
	}

	classifications, err := a.store.LoadAccountClassifications(ctx, clientId)
	if err != nil {
		return nil, err
	}
	classByCode := make(map[string]map[int]*models.AccountClassification)
	for _, cls := range classifications {
		bySet, ok := classByCode[cls.AccountCode]
		if !ok {
			bySet = make(map[int]*models.AccountClassification)
			classByCode[cls.AccountCode] = bySet
		}
		bySet[cls.SetId] = cls
	}

	balances, err := a.store.LoadAccountBalances(ctx, clientId, periodId)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]map[string]*nodeGroup)
	excluded := 0

	for _, balance := range balances {
		cls := classByCode[balance.Code][templateSet.ID]
		if cls == nil {
			continue
		}
		option := optionsById[cls.OptionId]

		match := TemplateMatch{Tier: MatchNone}
		if option != nil {
			match = MatchOption(kind, option.Value)
		}
		if match.Tier == MatchNone {
			excluded++
			if !a.options.IncludeUnmapped {
				continue
			}
			match.Category = categoryUnmapped
			match.Subcategory = ""
		}

		opening := balance.Opening
		changes := balance.Debit.Sub(balance.Credit)
		var amount decimal.Decimal
		switch kind {
		case models.StatementKindERI:
			amount = changes
		default:
			amount = opening.Add(changes)
		}

		detailEs, detailEn := a.detailLabels(balance.Code, match, sets, templateSetIds, classByCode, optionsById)

		bySubcat, ok := groups[match.Category]
		if !ok {
			bySubcat = make(map[string]*nodeGroup)
			groups[match.Category] = bySubcat
		}
		group, ok := bySubcat[match.Subcategory]
		if !ok {
			group = &nodeGroup{details: make(map[string]*detailGroup)}
			bySubcat[match.Subcategory] = group
		}
		detail, ok := group.details[detailEs]
		if !ok {
			detail = &detailGroup{nameEs: detailEs, nameEn: detailEn}
			group.details[detailEs] = detail
		}

		nameEn := balance.NameEn
		if nameEn == "" {
			nameEn = balance.Name
		}
		detail.accounts = append(detail.accounts, models.StatementAccount{
			Code:     balance.Code,
			NombreEs: balance.Name,
			NombreEn: nameEn,
			Amount:   amount,
		})
		detail.opening = detail.opening.Add(opening)
		detail.changes = detail.changes.Add(changes)
		detail.total = detail.total.Add(amount)
		group.opening = group.opening.Add(opening)
		group.changes = group.changes.Add(changes)
		group.total = group.total.Add(amount)
	}

	tree, total := buildTree(kind, groups)
	encoded, err := models.EncodeStatementTree(tree)
	if err != nil {
		return nil, err
	}

	statement := &models.FinancialStatement{
		ClientId:         clientId,
		PeriodId:         periodId,
		Kind:             kind,
		Tree:             encoded,
		Total:            total,
		ExcludedAccounts: excluded,
		GeneratedAt:      time.Now().UTC(),
	}
	if err := a.store.SaveStatement(ctx, statement); err != nil {
		config.LogError(logger, "reports", "Assemble", "save statement", map[string]interface{}{
			"client_id": clientId, "period_id": periodId, "kind": kind,
		}, err)
		return nil, err
	}
	if err := a.cache.Set(clientId, periodId, kind, statement); err != nil {
		config.LogError(logger, "reports", "Assemble", "cache statement", map[string]interface{}{
			"client_id": clientId, "period_id": periodId, "kind": kind,
		}, err)
	}

	if err := a.enforceRetention(ctx, clientId); err != nil {
		return nil, err
	}

	config.LogInfo(logger, "reports", "Assemble", "statement assembled", map[string]interface{}{
		"client_id": clientId,
		"period_id": periodId,
		"kind":      kind,
		"total":     total,
		"excluded":  excluded,
	})
	return statement, nil
}

// detailLabels resolves the secondary grouping label for one account: the
// option it holds in the first non-template client set, else a label derived
// from the matched template slot.
func (a *Assembler) detailLabels(code string, match TemplateMatch, sets []*models.ClassificationSet, templateSetIds map[int]bool, classByCode map[string]map[int]*models.AccountClassification, optionsById map[int]*models.ClassificationOption) (string, string) {
	for _, set := range sets {
		if templateSetIds[set.ID] {
			continue
		}
		cls := classByCode[code][set.ID]
		if cls == nil {
			continue
		}
		option := optionsById[cls.OptionId]
		if option == nil {
			continue
		}
		nameEn := option.ValueEn
		if nameEn == "" {
			nameEn = TranslateLabel(option.Value)
		}
		return option.Value, nameEn
	}

	fallback := match.Subcategory
	if fallback == "" {
		fallback = match.Category
	}
	return fallback, TranslateLabel(fallback)
}

// buildTree emits the nested node slice in fixed template order so the
// encoded form is deterministic.
func buildTree(kind models.StatementKind, groups map[string]map[string]*nodeGroup) ([]*models.StatementNode, decimal.Decimal) {
	total := decimal.Zero
	var tree []*models.StatementNode

	for _, category := range orderedCategories(kind, groups) {
		bySubcat := groups[category]
		catNode := &models.StatementNode{
			NombreEs: category,
			NombreEn: TranslateLabel(category),
		}
		catOpening := decimal.Zero
		catChanges := decimal.Zero

		// accounts matched straight to the category attach their detail
		// groups directly under it
		if direct, ok := bySubcat[""]; ok {
			catNode.Children = append(catNode.Children, detailNodes(kind, direct)...)
			catNode.Total = catNode.Total.Add(direct.total)
			catOpening = catOpening.Add(direct.opening)
			catChanges = catChanges.Add(direct.changes)
		}

		for _, subcategory := range orderedSubcategories(category, bySubcat) {
			group := bySubcat[subcategory]
			subNode := &models.StatementNode{
				NombreEs: subcategory,
				NombreEn: TranslateLabel(subcategory),
				Total:    group.total,
				Children: detailNodes(kind, group),
			}
			if kind == models.StatementKindECP {
				opening := group.opening
				changes := group.changes
				subNode.Opening = &opening
				subNode.Changes = &changes
			}
			catNode.Children = append(catNode.Children, subNode)
			catNode.Total = catNode.Total.Add(group.total)
			catOpening = catOpening.Add(group.opening)
			catChanges = catChanges.Add(group.changes)
		}

		if kind == models.StatementKindECP {
			catNode.Opening = &catOpening
			catNode.Changes = &catChanges
		}
		total = total.Add(catNode.Total)
		tree = append(tree, catNode)
	}
	return tree, total
}

func detailNodes(kind models.StatementKind, group *nodeGroup) []*models.StatementNode {
	names := make([]string, 0, len(group.details))
	for name := range group.details {
		names = append(names, name)
	}
	sort.Strings(names)

	nodes := make([]*models.StatementNode, 0, len(names))
	for _, name := range names {
		detail := group.details[name]
		sort.Slice(detail.accounts, func(i, j int) bool {
			return detail.accounts[i].Code < detail.accounts[j].Code
		})
		node := &models.StatementNode{
			NombreEs: detail.nameEs,
			NombreEn: detail.nameEn,
			Total:    detail.total,
			Accounts: detail.accounts,
		}
		if kind == models.StatementKindECP {
			opening := detail.opening
			changes := detail.changes
			node.Opening = &opening
			node.Changes = &changes
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func orderedCategories(kind models.StatementKind, groups map[string]map[string]*nodeGroup) []string {
	var ordered []string
	seen := make(map[string]bool)
	for _, category := range categoryOrder[kind] {
		if _, ok := groups[category]; ok {
			ordered = append(ordered, category)
			seen[category] = true
		}
	}
	var rest []string
	for category := range groups {
		if !seen[category] {
			rest = append(rest, category)
		}
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}

func orderedSubcategories(category string, bySubcat map[string]*nodeGroup) []string {
	var ordered []string
	seen := map[string]bool{"": true}
	for _, subcategory := range subcategoryOrder[category] {
		if _, ok := bySubcat[subcategory]; ok {
			ordered = append(ordered, subcategory)
			seen[subcategory] = true
		}
	}
	var rest []string
	for subcategory := range bySubcat {
		if !seen[subcategory] {
			rest = append(rest, subcategory)
		}
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}

// enforceRetention keeps at most retainedPeriods periods with a complete
// {ESF, ERI, ECP} set per client, evicting the oldest complete period's
// entire entry. Periods with an incomplete set are never evicted.
func (a *Assembler) enforceRetention(ctx context.Context, clientId int) error {
	statements, err := a.store.ListStatements(ctx, clientId)
	if err != nil {
		return err
	}

	kindsByPeriod := make(map[int]map[models.StatementKind]bool)
	for _, statement := range statements {
		kinds, ok := kindsByPeriod[statement.PeriodId]
		if !ok {
			kinds = make(map[models.StatementKind]bool)
			kindsByPeriod[statement.PeriodId] = kinds
		}
		kinds[statement.Kind] = true
	}

	var complete []int
	for periodId, kinds := range kindsByPeriod {
		if kinds[models.StatementKindESF] && kinds[models.StatementKindERI] && kinds[models.StatementKindECP] {
			complete = append(complete, periodId)
		}
	}
	if len(complete) <= retainedPeriods {
		return nil
	}
	sort.Ints(complete)

	for _, periodId := range complete[:len(complete)-retainedPeriods] {
		if err := a.store.DeletePeriodStatements(ctx, clientId, periodId); err != nil {
			return err
		}
		for _, kind := range []models.StatementKind{models.StatementKindESF, models.StatementKindERI, models.StatementKindECP} {
			if err := a.cache.Remove(clientId, periodId, kind); err != nil {
				config.LogError(config.GetLogger(), "reports", "enforceRetention", "remove cached statement", map[string]interface{}{
					"client_id": clientId, "period_id": periodId, "kind": kind,
				}, err)
			}
		}
		if a.onEvict != nil {
			a.onEvict(clientId, periodId)
		}
	}
	return nil
}
