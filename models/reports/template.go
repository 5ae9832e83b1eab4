package reports

import (
	"strings"

	"github.com/castrometro/sgm-contabilidad/models"
	"github.com/castrometro/sgm-contabilidad/utils"
)

// MatchTier tags how an option value was mapped to a template category.
// Precedence is a data structure, not control flow: exact dictionary first,
// then ordered keyword rules, else unmapped.
type MatchTier int

const (
	MatchNone MatchTier = iota
	MatchExact
	MatchKeyword
)

// TemplateMatch is the resolved placement of one classification option value
// inside the statement template.
type TemplateMatch struct {
	Tier        MatchTier
	Category    string
	Subcategory string
}

type templateEntry struct {
	Category    string
	Subcategory string
}

// Category labels of the predefined templates. Spanish is canonical; the
// English side lives in labelTranslations.
const (
	categoryAssets      = "Activos"
	categoryLiabilities = "Pasivos"
	categoryEquity      = "Patrimonio"

	subcategoryCurrentAssets         = "Activos Corrientes"
	subcategoryNonCurrentAssets      = "Activos No Corrientes"
	subcategoryCurrentLiabilities    = "Pasivos Corrientes"
	subcategoryNonCurrentLiabilities = "Pasivos No Corrientes"
	subcategoryCapital               = "Capital"
	subcategoryOtherReserves         = "Otras Reservas"
	subcategoryRetainedEarnings      = "Resultados Acumulados"

	categoryRevenue       = "Ingresos de Operación"
	categoryCostOfSales   = "Costo de Ventas"
	categoryOperatingCost = "Gastos de Operación"
	categoryOtherIncome   = "Otros Ingresos"
	categoryOtherExpenses = "Otros Gastos"
	categoryTaxes         = "Impuestos"

	categoryUnmapped = "Sin Clasificar"
)

// exactEntries maps normalized option values straight to their template slot,
// seeded from the predefined template options.
var exactEntries = map[models.StatementKind]map[string]templateEntry{
	models.StatementKindESF: {
		"activos":              {categoryAssets, ""},
		"activoscorrientes":    {categoryAssets, subcategoryCurrentAssets},
		"activocorriente":      {categoryAssets, subcategoryCurrentAssets},
		"activosnocorrientes":  {categoryAssets, subcategoryNonCurrentAssets},
		"activonocorriente":    {categoryAssets, subcategoryNonCurrentAssets},
		"pasivos":              {categoryLiabilities, ""},
		"pasivoscorrientes":    {categoryLiabilities, subcategoryCurrentLiabilities},
		"pasivocorriente":      {categoryLiabilities, subcategoryCurrentLiabilities},
		"pasivosnocorrientes":  {categoryLiabilities, subcategoryNonCurrentLiabilities},
		"pasivonocorriente":    {categoryLiabilities, subcategoryNonCurrentLiabilities},
		"patrimonio":           {categoryEquity, ""},
		"patrimonioneto":       {categoryEquity, ""},
		"capital":              {categoryEquity, subcategoryCapital},
		"capitalemitido":       {categoryEquity, subcategoryCapital},
		"otrasreservas":        {categoryEquity, subcategoryOtherReserves},
		"resultadosacumulados": {categoryEquity, subcategoryRetainedEarnings},
		"gananciasacumuladas":  {categoryEquity, subcategoryRetainedEarnings},
	},
	models.StatementKindERI: {
		"ingresosdeoperacion":      {categoryRevenue, ""},
		"ingresosordinarios":       {categoryRevenue, ""},
		"ingresosporventas":        {categoryRevenue, ""},
		"costodeventas":            {categoryCostOfSales, ""},
		"costosdeventa":            {categoryCostOfSales, ""},
		"gastosdeoperacion":        {categoryOperatingCost, ""},
		"gastosdeadministracion":   {categoryOperatingCost, ""},
		"otrosingresos":            {categoryOtherIncome, ""},
		"otrasganancias":           {categoryOtherIncome, ""},
		"otrosgastos":              {categoryOtherExpenses, ""},
		"otrasperdidas":            {categoryOtherExpenses, ""},
		"impuestos":                {categoryTaxes, ""},
		"impuestoalasganancias":    {categoryTaxes, ""},
		"impuestoalarenta":         {categoryTaxes, ""},
		"gastoporimpuestoalarenta": {categoryTaxes, ""},
	},
	models.StatementKindECP: {
		"capital":              {subcategoryCapital, ""},
		"capitalemitido":       {subcategoryCapital, ""},
		"otrasreservas":        {subcategoryOtherReserves, ""},
		"resultadosacumulados": {subcategoryRetainedEarnings, ""},
		"gananciasacumuladas":  {subcategoryRetainedEarnings, ""},
	},
}

type keywordRule struct {
	// every keyword (normalized) must appear in the option value
	keywords []string
	entry    templateEntry
}

// keywordRules is the fallback tier. Order matters: "no corriente" rules are
// listed before plain "corriente" rules because the normalized form of the
// latter is a substring of the former.
var keywordRules = map[models.StatementKind][]keywordRule{
	models.StatementKindESF: {
		{[]string{"activo", "nocorriente"}, templateEntry{categoryAssets, subcategoryNonCurrentAssets}},
		{[]string{"activo", "corriente"}, templateEntry{categoryAssets, subcategoryCurrentAssets}},
		{[]string{"pasivo", "nocorriente"}, templateEntry{categoryLiabilities, subcategoryNonCurrentLiabilities}},
		{[]string{"pasivo", "corriente"}, templateEntry{categoryLiabilities, subcategoryCurrentLiabilities}},
		{[]string{"activo"}, templateEntry{categoryAssets, ""}},
		{[]string{"pasivo"}, templateEntry{categoryLiabilities, ""}},
		{[]string{"patrimonio"}, templateEntry{categoryEquity, ""}},
		{[]string{"capital"}, templateEntry{categoryEquity, subcategoryCapital}},
		{[]string{"reserva"}, templateEntry{categoryEquity, subcategoryOtherReserves}},
		{[]string{"resultado", "acumulado"}, templateEntry{categoryEquity, subcategoryRetainedEarnings}},
	},
	models.StatementKindERI: {
		{[]string{"costo", "venta"}, templateEntry{categoryCostOfSales, ""}},
		{[]string{"otros", "ingreso"}, templateEntry{categoryOtherIncome, ""}},
		{[]string{"otros", "gasto"}, templateEntry{categoryOtherExpenses, ""}},
		{[]string{"ingreso"}, templateEntry{categoryRevenue, ""}},
		{[]string{"venta"}, templateEntry{categoryRevenue, ""}},
		{[]string{"impuesto"}, templateEntry{categoryTaxes, ""}},
		{[]string{"gasto"}, templateEntry{categoryOperatingCost, ""}},
		{[]string{"costo"}, templateEntry{categoryCostOfSales, ""}},
	},
	models.StatementKindECP: {
		{[]string{"capital"}, templateEntry{subcategoryCapital, ""}},
		{[]string{"reserva"}, templateEntry{subcategoryOtherReserves, ""}},
		{[]string{"resultado"}, templateEntry{subcategoryRetainedEarnings, ""}},
		{[]string{"patrimonio"}, templateEntry{subcategoryOtherReserves, ""}},
	},
}

// categoryOrder fixes the presentation order of top-level categories per kind
// so assembled trees are byte-stable.
var categoryOrder = map[models.StatementKind][]string{
	models.StatementKindESF: {categoryAssets, categoryLiabilities, categoryEquity, categoryUnmapped},
	models.StatementKindERI: {
		categoryRevenue, categoryCostOfSales, categoryOperatingCost,
		categoryOtherIncome, categoryOtherExpenses, categoryTaxes, categoryUnmapped,
	},
	models.StatementKindECP: {
		subcategoryCapital, subcategoryOtherReserves, subcategoryRetainedEarnings, categoryUnmapped,
	},
}

var subcategoryOrder = map[string][]string{
	categoryAssets:      {subcategoryCurrentAssets, subcategoryNonCurrentAssets},
	categoryLiabilities: {subcategoryCurrentLiabilities, subcategoryNonCurrentLiabilities},
	categoryEquity:      {subcategoryCapital, subcategoryOtherReserves, subcategoryRetainedEarnings},
}

// labelTranslations is the fixed ES/EN dictionary for predefined template
// labels. Option-level translations take precedence; raw values with no entry
// here are duplicated into both languages.
var labelTranslations = map[string]string{
	categoryAssets:                   "Assets",
	categoryLiabilities:              "Liabilities",
	categoryEquity:                   "Equity",
	subcategoryCurrentAssets:         "Current Assets",
	subcategoryNonCurrentAssets:      "Non-Current Assets",
	subcategoryCurrentLiabilities:    "Current Liabilities",
	subcategoryNonCurrentLiabilities: "Non-Current Liabilities",
	subcategoryCapital:               "Capital",
	subcategoryOtherReserves:         "Other Reserves",
	subcategoryRetainedEarnings:      "Retained Earnings",
	categoryRevenue:                  "Operating Revenue",
	categoryCostOfSales:              "Cost of Sales",
	categoryOperatingCost:            "Operating Expenses",
	categoryOtherIncome:              "Other Income",
	categoryOtherExpenses:            "Other Expenses",
	categoryTaxes:                    "Taxes",
	categoryUnmapped:                 "Unclassified",
}

// TranslateLabel returns the English side of a predefined template label, or
// the label itself when no translation exists.
func TranslateLabel(label string) string {
	if en, ok := labelTranslations[label]; ok {
		return en
	}
	return label
}

// MatchOption places one classification option value into the template for a
// statement kind: exact dictionary lookup, then ordered keyword rules, else
// MatchNone.
func MatchOption(kind models.StatementKind, value string) TemplateMatch {
	folded := utils.NormalizeText(value)

	if entry, ok := exactEntries[kind][folded]; ok {
		return TemplateMatch{Tier: MatchExact, Category: entry.Category, Subcategory: entry.Subcategory}
	}

	for _, rule := range keywordRules[kind] {
		all := true
		for _, kw := range rule.keywords {
			if !strings.Contains(folded, kw) {
				all = false
				break
			}
		}
		if all {
			return TemplateMatch{Tier: MatchKeyword, Category: rule.entry.Category, Subcategory: rule.entry.Subcategory}
		}
	}

	return TemplateMatch{Tier: MatchNone}
}
