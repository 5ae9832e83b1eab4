package models

// StatementKind identifies one of the three canonical statement templates.
type StatementKind string

const (
	StatementKindESF StatementKind = "ESF" // Estado de Situación Financiera
	StatementKindERI StatementKind = "ERI" // Estado de Resultados Integrales
	StatementKindECP StatementKind = "ECP" // Estado de Cambios en el Patrimonio
)

func (k StatementKind) Valid() bool {
	switch k {
	case StatementKindESF, StatementKindERI, StatementKindECP:
		return true
	}
	return false
}

// AccountCategory is the balance bucket an account contributes to.
type AccountCategory string

const (
	AccountCategoryESF          AccountCategory = "ESF"
	AccountCategoryERI          AccountCategory = "ERI"
	AccountCategoryUnclassified AccountCategory = ""
)

type IncidenceKind string

const (
	IncidenceKindMissingClassification IncidenceKind = "cuenta_sin_clasificar"
	IncidenceKindMissingEnglishName    IncidenceKind = "cuenta_sin_ingles"
	IncidenceKindEmptyDocType          IncidenceKind = "tipo_doc_vacio"
	IncidenceKindUnknownDocType        IncidenceKind = "tipo_doc_desconocido"
	IncidenceKindInvalidDate           IncidenceKind = "fecha_invalida"
	IncidenceKindIncompleteMovement    IncidenceKind = "movimiento_incompleto"
	IncidenceKindUnbalancedLedger      IncidenceKind = "mayor_descuadrado"
)

type IncidenceSeverity string

const (
	IncidenceSeverityLow      IncidenceSeverity = "low"
	IncidenceSeverityMedium   IncidenceSeverity = "medium"
	IncidenceSeverityHigh     IncidenceSeverity = "high"
	IncidenceSeverityCritical IncidenceSeverity = "critical"
)

// SeverityForCount maps the number of affected rows/accounts to a severity.
func SeverityForCount(count int) IncidenceSeverity {
	switch {
	case count >= 50:
		return IncidenceSeverityCritical
	case count >= 20:
		return IncidenceSeverityHigh
	case count >= 5:
		return IncidenceSeverityMedium
	default:
		return IncidenceSeverityLow
	}
}

type PeriodStatus string

const (
	PeriodStatusOpen       PeriodStatus = "Open"
	PeriodStatusProcessing PeriodStatus = "Processing"
	PeriodStatusCompleted  PeriodStatus = "Completed"
)
