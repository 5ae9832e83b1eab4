package models

import (
	"encoding/json"
	"time"
)

// Incidence is a deduplicated, grouped data-quality finding for one period.
// One row per distinct (kind, account_code[, set_id or doc_type_code]) tuple;
// the number of affected rows/accounts is the Count, never N rows.
type Incidence struct {
	ID          int               `gorm:"primary_key" json:"id"`
	PeriodId    int               `gorm:"index;not null" json:"period_id"`
	Kind        IncidenceKind     `gorm:"index;size:40;not null" json:"kind"`
	AccountCode string            `gorm:"size:50" json:"account_code"`
	SetId       *int              `gorm:"index" json:"set_id"`
	DocTypeCode string            `gorm:"size:20" json:"doc_type_code"`
	Count       int               `gorm:"not null;default:1" json:"count"`
	Severity    IncidenceSeverity `gorm:"size:10;not null" json:"severity"`
	Description string            `gorm:"size:500" json:"description"`
	Remediation string            `gorm:"size:500" json:"remediation"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

type incidenceText struct {
	Description string
	Remediation string
}

var incidenceCatalog = map[IncidenceKind]incidenceText{
	IncidenceKindMissingClassification: {
		Description: "Cuenta sin clasificación en un set de clasificación",
		Remediation: "Asigne una opción del set a la cuenta en la pantalla de clasificaciones",
	},
	IncidenceKindMissingEnglishName: {
		Description: "Cuenta sin nombre en inglés para cliente bilingüe",
		Remediation: "Registre la traducción del nombre de la cuenta",
	},
	IncidenceKindEmptyDocType: {
		Description: "Movimientos sin tipo de documento",
		Remediation: "Complete el tipo de documento en el libro mayor o registre una excepción",
	},
	IncidenceKindUnknownDocType: {
		Description: "Movimientos con tipo de documento fuera del catálogo del cliente",
		Remediation: "Agregue el tipo de documento al catálogo o corrija el libro mayor",
	},
	IncidenceKindInvalidDate: {
		Description: "Movimientos con fecha inválida (se usó la fecha de cierre)",
		Remediation: "Corrija el formato de fecha en el libro mayor",
	},
	IncidenceKindIncompleteMovement: {
		Description: "Movimientos registrados con datos incompletos",
		Remediation: "Revise las filas marcadas como incompletas",
	},
	IncidenceKindUnbalancedLedger: {
		Description: "El libro mayor no cuadra dentro de la tolerancia",
		Remediation: "Revise saldos de apertura y clasificaciones ESF/ERI",
	},
}

// IncidenceTextFor returns the human-readable message and remediation for a
// kind. Unknown kinds get the kind itself as description.
func IncidenceTextFor(kind IncidenceKind) (description string, remediation string) {
	if text, ok := incidenceCatalog[kind]; ok {
		return text.Description, text.Remediation
	}
	return string(kind), ""
}

// IncidenceSnapshot is the immutable consolidated view of a period's
// incidences after one ingestion iteration, used to diff consecutive
// iterations. Counts is a JSON map of kind -> total affected count.
type IncidenceSnapshot struct {
	ID        int       `gorm:"primary_key" json:"id"`
	PeriodId  int       `gorm:"index;not null" json:"period_id"`
	Iteration int       `gorm:"not null" json:"iteration"`
	Counts    []byte    `gorm:"type:json" json:"counts"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func NewIncidenceSnapshot(periodId int, iteration int, counts map[IncidenceKind]int) (*IncidenceSnapshot, error) {
	raw, err := json.Marshal(counts)
	if err != nil {
		return nil, err
	}
	return &IncidenceSnapshot{
		PeriodId:  periodId,
		Iteration: iteration,
		Counts:    raw,
	}, nil
}

func (s *IncidenceSnapshot) KindCounts() (map[IncidenceKind]int, error) {
	counts := make(map[IncidenceKind]int)
	if len(s.Counts) == 0 {
		return counts, nil
	}
	if err := json.Unmarshal(s.Counts, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// SnapshotDiff compares two consecutive iterations by incidence kind.
type SnapshotDiff struct {
	Resolved []IncidenceKind `json:"resolved"`
	New      []IncidenceKind `json:"new"`
	Improved []IncidenceKind `json:"improved"`
	Worsened []IncidenceKind `json:"worsened"`
}

func (d *SnapshotDiff) Empty() bool {
	return len(d.Resolved) == 0 && len(d.New) == 0 && len(d.Improved) == 0 && len(d.Worsened) == 0
}
