package workflow

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/castrometro/sgm-contabilidad/utils"
	"github.com/shopspring/decimal"
)

type columnKey string

const (
	colAccount       columnKey = "cuenta"
	colDate          columnKey = "fecha"
	colDebit         columnKey = "debe"
	colCredit        columnKey = "haber"
	colDescription   columnKey = "glosa"
	colDocType       columnKey = "tipo_doc"
	colDocNumber     columnKey = "numero_doc"
	colComprobante   columnKey = "numero_comprobante"
	colInternal      columnKey = "numero_interno"
	colCostCenter    columnKey = "centro_costo"
	colAuxiliary     columnKey = "auxiliar"
	colExpenseDetail columnKey = "detalle_gasto"
	colBalance       columnKey = "saldo"
)

var requiredColumns = []columnKey{colAccount, colDate, colDebit, colCredit, colDescription}

// Alias lists cover the header spellings seen across client layouts. Matching
// is fuzzy: case-folded, accent-stripped, alphanumeric-only.
var columnAliases = map[columnKey][]string{
	colAccount:       {"cuenta", "codigo cuenta", "cta", "cuenta contable"},
	colDate:          {"fecha", "fecha mov", "fecha movimiento"},
	colDebit:         {"debe", "debito", "cargos", "cargo"},
	colCredit:        {"haber", "credito", "abonos", "abono"},
	colDescription:   {"glosa", "descripcion", "detalle", "concepto"},
	colDocType:       {"tipo doc", "tipo documento", "tipodoc", "td"},
	colDocNumber:     {"numero doc", "nro doc", "n doc", "numero documento", "ndoc"},
	colComprobante:   {"numero comprobante", "nro comprobante", "comprobante", "ncomprobante"},
	colInternal:      {"numero interno", "nro interno", "interno", "ninterno"},
	colCostCenter:    {"centro costo", "centro de costo", "centro de costos", "cc"},
	colAuxiliary:     {"auxiliar", "rut auxiliar"},
	colExpenseDetail: {"detalle gasto", "detalle de gasto", "detalle gastos"},
	colBalance:       {"saldo", "saldo anterior"},
}

// headerScanLimit is how many leading rows may precede the header row.
// The layout is a configuration constant, not a protocol.
const headerScanLimit = 10

var dateFormats = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006-01-02",
	"02.01.2006",
	"02/01/06",
	"02-01-06",
}

var accountOpeningPattern = regexp.MustCompile(`(?i)^\s*SALDO\s+ANTERIOR\s+DE\s+LA\s+CUENTA\s*:?\s*(\S+)\s*(.*)$`)

// MissingColumnsError aborts the whole run: one or more required logical
// columns could not be resolved from the header row.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("required columns not found in header: %s", strings.Join(e.Missing, ", "))
}

// resolveColumns maps logical columns to cell indices by fuzzy header-name
// matching. Column order in the file is not guaranteed.
func resolveColumns(header []string) (map[columnKey]int, *MissingColumnsError) {
	normalized := make([]string, len(header))
	for i, cell := range header {
		normalized[i] = utils.NormalizeText(cell)
	}

	columns := make(map[columnKey]int)
	for key, aliases := range columnAliases {
		for _, alias := range aliases {
			target := utils.NormalizeText(alias)
			found := false
			for i, cell := range normalized {
				if cell != "" && cell == target {
					if _, taken := columns[key]; !taken {
						columns[key] = i
					}
					found = true
					break
				}
			}
			if found {
				break
			}
		}
	}

	var missing []string
	for _, key := range requiredColumns {
		if _, ok := columns[key]; !ok {
			missing = append(missing, string(key))
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}
	return columns, nil
}

type rowEventKind int

const (
	rowSkipped rowEventKind = iota
	rowOpening
	rowMovement
)

// rowEvent is what one ledger row parses into.
type rowEvent struct {
	Kind rowEventKind

	// rowOpening
	AccountCode string
	AccountName string
	Opening     decimal.Decimal

	// rowMovement
	Date              time.Time
	DateFallback      bool
	Debit             decimal.Decimal
	Credit            decimal.Decimal
	Incomplete        bool
	Description       string
	DocTypeCode       string
	DocNumber         string
	ComprobanteNumber string
	InternalNumber    string
	CostCenter        string
	Auxiliary         string
	ExpenseDetail     string
}

// LedgerParser is a single-pass state machine over ordered ledger rows.
// Two states: no active account (rows skipped) and inside an account block
// opened by a "SALDO ANTERIOR DE LA CUENTA" sentinel line.
type LedgerParser struct {
	columns     map[columnKey]int
	closingDate time.Time
	currentCode string
}

// NewLedgerParser scans up to headerScanLimit rows of src for the header row
// and returns a parser positioned after it. closingDate is the period's
// closing date, used as the fallback for unparseable movement dates.
func NewLedgerParser(src RowSource, closingDate time.Time) (*LedgerParser, error) {
	var lastErr *MissingColumnsError
	for i := 0; i < headerScanLimit; i++ {
		cells, ok, err := src.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		columns, missErr := resolveColumns(cells)
		if missErr == nil {
			return &LedgerParser{columns: columns, closingDate: closingDate}, nil
		}
		lastErr = missErr
	}
	if lastErr == nil {
		lastErr = &MissingColumnsError{Missing: columnKeysToStrings(requiredColumns)}
	}
	return nil, lastErr
}

func columnKeysToStrings(keys []columnKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}

func (p *LedgerParser) cell(cells []string, key columnKey) string {
	i, ok := p.columns[key]
	if !ok || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func (p *LedgerParser) hasColumn(key columnKey) bool {
	_, ok := p.columns[key]
	return ok
}

// ParseRow advances the state machine by one row.
func (p *LedgerParser) ParseRow(cells []string) rowEvent {
	accountCell := p.cell(cells, colAccount)

	if match := accountOpeningPattern.FindStringSubmatch(accountCell); match != nil {
		code := strings.TrimSpace(match[1])
		name := strings.TrimSpace(match[2])
		p.currentCode = code

		// opening balance is 0 unless the layout carries a saldo column
		opening := decimal.Zero
		if p.hasColumn(colBalance) {
			if amount, err := utils.ParseDecimal(p.cell(cells, colBalance)); err == nil {
				opening = amount
			}
		}
		return rowEvent{
			Kind:        rowOpening,
			AccountCode: code,
			AccountName: name,
			Opening:     opening,
		}
	}

	if p.currentCode == "" {
		// rows before the first sentinel belong to no account
		return rowEvent{Kind: rowSkipped}
	}

	debit, debitErr := utils.ParseDecimal(p.cell(cells, colDebit))
	credit, creditErr := utils.ParseDecimal(p.cell(cells, colCredit))
	incomplete := debitErr != nil || creditErr != nil

	// a non-monetary row inside a block is padding, not a movement
	if !incomplete && debit.IsZero() && credit.IsZero() {
		return rowEvent{Kind: rowSkipped}
	}

	date, fallback := p.parseDate(p.cell(cells, colDate))

	return rowEvent{
		Kind:              rowMovement,
		AccountCode:       p.currentCode,
		Date:              date,
		DateFallback:      fallback,
		Debit:             debit,
		Credit:            credit,
		Incomplete:        incomplete,
		Description:       p.cell(cells, colDescription),
		DocTypeCode:       p.cell(cells, colDocType),
		DocNumber:         p.cell(cells, colDocNumber),
		ComprobanteNumber: p.cell(cells, colComprobante),
		InternalNumber:    p.cell(cells, colInternal),
		CostCenter:        p.cell(cells, colCostCenter),
		Auxiliary:         p.cell(cells, colAuxiliary),
		ExpenseDetail:     p.cell(cells, colExpenseDetail),
	}
}

// parseDate tries every supported format; failure falls back to the period's
// closing date so a monetary row is never dropped over its date.
func (p *LedgerParser) parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		for _, layout := range dateFormats {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, false
			}
		}
	}
	return p.closingDate, true
}
