package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClosingDate = time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

func newTestParser(t *testing.T, rows [][]string) (*LedgerParser, RowSource) {
	t.Helper()
	src := NewSliceRowSource(rows)
	parser, err := NewLedgerParser(src, testClosingDate)
	require.NoError(t, err)
	return parser, src
}

func parseAll(t *testing.T, parser *LedgerParser, src RowSource) []rowEvent {
	t.Helper()
	var events []rowEvent
	for {
		cells, ok, err := src.Next()
		require.NoError(t, err)
		if !ok {
			return events
		}
		events = append(events, parser.ParseRow(cells))
	}
}

func TestNewLedgerParserResolvesFuzzyHeaders(t *testing.T) {
	rows := [][]string{
		{"Libro Mayor Marzo 2025"},
		{},
		{"CÓDIGO CUENTA", "Fecha", "Descripción", "DEBE", "HABER", "Tipo Doc."},
	}
	src := NewSliceRowSource(rows)
	_, err := NewLedgerParser(src, testClosingDate)
	require.NoError(t, err)
}

func TestNewLedgerParserMissingColumns(t *testing.T) {
	rows := [][]string{
		{"Cuenta", "Fecha", "Glosa"},
	}
	src := NewSliceRowSource(rows)
	_, err := NewLedgerParser(src, testClosingDate)
	var missing *MissingColumnsError
	require.True(t, errors.As(err, &missing))
	assert.Contains(t, missing.Missing, "debe")
	assert.Contains(t, missing.Missing, "haber")
}

func TestNewLedgerParserHeaderBeyondScanLimit(t *testing.T) {
	rows := make([][]string, 0, headerScanLimit+1)
	for i := 0; i < headerScanLimit; i++ {
		rows = append(rows, []string{"preamble"})
	}
	rows = append(rows, []string{"Cuenta", "Fecha", "Glosa", "Debe", "Haber"})
	src := NewSliceRowSource(rows)
	_, err := NewLedgerParser(src, testClosingDate)
	var missing *MissingColumnsError
	require.True(t, errors.As(err, &missing))
}

func TestParseRowSentinelOpensAccountBlock(t *testing.T) {
	rows := [][]string{
		{"Cuenta", "Fecha", "Glosa", "Debe", "Haber", "Saldo"},
		{"SALDO ANTERIOR DE LA CUENTA: 1-01-001 Caja", "", "", "", "", "1.000"},
		{"", "05/03/2025", "Pago proveedor", "500", "0", ""},
	}
	parser, src := newTestParser(t, rows)
	events := parseAll(t, parser, src)
	require.Len(t, events, 2)

	opening := events[0]
	assert.Equal(t, rowOpening, opening.Kind)
	assert.Equal(t, "1-01-001", opening.AccountCode)
	assert.Equal(t, "Caja", opening.AccountName)
	assert.True(t, decimal.NewFromInt(1000).Equal(opening.Opening))

	movement := events[1]
	assert.Equal(t, rowMovement, movement.Kind)
	assert.Equal(t, "1-01-001", movement.AccountCode)
	assert.True(t, decimal.NewFromInt(500).Equal(movement.Debit))
	assert.True(t, movement.Credit.IsZero())
	assert.False(t, movement.DateFallback)
	assert.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), movement.Date)
	assert.Equal(t, "Pago proveedor", movement.Description)
}

func TestParseRowOpeningWithoutSaldoColumnIsZero(t *testing.T) {
	rows := [][]string{
		{"Cuenta", "Fecha", "Glosa", "Debe", "Haber"},
		{"SALDO ANTERIOR DE LA CUENTA: 2-01-001 Proveedores"},
	}
	parser, src := newTestParser(t, rows)
	events := parseAll(t, parser, src)
	require.Len(t, events, 1)
	assert.Equal(t, rowOpening, events[0].Kind)
	assert.True(t, events[0].Opening.IsZero())
}

func TestParseRowSkipsRowsBeforeFirstSentinel(t *testing.T) {
	rows := [][]string{
		{"Cuenta", "Fecha", "Glosa", "Debe", "Haber"},
		{"", "01/03/2025", "huérfano", "100", "0"},
		{"totales", "", "", "", ""},
	}
	parser, src := newTestParser(t, rows)
	events := parseAll(t, parser, src)
	require.Len(t, events, 2)
	assert.Equal(t, rowSkipped, events[0].Kind)
	assert.Equal(t, rowSkipped, events[1].Kind)
}

func TestParseRowSkipsNonMonetaryRowsInsideBlock(t *testing.T) {
	rows := [][]string{
		{"Cuenta", "Fecha", "Glosa", "Debe", "Haber"},
		{"SALDO ANTERIOR DE LA CUENTA: 1-01-001 Caja"},
		{"", "", "subtotal", "0", "0"},
		{"", "", "", "", ""},
	}
	parser, src := newTestParser(t, rows)
	events := parseAll(t, parser, src)
	require.Len(t, events, 3)
	assert.Equal(t, rowSkipped, events[1].Kind)
	assert.Equal(t, rowSkipped, events[2].Kind)
}

func TestParseRowDateFallbackToClosingDate(t *testing.T) {
	rows := [][]string{
		{"Cuenta", "Fecha", "Glosa", "Debe", "Haber"},
		{"SALDO ANTERIOR DE LA CUENTA: 1-01-001 Caja"},
		{"", "sin fecha", "compra", "250", "0"},
	}
	parser, src := newTestParser(t, rows)
	events := parseAll(t, parser, src)
	require.Len(t, events, 2)
	movement := events[1]
	assert.Equal(t, rowMovement, movement.Kind)
	assert.True(t, movement.DateFallback)
	assert.Equal(t, testClosingDate, movement.Date)
}

func TestParseRowIncompleteAmountKeepsRow(t *testing.T) {
	rows := [][]string{
		{"Cuenta", "Fecha", "Glosa", "Debe", "Haber"},
		{"SALDO ANTERIOR DE LA CUENTA: 1-01-001 Caja"},
		{"", "05/03/2025", "monto roto", "n/a", "300"},
	}
	parser, src := newTestParser(t, rows)
	events := parseAll(t, parser, src)
	require.Len(t, events, 2)
	movement := events[1]
	assert.Equal(t, rowMovement, movement.Kind)
	assert.True(t, movement.Incomplete)
	assert.True(t, decimal.NewFromInt(300).Equal(movement.Credit))
}

func TestParseRowSecondSentinelSwitchesAccount(t *testing.T) {
	rows := [][]string{
		{"Cuenta", "Fecha", "Glosa", "Debe", "Haber"},
		{"SALDO ANTERIOR DE LA CUENTA: 1-01-001 Caja"},
		{"", "05/03/2025", "mov a", "100", "0"},
		{"SALDO ANTERIOR DE LA CUENTA: 2-01-001 Proveedores"},
		{"", "06/03/2025", "mov b", "0", "100"},
	}
	parser, src := newTestParser(t, rows)
	events := parseAll(t, parser, src)
	require.Len(t, events, 4)
	assert.Equal(t, "1-01-001", events[1].AccountCode)
	assert.Equal(t, "2-01-001", events[2].AccountCode)
	assert.Equal(t, "2-01-001", events[3].AccountCode)
}

func TestParseDateFormats(t *testing.T) {
	parser := &LedgerParser{closingDate: testClosingDate}
	for _, raw := range []string{"05/03/2025", "5/3/2025", "05-03-2025", "2025-03-05", "05.03.2025", "05/03/25", "05-03-25"} {
		date, fallback := parser.parseDate(raw)
		assert.False(t, fallback, "input %q", raw)
		assert.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), date, "input %q", raw)
	}
}
