package parser

import (
	"testing"

	"github.com/Veraticus/extracto/internal/common"
	"github.com/Veraticus/extracto/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func caixaBankExport(t *testing.T) []byte {
	t.Helper()
	return buildWorkbook(t, map[string]any{
		// Report banner above the table, as in the real export.
		"B1": "CaixaBank",
		"B2": "Listado de movimientos",

		// Header row.
		"B4": "Fecha",
		"C4": "Concepto",
		"D4": "Movimiento",
		"E4": "Importe",
		"I4": "Observaciones",

		// Data rows.
		"B5": "05/03/2026",
		"C5": "Mercadona",
		"D5": "Compra tarjeta",
		"E5": "-23,40",
		"I5": "Tarjeta *1234",

		"B6": "06/03/2026",
		"C6": "Nomina Empresa SL",
		"E6": 1500.00,
	})
}

func TestParseCaixaBank(t *testing.T) {
	stmt, err := Parse(model.BankCaixaBank, caixaBankExport(t), "movimientos.xlsx")
	require.NoError(t, err)

	require.Len(t, stmt.Transactions, 2)
	assert.Equal(t, 0, stmt.Skipped)

	first := stmt.Transactions[0]
	assert.Equal(t, "2026-03-05", first.Date)
	assert.Equal(t, "Mercadona", first.Description)
	assert.InDelta(t, -23.40, first.Amount, 0.0001)
	assert.Equal(t, "Compra tarjeta - Tarjeta *1234", first.Notes)

	second := stmt.Transactions[1]
	assert.Equal(t, "2026-03-06", second.Date)
	assert.InDelta(t, 1500.00, second.Amount, 0.0001)
	assert.Equal(t, "", second.Notes)
}

func TestParseCaixaBankSkipsMalformedRows(t *testing.T) {
	data := buildWorkbook(t, map[string]any{
		"C4": "Concepto",

		"B5": "05/03/2026",
		"C5": "Mercadona",
		"E5": "-23,40",

		// Unparsable date.
		"B6": "Total",
		"C6": "ignorado",
		"E6": "-1,00",

		// Non-numeric amount.
		"B7": "07/03/2026",
		"C7": "Gasolinera",
		"E7": "pendiente",
	})

	stmt, err := Parse(model.BankCaixaBank, data, "movimientos.xlsx")
	require.NoError(t, err)

	require.Len(t, stmt.Transactions, 1)
	assert.Equal(t, 2, stmt.Skipped)
	assert.Equal(t, "Mercadona", stmt.Transactions[0].Description)
}

func TestParseCaixaBankMissingHeader(t *testing.T) {
	data := buildWorkbook(t, map[string]any{
		"B1": "CaixaBank",
		"B5": "05/03/2026",
		"C5": "Mercadona",
		"E5": "-23,40",
	})

	_, err := Parse(model.BankCaixaBank, data, "movimientos.xlsx")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoHeader)
}

func TestParseCaixaBankUnreadableWorkbook(t *testing.T) {
	_, err := Parse(model.BankCaixaBank, []byte("not a workbook"), "movimientos.xlsx")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrNoHeader)
}
