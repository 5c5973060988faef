package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fubangkh/cashbook/internal/model"
)

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, sampleRows(), Period{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetLedger, SheetBalances, SheetProjects, SheetRanking}, f.GetSheetList())

	ledger, err := f.GetRows(SheetLedger)
	require.NoError(t, err)
	require.Len(t, ledger, len(sampleRows())+1)
	assert.Equal(t, model.Columns, ledger[0])
	assert.Equal(t, "500.00", ledger[1][10])

	balances, err := f.GetRows(SheetBalances)
	require.NoError(t, err)
	require.Len(t, balances, 3)
	assert.Equal(t, "BankX", balances[1][0])
	assert.Equal(t, "377", balances[1][3])

	ranking, err := f.GetRows(SheetRanking)
	require.NoError(t, err)
	assert.Len(t, ranking, 5)
}

func TestWriteWorkbook_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, nil, Period{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetProjects)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}
