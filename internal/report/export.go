package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/fubangkh/cashbook/internal/model"
	"github.com/fubangkh/cashbook/internal/store"
)

// Sheet names of an exported workbook.
const (
	SheetLedger   = "流水"
	SheetBalances = "账户余额"
	SheetProjects = "项目收支"
	SheetRanking  = "支出排行"
)

// WriteWorkbook writes rows plus the account, project and expense-ranking
// reports for period as one XLSX workbook.
func WriteWorkbook(w io.Writer, rows []model.Row, period Period) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetLedger); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	ledger := make([][]interface{}, 0, len(rows)+1)
	ledger = append(ledger, cells(model.Columns))
	for _, r := range rows {
		ledger = append(ledger, cells(store.MarshalRow(r)))
	}
	if err := writeSheet(f, SheetLedger, ledger); err != nil {
		return err
	}

	balances := [][]interface{}{{"账户", "币种", "原币余额", "USD余额"}}
	for _, b := range AccountBalances(rows) {
		balances = append(balances, []interface{}{
			b.Account, b.Currency, b.Original.Round(2).InexactFloat64(), b.USD.Round(2).InexactFloat64(),
		})
	}
	if err := addSheet(f, SheetBalances, balances); err != nil {
		return err
	}

	projects := [][]interface{}{{"项目", "收入USD", "支出USD", "净额USD"}}
	for _, p := range ProjectBalances(rows) {
		projects = append(projects, []interface{}{
			p.Project, p.Income.InexactFloat64(), p.Expense.InexactFloat64(), p.Net.InexactFloat64(),
		})
	}
	if err := addSheet(f, SheetProjects, projects); err != nil {
		return err
	}

	ranking := [][]interface{}{{"类别", "支出USD"}}
	for _, c := range ExpenseRanking(rows, period) {
		ranking = append(ranking, []interface{}{string(c.Category), c.USD.InexactFloat64()})
	}
	if err := addSheet(f, SheetRanking, ranking); err != nil {
		return err
	}

	if err := f.SetColWidth(SheetLedger, "A", "C", 20); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}
	if err := f.SetColWidth(SheetLedger, "D", "D", 36); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func addSheet(f *excelize.File, name string, rows [][]interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("creating sheet %s: %w", name, err)
	}
	return writeSheet(f, name, rows)
}

func writeSheet(f *excelize.File, name string, rows [][]interface{}) error {
	for i, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("writing %s row %d: %w", name, i+1, err)
		}
	}
	return nil
}

func cells(rec []string) []interface{} {
	out := make([]interface{}, len(rec))
	for i, v := range rec {
		out[i] = v
	}
	return out
}
