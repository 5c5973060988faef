package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/fubangkh/cashbook/internal/ledger"
	"github.com/fubangkh/cashbook/internal/model"
)

// Columns are the recognised header names of an intent file. Only summary,
// amount and category are mandatory; column order is free.
var Columns = []string{
	"summary",
	"amount",
	"currency",
	"rate",
	"invoice_no",
	"category",
	"project_ref",
	"account",
	"handler",
	"note",
	"source_account",
	"dest_account",
}

var requiredColumns = []string{"summary", "amount", "category"}

// CSVParser reads intents from a CSV file with a header row.
type CSVParser struct{}

// Format returns the file extension the parser handles.
func (p *CSVParser) Format() string { return "csv" }

// Parse reads a CSV of intents.
func (p *CSVParser) Parse(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var records [][]string
	var lines []int
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading intent CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}
	return decodeIntents(records, lines)
}

// SheetParser reads intents from the first worksheet of an XLSX workbook.
type SheetParser struct{}

// Format returns the file extension the parser handles.
func (p *SheetParser) Format() string { return "xlsx" }

// Parse reads a workbook of intents.
func (p *SheetParser) Parse(r io.Reader) ([]Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	return decodeIntents(records, nil)
}

// decodeIntents maps records to intents by header name. lines holds the
// source line of each record; nil means records are consecutive rows.
func decodeIntents(records [][]string, lines []int) ([]Record, error) {
	if len(records) == 0 {
		return nil, nil
	}

	index := make(map[string]int)
	for i, h := range records[0] {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var out []Record
	for i, rec := range records[1:] {
		line := i + 2
		if lines != nil {
			line = lines[i+1]
		}
		get := func(col string) string {
			j, ok := index[col]
			if !ok || j >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[j])
		}
		if blank(rec) {
			continue
		}

		amount, err := parseDecimal(get("amount"))
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing amount: %w", line, err)
		}
		rate, err := parseDecimal(get("rate"))
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing rate: %w", line, err)
		}

		currency := get("currency")
		if currency == "" {
			currency = "USD"
		}

		out = append(out, Record{
			Line: line,
			Intent: ledger.Intent{
				Summary:       get("summary"),
				Amount:        amount,
				Currency:      currency,
				Rate:          rate,
				InvoiceNo:     get("invoice_no"),
				Category:      model.Category(get("category")),
				ProjectRef:    get("project_ref"),
				Account:       get("account"),
				Handler:       get("handler"),
				Note:          get("note"),
				SourceAccount: get("source_account"),
				DestAccount:   get("dest_account"),
			},
		})
	}
	return out, nil
}

// parseDecimal accepts thousands separators; an empty cell is zero.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
