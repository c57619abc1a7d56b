// Package report renders spreadsheets for download.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"techsync/api/internal/erp"
)

const (
	TransactionsSheet = "Transações"
	ContentType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var transactionHeaders = []string{"Data", "Tipo", "Categoria", "Descrição", "Valor (R$)", "Empresa", "Cliente"}

var kindLabels = map[erp.TransactionKind]string{
	erp.Income:  "Receita",
	erp.Expense: "Despesa",
}

// TransactionsXLSX writes txs as a single-sheet workbook followed by a totals
// row. Expenses are negative so the total is the balance.
func TransactionsXLSX(w io.Writer, txs []erp.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TransactionsSheet); err != nil {
		return err
	}
	sheet := TransactionsSheet

	for i, h := range transactionHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}
	date, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		return err
	}

	var balance int64
	for r, t := range txs {
		row := r + 2
		cents := t.AmountCents
		if t.Kind == erp.Expense {
			cents = -cents
		}
		balance += cents
		amount := float64(cents) / 100
		values := []any{t.OccurredAt, kindLabels[t.Kind], t.Category, t.Description, amount, t.CompanyID, t.ClientID}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	total := len(txs) + 2
	if err := f.SetCellValue(sheet, fmt.Sprintf("D%d", total), "Total"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, fmt.Sprintf("E%d", total), float64(balance)/100); err != nil {
		return err
	}
	if len(txs) > 0 {
		if err := f.SetCellStyle(sheet, "A2", fmt.Sprintf("A%d", total-1), date); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "E2", fmt.Sprintf("E%d", total), money); err != nil {
		return err
	}
	_ = f.SetColWidth(sheet, "A", "A", 12)
	_ = f.SetColWidth(sheet, "C", "D", 28)
	_ = f.SetColWidth(sheet, "E", "E", 14)

	_, err = f.WriteTo(w)
	return err
}
