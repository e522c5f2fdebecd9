package reports

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"detailhub/internal/domain"
)

var (
	invoiceHeaders = []string{
		"Invoice", "Customer", "Booking", "Subtotal", "Tax", "Discount",
		"Total", "Paid", "Outstanding", "Status", "Method", "Created", "Paid At",
	}
	inventoryHeaders = []string{
		"Item", "Category", "Unit", "Current Stock", "Min Level", "Cost / Unit", "Stock Value", "Low",
	}
)

// InvoicesWorkbook renders invoices as a single-sheet xlsx file.
func InvoicesWorkbook(invs []domain.Invoice) (*bytes.Buffer, error) {
	rows := make([][]any, 0, len(invs))
	for _, inv := range invs {
		method, paidAt := "", ""
		if inv.PaymentMethod != nil {
			method = *inv.PaymentMethod
		}
		if inv.PaidAt != nil {
			paidAt = *inv.PaidAt
		}
		rows = append(rows, []any{
			inv.InvoiceNumber, inv.CustomerName, inv.BookingID,
			inv.Subtotal.InexactFloat64(), inv.TaxAmount.InexactFloat64(), inv.DiscountAmount.InexactFloat64(),
			inv.TotalAmount.InexactFloat64(), inv.PaidAmount.InexactFloat64(), inv.Outstanding().InexactFloat64(),
			inv.PaymentStatus, method, inv.CreatedAt, paidAt,
		})
	}
	return workbook("Invoices", invoiceHeaders, rows)
}

// InventoryWorkbook renders the stock sheet with the value of each line.
func InventoryWorkbook(items []domain.InventoryItem) (*bytes.Buffer, error) {
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		low := ""
		if it.IsLow() {
			low = "yes"
		}
		rows = append(rows, []any{
			it.Name, it.Category, it.Unit,
			it.CurrentStock.InexactFloat64(), it.MinStock.InexactFloat64(), it.CostPerUnit.InexactFloat64(),
			it.CurrentStock.Mul(it.CostPerUnit).Round(2).InexactFloat64(), low,
		})
	}
	return workbook("Inventory", inventoryHeaders, rows)
}

func workbook(sheet string, headers []string, rows [][]any) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6E6FA"}, Pattern: 1},
	})
	if err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, headerStyle)
	}

	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetColWidth(sheet, "A", last, 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}
