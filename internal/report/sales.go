// Package report renders POS sales as spreadsheets.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"

	"github.com/BruksfildServices01/clinic-pos/internal/domain/order"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

const (
	SalesSheet = "Sales"
	ItemsSheet = "Items"
)

// Sales builds a workbook with one row per order and one row per item.
// Refunded orders are listed but left out of the total.
func Sales(orders []models.Order, loc *time.Location) *excelize.File {
	file := excelize.NewFile()
	file.NewSheet(SalesSheet)
	file.NewSheet(ItemsSheet)
	file.DeleteSheet("Sheet1")

	salesHeaders := map[string]string{
		"A1": "Date",
		"B1": "Order",
		"C1": "Client",
		"D1": "Payment Method",
		"E1": "Status",
		"F1": "Total",
	}
	for k, v := range salesHeaders {
		file.SetCellValue(SalesSheet, k, v)
	}

	itemHeaders := map[string]string{
		"A1": "Order",
		"B1": "Item",
		"C1": "Quantity",
		"D1": "Unit Price",
		"E1": "Subtotal",
	}
	for k, v := range itemHeaders {
		file.SetCellValue(ItemsSheet, k, v)
	}

	total := 0.0
	itemRow := 2
	for i, o := range orders {
		row := i + 2
		client := ""
		if o.Client != nil {
			client = o.Client.FullName()
		}
		file.SetCellValue(SalesSheet, fmt.Sprintf("A%d", row), o.CreatedAt.In(loc).Format("2006-01-02 15:04"))
		file.SetCellValue(SalesSheet, fmt.Sprintf("B%d", row), o.ID)
		file.SetCellValue(SalesSheet, fmt.Sprintf("C%d", row), client)
		file.SetCellValue(SalesSheet, fmt.Sprintf("D%d", row), o.PaymentMethod)
		file.SetCellValue(SalesSheet, fmt.Sprintf("E%d", row), o.PaymentStatus)
		file.SetCellValue(SalesSheet, fmt.Sprintf("F%d", row), o.TotalPrice)

		if o.PaymentStatus != string(order.StatusRefunded) {
			total += o.TotalPrice
		}

		for _, it := range o.Items {
			file.SetCellValue(ItemsSheet, fmt.Sprintf("A%d", itemRow), o.ID)
			file.SetCellValue(ItemsSheet, fmt.Sprintf("B%d", itemRow), it.Name())
			file.SetCellValue(ItemsSheet, fmt.Sprintf("C%d", itemRow), it.Quantity)
			file.SetCellValue(ItemsSheet, fmt.Sprintf("D%d", itemRow), it.UnitPrice)
			file.SetCellValue(ItemsSheet, fmt.Sprintf("E%d", itemRow), it.Subtotal)
			itemRow++
		}
	}

	last := len(orders) + 2
	file.SetCellValue(SalesSheet, fmt.Sprintf("E%d", last), "Total")
	file.SetCellValue(SalesSheet, fmt.Sprintf("F%d", last), order.RoundCents(total))

	file.SetActiveSheet(file.GetSheetIndex(SalesSheet))
	return file
}

func WriteSales(w io.Writer, orders []models.Order, loc *time.Location) error {
	return Sales(orders, loc).Write(w)
}
