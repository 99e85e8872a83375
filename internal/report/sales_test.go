package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

func TestWriteSales(t *testing.T) {
	at := time.Date(2024, 5, 2, 13, 0, 0, 0, time.UTC)
	serum := &models.Product{Name: "Serum"}

	orders := []models.Order{
		{
			ID:            1,
			Client:        &models.Client{FirstName: "John", LastName: "Doe"},
			TotalPrice:    100,
			PaymentMethod: "cash",
			PaymentStatus: "paid",
			CreatedAt:     at,
			Items: []models.OrderItem{
				{Product: serum, Quantity: 2, UnitPrice: 50, Subtotal: 100},
			},
		},
		{ID: 2, TotalPrice: 50, PaymentMethod: "card", PaymentStatus: "paid", CreatedAt: at},
		{ID: 3, TotalPrice: 999, PaymentMethod: "cash", PaymentStatus: "refunded", CreatedAt: at},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSales(&buf, orders, time.UTC))

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)

	assert.Equal(t, "Date", file.GetCellValue(SalesSheet, "A1"))
	assert.Equal(t, "2024-05-02 13:00", file.GetCellValue(SalesSheet, "A2"))
	assert.Equal(t, "John Doe", file.GetCellValue(SalesSheet, "C2"))
	assert.Equal(t, "refunded", file.GetCellValue(SalesSheet, "E4"))
	assert.Equal(t, "Total", file.GetCellValue(SalesSheet, "E5"))
	assert.Equal(t, "150", file.GetCellValue(SalesSheet, "F5"))

	assert.Equal(t, "Serum", file.GetCellValue(ItemsSheet, "B2"))
	assert.Equal(t, "2", file.GetCellValue(ItemsSheet, "C2"))
	assert.Equal(t, "", file.GetCellValue(ItemsSheet, "B3"))
}
