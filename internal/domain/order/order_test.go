package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

func ref(v uint) *uint { return &v }

func TestValidateLine(t *testing.T) {
	cases := []struct {
		name string
		line Line
		code string
	}{
		{"product", Line{ProductID: ref(1), Quantity: 1}, ""},
		{"service with appointment", Line{ServiceID: ref(1), AppointmentID: ref(4), Quantity: 1}, ""},
		{"neither", Line{Quantity: 1}, "invalid_order_item"},
		{"both", Line{ProductID: ref(1), ServiceID: ref(2), Quantity: 1}, "invalid_order_item"},
		{"zero quantity", Line{ProductID: ref(1)}, "invalid_quantity"},
		{"appointment on product", Line{ProductID: ref(1), AppointmentID: ref(3), Quantity: 1}, "appointment_mismatch"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateLine(tc.line)
			if tc.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, httperr.IsBusiness(err, tc.code), "got %v", err)
		})
	}
}

func TestPricing(t *testing.T) {
	items := []models.OrderItem{{Quantity: 3}, {Quantity: 1}}
	PriceItem(&items[0], 19.99)
	PriceItem(&items[1], 120)

	assert.Equal(t, 59.97, items[0].Subtotal)
	assert.Equal(t, 179.97, Total(items))
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := ParsePaymentMethod("")
	require.NoError(t, err)
	assert.Equal(t, PaymentCash, m)

	_, err = ParsePaymentMethod("bitcoin")
	assert.True(t, httperr.IsBusiness(err, "invalid_payment_method"))
}

func TestCanRefund(t *testing.T) {
	assert.NoError(t, CanRefund(&models.Order{PaymentStatus: "paid"}))
	assert.Error(t, CanRefund(&models.Order{PaymentStatus: "refunded"}))
}
