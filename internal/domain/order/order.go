// Package order holds the point-of-sale rules for order lines and payment.
package order

import (
	"math"

	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentCredit PaymentMethod = "credit"
	PaymentOther  PaymentMethod = "other"
)

type PaymentStatus string

const (
	StatusPending  PaymentStatus = "pending"
	StatusPaid     PaymentStatus = "paid"
	StatusRefunded PaymentStatus = "refunded"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case PaymentCash, PaymentCard, PaymentCredit, PaymentOther:
		return m, nil
	case "":
		return PaymentCash, nil
	}
	return "", httperr.ErrBusiness("invalid_payment_method")
}

// Line is one requested order line before prices are resolved.
type Line struct {
	ProductID     *uint
	ServiceID     *uint
	AppointmentID *uint
	Quantity      int
}

// ValidateLine checks the shape of a line: exactly one of product or
// service, a positive quantity, and appointments only on service lines.
func ValidateLine(l Line) error {
	if (l.ProductID == nil) == (l.ServiceID == nil) {
		return httperr.ErrBusiness("invalid_order_item")
	}
	if l.Quantity < 1 {
		return httperr.ErrBusiness("invalid_quantity")
	}
	if l.AppointmentID != nil && l.ServiceID == nil {
		return httperr.ErrBusiness("appointment_mismatch")
	}
	return nil
}

// RoundCents rounds half away from zero to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// PriceItem fixes the unit price at sale time and computes the subtotal.
func PriceItem(item *models.OrderItem, unitPrice float64) {
	item.UnitPrice = RoundCents(unitPrice)
	item.Subtotal = RoundCents(float64(item.Quantity) * item.UnitPrice)
}

func Total(items []models.OrderItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Subtotal
	}
	return RoundCents(total)
}

func CanRefund(o *models.Order) error {
	if PaymentStatus(o.PaymentStatus) == StatusRefunded {
		return httperr.ErrBusiness("order_already_refunded")
	}
	return nil
}
