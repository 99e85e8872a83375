package pos_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/domain/order"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/infra/repository"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
	"github.com/BruksfildServices01/clinic-pos/internal/testutil"
	"github.com/BruksfildServices01/clinic-pos/internal/usecase/appointment"
	"github.com/BruksfildServices01/clinic-pos/internal/usecase/pos"
)

var cashier = actor.Actor{UserID: 2, Username: "cashier"}

func ref(v uint) *uint { return &v }

type fakeGateway struct {
	link string
	err  error
}

func (g fakeGateway) CheckoutLink(context.Context, *models.Order) (string, error) {
	return g.link, g.err
}

func TestCheckoutSnapshotsPricesAndTakesStock(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewOrderGormRepository(db)
	ctx := context.Background()

	serum := testutil.Product(t, db, "SER-1", 45.50, 10)
	facial := testutil.Service(t, db, "Detox Facial", 1)
	client := testutil.Client(t, db)

	res, err := pos.NewCheckout(repo, nil, nil, nil).Execute(ctx, cashier, pos.CheckoutInput{
		ClientID: &client.ID,
		Lines: []order.Line{
			{ProductID: &serum.ID, Quantity: 2},
			{ServiceID: &facial.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	o := res.Order
	assert.Equal(t, "cash", o.PaymentMethod)
	assert.Equal(t, "paid", o.PaymentStatus)
	assert.Equal(t, 191.0, o.TotalPrice)
	require.Len(t, o.Items, 2)
	assert.Equal(t, 91.0, o.Items[0].Subtotal)

	var p models.Product
	require.NoError(t, db.First(&p, serum.ID).Error)
	assert.Equal(t, 8, p.StockQty)

	// Later price changes do not touch the sale.
	require.NoError(t, db.Model(&p).Update("price", 99).Error)
	stored, err := pos.NewGetOrder(repo).Execute(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 45.50, stored.Items[0].UnitPrice)
}

func TestCheckoutRollsBackOnInsufficientStock(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewOrderGormRepository(db)

	a := testutil.Product(t, db, "A", 10, 5)
	b := testutil.Product(t, db, "B", 10, 1)

	_, err := pos.NewCheckout(repo, nil, nil, nil).Execute(context.Background(), cashier, pos.CheckoutInput{
		Lines: []order.Line{
			{ProductID: &a.ID, Quantity: 2},
			{ProductID: &b.ID, Quantity: 3},
		},
	})
	assert.True(t, httperr.IsBusiness(err, "insufficient_stock"))

	var stock int
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", a.ID).Pluck("stock_qty", &stock).Error)
	assert.Equal(t, 5, stock)

	var n int64
	require.NoError(t, db.Model(&models.Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCheckoutValidation(t *testing.T) {
	db := testutil.NewDB(t)
	uc := pos.NewCheckout(repository.NewOrderGormRepository(db), nil, nil, nil)
	ctx := context.Background()

	_, err := uc.Execute(ctx, cashier, pos.CheckoutInput{})
	assert.True(t, httperr.IsBusiness(err, "empty_order"))

	_, err = uc.Execute(ctx, cashier, pos.CheckoutInput{PaymentMethod: "barter", Lines: []order.Line{{ProductID: ref(1), Quantity: 1}}})
	assert.True(t, httperr.IsBusiness(err, "invalid_payment_method"))

	_, err = uc.Execute(ctx, cashier, pos.CheckoutInput{Lines: []order.Line{{ProductID: ref(404), Quantity: 1}}})
	assert.True(t, httperr.IsBusiness(err, "product_not_found"))

	_, err = uc.Execute(ctx, cashier, pos.CheckoutInput{ClientID: ref(404), Lines: []order.Line{{ProductID: ref(1), Quantity: 1}}})
	assert.True(t, httperr.IsBusiness(err, "client_not_found"))
}

func TestCardCheckoutUsesGateway(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewOrderGormRepository(db)
	p := testutil.Product(t, db, "SPF", 30, 3)
	in := pos.CheckoutInput{PaymentMethod: "card", Lines: []order.Line{{ProductID: &p.ID, Quantity: 1}}}

	res, err := pos.NewCheckout(repo, fakeGateway{link: "https://pay.example/abc"}, nil, nil).Execute(context.Background(), cashier, in)
	require.NoError(t, err)
	assert.Equal(t, "pending", res.Order.PaymentStatus)

	stored, err := pos.NewGetOrder(repo).Execute(context.Background(), res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/abc", stored.PaymentLink)

	res, err = pos.NewCheckout(repo, fakeGateway{err: errors.New("gateway down")}, nil, nil).Execute(context.Background(), cashier, in)
	require.NoError(t, err)
	assert.Error(t, res.PaymentLinkError)
	assert.Equal(t, "pending", res.Order.PaymentStatus)
	assert.Empty(t, res.Order.PaymentLink)
}

func TestCheckoutCompletesLinkedAppointment(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	apRepo := repository.NewAppointmentGormRepository(db)

	client := testutil.Client(t, db)
	svc := testutil.Service(t, db, "Exoglow", 1)
	other := testutil.Service(t, db, "Underarm Glow", 1)
	staff := testutil.Staff(t, db)

	ap, err := appointment.NewCreateAppointment(apRepo, nil).Execute(ctx, cashier, appointment.CreateAppointmentInput{
		ClientID: client.ID, ServiceID: svc.ID, StaffID: staff.ID, Start: testutil.Date(2025, 4, 2, 10, 0),
	})
	require.NoError(t, err)

	uc := pos.NewCheckout(repository.NewOrderGormRepository(db), nil, appointment.NewCompleteAppointment(apRepo, nil), nil)

	_, err = uc.Execute(ctx, cashier, pos.CheckoutInput{
		Lines: []order.Line{{ServiceID: &other.ID, AppointmentID: &ap.ID, Quantity: 1}},
	})
	assert.True(t, httperr.IsBusiness(err, "appointment_mismatch"))

	_, err = uc.Execute(ctx, cashier, pos.CheckoutInput{
		ClientID: &client.ID,
		Lines:    []order.Line{{ServiceID: &svc.ID, AppointmentID: &ap.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	var stored models.Appointment
	require.NoError(t, db.First(&stored, ap.ID).Error)
	assert.Equal(t, "completed", stored.Status)
}

func TestRefundRestocks(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewOrderGormRepository(db)
	ctx := context.Background()
	p := testutil.Product(t, db, "MASK", 12, 4)

	res, err := pos.NewCheckout(repo, nil, nil, nil).Execute(ctx, cashier, pos.CheckoutInput{
		Lines: []order.Line{{ProductID: &p.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	refund := pos.NewRefund(repo, nil)
	o, err := refund.Execute(ctx, cashier, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "refunded", o.PaymentStatus)

	var stock int
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", p.ID).Pluck("stock_qty", &stock).Error)
	assert.Equal(t, 4, stock)

	_, err = refund.Execute(ctx, cashier, res.Order.ID)
	assert.True(t, httperr.IsBusiness(err, "order_already_refunded"))

	_, err = refund.Execute(ctx, cashier, 9999)
	assert.True(t, httperr.IsBusiness(err, "order_not_found"))
}
