package pos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	domain "github.com/BruksfildServices01/clinic-pos/internal/domain/order"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

// PaymentGateway issues a hosted payment link for card orders.
type PaymentGateway interface {
	CheckoutLink(ctx context.Context, o *models.Order) (string, error)
}

// AppointmentCompleter finishes appointments paid for at the till.
type AppointmentCompleter interface {
	Execute(ctx context.Context, a actor.Actor, appointmentID uint) (*models.Appointment, error)
}

// ======================================================
// INPUT / OUTPUT
// ======================================================

type CheckoutInput struct {
	ClientID      *uint
	PaymentMethod string
	Notes         string
	Lines         []domain.Line
}

type CheckoutResult struct {
	Order *models.Order

	// PaymentLinkError is set when the gateway failed; the order is kept
	// with a pending payment.
	PaymentLinkError error
}

// ======================================================
// USE CASE
// ======================================================

type Checkout struct {
	repo      domain.Repository
	gateway   PaymentGateway
	completer AppointmentCompleter
	audit     *audit.Dispatcher
}

// NewCheckout accepts a nil gateway; card orders are then recorded as paid.
func NewCheckout(
	repo domain.Repository,
	gateway PaymentGateway,
	completer AppointmentCompleter,
	audit *audit.Dispatcher,
) *Checkout {
	return &Checkout{repo: repo, gateway: gateway, completer: completer, audit: audit}
}

func (uc *Checkout) Execute(
	ctx context.Context,
	a actor.Actor,
	in CheckoutInput,
) (*CheckoutResult, error) {

	method, err := domain.ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if len(in.Lines) == 0 {
		return nil, httperr.ErrBusiness("empty_order")
	}
	for _, l := range in.Lines {
		if err := domain.ValidateLine(l); err != nil {
			return nil, err
		}
	}

	useGateway := method == domain.PaymentCard && uc.gateway != nil

	o := &models.Order{
		ClientID:      in.ClientID,
		PaymentMethod: string(method),
		PaymentStatus: string(domain.StatusPaid),
		Notes:         in.Notes,
	}
	if useGateway {
		o.PaymentStatus = string(domain.StatusPending)
	}

	var appointments []uint

	err = uc.repo.Transaction(ctx, func(repo domain.Repository) error {
		if in.ClientID != nil {
			if _, err := repo.GetActiveClient(ctx, *in.ClientID); err != nil {
				return notFound(err, "client_not_found")
			}
		}

		for _, l := range in.Lines {
			item := models.OrderItem{
				ProductID:     l.ProductID,
				ServiceID:     l.ServiceID,
				AppointmentID: l.AppointmentID,
				Quantity:      l.Quantity,
			}

			if l.ProductID != nil {
				p, err := repo.GetActiveProduct(ctx, *l.ProductID)
				if err != nil {
					return notFound(err, "product_not_found")
				}
				ok, err := repo.TakeStock(ctx, p.ID, l.Quantity)
				if err != nil {
					return err
				}
				if !ok {
					return httperr.ErrBusiness("insufficient_stock")
				}
				domain.PriceItem(&item, p.Price)
				item.Product = p
			} else {
				s, err := repo.GetActiveService(ctx, *l.ServiceID)
				if err != nil {
					return notFound(err, "service_not_found")
				}
				if l.AppointmentID != nil {
					ap, err := repo.GetAppointment(ctx, *l.AppointmentID)
					if err != nil {
						return notFound(err, "appointment_not_found")
					}
					if ap.ServiceID != s.ID {
						return httperr.ErrBusiness("appointment_mismatch")
					}
					appointments = append(appointments, ap.ID)
				}
				domain.PriceItem(&item, s.Price)
				item.Service = s
			}

			o.Items = append(o.Items, item)
		}

		o.TotalPrice = domain.Total(o.Items)

		// Associations were only loaded for naming; keep them out of the insert.
		named := make([]models.OrderItem, len(o.Items))
		copy(named, o.Items)
		for i := range o.Items {
			o.Items[i].Product, o.Items[i].Service = nil, nil
		}
		if err := repo.CreateOrder(ctx, o); err != nil {
			return err
		}
		for i := range o.Items {
			o.Items[i].Product, o.Items[i].Service = named[i].Product, named[i].Service
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &CheckoutResult{Order: o}

	if useGateway {
		link, err := uc.gateway.CheckoutLink(ctx, o)
		if err != nil {
			res.PaymentLinkError = err
		} else {
			o.PaymentLink = link
			if err := uc.repo.UpdatePayment(ctx, o); err != nil {
				return nil, err
			}
		}
	}

	if uc.completer != nil {
		for _, id := range appointments {
			// Already completed or cancelled visits are left as they are.
			if _, err := uc.completer.Execute(ctx, a, id); err != nil && !httperr.IsBusiness(err, "invalid_state") {
				return nil, err
			}
		}
	}

	uc.audit.Dispatch(audit.Event{
		Actor:    a,
		Action:   "order_created",
		Entity:   "order",
		EntityID: &o.ID,
		Metadata: map[string]any{
			"total":          o.TotalPrice,
			"payment_method": o.PaymentMethod,
			"items":          len(o.Items),
		},
	})

	return res, nil
}

func notFound(err error, code string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrBusiness(code)
	}
	return err
}
