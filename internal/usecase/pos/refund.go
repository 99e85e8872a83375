package pos

import (
	"context"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	domain "github.com/BruksfildServices01/clinic-pos/internal/domain/order"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

type Refund struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewRefund(repo domain.Repository, audit *audit.Dispatcher) *Refund {
	return &Refund{repo: repo, audit: audit}
}

// Execute marks the order refunded and puts sold products back in stock.
func (uc *Refund) Execute(ctx context.Context, a actor.Actor, orderID uint) (*models.Order, error) {
	var o *models.Order

	err := uc.repo.Transaction(ctx, func(repo domain.Repository) error {
		var err error
		o, err = repo.GetOrder(ctx, orderID)
		if err != nil {
			return notFound(err, "order_not_found")
		}
		if err := domain.CanRefund(o); err != nil {
			return err
		}

		for _, it := range o.Items {
			if it.ProductID != nil {
				if err := repo.ReturnStock(ctx, *it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		}

		o.PaymentStatus = string(domain.StatusRefunded)
		return repo.UpdatePayment(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		Actor:    a,
		Action:   "order_refunded",
		Entity:   "order",
		EntityID: &o.ID,
		Metadata: map[string]any{"total": o.TotalPrice},
	})

	return o, nil
}

type GetOrder struct {
	repo domain.Repository
}

func NewGetOrder(repo domain.Repository) *GetOrder {
	return &GetOrder{repo: repo}
}

func (uc *GetOrder) Execute(ctx context.Context, orderID uint) (*models.Order, error) {
	o, err := uc.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "order_not_found")
	}
	return o, nil
}
