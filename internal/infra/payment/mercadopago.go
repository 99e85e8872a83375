// Package payment creates hosted checkout links for card payments.
package payment

import (
	"context"
	"fmt"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

type MercadoPago struct {
	client    preference.Client
	currency  string
	notifyURL string
}

func NewMercadoPago(accessToken, currency, notifyURL string) (*MercadoPago, error) {
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, err
	}
	return &MercadoPago{
		client:    preference.NewClient(cfg),
		currency:  currency,
		notifyURL: notifyURL,
	}, nil
}

// CheckoutLink creates a payment preference for the order and returns its
// init point. The order id travels as the external reference.
func (m *MercadoPago) CheckoutLink(ctx context.Context, o *models.Order) (string, error) {
	items := make([]preference.ItemRequest, 0, len(o.Items))
	for _, it := range o.Items {
		title := it.Name()
		if title == "" {
			title = fmt.Sprintf("Order #%d item", o.ID)
		}
		items = append(items, preference.ItemRequest{
			Title:      title,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			CurrencyID: m.currency,
		})
	}

	req := preference.Request{
		Items:             items,
		ExternalReference: fmt.Sprintf("order-%d", o.ID),
		NotificationURL:   m.notifyURL,
	}

	res, err := m.client.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("mercadopago preference: %w", err)
	}
	return res.InitPoint, nil
}
