package order

import (
	"context"
	"time"

	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

type Repository interface {
	GetActiveClient(ctx context.Context, id uint) (*models.Client, error)
	GetActiveProduct(ctx context.Context, id uint) (*models.Product, error)
	GetActiveService(ctx context.Context, id uint) (*models.Service, error)
	GetAppointment(ctx context.Context, id uint) (*models.Appointment, error)

	// TakeStock decrements stock only when enough is on hand.
	TakeStock(ctx context.Context, productID uint, qty int) (bool, error)
	ReturnStock(ctx context.Context, productID uint, qty int) error

	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	UpdatePayment(ctx context.Context, o *models.Order) error
	ListOrders(ctx context.Context, from, to time.Time) ([]models.Order, error)

	Transaction(ctx context.Context, fn func(Repository) error) error
}
