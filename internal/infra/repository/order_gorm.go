package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/clinic-pos/internal/domain/order"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) Transaction(
	ctx context.Context,
	fn func(domain.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewOrderGormRepository(tx))
	})
}

// --------------------------------------------------
// Lookups
// --------------------------------------------------

func (r *OrderGormRepository) GetActiveClient(ctx context.Context, id uint) (*models.Client, error) {
	var c models.Client
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *OrderGormRepository) GetActiveProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *OrderGormRepository) GetActiveService(ctx context.Context, id uint) (*models.Service, error) {
	var s models.Service
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *OrderGormRepository) GetAppointment(ctx context.Context, id uint) (*models.Appointment, error) {
	var ap models.Appointment
	if err := r.db.WithContext(ctx).First(&ap, id).Error; err != nil {
		return nil, err
	}
	return &ap, nil
}

// --------------------------------------------------
// Stock
// --------------------------------------------------

func (r *OrderGormRepository) TakeStock(ctx context.Context, productID uint, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_qty >= ?", productID, qty).
		Update("stock_qty", gorm.Expr("stock_qty - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *OrderGormRepository) ReturnStock(ctx context.Context, productID uint, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock_qty", gorm.Expr("stock_qty + ?", qty)).Error
}

// --------------------------------------------------
// Orders
// --------------------------------------------------

func (r *OrderGormRepository) CreateOrder(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Omit("Client").Create(o).Error
}

func (r *OrderGormRepository) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Items.Product").
		Preload("Items.Service").
		First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderGormRepository) UpdatePayment(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{ID: o.ID}).
		Updates(map[string]any{
			"payment_status": o.PaymentStatus,
			"payment_link":   o.PaymentLink,
		}).Error
}

func (r *OrderGormRepository) ListOrders(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	var out []models.Order
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Items.Product").
		Preload("Items.Service").
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// Compile-time check
var _ domain.Repository = (*OrderGormRepository)(nil)
