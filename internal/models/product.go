package models

import "time"

const LowStockThreshold = 5

// Product is a retail item sold at the point of sale.
type Product struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name        string  `gorm:"size:200;not null" json:"name"`
	Description string  `gorm:"type:text" json:"description"`
	SKU         string  `gorm:"size:100;uniqueIndex;not null" json:"sku"`
	Price       float64 `gorm:"not null" json:"price"`
	StockQty    int     `gorm:"not null" json:"stock_qty"`
	IsActive    bool    `gorm:"not null" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p Product) IsLowStock() bool {
	return p.StockQty < LowStockThreshold
}
