package models

import "time"

type Order struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClientID *uint   `gorm:"index" json:"client_id"`
	Client   *Client `gorm:"constraint:OnDelete:SET NULL;" json:"client,omitempty"`

	TotalPrice    float64 `gorm:"not null" json:"total_price"`
	PaymentMethod string  `gorm:"size:20;not null" json:"payment_method"`
	PaymentStatus string  `gorm:"size:20;not null" json:"payment_status"`
	PaymentLink   string  `gorm:"size:512" json:"payment_link,omitempty"`
	Notes         string  `gorm:"type:text" json:"notes"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItem references exactly one of a product or a service.
type OrderItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"not null;index" json:"order_id"`

	ProductID     *uint        `json:"product_id"`
	Product       *Product     `json:"product,omitempty"`
	ServiceID     *uint        `json:"service_id"`
	Service       *Service     `json:"service,omitempty"`
	AppointmentID *uint        `json:"appointment_id"`
	Appointment   *Appointment `gorm:"constraint:OnDelete:SET NULL;" json:"appointment,omitempty"`

	Quantity  int     `gorm:"not null" json:"quantity"`
	UnitPrice float64 `gorm:"not null" json:"unit_price"`
	Subtotal  float64 `gorm:"not null" json:"subtotal"`
}

func (i OrderItem) Name() string {
	switch {
	case i.Product != nil:
		return i.Product.Name
	case i.Service != nil:
		return i.Service.Name
	}
	return ""
}
