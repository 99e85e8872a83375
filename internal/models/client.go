package models

import "time"

// Client is a clinic customer record, separate from staff authentication.
// Clients are deactivated, never hard-deleted.
type Client struct {
	ID uint `gorm:"primaryKey" json:"id"`

	FirstName   string     `gorm:"size:100;not null" json:"first_name"`
	LastName    string     `gorm:"size:100;not null" json:"last_name"`
	Phone       string     `gorm:"size:20" json:"phone"`
	Email       string     `gorm:"size:100" json:"email"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Address     string     `gorm:"type:text" json:"address"`
	Notes       string     `gorm:"type:text" json:"notes"`
	PhotoPath   string     `gorm:"size:255" json:"photo_path"`
	IsActive    bool       `gorm:"not null" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c Client) FullName() string {
	return c.FirstName + " " + c.LastName
}
