package models

import "time"

// Service is a single treatment offered by the clinic.
type Service struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name             string  `gorm:"size:200;not null;index" json:"name"`
	Description      string  `gorm:"type:text" json:"description"`
	DurationMin      int     `gorm:"not null" json:"duration_min"`
	Price            float64 `gorm:"not null" json:"price"`
	SessionsRequired int     `gorm:"not null" json:"sessions_required"`
	IsActive         bool    `gorm:"not null" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s Service) RequiresMultipleSessions() bool {
	return s.SessionsRequired > 1
}
