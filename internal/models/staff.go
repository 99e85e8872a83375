package models

import "time"

type StaffMember struct {
	ID uint `gorm:"primaryKey" json:"id"`

	FirstName      string `gorm:"size:100;not null" json:"first_name"`
	LastName       string `gorm:"size:100;not null" json:"last_name"`
	Phone          string `gorm:"size:20" json:"phone"`
	Specialization string `gorm:"size:200" json:"specialization"`
	Bio            string `gorm:"type:text" json:"bio"`
	IsActive       bool   `gorm:"not null" json:"is_active"`

	WorkingHours []WorkingHours `gorm:"foreignKey:StaffID" json:"working_hours,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s StaffMember) FullName() string {
	return s.FirstName + " " + s.LastName
}
