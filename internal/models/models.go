package models

// All lists every persisted model in dependency order (parents first).
func All() []any {
	return []any{
		&User{},
		&Client{},
		&Service{},
		&Package{},
		&StaffMember{},
		&WorkingHours{},
		&ClientPackage{},
		&ClientServiceSession{},
		&Appointment{},
		&Product{},
		&Order{},
		&OrderItem{},
		&AuditLog{},
	}
}
