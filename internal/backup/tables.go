package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

// userRecord mirrors models.User including the password hash, which the
// model hides from JSON.
type userRecord struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password_hash"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	IsSuperuser  bool       `json:"is_superuser"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (userRecord) TableName() string { return "users" }

type table struct {
	name    string
	order   string
	newRows func() any
	serial  bool
}

// tables is in insert order: parents before children.
var tables = []table{
	{"users", "id", func() any { return &[]userRecord{} }, true},
	{"clients", "id", func() any { return &[]models.Client{} }, true},
	{"services", "id", func() any { return &[]models.Service{} }, true},
	{"packages", "id", func() any { return &[]models.Package{} }, true},
	{"package_services", "package_id, service_id", func() any { return &[]models.PackageService{} }, false},
	{"staff_members", "id", func() any { return &[]models.StaffMember{} }, true},
	{"working_hours", "id", func() any { return &[]models.WorkingHours{} }, true},
	{"client_packages", "id", func() any { return &[]models.ClientPackage{} }, true},
	{"client_service_sessions", "id", func() any { return &[]models.ClientServiceSession{} }, true},
	{"appointments", "id", func() any { return &[]models.Appointment{} }, true},
	{"products", "id", func() any { return &[]models.Product{} }, true},
	{"orders", "id", func() any { return &[]models.Order{} }, true},
	{"order_items", "id", func() any { return &[]models.OrderItem{} }, true},
	{"audit_logs", "id", func() any { return &[]models.AuditLog{} }, true},
}

func rowCount(rows any) int {
	return reflect.Indirect(reflect.ValueOf(rows)).Len()
}

type dataExport struct {
	ExportedAt time.Time      `json:"exported_at"`
	Tables     map[string]any `json:"tables"`
}

// exportData writes every table as JSON and returns the row counts.
func exportData(ctx context.Context, db *gorm.DB, w io.Writer, now time.Time) (map[string]int, error) {
	doc := dataExport{ExportedAt: now.UTC(), Tables: make(map[string]any, len(tables))}
	counts := make(map[string]int, len(tables))

	for _, t := range tables {
		rows := t.newRows()
		if err := db.WithContext(ctx).Table(t.name).Order(t.order).Find(rows).Error; err != nil {
			return nil, fmt.Errorf("backup: export %s: %w", t.name, err)
		}
		doc.Tables[t.name] = rows
		counts[t.name] = rowCount(rows)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("backup: encode data export: %w", err)
	}
	return counts, nil
}

// decodeData parses a data export into typed rows keyed by table name.
// Tables missing from the export decode as empty.
func decodeData(r io.Reader) (map[string]any, error) {
	var raw struct {
		Tables map[string]json.RawMessage `json:"tables"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("backup: decode data export: %w", err)
	}
	if raw.Tables == nil {
		return nil, fmt.Errorf("backup: decode data export: no tables")
	}

	out := make(map[string]any, len(tables))
	for _, t := range tables {
		rows := t.newRows()
		if msg, ok := raw.Tables[t.name]; ok && len(msg) > 0 && string(msg) != "null" {
			if err := json.Unmarshal(msg, rows); err != nil {
				return nil, fmt.Errorf("backup: decode table %s: %w", t.name, err)
			}
		}
		out[t.name] = rows
	}
	return out, nil
}

// replaceTables swaps the contents of every table in one transaction.
func replaceTables(ctx context.Context, db *gorm.DB, data map[string]any) (map[string]int, error) {
	counts := make(map[string]int, len(tables))
	postgres := db.Dialector.Name() == "postgres"

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := len(tables) - 1; i >= 0; i-- {
			if err := tx.Exec("DELETE FROM " + tables[i].name).Error; err != nil {
				return fmt.Errorf("backup: clear %s: %w", tables[i].name, err)
			}
		}

		for _, t := range tables {
			rows := data[t.name]
			n := rowCount(rows)
			counts[t.name] = n
			if n == 0 {
				continue
			}
			if err := tx.Table(t.name).Omit(clause.Associations).CreateInBatches(rows, 200).Error; err != nil {
				return fmt.Errorf("backup: restore %s: %w", t.name, err)
			}
		}

		if !postgres {
			return nil
		}
		for _, t := range tables {
			if !t.serial {
				continue
			}
			q := fmt.Sprintf(
				"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)",
				t.name, t.name,
			)
			if err := tx.Exec(q).Error; err != nil {
				return fmt.Errorf("backup: reset sequence %s: %w", t.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
