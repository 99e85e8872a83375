// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

// NewDB returns a migrated in-memory sqlite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// One connection keeps the shared in-memory database alive and
	// serializes the audit worker with the test's own writes.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func MustCreate(t *testing.T, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func Client(t *testing.T, db *gorm.DB) *models.Client {
	t.Helper()
	c := &models.Client{FirstName: "John", LastName: "Doe", Phone: "1234567890", IsActive: true}
	MustCreate(t, db, c)
	return c
}

func Service(t *testing.T, db *gorm.DB, name string, sessions int) *models.Service {
	t.Helper()
	s := &models.Service{Name: name, DurationMin: 60, Price: 100, SessionsRequired: sessions, IsActive: true}
	MustCreate(t, db, s)
	return s
}

func Package(t *testing.T, db *gorm.DB, name string, total int, active bool, services ...models.Service) *models.Package {
	t.Helper()
	p := &models.Package{Name: name, TotalSessions: total, Price: 500, IsActive: active, Services: services}
	MustCreate(t, db, p)
	return p
}

func Staff(t *testing.T, db *gorm.DB) *models.StaffMember {
	t.Helper()
	s := &models.StaffMember{FirstName: "Dr.", LastName: "Johnson", IsActive: true}
	MustCreate(t, db, s)
	return s
}

func Product(t *testing.T, db *gorm.DB, sku string, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: "Serum " + sku, SKU: sku, Price: price, StockQty: stock, IsActive: true}
	MustCreate(t, db, p)
	return p
}

func Date(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}
