package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
	"github.com/BruksfildServices01/clinic-pos/internal/testutil"
)

func rows(t *testing.T, db *gorm.DB, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}

func TestSeedDemo(t *testing.T) {
	db := testutil.NewDB(t)
	uc := NewSeedDemo(db, nil)

	res, err := uc.Execute(context.Background(), actor.System, false)
	require.NoError(t, err)
	assert.Equal(t, &DemoResult{
		Services:        12,
		Staff:           3,
		Clients:         6,
		Products:        10,
		Packages:        4,
		ClientPackages:  5,
		ServiceSessions: 6,
		Appointments:    6,
		Orders:          4,
	}, res)

	var rodriguez models.StaffMember
	require.NoError(t, db.Preload("WorkingHours").Where("last_name = ?", "Rodriguez").First(&rodriguez).Error)
	assert.Len(t, rodriguez.WorkingHours, 4)
	assert.Equal(t, int64(14), rows(t, db, &models.WorkingHours{}))

	var premium models.Package
	require.NoError(t, db.Preload("Services").Where("name = ?", "Premium Facial Package").First(&premium).Error)
	assert.Len(t, premium.Services, 4)

	var glow models.Package
	require.NoError(t, db.Where("name = ?", "Quick Glow Package").First(&glow).Error)

	var serum models.Product
	require.NoError(t, db.Where("sku = ?", "SKU-AAS-010").First(&serum).Error)
	assert.False(t, serum.IsLowStock())

	// Lisa used every session of the quick glow package.
	var done models.ClientPackage
	require.NoError(t, db.Where("is_completed = ?", true).First(&done).Error)
	assert.Equal(t, glow.ID, done.PackageID)
	assert.Equal(t, 6, done.SessionsCompleted)
	assert.NotNil(t, done.CompletedAt)

	var walkIn models.Order
	require.NoError(t, db.Preload("Items").Where("client_id IS NULL").First(&walkIn).Error)
	assert.Equal(t, 76.0, walkIn.TotalPrice)
	assert.Len(t, walkIn.Items, 2)
	assert.Equal(t, "paid", walkIn.PaymentStatus)

	var completed int64
	require.NoError(t, db.Model(&models.Appointment{}).Where("status = ?", "completed").Count(&completed).Error)
	assert.Equal(t, int64(2), completed)
}

func TestSeedDemoIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	uc := NewSeedDemo(db, nil)

	_, err := uc.Execute(context.Background(), actor.System, false)
	require.NoError(t, err)

	res, err := uc.Execute(context.Background(), actor.System, false)
	require.NoError(t, err)
	assert.Equal(t, &DemoResult{}, res)

	assert.Equal(t, int64(12), rows(t, db, &models.Service{}))
	assert.Equal(t, int64(6), rows(t, db, &models.Appointment{}))
	assert.Equal(t, int64(4), rows(t, db, &models.Order{}))
	assert.Equal(t, int64(14), rows(t, db, &models.WorkingHours{}))
	assert.Equal(t, int64(15), rows(t, db, &models.PackageService{}))
}

func TestSeedDemoClearKeepsSuperusers(t *testing.T) {
	db := testutil.NewDB(t)

	_, err := NewCreateSuperuser(db).Execute(context.Background(), "root", "", "pw")
	require.NoError(t, err)
	testutil.MustCreate(t, db, &models.User{Username: "frontdesk", PasswordHash: "x", IsActive: true})
	extra := testutil.Client(t, db)

	uc := NewSeedDemo(db, nil)
	_, err = uc.Execute(context.Background(), actor.System, false)
	require.NoError(t, err)

	res, err := uc.Execute(context.Background(), actor.System, true)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Clients)
	assert.Equal(t, 4, res.Orders)

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "root", users[0].Username)

	var gone int64
	require.NoError(t, db.Model(&models.Client{}).Where("id = ?", extra.ID).Count(&gone).Error)
	assert.Zero(t, gone)
	assert.Equal(t, int64(6), rows(t, db, &models.Client{}))
}
