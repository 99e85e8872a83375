package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
	"github.com/BruksfildServices01/clinic-pos/internal/testutil"
)

const seed = `{
  "services": [
    {"name": "HAIR MESO", "price": 40, "duration": 30, "sessions_required": 3},
    {"name": "EXOHAIR", "price": 150},
    {"name": "DEEP GLOW FACIAL", "price": 80, "description": "hydrafacial"},
    {"name": "KNEE WHITENING", "price": 60},
    {"name": "  ", "price": 1}
  ],
  "packages": [
    {"name": "Hair Treatment Plan", "price": 500, "services": ["hair meso", "EXOHAIR"]},
    {"name": "Glow Trio", "description": "deep glow facial x3 $100 $50", "products": "serum"},
    {"name": "No Price"}
  ]
}`

func TestImportServices(t *testing.T) {
	db := testutil.NewDB(t)
	uc := NewImportServices(db, nil)

	res, err := uc.Execute(context.Background(), actor.System, strings.NewReader(seed), false)
	require.NoError(t, err)
	assert.Equal(t, 4, res.ServicesCreated)
	assert.Equal(t, 2, res.PackagesCreated)
	assert.Len(t, res.Warnings, 3)

	var hair models.Package
	require.NoError(t, db.Preload("Services").Where("name = ?", "Hair Treatment Plan").First(&hair).Error)
	assert.Equal(t, 500.0, *hair.OriginalPrice)
	assert.Equal(t, 400.0, hair.Price)
	assert.Len(t, hair.Services, MinPackageServices)
	assert.Equal(t, 20.0, hair.DiscountPercentage())

	var glow models.Package
	require.NoError(t, db.Preload("Services").Where("name = ?", "Glow Trio").First(&glow).Error)
	assert.Equal(t, 150.0, *glow.OriginalPrice)
	assert.Contains(t, glow.Description, "Products included: serum")
	assert.Equal(t, 4, glow.TotalSessions)

	var svc models.Service
	require.NoError(t, db.Where("name = ?", "EXOHAIR").First(&svc).Error)
	assert.Equal(t, 45, svc.DurationMin)
	assert.True(t, svc.IsActive)

	// A second run updates in place.
	res, err = uc.Execute(context.Background(), actor.System, strings.NewReader(seed), false)
	require.NoError(t, err)
	assert.Equal(t, 4, res.ServicesUpdated)
	assert.Equal(t, 2, res.PackagesUpdated)

	var n int64
	require.NoError(t, db.Model(&models.Service{}).Count(&n).Error)
	assert.EqualValues(t, 4, n)
}

func TestImportServicesClear(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.Service(t, db, "Legacy Peel", 1)

	_, err := NewImportServices(db, nil).Execute(context.Background(), actor.System, strings.NewReader(seed), true)
	require.NoError(t, err)

	var n int64
	require.NoError(t, db.Model(&models.Service{}).Where("name = ?", "Legacy Peel").Count(&n).Error)
	assert.Zero(t, n)
}

func TestImportServicesRejectsBadJSON(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := NewImportServices(db, nil).Execute(context.Background(), actor.System, strings.NewReader("{"), false)
	assert.Error(t, err)
}

func TestMentions(t *testing.T) {
	assert.True(t, mentions("Includes a Deep Glow facial", "DEEP GLOW FACIAL"))
	assert.True(t, mentions("knee care", "KNEE"))
	assert.False(t, mentions("glow only", "DEEP GLOW FACIAL"))
	assert.False(t, mentions("anything", "CO2"))
}

func TestApplyPackageDiscountIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	p := testutil.Package(t, db, "Bridal", 6, true)

	uc := NewApplyPackageDiscount(db, nil)
	for i := 0; i < 2; i++ {
		changes, err := uc.Execute(context.Background(), actor.System, DefaultDiscount)
		require.NoError(t, err)
		require.Len(t, changes, 1)
	}

	var got models.Package
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, 500.0, *got.OriginalPrice)
	assert.Equal(t, 400.0, got.Price)
	assert.True(t, got.HasDiscount())

	_, err := uc.Execute(context.Background(), actor.System, 12.5)
	require.NoError(t, err)
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, 437.5, got.Price)
}

func TestCreateSuperuser(t *testing.T) {
	db := testutil.NewDB(t)
	uc := NewCreateSuperuser(db)
	ctx := context.Background()

	_, err := uc.Execute(ctx, "admin", "", "")
	assert.ErrorIs(t, err, ErrPasswordRequired)

	created, err := uc.Execute(ctx, "admin", "admin@clinic.test", "s3cret!")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = uc.Execute(ctx, "admin", "", "other")
	require.NoError(t, err)
	assert.False(t, created)

	var u models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&u).Error)
	assert.True(t, u.IsSuperuser)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret!")))
}
