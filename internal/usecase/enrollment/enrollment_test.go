package enrollment_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/infra/repository"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
	"github.com/BruksfildServices01/clinic-pos/internal/testutil"
	"github.com/BruksfildServices01/clinic-pos/internal/usecase/enrollment"
)

var staff = actor.Actor{UserID: 1, Username: "reception"}

func countClientPackages(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.ClientPackage{}).Count(&n).Error)
	return n
}

func TestAssignPackageValidation(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewEnrollmentGormRepository(db)
	uc := enrollment.NewAssignPackage(repo, nil)
	ctx := context.Background()

	client := testutil.Client(t, db)
	inactive := testutil.Package(t, db, "Old Glow", 4, false)

	cases := []struct {
		raw  string
		code string
	}{
		{"", "package_required"},
		{"abc", "invalid_package_id"},
		{"-3", "invalid_package_id"},
		{"9999", "package_not_found"},
		{itoa(inactive.ID), "package_not_found"},
	}
	for _, tc := range cases {
		_, err := uc.Execute(ctx, staff, client.ID, tc.raw)
		assert.True(t, httperr.IsBusiness(err, tc.code), "raw=%q err=%v", tc.raw, err)
	}

	_, err := uc.Execute(ctx, staff, 424242, "1")
	assert.True(t, httperr.IsBusiness(err, "client_not_found"))

	// The client is checked before the package id is parsed.
	_, err = uc.Execute(ctx, staff, 424242, "")
	assert.True(t, httperr.IsBusiness(err, "client_not_found"))

	assert.Zero(t, countClientPackages(t, db))
}

func TestAssignPackageRejectsActiveDuplicate(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewEnrollmentGormRepository(db)
	uc := enrollment.NewAssignPackage(repo, nil)
	ctx := context.Background()

	client := testutil.Client(t, db)
	pkg := testutil.Package(t, db, "Skin Reset", 3, true)

	cp, err := uc.Execute(ctx, staff, client.ID, itoa(pkg.ID))
	require.NoError(t, err)
	assert.Equal(t, 0, cp.SessionsCompleted)
	assert.Equal(t, 3, cp.TotalSessions)
	assert.False(t, cp.IsCompleted)

	_, err = uc.Execute(ctx, staff, client.ID, itoa(pkg.ID))
	assert.True(t, httperr.IsBusiness(err, "package_already_assigned"))
	assert.EqualValues(t, 1, countClientPackages(t, db))

	// A completed enrollment no longer blocks buying the package again.
	require.NoError(t, db.Model(&models.ClientPackage{}).Where("id = ?", cp.ID).
		Updates(map[string]any{"sessions_completed": 3, "is_completed": true}).Error)
	_, err = uc.Execute(ctx, staff, client.ID, itoa(pkg.ID))
	require.NoError(t, err)
	assert.EqualValues(t, 2, countClientPackages(t, db))
}

func TestAddPackageSessionNeverOverflows(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewEnrollmentGormRepository(db)
	assign := enrollment.NewAssignPackage(repo, nil)
	add := enrollment.NewAddPackageSession(repo, nil)
	ctx := context.Background()

	client := testutil.Client(t, db)
	pkg := testutil.Package(t, db, "Hair Plan", 2, true)
	cp, err := assign.Execute(ctx, staff, client.ID, itoa(pkg.ID))
	require.NoError(t, err)

	got, added, err := add.Execute(ctx, staff, client.ID, cp.ID)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, got.SessionsCompleted)
	assert.False(t, got.IsCompleted)

	got, added, err = add.Execute(ctx, staff, client.ID, cp.ID)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 2, got.SessionsCompleted)
	assert.True(t, got.IsCompleted)
	assert.NotNil(t, got.CompletedAt)

	got, added, err = add.Execute(ctx, staff, client.ID, cp.ID)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 2, got.SessionsCompleted)
}

func TestAddPackageSessionConcurrentSubmits(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewEnrollmentGormRepository(db)
	add := enrollment.NewAddPackageSession(repo, nil)
	ctx := context.Background()

	client := testutil.Client(t, db)
	pkg := testutil.Package(t, db, "Bridal", 3, true)
	cp := &models.ClientPackage{ClientID: client.ID, PackageID: pkg.ID, AssignedAt: testutil.Date(2025, 1, 1, 9, 0)}
	cp.TotalSessions = 3
	testutil.MustCreate(t, db, cp)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = add.Execute(ctx, staff, client.ID, cp.ID)
		}()
	}
	wg.Wait()

	var stored models.ClientPackage
	require.NoError(t, db.First(&stored, cp.ID).Error)
	assert.Equal(t, 3, stored.SessionsCompleted)
	assert.True(t, stored.IsCompleted)
}

func TestAddPackageSessionWrongClient(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewEnrollmentGormRepository(db)
	ctx := context.Background()

	owner := testutil.Client(t, db)
	other := testutil.Client(t, db)
	pkg := testutil.Package(t, db, "Glow", 3, true)
	cp, err := enrollment.NewAssignPackage(repo, nil).Execute(ctx, staff, owner.ID, itoa(pkg.ID))
	require.NoError(t, err)

	_, _, err = enrollment.NewAddPackageSession(repo, nil).Execute(ctx, staff, other.ID, cp.ID)
	assert.True(t, httperr.IsBusiness(err, "client_package_not_found"))
}

func TestServiceSessionLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewEnrollmentGormRepository(db)
	start := enrollment.NewStartServiceSession(repo, nil)
	add := enrollment.NewAddServiceSession(repo, nil)
	remove := enrollment.NewRemoveEnrollment(repo, nil)
	ctx := context.Background()

	client := testutil.Client(t, db)
	svc := testutil.Service(t, db, "Hair Meso", 3)

	_, err := start.Execute(ctx, staff, client.ID, "")
	assert.True(t, httperr.IsBusiness(err, "service_required"))
	_, err = start.Execute(ctx, staff, client.ID, "x1")
	assert.True(t, httperr.IsBusiness(err, "invalid_service_id"))
	_, err = start.Execute(ctx, staff, client.ID, "777")
	assert.True(t, httperr.IsBusiness(err, "service_not_found"))

	s, err := start.Execute(ctx, staff, client.ID, itoa(svc.ID))
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalSessions)

	_, err = start.Execute(ctx, staff, client.ID, itoa(svc.ID))
	assert.True(t, httperr.IsBusiness(err, "service_already_started"))

	for i := 0; i < 4; i++ {
		_, _, err = add.Execute(ctx, staff, client.ID, s.ID)
		require.NoError(t, err)
	}
	got, added, err := add.Execute(ctx, staff, client.ID, s.ID)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 3, got.SessionsCompleted)

	name, err := remove.Execute(ctx, staff, enrollment.KindService, client.ID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hair Meso", name)

	_, err = remove.Execute(ctx, staff, enrollment.KindService, client.ID, s.ID)
	assert.True(t, httperr.IsBusiness(err, "service_session_not_found"))
}

func TestProfileHidesOpenPackages(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewEnrollmentGormRepository(db)
	ctx := context.Background()

	client := testutil.Client(t, db)
	held := testutil.Package(t, db, "Held", 3, true)
	free := testutil.Package(t, db, "Free", 3, true)
	testutil.Package(t, db, "Retired", 3, false)

	_, err := enrollment.NewAssignPackage(repo, nil).Execute(ctx, staff, client.ID, itoa(held.ID))
	require.NoError(t, err)

	p, err := enrollment.NewGetProfile(repo).Execute(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, p.Packages, 1)
	require.Len(t, p.AvailablePackages, 1)
	assert.Equal(t, free.ID, p.AvailablePackages[0].ID)
}
