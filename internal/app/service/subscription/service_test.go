package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/authartic/certify/internal/models"
	"github.com/authartic/certify/pkg/types"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.VendorInfo{},
		&models.SubscriptionPlan{},
		&models.SubscriptionPlanFeature{},
		&models.SubscriptionStatus{},
	)
	require.NoError(t, err)
	return db
}

func createVendor(t *testing.T, db *gorm.DB, email string, verified bool) *types.Principal {
	t.Helper()
	user := models.User{UserName: "vendor", Email: email, Role: types.UserRoleVendor}
	require.NoError(t, db.Create(&user).Error)

	vi := models.VendorInfo{UserID: user.ID, IsVerifiedEmail: true}
	if verified {
		code := "VC-001"
		vi.ValidationCode = &code
	}
	require.NoError(t, db.Create(&vi).Error)

	return &types.Principal{ID: user.ID, Role: types.UserRoleVendor, Email: user.Email}
}

func createPlan(t *testing.T, db *gorm.DB, name string, grant string) *models.SubscriptionPlan {
	t.Helper()
	plan := models.SubscriptionPlan{
		Name: name,
		Features: []models.SubscriptionPlanFeature{
			{Name: types.PlanFeatureMonthlyCertificates, Value: grant},
		},
	}
	require.NoError(t, db.Create(&plan).Error)
	return &plan
}

func TestActivatePlan(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	vendor := createVendor(t, db, "vendor@example.com", true)
	plan := createPlan(t, db, "Starter", "50")

	t.Run("rejects non-vendor", func(t *testing.T) {
		_, err := svc.ActivatePlan(ctx, &types.Principal{ID: vendor.ID, Role: types.UserRoleUser}, plan.ID)
		assert.ErrorIs(t, err, ErrNotVendor)
	})

	t.Run("rejects unknown plan", func(t *testing.T) {
		_, err := svc.ActivatePlan(ctx, vendor, 9999)
		assert.ErrorIs(t, err, ErrPlanNotFound)
	})

	t.Run("grants the plan quota", func(t *testing.T) {
		status, err := svc.ActivatePlan(ctx, vendor, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, 50, status.RemainingCertificates)
		assert.Equal(t, 0, status.TotalCertificatesIssued)
		assert.False(t, status.IsExpired)
		assert.True(t, status.PlanActivatedDate.Equal(now))
		assert.True(t, status.PlanExpiryDate.Equal(now.AddDate(0, 0, 30)))
	})

	t.Run("re-activation overwrites remainder, keeps total", func(t *testing.T) {
		require.NoError(t, db.Model(&models.SubscriptionStatus{}).
			Where("user_id = ?", vendor.ID).
			Updates(map[string]interface{}{"remaining_certificates": 3, "total_certificates_issued": 47, "is_expired": true}).Error)

		status, err := svc.ActivatePlan(ctx, vendor, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, 50, status.RemainingCertificates)
		assert.Equal(t, 47, status.TotalCertificatesIssued)
		assert.False(t, status.IsExpired)

		var count int64
		require.NoError(t, db.Model(&models.SubscriptionStatus{}).Where("user_id = ?", vendor.ID).Count(&count).Error)
		assert.EqualValues(t, 1, count, "activation must upsert, not insert a second ledger row")
	})
}

func TestActivatePlan_VendorGates(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())
	ctx := context.Background()
	plan := createPlan(t, db, "Starter", "50")

	t.Run("vendor without admin validation", func(t *testing.T) {
		vendor := createVendor(t, db, "pending@example.com", false)
		_, err := svc.ActivatePlan(ctx, vendor, plan.ID)
		assert.ErrorIs(t, err, ErrVendorNotValidated)
	})

	t.Run("vendor with unverified email", func(t *testing.T) {
		user := models.User{UserName: "v2", Email: "unverified@example.com", Role: types.UserRoleVendor}
		require.NoError(t, db.Create(&user).Error)
		code := "VC-002"
		require.NoError(t, db.Create(&models.VendorInfo{UserID: user.ID, ValidationCode: &code, IsVerifiedEmail: false}).Error)

		_, err := svc.ActivatePlan(ctx, &types.Principal{ID: user.ID, Role: types.UserRoleVendor}, plan.ID)
		assert.ErrorIs(t, err, ErrEmailNotVerified)
	})

	t.Run("plan without a certificate feature", func(t *testing.T) {
		vendor := createVendor(t, db, "v3@example.com", true)
		bare := models.SubscriptionPlan{Name: "Bare"}
		require.NoError(t, db.Create(&bare).Error)

		_, err := svc.ActivatePlan(ctx, vendor, bare.ID)
		assert.ErrorIs(t, err, ErrFeatureNotFound)
	})
}

func TestReserve(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())
	ctx := context.Background()

	var nextUser uint
	seed := func(remaining int) uint {
		nextUser++
		status := models.SubscriptionStatus{
			UserID:                nextUser,
			PlanID:                1,
			RemainingCertificates: remaining,
			PlanActivatedDate:     time.Now(),
			PlanExpiryDate:        time.Now().AddDate(0, 0, 30),
		}
		require.NoError(t, db.Create(&status).Error)
		return status.ID
	}

	t.Run("decrements remaining", func(t *testing.T) {
		id := seed(5)
		status, err := svc.Reserve(ctx, db, id, 3)
		require.NoError(t, err)
		assert.Equal(t, 2, status.RemainingCertificates)

		var row models.SubscriptionStatus
		require.NoError(t, db.First(&row, id).Error)
		assert.Equal(t, 2, row.RemainingCertificates)
	})

	t.Run("empty quota", func(t *testing.T) {
		id := seed(0)
		_, err := svc.Reserve(ctx, db, id, 1)
		assert.ErrorIs(t, err, ErrNoRemainingCertificates)
	})

	t.Run("insufficient quota reports exact remainder", func(t *testing.T) {
		id := seed(2)
		_, err := svc.Reserve(ctx, db, id, 3)

		var capErr *CapacityError
		require.ErrorAs(t, err, &capErr)
		assert.Equal(t, 2, capErr.Remaining)
		assert.Equal(t, "you have only 2 certificates available", err.Error())

		var row models.SubscriptionStatus
		require.NoError(t, db.First(&row, id).Error)
		assert.Equal(t, 2, row.RemainingCertificates, "failed reservation must not touch the ledger")
	})

	t.Run("single remaining uses singular message", func(t *testing.T) {
		id := seed(1)
		_, err := svc.Reserve(ctx, db, id, 2)
		require.Error(t, err)
		assert.Equal(t, "you have only 1 certificate available", err.Error())
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := svc.Reserve(ctx, db, 9999, 1)
		assert.ErrorIs(t, err, ErrStatusNotFound)
	})
}

func TestSpend(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())
	ctx := context.Background()

	status := models.SubscriptionStatus{
		UserID:                  1,
		PlanID:                  1,
		RemainingCertificates:   10,
		TotalCertificatesIssued: 40,
		PlanActivatedDate:       time.Now(),
		PlanExpiryDate:          time.Now().AddDate(0, 0, 30),
	}
	require.NoError(t, db.Create(&status).Error)

	got, err := svc.Spend(ctx, db, status.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 44, got.TotalCertificatesIssued)
	assert.Equal(t, 6, got.RemainingCertificates)
}

func TestSpend_InterleavedCommitsCannotRefundEachOther(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())
	ctx := context.Background()

	status := models.SubscriptionStatus{
		UserID:                1,
		PlanID:                1,
		RemainingCertificates: 5,
		PlanActivatedDate:     time.Now(),
		PlanExpiryDate:        time.Now().AddDate(0, 0, 30),
	}
	require.NoError(t, db.Create(&status).Error)

	// Two issuance paths read the ledger while it still shows the full grant,
	// then commit one after the other. Both commits are relative, so the
	// second must not restore what the first already spent.
	var readA, readB models.SubscriptionStatus
	require.NoError(t, db.First(&readA, status.ID).Error)
	require.NoError(t, db.First(&readB, status.ID).Error)
	assert.Equal(t, 5, readA.RemainingCertificates)
	assert.Equal(t, 5, readB.RemainingCertificates)

	_, err := svc.Spend(ctx, db, readA.ID, 1)
	require.NoError(t, err)
	_, err = svc.Spend(ctx, db, readB.ID, 1)
	require.NoError(t, err)

	var final models.SubscriptionStatus
	require.NoError(t, db.First(&final, status.ID).Error)
	assert.Equal(t, 3, final.RemainingCertificates, "two issuances of 1 from a grant of 5 must leave 3")
	assert.Equal(t, 2, final.TotalCertificatesIssued)
}

func TestFindByUserID_NoStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())

	status, err := svc.FindByUserID(context.Background(), 123)
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestExpireDue(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	mk := func(userID uint, expiry time.Time, expired bool) {
		require.NoError(t, db.Create(&models.SubscriptionStatus{
			UserID:            userID,
			PlanID:            1,
			PlanActivatedDate: expiry.AddDate(0, 0, -30),
			PlanExpiryDate:    expiry,
			IsExpired:         expired,
		}).Error)
	}
	mk(1, now.AddDate(0, 0, -5), false) // lapsed, to flip
	mk(2, now.AddDate(0, 0, -1), false) // lapsed, to flip
	mk(3, now.AddDate(0, 0, 10), false) // current
	mk(4, now.AddDate(0, 0, -9), true)  // already flagged

	expired, err := svc.ExpireDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, expired)

	var flagged []models.SubscriptionStatus
	require.NoError(t, db.Where("is_expired = ?", true).Order("user_id").Find(&flagged).Error)
	require.Len(t, flagged, 3)
	assert.EqualValues(t, 1, flagged[0].UserID)
	assert.EqualValues(t, 2, flagged[1].UserID)
	assert.EqualValues(t, 4, flagged[2].UserID)

	var current models.SubscriptionStatus
	require.NoError(t, db.Where("user_id = ?", 3).First(&current).Error)
	assert.False(t, current.IsExpired)
	assert.True(t, current.Active(now))

	// Second sweep finds nothing new.
	expired, err = svc.ExpireDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestCreateAndListPlans(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, &CreatePlanInput{
		Name:        "Pro",
		Description: "for growing vendors",
		Price:       29.99,
		Features: []PlanFeatureInput{
			{Name: types.PlanFeatureMonthlyCertificates, Value: "200"},
			{Name: "Priority Support", Value: "true"},
		},
	})
	require.NoError(t, err)
	require.NotZero(t, plan.ID)

	got, err := svc.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pro", got.Name)
	require.Len(t, got.Features, 2)

	plans, err := svc.ListPlans(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, 1)

	_, err = svc.GetPlan(ctx, plan.ID+1)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}
