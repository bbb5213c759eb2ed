package subscription

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/authartic/certify/internal/models"
	"github.com/authartic/certify/pkg/logctx"
	"github.com/authartic/certify/pkg/metrics"
	"github.com/authartic/certify/pkg/types"
)

const planTermDays = 30

// Service is the quota ledger: it owns subscription-status rows, plan
// activation and the reservation path every issuance goes through.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
	now func() time.Time
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log, now: time.Now}
}

// ActivatePlan grants a fresh issuance quota to a verified vendor. The grant
// size comes from the plan's "Free Monthly Certificates" feature. Activation
// overwrites any prior remainder rather than adding to it; the cumulative
// issued counter is preserved across terms.
func (s *Service) ActivatePlan(ctx context.Context, principal *types.Principal, planID uint) (*models.SubscriptionStatus, error) {
	if !principal.IsVendor() {
		return nil, ErrNotVendor
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ? AND is_deleted = ?", principal.ID, false).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	var vendorInfo models.VendorInfo
	if err := s.db.WithContext(ctx).Where("user_id = ?", principal.ID).First(&vendorInfo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorInfoNotFound
		}
		return nil, fmt.Errorf("failed to load vendor info: %w", err)
	}
	if !vendorInfo.IsVerifiedEmail {
		return nil, ErrEmailNotVerified
	}
	if !vendorInfo.Verified() {
		return nil, ErrVendorNotValidated
	}

	var plan models.SubscriptionPlan
	if err := s.db.WithContext(ctx).Preload("Features").Where("id = ?", planID).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	feature, ok := lo.Find(plan.Features, func(f models.SubscriptionPlanFeature) bool {
		return f.Name == types.PlanFeatureMonthlyCertificates
	})
	if !ok {
		return nil, ErrFeatureNotFound
	}
	grant, err := strconv.Atoi(feature.Value)
	if err != nil {
		grant = 0
	}

	now := s.now()
	var status models.SubscriptionStatus
	err = s.db.WithContext(ctx).Where("user_id = ?", principal.ID).First(&status).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load subscription status: %w", err)
	}

	status.UserID = principal.ID
	status.PlanID = plan.ID
	status.RemainingCertificates = grant
	status.PlanActivatedDate = now
	status.PlanExpiryDate = now.AddDate(0, 0, planTermDays)
	status.IsExpired = false
	status.AdditionalCost = 0

	if err := s.db.WithContext(ctx).Save(&status).Error; err != nil {
		return nil, fmt.Errorf("failed to save subscription status: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("subscription plan activated",
		"user_id", principal.ID, "plan_id", plan.ID, "grant", grant)

	status.Plan = &plan
	return &status, nil
}

// Reserve atomically takes count certificates from the remaining quota. It
// runs inside the caller's transaction so a crash between reservation and
// certificate writes cannot silently burn quota. The decrement is a guarded
// UPDATE; two concurrent issuances cannot both pass with a shared remainder.
func (s *Service) Reserve(ctx context.Context, tx *gorm.DB, statusID uint, count int) (*models.SubscriptionStatus, error) {
	var status models.SubscriptionStatus
	if err := tx.WithContext(ctx).Where("id = ?", statusID).First(&status).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStatusNotFound
		}
		return nil, fmt.Errorf("failed to load subscription status: %w", err)
	}
	if status.RemainingCertificates <= 0 {
		return nil, ErrNoRemainingCertificates
	}

	res := tx.WithContext(ctx).Model(&models.SubscriptionStatus{}).
		Where("id = ? AND remaining_certificates >= ?", statusID, count).
		UpdateColumn("remaining_certificates", gorm.Expr("remaining_certificates - ?", count))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to reserve quota: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, &CapacityError{Remaining: status.RemainingCertificates}
	}

	status.RemainingCertificates -= count
	return &status, nil
}

// Spend commits an issuance against the ledger: the guarded reservation plus
// the matching bump of the cumulative issued counter. Both updates are
// relative, so a commit working from an older read of the row can never undo
// what another issuance already committed.
func (s *Service) Spend(ctx context.Context, tx *gorm.DB, statusID uint, count int) (*models.SubscriptionStatus, error) {
	if _, err := s.Reserve(ctx, tx, statusID, count); err != nil {
		return nil, err
	}
	res := tx.WithContext(ctx).Model(&models.SubscriptionStatus{}).
		Where("id = ?", statusID).
		UpdateColumn("total_certificates_issued", gorm.Expr("total_certificates_issued + ?", count))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update issued counter: %w", res.Error)
	}

	var status models.SubscriptionStatus
	if err := tx.WithContext(ctx).Where("id = ?", statusID).First(&status).Error; err != nil {
		return nil, fmt.Errorf("failed to reload subscription status: %w", err)
	}
	return &status, nil
}

// FindByUserID returns a user's ledger row with its plan and features, or
// nil when no plan was ever activated.
func (s *Service) FindByUserID(ctx context.Context, userID uint) (*models.SubscriptionStatus, error) {
	var status models.SubscriptionStatus
	err := s.db.WithContext(ctx).Preload("Plan.Features").Where("user_id = ?", userID).First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription status: %w", err)
	}
	return &status, nil
}

// ExpireDue flips every lapsed, still-unflagged status to expired. Per-row
// failures are logged and skipped so one bad row never blocks the sweep.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	now := s.now()
	var statuses []models.SubscriptionStatus
	if err := s.db.WithContext(ctx).Where("is_expired = ?", false).Find(&statuses).Error; err != nil {
		return 0, fmt.Errorf("failed to list subscription statuses: %w", err)
	}

	expired := 0
	for i := range statuses {
		status := &statuses[i]
		if !status.PlanExpiryDate.Before(now) {
			continue
		}
		if err := s.db.WithContext(ctx).Model(status).UpdateColumn("is_expired", true).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorw("failed to expire subscription status",
				"status_id", status.ID, "user_id", status.UserID, "err", err)
			continue
		}
		expired++
		metrics.SubscriptionsExpired.Inc()
	}
	return expired, nil
}

// ListPlans returns all plans with their features.
func (s *Service) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	if err := s.db.WithContext(ctx).Preload("Features").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// GetPlan returns one plan with its features.
func (s *Service) GetPlan(ctx context.Context, id uint) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := s.db.WithContext(ctx).Preload("Features").Where("id = ?", id).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	return &plan, nil
}

// CreatePlanInput describes a new plan and its features.
type CreatePlanInput struct {
	Name        string             `json:"name" binding:"required"`
	Description string             `json:"description"`
	Price       float64            `json:"price"`
	Features    []PlanFeatureInput `json:"features"`
}

type PlanFeatureInput struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value"`
}

// CreatePlan inserts a plan with its features in one transaction.
func (s *Service) CreatePlan(ctx context.Context, input *CreatePlanInput) (*models.SubscriptionPlan, error) {
	plan := models.SubscriptionPlan{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Features: lo.Map(input.Features, func(f PlanFeatureInput, _ int) models.SubscriptionPlanFeature {
			return models.SubscriptionPlanFeature{Name: f.Name, Value: f.Value}
		}),
	}
	if err := s.db.WithContext(ctx).Create(&plan).Error; err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	return &plan, nil
}
