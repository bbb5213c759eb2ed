package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubscriptionStatus is the per-vendor quota ledger row: one per user,
// overwritten on each plan re-activation. RemainingCertificates is only
// decremented through the guarded reserve path and never goes below zero;
// TotalCertificatesIssued never decreases.
type SubscriptionStatus struct {
	ID                      uint              `gorm:"column:id;primaryKey" json:"id"`
	UserID                  uint              `gorm:"column:user_id;not null;uniqueIndex" json:"user_id"`
	PlanID                  uint              `gorm:"column:plan_id;not null" json:"plan_id"`
	RemainingCertificates   int               `gorm:"column:remaining_certificates;not null;default:0" json:"remaining_certificates"`
	TotalCertificatesIssued int               `gorm:"column:total_certificates_issued;not null;default:0" json:"total_certificates_issued"`
	PlanActivatedDate       time.Time         `gorm:"column:plan_activated_date;not null" json:"plan_activated_date"`
	PlanExpiryDate          time.Time         `gorm:"column:plan_expiry_date;not null" json:"plan_expiry_date"`
	IsExpired               bool              `gorm:"column:is_expired;not null;default:false" json:"is_expired"`
	AdditionalCost          float64           `gorm:"column:additional_cost;not null;default:0" json:"additional_cost"`
	AdditionalFeatureStatus datatypes.JSONMap `gorm:"column:additional_feature_status;type:jsonb;default:'{}'" json:"additional_feature_status"`
	Plan                    *SubscriptionPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	User                    *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt               time.Time         `json:"created_at"`
	UpdatedAt               time.Time         `json:"updated_at"`
}

func (SubscriptionStatus) TableName() string {
	return "subscription_status"
}

// Active reports whether the term is usable for issuance at the given time.
// IsExpired is the cached flag maintained by the sweeper; the date check
// covers rows the sweeper has not visited yet.
func (s *SubscriptionStatus) Active(now time.Time) bool {
	return s != nil && !s.IsExpired && s.PlanExpiryDate.After(now)
}
