package models

import "time"

type SubscriptionPlan struct {
	ID          uint                      `gorm:"column:id;primaryKey" json:"id"`
	Name        string                    `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Description string                    `gorm:"column:description;type:text" json:"description"`
	Price       float64                   `gorm:"column:price;not null;default:0" json:"price"`
	Features    []SubscriptionPlanFeature `gorm:"foreignKey:PlanID" json:"features,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plan"
}

// SubscriptionPlanFeature is a named value on a plan, e.g.
// "Free Monthly Certificates" = "50". Values stay strings so non-numeric
// features (feature flags, labels) share the table.
type SubscriptionPlanFeature struct {
	ID        uint      `gorm:"column:id;primaryKey" json:"id"`
	PlanID    uint      `gorm:"column:plan_id;not null;index" json:"plan_id"`
	Name      string    `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Value     string    `gorm:"column:value;type:varchar(128)" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SubscriptionPlanFeature) TableName() string {
	return "subscription_plan_feature"
}
