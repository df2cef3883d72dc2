package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DisplayNameSeparator joins service and plan names in a subscription's
// display name ("Netflix - Premium").
const DisplayNameSeparator = " - "

// Subscription is a plan a user pays for. It references the plan by the
// feed's external id, not by a surrogate key.
type Subscription struct {
	ID             uint64              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         string              `gorm:"type:varchar(191);not null;index:idx_user_subscriptions_user_active,priority:1" json:"user_id"`
	PlanExternalID string              `gorm:"type:varchar(191);not null;index" json:"plan_external_id"`
	Plan           *Plan               `gorm:"foreignKey:PlanExternalID;references:ExternalID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"plan,omitempty"`
	CustomName     *string             `gorm:"type:varchar(255);default:null" json:"custom_name,omitempty"`
	CustomPrice    decimal.NullDecimal `gorm:"type:decimal(10,2);default:null" json:"custom_price"`
	ReminderDate   datatypes.Date      `gorm:"not null" json:"reminder_date"`
	Active         bool                `gorm:"not null;default:true;index:idx_user_subscriptions_user_active,priority:2" json:"active"`
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the Subscription model
func (Subscription) TableName() string {
	return "user_subscriptions"
}

// DisplayName is the custom name when set, otherwise "Service - Plan".
func (s *Subscription) DisplayName() string {
	if s.CustomName != nil && *s.CustomName != "" {
		return *s.CustomName
	}
	service := s.Plan.ServiceName()
	plan := ""
	if s.Plan != nil {
		plan = s.Plan.Name
	}
	switch {
	case service == "":
		return plan
	case plan == "":
		return service
	default:
		return service + DisplayNameSeparator + plan
	}
}

// ServiceID returns the service of the subscribed plan, or 0 when the plan
// was not loaded.
func (s *Subscription) ServiceID() uint {
	if s.Plan == nil {
		return 0
	}
	return s.Plan.ServiceID
}

// EffectivePrice is the custom price, falling back to the plan's base price.
func (s *Subscription) EffectivePrice() decimal.Decimal {
	if s.CustomPrice.Valid {
		return s.CustomPrice.Decimal
	}
	if s.Plan != nil {
		return s.Plan.BasePrice
	}
	return decimal.Zero
}

// ReminderTime returns the reminder date as a time.Time.
func (s *Subscription) ReminderTime() time.Time {
	return time.Time(s.ReminderDate)
}
