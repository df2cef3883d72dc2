package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Feed defaults applied when a record omits the field.
const (
	DefaultCurrency         = "EUR"
	DefaultBillingFrequency = "Mensual"
	DefaultCountry          = "Global"
)

const (
	BillingCycleMonthly = "monthly"
	BillingCycleYearly  = "yearly"
)

// Plan is a purchasable plan of a Service, keyed by the feed's plan id.
type Plan struct {
	ExternalID       string          `gorm:"primaryKey;type:varchar(191)" json:"external_id"`
	ServiceID        uint            `gorm:"not null;index" json:"service_id"`
	Service          *Service        `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	Name             string          `gorm:"type:varchar(255);not null;default:''" json:"name"`
	BasePrice        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"base_price"`
	Currency         string          `gorm:"type:varchar(8);not null;default:'EUR'" json:"currency"`
	BillingFrequency string          `gorm:"type:varchar(50);not null;default:'Mensual'" json:"billing_frequency"`
	Features         string          `gorm:"type:text" json:"features"`
	TrialAvailable   bool            `gorm:"default:false" json:"trial_available"`
	Country          string          `gorm:"type:varchar(100);not null;default:'Global'" json:"country"`
	FeedPosition     int             `gorm:"not null;default:0;index" json:"-"`
	LastSyncedAt     time.Time       `gorm:"type:timestamp" json:"last_synced_at"`
}

// TableName specifies the table name for the Plan model
func (Plan) TableName() string {
	return "catalog_plans"
}

// ServiceName returns the resolved service name or "" when not loaded.
func (p *Plan) ServiceName() string {
	if p == nil || p.Service == nil {
		return ""
	}
	return p.Service.Name
}

// BillingCycle maps the free-form feed frequency onto monthly/yearly.
// Anything that does not read as a yearly frequency is treated as monthly.
func (p *Plan) BillingCycle() string {
	if p == nil {
		return BillingCycleMonthly
	}
	return BillingCycleFor(p.BillingFrequency)
}

// BillingCycleFor classifies a feed frequency string.
func BillingCycleFor(frequency string) string {
	f := strings.ToLower(frequency)
	for _, marker := range []string{"anual", "año", "year"} {
		if strings.Contains(f, marker) {
			return BillingCycleYearly
		}
	}
	return BillingCycleMonthly
}
