package subscriptions

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"

	"github.com/ManuelReschke/SubTrackr/app/models"
)

func subscription(frequency string, reminder time.Time) *models.Subscription {
	return &models.Subscription{
		ID:             7,
		PlanExternalID: "NF-1",
		ReminderDate:   datatypes.Date(reminder),
		Plan: &models.Plan{
			ExternalID:       "NF-1",
			Name:             "Premium",
			BasePrice:        decimal.RequireFromString("120"),
			Currency:         "USD",
			BillingFrequency: frequency,
			Service:          &models.Service{Name: "Netflix", Category: &models.Category{Name: "Video"}},
		},
	}
}

func TestDescribe_Badges(t *testing.T) {
	now := time.Date(2026, 10, 15, 23, 59, 0, 0, time.UTC)
	day := func(offset int) time.Time { return time.Date(2026, 10, 15+offset, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name   string
		offset int
		want   []string
	}{
		{name: "today", offset: 0, want: []string{}},
		{name: "tomorrow", offset: 1, want: []string{BadgeUpcoming}},
		{name: "in seven days", offset: 7, want: []string{BadgeUpcoming}},
		{name: "in eight days", offset: 8, want: []string{}},
		{name: "yesterday", offset: -1, want: []string{BadgeOverdue}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Describe(subscription("Mensual", day(tt.offset)), now)
			assert.Equal(t, tt.offset, v.DaysUntilReminder)
			assert.Equal(t, tt.want, v.Badges)
		})
	}
}

func TestDescribe_AnnualPlan(t *testing.T) {
	now := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	v := Describe(subscription("Pago Anual", now.AddDate(0, 0, 3)), now)

	assert.Equal(t, models.BillingCycleYearly, v.BillingCycle)
	assert.Equal(t, []string{BadgeUpcoming, BadgeAnnual}, v.Badges)
	assert.True(t, v.MonthlyPrice.Equal(decimal.NewFromInt(10)))
	assert.True(t, v.Price.Equal(decimal.NewFromInt(120)))
}

func TestDescribe_Fields(t *testing.T) {
	now := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	sub := subscription("Mensual", time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC))
	sub.CustomPrice = decimal.NewNullDecimal(decimal.RequireFromString("15.50"))

	v := Describe(sub, now)
	assert.Equal(t, "Netflix - Premium", v.Name)
	assert.Equal(t, "Netflix", v.ServiceName)
	assert.Equal(t, "Premium", v.PlanName)
	assert.Equal(t, "Video", v.Category)
	assert.Equal(t, "USD", v.Currency)
	assert.Equal(t, "2026-11-01", v.ReminderDate)
	assert.Equal(t, 17, v.DaysUntilReminder)
	assert.True(t, v.MonthlyPrice.Equal(decimal.RequireFromString("15.50")))
}

func TestDescribe_WithoutPlan(t *testing.T) {
	sub := &models.Subscription{CustomName: lo.ToPtr("Gym")}

	v := Describe(sub, time.Now())
	assert.Equal(t, "Gym", v.Name)
	assert.True(t, v.Price.IsZero())
	assert.Equal(t, models.BillingCycleMonthly, v.BillingCycle)
	assert.Equal(t, "", v.ReminderDate)
	assert.Empty(t, v.Badges)
}

func TestDaysUntil_IgnoresTimeOfDay(t *testing.T) {
	now := time.Date(2026, 3, 28, 23, 0, 0, 0, time.UTC)
	target := time.Date(2026, 3, 29, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysUntil(now, target))
}
