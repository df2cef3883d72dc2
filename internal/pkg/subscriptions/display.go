package subscriptions

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/SubTrackr/app/models"
)

const (
	BadgeUpcoming = "upcoming"
	BadgeOverdue  = "overdue"
	BadgeAnnual   = "annual"

	// UpcomingWindowDays is how many days ahead a reminder counts as upcoming.
	UpcomingWindowDays = 7
)

// View is a subscription with its derived display fields.
type View struct {
	ID                uint64          `json:"id"`
	PlanExternalID    string          `json:"plan_external_id"`
	Name              string          `json:"name"`
	ServiceName       string          `json:"service_name"`
	PlanName          string          `json:"plan_name"`
	Category          string          `json:"category"`
	Price             decimal.Decimal `json:"price"`
	Currency          string          `json:"currency"`
	BillingCycle      string          `json:"billing_cycle"`
	MonthlyPrice      decimal.Decimal `json:"monthly_price"`
	ReminderDate      string          `json:"reminder_date"`
	DaysUntilReminder int             `json:"days_until_reminder"`
	Badges            []string        `json:"badges"`
}

// Describe derives the display fields of sub as seen on now's calendar day.
func Describe(sub *models.Subscription, now time.Time) View {
	cycle := sub.Plan.BillingCycle()
	price := sub.EffectivePrice()

	monthly := price
	if cycle == models.BillingCycleYearly {
		monthly = price.Div(decimal.NewFromInt(12)).Round(2)
	}

	v := View{
		ID:             sub.ID,
		PlanExternalID: sub.PlanExternalID,
		Name:           sub.DisplayName(),
		ServiceName:    sub.Plan.ServiceName(),
		Price:          price,
		Currency:       models.DefaultCurrency,
		BillingCycle:   cycle,
		MonthlyPrice:   monthly,
		Badges:         []string{},
	}
	if sub.Plan != nil {
		v.PlanName = sub.Plan.Name
		v.Currency = sub.Plan.Currency
		if sub.Plan.Service != nil {
			v.Category = sub.Plan.Service.CategoryName()
		}
	}

	reminder := sub.ReminderTime()
	if !reminder.IsZero() {
		v.ReminderDate = reminder.Format(time.DateOnly)
		v.DaysUntilReminder = DaysUntil(now, reminder)
		switch d := v.DaysUntilReminder; {
		case d > 0 && d <= UpcomingWindowDays:
			v.Badges = append(v.Badges, BadgeUpcoming)
		case d < 0:
			v.Badges = append(v.Badges, BadgeOverdue)
		}
	}
	if cycle == models.BillingCycleYearly {
		v.Badges = append(v.Badges, BadgeAnnual)
	}
	return v
}

// DescribeAll describes every subscription in order.
func DescribeAll(subs []models.Subscription, now time.Time) []View {
	views := make([]View, 0, len(subs))
	for i := range subs {
		views = append(views, Describe(&subs[i], now))
	}
	return views
}

// DaysUntil counts calendar days from now's date to the target date.
func DaysUntil(now, target time.Time) int {
	ny, nm, nd := now.Date()
	ty, tm, td := target.Date()
	from := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	to := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
