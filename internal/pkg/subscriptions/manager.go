// Package subscriptions manages the plans a user pays for.
package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ManuelReschke/SubTrackr/app/models"
	"github.com/ManuelReschke/SubTrackr/app/repository"
)

// PlanFinder resolves catalog plans by external id.
type PlanFinder interface {
	GetPlan(ctx context.Context, externalID string) (*models.Plan, error)
}

// CreateInput carries a new subscription. UserID comes from the session.
type CreateInput struct {
	UserID         string           `validate:"required"`
	PlanExternalID string           `validate:"required,max=191"`
	CustomName     *string          `validate:"omitempty,max=255"`
	CustomPrice    *decimal.Decimal `validate:"-"`
	ReminderDate   *time.Time       `validate:"-"`
}

var fieldNames = map[string]string{
	"UserID":         "user_id",
	"PlanExternalID": "plan_external_id",
	"CustomName":     "custom_name",
}

func (in *CreateInput) Validate() error {
	in.UserID = strings.TrimSpace(in.UserID)
	in.PlanExternalID = strings.TrimSpace(in.PlanExternalID)

	v := validator.New()
	err := v.Struct(in)
	if err == nil {
		if in.CustomPrice != nil && in.CustomPrice.IsNegative() {
			return &ValidationError{Field: "custom_price", Message: "must not be negative"}
		}
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := "is required"
		if fe.Tag() == "max" {
			msg = "must be at most " + fe.Param() + " characters"
		}
		return &ValidationError{Field: fieldNames[fe.Field()], Message: msg}
	}
	return err
}

type Manager struct {
	plans PlanFinder
	subs  repository.SubscriptionRepository
	now   func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the clock used for default reminder dates.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func NewManager(plans PlanFinder, subs repository.SubscriptionRepository, opts ...Option) *Manager {
	m := &Manager{plans: plans, subs: subs, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create stores an active subscription to an existing plan. The price
// defaults to the plan's base price and the reminder to one month from today.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*models.Subscription, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	plan, err := m.plans.GetPlan(ctx, in.PlanExternalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ValidationError{Field: "plan_external_id", Message: "plan not found"}
		}
		return nil, fmt.Errorf("load plan %s: %w", in.PlanExternalID, err)
	}

	sub := &models.Subscription{
		UserID:         in.UserID,
		PlanExternalID: plan.ExternalID,
		Active:         true,
	}
	if in.CustomName != nil {
		if name := strings.TrimSpace(*in.CustomName); name != "" {
			sub.CustomName = &name
		}
	}

	price := plan.BasePrice
	if in.CustomPrice != nil {
		price = *in.CustomPrice
	}
	sub.CustomPrice = decimal.NewNullDecimal(price)

	reminder := m.now().AddDate(0, 1, 0)
	if in.ReminderDate != nil && !in.ReminderDate.IsZero() {
		reminder = *in.ReminderDate
	}
	sub.ReminderDate = dateOf(reminder)

	if err := m.subs.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	sub.Plan = plan

	log.Infof("[Subscriptions] User %s subscribed to plan %s (id %d)", sub.UserID, sub.PlanExternalID, sub.ID)
	return sub, nil
}

// AddFromCatalog is the one-click add from the catalog listing.
func (m *Manager) AddFromCatalog(ctx context.Context, userID, planExternalID string) (*models.Subscription, error) {
	return m.Create(ctx, CreateInput{UserID: userID, PlanExternalID: planExternalID})
}

// List returns the user's active subscriptions with plan, service and
// category loaded, in creation order.
func (m *Manager) List(ctx context.Context, userID string) ([]models.Subscription, error) {
	if strings.TrimSpace(userID) == "" {
		return []models.Subscription{}, nil
	}
	subs, err := m.subs.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	if subs == nil {
		subs = []models.Subscription{}
	}
	return subs, nil
}

func (m *Manager) Get(ctx context.Context, id uint64) (*models.Subscription, error) {
	sub, err := m.subs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get subscription %d: %w", id, err)
	}
	return sub, nil
}

// Delete removes the subscription for good. Deleting an unknown id succeeds.
func (m *Manager) Delete(ctx context.Context, id uint64) error {
	affected, err := m.subs.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete subscription %d: %w", id, err)
	}
	if affected == 0 {
		log.Debugf("[Subscriptions] Delete of unknown subscription %d", id)
	}
	return nil
}

// DeleteForUser deletes id after checking it belongs to userID.
func (m *Manager) DeleteForUser(ctx context.Context, userID string, id uint64) error {
	sub, err := m.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if sub.UserID != userID {
		return ErrForbidden
	}
	return m.Delete(ctx, id)
}

func dateOf(t time.Time) datatypes.Date {
	y, mo, d := t.Date()
	return datatypes.Date(time.Date(y, mo, d, 0, 0, 0, 0, time.UTC))
}
