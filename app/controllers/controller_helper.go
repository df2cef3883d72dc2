package controllers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/SubTrackr/app/models"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/subscriptions"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/usercontext"
)

// jsonError writes the API error shape {"error": code, "message": msg}.
func jsonError(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": msg})
}

// handleServiceError maps domain errors onto HTTP status codes.
func handleServiceError(c *fiber.Ctx, err error) error {
	var verr *subscriptions.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"field":   verr.Field,
			"message": verr.Message,
		})
	case errors.Is(err, subscriptions.ErrNotFound):
		return jsonError(c, fiber.StatusNotFound, "not_found", "Subscription not found")
	case errors.Is(err, subscriptions.ErrForbidden):
		return jsonError(c, fiber.StatusForbidden, "forbidden", "Subscription belongs to another user")
	default:
		log.Errorf("[API] %s %s failed: %v", c.Method(), c.Path(), err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Request failed")
	}
}

// currentUserID returns the logged-in user's id or "".
func currentUserID(c *fiber.Ctx) string {
	return usercontext.GetUserID(c)
}

func parseID(raw string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	return id, err == nil && id > 0
}

// parseDate accepts YYYY-MM-DD or RFC3339.
func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// PlanView is the JSON shape of a catalog plan.
type PlanView struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	ServiceID        uint            `json:"service_id"`
	Service          string          `json:"service"`
	Category         string          `json:"category"`
	BasePrice        decimal.Decimal `json:"base_price"`
	Currency         string          `json:"currency"`
	BillingFrequency string          `json:"billing_frequency"`
	BillingCycle     string          `json:"billing_cycle"`
	Features         string          `json:"features"`
	TrialAvailable   bool            `json:"trial_available"`
	Country          string          `json:"country"`
}

func planViews(plans []models.Plan) []PlanView {
	views := make([]PlanView, 0, len(plans))
	for i := range plans {
		p := &plans[i]
		views = append(views, PlanView{
			ID:               p.ExternalID,
			Name:             p.Name,
			ServiceID:        p.ServiceID,
			Service:          p.ServiceName(),
			Category:         p.Service.CategoryName(),
			BasePrice:        p.BasePrice,
			Currency:         p.Currency,
			BillingFrequency: p.BillingFrequency,
			BillingCycle:     p.BillingCycle(),
			Features:         p.Features,
			TrialAvailable:   p.TrialAvailable,
			Country:          p.Country,
		})
	}
	return views
}
