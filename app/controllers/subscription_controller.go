package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/SubTrackr/internal/pkg/subscriptions"
)

type SubscriptionController struct {
	manager *subscriptions.Manager
	now     func() time.Time
}

func NewSubscriptionController(manager *subscriptions.Manager) *SubscriptionController {
	return &SubscriptionController{manager: manager, now: time.Now}
}

type createSubscriptionRequest struct {
	PlanID       string           `json:"plan_id" form:"plan_id"`
	CustomName   *string          `json:"custom_name" form:"custom_name"`
	CustomPrice  *decimal.Decimal `json:"custom_price"`
	ReminderDate string           `json:"reminder_date" form:"reminder_date"`
}

// HandleList returns the user's active subscriptions with display fields.
func (sc *SubscriptionController) HandleList(c *fiber.Ctx) error {
	subs, err := sc.manager.List(c.UserContext(), currentUserID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"subscriptions": subscriptions.DescribeAll(subs, sc.now())})
}

func (sc *SubscriptionController) HandleCreate(c *fiber.Ctx) error {
	var req createSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	reminder, err := parseDate(req.ReminderDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_error",
			"field":   "reminder_date",
			"message": "must be a date (YYYY-MM-DD)",
		})
	}

	sub, err := sc.manager.Create(c.UserContext(), subscriptions.CreateInput{
		UserID:         currentUserID(c),
		PlanExternalID: req.PlanID,
		CustomName:     req.CustomName,
		CustomPrice:    req.CustomPrice,
		ReminderDate:   reminder,
	})
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(subscriptions.Describe(sub, sc.now()))
}

// HandleAddFromCatalog adds a catalog plan with its defaults.
func (sc *SubscriptionController) HandleAddFromCatalog(c *fiber.Ctx) error {
	sub, err := sc.manager.AddFromCatalog(c.UserContext(), currentUserID(c), c.Params("external_id"))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(subscriptions.Describe(sub, sc.now()))
}

func (sc *SubscriptionController) HandleDelete(c *fiber.Ctx) error {
	id, ok := parseID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid subscription id")
	}
	if err := sc.manager.DeleteForUser(c.UserContext(), currentUserID(c), id); err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
