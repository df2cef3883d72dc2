package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/SubTrackr/app/models"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/search"
)

// SubscriptionLister loads a user's active subscriptions.
type SubscriptionLister interface {
	List(ctx context.Context, userID string) ([]models.Subscription, error)
}

type CatalogController struct {
	searcher *search.Searcher
	subs     SubscriptionLister
}

func NewCatalogController(searcher *search.Searcher, subs SubscriptionLister) *CatalogController {
	return &CatalogController{searcher: searcher, subs: subs}
}

// userSubscriptions returns the subscriptions that hide catalog entries.
// Anonymous visitors see the full catalog.
func (cc *CatalogController) userSubscriptions(c *fiber.Ctx) ([]models.Subscription, error) {
	userID := currentUserID(c)
	if userID == "" {
		return nil, nil
	}
	return cc.subs.List(c.UserContext(), userID)
}

// HandleSearch is the typeahead endpoint: GET /api/v1/catalog/search?q=
func (cc *CatalogController) HandleSearch(c *fiber.Ctx) error {
	subs, err := cc.userSubscriptions(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	plans, err := cc.searcher.Search(c.UserContext(), c.Query("q"), subs)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"results": planViews(plans)})
}

func (cc *CatalogController) HandlePopular(c *fiber.Ctx) error {
	subs, err := cc.userSubscriptions(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	plans, err := cc.searcher.Popular(c.UserContext(), subs)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"results": planViews(plans)})
}

// HandleCatalog lists every plan cheapest first, optionally by ?category=
func (cc *CatalogController) HandleCatalog(c *fiber.Ctx) error {
	subs, err := cc.userSubscriptions(c)
	if err != nil {
		return handleServiceError(c, err)
	}
	plans, err := cc.searcher.Catalog(c.UserContext(), c.Query("category"), subs)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"results": planViews(plans)})
}

func (cc *CatalogController) HandleCategories(c *fiber.Ctx) error {
	names, err := cc.searcher.Categories(c.UserContext())
	if err != nil {
		return handleServiceError(c, err)
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(fiber.Map{"categories": names})
}
