package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/SubTrackr/internal/pkg/search"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/subscriptions"
)

// Services are the domain services the HTTP handlers delegate to.
type Services struct {
	Syncer        SyncRunner
	Scheduler     SchedulerStatus
	Statistics    SyncStatistics
	Counter       CatalogCounter
	Searcher      *search.Searcher
	Subscriptions *subscriptions.Manager
}

// Global controller instances
var (
	syncController         *SyncController
	catalogController      *CatalogController
	subscriptionController *SubscriptionController
)

// InitializeControllers wires the global controllers to s
func InitializeControllers(s Services) {
	syncController = NewSyncController(s.Syncer, s.Statistics, s.Counter, s.Scheduler)
	catalogController = NewCatalogController(s.Searcher, s.Subscriptions)
	subscriptionController = NewSubscriptionController(s.Subscriptions)
}

func GetSyncController() *SyncController {
	if syncController == nil {
		panic("controllers not initialized. Call InitializeControllers first.")
	}
	return syncController
}

func GetCatalogController() *CatalogController {
	if catalogController == nil {
		panic("controllers not initialized. Call InitializeControllers first.")
	}
	return catalogController
}

func GetSubscriptionController() *SubscriptionController {
	if subscriptionController == nil {
		panic("controllers not initialized. Call InitializeControllers first.")
	}
	return subscriptionController
}

// Adapter functions used by the router

func HandleSync(c *fiber.Ctx) error       { return GetSyncController().HandleSync(c) }
func HandleSyncStatus(c *fiber.Ctx) error { return GetSyncController().HandleSyncStatus(c) }

func HandleCatalogSearch(c *fiber.Ctx) error     { return GetCatalogController().HandleSearch(c) }
func HandleCatalogPopular(c *fiber.Ctx) error    { return GetCatalogController().HandlePopular(c) }
func HandleCatalogList(c *fiber.Ctx) error       { return GetCatalogController().HandleCatalog(c) }
func HandleCatalogCategories(c *fiber.Ctx) error { return GetCatalogController().HandleCategories(c) }

func HandleSubscriptionList(c *fiber.Ctx) error   { return GetSubscriptionController().HandleList(c) }
func HandleSubscriptionCreate(c *fiber.Ctx) error { return GetSubscriptionController().HandleCreate(c) }
func HandleSubscriptionAddFromCatalog(c *fiber.Ctx) error {
	return GetSubscriptionController().HandleAddFromCatalog(c)
}
func HandleSubscriptionDelete(c *fiber.Ctx) error { return GetSubscriptionController().HandleDelete(c) }
