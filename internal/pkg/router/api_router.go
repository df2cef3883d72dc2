package router

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/SubTrackr/app/controllers"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/env"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/middleware"
)

const (
	// Typeahead sends one request per keystroke.
	defaultAPIRateLimit  = 300
	defaultSyncRateLimit = 5
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", rateLimiter("API_RATE_LIMIT", defaultAPIRateLimit))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// Manual catalog sync, open unless SYNC_API_KEY is set
	api.Get("/sync",
		rateLimiter("SYNC_RATE_LIMIT", defaultSyncRateLimit),
		middleware.SyncKeyMiddleware(env.GetEnv("SYNC_API_KEY", "")),
		controllers.HandleSync,
	)

	v1 := api.Group("/v1")
	v1.Get("/me", controllers.HandleMe)

	catalog := v1.Group("/catalog")
	catalog.Get("/", controllers.HandleCatalogList)
	catalog.Get("/search", controllers.HandleCatalogSearch)
	catalog.Get("/popular", controllers.HandleCatalogPopular)
	catalog.Get("/categories", controllers.HandleCatalogCategories)
	catalog.Get("/sync/status", controllers.HandleSyncStatus)

	subs := v1.Group("/subscriptions", middleware.RequireAPISessionAuth)
	subs.Get("/", controllers.HandleSubscriptionList)
	subs.Post("/", controllers.HandleSubscriptionCreate)
	subs.Post("/catalog/:external_id", controllers.HandleSubscriptionAddFromCatalog)
	subs.Delete("/:id", controllers.HandleSubscriptionDelete)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

// rateLimiter allows the number of requests per minute and IP read from key.
func rateLimiter(key string, def int) fiber.Handler {
	max := def
	if raw := env.GetEnv(key, ""); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			max = v
		} else {
			log.Warnf("[Router] Ignoring %s=%q, using %d", key, raw, def)
		}
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: time.Minute,
	})
}
