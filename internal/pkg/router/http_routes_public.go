package router

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/ManuelReschke/SubTrackr/app/controllers"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/env"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// The frontend runs on its own origin and sends the session cookie
	origins := env.GetEnv("CORS_ALLOW_ORIGINS", "")
	if origins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.ReplaceAll(origins, " ", ""),
			AllowCredentials: true,
		}))
	}

	// Social OAuth
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)

	app.Post("/logout", controllers.HandleLogout)
}
