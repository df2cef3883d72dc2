package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/SubTrackr/app/controllers"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/bootstrap"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/cache"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/catalogsync"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/database"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/env"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/jobqueue"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/router"
)

func main() {
	app, jobs := NewApplication()
	bootstrap.StartJobs(jobs)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		jobs.Stop()
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	if err != nil {
		log.Fatal(err)
	}
}

func NewApplication() (*fiber.App, *jobqueue.Manager) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/subtrackr to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	feed := catalogsync.NewFeedClientFromEnv()
	services := bootstrap.New(context.Background(), database.GetDB(), cache.NewStore(cache.GetClient()), feed)
	jobs := services.NewJobManager()
	controllers.InitializeControllers(services.Controllers(jobs))

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName: "SubTrackr",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app, jobs
}
