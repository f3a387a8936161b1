package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/endyji01/fb-buffer/configs"
	"github.com/endyji01/fb-buffer/internal/api/handlers"
	"github.com/endyji01/fb-buffer/internal/api/middleware"
	job "github.com/endyji01/fb-buffer/internal/jobs"
	"github.com/endyji01/fb-buffer/internal/repository"
	"github.com/endyji01/fb-buffer/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := repository.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open queue store: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Queue store is unreachable: %v", err)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, X-API-Key",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	accountRepo := repository.NewAccountRepository(db)
	postRepo := repository.NewPostRepository(db)
	outcomeRepo := repository.NewPostOutcomeRepository(db)

	mediaService := service.NewMediaService(cfg.DownloadTimeout, cfg.TempDir)
	facebookService := service.NewFacebookService(*cfg, mediaService)
	accountService := service.NewAccountService(*cfg, accountRepo)
	postService := service.NewPostService(postRepo, accountRepo, outcomeRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	account := handlers.NewAccountHandler(accountService)
	api.Post("/accounts", account.CreateAccount)
	api.Post("/accounts/import", account.ImportAccounts)
	api.Get("/accounts", account.ListAccounts)

	post := handlers.NewPostHandler(postService)
	api.Post("/posts", post.CreatePost)
	api.Post("/posts/import", post.ImportPosts)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/:id/outcomes", post.ListOutcomes)
	api.Get("/stats", post.GetStats)

	// scheduler loop
	publishJob := job.NewPublishJob(postRepo, accountRepo, outcomeRepo, facebookService, cfg.AccountPause, cfg.PublishTimeout)

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", cfg.PollInterval), publishJob.Run); err != nil {
		log.Fatalf("Failed to schedule publish job: %v", err)
	}
	c.Start()

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on %s", cfg.ListenAddr)

	gracefulShutdown(app, c, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing queue store... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close queue store: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, c *cron.Cron, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	// Let a tick that is already running finish before the store goes away.
	<-c.Stop().Done()

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
