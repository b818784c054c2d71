package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"inventory-backend/internal/admin"
	"inventory-backend/internal/audit"
	"inventory-backend/internal/auth"
	"inventory-backend/internal/config"
	"inventory-backend/internal/database"
	"inventory-backend/internal/inventory"
	"inventory-backend/internal/notify"
	"inventory-backend/internal/stock"
	"inventory-backend/internal/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	policy, err := stock.ParsePolicy(cfg.LowStockPolicy)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	db := database.Init(cfg)

	queue, closeRedis := newQueue(ctx, cfg)
	dispatcher := notify.NewDispatcher(queue, newNotifier(cfg, db), cfg.NotifyWorkers)
	dispatcher.Start(ctx)

	svc := stock.NewService(db, queue, stock.NewDetector(policy))

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *fiber.Error
			if errors.As(err, &e) {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "unexpected server error",
			})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(config.SplitList(cfg.CORSOrigins), ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))

	registerRoutes(app, cfg, db, svc, queue)

	go func() {
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.Fatalf("[FATAL] %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down")

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}

	// let the workers drain what the last requests enqueued
	queue.Close()
	done := make(chan struct{})
	go func() {
		dispatcher.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		log.Println("[WARN] notification workers did not finish in time")
	}
	cancel()

	closeRedis()
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Printf("[WARN] tracing shutdown: %v", err)
	}
}

func newQueue(ctx context.Context, cfg *config.Config) (notify.Queue, func()) {
	if cfg.NotifyQueue != "redis" {
		return notify.NewMemoryQueue(cfg.NotifyQueueSize), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("[FATAL] could not connect to redis at %s: %v", cfg.RedisAddr, err)
	}
	log.Printf("notification queue: redis list %s at %s", cfg.RedisQueueKey, cfg.RedisAddr)
	return notify.NewRedisQueue(client, cfg.RedisQueueKey), func() { client.Close() }
}

func newNotifier(cfg *config.Config, db *gorm.DB) notify.Notifier {
	if cfg.SMTPHost == "" {
		return notify.LogNotifier{}
	}
	return notify.NewEmailNotifier(notify.EmailConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		User:      cfg.SMTPUser,
		Pass:      cfg.SMTPPass,
		From:      cfg.EmailFrom,
		DefaultTo: cfg.EmailToDefault,
	}, notify.DBRecipients{DB: db})
}

func registerRoutes(app *fiber.App, cfg *config.Config, db *gorm.DB, svc *stock.Service, queue notify.Queue) {
	api := app.Group("/api")

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// public
	api.Post("/auth/login", auth.LoginHandler(cfg, db))

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler(db))

	// categories
	protected.Get("/categories", inventory.ListCategoriesHandler(db))
	protected.Post("/categories", inventory.CreateCategoryHandler(db))
	protected.Get("/categories/:id", inventory.GetCategoryHandler(db))
	protected.Patch("/categories/:id", inventory.UpdateCategoryHandler(db))
	protected.Delete("/categories/:id", inventory.DeleteCategoryHandler(db))
	protected.Get("/categories/:id/summary", inventory.CategorySummaryHandler(svc))
	protected.Get("/categories/:id/next-code", inventory.NextItemCodeHandler(db))

	// items
	protected.Get("/items", inventory.ListItemsHandler(db))
	protected.Get("/items/export", inventory.ExportItemsHandler(db))
	protected.Post("/items/import-adjustments", inventory.ImportAdjustmentsHandler(db, svc))
	protected.Post("/items", inventory.CreateItemHandler(db, queue))
	protected.Get("/items/:id", inventory.GetItemHandler(db))
	protected.Patch("/items/:id", inventory.UpdateItemHandler(db))
	protected.Delete("/items/:id", inventory.DeleteItemHandler(db, queue))
	protected.Patch("/items/:id/adjust", inventory.AdjustStockHandler(svc))
	protected.Get("/items/:id/transactions", inventory.ListTransactionsHandler(db))

	// admin
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireAdmin())

	adminRoutes.Get("/users", admin.ListUsersHandler(db))
	adminRoutes.Post("/users", admin.CreateUserHandler(db))
	adminRoutes.Patch("/users/:id", admin.UpdateUserHandler(db))
	adminRoutes.Delete("/users/:id", admin.DeleteUserHandler(db))

	adminRoutes.Get("/recipients", admin.ListRecipientsHandler(db))
	adminRoutes.Post("/recipients", admin.CreateRecipientHandler(db))
	adminRoutes.Patch("/recipients/:id", admin.UpdateRecipientHandler(db))
	adminRoutes.Delete("/recipients/:id", admin.DeleteRecipientHandler(db))

	adminRoutes.Post("/test-email/stock", admin.StockTestEmailHandler(queue))
	adminRoutes.Post("/test-email/low-stock", admin.LowStockTestEmailHandler(queue))

	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler(db))
}
