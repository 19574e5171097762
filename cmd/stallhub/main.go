package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/hibiken/asynq"

	"stallhub/internal/blob"
	"stallhub/internal/config"
	"stallhub/internal/http/handlers"
	"stallhub/internal/jobs"
	applog "stallhub/internal/log"
	"stallhub/internal/presence"
	"stallhub/internal/repos"
	"stallhub/internal/web"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Presence: Redis when configured, in-process otherwise
	var store presence.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("[presence] redis %s: %v", cfg.RedisAddr, err)
		}
		rs := presence.NewRedisStore(rdb)
		defer rs.Close()
		store = rs
		log.Printf("[presence] redis %s", cfg.RedisAddr)
	} else {
		store = presence.NewMemoryStore()
		log.Printf("[presence] in-memory (single instance only)")
	}
	p := presence.NewAdapter(store)
	if err := p.Start(ctx); err != nil {
		log.Printf("[presence] vendorType cache not subscribed: %v", err)
	}

	var blobs blob.Store = &blob.Noop{}
	if cfg.CloudinaryURL != "" {
		cld, err := blob.NewCloudinary(cfg.CloudinaryURL)
		if err != nil {
			log.Fatalf("[blob] cloudinary: %v", err)
		}
		blobs = cld
	}

	deps := handlers.NewDeps(db, cfg, p, blobs)

	if cfg.Seed {
		if err := repos.Seed(ctx, db); err != nil {
			log.Fatalf("[seed] %v", err)
		}
		if err := seedCatalog(ctx, deps); err != nil {
			log.Printf("[seed] demo catalog: %v", err)
		}
	}

	app := fiber.New(fiber.Config{
		Views:        web.Engine(),
		ErrorHandler: handlers.ErrorHandler,
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			// long-lived sockets and health checks are not request bursts
			p := c.Path()
			return p == "/healthz" || p == "/ws/browse"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}))

	handlers.Routes(app, deps)

	// ---------- Reconcile sweep ----------
	if cfg.RedisAddr != "" {
		w, err := jobs.NewWorker(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}, cfg.ReconcileInterval, deps.Sweeper)
		if err != nil {
			log.Fatalf("[jobs] %v", err)
		}
		if err := w.Start(); err != nil {
			log.Fatalf("[jobs] %v", err)
		}
		defer w.Shutdown()
		log.Printf("[jobs] asynq reconcile every %s", cfg.ReconcileInterval)
	} else {
		go jobs.RunLocal(ctx, cfg.ReconcileInterval, deps.Sweeper)
		log.Printf("[jobs] local reconcile every %s", cfg.ReconcileInterval)
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("[http] %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("[http] forced shutdown: %v", err)
	}
	log.Println("Server exited properly")
}
