package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bakery_manager/config"
	"bakery_manager/database"
	"bakery_manager/handler"
	"bakery_manager/helper"
	"bakery_manager/outbox"
	"bakery_manager/payment"
	"bakery_manager/router"
	"bakery_manager/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	settings, err := config.Load()
	if err != nil {
		return err
	}

	log := utils.NewLogger(settings.LogLevel, settings.LogFormat)
	slog.SetDefault(log)

	db, err := database.ConnectDB(settings, log)
	if err != nil {
		return err
	}
	if settings.Seed {
		database.SeedData(db, log)
	}
	store := database.NewStore(db)

	h := &handler.Handler{
		Store: store,
		Payments: payment.NewStripe(payment.StripeConfig{
			SecretKey:     settings.StripeSecretKey,
			WebhookSecret: settings.StripeWebhookSecret,
			Currency:      settings.Currency,
		}),
		Mailer: utils.NewSMTPMailer(utils.SMTPConfig{
			Host:     settings.SMTPHost,
			Port:     settings.SMTPPort,
			Username: settings.SMTPUsername,
			Password: settings.SMTPPassword,
			From:     settings.SMTPFrom,
		}, log),
		JWTSecret: []byte(settings.JWTSecret),
		AppURL:    settings.AppURL,
		Currency:  settings.Currency,
		Log:       log.With("component", "http"),
	}

	runner := outbox.NewRunner(store, store, log)
	h.Effects = runner

	routes := router.Options{JWTSecret: h.JWTSecret}
	var cache helper.Cache
	if settings.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := database.ConnectRedis(ctx, settings.RedisAddr, settings.RedisPassword)
		cancel()
		if err != nil {
			return err
		}
		defer client.Close()

		routes.LimiterStorage = database.NewRedisStorage(client, "limiter:")
		cache = database.NewRedisCache(client, "cache:")
		h.Events = database.NewRedisEvents(client)
		log.Info("redis connected", "addr", settings.RedisAddr)
	} else {
		log.Warn("REDIS_ADDR not set, rate limits are per process and status events are disabled")
	}
	h.Settings = helper.NewSettingsService(store, cache, log)

	schedulers, err := helper.StartSchedulers(runner, store, log)
	if err != nil {
		return err
	}
	defer schedulers.Stop()

	app := fiber.New(fiber.Config{
		AppName:                 "bakery_manager",
		BodyLimit:               1 * 1024 * 1024,
		ProxyHeader:             settings.ProxyHeader,
		EnableTrustedProxyCheck: len(settings.TrustedProxies) > 0,
		TrustedProxies:          settings.TrustedProxies,
		EnableIPValidation:      true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     settings.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, Stripe-Signature",
		AllowCredentials: true,
		ExposeHeaders:    "Set-Cookie, Retry-After",
		MaxAge:           600,
	}))
	router.SetupRoutes(app, h, routes)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + settings.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
