package main

import (
	"cinema_ticketing/config"
	"cinema_ticketing/database"
	"cinema_ticketing/handler"
	"cinema_ticketing/helper"
	"cinema_ticketing/payment"
	"cinema_ticketing/router"
	"cinema_ticketing/settlement"
	"cinema_ticketing/utils"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := utils.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	store := database.NewStore(db)

	rdb := database.NewRedisClient(cfg, logger)
	if rdb != nil {
		defer rdb.Close()
	}
	publisher := helper.NewStatusPublisher(rdb, logger)

	scheduler, err := helper.StartBookingExpiryScheduler(&helper.ExpiryJob{
		Store:       store,
		Hold:        cfg.BookingHold,
		Mailer:      utils.NewMailer(cfg.SMTP, logger),
		Publisher:   publisher,
		FrontendURL: cfg.FrontendURL,
		Log:         logger,
	})
	if err != nil {
		logger.Fatal("booking expiry scheduler", zap.Error(err))
	}
	defer scheduler.Shutdown()
	logger.Info("booking expiry scheduler started", zap.Duration("hold", cfg.BookingHold))

	h := handler.New(handler.Config{
		Store:       store,
		Settler:     settlement.New(store, logger),
		VNPay:       payment.NewVNPay(cfg.VNPay),
		PayPal:      payment.NewPayPal(cfg.PayPal),
		Publisher:   publisher,
		Log:         logger,
		FrontendURL: cfg.FrontendURL,
		JWTSecret:   []byte(cfg.JWTSecret),
	})

	app := fiber.New()
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept",
		AllowCredentials: true,
		ExposeHeaders:    "Set-Cookie",
		MaxAge:           600,
	}))

	router.SetupRoutes(app, h, []byte(cfg.JWTSecret))

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down")
		_ = app.Shutdown()
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}
