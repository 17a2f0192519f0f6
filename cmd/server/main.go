package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vendapos/internal/config"
	"vendapos/internal/handler"
	"vendapos/internal/infra"
	"vendapos/internal/repository"
	"vendapos/internal/router"
	"vendapos/internal/service"
	"vendapos/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const version = "1.0.0"

// @title        VendaPOS API
// @version      1.0
// @description  Retail point-of-sale backend: cash sessions, checkout, reconciliation, offline sync.
// @BasePath     /v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration failed")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}

	// Repositories
	users := repository.NewUserRepository(db)
	products := repository.NewProductRepository(db)
	movements := repository.NewStockMovementRepository(db)
	sessions := repository.NewSessionRepository(db)
	sales := repository.NewSaleRepository(db)
	expenses := repository.NewExpenseRepository(db)
	coupons := repository.NewCouponRepository(db)
	closures := repository.NewClosureRepository(db)
	pending := repository.NewPendingSaleRepository(db)
	orders := repository.NewOrderRepository(db)

	// Infrastructure collaborators
	mailer := infra.NewMailer(cfg)
	mailBreaker := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	dispatcher := worker.NewDispatcher(rdb)

	// Services
	authSvc := service.NewAuthService(users, cfg)
	authorizer := service.NewAuthorizer(users)
	sessionSvc := service.NewSessionService(sessions, sales, expenses, closures, products, authorizer, dispatcher, rdb)
	checkoutSvc := service.NewCheckoutService(sales, sessions, products, movements, coupons, pending, authorizer, dispatcher)
	productSvc := service.NewProductService(products, movements, cfg)
	expenseSvc := service.NewExpenseService(expenses)
	couponSvc := service.NewCouponService(coupons)
	closureSvc := service.NewClosureService(closures)
	orderSvc := service.NewOrderService(orders, cfg)
	reportSvc := service.NewReportService(sales, expenses, closures, cfg)

	// Background workers
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handlers := worker.NewHandlers(sales, closures, mailer, mailBreaker, cfg)
	pool := worker.NewPool(rdb, handlers.Map(), cfg.WorkerPoolSize)
	pool.Start(ctx)

	retryCron := worker.NewRetryCron(pending, checkoutSvc, rdb, cfg.SaleRetryMaxAttempts)
	retryCron.Start(ctx)

	engine := router.New(cfg, authSvc, router.Handlers{
		Auth:     handler.NewAuthHandler(authSvc),
		Health:   handler.NewHealthHandler(db, rdb, mailBreaker, version),
		Sessions: handler.NewSessionHandler(sessionSvc),
		Sales:    handler.NewSaleHandler(checkoutSvc),
		Products: handler.NewProductHandler(productSvc),
		Expenses: handler.NewExpenseHandler(expenseSvc),
		Coupons:  handler.NewCouponHandler(couponSvc),
		Closures: handler.NewClosureHandler(closureSvc),
		Orders:   handler.NewOrderHandler(orderSvc),
		Reports:  handler.NewReportHandler(reportSvc),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
