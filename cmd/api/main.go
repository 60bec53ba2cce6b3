package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"bdbooking/internal/adapters/auth"
	server "bdbooking/internal/adapters/http_server"
	"bdbooking/internal/adapters/observability"
	"bdbooking/internal/adapters/payment"
	redisad "bdbooking/internal/adapters/redis"
	"bdbooking/internal/app"
	"bdbooking/internal/shared"
	mysqlrepo "bdbooking/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	gateway, err := payment.New(cfg.GatewayBase, cfg.StoreID, cfg.StorePass, cfg.PublicURL, cfg.GatewayRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize payment gateway client")
	}

	locks := app.NewRoomLocks()
	q := app.NewQueryService(repo, cache, cfg.CacheTTL)
	bookings := app.NewBookingService(repo, repo, locks)
	payments := app.NewPaymentService(repo, gateway, locks)
	reviews := app.NewReviewService(repo, cache)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q:        q,
		Bookings: bookings,
		Payments: payments,
		Reviews:  reviews,
		Auth:     auth.NewVerifier(cfg.JWTSecret),
		Notifier: payment.NewNotifier(cfg.StorePass),
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
