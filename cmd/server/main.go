package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ishrakaat/config"
	"ishrakaat/internal/database"
	"ishrakaat/internal/job"
	"ishrakaat/internal/ledger"
	"ishrakaat/internal/repository"
	"ishrakaat/internal/router"
	"ishrakaat/internal/service"
	"ishrakaat/pkg/cloudinary"
	"ishrakaat/pkg/paystack"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		panic(err)
	}

	logg := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.Server.Env != "production" {
		logg = logg.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		logg.Fatal().Err(err).Msg("database connect")
	}
	if err := database.AutoMigrate(db); err != nil {
		logg.Fatal().Err(err).Msg("migrate")
	}
	database.SeedAdmin(db)
	database.SeedDonationTypes(db)
	database.SeedIslamicCards(db)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logg.Warn().Err(err).Msg("redis unavailable, recurring job runs without a distributed lock")
		rdb = nil
	}

	cloud, err := cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
	if err != nil {
		logg.Fatal().Err(err).Msg("cloudinary")
	}

	gateway := paystack.NewClient(cfg.Paystack.SecretKey, cfg.Paystack.BaseURL, cfg.Paystack.Timeout)
	store := repository.NewLedgerStore(db)
	engine := ledger.NewEngine(store, gateway, logg)
	zakahSvc := service.NewZakahService(repository.NewZakahRepository(db), cfg.Zakah.RateAPIURL, cfg.Zakah.MetalAPIURL, logg)

	jobCtx, stopJobs := context.WithCancel(context.Background())
	recurringJob := job.NewRecurringDonationJob(engine, rdb, logg, cfg.Donations.RunInterval, cfg.Donations.LockTTL)
	go recurringJob.Start(jobCtx)
	nisabJob := job.NewNisabRefreshJob(zakahSvc, logg, cfg.Zakah.RefreshInterval)
	go nisabJob.Start(jobCtx)

	r := router.Setup(cfg, db, engine, zakahSvc, gateway, cloud, logg)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logg.Info().Str("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logg.Info().Msg("shutting down")
	stopJobs()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logg.Fatal().Err(err).Msg("server shutdown")
	}
	logg.Info().Msg("server stopped")
}
