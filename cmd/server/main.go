// Command server wires the loancore HTTP service: configuration, stores,
// the event producer and the HTTP router. Business logic lives in the
// internal service packages.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"loancore/internal/customer"
	customerhandler "loancore/internal/customer/handler"
	"loancore/internal/eligibility"
	eligibilityhandler "loancore/internal/eligibility/handler"
	eligibilitymetrics "loancore/internal/eligibility/metrics"
	"loancore/internal/jwttoken"
	loanhandler "loancore/internal/loan/handler"
	"loancore/internal/loan/metrics"
	loanservice "loancore/internal/loan/service"
	loanstore "loancore/internal/loan/store"
	"loancore/internal/platform/config"
	"loancore/internal/platform/httpserver"
	"loancore/internal/platform/kafka"
	"loancore/internal/platform/logger"
	"loancore/internal/platform/middleware"
	platformpg "loancore/internal/platform/postgres"
	platformredis "loancore/internal/platform/redis"
	"loancore/pkg/platform/httputil"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := platformpg.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}

	var (
		loans     loanstore.Store
		customers customer.Store
	)
	if pool != nil {
		defer pool.Close()
		for _, schema := range []string{loanstore.Schema, customer.Schema} {
			if _, err := pool.Exec(ctx, schema); err != nil {
				log.Error("schema migration failed", "error", err)
				os.Exit(1)
			}
		}
		loans = loanstore.NewPostgres(pool)
		customers = customer.NewPostgresStore(pool)
		log.Info("using postgres stores")
	} else {
		loans = loanstore.NewInMemory()
		customers = customer.NewInMemoryStore()
		log.Info("using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	var cache loanservice.ScheduleCache
	if redisClient != nil {
		defer redisClient.Close()
		cache = redisClient.Client
		log.Info("schedule caching enabled", "ttl", cfg.Redis.ScheduleTTL)
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		log.Error("kafka connection failed", "error", err)
		os.Exit(1)
	}
	var publisher loanservice.EventPublisher
	if producer != nil {
		defer producer.Close()
		publisher = producer
		log.Info("event publishing enabled", "topic", cfg.Kafka.Topic)
	}

	loanMetrics := metrics.New()
	loanSvc := loanservice.NewService(loans, publisher, cache, cfg.Redis.ScheduleTTL, loanMetrics, log)
	eligibilitySvc := eligibility.NewService()

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "loancore", "loancore-api")

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		if !cfg.AuthDisabled {
			r.Use(middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), log))
		}
		loanhandler.New(loanSvc, log).Register(r)
		eligibilityhandler.New(eligibilitySvc, customers, eligibilitymetrics.New(), log).Register(r)
		customerhandler.New(customers, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, cfg.HTTP, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting loancore", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
