package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	adminhandler "roadguard/internal/admin/handler"
	adminservice "roadguard/internal/admin/service"
	"roadguard/internal/auth/credentials"
	authhandler "roadguard/internal/auth/handler"
	authservice "roadguard/internal/auth/service"
	"roadguard/internal/auth/token"
	driverhandler "roadguard/internal/driver/handler"
	driverservice "roadguard/internal/driver/service"
	"roadguard/internal/driver/store"
	"roadguard/internal/lockout"
	"roadguard/internal/platform/config"
	"roadguard/internal/platform/httpserver"
	"roadguard/internal/platform/logger"
	"roadguard/internal/platform/metrics"
	"roadguard/internal/platform/middleware"
	"roadguard/internal/platform/postgres"
	"roadguard/internal/qr"
	"roadguard/internal/scanlog"
	"roadguard/internal/transport/shared"
)

// tokenValidator adapts the token service to the middleware contract.
type tokenValidator struct {
	tokens *token.Service
}

func (v tokenValidator) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	claims, err := v.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.TokenClaims{
		Subject: claims.Subject,
		Email:   claims.Email,
		Role:    claims.Role,
	}, nil
}

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg, log)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	drivers := store.NewPostgres(db, cfg.Tables)
	m := metrics.New()
	creds := credentials.NewManager(log)

	var lockStore lockout.Store
	if cfg.RedisAddr != "" {
		lockStore = lockout.NewRedis(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}))
		log.Info("lockout store: redis", "addr", cfg.RedisAddr)
	} else {
		lockStore = lockout.NewMemory()
		log.Info("lockout store: in-memory")
	}
	limiter := lockout.New(lockStore, lockout.Config{
		MaxFailures: cfg.LockoutMaxFailures,
		Window:      cfg.LockoutWindow,
		Duration:    cfg.LockoutDuration,
	}, log)

	scans := scanlog.NewWorker(drivers, log, cfg.ScanLogBuffer)

	driverSvc := driverservice.New(
		drivers,
		drivers,
		creds,
		qr.NewImageRenderer(),
		scans,
		m,
		log,
		cfg.PublicBaseURL,
	)
	tokens := token.NewService(cfg.JWTSigningKey, cfg.TokenTTL)
	authSvc := authservice.New(
		drivers,
		creds,
		tokens,
		limiter,
		authservice.AdminIdentity{Email: cfg.AdminEmail, Password: cfg.AdminPassword},
		m,
		log,
	)
	adminSvc := adminservice.New(drivers, log)

	router := newRouter(
		log,
		m,
		tokenValidator{tokens: tokens},
		authhandler.New(authSvc, log),
		driverhandler.New(driverSvc, log),
		adminhandler.New(adminSvc, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scans.Run(gctx)
	})
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr, "base_url", cfg.PublicBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func newRouter(
	log *slog.Logger,
	m *metrics.Metrics,
	validator middleware.TokenValidator,
	auth *authhandler.Handler,
	driver *driverhandler.Handler,
	admin *adminhandler.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(m))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		auth.Register(r)
		r.Route("/public", driver.RegisterPublic)

		r.Route("/driver", func(r chi.Router) {
			r.Use(middleware.RequireAuth(validator, log))
			r.Use(middleware.RequireRole(token.RoleDriver, log))
			driver.RegisterDriver(r)
		})
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth(validator, log))
			r.Use(middleware.RequireRole(token.RoleAdmin, log))
			admin.Register(r)
		})
	})
	return r
}
