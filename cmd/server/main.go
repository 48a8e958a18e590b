package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/statload/backend/docs"
	appeurostat "github.com/statload/backend/internal/application/eurostat"
	"github.com/statload/backend/internal/bootstrap"
	"github.com/statload/backend/internal/infrastructure/auth"
	"github.com/statload/backend/internal/infrastructure/config"
	"github.com/statload/backend/internal/infrastructure/logger"
	"github.com/statload/backend/internal/infrastructure/scheduler"
	"github.com/statload/backend/internal/interfaces/http/handler"
	"github.com/statload/backend/internal/interfaces/http/middleware"
	"github.com/statload/backend/internal/interfaces/http/router"
)

//	@title			statload API
//	@version		1.0
//	@description	Eurostat and ISTAT catalogues, published views and dataset downloads
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting statload server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()
	app, err := bootstrap.Open(ctx, cfg, log, bootstrap.Options{Database: true})
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}

	// Download jobs
	jobs := scheduler.NewScheduler(scheduler.ConfigFrom(cfg.Scheduler), appeurostat.NewExecutor(app.Eurostat), log)
	var refresh *scheduler.RefreshTrigger
	if cfg.Scheduler.Enabled {
		if err := jobs.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		if cfg.Scheduler.RefreshEnabled {
			refresh = scheduler.NewRefreshTrigger(scheduler.RefreshTriggerConfig{
				Hour:          cfg.Scheduler.RefreshHour,
				CheckInterval: cfg.Scheduler.RefreshCheckEvery,
			}, jobs, app.Eurostat, log)
			if err := refresh.Start(ctx); err != nil {
				log.Fatal("Failed to start refresh trigger", zap.Error(err))
			}
		}
	} else {
		log.Warn("Scheduler disabled, download requests will be rejected")
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	authenticator := auth.NewAuthenticator(cfg.Auth)
	if !authenticator.Enabled() {
		log.Warn("No admin password hash configured, login is disabled")
	}

	tracing := middleware.DefaultTracingConfig()
	tracing.Enabled = cfg.Telemetry.Enabled
	if cfg.Telemetry.ServiceName != "" {
		tracing.ServiceName = cfg.Telemetry.ServiceName
	}
	engine, releaseLimiter := router.NewEngine(router.EngineConfig{
		Env:     cfg.App.Env,
		HTTP:    cfg.HTTP,
		Tracing: tracing,
	}, log)

	authRequired := middleware.JWTAuthMiddleware(jwtService, log)
	router.RegisterRoutes(engine, router.Handlers{
		System:   handler.NewSystemHandler(app.DB, cfg.App.Name, "1.0.0"),
		Auth:     handler.NewAuthHandler(authenticator, jwtService),
		Eurostat: handler.NewEurostatHandler(app.Eurostat, jobs),
		Istat:    handler.NewIstatHandler(app.Istat),
		Jobs:     handler.NewJobHandler(jobs),
	}, authRequired)
	router.RegisterDocs(engine, cfg.Swagger, authRequired)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	releaseLimiter()
	if refresh != nil {
		if err := refresh.Stop(shutdownCtx); err != nil {
			log.Warn("Refresh trigger stop failed", zap.Error(err))
		}
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Warn("Scheduler stop failed", zap.Error(err))
	}
	if err := app.Close(shutdownCtx); err != nil {
		log.Warn("Failed to release resources", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
