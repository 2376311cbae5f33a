package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"membership/docs"
	"membership/internal/auth"
	"membership/internal/cache"
	"membership/internal/config"
	"membership/internal/db"
	"membership/internal/handler"
	"membership/internal/logger"
	"membership/internal/metrics"
	"membership/internal/repository"
	"membership/internal/router"
	"membership/internal/service"
	"membership/internal/validation"
	"membership/internal/view"
)

const shutdownTimeout = 10 * time.Second

// @title Membership API
// @version 1.0
// @description JSON endpoints of the membership site. Pages and forms are served as HTML.
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name sid
func main() {
	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage must be reachable before any route is registered.
	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(gormDB) }()
	if err := db.Migrate(gormDB); err != nil {
		return err
	}
	log.Info("connected to database", "driver", cfg.DBDriver)

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer func() { _ = cacheClient.Close() }()
	if err := cacheClient.Ping(ctx); err != nil {
		return err
	}
	log.Info("connected to redis", "addr", cfg.RedisAddr)

	// Initialize repositories and stores
	userRepo := repository.NewUserRepository(gormDB)
	sessionStore := auth.NewSessionStore(cacheClient, cfg.SessionTTL)
	cookie := auth.CookieConfig{Name: cfg.SessionCookieName, Secure: cfg.CookieSecure, TTL: cfg.SessionTTL}
	m := metrics.New()

	// Initialize services
	authService := service.NewAuthService(userRepo, sessionStore, auth.NewPasswordHasher(cfg.BcryptCost), validation.New())
	userService := service.NewUserService(userRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, cookie, m, log.With("component", "auth"))
	pageHandler := handler.NewPageHandler()
	userHandler := handler.NewUserHandler(userService)
	adminHandler := handler.NewAdminHandler(userService, m, log.With("component", "admin"))

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}

	e := echo.New()
	router.Register(
		e,
		router.Deps{
			Log:            log,
			Sessions:       sessionStore,
			Cookie:         cookie,
			SessionSliding: cfg.SessionSliding,
			Users:          userService,
			Metrics:        m,
			Renderer:       view.MustNew(),
		},
		authHandler,
		pageHandler,
		userHandler,
		adminHandler,
	)

	addr := ":" + cfg.ServerPort
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr, "swagger", swaggerURL(cfg))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
