package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/projectline/projectline/internal/api"
	v1 "github.com/projectline/projectline/internal/api/v1"
	"github.com/projectline/projectline/internal/auth"
	"github.com/projectline/projectline/internal/config"
	"github.com/projectline/projectline/internal/httpclient"
	"github.com/projectline/projectline/internal/integration/pipedrive"
	"github.com/projectline/projectline/internal/integration/xero"
	"github.com/projectline/projectline/internal/logger"
	"github.com/projectline/projectline/internal/postgres"
	"github.com/projectline/projectline/internal/repository"
	"github.com/projectline/projectline/internal/sentry"
	"github.com/projectline/projectline/internal/service"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			sentry.NewSentryService,

			// Postgres
			postgres.NewDB,

			// HTTP Client
			httpclient.NewDefaultClient,

			// Repositories
			repository.NewSequenceRepository,
			repository.NewProjectMappingRepository,
			repository.NewAuthTokenRepository,

			// Token refresh
			provideRefreshManager,
			service.NewTokenService,
			service.NewPipedriveTokenSource,
			service.NewXeroTokenSource,

			// Integration clients
			pipedrive.NewClient,
			xero.NewClient,

			// Services
			service.NewServiceParams,
			service.NewProjectService,

			// API
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			sentry.RegisterHooks,
			startServer,
		),
	)

	app.Run()
}

func provideRefreshManager(cfg *config.Configuration, log *logger.Logger) *auth.RefreshManager {
	return auth.NewRefreshManager(cfg.Auth.RefreshMinInterval, log)
}

func provideHandlers(
	db *postgres.DB,
	log *logger.Logger,
	projectService service.ProjectService,
	tokenService service.TokenService,
) api.Handlers {
	return api.Handlers{
		Health:     v1.NewHealthHandler(db, log),
		Project:    v1.NewProjectHandler(projectService, log),
		Connection: v1.NewConnectionHandler(tokenService, log),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration) *gin.Engine {
	return api.NewRouter(handlers, cfg)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	db *postgres.DB,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			return db.Close()
		},
	})
}
