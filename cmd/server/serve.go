package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"lumeer-engine/internal/auth"
	"lumeer-engine/internal/config"
	"lumeer-engine/internal/db"
	"lumeer-engine/internal/middleware"
	"lumeer-engine/internal/perspective"
	"lumeer-engine/internal/readmodel"
	"lumeer-engine/internal/remote"
	"lumeer-engine/internal/store"
	"lumeer-engine/internal/table"
	"lumeer-engine/internal/viewsettings"
	"lumeer-engine/internal/worker"
	"lumeer-engine/redis"
)

var (
	port        string
	skipMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the workspace and serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		config.LoadConfig()
		cfg := config.AppConfig
		if port != "" {
			cfg.ServerPort = port
		}
		return serve(cfg, newLogger(cfg))
	},
}

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "HTTP port, overrides PORT")
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not migrate the database schema on start")
}

func serve(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close(database, log)
	if !skipMigrate {
		if err := db.Migrate(database, log); err != nil {
			return err
		}
	}

	cache := redis.NewCache(redis.Connect(ctx, cfg.RedisAddress, log))

	workspace, err := store.New(log.With().Str("component", "store").Logger())
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	client := remote.NewClient(cfg.RemoteStoreAddress, cfg.RemoteStoreToken, cfg.OrganizationID, cfg.ProjectID)
	if err := remote.NewLoader(client, workspace, log).Load(ctx); err != nil {
		return err
	}
	listener := remote.NewListener(cfg.RemoteStoreWSAddress, cfg.RemoteStoreToken, workspace, remote.DefaultBackoff(), log.With().Str("component", "listener").Logger())
	go func() {
		if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("notification listener stopped")
		}
	}()

	pool := worker.NewWorkerPool(cfg.Workers, cfg.Workers*16, log.With().Str("component", "worker").Logger())
	registry := perspective.NewRegistry(workspace, cfg.DerivationDebounce, log)
	defer registry.Close()

	settingsService := viewsettings.NewService(viewsettings.NewRepository(database), workspace, cache, log)
	if err := viewsettings.RegisterValidations(); err != nil {
		return fmt.Errorf("register validations: %w", err)
	}
	readService := readmodel.NewService(ctx, workspace, settingsService, cache, cfg.CacheTTL, log)
	tables := table.NewManager(workspace, client, pool, log.With().Str("component", "table").Logger())

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.ErrorHandler(log))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}
	if cfg.Environment == "development" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{cfg.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	authMiddleware := &middleware.Auth{JWT: auth.NewJWT(cfg.JWTSecret), Users: workspace}
	api := router.Group("", authMiddleware.AuthMiddleWare())
	readmodel.NewHandler(readService).Register(api)
	viewsettings.NewHandler(settingsService).Register(api)
	perspective.NewHandler(registry, workspace).Register(api)
	table.NewHandler(tables).Register(api)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router.Handler(),
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	pool.Shutdown(shutdownCtx)
	log.Info().Msg("server shutdown complete")
	return nil
}
