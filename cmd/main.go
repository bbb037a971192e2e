package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"socialhub/config"
	"socialhub/jobs"
	"socialhub/middleware"
	"socialhub/routes"
	"socialhub/services"
	"socialhub/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Load .env before the configuration is read.
	loadEnvFile()

	config.LoadConfig()
	cfg := config.AppConfig
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger := utils.Logger("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := config.CreateContext(10 * time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		utils.LogFatal("Failed to connect to MongoDB", err)
	}
	defer func() {
		disconnectCtx, disconnectCancel := config.CreateContext(5 * time.Second)
		defer disconnectCancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			utils.LogError("Failed to disconnect MongoDB", err)
		}
	}()

	if err := mongoClient.Ping(connectCtx, nil); err != nil {
		utils.LogFatal("Failed to ping MongoDB", err)
	}
	logger.Info().Str("database", cfg.DatabaseName).Msg("Connected to MongoDB successfully")

	media, err := services.NewB2MediaService(ctx, cfg.B2ApplicationKeyID, cfg.B2ApplicationKey, cfg.B2BucketName)
	if err != nil {
		utils.LogFatal("Failed to initialize media storage", err)
	}

	container := routes.NewServiceContainer(mongoClient.Database(cfg.DatabaseName), media, cfg)
	if err := container.EnsureIndexes(ctx); err != nil {
		utils.LogFatal("Failed to create indexes", err)
	}

	go func() {
		if err := container.Hub.RunWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
			utils.LogError("Websocket hub stopped", err)
		}
	}()
	go container.RateLimiter.StartCleanup(ctx, 10*time.Minute)

	if cfg.NotificationRetention > 0 && cfg.RetentionSweepInterval > 0 {
		pruner := jobs.NewNotificationPruner(container.Notifications, cfg.NotificationRetention, cfg.RetentionSweepInterval)
		go pruner.Start(ctx)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), middleware.CORS(cfg.AllowedOrigins))

	api := router.Group("/api")
	routes.SetupRoutesWithContainer(api, container, cfg.MaxMediaSize)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"time":            time.Now().UTC(),
			"live_sessions":   container.Presence.Count(),
			"online_users":    container.Presence.OnlineUsers(),
			"websocket_conns": container.Hub.ClientCount(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("Starting socialhub server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogFatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := config.CreateContext(15 * time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError("Server shutdown failed", err)
	}
}

// loadEnvFile loads the first .env found near the working directory.
func loadEnvFile() {
	l := utils.Logger("env")

	pwd, err := os.Getwd()
	if err != nil {
		l.Warn().Err(err).Msg("Could not get working directory")
		return
	}

	envPaths := []string{
		".env",
		"../.env",
		filepath.Join(filepath.Dir(pwd), ".env"),
	}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		absPath, _ := filepath.Abs(envPath)
		if err := godotenv.Load(envPath); err != nil {
			l.Warn().Err(err).Str("path", absPath).Msg("Failed to load .env")
			continue
		}
		l.Info().Str("path", absPath).Msg("Loaded environment variables")
		return
	}

	l.Info().Msg("No .env file found, using system environment variables")
}

func requestLogger() gin.HandlerFunc {
	l := utils.Logger("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		l.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
