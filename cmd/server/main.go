package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yoheiono2424/kouji-yosan/internal/config"
	"github.com/yoheiono2424/kouji-yosan/internal/middleware"
	"github.com/yoheiono2424/kouji-yosan/internal/yosan/entity"
	"github.com/yoheiono2424/kouji-yosan/internal/yosan/handler"
	"github.com/yoheiono2424/kouji-yosan/internal/yosan/repository"
	"github.com/yoheiono2424/kouji-yosan/internal/yosan/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// .env を読み込む
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 設定読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// ロガー初期化
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting kouji-yosan service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// データベース初期化
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.Budget{},
		&entity.LineItem{},
		&entity.ApprovalLog{},
	); err != nil {
		zapLogger.Warn("AutoMigrate warning", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	// Redis初期化
	rdb := initRedis(cfg.Redis)

	// 依存の組み立て
	repos := repository.NewRepositories(db)
	notifier := service.NewNotifier(rdb, zapLogger)
	budgetSvc := service.NewBudgetService(repos, zapLogger)
	workflowSvc := service.NewWorkflowService(repos, notifier, zapLogger)
	exportSvc := service.NewExportService()
	handlers := handler.NewHandlers(budgetSvc, workflowSvc, exportSvc)

	// Ginモード設定
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 優雅なシャットダウン
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// ヘルスチェック
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// バージョン情報
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		budgets := v1.Group("/budgets")
		{
			budgets.GET("", h.Budget.ListBudgets)
			budgets.POST("", h.Budget.CreateBudget)
			budgets.GET("/:id", h.Budget.GetBudget)
			budgets.PUT("/:id", h.Budget.UpdateBudget)
			budgets.DELETE("/:id", h.Budget.DeleteBudget)
			budgets.GET("/:id/export", h.Budget.ExportBudget)

			budgets.POST("/:id/items", h.Budget.CreateLineItem)
			budgets.PUT("/:id/items/:itemId", h.Budget.UpdateLineItem)
			budgets.DELETE("/:id/items/:itemId", h.Budget.DeleteLineItem)
			budgets.PUT("/:id/items/:itemId/actual", h.Budget.RecordActual)

			budgets.POST("/:id/actions", h.Workflow.RequestAction)
			budgets.GET("/:id/actions", h.Workflow.AvailableActions)
			budgets.GET("/:id/logs", h.Workflow.ListLogs)
		}

		workflow := v1.Group("/workflow")
		{
			workflow.GET("/pending", h.Workflow.ListPending)
			workflow.GET("/counters", h.Workflow.DashboardCounters)
		}
	}
}
