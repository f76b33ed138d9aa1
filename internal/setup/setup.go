// Package setup assembles the shared application components in
// dependency order.
package setup

import (
	"context"
	"fmt"
	"log"

	"github.com/veloras/starboard/internal/database"
	"github.com/veloras/starboard/internal/redis"
	"github.com/veloras/starboard/internal/setup/config"
	"github.com/veloras/starboard/internal/setup/logger"
	"go.uber.org/zap"
)

// App contains the shared components every entrypoint needs.
type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	DBLogger     *zap.Logger
	LogManager   *logger.Manager
	DB           database.Client
	RedisManager *redis.Manager
}

// InitializeApp loads configuration, wires up logging, Redis, and the
// database, and returns the assembled App.
func InitializeApp(ctx context.Context, logDir string) (*App, error) {
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logManager := logger.NewManager(logDir, &cfg.Debug)

	mainLogger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	mainLogger.Info("Loaded configuration", zap.String("configDir", configDir))

	redisManager := redis.NewManager(&cfg.Redis, mainLogger)

	db, err := database.NewConnection(ctx, &cfg.PostgreSQL, dbLogger, true)
	if err != nil {
		redisManager.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &App{
		Config:       cfg,
		Logger:       mainLogger,
		DBLogger:     dbLogger,
		LogManager:   logManager,
		DB:           db,
		RedisManager: redisManager,
	}, nil
}

// Cleanup releases the App's resources in reverse order.
func (a *App) Cleanup() {
	if err := a.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	a.RedisManager.Close()

	_ = a.Logger.Sync()
	_ = a.DBLogger.Sync()
}
