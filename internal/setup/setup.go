// Package setup bootstraps the shared dependencies of every keeper command.
package setup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/robalyx/keeper/internal/redis"
	"github.com/robalyx/keeper/internal/setup/config"
	"github.com/robalyx/keeper/internal/setup/telemetry"
	"github.com/robalyx/keeper/internal/storage"
	"go.uber.org/zap"
)

// TokenEnv names the environment variable holding the bot token.
const TokenEnv = "BOT_TOKEN"

// ErrMissingToken is returned when neither the environment nor the config has a token.
var ErrMissingToken = errors.New("bot token is not configured")

// App bundles all core dependencies and services needed by the application.
type App struct {
	Config       *config.Config     // Application configuration
	ConfigDir    string             // Directory the configuration was read from
	Logger       *zap.Logger        // Main application logger
	Store        *storage.Store     // Document store
	RedisManager *redis.Manager     // Redis connection manager
	LogManager   *telemetry.Manager // Log management system
}

// InitializeApp loads the environment and configuration, then opens the
// logger and the document store in that order so setup failures get logged.
func InitializeApp(_ context.Context, serviceType telemetry.ServiceType, logDir string) (*App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	if token := os.Getenv(TokenEnv); token != "" {
		cfg.Bot.Discord.Token = token
	}

	logManager := telemetry.NewManager(serviceType, logDir, &cfg.Common.Debug, true)

	logger, err := logManager.GetLogger()
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Common.Storage.Path, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("Application initialized",
		zap.String("service", serviceType.String()),
		zap.String("configDir", configDir),
		zap.String("instanceID", logManager.GetInstanceID()),
		zap.String("storage", store.Path()))

	return &App{
		Config:       cfg,
		ConfigDir:    configDir,
		Logger:       logger,
		Store:        store,
		RedisManager: redis.NewManager(&cfg.Common.Redis, logger),
		LogManager:   logManager,
	}, nil
}

// Token returns the bot token or ErrMissingToken.
func (s *App) Token() (string, error) {
	if s.Config.Bot.Discord.Token == "" {
		return "", fmt.Errorf("%w: set %s or discord.token", ErrMissingToken, TokenEnv)
	}
	return s.Config.Bot.Discord.Token, nil
}

// BackupSinks returns the sinks enabled by the backup configuration.
func (s *App) BackupSinks() ([]storage.Sink, error) {
	cfg := s.Config.Common.Backup

	var sinks []storage.Sink
	if cfg.Directory != "" {
		sinks = append(sinks, storage.NewDirSink(cfg.Directory, cfg.Keep))
	}

	if cfg.Redis {
		client, err := s.RedisManager.GetClient(redis.BackupDBIndex)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis for backups: %w", err)
		}
		sinks = append(sinks, storage.NewRedisSink(client, cfg.RedisPrefix, cfg.Keep))
	}

	return sinks, nil
}

// Cleanup flushes the document and closes every component in reverse
// initialization order. Errors are logged so every component gets its turn.
func (s *App) Cleanup(_ context.Context) {
	if err := s.Store.Save(); err != nil {
		s.Logger.Error("Failed to save document on shutdown", zap.Error(err))
	}

	s.RedisManager.Close()

	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.LogManager.Close(); err != nil {
		log.Printf("Failed to close log files: %v", err)
	}
}
