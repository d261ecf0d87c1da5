package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"docuchat/internal/config"
	"docuchat/internal/model"
	"docuchat/internal/platform/database"
	redisClient "docuchat/internal/platform/redis"
)

type App struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redisv9.Client // nil when the history cache is disabled

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Document{},
		&model.Session{},
		&model.Message{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	var redisCli *redisv9.Client
	if cfg.Redis.Addr != "" {
		redisCli, err = redisClient.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
	} else {
		log.Printf("redis addr empty, history cache disabled")
	}

	return &App{
		Config:    cfg,
		DB:        db,
		Redis:     redisCli,
		StartedAt: time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
