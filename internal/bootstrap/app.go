package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"catalog-accounts/internal/config"
	"catalog-accounts/internal/logger"
	"catalog-accounts/internal/platform/mailer"
	mysqlClient "catalog-accounts/internal/platform/mysql"
	rabbitmqClient "catalog-accounts/internal/platform/rabbitmq"
	redisClient "catalog-accounts/internal/platform/redis"
	"catalog-accounts/internal/repository"
	"catalog-accounts/internal/worker"
)

type App struct {
	Config         *config.Config
	MySQL          *gorm.DB
	Redis          *redis.Client
	MQConn         *amqp.Connection
	ActivityWorker *worker.ActivityPersistWorker
	Services       *Services

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN(), cfg.Log.Level == "debug")
	if err != nil {
		return nil, err
	}
	if err := mysqlClient.Migrate(mysqlDB); err != nil {
		return nil, err
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.ActivityQueue)
	if err != nil {
		return nil, err
	}

	activityRepo := repository.NewActivityRepository(mysqlDB)
	activityWorker := worker.NewActivityPersistWorker(mqConn, activityRepo, cfg.RabbitMQ.ActivityQueue)
	if err := activityWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start activity worker failed: %w", err)
	}

	notifier := mailer.NewSMTPSender(mailer.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		Timeout:  time.Duration(cfg.Mail.TimeoutSeconds) * time.Second,
		Insecure: cfg.Mail.Insecure,
		SiteName: cfg.App.Name,
		LinkBase: cfg.ResetLinkBase(),
	}, zlog.Logger)

	services := NewServices(cfg, Backends{
		DB:       mysqlDB,
		Redis:    redisCli,
		MQConn:   mqConn,
		Notifier: notifier,
	})

	if cfg.Auth.SysadminName != "" {
		if err := services.Auth.EnsureSysadmin(cfg.Auth.SysadminName, cfg.Auth.SysadminEmail, cfg.Auth.SysadminPassword); err != nil {
			return nil, fmt.Errorf("ensure sysadmin failed: %w", err)
		}
		zlog.Info().Str("name", cfg.Auth.SysadminName).Msg("sysadmin account ready")
	}

	return &App{
		Config:         cfg,
		MySQL:          mysqlDB,
		Redis:          redisCli,
		MQConn:         mqConn,
		ActivityWorker: activityWorker,
		Services:       services,
		StartedAt:      time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.ActivityWorker != nil {
		a.ActivityWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
