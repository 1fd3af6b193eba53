package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"nebula-chat/internal/ai"
	appsvc "nebula-chat/internal/app"
	"nebula-chat/internal/capture"
	"nebula-chat/internal/config"
	"nebula-chat/internal/model"
	mysqlClient "nebula-chat/internal/platform/mysql"
	rabbitmqClient "nebula-chat/internal/platform/rabbitmq"
	redisClient "nebula-chat/internal/platform/redis"
	"nebula-chat/internal/store"
	"nebula-chat/internal/worker"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	MySQL    *gorm.DB
	Redis    *redis.Client
	MQConn   *amqp.Connection
	KVWorker *worker.KVPersistWorker
	Store    *store.Adapter
	Chat     *appsvc.ChatService

	StartedAt time.Time

	closeLog func() error
}

// New loads configuration, sets up logging and wires the full service.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	logger, closeLog := config.SetupLogger(cfg.Log.File, cfg.LogLevel())
	a, err := NewWithConfig(ctx, cfg, logger)
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	a.closeLog = closeLog
	return a, nil
}

func NewWithConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a, backing, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger = a.Logger

	kv := backing
	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.MQConn = mqConn

		a.KVWorker = worker.NewKVPersistWorker(mqConn, backing, cfg.RabbitMQ.PersistQueue, logger)
		if err := a.KVWorker.Start(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("start kv persist worker failed: %w", err)
		}
		kv = store.NewWriteBehindKV(backing, rabbitmqClient.NewEntryPublisher(mqConn, cfg.RabbitMQ.PersistQueue))
	}
	a.Store = store.NewAdapter(kv, storeKeys(cfg), logger)

	recorder := capture.NewRecorder(
		capture.StaticMicrophone{Supported: cfg.Voice.Supported, Allowed: cfg.Voice.Allowed},
		cfg.Voice.MIMEType,
	)
	a.Chat = appsvc.NewChatService(ctx, a.Store, ai.NewEchoResponder(), recorder, appsvc.Options{
		ResponseDelay: cfg.ResponseDelay(),
		TitleMaxChars: cfg.Chat.TitleMaxChars,
		Logger:        logger,
	})

	logger.Info("application ready",
		"store", cfg.Store.Backend,
		"write_behind", cfg.RabbitMQ.Enabled,
		"voice_supported", cfg.Voice.Supported,
	)
	return a, nil
}

// NewReadOnly opens only the configured store, for tools that inspect
// persisted state without starting the chat service.
func NewReadOnly(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a, backing, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Store = store.NewAdapter(backing, storeKeys(cfg), a.Logger)
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, store.KeyValue, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}

	switch cfg.Store.Backend {
	case config.BackendRedis:
		redisCli, err := redisClient.New(ctx, redisClient.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		a.Redis = redisCli
		return a, store.NewRedisKV(redisCli, cfg.Redis.KeyPrefix), nil
	case config.BackendMySQL:
		mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, err
		}
		a.MySQL = mysqlDB
		if err := mysqlDB.AutoMigrate(&model.KVEntry{}); err != nil {
			_ = a.Close()
			return nil, nil, fmt.Errorf("auto migrate tables failed: %w", err)
		}
		return a, store.NewMySQLKV(mysqlDB), nil
	default:
		return a, store.NewMemoryKV(), nil
	}
}

func storeKeys(cfg *config.Config) store.Keys {
	return store.Keys{Sessions: cfg.Store.SessionsKey, Memory: cfg.Store.MemoryKey}
}

// Close stops the chat service first so its last writes reach the store
// before connections go away.
func (a *App) Close() error {
	var errs []error
	if a.Chat != nil {
		a.Chat.Close()
	}
	if a.KVWorker != nil {
		a.KVWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rabbitmq failed: %w", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis failed: %w", err))
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close mysql failed: %w", err))
			}
		}
	}
	if a.closeLog != nil {
		if err := a.closeLog(); err != nil {
			errs = append(errs, fmt.Errorf("close log file failed: %w", err))
		}
	}
	return errors.Join(errs...)
}
