package main

import (
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apppayment "github.com/xiebiao/library/internal/application/payment"
	"github.com/xiebiao/library/internal/domain/notification"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/logger"
	notifyinfra "github.com/xiebiao/library/internal/infrastructure/notification"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/pkg/jwt"
)

// App main需要的全部对象
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Engine *gin.Engine
	Users  user.Service
}

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return l, func() { _ = l.Sync() }, nil
}

// provideDB 连接MySQL，cleanup时关闭连接池
func provideDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	db, err := mysql.NewDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return db, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}, nil
}

func provideRedis(cfg *config.Config, log *zap.Logger) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

func provideUserService(repo user.Repository) user.Service {
	return user.NewService(repo)
}

func providePaymentManager(repo payment.Repository, gateway payment.Gateway, cfg *config.Config) *apppayment.Manager {
	return apppayment.NewManager(repo, gateway, cfg.Server.PublicURL)
}

// provideNotifier 后台投递通知；cleanup先等在途通知发完，再关闭底层连接
func provideNotifier(cfg *config.Config, log *zap.Logger) (notification.Notifier, func(), error) {
	sender, closeSender, err := notifyinfra.NewSender(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	async := notifyinfra.NewAsyncNotifier(sender, cfg.Notifier.Timeout, log)
	return async, func() {
		done := make(chan struct{})
		go func() {
			async.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(cfg.Server.ShutdownTimeout):
			log.Warn("等待在途通知超时")
		}
		closeSender()
	}, nil
}
