package bootstrap

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"catalog-accounts/internal/app"
	"catalog-accounts/internal/cache"
	"catalog-accounts/internal/config"
	"catalog-accounts/internal/platform/rabbitmq"
	"catalog-accounts/internal/repository"
)

// Backends are the connections services are built on. Redis and MQConn may
// be nil: the activity stream then skips caching and writes synchronously,
// and logout cannot revoke tokens.
type Backends struct {
	DB       *gorm.DB
	Redis    *redis.Client
	MQConn   *amqp.Connection
	Notifier app.ResetNotifier
}

type Services struct {
	Auth     *app.AuthService
	Users    *app.UserService
	Reset    *app.ResetService
	Follow   *app.FollowService
	Activity *app.ActivityService
	Denylist *cache.TokenDenylist
}

func NewServices(cfg *config.Config, b Backends) *Services {
	userRepo := repository.NewUserRepository(b.DB)
	followRepo := repository.NewFollowRepository(b.DB)
	activityRepo := repository.NewActivityRepository(b.DB)
	hasher := app.NewPasswordHasher(cfg.Auth.BcryptCost)

	var (
		publisher     app.AsyncActivityPublisher
		activityCache app.ActivityCache
		revoker       app.TokenRevoker
		denylist      *cache.TokenDenylist
	)
	if b.MQConn != nil {
		publisher = rabbitmq.NewActivityPublisher(b.MQConn, cfg.RabbitMQ.ActivityQueue)
	}
	if b.Redis != nil {
		activityCache = cache.NewActivityCache(
			b.Redis,
			time.Duration(cfg.Redis.ActivityTTLSeconds)*time.Second,
			time.Duration(cfg.Redis.ActivityDirtyTTLSeconds)*time.Second,
		)
		denylist = cache.NewTokenDenylist(b.Redis)
		revoker = denylist
	}

	activities := app.NewActivityService(userRepo, activityRepo, publisher, activityCache)
	return &Services{
		Auth: app.NewAuthService(
			userRepo,
			hasher,
			activities,
			revoker,
			cfg.Auth.JWTSecret,
			time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
		),
		Users:    app.NewUserService(userRepo, hasher, activities),
		Reset:    app.NewResetService(userRepo, b.Notifier, hasher, time.Duration(cfg.Reset.KeyTTLMinutes)*time.Minute),
		Follow:   app.NewFollowService(userRepo, followRepo, activities),
		Activity: activities,
		Denylist: denylist,
	}
}
