package http

import (
	"context"

	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"

	"catalog-accounts/internal/bootstrap"
	"catalog-accounts/internal/platform/mysql"
	"catalog-accounts/internal/platform/rabbitmq"
	"catalog-accounts/internal/platform/redis"
	"catalog-accounts/internal/transport/http/handler"
	"catalog-accounts/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)

	healthHandler := handler.NewHealthHandler(
		app.Config.App.Name,
		app.Config.App.Env,
		app.StartedAt,
		handler.DependencyCheck{Name: "mysql", Check: func(ctx context.Context) error { return mysql.Ping(ctx, app.MySQL) }},
		handler.DependencyCheck{Name: "redis", Check: func(ctx context.Context) error { return redis.Ping(ctx, app.Redis) }},
		handler.DependencyCheck{Name: "rabbitmq", Check: func(context.Context) error { return rabbitmq.Healthy(app.MQConn) }},
	)
	return NewEngine(app.Config.Auth.JWTSecret, app.Services, healthHandler)
}

// NewEngine mounts the API on services.
func NewEngine(jwtSecret string, services *bootstrap.Services, healthHandler *handler.HealthHandler) *gin.Engine {
	router := gin.New()
	router.Use(middleware.AccessLog(zlog.Logger), gin.Recovery())

	if healthHandler != nil {
		router.GET("/healthz", healthHandler.Check)
	}

	var revoked middleware.RevocationChecker
	if services.Denylist != nil {
		revoked = services.Denylist
	}

	authHandler := handler.NewAuthHandler(services.Auth)
	userHandler := handler.NewUserHandler(services.Users, services.Activity)
	resetHandler := handler.NewResetHandler(services.Reset)
	followHandler := handler.NewFollowHandler(services.Follow)
	requireLogin := middleware.RequireLogin(handler.LoginPath)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Authenticate(jwtSecret, revoked, services.Auth))

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", requireLogin, authHandler.Logout)
	authGroup.GET("/me", requireLogin, authHandler.Me)

	users := v1.Group("/users")
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Show)
	users.PATCH("/:id", requireLogin, userHandler.Update)
	users.DELETE("/:id", requireLogin, userHandler.Delete)
	users.GET("/:id/activity", userHandler.Activity)
	users.POST("/:id/follow", requireLogin, followHandler.Follow)
	users.POST("/:id/unfollow", requireLogin, followHandler.Unfollow)
	users.GET("/:id/followers", requireLogin, followHandler.Followers)
	users.GET("/:id/follower_count", followHandler.FollowerCount)

	reset := v1.Group("/reset")
	reset.POST("", resetHandler.Request)
	reset.POST("/:id", resetHandler.Perform)

	return router
}
