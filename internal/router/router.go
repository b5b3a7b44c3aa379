package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/w22j/find-friends-backend/internal/config"
	"github.com/w22j/find-friends-backend/internal/handler"
	"github.com/w22j/find-friends-backend/internal/metrics"
	"github.com/w22j/find-friends-backend/internal/middleware"
)

// SetupRouter 设置路由
func SetupRouter(
	cfg *config.Config,
	validator middleware.TokenValidator,
	users middleware.UserLoader,
	teamHandler *handler.TeamHandler,
	m *metrics.Metrics,
	logger *slog.Logger,
) *gin.Engine {
	// 设置 Gin 模式
	gin.SetMode(cfg.App.Mode)

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger, m))
	r.Use(middleware.CORS(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowCredentials,
	))

	// Swagger 文档路由
	if cfg.App.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 查询接口，登录可选
		public := v1.Group("/team")
		public.Use(middleware.OptionalAuth(validator, users))
		{
			public.GET("/get", teamHandler.GetTeam)
			public.GET("/list", teamHandler.ListTeams)
			public.GET("/list/page", teamHandler.ListTeamsByPage)
		}

		// 需要认证的接口
		team := v1.Group("/team")
		team.Use(middleware.JWTAuth(validator, users))
		{
			team.POST("/add", teamHandler.CreateTeam)
			team.POST("/update", teamHandler.UpdateTeam)
			team.POST("/delete", teamHandler.DeleteTeam)
			team.POST("/join", teamHandler.JoinTeam)
			team.POST("/quit", teamHandler.QuitTeam)
			team.GET("/list/my/create", teamHandler.ListMyCreatedTeams)
			team.GET("/list/my/join", teamHandler.ListMyJoinedTeams)
		}
	}

	return r
}
