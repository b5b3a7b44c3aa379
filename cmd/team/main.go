package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/w22j/find-friends-backend/internal/app/migrate"
	"github.com/w22j/find-friends-backend/internal/config"
	"github.com/w22j/find-friends-backend/internal/handler"
	"github.com/w22j/find-friends-backend/internal/health"
	"github.com/w22j/find-friends-backend/internal/lock"
	"github.com/w22j/find-friends-backend/internal/metrics"
	natsclient "github.com/w22j/find-friends-backend/internal/nats"
	"github.com/w22j/find-friends-backend/internal/repository/postgres"
	"github.com/w22j/find-friends-backend/internal/router"
	"github.com/w22j/find-friends-backend/internal/service"
	"github.com/w22j/find-friends-backend/pkg/jwt"
	"github.com/w22j/find-friends-backend/pkg/snowflake"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "config file path")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.App.LogLevel),
	})).With("app", cfg.App.Name)
	slog.SetDefault(logger)

	// 创建上下文
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 数据库迁移
	if cfg.Database.AutoMigrate {
		runner, err := migrate.New(cfg.Database.DSN(), logger.With("component", "migrate"))
		if err == nil {
			err = runner.Ensure(ctx)
		}
		if err != nil {
			logger.Error("Failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	// 连接数据库
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)

	// 初始化集群锁
	var (
		locker      lock.Locker
		redisClient redis.UniversalClient
	)
	switch cfg.Lock.Backend {
	case "local":
		locker = lock.NewLocalLocker()
		logger.Warn("Using in-process lock, only safe for a single instance")
	default:
		client := connectRedis(cfg.Redis)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		logger.Info("Connected to Redis", "host", cfg.Redis.Host)
		redisClient = client
		locker = lock.NewRedisLocker(client,
			lock.WithKeyPrefix(cfg.Lock.KeyPrefix),
			lock.WithLease(cfg.Lock.Lease),
			lock.WithRetryInterval(cfg.Lock.RetryInterval),
			lock.WithLogger(logger.With("component", "lock")),
		)
	}

	m := metrics.New()

	// 初始化雪花ID生成器
	sfNode, err := snowflake.NewNode(cfg.Snowflake.NodeID)
	if err != nil {
		logger.Error("Failed to create snowflake node", "error", err)
		os.Exit(1)
	}

	// 初始化 Repository
	teamRepo := postgres.NewTeamRepository(db)
	userRepo := postgres.NewUserRepository(db)

	opts := []service.Option{
		service.WithMetrics(m),
		service.WithJoinLockName(cfg.Lock.JoinKey),
		service.WithSerializeCreate(cfg.Lock.SerializeCreate),
		service.WithLogger(logger.With("component", "team")),
	}

	// 连接 NATS，未配置时不发布队伍事件
	var natsConn health.ConnStatus
	if cfg.NATS.URL != "" {
		nc, err := natsclient.Connect(cfg.NATS, logger)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer nc.Close()
		natsConn = nc
		opts = append(opts, service.WithPublisher(natsclient.NewTeamEventPublisher(nc)))
	}

	// 初始化 Service 和 Handler
	teamService := service.NewTeamService(teamRepo, userRepo, locker, sfNode, opts...)
	teamHandler := handler.NewTeamHandler(teamService)

	// 初始化 JWT 校验
	jwtService := jwt.NewService(cfg.JWT.SecretKey, cfg.JWT.AccessExpire)

	// 设置路由
	r := router.SetupRouter(cfg, jwtService, userRepo, teamHandler, m, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	healthServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HealthPort),
		Handler:           health.NewMux(health.NewChecker(db, redisClient, natsConn), m.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 启动服务器
	go func() {
		logger.Info("Team server started", "addr", server.Addr, "mode", cfg.App.Mode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()
	go func() {
		logger.Info("Health server started", "addr", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health server failed", "error", err)
		}
	}()

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Health server shutdown failed", "error", err)
	}
	cancel()
	logger.Info("Server stopped")
}

// parseLevel 日志级别，未知值按 info 处理
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// connectDatabase 连接 PostgreSQL
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// connectRedis 连接 Redis
func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}
