package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	StateConnected    = "connected"
	StateDisconnected = "disconnected"
	StateDisabled     = "disabled"
)

const probeTimeout = 2 * time.Second

// Status 健康状态
type Status struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
	NATS     string `json:"nats"`
}

// Ready 所有启用的依赖都已连接
func (s *Status) Ready() bool {
	for _, state := range []string{s.Database, s.Redis, s.NATS} {
		if state == StateDisconnected {
			return false
		}
	}
	return true
}

// DBPinger 数据库连通性检查，*pgxpool.Pool 满足该接口
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ConnStatus 长连接状态
type ConnStatus interface {
	IsConnected() bool
}

// Checker 健康检查器，redis 和 nats 可为 nil（未启用）
type Checker struct {
	db          DBPinger
	redisClient redis.UniversalClient
	nc          ConnStatus
}

// NewChecker 创建健康检查器
func NewChecker(db DBPinger, redisClient redis.UniversalClient, nc ConnStatus) *Checker {
	return &Checker{
		db:          db,
		redisClient: redisClient,
		nc:          nc,
	}
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{
		Database: StateDisconnected,
		Redis:    StateDisabled,
		NATS:     StateDisabled,
	}

	// 检查 PostgreSQL
	dbCtx, dbCancel := context.WithTimeout(ctx, probeTimeout)
	defer dbCancel()
	if h.db != nil && h.db.Ping(dbCtx) == nil {
		status.Database = StateConnected
	}

	// 检查 Redis
	if h.redisClient != nil {
		redisCtx, redisCancel := context.WithTimeout(ctx, probeTimeout)
		defer redisCancel()
		if err := h.redisClient.Ping(redisCtx).Err(); err == nil {
			status.Redis = StateConnected
		} else {
			status.Redis = StateDisconnected
		}
	}

	// 检查 NATS
	if h.nc != nil {
		if h.nc.IsConnected() {
			status.NATS = StateConnected
		} else {
			status.NATS = StateDisconnected
		}
	}

	return status
}

// ServeHTTP 就绪检查端点
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if status.Ready() {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

// NewMux 健康检查服务路由：/health 存活、/ready 就绪、/metrics 指标
func NewMux(checker *Checker, metricsHandler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /ready", checker)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
	return mux
}
