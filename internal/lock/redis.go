package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix     = "find-friends:lock:"
	DefaultLease         = 30 * time.Second
	DefaultRetryInterval = 50 * time.Millisecond
)

// 只有 token 匹配时才删除或续期，避免误删他人的锁
var (
	unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)
	renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)
)

// RedisLocker 基于 Redis 的分布式锁
type RedisLocker struct {
	client        redis.UniversalClient
	prefix        string
	lease         time.Duration
	retryInterval time.Duration
	logger        *slog.Logger
}

// RedisOption RedisLocker 配置项
type RedisOption func(*RedisLocker)

// WithKeyPrefix 设置键前缀
func WithKeyPrefix(prefix string) RedisOption {
	return func(l *RedisLocker) { l.prefix = prefix }
}

// WithLease 设置租约时长，持有期间由看门狗每 lease/3 续期
func WithLease(lease time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if lease > 0 {
			l.lease = lease
		}
	}
}

// WithRetryInterval 设置抢锁失败后的重试间隔
func WithRetryInterval(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.retryInterval = d
		}
	}
}

// WithLogger 设置日志
func WithLogger(logger *slog.Logger) RedisOption {
	return func(l *RedisLocker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewRedisLocker 创建 Redis 分布式锁
func NewRedisLocker(client redis.UniversalClient, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client:        client,
		prefix:        DefaultKeyPrefix,
		lease:         DefaultLease,
		retryInterval: DefaultRetryInterval,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewMutex 创建一个新的持有者，token 随机生成
func (l *RedisLocker) NewMutex(name string) Mutex {
	return &redisMutex{
		locker: l,
		key:    l.prefix + name,
		token:  uuid.NewString(),
	}
}

type redisMutex struct {
	locker *RedisLocker
	key    string
	token  string

	mu   sync.Mutex // 串行化 Lock/Unlock
	held atomic.Bool
	stop chan struct{}
	done chan struct{}
}

func (m *redisMutex) Lock(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.held.Load() {
		return ErrAlreadyHeld
	}
	m.stopWatchdog()

	l := m.locker
	for {
		ok, err := l.client.SetNX(ctx, m.key, m.token, l.lease).Result()
		if err != nil {
			if ctx.Err() != nil {
				return ErrInterrupted
			}
			return fmt.Errorf("lock %s: %w", m.key, err)
		}
		if ok {
			m.held.Store(true)
			m.startWatchdog()
			return nil
		}

		timer := time.NewTimer(l.retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ErrInterrupted
		case <-timer.C:
		}
	}
}

func (m *redisMutex) Unlock(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopWatchdog()
	if !m.held.Swap(false) {
		return ErrNotHeld
	}

	n, err := unlockScript.Run(ctx, m.locker.client, []string{m.key}, m.token).Int64()
	if err != nil {
		return fmt.Errorf("unlock %s: %w", m.key, err)
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

func (m *redisMutex) IsHeld() bool {
	return m.held.Load()
}

func (m *redisMutex) startWatchdog() {
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.watchdog(m.stop, m.done)
}

func (m *redisMutex) stopWatchdog() {
	if m.stop == nil {
		return
	}
	close(m.stop)
	<-m.done
	m.stop, m.done = nil, nil
}

func (m *redisMutex) watchdog(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	l := m.locker
	ticker := time.NewTicker(l.lease / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.lease/3)
			n, err := renewScript.Run(ctx, l.client, []string{m.key}, m.token, l.lease.Milliseconds()).Int64()
			cancel()
			if err != nil {
				l.logger.Warn("Failed to renew lock lease", "key", m.key, "error", err)
				continue
			}
			if n == 0 {
				l.logger.Error("Lock lease lost", "key", m.key)
				m.held.Store(false)
				return
			}
		}
	}
}
