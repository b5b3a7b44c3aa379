package nats

import (
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/w22j/find-friends-backend/internal/config"
)

const (
	connectTimeout = 5 * time.Second
	flushTimeout   = 2 * time.Second
	// 断线期间最多缓存的事件字节数，超出后 Publish 直接返回错误
	reconnectBufSize = 1 << 20
)

var _ publishConn = (*Client)(nil)

// Client 只发布队伍事件的 NATS 连接
// 启动时 NATS 不可用不阻塞服务，连接在后台重试，期间事件写入重连缓冲
type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// Connect 连接 NATS
func Connect(cfg config.NATSConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "nats")

	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.ClientName),
		nats.Timeout(connectTimeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectBufSize(reconnectBufSize),
		nats.NoEcho(),
		nats.ConnectHandler(func(nc *nats.Conn) {
			logger.Info("Connected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("Disconnected from NATS, team events are buffered", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			logger.Error("NATS async error", "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}

	return &Client{conn: conn, logger: logger}, nil
}

// Publish 发布一条消息
func (c *Client) Publish(subject string, data []byte) error {
	if c == nil || c.conn == nil {
		return nats.ErrConnectionClosed
	}
	return c.conn.Publish(subject, data)
}

// IsConnected 检查连接状态
func (c *Client) IsConnected() bool {
	return c != nil && c.conn != nil && c.conn.IsConnected()
}

// Close 刷出已缓存的事件后关闭连接
func (c *Client) Close() {
	if c == nil || c.conn == nil {
		return
	}
	if c.conn.IsConnected() {
		if err := c.conn.FlushTimeout(flushTimeout); err != nil {
			c.logger.Warn("Failed to flush team events", "error", err)
		}
	} else if n, err := c.conn.Buffered(); err == nil && n > 0 {
		c.logger.Warn("Dropping buffered team events", "bytes", n)
	}
	c.conn.Close()
}
