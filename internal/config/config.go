package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Lock      LockConfig      `mapstructure:"lock"`
	Snowflake SnowflakeConfig `mapstructure:"snowflake"`
}

type AppConfig struct {
	Name       string `mapstructure:"name"`
	Port       int    `mapstructure:"port"`
	HealthPort int    `mapstructure:"health_port"`
	Mode       string `mapstructure:"mode"`
	LogLevel   string `mapstructure:"log_level"`
	Swagger    bool   `mapstructure:"swagger"`
}

type JWTConfig struct {
	SecretKey    string        `mapstructure:"secret_key"`
	AccessExpire time.Duration `mapstructure:"access_expire"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN PostgreSQL 连接串
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Addr Redis 地址
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NATSConfig URL 为空时不发布队伍事件
type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	ClientName    string        `mapstructure:"client_name"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// LockConfig 集群锁配置
type LockConfig struct {
	// Backend redis 或 local，local 只适用于单实例
	Backend         string        `mapstructure:"backend"`
	KeyPrefix       string        `mapstructure:"key_prefix"`
	JoinKey         string        `mapstructure:"join_key"`
	Lease           time.Duration `mapstructure:"lease"`
	RetryInterval   time.Duration `mapstructure:"retry_interval"`
	SerializeCreate bool          `mapstructure:"serialize_create"`
}

type SnowflakeConfig struct {
	NodeID int64 `mapstructure:"node_id"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "find-friends-team")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.health_port", 8081)
	v.SetDefault("app.mode", "release")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("jwt.access_expire", 24*time.Hour)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("nats.client_name", "find-friends-team")
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)
	v.SetDefault("lock.backend", "redis")
	v.SetDefault("lock.key_prefix", "find-friends:lock:")
	v.SetDefault("lock.join_key", "team:join:lock")
	v.SetDefault("lock.lease", 30*time.Second)
	v.SetDefault("lock.retry_interval", 50*time.Millisecond)
	v.SetDefault("snowflake.node_id", 1)
}

// Load 从指定路径加载配置，再用环境变量覆盖
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 从环境变量覆盖配置
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv 从环境变量覆盖配置
func (c *Config) applyEnv() {
	// App
	c.App.Port = GetEnvInt("WEB_PORT", c.App.Port)
	c.App.HealthPort = GetEnvInt("HEALTH_PORT", c.App.HealthPort)
	c.App.LogLevel = GetEnv("LOG_LEVEL", c.App.LogLevel)

	// JWT
	c.JWT.SecretKey = GetEnv("JWT_SECRET", c.JWT.SecretKey)
	c.JWT.AccessExpire = GetEnvDuration("JWT_ACCESS_EXPIRE", c.JWT.AccessExpire)

	// Database
	c.Database.Host = GetEnv("POSTGRES_HOST", c.Database.Host)
	c.Database.Port = GetEnvInt("POSTGRES_PORT", c.Database.Port)
	c.Database.User = GetEnv("POSTGRES_USER", c.Database.User)
	c.Database.Password = GetEnv("POSTGRES_PASSWORD", c.Database.Password)
	c.Database.Name = GetEnv("POSTGRES_DB", c.Database.Name)
	c.Database.MaxOpenConns = GetEnvInt("POSTGRES_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = GetEnvInt("POSTGRES_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.AutoMigrate = GetEnvBool("POSTGRES_AUTO_MIGRATE", c.Database.AutoMigrate)

	// Redis
	c.Redis.Host = GetEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = GetEnvInt("REDIS_PORT", c.Redis.Port)
	c.Redis.Password = GetEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = GetEnvInt("REDIS_DB", c.Redis.DB)
	c.Redis.PoolSize = GetEnvInt("REDIS_POOL_SIZE", c.Redis.PoolSize)

	// NATS
	c.NATS.URL = GetEnv("NATS_URL", c.NATS.URL)

	// Lock
	c.Lock.Backend = GetEnv("LOCK_BACKEND", c.Lock.Backend)
	c.Lock.JoinKey = GetEnv("LOCK_JOIN_KEY", c.Lock.JoinKey)
	c.Lock.Lease = GetEnvDuration("LOCK_LEASE", c.Lock.Lease)
	c.Lock.SerializeCreate = GetEnvBool("LOCK_SERIALIZE_CREATE", c.Lock.SerializeCreate)

	c.Snowflake.NodeID = int64(GetEnvInt("SNOWFLAKE_NODE_ID", int(c.Snowflake.NodeID)))
}

// Validate 校验启动必需的配置
func (c *Config) Validate() error {
	if c.JWT.SecretKey == "" {
		return fmt.Errorf("config: jwt.secret_key is required")
	}
	switch c.Lock.Backend {
	case "redis", "local":
	default:
		return fmt.Errorf("config: unknown lock.backend %q", c.Lock.Backend)
	}
	if c.Lock.JoinKey == "" {
		return fmt.Errorf("config: lock.join_key is required")
	}
	return nil
}
