package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Backend   BackendConfig
	Sync      SyncConfig
	Archive   ArchiveConfig
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	SyncOnly bool `mapstructure:"-"` // 执行一次全量同步后退出
}

type ServerConfig struct {
	Port string
	Mode string
}

// StorageConfig 本地进度存储（键值）后端
type StorageConfig struct {
	Driver    string `mapstructure:"driver"` // sqlite | mysql | redis | memory
	SQLiteDSN string `mapstructure:"sqlite_dsn"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int `mapstructure:"pool_size"`
	// 启动时 PING 的超时
	PingTimeoutSeconds int `mapstructure:"ping_timeout_seconds"`
}

// LogConfig 日志文件滚动；Level 为空时按 server.mode 决定
type LogConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Console    bool   `mapstructure:"console"`
}

// BackendConfig 远端课程/证书服务
type BackendConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RetryCount     int     `mapstructure:"retry_count"`
	RequestsPerSec float64 `mapstructure:"requests_per_second"`

	// 由 TimeoutSeconds 换算
	Timeout time.Duration `mapstructure:"-"`
}

type SyncConfig struct {
	Enabled             bool `mapstructure:"enabled"`
	IntervalMinutes     int  `mapstructure:"interval_minutes"`
	InitialDelaySeconds int  `mapstructure:"initial_delay_seconds"`
	TimeoutSeconds      int  `mapstructure:"timeout_seconds"`

	// LoadConfig 中换算
	Interval     time.Duration `mapstructure:"-"`
	InitialDelay time.Duration `mapstructure:"-"`
	Timeout      time.Duration `mapstructure:"-"`
}

// ArchiveConfig 证书归档存储
type ArchiveConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8787")
	v.SetDefault("server.mode", "release")

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite_dsn", "data/progress.db")
	v.SetDefault("storage.key_prefix", "course_sync:")

	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 4)
	v.SetDefault("redis.ping_timeout_seconds", 5)

	v.SetDefault("log.file", "logs/sync-agent.log")
	v.SetDefault("log.max_size_mb", 20)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 14)
	v.SetDefault("log.console", true)

	v.SetDefault("backend.base_url", "http://localhost:3000")
	v.SetDefault("backend.timeout_seconds", 15)
	v.SetDefault("backend.retry_count", 0)
	v.SetDefault("backend.requests_per_second", 20)

	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.interval_minutes", 5)
	v.SetDefault("sync.initial_delay_seconds", 30)
	v.SetDefault("sync.timeout_seconds", 60)

	v.SetDefault("archive.type", "local")
	v.SetDefault("archive.local_path", "data/certificates")

	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
}

func LoadConfig(path string) (*Config, error) {
	// .env 不存在时忽略，继续使用系统环境变量
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("COURSE_SYNC")
	v.AutomaticEnv()
	setDefaults(v)

	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// Storage
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.sqlite_dsn", "STORAGE_SQLITE_DSN")

	// Database
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Log
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.file", "LOG_FILE")

	// Backend
	v.BindEnv("backend.base_url", "API_BASE_URL")

	// Sync
	v.BindEnv("sync.enabled", "SYNC_ENABLED")
	v.BindEnv("sync.interval_minutes", "SYNC_INTERVAL_MINUTES")
	v.BindEnv("sync.initial_delay_seconds", "SYNC_INITIAL_DELAY_SECONDS")

	// Archive / MinIO / OSS
	v.BindEnv("archive.type", "ARCHIVE_TYPE")
	v.BindEnv("archive.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("archive.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("archive.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("archive.minio_bucket", "MINIO_BUCKET")
	v.BindEnv("archive.oss_endpoint", "OSS_ENDPOINT")
	v.BindEnv("archive.oss_access_key", "OSS_ACCESS_KEY")
	v.BindEnv("archive.oss_secret_key", "OSS_SECRET_KEY")
	v.BindEnv("archive.oss_bucket", "OSS_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		// 没有配置文件时使用默认值 + 环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Backend.Timeout = time.Duration(cfg.Backend.TimeoutSeconds) * time.Second
	cfg.Sync.Interval = time.Duration(cfg.Sync.IntervalMinutes) * time.Minute
	cfg.Sync.InitialDelay = time.Duration(cfg.Sync.InitialDelaySeconds) * time.Second
	cfg.Sync.Timeout = time.Duration(cfg.Sync.TimeoutSeconds) * time.Second

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "mysql", "redis", "memory":
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base_url is required")
	}
	if c.Sync.Enabled && c.Sync.Interval <= 0 {
		return fmt.Errorf("sync interval must be positive, got %s", c.Sync.Interval)
	}
	return nil
}
