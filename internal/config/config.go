package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/cirs/cirs-api/internal/email"
	"github.com/cirs/cirs-api/internal/middleware"
	"github.com/cirs/cirs-api/pkg/auth"
	"github.com/cirs/cirs-api/pkg/blobstore"
	"github.com/cirs/cirs-api/pkg/logger"
	"github.com/cirs/cirs-api/pkg/messaging/rabbitmq"
	"github.com/cirs/cirs-api/pkg/messaging/redis"
	"github.com/cirs/cirs-api/pkg/storage"
	"github.com/cirs/cirs-api/pkg/validator"
	"github.com/cirs/cirs-api/pkg/worker"
)

// EnvPrefix prefixes every environment override, e.g. CIRS_SERVER_PORT.
const EnvPrefix = "CIRS"

const (
	BrokerMemory   = "memory"
	BrokerRedis    = "redis"
	BrokerRabbitMQ = "rabbitmq"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Store     StoreConfig     `mapstructure:"store"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Security  SecurityConfig  `mapstructure:"security"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Broker    BrokerConfig    `mapstructure:"broker"`
	Outbox    OutboxConfig    `mapstructure:"outbox"`
	Reminders ReminderConfig  `mapstructure:"reminders"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Seed      SeedConfig      `mapstructure:"seed"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	Mode            string        `mapstructure:"mode"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" envconfig:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size" envconfig:"max_body_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StoreConfig struct {
	Driver   string              `mapstructure:"driver" validate:"oneof=memory redis postgres"`
	Prefix   string              `mapstructure:"prefix"`
	Redis    StoreRedisConfig    `mapstructure:"redis"`
	Postgres StorePostgresConfig `mapstructure:"postgres"`
}

type StoreRedisConfig struct {
	URL           string `mapstructure:"url"`
	PoolSize      int    `mapstructure:"pool_size" envconfig:"pool_size"`
	MinIdleConns  int    `mapstructure:"min_idle_conns" envconfig:"min_idle_conns"`
	UpdateRetries int    `mapstructure:"update_retries" envconfig:"update_retries"`
}

type StorePostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" envconfig:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" envconfig:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" envconfig:"conn_max_lifetime"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret" validate:"required"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type SecurityConfig struct {
	BcryptCost     int      `mapstructure:"bcrypt_cost" envconfig:"bcrypt_cost" validate:"min=4,max=31"`
	AllowedOrigins []string `mapstructure:"allowed_origins" envconfig:"allowed_origins"`
	RateLimit      float64  `mapstructure:"rate_limit" envconfig:"rate_limit"`
	RateBurst      int      `mapstructure:"rate_burst" envconfig:"rate_burst"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type StorageConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	AccessKey string        `mapstructure:"access_key" envconfig:"access_key"`
	SecretKey string        `mapstructure:"secret_key" envconfig:"secret_key"`
	Bucket    string        `mapstructure:"bucket"`
	Region    string        `mapstructure:"region"`
	UseSSL    bool          `mapstructure:"use_ssl" envconfig:"use_ssl"`
	URLExpiry time.Duration `mapstructure:"url_expiry" envconfig:"url_expiry"`
}

type BrokerConfig struct {
	Driver   string               `mapstructure:"driver" validate:"oneof=memory redis rabbitmq"`
	Redis    BrokerRedisConfig    `mapstructure:"redis"`
	RabbitMQ BrokerRabbitMQConfig `mapstructure:"rabbitmq"`
}

type BrokerRedisConfig struct {
	URL           string        `mapstructure:"url"`
	ChannelPrefix string        `mapstructure:"channel_prefix" envconfig:"channel_prefix"`
	MaxRetries    int           `mapstructure:"max_retries" envconfig:"max_retries"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff" envconfig:"retry_backoff"`
	PoolSize      int           `mapstructure:"pool_size" envconfig:"pool_size"`
	MinIdleConns  int           `mapstructure:"min_idle_conns" envconfig:"min_idle_conns"`
}

type BrokerRabbitMQConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type OutboxConfig struct {
	BatchSize     int           `mapstructure:"batch_size" envconfig:"batch_size"`
	PollInterval  time.Duration `mapstructure:"poll_interval" envconfig:"poll_interval"`
	RetryAttempts int           `mapstructure:"retry_attempts" envconfig:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" envconfig:"retry_delay"`
	MaxDeliveries int           `mapstructure:"max_deliveries" envconfig:"max_deliveries"`
	Retention     time.Duration `mapstructure:"retention"`
}

type ReminderConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type AuditConfig struct {
	RetentionDays   int           `mapstructure:"retention_days" envconfig:"retention_days" validate:"min=1"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" envconfig:"cleanup_interval"`
}

type SeedConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type WorkerConfig struct {
	HealthPort int `mapstructure:"health_port" envconfig:"health_port"`
}

// Load reads config.yml from the first matching path, then a .env file, then
// CIRS_* environment variables. A missing config file is not an error.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config", "/app", "/app/config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "CIRS")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_body_size", 1<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("store.driver", blobstore.DriverMemory)
	v.SetDefault("store.prefix", "cirs_")
	v.SetDefault("store.redis.pool_size", 10)
	v.SetDefault("store.redis.update_retries", 50)
	v.SetDefault("store.postgres.max_open_conns", 10)
	v.SetDefault("store.postgres.max_idle_conns", 5)
	v.SetDefault("store.postgres.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("jwt.issuer", "cirs-api")
	v.SetDefault("jwt.ttl", 24*time.Hour)

	v.SetDefault("security.bcrypt_cost", 10)
	v.SetDefault("security.allowed_origins", []string{"*"})
	v.SetDefault("security.rate_limit", 20)
	v.SetDefault("security.rate_burst", 40)

	v.SetDefault("smtp.port", 587)

	v.SetDefault("storage.bucket", "cirs-reports")
	v.SetDefault("storage.url_expiry", 24*time.Hour)

	v.SetDefault("broker.driver", BrokerMemory)
	v.SetDefault("broker.redis.channel_prefix", "cirs")
	v.SetDefault("broker.redis.max_retries", 3)
	v.SetDefault("broker.redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("broker.redis.pool_size", 10)
	v.SetDefault("broker.rabbitmq.exchange", "cirs.events")

	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.poll_interval", 5*time.Second)
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", time.Second)
	v.SetDefault("outbox.max_deliveries", 5)
	v.SetDefault("outbox.retention", 7*24*time.Hour)

	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.interval", time.Hour)

	v.SetDefault("audit.retention_days", 90)
	v.SetDefault("audit.cleanup_interval", 24*time.Hour)

	v.SetDefault("seed.enabled", true)

	v.SetDefault("worker.health_port", 8081)
}

// Validate checks the field rules and the settings each driver depends on.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if fields := validator.FieldErrors(err); len(fields) > 0 {
			return fmt.Errorf("invalid config: %s %s", fields[0].Field, fields[0].Message)
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Store.Driver == blobstore.DriverRedis && c.Store.Redis.URL == "" {
		return fmt.Errorf("store.redis.url is required for the redis driver")
	}
	if c.Store.Driver == blobstore.DriverPostgres && c.Store.Postgres.DSN == "" {
		return fmt.Errorf("store.postgres.dsn is required for the postgres driver")
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("jwt.secret must not be blank")
	}
	return nil
}

func (c *Config) Production() bool {
	return c.App.Environment == "production"
}

func (c *Config) ToStoreConfig() blobstore.Config {
	return blobstore.Config{
		Driver: c.Store.Driver,
		Redis: blobstore.RedisConfig{
			URL:           c.Store.Redis.URL,
			PoolSize:      c.Store.Redis.PoolSize,
			MinIdleConns:  c.Store.Redis.MinIdleConns,
			UpdateRetries: c.Store.Redis.UpdateRetries,
		},
		Postgres: blobstore.PostgresConfig{
			DSN:             c.Store.Postgres.DSN,
			MaxOpenConns:    c.Store.Postgres.MaxOpenConns,
			MaxIdleConns:    c.Store.Postgres.MaxIdleConns,
			ConnMaxLifetime: c.Store.Postgres.ConnMaxLifetime,
		},
	}
}

func (c *Config) ToLoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Log.Level,
		Format: c.Log.Format,
	}
}

func (c *Config) ToJWTConfig() auth.Config {
	return auth.Config{
		Secret: c.JWT.Secret,
		Issuer: c.JWT.Issuer,
		TTL:    c.JWT.TTL,
	}
}

func (c *Config) ToCORSConfig() middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	if len(c.Security.AllowedOrigins) > 0 {
		cors.AllowOrigins = c.Security.AllowedOrigins
	}
	return cors
}

func (c SMTPConfig) ToEmailConfig() email.SMTPConfig {
	return email.SMTPConfig{
		Host:     c.Host,
		Port:     c.Port,
		Username: c.Username,
		Password: c.Password,
		From:     c.From,
	}
}

func (c StorageConfig) ToStorageConfig() storage.Config {
	return storage.Config{
		Endpoint:  c.Endpoint,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Bucket:    c.Bucket,
		Region:    c.Region,
		UseSSL:    c.UseSSL,
		URLExpiry: c.URLExpiry,
	}
}

func (c BrokerConfig) ToRedisConfig() redis.Config {
	return redis.Config{
		URL:           c.Redis.URL,
		ChannelPrefix: c.Redis.ChannelPrefix,
		MaxRetries:    c.Redis.MaxRetries,
		RetryBackoff:  c.Redis.RetryBackoff,
		PoolSize:      c.Redis.PoolSize,
		MinIdleConns:  c.Redis.MinIdleConns,
	}
}

func (c BrokerConfig) ToRabbitMQConfig() rabbitmq.Config {
	return rabbitmq.Config{
		URL:      c.RabbitMQ.URL,
		Exchange: c.RabbitMQ.Exchange,
	}
}

func (c OutboxConfig) ToWorkerConfig() worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		BatchSize:     c.BatchSize,
		PollInterval:  c.PollInterval,
		RetryAttempts: c.RetryAttempts,
		RetryDelay:    c.RetryDelay,
		MaxDeliveries: c.MaxDeliveries,
		Retention:     c.Retention,
	}
}
