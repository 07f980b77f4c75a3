package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BroadcastRedis = "redis"
	BroadcastLocal = "local"
)

// Config holds every runtime setting of the auction server.
type Config struct {
	Env      string
	LogLevel string
	HTTPAddr string

	// Broadcast is "redis" to fan events out through REDIS_EVENTS_CHANNEL
	// or "local" to deliver them only to this instance's clients.
	Broadcast string

	DB    DBConfig
	Redis RedisConfig

	Bidding      BiddingConfig
	Scheduler    SchedulerConfig
	Notification NotificationConfig
	Mail         MailConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	Timeout  time.Duration
}

type RedisConfig struct {
	Addr           string
	Password       string
	PoolMultiplier float64
	Retry          bool
	EventsChannel  string
}

type BiddingConfig struct {
	LockTTL           time.Duration
	LockWaitTimeout   time.Duration
	LockRetryInterval time.Duration
}

type SchedulerConfig struct {
	Tick            time.Duration
	BatchSize       int
	CounterOfferTTL time.Duration
}

type NotificationConfig struct {
	PerUserCap int
}

type MailConfig struct {
	Workers     int
	QueueLength int
	From        string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", ":9000")
	v.SetDefault("BROADCAST_MODE", BroadcastRedis)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "auctionhouse")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_TIMEOUT", "3s")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_POOL_MULTIPLIER", 0)
	v.SetDefault("REDIS_RETRY", true)
	v.SetDefault("REDIS_EVENTS_CHANNEL", "auction-events")

	v.SetDefault("BID_LOCK_TTL", "2s")
	v.SetDefault("BID_LOCK_WAIT", "500ms")
	v.SetDefault("BID_LOCK_RETRY", "10ms")

	v.SetDefault("SCHEDULER_TICK", "1s")
	v.SetDefault("SCHEDULER_BATCH", 100)
	v.SetDefault("COUNTER_OFFER_TTL", "24h")

	v.SetDefault("NOTIFICATIONS_PER_USER", 50)

	v.SetDefault("MAIL_WORKERS", 4)
	v.SetDefault("MAIL_QUEUE", 256)
	v.SetDefault("MAIL_FROM", "no-reply@auctionhouse.local")
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Env:       v.GetString("APP_ENV"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		HTTPAddr:  v.GetString("HTTP_ADDR"),
		Broadcast: v.GetString("BROADCAST_MODE"),
		DB: DBConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
			Timeout:  v.GetDuration("DB_TIMEOUT"),
		},
		Redis: RedisConfig{
			Addr:           v.GetString("REDIS_ADDR"),
			Password:       v.GetString("REDIS_PASSWORD"),
			PoolMultiplier: v.GetFloat64("REDIS_POOL_MULTIPLIER"),
			Retry:          v.GetBool("REDIS_RETRY"),
			EventsChannel:  v.GetString("REDIS_EVENTS_CHANNEL"),
		},
		Bidding: BiddingConfig{
			LockTTL:           v.GetDuration("BID_LOCK_TTL"),
			LockWaitTimeout:   v.GetDuration("BID_LOCK_WAIT"),
			LockRetryInterval: v.GetDuration("BID_LOCK_RETRY"),
		},
		Scheduler: SchedulerConfig{
			Tick:            v.GetDuration("SCHEDULER_TICK"),
			BatchSize:       v.GetInt("SCHEDULER_BATCH"),
			CounterOfferTTL: v.GetDuration("COUNTER_OFFER_TTL"),
		},
		Notification: NotificationConfig{
			PerUserCap: v.GetInt("NOTIFICATIONS_PER_USER"),
		},
		Mail: MailConfig{
			Workers:     v.GetInt("MAIL_WORKERS"),
			QueueLength: v.GetInt("MAIL_QUEUE"),
			From:        v.GetString("MAIL_FROM"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Broadcast {
	case BroadcastRedis:
		if c.Redis.EventsChannel == "" {
			return fmt.Errorf("config: REDIS_EVENTS_CHANNEL is required when BROADCAST_MODE is redis")
		}
	case BroadcastLocal:
	default:
		return fmt.Errorf("config: BROADCAST_MODE must be %q or %q", BroadcastRedis, BroadcastLocal)
	}
	if c.Bidding.LockTTL <= 0 {
		return fmt.Errorf("config: BID_LOCK_TTL must be positive")
	}
	if c.Bidding.LockWaitTimeout < 0 || c.Bidding.LockRetryInterval <= 0 {
		return fmt.Errorf("config: BID_LOCK_WAIT must be >= 0 and BID_LOCK_RETRY positive")
	}
	if c.Scheduler.Tick <= 0 {
		return fmt.Errorf("config: SCHEDULER_TICK must be positive")
	}
	if c.Scheduler.CounterOfferTTL <= 0 {
		return fmt.Errorf("config: COUNTER_OFFER_TTL must be positive")
	}
	if c.Notification.PerUserCap <= 0 {
		return fmt.Errorf("config: NOTIFICATIONS_PER_USER must be positive")
	}
	if c.Mail.Workers <= 0 {
		return fmt.Errorf("config: MAIL_WORKERS must be positive")
	}
	return nil
}

// PostgresDSN renders the libpq style URL used by pgx and golang-migrate.
func (c DBConfig) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}
