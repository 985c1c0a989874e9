package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type AppConfig struct {
	API      *APIConfig
	Gin      *GinConfig
	Postgres *PostgresConfig
	Redis    *RedisConfig
	Jobs     *JobsConfig
	Rates    *RatesConfig
	Log      *LogConfig
}

type APIConfig struct {
	BaseURL            string
	Environment        string
	Port               string
	JWTSigningKey      string
	AllowedCORSDomains []string
	AdminEmail         string
	AdminPassword      string
	// LookupRateLimit is the number of ticket lookups allowed per client IP
	// and LookupRateWindow.
	LookupRateLimit  int
	LookupRateWindow time.Duration
}

type GinConfig struct {
	Mode string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type JobsConfig struct {
	// ReservationTTL is how long a participation may wait for a payment.
	ReservationTTL time.Duration
	PollInterval   time.Duration
	RateUpdateCron string
	// Timezone applies to the cron schedule and to the rate job's "today".
	Timezone string
	// MaxRateAttempts caps the daily rate update attempts.
	MaxRateAttempts int
	AttemptsTTL     time.Duration
}

type RatesConfig struct {
	SourceURL string
	Timeout   time.Duration
}

type LogConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig() -> %w", err)
	}

	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal() -> %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		// Only the log line is live; the rest needs a restart.
		zap.L().Info("config file changed", zap.String("file", e.Name), zap.String("op", e.Op.String()))
	})
	v.WatchConfig()

	return conf, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.lookupratelimit", 10)
	v.SetDefault("api.lookupratewindow", time.Minute)
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.cachettl", 15*time.Minute)
	v.SetDefault("jobs.reservationttl", 5*time.Minute)
	v.SetDefault("jobs.pollinterval", time.Second)
	v.SetDefault("jobs.rateupdatecron", "0 17 * * 1-5")
	v.SetDefault("jobs.timezone", "America/Caracas")
	v.SetDefault("jobs.maxrateattempts", 5)
	v.SetDefault("jobs.attemptsttl", 8*time.Hour)
	v.SetDefault("rates.sourceurl", "https://www.bcv.org.ve/")
	v.SetDefault("rates.timeout", 15*time.Second)
	v.SetDefault("log.maxsizemb", 100)
	v.SetDefault("log.maxbackups", 7)
	v.SetDefault("log.maxagedays", 14)
	v.SetDefault("log.compress", true)
}

func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode,
	)
}
