package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	StoreSQL   = "sql"
	StoreRedis = "redis"
)

type Range struct {
	Cooldown time.Duration `mapstructure:"COOLDOWN"`
	Min      int64         `mapstructure:"MIN"`
	Max      int64         `mapstructure:"MAX"`
}

type Config struct {
	AppEnv     string `mapstructure:"APP_ENV"`
	AppName    string `mapstructure:"APP_NAME"`
	AppVersion string `mapstructure:"APP_VERSION"`
	NodeID     int64  `mapstructure:"NODE_ID"`
	TLS        struct {
		Enable   bool   `mapstructure:"ENABLE"`
		CertPath string `mapstructure:"CERT_PATH"`
		KeyPath  string `mapstructure:"KEY_PATH"`
	} `mapstructure:"TLS"`
	Otel struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"OTEL"`
	Pyroscope struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"PYROSCOPE"`
	Server struct {
		Addr         string        `mapstructure:"ADDR"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
		IdleTimeout  time.Duration `mapstructure:"IDLE_TIMEOUT"`
	} `mapstructure:"HTTP_SERVER"`
	Grpc struct {
		Addr string `mapstructure:"ADDR"`
	} `mapstructure:"GRPC_SERVER"`
	Database struct {
		Type           string `mapstructure:"TYPE"`
		Host           string `mapstructure:"HOST"`
		Port           string `mapstructure:"PORT"`
		DBNAME         string `mapstructure:"DBNAME"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
		Path           string `mapstructure:"PATH"`
		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConns    int           `mapstructure:"MAX_OPEN_CONNS"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
		Metrics struct {
			Enable          bool   `mapstructure:"ENABLE"`
			RefreshInterval uint32 `mapstructure:"REFRESH_INTERVAL"`
		} `mapstructure:"METRICS"`
	} `mapstructure:"DATABASE"`
	Redis struct {
		Addr        string        `mapstructure:"ADDR"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`
	Points struct {
		Message        Range         `mapstructure:"MESSAGE"`
		Reaction       Range         `mapstructure:"REACTION"`
		SweepInterval  time.Duration `mapstructure:"SWEEP_INTERVAL"`
		StorageTimeout time.Duration `mapstructure:"STORAGE_TIMEOUT"`
		BoardLimit     int           `mapstructure:"BOARD_LIMIT"`
		MaxBoardLimit  int           `mapstructure:"MAX_BOARD_LIMIT"`
		Shards         int           `mapstructure:"SHARDS"`
		Store          string        `mapstructure:"STORE"`
		Queue          struct {
			Enable      bool `mapstructure:"ENABLE"`
			Concurrency int  `mapstructure:"CONCURRENCY"`
		} `mapstructure:"QUEUE"`
	} `mapstructure:"POINTS"`
}

var Module = fx.Module("config", fx.Provide(LoadConfig))

// SetDefaults registers the values used when neither config.yaml nor the
// environment provides a key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "points")
	v.SetDefault("NODE_ID", 1)
	v.SetDefault("HTTP_SERVER.ADDR", "8080")
	v.SetDefault("HTTP_SERVER.READ_TIMEOUT", 10*time.Second)
	v.SetDefault("HTTP_SERVER.WRITE_TIMEOUT", 10*time.Second)
	v.SetDefault("HTTP_SERVER.IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("GRPC_SERVER.ADDR", "9090")
	v.SetDefault("DATABASE.TYPE", "sqlite")
	v.SetDefault("DATABASE.PATH", "points.db")
	v.SetDefault("DATABASE.SSLMODE", "disable")
	v.SetDefault("DATABASE.TIMEZONE", "UTC")
	v.SetDefault("DATABASE.CONNECTION_POOL.MAX_IDLE_CONN", 5)
	v.SetDefault("DATABASE.CONNECTION_POOL.MAX_OPEN_CONNS", 20)
	v.SetDefault("DATABASE.CONNECTION_POOL.CONN_MAX_LIFETIME", time.Hour)
	v.SetDefault("DATABASE.CONNECTION_POOL.CONN_MAX_IDLE_TIME", 10*time.Minute)
	v.SetDefault("DATABASE.METRICS.REFRESH_INTERVAL", 15)
	v.SetDefault("REDIS.ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS.POOL_SIZE", 10)
	v.SetDefault("REDIS.POOL_TIMEOUT", 4*time.Second)
	v.SetDefault("POINTS.MESSAGE.COOLDOWN", 60*time.Second)
	v.SetDefault("POINTS.MESSAGE.MIN", 15)
	v.SetDefault("POINTS.MESSAGE.MAX", 25)
	v.SetDefault("POINTS.REACTION.COOLDOWN", 30*time.Second)
	v.SetDefault("POINTS.REACTION.MIN", 0)
	v.SetDefault("POINTS.REACTION.MAX", 5)
	v.SetDefault("POINTS.SWEEP_INTERVAL", 120*time.Second)
	v.SetDefault("POINTS.STORAGE_TIMEOUT", 3*time.Second)
	v.SetDefault("POINTS.BOARD_LIMIT", 10)
	v.SetDefault("POINTS.MAX_BOARD_LIMIT", 100)
	v.SetDefault("POINTS.SHARDS", 32)
	v.SetDefault("POINTS.STORE", StoreSQL)
	v.SetDefault("POINTS.QUEUE.CONCURRENCY", 10)
}

func LoadConfig() (*Config, error) {
	config := viper.New()
	config.SetConfigName("config")
	config.SetConfigType("yaml")
	config.AddConfigPath(".")

	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()
	SetDefaults(config)

	if err := config.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		zap.L().Info("config.yaml not found, using defaults and environment")
	}

	return Decode(config)
}

// Decode unmarshals and validates the configuration held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	ranges := map[string]Range{
		"message":  c.Points.Message,
		"reaction": c.Points.Reaction,
	}
	for name, r := range ranges {
		if r.Cooldown <= 0 {
			return fmt.Errorf("points.%s.cooldown must be positive", name)
		}
		if r.Min < 0 || r.Min > r.Max {
			return fmt.Errorf("points.%s range [%d,%d] is invalid", name, r.Min, r.Max)
		}
	}

	if c.Points.SweepInterval <= 0 {
		return errors.New("points.sweep_interval must be positive")
	}

	if c.Points.BoardLimit <= 0 || c.Points.MaxBoardLimit < c.Points.BoardLimit {
		return fmt.Errorf("points.board_limit %d exceeds max %d", c.Points.BoardLimit, c.Points.MaxBoardLimit)
	}

	switch c.Points.Store {
	case StoreSQL, StoreRedis:
	default:
		return fmt.Errorf("points.store %q is not supported", c.Points.Store)
	}

	return nil
}
