package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the service configuration loaded from a .env file and the environment.
type Config struct {
	Port        string `mapstructure:"PORT"`
	GRPCAddr    string `mapstructure:"GRPC_ADDR"`
	ServiceName string `mapstructure:"SERVICE_NAME"`
	Environment string `mapstructure:"ENVIRONMENT"`

	DBDSN             string        `mapstructure:"DB_DSN"`
	DBConnectAttempts uint          `mapstructure:"DB_CONNECT_ATTEMPTS"`
	DBConnectInterval time.Duration `mapstructure:"DB_CONNECT_INTERVAL"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`

	AMQPURL      string `mapstructure:"AMQP_URL"`
	LogsExchange string `mapstructure:"LOGS_EXCHANGE"`

	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogEncoding string `mapstructure:"LOG_ENCODING"`

	PageSize            int           `mapstructure:"PAGE_SIZE"`
	FriendRequestLimit  int           `mapstructure:"FRIEND_REQUEST_LIMIT"`
	FriendRequestWindow time.Duration `mapstructure:"FRIEND_REQUEST_WINDOW"`
	BcryptCost          int           `mapstructure:"BCRYPT_COST"`

	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminName     string `mapstructure:"ADMIN_NAME"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	HTTPReadTimeout  time.Duration `mapstructure:"HTTP_READ_TIMEOUT"`
	HTTPWriteTimeout time.Duration `mapstructure:"HTTP_WRITE_TIMEOUT"`
}

var defaults = map[string]any{
	"PORT":                  "8080",
	"GRPC_ADDR":             ":8085",
	"SERVICE_NAME":          "social-service",
	"ENVIRONMENT":           "local",
	"DB_DSN":                "",
	"DB_CONNECT_ATTEMPTS":   10,
	"DB_CONNECT_INTERVAL":   "5s",
	"DB_MAX_OPEN_CONNS":     10,
	"DB_MAX_IDLE_CONNS":     5,
	"AMQP_URL":              "",
	"LOGS_EXCHANGE":         "logs.events",
	"LOG_LEVEL":             "info",
	"LOG_ENCODING":          "json",
	"PAGE_SIZE":             10,
	"FRIEND_REQUEST_LIMIT":  3,
	"FRIEND_REQUEST_WINDOW": "60s",
	"BCRYPT_COST":           10,
	"ADMIN_EMAIL":           "",
	"ADMIN_NAME":            "admin",
	"ADMIN_PASSWORD":        "",
	"HTTP_READ_TIMEOUT":     "15s",
	"HTTP_WRITE_TIMEOUT":    "15s",
}

// Load reads configuration from an optional .env file in dir and from the environment.
// Environment variables take precedence over the file.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

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
	if c.DBDSN == "" {
		return errors.New("DB_DSN must be set")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.FriendRequestLimit <= 0 {
		return fmt.Errorf("FRIEND_REQUEST_LIMIT must be positive, got %d", c.FriendRequestLimit)
	}
	if c.FriendRequestWindow <= 0 {
		return fmt.Errorf("FRIEND_REQUEST_WINDOW must be positive, got %s", c.FriendRequestWindow)
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}
