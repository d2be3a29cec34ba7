package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var config = viper.New()

type Config struct {
	Platform struct {
		Name     string `mapstructure:"NAME"`
		Timezone string `mapstructure:"TIMEZONE"`
	} `mapstructure:"PLATFORM"`
	AppEnv  string `mapstructure:"APP_ENV"`
	AppName string `mapstructure:"APP_NAME"`
	Server  struct {
		Addr         string        `mapstructure:"ADDR"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
		IdleTimeout  time.Duration `mapstructure:"IDLE_TIMEOUT"`
	} `mapstructure:"HTTP_SERVER"`
	Database struct {
		Type           string `mapstructure:"TYPE"`
		Host           string `mapstructure:"HOST"`
		Port           string `mapstructure:"PORT"`
		DBNAME         string `mapstructure:"DBNAME"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConns    int           `mapstructure:"MAX_OPEN_CONNS"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
	} `mapstructure:"DATABASE"`
	Redis struct {
		Addr        string        `mapstructure:"ADDR"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`
	Provider struct {
		SMS struct {
			Endpoint string        `mapstructure:"ENDPOINT"`
			Timeout  time.Duration `mapstructure:"TIMEOUT"`
		} `mapstructure:"SMS"`
		Mail struct {
			Endpoint string        `mapstructure:"ENDPOINT"`
			Timeout  time.Duration `mapstructure:"TIMEOUT"`
		} `mapstructure:"MAIL"`
	} `mapstructure:"PROVIDER"`
	Dispatch struct {
		Interval        time.Duration `mapstructure:"INTERVAL"`
		BatchSize       int           `mapstructure:"BATCH_SIZE"`
		Concurrency     int           `mapstructure:"CONCURRENCY"`
		MaxAttempts     int           `mapstructure:"MAX_ATTEMPTS"`
		SendTimeout     time.Duration `mapstructure:"SEND_TIMEOUT"`
		DefaultSendTime string        `mapstructure:"DEFAULT_SEND_TIME"`
	} `mapstructure:"DISPATCH"`
	Minio struct {
		Endpoint   string `mapstructure:"ENDPOINT"`
		AccessKey  string `mapstructure:"ACCESS_KEY"`
		SecretKey  string `mapstructure:"SECRET_KEY"`
		Secure     bool   `mapstructure:"SECURE"`
		BucketName string `mapstructure:"BUCKET_NAME"`
	} `mapstructure:"MINIO"`
}

var Module = fx.Module("config", fx.Provide(LoadConfig))

func LoadConfig() *Config {

	config.SetConfigName("config")
	config.SetConfigType("yaml")
	config.AddConfigPath(".")

	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	if err := config.ReadInConfig(); err != nil {
		os.Exit(1)
	}

	var cfg Config
	if err := config.Unmarshal(&cfg); err != nil {
		os.Exit(1)
	}

	cfg.applyDefaults()

	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Dispatch.Interval <= 0 {
		c.Dispatch.Interval = 5 * time.Minute
	}
	if c.Dispatch.BatchSize <= 0 {
		c.Dispatch.BatchSize = 500
	}
	if c.Dispatch.Concurrency <= 0 {
		c.Dispatch.Concurrency = 8
	}
	if c.Dispatch.MaxAttempts <= 0 {
		c.Dispatch.MaxAttempts = 3
	}
	if c.Dispatch.SendTimeout <= 0 {
		c.Dispatch.SendTimeout = 15 * time.Second
	}
	if c.Dispatch.DefaultSendTime == "" {
		c.Dispatch.DefaultSendTime = "10:00"
	}
	if c.Provider.SMS.Timeout <= 0 {
		c.Provider.SMS.Timeout = 15 * time.Second
	}
	if c.Provider.Mail.Timeout <= 0 {
		c.Provider.Mail.Timeout = 15 * time.Second
	}
}

// Location resolves the tenant-local timezone configured for the platform.
func (c *Config) Location() *time.Location {
	if c.Platform.Timezone == "" {
		return time.Local
	}

	loc, err := time.LoadLocation(c.Platform.Timezone)
	if err != nil {
		zap.L().Warn("invalid platform timezone, falling back to local", zap.String("timezone", c.Platform.Timezone), zap.Error(err))
		return time.Local
	}
	return loc
}
