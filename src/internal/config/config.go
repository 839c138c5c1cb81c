package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Configuration struct {
	Logs        LogsSettings     `mapstructure:"logs"`
	App         Application      `mapstructure:"app"`
	Database    Database         `mapstructure:"database"`
	Queue       QueueConfig      `mapstructure:"queue"`
	Redis       Redis            `mapstructure:"redis"`
	Security    SecuritySettings `mapstructure:"security"`
	Server      ServerSettings   `mapstructure:"server"`
	AuthService AuthService      `mapstructure:"auth-service"`
	Session     SessionSettings  `mapstructure:"session"`
	Search      SearchConfig     `mapstructure:"search"`
	Cache       CacheConfig      `mapstructure:"cache"`
}

type LogsSettings struct {
	Level            string `mapstructure:"level"`
	Path             string `mapstructure:"log-path"`
	EnableJSONOutput bool   `mapstructure:"enable-json-output"`
}

type Application struct {
	Name     string `mapstructure:"name"`
	Timeout  int    `mapstructure:"timeout"`
	Version  string `mapstructure:"version"`
	HostLink string `mapstructure:"host-link"`
}

type Database struct {
	Url             string `mapstructure:"url"`
	DbName          string `mapstructure:"dbname"`
	AuditCollection string `mapstructure:"audit-collection"`
	Timeout         int    `mapstructure:"timeout"`
}

type SearchConfig struct {
	MinQueryLimit int `mapstructure:"min-query-limit"`
	MaxQueryLimit int `mapstructure:"max-query-limit"`
}

type QueueConfig struct {
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type RabbitMQConfig struct {
	Url          string `mapstructure:"url"`
	Exchange     string `mapstructure:"exchange"`
	ExchangeType string `mapstructure:"exchange-type"`
	RoutingKey   string `mapstructure:"routing-key"`
	Timeout      int    `mapstructure:"timeout"`
	Durable      bool   `mapstructure:"durable"`
	AutoDelete   bool   `mapstructure:"auto-delete"`
	Internal     bool   `mapstructure:"internal"`
	NoWait       bool   `mapstructure:"no-wait"`
}

type Redis struct {
	Url      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

type SecuritySettings struct {
	JwtKey        string   `mapstructure:"jwt-key"`
	AllowedAdmins []string `mapstructure:"allowed-admins"`
}

type ServerSettings struct {
	Port         string `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	ReadTimeout  int    `mapstructure:"read-timeout"`
	WriteTimeout int    `mapstructure:"write-timeout"`
	IdleTimeout  int    `mapstructure:"idle-timeout"`
}

type AuthService struct {
	Url     string `mapstructure:"url"`
	Timeout int    `mapstructure:"timeout"`
}

// SessionSettings holds every duration the session lifecycle works with.
// Values are plain integers in the yaml; use the helper methods to get
// time.Durations.
type SessionSettings struct {
	ShortDurationHours       int    `mapstructure:"short-duration-hours"`
	LongDurationDays         int    `mapstructure:"long-duration-days"`
	InactivityTimeoutMinutes int    `mapstructure:"inactivity-timeout-minutes"`
	RefreshThresholdMinutes  int    `mapstructure:"refresh-threshold-minutes"`
	WarningThresholdMinutes  int    `mapstructure:"warning-threshold-minutes"`
	ValidityCheckSeconds     int    `mapstructure:"validity-check-seconds"`
	RefreshIntervalMinutes   int    `mapstructure:"refresh-interval-minutes"`
	ActivityFlushSeconds     int    `mapstructure:"activity-flush-seconds"`
	KeyPrefix                string `mapstructure:"key-prefix"`
}

func (s SessionSettings) ShortDuration() time.Duration {
	return time.Duration(s.ShortDurationHours) * time.Hour
}

func (s SessionSettings) LongDuration() time.Duration {
	return time.Duration(s.LongDurationDays) * 24 * time.Hour
}

func (s SessionSettings) InactivityTimeout() time.Duration {
	return time.Duration(s.InactivityTimeoutMinutes) * time.Minute
}

func (s SessionSettings) RefreshThreshold() time.Duration {
	return time.Duration(s.RefreshThresholdMinutes) * time.Minute
}

func (s SessionSettings) WarningThreshold() time.Duration {
	return time.Duration(s.WarningThresholdMinutes) * time.Minute
}

func (s SessionSettings) ValidityCheckInterval() time.Duration {
	return time.Duration(s.ValidityCheckSeconds) * time.Second
}

func (s SessionSettings) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshIntervalMinutes) * time.Minute
}

func (s SessionSettings) ActivityFlushWindow() time.Duration {
	return time.Duration(s.ActivityFlushSeconds) * time.Second
}

type CacheConfig struct {
	SignInStatsKey               string `mapstructure:"signin-stats-key"`
	SignInStatsExpirationMinutes int    `mapstructure:"signin-stats-expiration-minutes"`
}

func Load() *Configuration {
	cfg := read()
	logrus.Info("Configuration loaded")

	// Override with environment variables
	mongoUri := os.Getenv("MONGODB_URL")
	if mongoUri != "" {
		cfg.Database.Url = mongoUri
	}

	dbName := os.Getenv("DB_NAME")
	if dbName != "" {
		cfg.Database.DbName = dbName
	}

	redisUrl := os.Getenv("REDIS_URL")
	if redisUrl != "" {
		cfg.Redis.Url = redisUrl
	}

	redisDB := os.Getenv("REDIS_DB")
	if redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			cfg.Redis.Db = db
		}
	}

	rabbitmqUrl := os.Getenv("RABBITMQ_URL")
	if rabbitmqUrl != "" {
		cfg.Queue.RabbitMQ.Url = rabbitmqUrl
	}

	jwtKey := os.Getenv("JWT_KEY")
	if jwtKey != "" {
		cfg.Security.JwtKey = jwtKey
	}

	authServiceUrl := os.Getenv("AUTH_SERVICE_URL")
	if authServiceUrl != "" {
		cfg.AuthService.Url = authServiceUrl
	}

	allowedAdmins := os.Getenv("ADMIN_ALLOWLIST")
	if allowedAdmins != "" {
		cfg.Security.AllowedAdmins = strings.Split(allowedAdmins, ",")
	}

	return cfg
}

func read() *Configuration {
	viper.SetConfigFile("src/internal/config/cfg.yml")
	viper.AutomaticEnv()
	viper.SetConfigType("yml")

	var config Configuration

	err := viper.ReadInConfig()
	if err != nil {
		logrus.Panicf("Error reading config file, %s", err)
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		logrus.Panicf("Error unmarshalling config file, %s", err)
	}

	return &config
}
