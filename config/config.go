package config

import (
	"strconv"
	"strings"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion       string `mapstructure:"GENERAL_VERSION"`
	Environment          string `mapstructure:"ENVIRONMENT"`
	ServerPort           int    `mapstructure:"SERVER_PORT"`
	DatabaseHost         string `mapstructure:"DB_HOST"`
	DatabasePort         int    `mapstructure:"DB_PORT"`
	DatabaseName         string `mapstructure:"DB_NAME"`
	DatabaseUser         string `mapstructure:"DB_USER"`
	DatabasePassword     string `mapstructure:"DB_PASSWORD"`
	DatabaseCacheAddress string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort    int    `mapstructure:"DB_CACHE_PORT"`
	DatabaseCacheReset   int    `mapstructure:"DB_CACHE_RESET"`
	CorsAllowOrigins     string `mapstructure:"CORS_ALLOW_ORIGINS"`

	AppBaseURL        string `mapstructure:"APP_BASE_URL"`
	CronSecret        string `mapstructure:"CRON_SECRET"`
	LinkSigningSecret string `mapstructure:"LINK_SIGNING_SECRET"`

	SMTPHost               string  `mapstructure:"SMTP_HOST"`
	SMTPPort               int     `mapstructure:"SMTP_PORT"`
	SMTPUser               string  `mapstructure:"SMTP_USER"`
	SMTPPassword           string  `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom               string  `mapstructure:"SMTP_FROM"`
	SMTPSendTimeoutSeconds int     `mapstructure:"SMTP_SEND_TIMEOUT_SECONDS"`
	SMTPRatePerSecond      float64 `mapstructure:"SMTP_RATE_PER_SECOND"`

	SchedulerEnabled            bool   `mapstructure:"SCHEDULER_ENABLED"`
	ReminderRunAt               string `mapstructure:"REMINDER_RUN_AT"`
	ReminderTimezone            string `mapstructure:"REMINDER_TIMEZONE"`
	ReminderServiceIntervalDays int    `mapstructure:"REMINDER_SERVICE_INTERVAL_DAYS"`
	ReminderWindows             string `mapstructure:"REMINDER_WINDOWS"`
	ReminderOverdueRepeatDays   *int   `mapstructure:"REMINDER_OVERDUE_REPEAT_DAYS"`
	ReminderConcurrency         int    `mapstructure:"REMINDER_CONCURRENCY"`
}

var ConfigInstance Config

var envVars = []string{
	"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
	"DB_CACHE_ADDRESS", "DB_CACHE_PORT", "DB_CACHE_RESET",
	"CORS_ALLOW_ORIGINS",
	"APP_BASE_URL", "CRON_SECRET", "LINK_SIGNING_SECRET",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD", "SMTP_FROM", "SMTP_SEND_TIMEOUT_SECONDS", "SMTP_RATE_PER_SECOND",
	"SCHEDULER_ENABLED", "REMINDER_RUN_AT", "REMINDER_TIMEZONE", "REMINDER_SERVICE_INTERVAL_DAYS",
	"REMINDER_WINDOWS", "REMINDER_OVERDUE_REPEAT_DAYS", "REMINDER_CONCURRENCY",
}

func setDefaults() {
	viper.SetDefault("ENVIRONMENT", "production")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_CACHE_RESET", -1)
	viper.SetDefault("APP_BASE_URL", "http://localhost:3000")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_FROM", "service@warrantyhub.local")
	viper.SetDefault("SMTP_SEND_TIMEOUT_SECONDS", 30)
	viper.SetDefault("SMTP_RATE_PER_SECOND", 5)
	viper.SetDefault("SCHEDULER_ENABLED", true)
	viper.SetDefault("REMINDER_RUN_AT", "09:00")
	viper.SetDefault("REMINDER_TIMEZONE", "UTC")
	viper.SetDefault("REMINDER_SERVICE_INTERVAL_DAYS", 180)
	viper.SetDefault("REMINDER_WINDOWS", "15,7,3,0")
	viper.SetDefault("REMINDER_OVERDUE_REPEAT_DAYS", 7)
	viper.SetDefault("REMINDER_CONCURRENCY", 4)
}

func InitConfig() (Config, error) {
	log := logger.New("config").Function("InitConfig")
	log.Info("Initializing config")

	// Enable automatic environment variable reading first
	viper.AutomaticEnv()
	setDefaults()

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	// Check if key environment variables are already set
	envVarsSet := viper.IsSet("SERVER_PORT") && viper.IsSet("DB_HOST")

	if envVarsSet {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		viper.SetConfigFile(".env")
		viper.SetConfigType("env")

		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		// Load .env.local overrides if it exists
		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	log.Info(
		"Successfully initialized config",
		"environment", config.Environment,
		"port", config.ServerPort,
		"schedulerEnabled", config.SchedulerEnabled,
	)
	if err := validateConfig(config, log); err != nil {
		return Config{}, err
	}
	return ConfigInstance, nil
}

func GetConfig() Config {
	return ConfigInstance
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error(
			"Fatal error: invalid server port",
			"port", config.ServerPort,
		)
	}

	if _, err := config.Location(); err != nil {
		return log.Err("Fatal error: invalid REMINDER_TIMEZONE", err, "timezone", config.ReminderTimezone)
	}

	if _, err := time.Parse("15:04", config.ReminderRunAt); err != nil {
		return log.Err("Fatal error: REMINDER_RUN_AT must be HH:MM", err, "value", config.ReminderRunAt)
	}

	if config.ReminderServiceIntervalDays <= 0 {
		return log.Error(
			"Fatal error: REMINDER_SERVICE_INTERVAL_DAYS must be positive",
			"value", config.ReminderServiceIntervalDays,
		)
	}

	if _, err := config.ReminderWindowDays(); err != nil {
		return log.Err("Fatal error: invalid REMINDER_WINDOWS", err, "value", config.ReminderWindows)
	}

	if config.ReminderOverdueRepeatDays != nil && *config.ReminderOverdueRepeatDays < 0 {
		return log.Error(
			"Fatal error: REMINDER_OVERDUE_REPEAT_DAYS must not be negative",
			"value", *config.ReminderOverdueRepeatDays,
		)
	}

	if config.LinkSigningSecret == "" {
		log.Warn("LINK_SIGNING_SECRET is empty, reminder links will be signed with CRON_SECRET")
	}

	if config.CronSecret == "" {
		log.Warn("CRON_SECRET is empty, cron and admin endpoints are open")
	}

	ConfigInstance = config
	return nil
}

// Location resolves REMINDER_TIMEZONE, defaulting to UTC when unset.
func (c Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.ReminderTimezone) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.ReminderTimezone)
}

// ReminderWindowDays parses REMINDER_WINDOWS ("15,7,3,0") into day thresholds.
func (c Config) ReminderWindowDays() ([]int, error) {
	if strings.TrimSpace(c.ReminderWindows) == "" {
		return nil, nil
	}

	parts := strings.Split(c.ReminderWindows, ",")
	days := make([]int, 0, len(parts))
	for _, part := range parts {
		day, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}

func (c Config) SigningSecret() string {
	if c.LinkSigningSecret != "" {
		return c.LinkSigningSecret
	}
	return c.CronSecret
}

func (c Config) SMTPSendTimeout() time.Duration {
	if c.SMTPSendTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.SMTPSendTimeoutSeconds) * time.Second
}
