package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nholding/tenor/internal/period/domain"
)

// Config holds all application configuration.
// Load is the only place that reads the environment.
type Config struct {
	Env string    `yaml:"env"` // development, staging, production
	Log LogConfig `yaml:"log"`

	// Windows has no defaults. Every granularity must be configured explicitly.
	Windows WindowsConfig `yaml:"windows"`

	Markets []string      `yaml:"markets"` // contract market prefixes, empty = built-in list
	Watch   []string      `yaml:"watch"`   // contract codes rolled by the scheduler
	Periods PeriodsConfig `yaml:"periods"`

	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	AWS      AWSConfig      `yaml:"aws"`
	Redis    RedisConfig    `yaml:"redis"`
	Schedule ScheduleConfig `yaml:"schedule"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, console
}

// WindowsConfig holds the transition window size, in business days, per granularity.
type WindowsConfig struct {
	Month   int `yaml:"month"`
	Quarter int `yaml:"quarter"`
	Year    int `yaml:"year"`
}

// PeriodsConfig bounds the in-memory period catalogue.
type PeriodsConfig struct {
	StartYear int `yaml:"start_year"`
	EndYear   int `yaml:"end_year"`
}

type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit"` // requests per second per client, 0 disables
	RateBurst      int      `yaml:"rate_burst"`
}

// DatabaseConfig selects where mappings and periods are persisted.
type DatabaseConfig struct {
	Driver     string `yaml:"driver"` // postgres, sqlite, none
	SQLitePath string `yaml:"sqlite_path"`
	DSN        string `yaml:"dsn"` // postgres only, skips IAM auth when set
}

// AWSConfig mirrors repository.Config.
type AWSConfig struct {
	Profile    string `yaml:"profile"`
	Region     string `yaml:"region"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Prefix   string `yaml:"s3_prefix"`
	DBEndpoint string `yaml:"db_endpoint"`
	DBUser     string `yaml:"db_user"`
	DBName     string `yaml:"db_name"`
	DBPort     int    `yaml:"db_port"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

type ScheduleConfig struct {
	RollCron string `yaml:"roll_cron"` // seconds-enabled cron spec
	User     string `yaml:"user"`      // recorded as creator of scheduled mappings
}

// Load reads config from a YAML file (optional, empty path skips it), then a .env file, then
// TENOR_* environment variable overrides, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	loadEnvFile()
	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Env = getEnv("TENOR_ENV", c.Env)
	c.Log.Level = getEnv("TENOR_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("TENOR_LOG_FORMAT", c.Log.Format)

	c.Windows.Month = getEnvAsInt("TENOR_WINDOW_MONTH", c.Windows.Month)
	c.Windows.Quarter = getEnvAsInt("TENOR_WINDOW_QUARTER", c.Windows.Quarter)
	c.Windows.Year = getEnvAsInt("TENOR_WINDOW_YEAR", c.Windows.Year)

	c.Markets = getEnvAsList("TENOR_MARKETS", c.Markets)
	c.Watch = getEnvAsList("TENOR_WATCH", c.Watch)
	c.Periods.StartYear = getEnvAsInt("TENOR_PERIODS_START_YEAR", c.Periods.StartYear)
	c.Periods.EndYear = getEnvAsInt("TENOR_PERIODS_END_YEAR", c.Periods.EndYear)

	c.HTTP.Addr = getEnv("TENOR_HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.AllowedOrigins = getEnvAsList("TENOR_HTTP_ALLOWED_ORIGINS", c.HTTP.AllowedOrigins)
	c.HTTP.RateLimit = getEnvAsFloat("TENOR_HTTP_RATE_LIMIT", c.HTTP.RateLimit)
	c.HTTP.RateBurst = getEnvAsInt("TENOR_HTTP_RATE_BURST", c.HTTP.RateBurst)

	c.Database.Driver = getEnv("TENOR_DB_DRIVER", c.Database.Driver)
	c.Database.SQLitePath = getEnv("TENOR_SQLITE_PATH", c.Database.SQLitePath)
	c.Database.DSN = getEnv("TENOR_DATABASE_URL", c.Database.DSN)

	c.AWS.Profile = getEnv("AWS_PROFILE", c.AWS.Profile)
	c.AWS.Region = getEnv("AWS_REGION", c.AWS.Region)
	c.AWS.S3Bucket = getEnv("TENOR_S3_BUCKET", c.AWS.S3Bucket)
	c.AWS.S3Prefix = getEnv("TENOR_S3_PREFIX", c.AWS.S3Prefix)
	c.AWS.DBEndpoint = getEnv("TENOR_DB_ENDPOINT", c.AWS.DBEndpoint)
	c.AWS.DBUser = getEnv("TENOR_DB_USER", c.AWS.DBUser)
	c.AWS.DBName = getEnv("TENOR_DB_NAME", c.AWS.DBName)
	c.AWS.DBPort = getEnvAsInt("TENOR_DB_PORT", c.AWS.DBPort)

	c.Redis.Enabled = getEnvAsBool("TENOR_REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Addr = getEnv("TENOR_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("TENOR_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvAsInt("TENOR_REDIS_DB", c.Redis.DB)
	c.Redis.TTL = getEnvAsDuration("TENOR_REDIS_TTL", c.Redis.TTL)

	c.Schedule.RollCron = getEnv("TENOR_ROLL_CRON", c.Schedule.RollCron)
	c.Schedule.User = getEnv("TENOR_SCHEDULE_USER", c.Schedule.User)
}

// applyDefaults fills unset fields. Transition windows have no default.
func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Periods.StartYear == 0 {
		c.Periods.StartYear = 2015
	}
	if c.Periods.EndYear == 0 {
		c.Periods.EndYear = 2040
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.RateBurst == 0 {
		c.HTTP.RateBurst = 20
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "none"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/tenor.db"
	}
	if c.AWS.DBPort == 0 {
		c.AWS.DBPort = 5432
	}
	if c.AWS.S3Prefix == "" {
		c.AWS.S3Prefix = "mappings"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "tenor"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = time.Hour
	}
	if c.Schedule.RollCron == "" {
		c.Schedule.RollCron = "0 30 6 * * 1-5"
	}
	if c.Schedule.User == "" {
		c.Schedule.User = "scheduler"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	var errs []error

	for _, w := range []struct {
		name string
		size int
	}{
		{"windows.month", c.Windows.Month},
		{"windows.quarter", c.Windows.Quarter},
		{"windows.year", c.Windows.Year},
	} {
		if w.size < 1 {
			errs = append(errs, fmt.Errorf("%s must be at least 1 business day, got %d", w.name, w.size))
		}
	}

	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		errs = append(errs, fmt.Errorf("env must be one of: development, staging, production, test"))
	}

	if c.Periods.StartYear > c.Periods.EndYear {
		errs = append(errs, fmt.Errorf("periods.start_year %d is after periods.end_year %d", c.Periods.StartYear, c.Periods.EndYear))
	}

	switch c.Database.Driver {
	case "none", "sqlite":
	case "postgres":
		if c.Database.DSN == "" && (c.AWS.DBEndpoint == "" || c.AWS.DBUser == "" || c.AWS.Region == "") {
			errs = append(errs, fmt.Errorf("database.driver postgres requires database.dsn or aws.db_endpoint, aws.db_user and aws.region"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be one of: postgres, sqlite, none"))
	}

	if c.HTTP.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("http.rate_limit must not be negative"))
	}

	return errors.Join(errs...)
}

// TransitionWindows returns the configured window for every granularity.
func (c *Config) TransitionWindows() []domain.TransitionWindow {
	return []domain.TransitionWindow{
		{Granularity: domain.MonthlyPeriod, Size: c.Windows.Month},
		{Granularity: domain.QuarterlyPeriod, Size: c.Windows.Quarter},
		{Granularity: domain.CalendarYearPeriod, Size: c.Windows.Year},
	}
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from the working directory or next to the executable.
func loadEnvFile() {
	paths := []string{".env"}
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths, filepath.Join(exeDir, ".env"), filepath.Join(exeDir, "..", ".env"))
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
