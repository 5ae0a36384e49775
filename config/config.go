package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/upb/ami-parentage/models"
	"github.com/upb/ami-parentage/services"
	"github.com/upb/ami-parentage/utils"
)

// Writer modes. Exactly one backend is active per process.
const (
	WriterModeDirect  = "direct"
	WriterModeDataAPI = "data-api"
)

// Supported database/sql drivers for the direct writer
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// DefaultEventName is the CloudTrail event recorded when EVENT_NAMES is unset
const DefaultEventName = "CreateImage"

// Config represents the complete application configuration
type Config struct {
	Pipeline      PipelineConfig
	Writer        WriterConfig
	Database      DatabaseConfig
	DataAPI       DataAPIConfig
	AWS           AWSConfig
	Observability ObservabilityConfig
	Environment   string
}

// PipelineConfig controls which CloudTrail records become parentage rows
type PipelineConfig struct {
	EventNames []string
	// SkipErroredEvents drops records CloudTrail logged with an errorCode
	// instead of failing on their missing response fields.
	SkipErroredEvents bool
}

// WriterConfig selects the parentage writer backend
type WriterConfig struct {
	Mode string
}

// DatabaseConfig holds direct database/sql connection settings
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Database        string // file path when Driver is sqlite3
	Table           string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DataAPIConfig holds Aurora Data API settings
type DataAPIConfig struct {
	ResourceARN string
	SecretARN   string
	Database    string
	Table       string
}

// AWSConfig holds AWS SDK overrides. Empty values fall back to the SDK default chain.
type AWSConfig struct {
	Region string
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or console
}

// New creates a new Config instance by loading environment variables and
// validating every section
func New(ctx context.Context) (*Config, error) {
	cfg := Load()

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Load reads the environment without validating it. Tools that never write
// rows use it to pick up the pipeline settings alone.
func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	driver := getEnv("DB_DRIVER", DriverMySQL)

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Pipeline: PipelineConfig{
			EventNames:        getEnvAsList("EVENT_NAMES", []string{DefaultEventName}),
			SkipErroredEvents: getEnvAsBool("SKIP_ERRORED_EVENTS", false),
		},
		Writer: WriterConfig{
			Mode: getEnv("WRITER_MODE", WriterModeDirect),
		},
		Database: DatabaseConfig{
			Driver:          driver,
			Host:            getEnv("DB_HOST", "127.0.0.1"),
			Port:            getEnvAsInt("DB_PORT", defaultPort(driver)),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "ami-parentage"),
			Table:           getEnv("DB_TABLE", models.DefaultTable),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 2),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		DataAPI: DataAPIConfig{
			ResourceARN: getEnv("DATA_API_RESOURCE_ARN", ""),
			SecretARN:   getEnv("DATA_API_SECRET_ARN", ""),
			Database:    getEnv("DATA_API_DB_NAME", "ami-parentage"),
			Table:       getEnv("DATA_API_TABLE", models.DefaultTable),
		},
		AWS: AWSConfig{
			Region: getEnv("AWS_REGION", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Validate checks if all required configuration fields are set.
// Failures are validation domain errors.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return services.WrapValidation("invalid configuration", err)
	}
	return nil
}

func (c *Config) validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}

	if err := utils.ValidateOneOf(c.Writer.Mode, "WRITER_MODE", []string{WriterModeDirect, WriterModeDataAPI}); err != nil {
		return err
	}

	switch c.Writer.Mode {
	case WriterModeDirect:
		if err := c.Database.Validate(); err != nil {
			return err
		}
	case WriterModeDataAPI:
		if err := c.DataAPI.Validate(); err != nil {
			return err
		}
	}

	if err := utils.ValidateOneOf(c.Observability.LogFormat, "LOG_FORMAT", []string{"json", "console"}); err != nil {
		return err
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// Validate checks the record selection settings
func (c *PipelineConfig) Validate() error {
	if len(c.EventNames) == 0 {
		return fmt.Errorf("at least one event name is required")
	}
	return nil
}

// Validate checks the direct database settings
func (c *DatabaseConfig) Validate() error {
	if err := utils.ValidateOneOf(c.Driver, "DB_DRIVER", []string{DriverMySQL, DriverPostgres, DriverSQLite}); err != nil {
		return err
	}
	if err := utils.ValidateRequired(c.Database, "DB_NAME"); err != nil {
		return err
	}
	if err := utils.ValidateIdentifier(c.Table, "DB_TABLE"); err != nil {
		return err
	}
	if c.Driver == DriverSQLite {
		return nil
	}
	if err := utils.ValidateRequired(c.Host, "DB_HOST"); err != nil {
		return err
	}
	return utils.ValidateRequired(c.User, "DB_USER")
}

// Validate checks the Data API settings
func (c *DataAPIConfig) Validate() error {
	if err := utils.ValidateRequired(c.ResourceARN, "DATA_API_RESOURCE_ARN"); err != nil {
		return err
	}
	if err := utils.ValidateRequired(c.SecretARN, "DATA_API_SECRET_ARN"); err != nil {
		return err
	}
	if err := utils.ValidateRequired(c.Database, "DATA_API_DB_NAME"); err != nil {
		return err
	}
	return utils.ValidateIdentifier(c.Table, "DATA_API_TABLE")
}

// DSN returns the driver-specific connection string
func (c *DatabaseConfig) DSN() string {
	switch c.Driver {
	case DriverPostgres:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
		)
	case DriverSQLite:
		return c.Database
	default:
		mc := mysql.NewConfig()
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
		mc.User = c.User
		mc.Passwd = c.Password
		mc.DBName = c.Database
		mc.ParseTime = true
		return mc.FormatDSN()
	}
}

// LogString returns a safe string for logging (no password)
func (c *DatabaseConfig) LogString() string {
	if c.Driver == DriverSQLite {
		return fmt.Sprintf("driver=%s file=%s table=%s", c.Driver, c.Database, c.Table)
	}
	return fmt.Sprintf("driver=%s host=%s port=%d database=%s table=%s", c.Driver, c.Host, c.Port, c.Database, c.Table)
}

func defaultPort(driver string) int {
	if driver == DriverPostgres {
		return 5432
	}
	return 3306
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated value, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
