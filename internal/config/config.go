package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fjod/storefront/internal/domain"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendPgx      = "pgx"
	BackendSQLite   = "sqlite"

	SessionsFromStore = "store"
	SessionsFromMongo = "mongo"
)

type Config struct {
	LogLevel string `yaml:"log_level"`

	StorageBackend string `yaml:"storage_backend"`
	DBHost         string `yaml:"db_host"`
	DBPort         int    `yaml:"db_port"`
	DBUser         string `yaml:"db_user"`
	DBPassword     string `yaml:"db_password"`
	DBName         string `yaml:"db_name"`
	SQLitePath     string `yaml:"sqlite_path"`
	MigrationsPath string `yaml:"migrations_path"`

	SessionBackend string `yaml:"session_backend"`
	MongoURI       string `yaml:"mongo_uri"`
	MongoDatabase  string `yaml:"mongo_database"`
	RedisAddr      string `yaml:"redis_addr"`

	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`

	GRPCPort              string `yaml:"grpc_port"`
	HTTPPort              string `yaml:"http_port"`
	MetricsPort           string `yaml:"metrics_port"`
	StorefrontServiceAddr string `yaml:"storefront_service_addr"`

	OrderTimeout      time.Duration `yaml:"order_timeout"`
	CurrencyPrecision int32         `yaml:"currency_precision"`
	ValidateSession   bool          `yaml:"validate_session"`

	RequestTimeout     time.Duration `yaml:"request_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`
	AdminJWTSecret     string        `yaml:"admin_jwt_secret"`
}

func defaults() *Config {
	return &Config{
		LogLevel:              "info",
		StorageBackend:        BackendMemory,
		DBHost:                "localhost",
		DBPort:                5432,
		DBUser:                "postgres",
		DBPassword:            "postgres",
		DBName:                "storefront",
		SQLitePath:            "storefront.db",
		SessionBackend:        SessionsFromStore,
		MongoURI:              "mongodb://localhost:27017",
		MongoDatabase:         "storefront",
		KafkaTopic:            "storefront-transactions",
		GRPCPort:              "50051",
		HTTPPort:              "8080",
		MetricsPort:           "9090",
		StorefrontServiceAddr: "localhost:50051",
		OrderTimeout:          5 * time.Second,
		CurrencyPrecision:     2,
		ValidateSession:       true,
		RequestTimeout:        30 * time.Second,
		ShutdownTimeout:       10 * time.Second,
		MaxRequestBodySize:    1 << 20, // 1MB
	}
}

// Load builds the configuration from defaults, the optional CONFIG_FILE and the environment, in that order
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.StorageBackend = getEnv("STORAGE_BACKEND", c.StorageBackend)
	c.DBHost = getEnv("DB_HOST", c.DBHost)
	c.DBUser = getEnv("DB_USER", c.DBUser)
	c.DBPassword = getEnv("DB_PASSWORD", c.DBPassword)
	c.DBName = getEnv("DB_NAME", c.DBName)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.MigrationsPath = getEnv("MIGRATIONS_PATH", c.MigrationsPath)

	c.SessionBackend = getEnv("SESSION_BACKEND", c.SessionBackend)
	c.MongoURI = getEnv("MONGO_URI", c.MongoURI)
	c.MongoDatabase = getEnv("MONGO_DATABASE", c.MongoDatabase)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.KafkaBrokers = splitList(brokers)
	}
	c.KafkaTopic = getEnv("KAFKA_TOPIC", c.KafkaTopic)

	c.GRPCPort = getEnv("GRPC_PORT", c.GRPCPort)
	c.HTTPPort = getEnv("HTTP_PORT", c.HTTPPort)
	c.MetricsPort = getEnv("METRICS_PORT", c.MetricsPort)
	c.StorefrontServiceAddr = getEnv("STOREFRONT_SERVICE_ADDR", c.StorefrontServiceAddr)
	c.AdminJWTSecret = getEnv("ADMIN_JWT_SECRET", c.AdminJWTSecret)

	var err error
	if c.DBPort, err = getEnvInt("DB_PORT", c.DBPort); err != nil {
		return err
	}
	precision, err := getEnvInt("CURRENCY_PRECISION", int(c.CurrencyPrecision))
	if err != nil {
		return err
	}
	c.CurrencyPrecision = int32(precision)
	if c.ValidateSession, err = getEnvBool("VALIDATE_SESSION", c.ValidateSession); err != nil {
		return err
	}
	if c.OrderTimeout, err = getEnvDuration("ORDER_TIMEOUT", c.OrderTimeout); err != nil {
		return err
	}
	if c.RequestTimeout, err = getEnvDuration("REQUEST_TIMEOUT", c.RequestTimeout); err != nil {
		return err
	}
	if c.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory, BackendPostgres, BackendPgx, BackendSQLite:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	switch c.SessionBackend {
	case SessionsFromStore, SessionsFromMongo:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.CurrencyPrecision < 0 || c.CurrencyPrecision > domain.MaxAmountScale {
		return fmt.Errorf("CURRENCY_PRECISION must be between 0 and %d, got %d", domain.MaxAmountScale, c.CurrencyPrecision)
	}
	if c.OrderTimeout < 0 {
		return fmt.Errorf("ORDER_TIMEOUT must not be negative")
	}
	return nil
}

// UsesSQL reports whether the storage backend is a database/sql repository
func (c *Config) UsesSQL() bool {
	return c.StorageBackend == BackendPostgres || c.StorageBackend == BackendPgx || c.StorageBackend == BackendSQLite
}

// Migrations returns the migrations directory of the selected SQL dialect
func (c *Config) Migrations() string {
	if c.MigrationsPath != "" {
		return c.MigrationsPath
	}
	if c.StorageBackend == BackendSQLite {
		return "internal/repository/migrations/sqlite"
	}
	return "internal/repository/migrations/postgres"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
