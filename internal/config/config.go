package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"`

	DBDriver  string `env:"DB_DRIVER" envDefault:"mysql"`
	DBHost    string `env:"DB_HOST" envDefault:"mysql"`
	DBPort    string `env:"DB_PORT" envDefault:"3306"`
	DBName    string `env:"DB_NAME" envDefault:"assistance"`
	DBUser    string `env:"DB_USER" envDefault:"assistance"`
	DBPass    string `env:"DB_PASS" envDefault:"assistance"`
	DBSSLMode string `env:"DB_SSLMODE" envDefault:"disable"`
	// sqlite only
	DBPath  string `env:"DB_PATH" envDefault:"assistance.db"`
	DBDebug bool   `env:"DB_DEBUG" envDefault:"false"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"redis:6379"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	IdempTTLSecs int    `env:"IDEMPOTENCY_TTL_SECONDS" envDefault:"300"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	BudgetRetryMax      uint64        `env:"BUDGET_RETRY_MAX" envDefault:"5"`
	BudgetRetryInterval time.Duration `env:"BUDGET_RETRY_INTERVAL" envDefault:"10ms"`
	ReminderConcurrency int           `env:"REMINDER_CONCURRENCY" envDefault:"8"`
}

// Load reads an optional .env file, then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil {
		log.Printf("config: no env file loaded (%v)", err)
	}
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("missing DB_PATH for sqlite")
		}
	case DriverMySQL, DriverPostgres:
		if c.DBHost == "" || c.DBPort == "" || c.DBName == "" || c.DBUser == "" {
			return errors.New("missing database config (DB_HOST/PORT/NAME/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.DBPort); err != nil {
			return fmt.Errorf("invalid DB_PORT %q: %w", c.DBPort, err)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.IdempTTLSecs <= 0 {
		return errors.New("IDEMPOTENCY_TTL_SECONDS must be positive")
	}
	if c.ReminderConcurrency <= 0 {
		return errors.New("REMINDER_CONCURRENCY must be positive")
	}
	return nil
}

func (c *Config) dbAddr() string { return net.JoinHostPort(c.DBHost, c.DBPort) }

// DSN renders the connection string for the configured driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case DriverPostgres:
		return c.PostgresDSN()
	case DriverSQLite:
		return c.DBPath
	default:
		return c.MySQLDSN()
	}
}

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.DBUser, c.DBPass, c.dbAddr(), c.DBName)
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort, c.DBSSLMode)
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}
