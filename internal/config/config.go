package config

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port          string
	AllowOrigins  string
	ReqTimeoutSec int

	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
	DBIsolation  string
	DBMaxRetries int

	JWTSecret     string
	TokenTTLHours int

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	HistoryCacheTTL time.Duration

	StatementDir       string
	StatementBucket    string
	GCSCredentialsFile string
	RecordClosingDebit bool
	EnableScheduler    bool
	TermSchedule       string
	DailySchedule      string
	TermLockTTL        time.Duration

	LogLevel  string
	LogFormat string

	AdminUsername string
	AdminPassword string
	AdminName     string

	SavingsAPY   string
	SavingsMin   string
	CheckingsAPY string
	CheckingsMin string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" { return v }
	return def
}

func atoi(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil { return i }
	}
	return def
}

func atob(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil { return b }
	}
	return def
}

func seconds(key string, def int) time.Duration {
	return time.Duration(atoi(key, def)) * time.Second
}

func Load() *Config {
	return &Config{
		Port:          getenv("PORT", "8080"),
		AllowOrigins:  getenv("ALLOW_ORIGINS", "*"),
		ReqTimeoutSec: atoi("REQUEST_TIMEOUT_SECONDS", 30),

		DBHost:       getenv("DB_HOST", "localhost"),
		DBPort:       getenv("DB_PORT", "5432"),
		DBUser:       getenv("DB_USER", "postgres"),
		DBPassword:   getenv("DB_PASSWORD", ""),
		DBName:       getenv("DB_NAME", "banking"),
		DBSSLMode:    getenv("DB_SSLMODE", "disable"),
		DBIsolation:  getenv("DB_ISOLATION", "serializable"),
		DBMaxRetries: atoi("DB_MAX_RETRIES", 3),

		JWTSecret:     getenv("JWT_SECRET", ""),
		TokenTTLHours: atoi("TOKEN_TTL_HOURS", 24),

		RedisAddr:       getenv("REDIS_ADDR", ""),
		RedisPassword:   getenv("REDIS_PASSWORD", ""),
		RedisDB:         atoi("REDIS_DB", 0),
		HistoryCacheTTL: seconds("HISTORY_CACHE_TTL_SECONDS", 3600),

		StatementDir:       getenv("STATEMENT_DIR", "./pdfs"),
		StatementBucket:    getenv("STATEMENT_BUCKET", ""),
		GCSCredentialsFile: getenv("GCS_CREDENTIALS_FILE", ""),
		RecordClosingDebit: atob("RECORD_CLOSING_DEBIT", true),
		EnableScheduler:    atob("ENABLE_SCHEDULER", false),
		TermSchedule:       getenv("TERM_SCHEDULE", "0 0 * * 0"), // Sunday midnight
		DailySchedule:      getenv("DAILY_SCHEDULE", "0 0 * * *"),
		TermLockTTL:        seconds("TERM_LOCK_TTL_SECONDS", 1800),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "console"),

		AdminUsername: getenv("ADMIN_USERNAME", "executive"),
		AdminPassword: getenv("ADMIN_PASSWORD", ""),
		AdminName:     getenv("ADMIN_NAME", "Admin"),

		SavingsAPY:   getenv("SAVINGS_APY", "0.25"),
		SavingsMin:   getenv("SAVINGS_MIN", "5.00"),
		CheckingsAPY: getenv("CHECKINGS_APY", "0"),
		CheckingsMin: getenv("CHECKINGS_MIN", "0"),
	}
}

// DSN builds the postgres connection URL.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// TxOptions maps DB_ISOLATION onto the options every ledger unit of work
// is opened with. "default" leaves the isolation to the driver.
func (c *Config) TxOptions() *sql.TxOptions {
	switch strings.ToLower(c.DBIsolation) {
	case "serializable":
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	case "repeatable_read":
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead}
	case "read_committed":
		return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	default:
		return nil
	}
}
