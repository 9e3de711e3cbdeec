package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	ServerPort     string
	RequestTimeout time.Duration

	JWTSecret string
	JWTExpiry time.Duration

	RecurrenceInterval  time.Duration
	RecurrenceBatchSize int
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	return &Config{
		DBDriver:            getEnv("DB_DRIVER", DriverPostgres),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "5432"),
		DBUser:              getEnv("DB_USER", "tasks_user"),
		DBPassword:          getEnv("DB_PASSWORD", "tasks_pass"),
		DBName:              getEnv("DB_NAME", "tasks_db"),
		SQLitePath:          getEnv("SQLITE_PATH", "data/tasks.db"),
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		RequestTimeout:      getDuration("REQUEST_TIMEOUT", 10*time.Second),
		JWTSecret:           getEnv("JWT_SECRET", "supersecretkey"),
		JWTExpiry:           time.Duration(getInt("JWT_EXPIRY_HOURS", 24*7)) * time.Hour,
		RecurrenceInterval:  getDuration("RECURRENCE_INTERVAL", 15*time.Minute),
		RecurrenceBatchSize: getInt("RECURRENCE_BATCH_SIZE", 100),
	}
}

// PostgresDSN is the key/value DSN used by the gorm postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// MigrationURL is the URL form of the same database for golang-migrate.
func (c *Config) MigrationURL() string {
	return fmt.Sprintf("pgx5://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("⚠️  Invalid %s=%q, using %d", key, raw, defaultVal)
		return defaultVal
	}
	return n
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("⚠️  Invalid %s=%q, using %s", key, raw, defaultVal)
		return defaultVal
	}
	return d
}
