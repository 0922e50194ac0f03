package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBDriver               string
	DBHost                 string
	DBPort                 string
	DBUser                 string
	DBPass                 string
	DBName                 string
	SQLitePath             string
	ServerPort             string
	RedisURL               string
	Env                    string
	RedisTTL               time.Duration
	JWTSecret              string
	JWTTTL                 time.Duration
	FrontendURL            string
	TaskUpdateRequiresRole bool
	OrphanSweepCron        string
	OrphanGrace            time.Duration
	SeedDemo               bool
}

func LoadConfig() Config {
	return Config{
		DBDriver:               getEnv("DB_DRIVER", "postgres"),
		DBHost:                 getEnv("DB_HOST", "postgres"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		DBUser:                 getEnv("DB_USER", "postgres"),
		DBPass:                 getEnv("DB_PASSWORD", "password"),
		DBName:                 getEnv("DB_NAME", "taskboard"),
		SQLitePath:             getEnv("SQLITE_PATH", "taskboard.db"),
		ServerPort:             getEnv("SERVER_PORT", "5000"),
		RedisURL:               getEnv("REDIS_URL", "redis:6379"),
		Env:                    getEnv("ENV", "dev"),
		RedisTTL:               getEnvAsDuration("REDIS_TTL", 5*time.Minute),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		JWTTTL:                 getEnvAsDuration("JWT_TTL", 7*24*time.Hour),
		FrontendURL:            getEnv("FRONTEND_URL", ""),
		TaskUpdateRequiresRole: getEnvAsBool("TASK_UPDATE_REQUIRES_ROLE", false),
		OrphanSweepCron:        getEnv("ORPHAN_SWEEP_CRON", "*/30 * * * *"),
		OrphanGrace:            getEnvAsDuration("ORPHAN_GRACE", 10*time.Minute),
		SeedDemo:               getEnvAsBool("SEED_DEMO", false),
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
	}
	return fallback
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort,
	)
}
