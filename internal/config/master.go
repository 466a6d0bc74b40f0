package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	DebugMode      bool
	LogLevel       string
	HTTPConfig     *HTTPConfig
	RedisConfig    *RedisConfig
	PostgresConfig *PostgresConfig
	JwtConfig      *JwtConfig
	GGAuthConfig   *GGAuthConfig
	OracleConfig   *OracleConfig
	BlobConfig     *BlobConfig
	ReconcileCfg   *ReconcileCfg
	MailConfig     *MailConfig
}

func NewSystemConfig() *AppConfig {
	return &AppConfig{
		DebugMode:      os.Getenv("DEBUG_MODE") == "true",
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		HTTPConfig:     NewHTTPConfig(),
		RedisConfig:    NewRedisConfig(),
		PostgresConfig: NewPostgresConfig(),
		JwtConfig:      NewJwtConfig(),
		GGAuthConfig:   NewGGAuthConfig(),
		OracleConfig:   NewOracleConfig(),
		BlobConfig:     NewBlobConfig(),
		ReconcileCfg:   NewReconcileCfg(),
		MailConfig:     NewMailConfig(),
	}
}

// getEnv gets an environment variable with a fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an environment variable as an integer with a fallback
func getIntEnv(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func getSecondsEnv(key string, fallbackSec int) time.Duration {
	varInt := getIntEnv(key, fallbackSec)
	if varInt <= 0 {
		varInt = fallbackSec
	}
	return time.Duration(varInt) * time.Second
}

func getListEnv(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
