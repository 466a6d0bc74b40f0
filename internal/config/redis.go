package config

import "os"

type RedisConfig struct {
	Enabled  bool
	DB       int
	Url      string
	Password string
}

func NewRedisConfig() *RedisConfig {
	return &RedisConfig{
		Enabled:  os.Getenv("REDIS_ENABLED") != "false",
		DB:       getIntEnv("REDIS_DB", 0),
		Url:      getEnv("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
}
