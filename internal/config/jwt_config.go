package config

import (
	"os"
	"time"
)

type JwtConfig struct {
	Secret string
	Expiry time.Duration
}

func NewJwtConfig() *JwtConfig {
	return &JwtConfig{
		Secret: os.Getenv("JWT_SECRET"),
		Expiry: time.Duration(getIntEnv("JWT_EXPIRE_HOURS", 24)) * time.Hour,
	}
}
