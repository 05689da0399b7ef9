package utils

import (
	"os"
	"strconv"
	"time"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("JUMPTOC_JWT_SECRET")
	if secret == "" {
		// dev default (change for production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("JUMPTOC_JWT_ISSUER")
	if issuer == "" {
		issuer = "jumptoc"
	}

	duration := 24 * time.Hour
	if ttl := os.Getenv("JUMPTOC_JWT_TTL_HOURS"); ttl != "" {
		if hours, err := strconv.Atoi(ttl); err == nil && hours > 0 {
			duration = time.Duration(hours) * time.Hour
		}
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: duration,
	}
}
