package config

import (
	"time"

	"github.com/jdwly/platform/pkg/tokengenerator"
)

// JWTConfig holds JWT authentication configuration
type JWTConfig struct {
	Secret             string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	CookieHttpOnly     bool   `env:"COOKIE_HTTP_ONLY" env-default:"true"`
	CookieSecure       bool   `env:"COOKIE_SECURE" env-default:"true"`
	AccessTokenExpiry  string `env:"ACCESS_TOKEN_EXPIRY" env-default:"1h"`
	RefreshTokenExpiry string `env:"REFRESH_TOKEN_EXPIRY" env-default:"P30D"`
	Issuer             string `env:"JWT_ISSUER" env-default:"jdwly"`
	Audience           string `env:"JWT_AUDIENCE" env-default:"jdwly"`
}

// ParseAccessTokenExpiry parses the access token expiry duration
func (j JWTConfig) ParseAccessTokenExpiry() (time.Duration, error) {
	return ParseDurationISO8601(j.AccessTokenExpiry)
}

// ParseRefreshTokenExpiry parses the refresh token expiry duration
func (j JWTConfig) ParseRefreshTokenExpiry() (time.Duration, error) {
	return ParseDurationISO8601(j.RefreshTokenExpiry)
}

// AccessTokenExpiryOrDefault falls back to the built-in default when
// the configured value does not parse.
func (j JWTConfig) AccessTokenExpiryOrDefault() time.Duration {
	if d, err := j.ParseAccessTokenExpiry(); err == nil {
		return d
	}
	return tokengenerator.DefaultAccessTokenExpiry
}

// RefreshTokenExpiryOrDefault falls back to the built-in default when
// the configured value does not parse.
func (j JWTConfig) RefreshTokenExpiryOrDefault() time.Duration {
	if d, err := j.ParseRefreshTokenExpiry(); err == nil {
		return d
	}
	return tokengenerator.DefaultRefreshTokenExpiry
}

// NewJWTConfigFromEnv creates a JWTConfig from environment variables
func NewJWTConfigFromEnv() JWTConfig {
	return JWTConfig{
		Secret:             GetEnvOrDefault("JWT_SECRET", "very-secure-jwt-secret"),
		CookieHttpOnly:     GetEnvBool("COOKIE_HTTP_ONLY", true),
		CookieSecure:       GetEnvBool("COOKIE_SECURE", true),
		AccessTokenExpiry:  GetEnvOrDefault("ACCESS_TOKEN_EXPIRY", "1h"),
		RefreshTokenExpiry: GetEnvOrDefault("REFRESH_TOKEN_EXPIRY", "P30D"),
		Issuer:             GetEnvOrDefault("JWT_ISSUER", "jdwly"),
		Audience:           GetEnvOrDefault("JWT_AUDIENCE", "jdwly"),
	}
}
