package config

// AppConfig holds environment-level application configuration
type AppConfig struct {
	Env          string `env:"APP_ENV" env-default:"development"`
	CookieDomain string `env:"COOKIE_DOMAIN" env-default:".jdwly.com"`
}

// IsProductionLike reports whether the app runs against real browsers
// on the public domain. Session cookies carry the parent domain only in
// these environments so local and test setups stay on host-only
// cookies.
func (a AppConfig) IsProductionLike() bool {
	return a.Env == "production" || a.Env == "staging"
}

// ResolveCookieDomain returns the Domain attribute for session cookies,
// empty outside production-like environments.
func (a AppConfig) ResolveCookieDomain() string {
	if a.IsProductionLike() {
		return a.CookieDomain
	}
	return ""
}

// NewAppConfigFromEnv creates an AppConfig from environment variables
func NewAppConfigFromEnv() AppConfig {
	return AppConfig{
		Env:          GetEnvOrDefault("APP_ENV", "development"),
		CookieDomain: GetEnvOrDefault("COOKIE_DOMAIN", ".jdwly.com"),
	}
}
