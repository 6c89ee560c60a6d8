package config

// PasswordConfig holds password hashing configuration. The bcrypt cost
// trades login latency against brute-force resistance.
type PasswordConfig struct {
	BcryptCost int `env:"PASSWORD_BCRYPT_COST" env-default:"12"`
}

// NewPasswordConfigFromEnv creates a PasswordConfig from environment variables
func NewPasswordConfigFromEnv() PasswordConfig {
	return PasswordConfig{
		BcryptCost: GetEnvInt("PASSWORD_BCRYPT_COST", 12),
	}
}
