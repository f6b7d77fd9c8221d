package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads,
// e.g. TASKFLOW_SERVER_PORT or TASKFLOW_AUTH_JWT_SECRET.
const EnvPrefix = "TASKFLOW"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Comma-separated env values arrive as a single element.
	if len(cfg.Server.AllowedOrigins) == 1 && strings.Contains(cfg.Server.AllowedOrigins[0], ",") {
		cfg.Server.AllowedOrigins = strings.Split(cfg.Server.AllowedOrigins[0], ",")
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.frontend_url", "http://localhost:3000")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.name", "taskflow")
	v.SetDefault("database.connect_attempts", 5)

	v.SetDefault("auth.token_lifetime_minutes", 7*24*60)
	v.SetDefault("auth.bcrypt_cost", 12)

	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.max_avatar_bytes", 5*1024*1024)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.limit", 20)
	v.SetDefault("rate_limit.window_seconds", 60)
}

// bindEnvs registers keys that have no default so AutomaticEnv can see them
// during Unmarshal.
func bindEnvs(v *viper.Viper) {
	keys := []string{
		"database.url",
		"auth.jwt_secret",
		"oauth.callback_base_url",
		"oauth.google.client_id",
		"oauth.google.client_secret",
		"oauth.github.client_id",
		"oauth.github.client_secret",
		"rate_limit.redis_addr",
		"rate_limit.redis_password",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}
