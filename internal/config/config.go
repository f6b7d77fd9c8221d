package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"     validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"   validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"       validate:"required"`
	OAuth     OAuthConfig     `mapstructure:"oauth"`
	Uploads   UploadsConfig   `mapstructure:"uploads"    validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// FrontendURL is where OAuth callbacks send the browser once a token is issued.
	FrontendURL    string   `mapstructure:"frontend_url"    validate:"required,url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres mongo"`
	URL    string `mapstructure:"url"    validate:"required,url"`
	// Name is the Mongo database name; ignored by the postgres driver.
	Name            string `mapstructure:"name"             validate:"required"`
	ConnectAttempts uint64 `mapstructure:"connect_attempts" validate:"gte=1"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	BcryptCost           int    `mapstructure:"bcrypt_cost"            validate:"gte=4,lte=31"`
}

// OAuthProviderConfig holds client credentials for one identity provider.
// A provider with an empty ClientID is disabled.
type OAuthProviderConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret" validate:"required_with=ClientID"`
}

// Enabled reports whether the provider has credentials configured.
func (c OAuthProviderConfig) Enabled() bool {
	return c.ClientID != ""
}

// OAuthConfig contains the identity provider settings.
type OAuthConfig struct {
	// CallbackBaseURL is the public base URL of this API, used to build redirect URIs.
	CallbackBaseURL string              `mapstructure:"callback_base_url" validate:"omitempty,url"`
	Google          OAuthProviderConfig `mapstructure:"google"`
	GitHub          OAuthProviderConfig `mapstructure:"github"`
}

// UploadsConfig controls where avatar images are written.
type UploadsConfig struct {
	Dir            string `mapstructure:"dir"              validate:"required"`
	MaxAvatarBytes int64  `mapstructure:"max_avatar_bytes" validate:"gt=0"`
}

// RateLimitConfig configures the limiter on auth routes. An empty RedisAddr
// keeps counters in process memory.
type RateLimitConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	RedisAddr     string `mapstructure:"redis_addr"     validate:"omitempty,hostname_port"`
	RedisPassword string `mapstructure:"redis_password"`
	Limit         int    `mapstructure:"limit"          validate:"gte=0"`
	WindowSeconds int    `mapstructure:"window_seconds" validate:"gte=0"`
}
