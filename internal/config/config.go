package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds application level configuration loaded from environment variables.
// It is built once at startup and never mutated afterwards.
type Config struct {
	AppEnv     string
	ServerPort string
	PublicDir  string
	LogLevel   string
	LogFormat  string
	ResetDB    bool

	MySQLDSN  string
	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret          string
	JWTExpiresIn       time.Duration
	JWTCookieExpiresIn time.Duration
	BcryptCost         int

	EmailFrom     string
	EmailFromName string
	EmailHost     string
	EmailPort     int
	EmailUsername string
	EmailPassword string

	SendGridUsername string
	SendGridPassword string

	StripeSecretKey     string
	StripeWebhookSecret string

	RateLimitMax    int
	RateLimitWindow time.Duration

	SwaggerHost string
}

// Load builds Config from environment with sensible defaults. Values from
// config.env are loaded first when the file exists; real environment
// variables take precedence.
func Load() *Config {
	_ = godotenv.Load("config.env")

	return &Config{
		AppEnv:     getEnv("APP_ENV", EnvDevelopment),
		ServerPort: getEnv("SERVER_PORT", "3000"),
		PublicDir:  getEnv("PUBLIC_DIR", "public"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "json"),
		ResetDB:    os.Getenv("RESET_DB") == "true",

		MySQLDSN:  getEnv("MYSQL_DSN", "natours:natours@tcp(localhost:3306)/natours?charset=utf8mb4&parseTime=True&loc=UTC"),
		RedisAddr: os.Getenv("REDIS_ADDR"),
		RedisDB:   getEnvInt("REDIS_DB", 0),
		RedisPass: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:          getEnv("JWT_SECRET", "change-me"),
		JWTExpiresIn:       getEnvDuration("JWT_EXPIRES_IN", 90*24*time.Hour),
		JWTCookieExpiresIn: time.Duration(getEnvInt("JWT_COOKIE_EXPIRES_IN", 90)) * 24 * time.Hour,
		BcryptCost:         getEnvInt("BCRYPT_COST", 12),

		EmailFrom:     getEnv("EMAIL_FROM", "hello@natours.io"),
		EmailFromName: getEnv("EMAIL_FROM_NAME", "Natours"),
		EmailHost:     getEnv("EMAIL_HOST", "sandbox.smtp.mailtrap.io"),
		EmailPort:     getEnvInt("EMAIL_PORT", 2525),
		EmailUsername: os.Getenv("EMAIL_USERNAME"),
		EmailPassword: os.Getenv("EMAIL_PASSWORD"),

		SendGridUsername: getEnv("SENDGRID_USERNAME", "apikey"),
		SendGridPassword: os.Getenv("SENDGRID_PASSWORD"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 100),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Hour),

		SwaggerHost: os.Getenv("SWAGGER_HOST"),
	}
}

// IsProduction reports whether the process runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

// getEnvDuration accepts Go durations ("1h30m") and the day suffix used by
// JWT_EXPIRES_IN ("90d").
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n := len(v); n > 1 && v[n-1] == 'd' {
		if days, err := strconv.Atoi(v[:n-1]); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	if parsed, err := time.ParseDuration(v); err == nil {
		return parsed
	}
	return def
}
