package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Module provides the process configuration to the fx graph.
var Module = fx.Options(
	fx.Provide(Load),
	fx.Provide(NewReminderConfigHolder),
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Environment      string
	HTTPAddr         string
	AuthCookieSecure bool

	// CredentialSecret derives the key that encrypts tenant SMS auth
	// tokens at rest. Any length is accepted; it is hashed to 32 bytes.
	CredentialSecret string

	// CronSecret guards GET /cron/reminders. When empty the endpoint
	// runs in open mode and a warning is logged at startup.
	CronSecret string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceStarter  string
	StripePricePro      string

	// Platform Twilio credentials used for tenants on managed-SMS plans.
	PlatformSMSAccountSID string
	PlatformSMSAuthToken  string
	PlatformSMSFrom       string

	RedisAddr string

	// SeedDemoData creates a demo tenant with sample clients at startup,
	// for local development only.
	SeedDemoData bool

	DBType     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	return Config{
		AppName:          getenv("APP_SERVICE", "autoremind"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Environment:      environment,
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		AuthCookieSecure: authCookieSecure,

		CredentialSecret: strings.TrimSpace(getenv("CREDENTIAL_SECRET", "")),
		CronSecret:       strings.TrimSpace(getenv("CRON_SECRET", "")),

		StripeSecretKey:     strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
		StripeWebhookSecret: strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
		StripePriceStarter:  strings.TrimSpace(getenv("STRIPE_PRICE_STARTER", "")),
		StripePricePro:      strings.TrimSpace(getenv("STRIPE_PRICE_PRO", "")),

		PlatformSMSAccountSID: strings.TrimSpace(getenv("PLATFORM_SMS_ACCOUNT_SID", "")),
		PlatformSMSAuthToken:  strings.TrimSpace(getenv("PLATFORM_SMS_AUTH_TOKEN", "")),
		PlatformSMSFrom:       strings.TrimSpace(getenv("PLATFORM_SMS_FROM", "")),

		RedisAddr: strings.TrimSpace(getenv("REDIS_ADDR", "")),

		SeedDemoData: getenvBool("SEED_DEMO_DATA", false),

		DBType:     getenv("DATABASE_TYPE", "postgres"),
		DBHost:     getenv("DATABASE_HOST", "localhost"),
		DBPort:     getenv("DATABASE_PORT", "5432"),
		DBName:     getenv("DATABASE_NAME", "autoremind"),
		DBUser:     getenv("DATABASE_USER", "postgres"),
		DBPassword: getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:  getenv("DATABASE_SSLMODE", "disable"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
