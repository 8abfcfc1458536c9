package utils

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Session     SessionConfig
	Email       EmailConfig
	Amadeus     AmadeusConfig
	Duffel      DuffelConfig
	Flights     FlightsConfig
	PayTabs     PayTabsConfig
	Idempotency IdempotencyConfig
}

type AppConfig struct {
	Name        string
	Port        string
	Debug       bool
	LogPath     string
	FrontendURL string
	BackendURL  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type SessionConfig struct {
	ExpiryHours int
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type AmadeusConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

type DuffelConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
}

type FlightsConfig struct {
	DefaultProvider string
	OrderTimeout    time.Duration
	SearchTimeout   time.Duration
}

type PayTabsConfig struct {
	BaseURL   string
	ProfileID string
	ServerKey string
	Currency  string
}

type IdempotencyConfig struct {
	TTL      time.Duration
	PurgeAge time.Duration
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("SESSION_EXPIRY_HOURS", 24)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("AMADEUS_BASE_URL", "https://test.api.amadeus.com")
	viper.SetDefault("DUFFEL_BASE_URL", "https://api.duffel.com")
	viper.SetDefault("DEFAULT_FLIGHT_PROVIDER", "duffel")
	viper.SetDefault("ORDER_TIMEOUT_SECONDS", 30)
	viper.SetDefault("SEARCH_TIMEOUT_SECONDS", 20)
	viper.SetDefault("PAYTABS_BASE_URL", "https://secure.paytabs.com")
	viper.SetDefault("PAYTABS_CURRENCY", "AED")
	viper.SetDefault("IDEMPOTENCY_TTL_MINUTES", 5)
	viper.SetDefault("IDEMPOTENCY_PURGE_MINUTES", 10)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:        viper.GetString("APP_NAME"),
			Port:        viper.GetString("PORT"),
			Debug:       viper.GetBool("DEBUG"),
			LogPath:     viper.GetString("LOG_PATH"),
			FrontendURL: viper.GetString("FRONTEND_URL"),
			BackendURL:  viper.GetString("BACKEND_URL"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Session: SessionConfig{
			ExpiryHours: viper.GetInt("SESSION_EXPIRY_HOURS"),
		},
		Email: EmailConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			User:     viper.GetString("SMTP_USER"),
			Password: viper.GetString("SMTP_PASS"),
			From:     viper.GetString("EMAIL_FROM"),
		},
		Amadeus: AmadeusConfig{
			BaseURL:      viper.GetString("AMADEUS_BASE_URL"),
			ClientID:     viper.GetString("AMADEUS_CLIENT_ID"),
			ClientSecret: viper.GetString("AMADEUS_CLIENT_SECRET"),
		},
		Duffel: DuffelConfig{
			BaseURL:       viper.GetString("DUFFEL_BASE_URL"),
			APIKey:        viper.GetString("DUFFEL_API_KEY"),
			WebhookSecret: viper.GetString("DUFFEL_WEBHOOK_SECRET"),
		},
		Flights: FlightsConfig{
			DefaultProvider: viper.GetString("DEFAULT_FLIGHT_PROVIDER"),
			OrderTimeout:    time.Duration(viper.GetInt("ORDER_TIMEOUT_SECONDS")) * time.Second,
			SearchTimeout:   time.Duration(viper.GetInt("SEARCH_TIMEOUT_SECONDS")) * time.Second,
		},
		PayTabs: PayTabsConfig{
			BaseURL:   viper.GetString("PAYTABS_BASE_URL"),
			ProfileID: viper.GetString("PAYTABS_PROFILE_ID"),
			ServerKey: viper.GetString("PAYTABS_SERVER_KEY"),
			Currency:  viper.GetString("PAYTABS_CURRENCY"),
		},
		Idempotency: IdempotencyConfig{
			TTL:      time.Duration(viper.GetInt("IDEMPOTENCY_TTL_MINUTES")) * time.Minute,
			PurgeAge: time.Duration(viper.GetInt("IDEMPOTENCY_PURGE_MINUTES")) * time.Minute,
		},
	}

	return config, nil
}
