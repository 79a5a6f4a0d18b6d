package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Session  SessionConfig
	Email    EmailConfig
	Paymob   PaymobConfig
	Zatca    ZatcaConfig
	Storage  StorageConfig
	Rabbit   RabbitConfig
	Frontend FrontendConfig
}

type AppConfig struct {
	Name        string
	Port        string
	Debug       bool
	LogPath     string
	CORSOrigins string
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

type PaymobConfig struct {
	BaseURL       string
	APIKey        string
	SecretKey     string
	HMACSecret    string
	IntegrationID int
	IframeID      string
	Currency      string
	SkipHMAC      bool
	Timeout       time.Duration
}

type ZatcaConfig struct {
	SellerName string
	VATNumber  string
}

type StorageConfig struct {
	Root      string
	PublicURL string
}

type RabbitConfig struct {
	URL      string
	Exchange string
	Queue    string
}

type FrontendConfig struct {
	PaymentStatusURL string
}

// LoadConfig reads the .env file at path (if it exists) and the process
// environment. Environment variables win over the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	v.SetDefault("APP_NAME", "field-booking")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("SESSION_EXPIRY_HOURS", 24)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("PAYMOB_BASE_URL", "https://ksa.paymob.com")
	v.SetDefault("PAYMOB_CURRENCY", "SAR")
	v.SetDefault("PAYMOB_SKIP_HMAC", false)
	v.SetDefault("PAYMOB_TIMEOUT", "15s")
	v.SetDefault("STORAGE_ROOT", "storage/")
	v.SetDefault("STORAGE_PUBLIC_URL", "http://localhost:8080/storage")
	v.SetDefault("RABBIT_EXCHANGE", "field-booking.events")
	v.SetDefault("RABBIT_QUEUE", "field-booking.notifications")
	v.SetDefault("PAYMENT_STATUS_URL", "http://localhost:3000/payment/status")
	v.SetDefault("CORS_ORIGINS", "*")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:        v.GetString("APP_NAME"),
			Port:        v.GetString("PORT"),
			Debug:       v.GetBool("DEBUG"),
			LogPath:     v.GetString("LOG_PATH"),
			CORSOrigins: v.GetString("CORS_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
		},
		Session: SessionConfig{
			ExpiryHours: v.GetInt("SESSION_EXPIRY_HOURS"),
		},
		Email: EmailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASS"),
			From:     v.GetString("EMAIL_FROM"),
		},
		Paymob: PaymobConfig{
			BaseURL:       v.GetString("PAYMOB_BASE_URL"),
			APIKey:        v.GetString("PAYMOB_API_KEY"),
			SecretKey:     v.GetString("PAYMOB_SECRET_KEY"),
			HMACSecret:    v.GetString("PAYMOB_HMAC"),
			IntegrationID: v.GetInt("PAYMOB_INTEGRATION_ID"),
			IframeID:      v.GetString("PAYMOB_IFRAME_ID"),
			Currency:      v.GetString("PAYMOB_CURRENCY"),
			SkipHMAC:      v.GetBool("PAYMOB_SKIP_HMAC"),
			Timeout:       v.GetDuration("PAYMOB_TIMEOUT"),
		},
		Zatca: ZatcaConfig{
			SellerName: v.GetString("ZATCA_SELLER_NAME"),
			VATNumber:  v.GetString("ZATCA_VAT_NUMBER"),
		},
		Storage: StorageConfig{
			Root:      v.GetString("STORAGE_ROOT"),
			PublicURL: v.GetString("STORAGE_PUBLIC_URL"),
		},
		Rabbit: RabbitConfig{
			URL:      v.GetString("RABBIT_URL"),
			Exchange: v.GetString("RABBIT_EXCHANGE"),
			Queue:    v.GetString("RABBIT_QUEUE"),
		},
		Frontend: FrontendConfig{
			PaymentStatusURL: v.GetString("PAYMENT_STATUS_URL"),
		},
	}

	return config, nil
}
