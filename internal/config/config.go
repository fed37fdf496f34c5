package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	SMTP      SMTPConfig
	Storage   StorageConfig
	MQTT      MQTTConfig
	Notify    NotifyConfig
	Feedback  FeedbackConfig
	Contacts  ContactsConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port           string
	Host           string
	Environment    string
	MaxUploadBytes int64
}

// AppConfig holds settings that shape rendered documents and links.
type AppConfig struct {
	BaseURL  string
	Name     string
	Timezone string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret             string
	ExpiryHours        int
	RefreshExpiryHours int
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	TLS      bool
}

type StorageConfig struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	UsePathStyle  bool
}

type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}

// NotifyConfig lists who receives submission emails.
type NotifyConfig struct {
	TripLogRecipients []string
	TripLogCC         []string
	Timeout           time.Duration
}

type FeedbackConfig struct {
	AllowedDomain string
	Recipients    []string
}

type ContactsConfig struct {
	HiddenEmails   []string
	FeaturedEmails []string
	DispatchPhone  string
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
	// Sign-in, registration and the public feedback form.
	PublicRPS   float64
	PublicBurst int
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("SERVER_MAX_UPLOAD_BYTES", 30<<20)

	viper.SetDefault("APP_BASE_URL", "http://localhost:8080")
	viper.SetDefault("APP_NAME", "Symbria RX Logistics")
	viper.SetDefault("APP_TIMEZONE", "America/New_York")

	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")

	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("JWT_REFRESH_EXPIRY_HOURS", 168)

	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_FROM", `"Symbria Logistics" <no-reply@symbria.com>`)
	viper.SetDefault("SMTP_TLS", true)

	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_BUCKET", "trip-photos")
	viper.SetDefault("S3_USE_PATH_STYLE", true)

	viper.SetDefault("MQTT_CLIENT_ID", "rx-logistics-api")
	viper.SetDefault("MQTT_TOPIC", "rx-logistics/inspections/submitted")

	viper.SetDefault("NOTIFY_TIMEOUT", "30s")

	viper.SetDefault("FEEDBACK_ALLOWED_DOMAIN", "symbria.com")

	viper.SetDefault("CONTACTS_DISPATCH_PHONE", "877-509-0620")

	viper.SetDefault("RATE_LIMIT_GENERAL_RPS", 10)
	viper.SetDefault("RATE_LIMIT_GENERAL_BURST", 20)
	viper.SetDefault("RATE_LIMIT_PUBLIC_RPS", 0.2)
	viper.SetDefault("RATE_LIMIT_PUBLIC_BURST", 5)

	viper.SetDefault("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"})
	viper.SetDefault("CORS_EXPOSED_HEADERS", []string{"X-Request-ID", "Content-Disposition"})
	viper.SetDefault("CORS_MAX_AGE", 43200)
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Host:           viper.GetString("SERVER_HOST"),
			Environment:    viper.GetString("ENVIRONMENT"),
			MaxUploadBytes: viper.GetInt64("SERVER_MAX_UPLOAD_BYTES"),
		},
		App: AppConfig{
			BaseURL:  viper.GetString("APP_BASE_URL"),
			Name:     viper.GetString("APP_NAME"),
			Timezone: viper.GetString("APP_TIMEZONE"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		JWT: JWTConfig{
			Secret:             viper.GetString("JWT_SECRET"),
			ExpiryHours:        viper.GetInt("JWT_EXPIRY_HOURS"),
			RefreshExpiryHours: viper.GetInt("JWT_REFRESH_EXPIRY_HOURS"),
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			User:     viper.GetString("SMTP_USER"),
			Password: viper.GetString("SMTP_PASSWORD"),
			From:     viper.GetString("SMTP_FROM"),
			TLS:      viper.GetBool("SMTP_TLS"),
		},
		Storage: StorageConfig{
			Endpoint:      viper.GetString("S3_ENDPOINT"),
			Region:        viper.GetString("S3_REGION"),
			Bucket:        viper.GetString("S3_BUCKET"),
			AccessKey:     viper.GetString("S3_ACCESS_KEY"),
			SecretKey:     viper.GetString("S3_SECRET_KEY"),
			PublicBaseURL: viper.GetString("S3_PUBLIC_BASE_URL"),
			UsePathStyle:  viper.GetBool("S3_USE_PATH_STYLE"),
		},
		MQTT: MQTTConfig{
			Broker:   viper.GetString("MQTT_BROKER"),
			ClientID: viper.GetString("MQTT_CLIENT_ID"),
			Username: viper.GetString("MQTT_USERNAME"),
			Password: viper.GetString("MQTT_PASSWORD"),
			Topic:    viper.GetString("MQTT_TOPIC"),
		},
		Notify: NotifyConfig{
			TripLogRecipients: viper.GetStringSlice("NOTIFY_TRIPLOG_TO"),
			TripLogCC:         viper.GetStringSlice("NOTIFY_TRIPLOG_CC"),
			Timeout:           viper.GetDuration("NOTIFY_TIMEOUT"),
		},
		Feedback: FeedbackConfig{
			AllowedDomain: viper.GetString("FEEDBACK_ALLOWED_DOMAIN"),
			Recipients:    viper.GetStringSlice("FEEDBACK_NOTIFY_TO"),
		},
		Contacts: ContactsConfig{
			HiddenEmails:   viper.GetStringSlice("CONTACTS_HIDDEN_EMAILS"),
			FeaturedEmails: viper.GetStringSlice("CONTACTS_FEATURED_EMAILS"),
			DispatchPhone:  viper.GetString("CONTACTS_DISPATCH_PHONE"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   viper.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: viper.GetInt("RATE_LIMIT_GENERAL_BURST"),
			PublicRPS:    viper.GetFloat64("RATE_LIMIT_PUBLIC_RPS"),
			PublicBurst:  viper.GetInt("RATE_LIMIT_PUBLIC_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   viper.GetStringSlice("CORS_EXPOSED_HEADERS"),
			AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           viper.GetInt("CORS_MAX_AGE"),
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Location resolves the configured timezone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *SMTPConfig) Enabled() bool {
	return c.Host != ""
}

func (c *StorageConfig) Enabled() bool {
	return c.Endpoint != "" || c.AccessKey != ""
}

func (c *MQTTConfig) Enabled() bool {
	return c.Broker != ""
}
