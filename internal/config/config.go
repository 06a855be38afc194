package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config структура конфигурации
type Config struct {
	HTTPPort         string
	WSPort           string
	JWTSecret        string
	TelegramBotToken string
	DatabaseURL      string
	DatabaseConfig   DatabaseConfig
	CloudinaryConfig CloudinaryConfig
	RedisURL         string
	PropertyCacheTTL time.Duration
	ReconcileEvery   time.Duration
	Storage          string // postgres или memory
	DefaultLanguage  string
	LogLevel         string
	LogFormat        string
}

// DatabaseConfig содержит конфигурацию базы данных
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

// CloudinaryConfig содержит конфигурацию для Cloudinary
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
	ChatFolder   string
}

// Enabled сообщает, заданы ли ключи Cloudinary
func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// LoadConfig загружает переменные из .env и окружения
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env файл не найден, используем переменные окружения")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	dbConfig := DatabaseConfig{
		Host:     v.GetString("PGHOST"),
		Port:     v.GetString("PGPORT"),
		User:     v.GetString("PGUSER"),
		Password: v.GetString("PGPASSWORD"),
		Name:     v.GetString("PGDATABASE"),
		SSLMode:  v.GetString("PGSSLMODE"),
		MaxConns: v.GetInt32("PGMAXCONNS"),
	}

	// Формируем строку подключения к базе данных, если она не задана целиком
	dbURL := v.GetString("DATABASE_URL")
	if dbURL == "" {
		dbURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode)
	}

	cfg := &Config{
		HTTPPort:         v.GetString("HTTP_PORT"),
		WSPort:           v.GetString("WS_PORT"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		TelegramBotToken: v.GetString("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      dbURL,
		DatabaseConfig:   dbConfig,
		CloudinaryConfig: CloudinaryConfig{
			CloudName:    v.GetString("CLOUDINARY_CLOUD_NAME"),
			APIKey:       v.GetString("CLOUDINARY_API_KEY"),
			APISecret:    v.GetString("CLOUDINARY_API_SECRET"),
			UploadPreset: v.GetString("CLOUDINARY_UPLOAD_PRESET"),
			ChatFolder:   v.GetString("CLOUDINARY_CHAT_FOLDER"),
		},
		RedisURL:         v.GetString("REDIS_URL"),
		PropertyCacheTTL: v.GetDuration("PROPERTY_CACHE_TTL"),
		ReconcileEvery:   v.GetDuration("UNREAD_RECONCILE_INTERVAL"),
		Storage:          v.GetString("STORAGE"),
		DefaultLanguage:  v.GetString("DEFAULT_LANGUAGE"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("WS_PORT", "8081")
	v.SetDefault("PGHOST", "localhost")
	v.SetDefault("PGPORT", "5432")
	v.SetDefault("PGUSER", "raiz_user")
	v.SetDefault("PGPASSWORD", "raiz_pass")
	v.SetDefault("PGDATABASE", "raiz")
	v.SetDefault("PGSSLMODE", "disable")
	v.SetDefault("PGMAXCONNS", 10)
	v.SetDefault("CLOUDINARY_CHAT_FOLDER", "conversations")
	v.SetDefault("PROPERTY_CACHE_TTL", "5m")
	v.SetDefault("UNREAD_RECONCILE_INTERVAL", "10m")
	v.SetDefault("STORAGE", "postgres")
	v.SetDefault("DEFAULT_LANGUAGE", "en")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("не задана обязательная переменная окружения JWT_SECRET")
	}
	if c.Storage != "postgres" && c.Storage != "memory" {
		return fmt.Errorf("неизвестное хранилище STORAGE=%q", c.Storage)
	}
	return nil
}
