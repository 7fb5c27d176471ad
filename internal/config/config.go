// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"vidtube/internal/featureflags"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultAccessSecret  = "access-secret-change-in-production"
	defaultRefreshSecret = "refresh-secret-change-in-production"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`
	BodyLimitMB    int    `mapstructure:"BODY_LIMIT_MB"`

	DBHost                   string `mapstructure:"DB_HOST"`
	DBPort                   string `mapstructure:"DB_PORT"`
	DBUser                   string `mapstructure:"DB_USER"`
	DBPassword               string `mapstructure:"DB_PASSWORD"`
	DBName                   string `mapstructure:"DB_NAME"`
	DBSSLMode                string `mapstructure:"DB_SSLMODE"`
	DBSchemaMode             string `mapstructure:"DB_SCHEMA_MODE"`
	DBMaxOpenConns           int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns           int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	RedisURL string `mapstructure:"REDIS_URL"`

	AccessTokenSecret  string        `mapstructure:"ACCESS_TOKEN_SECRET"`
	AccessTokenExpiry  time.Duration `mapstructure:"ACCESS_TOKEN_EXPIRY"`
	RefreshTokenSecret string        `mapstructure:"REFRESH_TOKEN_SECRET"`
	RefreshTokenExpiry time.Duration `mapstructure:"REFRESH_TOKEN_EXPIRY"`
	TokenIssuer        string        `mapstructure:"TOKEN_ISSUER"`
	TokenAudience      string        `mapstructure:"TOKEN_AUDIENCE"`

	MediaBucket          string `mapstructure:"MEDIA_BUCKET"`
	MediaRegion          string `mapstructure:"MEDIA_REGION"`
	MediaEndpoint        string `mapstructure:"MEDIA_ENDPOINT"`
	MediaPublicBaseURL   string `mapstructure:"MEDIA_PUBLIC_BASE_URL"`
	MediaAccessKeyID     string `mapstructure:"MEDIA_ACCESS_KEY_ID"`
	MediaSecretAccessKey string `mapstructure:"MEDIA_SECRET_ACCESS_KEY"`
	MediaFFProbePath     string `mapstructure:"MEDIA_FFPROBE_PATH"`

	UploadTempDir     string `mapstructure:"UPLOAD_TEMP_DIR"`
	UploadMaxSizeMB   int    `mapstructure:"UPLOAD_MAX_SIZE_MB"`
	AMQPURL           string `mapstructure:"AMQP_URL"`
	DevBootstrapAdmin bool   `mapstructure:"DEV_BOOTSTRAP_ADMIN"`
	DevAdminUsername  string `mapstructure:"DEV_ADMIN_USERNAME"`
	DevAdminEmail     string `mapstructure:"DEV_ADMIN_EMAIL"`
	DevAdminPassword  string `mapstructure:"DEV_ADMIN_PASSWORD"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables always win.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("FEATURE_FLAGS", "watch_history=on")
	viper.SetDefault("BODY_LIMIT_MB", 512)

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "vidtube")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)

	viper.SetDefault("REDIS_URL", "localhost:6379")

	viper.SetDefault("ACCESS_TOKEN_SECRET", defaultAccessSecret)
	viper.SetDefault("ACCESS_TOKEN_EXPIRY", "15m")
	viper.SetDefault("REFRESH_TOKEN_SECRET", defaultRefreshSecret)
	viper.SetDefault("REFRESH_TOKEN_EXPIRY", "240h")
	viper.SetDefault("TOKEN_ISSUER", "vidtube-api")
	viper.SetDefault("TOKEN_AUDIENCE", "vidtube-client")

	viper.SetDefault("MEDIA_BUCKET", "vidtube-media")
	viper.SetDefault("MEDIA_REGION", "us-east-1")
	viper.SetDefault("MEDIA_ENDPOINT", "")
	viper.SetDefault("MEDIA_PUBLIC_BASE_URL", "")
	viper.SetDefault("MEDIA_ACCESS_KEY_ID", "")
	viper.SetDefault("MEDIA_SECRET_ACCESS_KEY", "")
	viper.SetDefault("MEDIA_FFPROBE_PATH", "ffprobe")

	viper.SetDefault("UPLOAD_TEMP_DIR", "./public/temp")
	viper.SetDefault("UPLOAD_MAX_SIZE_MB", 512)
	viper.SetDefault("AMQP_URL", "")
	viper.SetDefault("DEV_BOOTSTRAP_ADMIN", false)
	viper.SetDefault("DEV_ADMIN_USERNAME", "admin")
	viper.SetDefault("DEV_ADMIN_EMAIL", "admin@vidtube.local")

	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
}

func (c *Config) normalize() {
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.DBSchemaMode = strings.ToLower(strings.TrimSpace(c.DBSchemaMode))
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
}

// IsProduction reports whether the config targets a production environment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if c.AccessTokenExpiry <= 0 || c.RefreshTokenExpiry <= 0 {
		return errors.New("token expiries must be positive durations")
	}
	if c.AccessTokenExpiry >= c.RefreshTokenExpiry {
		return errors.New("ACCESS_TOKEN_EXPIRY must be shorter than REFRESH_TOKEN_EXPIRY")
	}
	if _, err := featureflags.Parse(c.FeatureFlags); err != nil {
		return fmt.Errorf("FEATURE_FLAGS: %w", err)
	}

	if c.IsProduction() {
		if c.AccessTokenSecret == defaultAccessSecret || c.RefreshTokenSecret == defaultRefreshSecret {
			return errors.New("token secrets must be changed from the default values in production")
		}
		if len(c.AccessTokenSecret) < 32 || len(c.RefreshTokenSecret) < 32 {
			return errors.New("token secrets must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable SSL in production")
		}
		if c.MediaBucket == "" {
			return errors.New("MEDIA_BUCKET is required in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if len(c.AccessTokenSecret) < 32 {
		log.Println("WARNING: ACCESS_TOKEN_SECRET is shorter than 32 characters. Use a stronger secret for production.")
	}

	return nil
}

// UploadMaxBytes returns the per-file upload ceiling in bytes.
func (c *Config) UploadMaxBytes() int64 {
	if c.UploadMaxSizeMB <= 0 {
		return 512 << 20
	}
	return int64(c.UploadMaxSizeMB) << 20
}
