package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	JWT       JWTConfig
	S3        S3Config
	Log       LogConfig
	Advisor   AdvisorConfig
	Extractor ExtractorConfig
	CORS      CORSConfig
	Queue     QueueConfig
}

// QueueConfig holds validation queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxRetries       int `mapstructure:"max_retries"`
	Concurrency      int `mapstructure:"concurrency"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AdvisorProviderConfig holds settings for a single LLM advisor provider.
type AdvisorProviderConfig struct {
	Provider       string `mapstructure:"provider"`
	APIKey         string `mapstructure:"api_key"`
	DefaultModel   string `mapstructure:"default_model"`
	TimeoutSecs    int    `mapstructure:"timeout_secs"`
	StaticResponse string `mapstructure:"static_response"`
}

// AdvisorConfig holds LLM advisory review settings with multi-provider support.
type AdvisorConfig struct {
	Primary   AdvisorProviderConfig `mapstructure:"primary"`
	Secondary AdvisorProviderConfig `mapstructure:"secondary"`
}

// SecondaryConfig returns the secondary advisor provider config, or nil if not configured.
func (a *AdvisorConfig) SecondaryConfig() *AdvisorProviderConfig {
	if a.Secondary.Provider != "" {
		return &a.Secondary
	}
	return nil
}

// ExtractorConfig holds Mindee field extraction settings.
type ExtractorConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	APIKey           string `mapstructure:"api_key"`
	CNHModelID       string `mapstructure:"cnh_model_id"`
	RGModelID        string `mapstructure:"rg_model_id"`
	PollIntervalSecs int    `mapstructure:"poll_interval_secs"`
	MaxPollAttempts  int    `mapstructure:"max_poll_attempts"`
	TimeoutSecs      int    `mapstructure:"timeout_secs"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds JWT validation settings.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the VALIDOC_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VALIDOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "validoc")
	v.SetDefault("db.password", "validoc_secret")
	v.SetDefault("db.name", "validoc_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "validoc")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "validoc-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 20)
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.max_retries", 5)
	v.SetDefault("queue.concurrency", 5)

	// Advisor defaults
	v.SetDefault("advisor.primary.provider", "groq")
	v.SetDefault("advisor.primary.api_key", "")
	v.SetDefault("advisor.primary.default_model", "llama-3.3-70b-versatile")
	v.SetDefault("advisor.primary.timeout_secs", 120)
	v.SetDefault("advisor.primary.static_response", "")
	v.SetDefault("advisor.secondary.provider", "")
	v.SetDefault("advisor.secondary.api_key", "")
	v.SetDefault("advisor.secondary.default_model", "")
	v.SetDefault("advisor.secondary.timeout_secs", 120)
	v.SetDefault("advisor.secondary.static_response", "")

	// Extractor defaults
	v.SetDefault("extractor.base_url", "https://api-v2.mindee.net")
	v.SetDefault("extractor.api_key", "")
	v.SetDefault("extractor.cnh_model_id", "6ac2f847-2eb9-434e-a2bc-8926d5777c5a")
	v.SetDefault("extractor.rg_model_id", "b8250a82-3ca4-412c-9bf7-35a113c91af9")
	v.SetDefault("extractor.poll_interval_secs", 2)
	v.SetDefault("extractor.max_poll_attempts", 30)
	v.SetDefault("extractor.timeout_secs", 60)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":          "VALIDOC_SERVER_PORT",
		"server.read_timeout":  "VALIDOC_SERVER_READ_TIMEOUT",
		"server.write_timeout": "VALIDOC_SERVER_WRITE_TIMEOUT",
		"server.environment":   "VALIDOC_SERVER_ENVIRONMENT",
		"db.host":              "VALIDOC_DB_HOST",
		"db.port":              "VALIDOC_DB_PORT",
		"db.user":              "VALIDOC_DB_USER",
		"db.password":          "VALIDOC_DB_PASSWORD",
		"db.name":              "VALIDOC_DB_NAME",
		"db.sslmode":           "VALIDOC_DB_SSLMODE",
		"db.max_open":          "VALIDOC_DB_MAX_OPEN",
		"db.max_idle":          "VALIDOC_DB_MAX_IDLE",
		"jwt.secret":           "VALIDOC_JWT_SECRET",
		"jwt.issuer":           "VALIDOC_JWT_ISSUER",
		"s3.region":            "VALIDOC_S3_REGION",
		"s3.bucket":            "VALIDOC_S3_BUCKET",
		"s3.endpoint":          "VALIDOC_S3_ENDPOINT",
		"s3.access_key":        "VALIDOC_S3_ACCESS_KEY",
		"s3.secret_key":        "VALIDOC_S3_SECRET_KEY",
		"s3.max_file_size_mb":  "VALIDOC_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":    "VALIDOC_S3_PRESIGN_EXPIRY",
		"log.level":            "VALIDOC_LOG_LEVEL",
		"log.format":           "VALIDOC_LOG_FORMAT",
		"cors.allowed_origins":              "VALIDOC_CORS_ALLOWED_ORIGINS",
		"queue.poll_interval_secs":          "VALIDOC_QUEUE_POLL_INTERVAL_SECS",
		"queue.max_retries":                 "VALIDOC_QUEUE_MAX_RETRIES",
		"queue.concurrency":                 "VALIDOC_QUEUE_CONCURRENCY",
		"advisor.primary.provider":          "VALIDOC_ADVISOR_PRIMARY_PROVIDER",
		"advisor.primary.api_key":           "VALIDOC_ADVISOR_PRIMARY_API_KEY",
		"advisor.primary.default_model":     "VALIDOC_ADVISOR_PRIMARY_DEFAULT_MODEL",
		"advisor.primary.timeout_secs":      "VALIDOC_ADVISOR_PRIMARY_TIMEOUT_SECS",
		"advisor.primary.static_response":   "VALIDOC_ADVISOR_PRIMARY_STATIC_RESPONSE",
		"advisor.secondary.provider":        "VALIDOC_ADVISOR_SECONDARY_PROVIDER",
		"advisor.secondary.api_key":         "VALIDOC_ADVISOR_SECONDARY_API_KEY",
		"advisor.secondary.default_model":   "VALIDOC_ADVISOR_SECONDARY_DEFAULT_MODEL",
		"advisor.secondary.timeout_secs":    "VALIDOC_ADVISOR_SECONDARY_TIMEOUT_SECS",
		"advisor.secondary.static_response": "VALIDOC_ADVISOR_SECONDARY_STATIC_RESPONSE",
		"extractor.base_url":                "VALIDOC_EXTRACTOR_BASE_URL",
		"extractor.api_key":                 "VALIDOC_EXTRACTOR_API_KEY",
		"extractor.cnh_model_id":            "VALIDOC_EXTRACTOR_CNH_MODEL_ID",
		"extractor.rg_model_id":             "VALIDOC_EXTRACTOR_RG_MODEL_ID",
		"extractor.poll_interval_secs":      "VALIDOC_EXTRACTOR_POLL_INTERVAL_SECS",
		"extractor.max_poll_attempts":       "VALIDOC_EXTRACTOR_MAX_POLL_ATTEMPTS",
		"extractor.timeout_secs":            "VALIDOC_EXTRACTOR_TIMEOUT_SECS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if VALIDOC_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("VALIDOC_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Advisor = AdvisorConfig{
		Primary: AdvisorProviderConfig{
			Provider:       v.GetString("advisor.primary.provider"),
			APIKey:         v.GetString("advisor.primary.api_key"),
			DefaultModel:   v.GetString("advisor.primary.default_model"),
			TimeoutSecs:    v.GetInt("advisor.primary.timeout_secs"),
			StaticResponse: v.GetString("advisor.primary.static_response"),
		},
		Secondary: AdvisorProviderConfig{
			Provider:       v.GetString("advisor.secondary.provider"),
			APIKey:         v.GetString("advisor.secondary.api_key"),
			DefaultModel:   v.GetString("advisor.secondary.default_model"),
			TimeoutSecs:    v.GetInt("advisor.secondary.timeout_secs"),
			StaticResponse: v.GetString("advisor.secondary.static_response"),
		},
	}

	cfg.Extractor = ExtractorConfig{
		BaseURL:          v.GetString("extractor.base_url"),
		APIKey:           v.GetString("extractor.api_key"),
		CNHModelID:       v.GetString("extractor.cnh_model_id"),
		RGModelID:        v.GetString("extractor.rg_model_id"),
		PollIntervalSecs: v.GetInt("extractor.poll_interval_secs"),
		MaxPollAttempts:  v.GetInt("extractor.max_poll_attempts"),
		TimeoutSecs:      v.GetInt("extractor.timeout_secs"),
	}

	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		MaxRetries:       v.GetInt("queue.max_retries"),
		Concurrency:      v.GetInt("queue.concurrency"),
	}

	return cfg, nil
}
