package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Storage     StorageConfig     `mapstructure:"storage"`
	OpenAI      OpenAIConfig      `mapstructure:"openai"`
	Image       ImageConfig       `mapstructure:"image"`
	Music       MusicConfig       `mapstructure:"music"`
	Generation  GenerationConfig  `mapstructure:"generation"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
}

type ServerConfig struct {
	Port          int        `mapstructure:"port"`
	Mode          string     `mapstructure:"mode"`
	PublicBaseURL string     `mapstructure:"public_base_url"`
	MaxUploadMB   int64      `mapstructure:"max_upload_mb"`
	CORS          CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres
	Path            string        `mapstructure:"path"`
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the connection string for the configured driver.
// For postgres a full URL wins over the individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		if c.URL != "" {
			return c.URL
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	}
	return c.Path
}

type StorageConfig struct {
	Type         string        `mapstructure:"type"` // s3, r2, s3compatible; empty = detect from endpoint
	Endpoint     string        `mapstructure:"endpoint"`
	Region       string        `mapstructure:"region"`
	AccessKey    string        `mapstructure:"access_key"`
	SecretKey    string        `mapstructure:"secret_key"`
	UseSSL       bool          `mapstructure:"use_ssl"`
	Bucket       string        `mapstructure:"bucket"`
	PublicURL    string        `mapstructure:"public_url"`
	SignedURLTTL time.Duration `mapstructure:"signed_url_ttl"`
	EnsureBucket bool          `mapstructure:"ensure_bucket"`
}

type OpenAIConfig struct {
	APIKey               string        `mapstructure:"api_key"`
	BaseURL              string        `mapstructure:"base_url"`
	TextModel            string        `mapstructure:"text_model"`
	VisionModel          string        `mapstructure:"vision_model"`
	ImageModel           string        `mapstructure:"image_model"`
	ImageSize            string        `mapstructure:"image_size"`
	DescriptionMaxTokens int           `mapstructure:"description_max_tokens"`
	Timeout              time.Duration `mapstructure:"timeout"`
}

type ImageConfig struct {
	Provider     string `mapstructure:"provider"` // openai, gemini
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model"`
}

type MusicConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type GenerationConfig struct {
	Workers      int           `mapstructure:"workers"`
	RateInterval time.Duration `mapstructure:"rate_interval"`
	RateBurst    int           `mapstructure:"rate_burst"`
	StyleSuffix  string        `mapstructure:"style_suffix"`
}

type IdempotencyConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Conventional env names for secrets and deployment knobs
	v.BindEnv("server.public_base_url", "PUBLIC_BASE_URL")
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("storage.region", "AWS_REGION")
	v.BindEnv("storage.access_key", "AWS_ACCESS_KEY_ID")
	v.BindEnv("storage.secret_key", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("storage.bucket", "S3_BUCKET_NAME")
	v.BindEnv("storage.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.public_url", "S3_PUBLIC_URL")
	v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	v.BindEnv("image.provider", "IMAGE_PROVIDER")
	v.BindEnv("image.gemini_api_key", "GEMINI_API_KEY")
	v.BindEnv("music.base_url", "SUNO_API_BASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.public_base_url", "http://localhost:8080")
	v.SetDefault("server.max_upload_mb", 200)
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/wishes.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.bucket", "wishpage")
	v.SetDefault("storage.signed_url_ttl", time.Hour)
	v.SetDefault("storage.ensure_bucket", false)

	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.text_model", "gpt-4o-mini")
	v.SetDefault("openai.vision_model", "gpt-4o-mini")
	v.SetDefault("openai.image_model", "dall-e-3")
	v.SetDefault("openai.image_size", "1024x1024")
	v.SetDefault("openai.description_max_tokens", 100)
	v.SetDefault("openai.timeout", 120*time.Second)

	v.SetDefault("image.provider", "openai")
	v.SetDefault("image.gemini_model", "imagen-4.0-generate-001")

	v.SetDefault("music.base_url", "http://localhost:3000")
	v.SetDefault("music.timeout", 5*time.Minute)
	v.SetDefault("music.poll_interval", 5*time.Second)

	v.SetDefault("generation.workers", 4)
	v.SetDefault("generation.rate_interval", 500*time.Millisecond)
	v.SetDefault("generation.rate_burst", 2)
	v.SetDefault("generation.style_suffix", "in a cute cartoon style, soft pastel colors, high quality illustration")

	v.SetDefault("idempotency.ttl", 30*time.Minute)
}

// Validate checks the settings every entrypoint depends on.
func (c *Config) Validate() error {
	var errs []error
	if c.Storage.Bucket == "" {
		errs = append(errs, errors.New("storage.bucket is required (S3_BUCKET_NAME)"))
	}
	if c.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("openai.api_key is required (OPENAI_API_KEY)"))
	}
	switch c.Image.Provider {
	case "openai":
	case "gemini":
		if c.Image.GeminiAPIKey == "" {
			errs = append(errs, errors.New("image.gemini_api_key is required when image.provider is gemini"))
		}
	default:
		errs = append(errs, fmt.Errorf("image.provider %q is not supported", c.Image.Provider))
	}
	if c.Music.BaseURL == "" {
		errs = append(errs, errors.New("music.base_url is required (SUNO_API_BASE_URL)"))
	}
	if c.Generation.Workers <= 0 {
		errs = append(errs, errors.New("generation.workers must be positive"))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	return errors.Join(errs...)
}
