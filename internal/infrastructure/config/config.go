package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StorageDriverMinio = "minio"
	StorageDriverS3    = "s3"
)

type Config struct {
	Port        string        `env:"PORT,         default=8080"`
	Env         string        `env:"ENV,          default=production"`
	LogLevel    string        `env:"LOG_LEVEL,    default=info"`
	JWTSecret   string        `env:"JWT_SECRET,   required"`
	JWTTTL      time.Duration `env:"JWT_TTL,      default=24h"`
	FrontendURL string        `env:"FRONTEND_URL, default=http://localhost:3000"`

	// CORSAllowedOrigins defaults to FrontendURL when empty.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`

	CleanupWorkers int `env:"CLEANUP_WORKERS, default=4"`

	Mongo   MongoConfig
	Redis   RedisConfig
	Storage StorageConfig
	Google  GoogleConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=recipes"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// StorageConfig selects and configures the object store. Endpoint is
// host[:port] for the minio driver and a full URL for the s3 driver.
type StorageConfig struct {
	Driver        string `env:"STORAGE_DRIVER,          default=minio"`
	Endpoint      string `env:"STORAGE_ENDPOINT,        default=storage.googleapis.com"`
	AccessKey     string `env:"STORAGE_ACCESS_KEY"`
	SecretKey     string `env:"STORAGE_SECRET_KEY"`
	Bucket        string `env:"STORAGE_BUCKET,          default=recipe-images"`
	Region        string `env:"STORAGE_REGION,          default=auto"`
	UseSSL        bool   `env:"STORAGE_USE_SSL,         default=true"`
	PublicBaseURL string `env:"STORAGE_PUBLIC_BASE_URL, default=https://storage.googleapis.com"`
}

// GoogleConfig holds the OAuth client registration. Federated login is
// disabled when ClientID is empty.
type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	CallbackURL  string `env:"GOOGLE_CALLBACK_URL, default=http://localhost:8080/auth/google/callback"`
}

// Enabled reports whether Google sign-in is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}

	switch cfg.Storage.Driver {
	case StorageDriverMinio, StorageDriverS3:
	default:
		return nil, fmt.Errorf("config: unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{cfg.FrontendURL}
	}
	return &cfg, nil
}
