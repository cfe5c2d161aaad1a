package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/wishbox-backend/internal/data/db"
	"github.com/yungbote/wishbox-backend/internal/observability"
	"github.com/yungbote/wishbox-backend/internal/platform/envutil"
	"github.com/yungbote/wishbox-backend/internal/platform/logger"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

type Config struct {
	Environment string
	Port        string
	LogMode     string

	DBDriver    string
	Postgres    db.PostgresConfig
	SQLitePath  string
	AutoMigrate bool

	BucketName          string
	ObjectStorageMode   string
	StorageEmulatorHost string
	PublicBaseURL       string
	GCPCredentials      string
	SignerEmail         string
	SignerPrivateKey    string

	UploadURLTTL     time.Duration
	ReadURLTTL       time.Duration
	DraftTTL         time.Duration
	SlugMaxAttempts  int
	SlugSuffixLength int
	MaxMemories      int

	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	SlugReservationTTL time.Duration

	SweepInterval      time.Duration
	CORSAllowedOrigins []string
	MetricsEnabled     bool
	ShutdownTimeout    time.Duration

	Otel observability.OtelConfig
}

// LoadConfig reads the environment. When CONFIG_FILE names a YAML file its
// top-level keys fill any variable the environment leaves unset.
func LoadConfig(log *logger.Logger) (Config, error) {
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		n, err := applyConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		if log != nil {
			log.Info("Config file applied", "path", path, "keys", n)
		}
	}

	env := envutil.String("APP_ENV", "development")
	cfg := Config{
		Environment: env,
		Port:        envutil.String("PORT", "8080"),
		LogMode:     envutil.String("LOG_MODE", "development"),

		DBDriver: strings.ToLower(envutil.String("DB_DRIVER", DBDriverPostgres)),
		Postgres: db.PostgresConfig{
			Host:     envutil.String("POSTGRES_HOST", "localhost"),
			Port:     envutil.String("POSTGRES_PORT", "5432"),
			User:     envutil.String("POSTGRES_USER", "postgres"),
			Password: envutil.String("POSTGRES_PASSWORD", ""),
			Name:     envutil.String("POSTGRES_NAME", "wishbox"),
			SSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
		},
		SQLitePath:  envutil.String("SQLITE_PATH", "wishbox.db"),
		AutoMigrate: envutil.Bool("AUTO_MIGRATE", true),

		BucketName:          envutil.String("WISH_GCS_BUCKET_NAME", ""),
		ObjectStorageMode:   envutil.String("OBJECT_STORAGE_MODE", ""),
		StorageEmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", ""),
		PublicBaseURL:       envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", ""),
		GCPCredentials:      envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", ""),
		SignerEmail:         envutil.String("GCS_SIGNER_EMAIL", ""),
		SignerPrivateKey:    envutil.String("GCS_SIGNER_PRIVATE_KEY", ""),

		UploadURLTTL:     envutil.Duration("UPLOAD_URL_TTL", 5*time.Minute),
		ReadURLTTL:       envutil.Duration("READ_URL_TTL", 15*time.Minute),
		DraftTTL:         envutil.Duration("DRAFT_TTL", 72*time.Hour),
		SlugMaxAttempts:  envutil.Int("SLUG_MAX_ATTEMPTS", 5),
		SlugSuffixLength: envutil.Int("SLUG_SUFFIX_LENGTH", 6),
		MaxMemories:      envutil.Int("MAX_MEMORIES", 4),

		RedisAddr:          envutil.String("REDIS_ADDR", ""),
		RedisPassword:      envutil.String("REDIS_PASSWORD", ""),
		RedisDB:            envutil.Int("REDIS_DB", 0),
		SlugReservationTTL: envutil.Duration("SLUG_RESERVATION_TTL", 30*time.Second),

		SweepInterval:      envutil.Duration("SWEEP_INTERVAL", 0),
		CORSAllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS", nil),
		MetricsEnabled:     envutil.Bool("METRICS_ENABLED", true),
		ShutdownTimeout:    envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),

		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "wishbox-backend"),
			Environment: env,
			Version:     envutil.String("APP_VERSION", "dev"),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: float64(envutil.Int("OTEL_SAMPLE_PERCENT", 100)) / 100,
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case DBDriverPostgres, DBDriverSQLite:
	default:
		return fmt.Errorf("invalid DB_DRIVER=%q (allowed: %q, %q)", c.DBDriver, DBDriverPostgres, DBDriverSQLite)
	}
	if c.UploadURLTTL <= 0 || c.UploadURLTTL > 7*24*time.Hour {
		return fmt.Errorf("UPLOAD_URL_TTL must be within (0, 168h], got %s", c.UploadURLTTL)
	}
	if c.ReadURLTTL <= 0 || c.ReadURLTTL > 7*24*time.Hour {
		return fmt.Errorf("READ_URL_TTL must be within (0, 168h], got %s", c.ReadURLTTL)
	}
	if c.DraftTTL <= 0 {
		return fmt.Errorf("DRAFT_TTL must be positive, got %s", c.DraftTTL)
	}
	if c.SlugMaxAttempts < 1 {
		return fmt.Errorf("SLUG_MAX_ATTEMPTS must be >= 1, got %d", c.SlugMaxAttempts)
	}
	if c.SlugSuffixLength < 4 {
		return fmt.Errorf("SLUG_SUFFIX_LENGTH must be >= 4, got %d", c.SlugSuffixLength)
	}
	if c.MaxMemories < 0 {
		return fmt.Errorf("MAX_MEMORIES must be >= 0, got %d", c.MaxMemories)
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be >= 0, got %s", c.SweepInterval)
	}
	return nil
}

// applyConfigFile exports the file's keys into the process environment
// without overriding variables that are already set.
func applyConfigFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read config file: %w", err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return 0, fmt.Errorf("parse config file %s: %w", path, err)
	}
	n := 0
	for key, v := range values {
		key = strings.ToUpper(strings.TrimSpace(key))
		if key == "" || v == nil {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, configValueString(v)); err != nil {
			return n, fmt.Errorf("export %s: %w", key, err)
		}
		n++
	}
	return n, nil
}

func configValueString(v any) string {
	switch t := v.(type) {
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}
