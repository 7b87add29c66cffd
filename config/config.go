package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	// slim images ship without a zoneinfo database
	_ "time/tzdata"

	"github.com/spf13/viper"
)

const VERSION = "1.4"

// Data backends understood by DATA_BACKEND
const (
	BackendPostgres = "postgres"
	BackendREST     = "rest"
)

// Blob storage backends understood by STORAGE_BACKEND
const (
	StorageSupabase = "supabase"
	StorageS3       = "s3"
)

// Snapshot cache backends understood by CACHE_BACKEND
const (
	CacheMemory = "memory"
	CacheValkey = "valkey"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Backend     BackendConfig
	Storage     StorageConfig
	Cache       CacheConfig
	Dashboard   DashboardConfig
	Tracking    TrackingConfig
	CORS        CORSConfig
	Tracing     TracingConfig
	Environment string
	LogLevel    string
	Version     string
}

type ServerConfig struct {
	Port int
	Host string
	SSL  SSLConfig
	// PagesDir holds the static browser pages, served from "/" when set
	PagesDir string
}

type SSLConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// BackendConfig selects where rows live. "postgres" talks to DatabaseConfig
// directly, "rest" talks to a PostgREST endpoint (Supabase).
type BackendConfig struct {
	Kind        string
	SupabaseURL string
	SupabaseKey string
	Timeout     time.Duration
}

type StorageConfig struct {
	Kind          string
	ImagesBucket  string
	MaxImageBytes int64

	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3ForcePath     bool
	PublicBaseURL   string
	CacheControlSec int
}

type CacheConfig struct {
	Kind           string
	ValkeyAddress  string
	ValkeyPassword string
	ValkeyDB       int
	SnapshotTTL    time.Duration
	WorkersTTL     time.Duration
}

type DashboardConfig struct {
	RefreshSchedule string
	Locale          string
	Timezone        string
	StaleAfter      time.Duration
	TopContacts     int
	RecentContacts  int
}

type TrackingConfig struct {
	ContactClicksPerMinute int
	RegistrationsPerHour   int
	CookieSecure           bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type TracingConfig struct {
	Enabled             bool
	ServiceName         string
	SamplingProbability float64

	// "jaeger", "stackdriver", "zipkin", "datadog", "xray", "none"
	TraceExporter string

	JaegerEndpoint       string
	ZipkinEndpoint       string
	StackdriverProjectID string
	DatadogAgentAddress  string
	DatadogAPIKey        string
	XRayRegion           string
	AgentEndpoint        string

	// "prometheus", "stackdriver", "datadog", "none" or comma-separated list
	MetricsExporter string
	PrometheusPort  int
}

// LoadOptions contains options for loading configuration
type LoadOptions struct {
	EnvFile string // Optional environment file to load (e.g., ".env", ".env.test")
}

// Load loads the configuration with default options
func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{EnvFile: ".env"})
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "dalil")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("VERSION", VERSION)

	v.SetDefault("DATA_BACKEND", BackendPostgres)
	v.SetDefault("BACKEND_TIMEOUT", "15s")

	v.SetDefault("STORAGE_BACKEND", StorageS3)
	v.SetDefault("STORAGE_IMAGES_BUCKET", "users-images")
	v.SetDefault("STORAGE_MAX_IMAGE_BYTES", 5*1024*1024)
	v.SetDefault("STORAGE_S3_REGION", "us-east-1")
	v.SetDefault("STORAGE_CACHE_CONTROL_SECONDS", 3600)

	v.SetDefault("CACHE_BACKEND", CacheMemory)
	v.SetDefault("VALKEY_ADDRESS", "localhost:6379")
	v.SetDefault("VALKEY_DB", 0)
	v.SetDefault("CACHE_SNAPSHOT_TTL", "10m")
	v.SetDefault("CACHE_WORKERS_TTL", "30s")

	v.SetDefault("DASHBOARD_REFRESH_SCHEDULE", "@every 60s")
	v.SetDefault("DASHBOARD_LOCALE", "ar")
	v.SetDefault("DASHBOARD_TIMEZONE", "Africa/Cairo")
	v.SetDefault("DASHBOARD_STALE_AFTER", "5m")
	v.SetDefault("DASHBOARD_TOP_CONTACTS", 10)
	v.SetDefault("DASHBOARD_RECENT_CONTACTS", 20)

	v.SetDefault("TRACKING_CONTACT_CLICKS_PER_MINUTE", 30)
	v.SetDefault("TRACKING_REGISTRATIONS_PER_HOUR", 10)
	v.SetDefault("TRACKING_COOKIE_SECURE", true)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_SERVICE_NAME", "dalil-api")
	v.SetDefault("TRACING_SAMPLING_PROBABILITY", 0.1)
	v.SetDefault("TRACING_TRACE_EXPORTER", "none")
	v.SetDefault("TRACING_JAEGER_ENDPOINT", "http://localhost:14268/api/traces")
	v.SetDefault("TRACING_ZIPKIN_ENDPOINT", "http://localhost:9411/api/v2/spans")
	v.SetDefault("TRACING_STACKDRIVER_PROJECT_ID", "")
	v.SetDefault("TRACING_DATADOG_AGENT_ADDRESS", "localhost:8126")
	v.SetDefault("TRACING_DATADOG_API_KEY", "")
	v.SetDefault("TRACING_XRAY_REGION", "us-west-2")
	v.SetDefault("TRACING_AGENT_ENDPOINT", "localhost:8126")
	v.SetDefault("TRACING_METRICS_EXPORTER", "none")
	v.SetDefault("TRACING_PROMETHEUS_PORT", 9464)
}

// LoadWithOptions loads the configuration with the specified options
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if opts.EnvFile != "" {
		v.SetConfigName(opts.EnvFile)
		v.SetConfigType("env")

		currentPath, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("error getting current directory: %w", err)
		}

		v.AddConfigPath(currentPath)

		if err := v.ReadInConfig(); err != nil {
			// It's okay if config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetInt("SERVER_PORT"),
			Host:     v.GetString("SERVER_HOST"),
			PagesDir: v.GetString("SERVER_PAGES_DIR"),
			SSL: SSLConfig{
				Enabled:  v.GetBool("SSL_ENABLED"),
				CertFile: v.GetString("SSL_CERT_FILE"),
				KeyFile:  v.GetString("SSL_KEY_FILE"),
			},
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Backend: BackendConfig{
			Kind:        strings.ToLower(v.GetString("DATA_BACKEND")),
			SupabaseURL: strings.TrimRight(v.GetString("SUPABASE_URL"), "/"),
			SupabaseKey: v.GetString("SUPABASE_KEY"),
			Timeout:     v.GetDuration("BACKEND_TIMEOUT"),
		},
		Storage: StorageConfig{
			Kind:            strings.ToLower(v.GetString("STORAGE_BACKEND")),
			ImagesBucket:    v.GetString("STORAGE_IMAGES_BUCKET"),
			MaxImageBytes:   v.GetInt64("STORAGE_MAX_IMAGE_BYTES"),
			S3Region:        v.GetString("STORAGE_S3_REGION"),
			S3Endpoint:      v.GetString("STORAGE_S3_ENDPOINT"),
			S3AccessKey:     v.GetString("STORAGE_S3_ACCESS_KEY"),
			S3SecretKey:     v.GetString("STORAGE_S3_SECRET_KEY"),
			S3ForcePath:     v.GetBool("STORAGE_S3_FORCE_PATH_STYLE"),
			PublicBaseURL:   strings.TrimRight(v.GetString("STORAGE_PUBLIC_BASE_URL"), "/"),
			CacheControlSec: v.GetInt("STORAGE_CACHE_CONTROL_SECONDS"),
		},
		Cache: CacheConfig{
			Kind:           strings.ToLower(v.GetString("CACHE_BACKEND")),
			ValkeyAddress:  v.GetString("VALKEY_ADDRESS"),
			ValkeyPassword: v.GetString("VALKEY_PASSWORD"),
			ValkeyDB:       v.GetInt("VALKEY_DB"),
			SnapshotTTL:    v.GetDuration("CACHE_SNAPSHOT_TTL"),
			WorkersTTL:     v.GetDuration("CACHE_WORKERS_TTL"),
		},
		Dashboard: DashboardConfig{
			RefreshSchedule: v.GetString("DASHBOARD_REFRESH_SCHEDULE"),
			Locale:          v.GetString("DASHBOARD_LOCALE"),
			Timezone:        v.GetString("DASHBOARD_TIMEZONE"),
			StaleAfter:      v.GetDuration("DASHBOARD_STALE_AFTER"),
			TopContacts:     v.GetInt("DASHBOARD_TOP_CONTACTS"),
			RecentContacts:  v.GetInt("DASHBOARD_RECENT_CONTACTS"),
		},
		Tracking: TrackingConfig{
			ContactClicksPerMinute: v.GetInt("TRACKING_CONTACT_CLICKS_PER_MINUTE"),
			RegistrationsPerHour:   v.GetInt("TRACKING_REGISTRATIONS_PER_HOUR"),
			CookieSecure:           v.GetBool("TRACKING_COOKIE_SECURE"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Tracing: TracingConfig{
			Enabled:              v.GetBool("TRACING_ENABLED"),
			ServiceName:          v.GetString("TRACING_SERVICE_NAME"),
			SamplingProbability:  v.GetFloat64("TRACING_SAMPLING_PROBABILITY"),
			TraceExporter:        v.GetString("TRACING_TRACE_EXPORTER"),
			JaegerEndpoint:       v.GetString("TRACING_JAEGER_ENDPOINT"),
			ZipkinEndpoint:       v.GetString("TRACING_ZIPKIN_ENDPOINT"),
			StackdriverProjectID: v.GetString("TRACING_STACKDRIVER_PROJECT_ID"),
			DatadogAgentAddress:  v.GetString("TRACING_DATADOG_AGENT_ADDRESS"),
			DatadogAPIKey:        v.GetString("TRACING_DATADOG_API_KEY"),
			XRayRegion:           v.GetString("TRACING_XRAY_REGION"),
			AgentEndpoint:        v.GetString("TRACING_AGENT_ENDPOINT"),
			MetricsExporter:      v.GetString("TRACING_METRICS_EXPORTER"),
			PrometheusPort:       v.GetInt("TRACING_PROMETHEUS_PORT"),
		},
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Version:     v.GetString("VERSION"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects backend selections the application cannot wire
func (c *Config) Validate() error {
	switch c.Backend.Kind {
	case BackendPostgres:
	case BackendREST:
		if c.Backend.SupabaseURL == "" || c.Backend.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required when DATA_BACKEND=rest")
		}
	default:
		return fmt.Errorf("unsupported DATA_BACKEND: %q", c.Backend.Kind)
	}

	switch c.Storage.Kind {
	case StorageSupabase:
		if c.Backend.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required when STORAGE_BACKEND=supabase")
		}
	case StorageS3:
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND: %q", c.Storage.Kind)
	}

	switch c.Cache.Kind {
	case CacheMemory, CacheValkey:
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND: %q", c.Cache.Kind)
	}

	if c.Storage.ImagesBucket == "" {
		return fmt.Errorf("STORAGE_IMAGES_BUCKET must not be empty")
	}

	if c.Dashboard.Timezone != "" {
		if _, err := time.LoadLocation(c.Dashboard.Timezone); err != nil {
			return fmt.Errorf("invalid DASHBOARD_TIMEZONE %q: %w", c.Dashboard.Timezone, err)
		}
	}

	return nil
}

// Location resolves the dashboard timezone. Validate rejects unknown zones,
// so the UTC fallback only applies to configs built without it.
func (c *DashboardConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsDevelopment returns true if the environment is set to development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
