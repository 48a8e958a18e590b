package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Eurostat  EurostatConfig
	Istat     IstatConfig
	CKAN      CKANConfig
	Fetch     FetchConfig
	Archive   ArchiveConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Scheduler SchedulerConfig
	Swagger   SwaggerConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	AdminDBName     string // database used to bootstrap DBName when missing
	SSLMode         string
	Pooler          bool // connection goes through pgbouncer (transaction pooling)
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	MigrationsPath  string
}

// EurostatConfig holds the Eurostat dissemination API endpoints
type EurostatConfig struct {
	TOCURL          string
	DataURL         string
	CodelistURL     string
	DatasetLinkBase string
	Schema          string
	TOCCacheFile    string
}

// IstatConfig holds the ISTAT SDMX endpoints and load options
type IstatConfig struct {
	BaseURL         string // structure queries (dataflow, datastructure, categoryscheme)
	DataBaseURL     string // data and codelist queries
	Agency          string
	Schema          string
	ExcludeFields   []string
	DetailBatchSize int
	DetailRetries   int
	DetailRetryWait time.Duration
}

// CKANConfig holds the MUR CKAN API location
type CKANConfig struct {
	BaseURL string
}

// FetchConfig holds outbound HTTP settings shared by every source
type FetchConfig struct {
	Timeout           time.Duration // connect, TLS, response headers and idle body reads
	MaxRetries        int
	BackoffBase       time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
	CacheEnabled      bool
	CacheTTL          time.Duration
}

// ArchiveConfig holds where downloaded raw files are kept
type ArchiveConfig struct {
	Driver       string // local or s3
	Dir          string
	Endpoint     string
	Bucket       string
	AccessKey    string
	SecretKey    string
	Region       string
	UsePathStyle bool
	Prefix       string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	Issuer                string
}

// AuthConfig holds the operator account allowed to trigger downloads
type AuthConfig struct {
	AdminUser         string
	AdminPasswordHash string // bcrypt
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// SchedulerConfig holds download worker pool and refresh trigger configuration
type SchedulerConfig struct {
	Enabled           bool
	Workers           int
	QueueSize         int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	RefreshEnabled    bool
	RefreshHour       int
	RefreshCheckEvery time.Duration
}

// SwaggerConfig holds the API documentation endpoint configuration
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool     // Require an operator token to read the docs
	AllowedIPs  []string // IP or CIDR whitelist (empty = allow all)
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsInterval   time.Duration
	// Database tracing options
	DBTraceEnabled bool // Enable database query tracing (otelgorm)
	DBLogFullSQL   bool // Log full SQL statements (dev only)
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with STATLOAD_ prefix (e.g., STATLOAD_DATABASE_PASSWORD),
// including the ones declared in a local .env file
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}
	return LoadFrom(viper.New())
}

// LoadFrom builds the configuration from an existing viper instance.
// Values already set on v take precedence over the config file.
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("STATLOAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			AdminDBName:     v.GetString("database.admin_dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Pooler:          v.GetBool("database.pooler"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			MigrationsPath:  v.GetString("database.migrations_path"),
		},
		Eurostat: EurostatConfig{
			TOCURL:          v.GetString("eurostat.toc_url"),
			DataURL:         v.GetString("eurostat.data_url"),
			CodelistURL:     v.GetString("eurostat.codelist_url"),
			DatasetLinkBase: v.GetString("eurostat.dataset_link_base"),
			Schema:          v.GetString("eurostat.schema"),
			TOCCacheFile:    v.GetString("eurostat.toc_cache_file"),
		},
		Istat: IstatConfig{
			BaseURL:         v.GetString("istat.base_url"),
			DataBaseURL:     v.GetString("istat.data_base_url"),
			Agency:          v.GetString("istat.agency"),
			Schema:          v.GetString("istat.schema"),
			ExcludeFields:   v.GetStringSlice("istat.exclude_fields"),
			DetailBatchSize: v.GetInt("istat.detail_batch_size"),
			DetailRetries:   v.GetInt("istat.detail_retries"),
			DetailRetryWait: v.GetDuration("istat.detail_retry_wait"),
		},
		CKAN: CKANConfig{
			BaseURL: v.GetString("ckan.base_url"),
		},
		Fetch: FetchConfig{
			Timeout:           v.GetDuration("fetch.timeout"),
			MaxRetries:        v.GetInt("fetch.max_retries"),
			BackoffBase:       v.GetDuration("fetch.backoff_base"),
			RequestsPerSecond: v.GetFloat64("fetch.requests_per_second"),
			Burst:             v.GetInt("fetch.burst"),
			UserAgent:         v.GetString("fetch.user_agent"),
			CacheEnabled:      v.GetBool("fetch.cache_enabled"),
			CacheTTL:          v.GetDuration("fetch.cache_ttl"),
		},
		Archive: ArchiveConfig{
			Driver:       v.GetString("archive.driver"),
			Dir:          v.GetString("archive.dir"),
			Endpoint:     v.GetString("archive.endpoint"),
			Bucket:       v.GetString("archive.bucket"),
			AccessKey:    v.GetString("archive.access_key"),
			SecretKey:    v.GetString("archive.secret_key"),
			Region:       v.GetString("archive.region"),
			UsePathStyle: v.GetBool("archive.use_path_style"),
			Prefix:       v.GetString("archive.prefix"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
			Issuer:                v.GetString("jwt.issuer"),
		},
		Auth: AuthConfig{
			AdminUser:         v.GetString("auth.admin_user"),
			AdminPasswordHash: v.GetString("auth.admin_password_hash"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Scheduler: SchedulerConfig{
			Enabled:           v.GetBool("scheduler.enabled"),
			Workers:           v.GetInt("scheduler.workers"),
			QueueSize:         v.GetInt("scheduler.queue_size"),
			JobTimeout:        v.GetDuration("scheduler.job_timeout"),
			RetryAttempts:     v.GetInt("scheduler.retry_attempts"),
			RetryDelay:        v.GetDuration("scheduler.retry_delay"),
			RefreshEnabled:    v.GetBool("scheduler.refresh_enabled"),
			RefreshHour:       v.GetInt("scheduler.refresh_hour"),
			RefreshCheckEvery: v.GetDuration("scheduler.refresh_check_every"),
		},
		Swagger: SwaggerConfig{
			Enabled:     v.GetBool("swagger.enabled"),
			RequireAuth: v.GetBool("swagger.require_auth"),
			AllowedIPs:  v.GetStringSlice("swagger.allowed_ips"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultExcludeFields are SDMX CSV columns that carry observation metadata
// rather than dimensions or values.
var DefaultExcludeFields = []string{
	"break", "conf_status", "obs_pre_break", "obs_status", "base_per",
	"unit_meas", "unit_mult", "metadata_en", "metadata_it",
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "statload"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "statistics"
	}
	if cfg.Database.AdminDBName == "" {
		cfg.Database.AdminDBName = "postgres"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.MigrationsPath == "" {
		cfg.Database.MigrationsPath = "migrations"
	}

	if cfg.Eurostat.TOCURL == "" {
		cfg.Eurostat.TOCURL = "https://ec.europa.eu/eurostat/api/dissemination/catalogue/toc/xml"
	}
	if cfg.Eurostat.DataURL == "" {
		cfg.Eurostat.DataURL = "https://ec.europa.eu/eurostat/api/dissemination/sdmx/2.1/data"
	}
	if cfg.Eurostat.CodelistURL == "" {
		cfg.Eurostat.CodelistURL = "https://ec.europa.eu/eurostat/api/dissemination/sdmx/2.1/codelist/ESTAT"
	}
	if cfg.Eurostat.DatasetLinkBase == "" {
		cfg.Eurostat.DatasetLinkBase = "https://ec.europa.eu/eurostat/dataset/"
	}
	if cfg.Eurostat.Schema == "" {
		cfg.Eurostat.Schema = "eurostat"
	}
	if cfg.Eurostat.TOCCacheFile == "" {
		cfg.Eurostat.TOCCacheFile = "toc.xml"
	}

	if cfg.Istat.BaseURL == "" {
		cfg.Istat.BaseURL = "https://esploradati.istat.it/SDMXWS/rest"
	}
	if cfg.Istat.DataBaseURL == "" {
		cfg.Istat.DataBaseURL = "https://sdmx.istat.it/SDMXWS/rest"
	}
	if cfg.Istat.Agency == "" {
		cfg.Istat.Agency = "IT1"
	}
	if cfg.Istat.Schema == "" {
		cfg.Istat.Schema = "istat"
	}
	if len(cfg.Istat.ExcludeFields) == 0 {
		cfg.Istat.ExcludeFields = append([]string(nil), DefaultExcludeFields...)
	}
	if cfg.Istat.DetailBatchSize == 0 {
		cfg.Istat.DetailBatchSize = 500
	}
	if cfg.Istat.DetailRetries == 0 {
		cfg.Istat.DetailRetries = 3
	}
	if cfg.Istat.DetailRetryWait == 0 {
		cfg.Istat.DetailRetryWait = 5 * time.Second
	}

	if cfg.CKAN.BaseURL == "" {
		cfg.CKAN.BaseURL = "https://dati-ustat.mur.gov.it/api/3/action"
	}

	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 30 * time.Second
	}
	if cfg.Fetch.MaxRetries == 0 {
		cfg.Fetch.MaxRetries = 3
	}
	if cfg.Fetch.BackoffBase == 0 {
		cfg.Fetch.BackoffBase = time.Second
	}
	if cfg.Fetch.RequestsPerSecond == 0 {
		cfg.Fetch.RequestsPerSecond = 5
	}
	if cfg.Fetch.Burst == 0 {
		cfg.Fetch.Burst = 1
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = "statload/1.0"
	}
	if cfg.Fetch.CacheTTL == 0 {
		cfg.Fetch.CacheTTL = 24 * time.Hour
	}

	if cfg.Archive.Driver == "" {
		cfg.Archive.Driver = "local"
	}
	if cfg.Archive.Dir == "" {
		cfg.Archive.Dir = "downloads"
	}
	if cfg.Archive.Region == "" {
		cfg.Archive.Region = "us-east-1"
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 2 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "statload"
	}
	if cfg.Auth.AdminUser == "" {
		cfg.Auth.AdminUser = "admin"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// An empty origin list means no cross-origin requests are allowed.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Scheduler.Workers == 0 {
		cfg.Scheduler.Workers = 2
	}
	if cfg.Scheduler.QueueSize == 0 {
		cfg.Scheduler.QueueSize = 100
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 30 * time.Minute
	}
	if cfg.Scheduler.RetryAttempts == 0 {
		cfg.Scheduler.RetryAttempts = 3
	}
	if cfg.Scheduler.RetryDelay == 0 {
		cfg.Scheduler.RetryDelay = time.Minute
	}
	if cfg.Scheduler.RefreshHour == 0 {
		cfg.Scheduler.RefreshHour = 3
	}
	if cfg.Scheduler.RefreshCheckEvery == 0 {
		cfg.Scheduler.RefreshCheckEvery = 10 * time.Minute
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "statload"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 30 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.App.Env {
	case "development", "test", "production":
	default:
		return fmt.Errorf("app.env must be one of development, test, production, got %q", c.App.Env)
	}

	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Fetch.MaxRetries < 1 {
		return fmt.Errorf("fetch.max_retries must be at least 1")
	}
	if c.Fetch.RequestsPerSecond < 0 {
		return fmt.Errorf("fetch.requests_per_second cannot be negative")
	}
	if c.Istat.DetailBatchSize < 1 {
		return fmt.Errorf("istat.detail_batch_size must be at least 1")
	}
	if c.Scheduler.RefreshHour < 0 || c.Scheduler.RefreshHour > 23 {
		return fmt.Errorf("scheduler.refresh_hour must be between 0 and 23")
	}

	switch c.Archive.Driver {
	case "local":
	case "s3":
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("archive.driver must be local or s3, got %q", c.Archive.Driver)
	}

	if c.App.Env == "production" {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
		if c.Swagger.Enabled && !c.Swagger.RequireAuth && len(c.Swagger.AllowedIPs) == 0 {
			return fmt.Errorf("swagger endpoint must be disabled, require authentication, or have IP restriction in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	return d.dsnFor(d.DBName)
}

// AdminDSN returns the connection string of the bootstrap database
func (d *DatabaseConfig) AdminDSN() string {
	return d.dsnFor(d.AdminDBName)
}

func (d *DatabaseConfig) dsnFor(dbName string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   dbName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
