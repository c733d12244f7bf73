package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Zakat     ZakatConfig
	Metals    MetalsConfig
	Currency  CurrencyConfig
	Calendar  CalendarConfig
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
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file path
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// ZakatConfig holds calculation engine settings
type ZakatConfig struct {
	BaseCurrency        string
	DefaultMethodology  string
	DefaultCalendar     string
	NisabCacheTTL       time.Duration
	IncludeAlternatives bool
	RecordCalculations  bool
}

// MetalsConfig holds the metal price fallback chain settings
type MetalsConfig struct {
	ScrapeURL         string
	ScrapeCurrency    string
	APIURL            string
	APIKey            string
	RequestTimeout    time.Duration
	StaleTTL          time.Duration
	ManualGoldPrice   float64 // per gram, 0 = unset
	ManualSilverPrice float64
	ManualCurrency    string
	StaticGoldPrice   float64
	StaticSilverPrice float64
	RefreshEnabled    bool
	RefreshInterval   time.Duration
	RefreshCurrencies []string
}

// CurrencyConfig holds exchange-rate source settings
type CurrencyConfig struct {
	APIURL         string
	APIKey         string
	RequestTimeout time.Duration
	CacheTTL       time.Duration
	StaticRates    map[string]string // units per 1 USD
}

// CalendarConfig holds calendar collaborator settings
type CalendarConfig struct {
	LunarAdjustmentFactor float64
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	MetricsEnabled    bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	DBSlowQueryThresh time.Duration

	// OTLP log export, teed next to the local log output
	LogsEnabled bool
	LogsLevel   string

	// Continuous profiling through pyroscope
	ProfilingEnabled       bool
	ProfilingServerAddress string
	ProfilingBasicAuthUser string
	ProfilingBasicAuthPass string
	ProfileTypes           []string
	SpanProfilesEnabled    bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with ZAKAT_ prefix (e.g., ZAKAT_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

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

	v.SetEnvPrefix("ZAKAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Zakat: ZakatConfig{
			BaseCurrency:        v.GetString("zakat.base_currency"),
			DefaultMethodology:  v.GetString("zakat.default_methodology"),
			DefaultCalendar:     v.GetString("zakat.default_calendar"),
			NisabCacheTTL:       v.GetDuration("zakat.nisab_cache_ttl"),
			IncludeAlternatives: v.GetBool("zakat.include_alternatives"),
			RecordCalculations:  v.GetBool("zakat.record_calculations"),
		},
		Metals: MetalsConfig{
			ScrapeURL:         v.GetString("metals.scrape_url"),
			ScrapeCurrency:    v.GetString("metals.scrape_currency"),
			APIURL:            v.GetString("metals.api_url"),
			APIKey:            v.GetString("metals.api_key"),
			RequestTimeout:    v.GetDuration("metals.request_timeout"),
			StaleTTL:          v.GetDuration("metals.stale_ttl"),
			ManualGoldPrice:   v.GetFloat64("metals.manual_gold_price"),
			ManualSilverPrice: v.GetFloat64("metals.manual_silver_price"),
			ManualCurrency:    v.GetString("metals.manual_currency"),
			StaticGoldPrice:   v.GetFloat64("metals.static_gold_price"),
			StaticSilverPrice: v.GetFloat64("metals.static_silver_price"),
			RefreshEnabled:    v.GetBool("metals.refresh_enabled"),
			RefreshInterval:   v.GetDuration("metals.refresh_interval"),
			RefreshCurrencies: v.GetStringSlice("metals.refresh_currencies"),
		},
		Currency: CurrencyConfig{
			APIURL:         v.GetString("currency.api_url"),
			APIKey:         v.GetString("currency.api_key"),
			RequestTimeout: v.GetDuration("currency.request_timeout"),
			CacheTTL:       v.GetDuration("currency.cache_ttl"),
			StaticRates:    v.GetStringMapString("currency.static_rates"),
		},
		Calendar: CalendarConfig{
			LunarAdjustmentFactor: v.GetFloat64("calendar.lunar_adjustment_factor"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),

			LogsEnabled: v.GetBool("telemetry.logs_enabled"),
			LogsLevel:   v.GetString("telemetry.logs_level"),

			ProfilingEnabled:       v.GetBool("telemetry.profiling_enabled"),
			ProfilingServerAddress: v.GetString("telemetry.profiling_server_address"),
			ProfilingBasicAuthUser: v.GetString("telemetry.profiling_basic_auth_user"),
			ProfilingBasicAuthPass: v.GetString("telemetry.profiling_basic_auth_password"),
			ProfileTypes:           v.GetStringSlice("telemetry.profile_types"),
			SpanProfilesEnabled:    v.GetBool("telemetry.span_profiles_enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "zakat-engine"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
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
		cfg.Database.DBName = "zakat"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "zakat.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
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
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}
	// Empty CORS origins means no cross-origin access until configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if cfg.Zakat.BaseCurrency == "" {
		cfg.Zakat.BaseCurrency = "USD"
	}
	cfg.Zakat.BaseCurrency = strings.ToUpper(cfg.Zakat.BaseCurrency)
	if cfg.Zakat.DefaultMethodology == "" {
		cfg.Zakat.DefaultMethodology = "standard"
	}
	if cfg.Zakat.DefaultCalendar == "" {
		cfg.Zakat.DefaultCalendar = "lunar"
	}
	if cfg.Zakat.NisabCacheTTL == 0 {
		cfg.Zakat.NisabCacheTTL = 5 * time.Minute
	}
	if cfg.Metals.ScrapeCurrency == "" {
		cfg.Metals.ScrapeCurrency = "USD"
	}
	if cfg.Metals.RequestTimeout == 0 {
		cfg.Metals.RequestTimeout = 3 * time.Second
	}
	if cfg.Metals.StaleTTL == 0 {
		cfg.Metals.StaleTTL = 7 * 24 * time.Hour
	}
	if cfg.Metals.ManualCurrency == "" {
		cfg.Metals.ManualCurrency = "USD"
	}
	if cfg.Metals.StaticGoldPrice == 0 {
		cfg.Metals.StaticGoldPrice = 65.00
	}
	if cfg.Metals.StaticSilverPrice == 0 {
		cfg.Metals.StaticSilverPrice = 0.80
	}
	if cfg.Metals.RefreshInterval == 0 {
		cfg.Metals.RefreshInterval = 30 * time.Minute
	}
	if len(cfg.Metals.RefreshCurrencies) == 0 {
		cfg.Metals.RefreshCurrencies = []string{cfg.Zakat.BaseCurrency}
	}
	if cfg.Currency.CacheTTL == 0 {
		cfg.Currency.CacheTTL = time.Hour
	}
	if cfg.Currency.RequestTimeout == 0 {
		cfg.Currency.RequestTimeout = 2 * time.Second
	}
	if cfg.Calendar.LunarAdjustmentFactor == 0 {
		cfg.Calendar.LunarAdjustmentFactor = 0.9704
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "zakat-engine"
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.LogsLevel == "" {
		cfg.Telemetry.LogsLevel = "warn"
	}
	if cfg.Telemetry.ProfilingServerAddress == "" {
		cfg.Telemetry.ProfilingServerAddress = "http://localhost:4040"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
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

	if c.Zakat.NisabCacheTTL < 0 {
		return fmt.Errorf("zakat.nisab_cache_ttl cannot be negative")
	}
	switch c.Zakat.DefaultCalendar {
	case "lunar", "solar":
	default:
		return fmt.Errorf("zakat.default_calendar must be lunar or solar, got %q", c.Zakat.DefaultCalendar)
	}
	if c.Calendar.LunarAdjustmentFactor <= 0 || c.Calendar.LunarAdjustmentFactor > 1 {
		return fmt.Errorf("calendar.lunar_adjustment_factor must be in (0, 1], got %f", c.Calendar.LunarAdjustmentFactor)
	}
	if c.Metals.StaticGoldPrice <= 0 || c.Metals.StaticSilverPrice <= 0 {
		return fmt.Errorf("metals.static_gold_price and metals.static_silver_price must be positive")
	}
	if c.Metals.ManualGoldPrice < 0 || c.Metals.ManualSilverPrice < 0 {
		return fmt.Errorf("metals manual prices cannot be negative")
	}

	if c.App.Env == "production" {
		if c.Database.Driver == "postgres" {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Telemetry.SpanProfilesEnabled && !(c.Telemetry.Enabled && c.Telemetry.ProfilingEnabled) {
		return fmt.Errorf("telemetry.span_profiles_enabled requires telemetry.enabled and telemetry.profiling_enabled")
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis host:port address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
