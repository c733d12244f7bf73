package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "zakat-engine", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "zakat", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, "USD", cfg.Zakat.BaseCurrency)
		assert.Equal(t, "standard", cfg.Zakat.DefaultMethodology)
		assert.Equal(t, "lunar", cfg.Zakat.DefaultCalendar)
		assert.Equal(t, 5*time.Minute, cfg.Zakat.NisabCacheTTL)
		assert.InDelta(t, 0.9704, cfg.Calendar.LunarAdjustmentFactor, 1e-9)
		assert.Equal(t, 3*time.Second, cfg.Metals.RequestTimeout)
		assert.Equal(t, []string{"USD"}, cfg.Metals.RefreshCurrencies)
		assert.False(t, cfg.Redis.Enabled)
	})

	t.Run("loads values from environment variables with ZAKAT prefix", func(t *testing.T) {
		t.Setenv("ZAKAT_APP_PORT", "9000")
		t.Setenv("ZAKAT_DATABASE_DRIVER", "sqlite")
		t.Setenv("ZAKAT_DATABASE_PATH", "/tmp/zakat-test.db")
		t.Setenv("ZAKAT_ZAKAT_BASE_CURRENCY", "eur")
		t.Setenv("ZAKAT_ZAKAT_NISAB_CACHE_TTL", "90s")
		t.Setenv("ZAKAT_METALS_MANUAL_GOLD_PRICE", "71.25")
		t.Setenv("ZAKAT_CALENDAR_LUNAR_ADJUSTMENT_FACTOR", "0.97")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "/tmp/zakat-test.db", cfg.Database.DSN())
		assert.Equal(t, "EUR", cfg.Zakat.BaseCurrency)
		assert.Equal(t, 90*time.Second, cfg.Zakat.NisabCacheTTL)
		assert.InDelta(t, 71.25, cfg.Metals.ManualGoldPrice, 1e-9)
		assert.InDelta(t, 0.97, cfg.Calendar.LunarAdjustmentFactor, 1e-9)
		assert.Equal(t, []string{"EUR"}, cfg.Metals.RefreshCurrencies)
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		t.Setenv("ZAKAT_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("ZAKAT_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("ZAKAT_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects lunar factor above one", func(t *testing.T) {
		t.Setenv("ZAKAT_CALENDAR_LUNAR_ADJUSTMENT_FACTOR", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lunar_adjustment_factor")
	})

	t.Run("rejects unknown default calendar", func(t *testing.T) {
		t.Setenv("ZAKAT_ZAKAT_DEFAULT_CALENDAR", "julian")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "default_calendar")
	})

	t.Run("loads profiling and log export settings", func(t *testing.T) {
		t.Setenv("ZAKAT_TELEMETRY_ENABLED", "true")
		t.Setenv("ZAKAT_TELEMETRY_PROFILING_ENABLED", "true")
		t.Setenv("ZAKAT_TELEMETRY_PROFILE_TYPES", "cpu goroutines")
		t.Setenv("ZAKAT_TELEMETRY_SPAN_PROFILES_ENABLED", "true")
		t.Setenv("ZAKAT_TELEMETRY_LOGS_ENABLED", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.True(t, cfg.Telemetry.ProfilingEnabled)
		assert.Equal(t, "http://localhost:4040", cfg.Telemetry.ProfilingServerAddress)
		assert.Equal(t, []string{"cpu", "goroutines"}, cfg.Telemetry.ProfileTypes)
		assert.True(t, cfg.Telemetry.SpanProfilesEnabled)
		assert.True(t, cfg.Telemetry.LogsEnabled)
		assert.Equal(t, "warn", cfg.Telemetry.LogsLevel)
	})

	t.Run("rejects span profiles without a profiler", func(t *testing.T) {
		t.Setenv("ZAKAT_TELEMETRY_ENABLED", "true")
		t.Setenv("ZAKAT_TELEMETRY_SPAN_PROFILES_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "span_profiles_enabled")
	})

	t.Run("rejects negative manual price", func(t *testing.T) {
		t.Setenv("ZAKAT_METALS_MANUAL_SILVER_PRICE", "-1")

		_, err := Load()
		require.Error(t, err)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("ZAKAT_APP_ENV", "production")
		t.Setenv("ZAKAT_DATABASE_PASSWORD", "secure-password")
		t.Setenv("ZAKAT_DATABASE_SSLMODE", "require")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		t.Setenv("ZAKAT_APP_ENV", "production")
		t.Setenv("ZAKAT_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("ZAKAT_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects full SQL logging in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("ZAKAT_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid postgres DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: "postgres", Host: "localhost", Port: 5432, User: "user", Password: "pass@word#123", DBName: "db", SSLMode: "disable"}
		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})

	t.Run("sqlite uses file path", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: "sqlite", Path: "zakat.db"}
		assert.Equal(t, "zakat.db", cfg.DSN())
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.Addr())
}
