package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appzakat "github.com/slimatic/zakapp-sub001/internal/application/zakat"
	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/cache"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/calendar"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/config"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/currency"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/logger"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/metals"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/persistence"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/scheduler"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/telemetry"
	"github.com/slimatic/zakapp-sub001/internal/interfaces/http/handler"
	"github.com/slimatic/zakapp-sub001/internal/interfaces/http/middleware"
	"github.com/slimatic/zakapp-sub001/internal/interfaces/http/router"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting zakat engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("base_currency", cfg.Zakat.BaseCurrency),
	)

	if err := run(cfg, log); err != nil {
		log.Fatal("Server terminated", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	// Telemetry
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	logLevel, err := zapcore.ParseLevel(cfg.Telemetry.LogsLevel)
	if err != nil {
		return fmt.Errorf("telemetry.logs_level: %w", err)
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		Level:             logLevel,
	}, log)
	if err != nil {
		return err
	}
	log = lp.Attach(log)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.ProfilingServerAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		BasicAuthUser:     cfg.Telemetry.ProfilingBasicAuthUser,
		BasicAuthPassword: cfg.Telemetry.ProfilingBasicAuthPass,
		ProfileTypes:      cfg.Telemetry.ProfileTypes,
	}, log)
	if err != nil {
		return err
	}
	if cfg.Telemetry.SpanProfilesEnabled {
		tp.EnableSpanProfiles()
	}
	defer shutdownTelemetry(tp, mp, lp, profiler, log)

	zakatMetrics, err := telemetry.NewZakatMetrics(mp.Meter("zakat.engine"))
	if err != nil {
		return err
	}

	// Caches
	caches, err := cache.NewFactory(ctx, cfg.Redis, cache.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() {
		if err := caches.Close(); err != nil {
			log.Warn("Failed to close cache", zap.Error(err))
		}
	}()

	// Exchange rates: live API, then the static table, cached in front
	rates, err := buildRateSource(cfg, caches, log)
	if err != nil {
		return err
	}

	// Metal prices: scrape, API, stale, manual, static
	prices := buildPriceSource(cfg, caches, rates, zakatMetrics, log)

	// Engine
	factor := decimal.NewFromFloat(cfg.Calendar.LunarAdjustmentFactor)
	nisab := appzakat.NewNisabResolver(prices,
		cache.NewNisabCache(cache.NewStore[zakat.NisabInfo](caches, "nisab"), log),
		appzakat.WithNisabTTL(cfg.Zakat.NisabCacheTTL),
		appzakat.WithNisabLogger(log),
		appzakat.WithNisabMetrics(zakatMetrics),
	)
	normalizer := appzakat.NewCurrencyNormalizer(rates, cfg.Zakat.BaseCurrency,
		appzakat.WithRateTimeout(cfg.Currency.RequestTimeout),
		appzakat.WithNormalizerLogger(log),
		appzakat.WithNormalizerMetrics(zakatMetrics),
	)
	adjuster := appzakat.NewCalendarAdjuster(calendar.NewHijriCalendar(factor), factor)

	// Persistence
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.GormLevel(cfg.Log.Level))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("Failed to close database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem:        cfg.Database.Driver,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		return err
	}
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			return err
		}
	}

	calculations := persistence.NewGormCalculationRepository(db.DB)
	opts := []appzakat.CalculationOption{
		appzakat.WithAssetSource(persistence.NewGormAssetRepository(db.DB)),
		appzakat.WithCalculationLogger(log),
		appzakat.WithCalculationMetrics(zakatMetrics),
		appzakat.WithDefaultCalendar(zakat.CalendarType(cfg.Zakat.DefaultCalendar)),
	}
	if cfg.Zakat.RecordCalculations {
		opts = append(opts, appzakat.WithRecorder(calculations))
	}
	calc := appzakat.NewCalculationService(
		appzakat.NewMethodologyCatalog(),
		nisab,
		normalizer,
		zakat.NewAssetClassifier(),
		adjuster,
		opts...,
	)

	// HTTP
	engine := router.NewEngine(router.EngineConfig{
		Logger:         log,
		ReleaseMode:    cfg.App.Env == "production",
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS: middleware.CORSConfig{
			AllowOrigins:  cfg.HTTP.CORSAllowOrigins,
			AllowMethods:  cfg.HTTP.CORSAllowMethods,
			AllowHeaders:  cfg.HTTP.CORSAllowHeaders,
			ExposeHeaders: []string{middleware.RequestIDHeader},
			MaxAge:        12 * time.Hour,
		},
		MaxBodySize: cfg.HTTP.MaxBodySize,
		Tracing:     middleware.TracingConfig{ServiceName: cfg.Telemetry.ServiceName, Enabled: tp.IsEnabled()},
		Metrics:     router.MetricsConfig(mp),
	})

	zakatHandler := handler.NewZakatHandler(calc,
		handler.WithHistory(appzakat.NewHistoryService(calculations)),
		handler.WithAlternativesByDefault(cfg.Zakat.IncludeAlternatives),
		handler.WithDefaultMethodology(cfg.Zakat.DefaultMethodology),
	)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version).
		AddCheck("database", db.Ping).
		AddCheck("cache", caches.Ping)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(router.ZakatRoutes(zakatHandler)).
		Register(router.SystemRoutes(systemHandler)).
		Setup()

	// Background price refresh
	refreshCfg := scheduler.DefaultPriceRefresherConfig()
	refreshCfg.Enabled = cfg.Metals.RefreshEnabled
	refreshCfg.Interval = cfg.Metals.RefreshInterval
	refreshCfg.Currencies = cfg.Metals.RefreshCurrencies
	refresher := scheduler.NewPriceRefresher(prices, log, refreshCfg)
	if err := refresher.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case sig := <-quit:
		log.Info("Shutting down server...", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := refresher.Stop(shutdownCtx); err != nil {
		log.Warn("Price refresher did not stop cleanly", zap.Error(err))
	}
	return srv.Shutdown(shutdownCtx)
}

func buildRateSource(cfg *config.Config, caches *cache.Factory, log *zap.Logger) (zakat.CurrencyRateSource, error) {
	static, err := currency.NewStaticRateSource("USD", cfg.Currency.StaticRates)
	if err != nil {
		return nil, err
	}
	var sources []zakat.CurrencyRateSource
	if cfg.Currency.APIURL != "" {
		client := &http.Client{Timeout: cfg.Currency.RequestTimeout}
		sources = append(sources, currency.NewHTTPRateSource(cfg.Currency.APIURL, cfg.Currency.APIKey, client))
	}
	sources = append(sources, static)

	store := cache.NewStore[decimal.Decimal](caches, "fx")
	return currency.NewChainRateSource(store, cfg.Currency.CacheTTL, log, sources...), nil
}

func buildPriceSource(
	cfg *config.Config,
	caches *cache.Factory,
	rates zakat.CurrencyRateSource,
	recorder metals.TierRecorder,
	log *zap.Logger,
) *metals.FallbackPriceSource {
	client := &http.Client{Timeout: cfg.Metals.RequestTimeout}

	var live []metals.LiveSource
	if cfg.Metals.ScrapeURL != "" {
		live = append(live, metals.NewScrapeSource(cfg.Metals.ScrapeURL, cfg.Metals.ScrapeCurrency, client,
			metals.WithPageTTL(cfg.Metals.RequestTimeout)))
	}
	if cfg.Metals.APIURL != "" {
		live = append(live, metals.NewAPISource(cfg.Metals.APIURL, cfg.Metals.APIKey, client))
	}

	opts := []metals.FallbackOption{
		metals.WithLiveSources(live...),
		metals.WithStaleStore(cache.NewPriceStore(cache.NewStore[zakat.PriceQuote](caches, "metal_price"), cfg.Metals.StaleTTL, log)),
		metals.WithStaticPrices(
			decimal.NewFromFloat(cfg.Metals.StaticGoldPrice),
			decimal.NewFromFloat(cfg.Metals.StaticSilverPrice),
			"USD",
		),
		metals.WithRateConverter(rates),
		metals.WithTierTimeout(cfg.Metals.RequestTimeout),
		metals.WithFallbackLogger(log),
		metals.WithTierRecorder(recorder),
	}
	if cfg.Metals.ManualGoldPrice > 0 && cfg.Metals.ManualSilverPrice > 0 {
		opts = append(opts, metals.WithManualPrices(
			decimal.NewFromFloat(cfg.Metals.ManualGoldPrice),
			decimal.NewFromFloat(cfg.Metals.ManualSilverPrice),
			cfg.Metals.ManualCurrency,
		))
	}
	return metals.NewFallbackPriceSource(opts...)
}

func shutdownTelemetry(tp *telemetry.TracerProvider, mp *telemetry.MeterProvider, lp *telemetry.LoggerProvider, profiler *telemetry.Profiler, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := profiler.Stop(); err != nil {
		log.Warn("Failed to stop profiler", zap.Error(err))
	}
	if err := mp.Shutdown(ctx); err != nil {
		log.Warn("Failed to shutdown meter provider", zap.Error(err))
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Warn("Failed to shutdown tracer provider", zap.Error(err))
	}
	if err := lp.Shutdown(ctx); err != nil {
		log.Warn("Failed to shutdown logger provider", zap.Error(err))
	}
}
