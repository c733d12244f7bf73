package zakat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/telemetry"
)

// CalculationRequest is the input of a single calculation.
// Inline Assets win over OwnerID/AssetIDs.
type CalculationRequest struct {
	Methodology         string
	CalendarType        zakat.CalendarType
	CalculationDate     time.Time
	Assets              []zakat.Asset
	OwnerID             uuid.UUID
	AssetIDs            []uuid.UUID
	CustomNisab         *decimal.Decimal
	IncludeAlternatives bool
}

// CalculationResponse is the result plus its descriptive report
type CalculationResponse struct {
	Result       *zakat.ZakatCalculation        `json:"result"`
	Methodology  zakat.Methodology              `json:"methodology"`
	Breakdown    CalculationBreakdown           `json:"breakdown"`
	Assumptions  []string                       `json:"assumptions"`
	Sources      []string                       `json:"sources"`
	Alternatives []zakat.AlternativeCalculation `json:"alternatives"`
}

// PreparedAssets is the validated, normalized asset snapshot shared by every
// methodology evaluated for one request.
type PreparedAssets struct {
	Assets    []zakat.Asset
	Rejected  []zakat.RejectedAsset
	Converted []string
	Date      time.Time
	Period    zakat.CalendarPeriod
}

// CalculationOption configures a CalculationService
type CalculationOption func(*CalculationService)

// WithAssetSource loads assets by owner when a request carries none inline
func WithAssetSource(src zakat.AssetSource) CalculationOption {
	return func(s *CalculationService) { s.assets = src }
}

// WithRecorder persists every successful primary calculation
func WithRecorder(r zakat.CalculationRecorder) CalculationOption {
	return func(s *CalculationService) { s.recorder = r }
}

// WithCalculationLogger sets the logger
func WithCalculationLogger(logger *zap.Logger) CalculationOption {
	return func(s *CalculationService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCalculationMetrics sets the metrics sink
func WithCalculationMetrics(m Metrics) CalculationOption {
	return func(s *CalculationService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithCalculationClock replaces time.Now
func WithCalculationClock(now func() time.Time) CalculationOption {
	return func(s *CalculationService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces uuid.New for result ids
func WithIDGenerator(gen func() uuid.UUID) CalculationOption {
	return func(s *CalculationService) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithDefaultCalendar sets the calendar used when a request names none
func WithDefaultCalendar(ct zakat.CalendarType) CalculationOption {
	return func(s *CalculationService) {
		if ct.IsValid() {
			s.defaultCalendar = ct
		}
	}
}

// CalculationService runs the zakat pipeline:
// methodology, nisab, assets, currency, classification, aggregation,
// nisab gate, calendar adjustment, finalize.
type CalculationService struct {
	catalog    *MethodologyCatalog
	nisab      *NisabResolver
	normalizer *CurrencyNormalizer
	classifier *zakat.AssetClassifier
	calendar   *CalendarAdjuster

	assets          zakat.AssetSource
	recorder        zakat.CalculationRecorder
	logger          *zap.Logger
	metrics         Metrics
	now             func() time.Time
	newID           func() uuid.UUID
	defaultCalendar zakat.CalendarType

	comparison *ComparisonService
}

// NewCalculationService wires the pipeline stages together
func NewCalculationService(
	catalog *MethodologyCatalog,
	nisab *NisabResolver,
	normalizer *CurrencyNormalizer,
	classifier *zakat.AssetClassifier,
	calendar *CalendarAdjuster,
	opts ...CalculationOption,
) *CalculationService {
	s := &CalculationService{
		catalog:         catalog,
		nisab:           nisab,
		normalizer:      normalizer,
		classifier:      classifier,
		calendar:        calendar,
		logger:          zap.NewNop(),
		metrics:         noopMetrics{},
		now:             time.Now,
		newID:           uuid.New,
		defaultCalendar: zakat.CalendarLunar,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.comparison = &ComparisonService{calc: s}
	return s
}

// Comparison returns the comparison engine bound to this pipeline
func (s *CalculationService) Comparison() *ComparisonService {
	return s.comparison
}

// Catalog returns the methodology catalog
func (s *CalculationService) Catalog() *MethodologyCatalog {
	return s.catalog
}

// BaseCurrency returns the currency results are expressed in
func (s *CalculationService) BaseCurrency() string {
	return s.normalizer.BaseCurrency()
}

// Threshold resolves the nisab for a methodology id in currency (base currency when empty)
func (s *CalculationService) Threshold(ctx context.Context, methodologyID, currency string) (zakat.NisabInfo, error) {
	m, err := s.catalog.Resolve(methodologyID)
	if err != nil {
		return zakat.NisabInfo{}, err
	}
	if currency == "" {
		currency = s.BaseCurrency()
	}
	return s.nisab.Threshold(ctx, m, currency, nil)
}

// Calculate runs the full pipeline for req. On failure nothing partial is returned.
func (s *CalculationService) Calculate(ctx context.Context, req CalculationRequest) (resp *CalculationResponse, err error) {
	start := s.now()
	ctx, span := telemetry.StartServiceSpan(ctx, "CalculationService", "Calculate",
		telemetry.SpanAttrMethodology, req.Methodology,
		telemetry.SpanAttrCalendarType, string(req.CalendarType),
	)
	defer span.End()
	defer func() {
		outcome := telemetry.OutcomeSuccess
		if err != nil {
			outcome = telemetry.OutcomeFailure
			telemetry.RecordError(span, err)
		}
		s.metrics.RecordCalculation(ctx, req.Methodology, outcome, s.now().Sub(start))
	}()

	m, err := runStage(zakat.StageResolveMethodology, func() (zakat.Methodology, error) {
		return s.catalog.Resolve(req.Methodology)
	})
	if err != nil {
		return nil, err
	}

	nisab, err := s.resolveNisab(ctx, m, req.CustomNisab)
	if err != nil {
		return nil, err
	}

	prepared, err := s.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	calc, err := s.compute(ctx, m, nisab, prepared, req)
	if err != nil {
		return nil, err
	}

	resp, err = runStage(zakat.StageFinalize, func() (*CalculationResponse, error) {
		return &CalculationResponse{
			Result:       calc,
			Methodology:  m,
			Breakdown:    buildBreakdown(calc, prepared.Rejected),
			Assumptions:  buildAssumptions(m, calc),
			Sources:      buildSources(calc, prepared.Converted),
			Alternatives: []zakat.AlternativeCalculation{},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if req.IncludeAlternatives {
		resp.Alternatives = s.comparison.CompareAll(ctx, calc, prepared, req)
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrCalculationID, calc.ID.String(),
		telemetry.SpanAttrMeetsNisab, calc.MeetsNisab,
		telemetry.SpanAttrTotalDue, calc.Totals.TotalZakatDue.String(),
		telemetry.SpanAttrAssetCount, len(calc.Assets),
		telemetry.SpanAttrAlternatives, len(resp.Alternatives),
	)
	s.record(ctx, calc)

	s.logger.Info("Zakat calculated",
		zap.String("calculation_id", calc.ID.String()),
		zap.String("methodology", string(m.ID)),
		zap.String("status", string(calc.Status)),
		zap.String("total_due", calc.Totals.TotalZakatDue.String()),
		zap.Int("assets", len(calc.Assets)),
		zap.Int("rejected", len(prepared.Rejected)),
	)
	return resp, nil
}

// Prepare loads, validates and normalizes the request's assets and resolves
// its calendar period. The result is reused across methodologies.
func (s *CalculationService) Prepare(ctx context.Context, req CalculationRequest) (*PreparedAssets, error) {
	valid, err := runStage(zakat.StageLoadAssets, func() ([]zakat.Asset, error) {
		return s.loadAssets(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	prepared := &PreparedAssets{Date: req.CalculationDate}
	if prepared.Date.IsZero() {
		prepared.Date = s.now()
	}

	valid, prepared.Rejected = zakat.FilterValidAssets(valid)
	for _, r := range prepared.Rejected {
		s.logger.Warn("Asset rejected",
			zap.String("asset_id", r.AssetID.String()),
			zap.String("name", r.Name),
			zap.Error(r.Reason),
		)
	}
	if len(valid) == 0 {
		return nil, zakat.ErrNoValidAssets
	}

	prepared.Assets, err = runStage(zakat.StageNormalizeCurrency, func() ([]zakat.Asset, error) {
		prepared.Converted = foreignCurrencies(valid, s.normalizer.BaseCurrency())
		return s.normalizer.Normalize(ctx, valid), nil
	})
	if err != nil {
		return nil, err
	}

	calendarType := req.CalendarType
	if calendarType == "" {
		calendarType = s.defaultCalendar
	}
	prepared.Period, err = runStage(zakat.StageCalendarAdjustment, func() (zakat.CalendarPeriod, error) {
		return s.calendar.Resolve(ctx, prepared.Date, calendarType)
	})
	if err != nil {
		return nil, err
	}
	return prepared, nil
}

// Evaluate runs the pipeline from the nisab stage for m on an already prepared snapshot
func (s *CalculationService) Evaluate(ctx context.Context, m zakat.Methodology, prepared *PreparedAssets, req CalculationRequest) (*zakat.ZakatCalculation, error) {
	nisab, err := s.resolveNisab(ctx, m, req.CustomNisab)
	if err != nil {
		return nil, err
	}
	return s.compute(ctx, m, nisab, prepared, req)
}

func (s *CalculationService) loadAssets(ctx context.Context, req CalculationRequest) ([]zakat.Asset, error) {
	if len(req.Assets) > 0 {
		return req.Assets, nil
	}
	if s.assets == nil || req.OwnerID == uuid.Nil {
		return nil, zakat.ErrNoValidAssets
	}
	loaded, err := s.assets.LoadAssets(ctx, req.OwnerID, req.AssetIDs)
	if err != nil {
		return nil, fmt.Errorf("load assets for owner %s: %w", req.OwnerID, err)
	}
	return loaded, nil
}

func (s *CalculationService) resolveNisab(ctx context.Context, m zakat.Methodology, custom *decimal.Decimal) (zakat.NisabInfo, error) {
	return runStage(zakat.StageResolveNisab, func() (zakat.NisabInfo, error) {
		return s.nisab.Threshold(ctx, m, s.normalizer.BaseCurrency(), custom)
	})
}

func (s *CalculationService) compute(
	ctx context.Context,
	m zakat.Methodology,
	nisab zakat.NisabInfo,
	prepared *PreparedAssets,
	req CalculationRequest,
) (*zakat.ZakatCalculation, error) {
	lines, err := runStage(zakat.StageClassifyAssets, func() ([]zakat.AssetCalculation, error) {
		classified := s.classifier.Classify(ctx, prepared.Assets, m)
		out := make([]zakat.AssetCalculation, 0, len(classified))
		for _, a := range classified {
			out = append(out, s.classifier.Calculate(a, m))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	totals, err := runStage(zakat.StageAggregate, func() (zakat.Totals, error) {
		return zakat.Aggregate(lines), nil
	})
	if err != nil {
		return nil, err
	}

	type gated struct {
		lines  []zakat.AssetCalculation
		totals zakat.Totals
		meets  bool
	}
	g, err := runStage(zakat.StageNisabGate, func() (gated, error) {
		l, t, meets := zakat.ApplyNisabGate(lines, totals, nisab.EffectiveNisab)
		return gated{lines: l, totals: t, meets: meets}, nil
	})
	if err != nil {
		return nil, err
	}

	type adjusted struct {
		totals zakat.Totals
		period zakat.CalendarPeriod
	}
	adj, err := runStage(zakat.StageCalendarAdjustment, func() (adjusted, error) {
		t, p := s.calendar.Apply(g.totals, prepared.Period, g.meets)
		return adjusted{totals: t, period: p}, nil
	})
	if err != nil {
		return nil, err
	}

	return runStage(zakat.StageFinalize, func() (*zakat.ZakatCalculation, error) {
		now := s.now()
		return &zakat.ZakatCalculation{
			ID:              s.newID(),
			OwnerID:         req.OwnerID,
			CalculationDate: prepared.Date,
			CalendarType:    adj.period.CalendarType,
			Methodology:     m.Snapshot(),
			Currency:        s.normalizer.BaseCurrency(),
			Nisab:           nisab,
			Assets:          g.lines,
			Totals:          adj.totals,
			MeetsNisab:      g.meets,
			Status:          zakat.StatusFor(g.meets),
			Calendar:        adj.period,
			CreatedAt:       now,
		}, nil
	})
}

func (s *CalculationService) record(ctx context.Context, calc *zakat.ZakatCalculation) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Save(ctx, calc); err != nil {
		s.logger.Error("Failed to record calculation",
			zap.String("calculation_id", calc.ID.String()),
			zap.Error(err),
		)
	}
}

// runStage executes fn, converting panics and unexpected errors into a
// CalculationError tagged with stage. Engine sentinels pass through.
func runStage[T any](stage zakat.Stage, fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out = zero
			err = zakat.NewCalculationError(stage, fmt.Errorf("panic: %v", r))
		}
	}()

	out, err = fn()
	if err != nil && !isEngineError(err) {
		var zero T
		return zero, zakat.NewCalculationError(stage, err)
	}
	return out, err
}

func isEngineError(err error) bool {
	var calcErr *zakat.CalculationError
	return errors.Is(err, zakat.ErrUnknownMethodology) ||
		errors.Is(err, zakat.ErrNoValidAssets) ||
		errors.As(err, &calcErr)
}
