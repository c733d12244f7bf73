package zakat

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/slimatic/zakapp-sub001/internal/domain/shared"
	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/telemetry"
)

// ComparisonService evaluates one asset snapshot under several methodologies
type ComparisonService struct {
	calc *CalculationService
}

// CompareAll evaluates every catalog methodology other than the primary's.
// Custom is included only when the request carries a custom nisab.
// Alternatives that fail are logged and omitted.
func (c *ComparisonService) CompareAll(
	ctx context.Context,
	primary *zakat.ZakatCalculation,
	prepared *PreparedAssets,
	req CalculationRequest,
) []zakat.AlternativeCalculation {
	var candidates []zakat.Methodology
	for _, m := range c.calc.catalog.List() {
		if m.ID == primary.Methodology.ID {
			continue
		}
		if m.ID == zakat.MethodologyCustom && req.CustomNisab == nil {
			continue
		}
		candidates = append(candidates, m)
	}

	calcs := c.evaluateAll(ctx, candidates, prepared, req)
	out := make([]zakat.AlternativeCalculation, 0, len(calcs))
	for i, calc := range calcs {
		if calc == nil {
			continue
		}
		out = append(out, zakat.AlternativeCalculation{
			MethodologyID:   candidates[i].ID,
			MethodologyName: candidates[i].Name,
			Calculation:     calc,
			Difference:      zakat.Diff(primary, calc),
		})
	}
	return out
}

// CompareSelected evaluates the named methodologies on one snapshot.
// The first id is the reference every other entry is diffed against.
func (c *ComparisonService) CompareSelected(ctx context.Context, ids []string, req CalculationRequest) ([]zakat.MethodologyComparison, error) {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return nil, shared.ErrInvalidInput.WithMessage("At least one methodology is required")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "ComparisonService", "CompareSelected",
		telemetry.SpanAttrAlternatives, len(ids),
	)
	defer span.End()

	reference, err := c.calc.catalog.Resolve(ids[0])
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	prepared, err := c.calc.Prepare(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	refCalc, err := c.calc.Evaluate(ctx, reference, prepared, scopedRequest(req, reference))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var others []zakat.Methodology
	for _, id := range ids[1:] {
		m, err := c.calc.catalog.Resolve(id)
		if err != nil {
			c.drop(ctx, id, err)
			continue
		}
		others = append(others, m)
	}

	out := []zakat.MethodologyComparison{{
		MethodologyID:   reference.ID,
		MethodologyName: reference.Name,
		IsReference:     true,
		Calculation:     refCalc,
		Difference:      zakat.Diff(refCalc, refCalc),
	}}
	for i, calc := range c.evaluateAll(ctx, others, prepared, req) {
		if calc == nil {
			continue
		}
		out = append(out, zakat.MethodologyComparison{
			MethodologyID:   others[i].ID,
			MethodologyName: others[i].Name,
			Calculation:     calc,
			Difference:      zakat.Diff(refCalc, calc),
		})
	}
	return out, nil
}

// evaluateAll runs each methodology concurrently. Failed slots are nil.
func (c *ComparisonService) evaluateAll(
	ctx context.Context,
	methodologies []zakat.Methodology,
	prepared *PreparedAssets,
	req CalculationRequest,
) []*zakat.ZakatCalculation {
	results := make([]*zakat.ZakatCalculation, len(methodologies))
	var g errgroup.Group
	for i, m := range methodologies {
		g.Go(func() error {
			calc, err := c.calc.Evaluate(ctx, m, prepared, scopedRequest(req, m))
			if err != nil {
				c.drop(ctx, string(m.ID), err)
				return nil
			}
			results[i] = calc
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// scopedRequest limits a custom nisab to the custom methodology so that
// every other alternative is measured against its own metal basis.
func scopedRequest(req CalculationRequest, m zakat.Methodology) CalculationRequest {
	if m.ID != zakat.MethodologyCustom {
		req.CustomNisab = nil
	}
	return req
}

func (c *ComparisonService) drop(ctx context.Context, id string, err error) {
	c.calc.logger.Warn("Alternative methodology dropped",
		zap.String("methodology", id),
		zap.Error(err),
	)
	c.calc.metrics.RecordAlternativeDropped(ctx, id)
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		key := strings.ToLower(strings.TrimSpace(id))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
