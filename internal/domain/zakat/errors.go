package zakat

import (
	"fmt"

	"github.com/slimatic/zakapp-sub001/internal/domain/shared"
)

// Engine errors surfaced to callers
var (
	ErrUnknownMethodology = shared.NewDomainError("UNKNOWN_METHODOLOGY", "Unknown zakat methodology")
	ErrNoValidAssets      = shared.NewDomainError("NO_VALID_ASSETS", "No valid assets supplied for calculation")
)

// CodeCalculationFailed is the error code of CalculationError
const CodeCalculationFailed = "CALCULATION_FAILED"

// Stage names a step of the calculation pipeline
type Stage string

const (
	StageResolveMethodology Stage = "resolve_methodology"
	StageResolveNisab       Stage = "resolve_nisab"
	StageLoadAssets         Stage = "load_assets"
	StageNormalizeCurrency  Stage = "normalize_currency"
	StageClassifyAssets     Stage = "classify_assets"
	StageAggregate          Stage = "aggregate"
	StageNisabGate          Stage = "nisab_gate"
	StageCalendarAdjustment Stage = "calendar_adjustment"
	StageFinalize           Stage = "finalize"
)

// CalculationError wraps any unexpected failure with the stage it happened in
type CalculationError struct {
	Stage Stage
	Err   error
}

// Error implements the error interface
func (e *CalculationError) Error() string {
	return fmt.Sprintf("zakat calculation failed at %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error
func (e *CalculationError) Unwrap() error {
	return e.Err
}

// Code returns the error code used by transport layers
func (e *CalculationError) Code() string {
	return CodeCalculationFailed
}

// NewCalculationError wraps err with its stage
func NewCalculationError(stage Stage, err error) *CalculationError {
	return &CalculationError{Stage: stage, Err: err}
}
