package zakat

import (
	"context"

	"github.com/google/uuid"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
)

// DefaultHistoryLimit caps owner history listings
const DefaultHistoryLimit = 20

// HistoryService reads back recorded calculations
type HistoryService struct {
	repo zakat.CalculationRepository
}

// NewHistoryService creates a history reader
func NewHistoryService(repo zakat.CalculationRepository) *HistoryService {
	return &HistoryService{repo: repo}
}

// Get returns one recorded calculation
func (s *HistoryService) Get(ctx context.Context, id uuid.UUID) (*zakat.ZakatCalculation, error) {
	return s.repo.FindByID(ctx, id)
}

// ListByOwner returns an owner's most recent calculations, newest first
func (s *HistoryService) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]zakat.ZakatCalculation, error) {
	if limit <= 0 || limit > 100 {
		limit = DefaultHistoryLimit
	}
	return s.repo.FindByOwner(ctx, ownerID, limit)
}
