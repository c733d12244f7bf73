package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/slimatic/zakapp-sub001/internal/domain/shared"
	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/persistence/models"
)

// GormCalculationRepository implements zakat.CalculationRepository using GORM
type GormCalculationRepository struct {
	db *gorm.DB
}

// NewGormCalculationRepository creates a new GormCalculationRepository
func NewGormCalculationRepository(db *gorm.DB) *GormCalculationRepository {
	return &GormCalculationRepository{db: db}
}

// Save records a finished calculation. Calculations are immutable, so a
// duplicate id is an error.
func (r *GormCalculationRepository) Save(ctx context.Context, calc *zakat.ZakatCalculation) error {
	model, err := models.CalculationModelFromDomain(calc)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save calculation %s: %w", calc.ID, err)
	}
	return nil
}

// FindByID finds a calculation by its ID
func (r *GormCalculationRepository) FindByID(ctx context.Context, id uuid.UUID) (*zakat.ZakatCalculation, error) {
	var model models.CalculationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Zakat calculation not found")
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByOwner returns the owner's most recent calculations, newest first
func (r *GormCalculationRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]zakat.ZakatCalculation, error) {
	var rows []models.CalculationModel
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("calculation_date DESC").
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list calculations for owner %s: %w", ownerID, err)
	}

	out := make([]zakat.ZakatCalculation, 0, len(rows))
	for i := range rows {
		calc, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *calc)
	}
	return out, nil
}
