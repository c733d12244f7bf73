package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
	"github.com/slimatic/zakapp-sub001/internal/infrastructure/persistence/models"
)

// GormAssetRepository implements zakat.AssetSource using GORM
type GormAssetRepository struct {
	db *gorm.DB
}

// NewGormAssetRepository creates a new GormAssetRepository
func NewGormAssetRepository(db *gorm.DB) *GormAssetRepository {
	return &GormAssetRepository{db: db}
}

// LoadAssets returns the owner's assets, optionally restricted to assetIDs.
// Unknown ids are ignored; an owner without assets yields an empty slice.
func (r *GormAssetRepository) LoadAssets(ctx context.Context, ownerID uuid.UUID, assetIDs []uuid.UUID) ([]zakat.Asset, error) {
	query := r.db.WithContext(ctx).Model(&models.AssetModel{}).Where("owner_id = ?", ownerID)
	if len(assetIDs) > 0 {
		query = query.Where("id IN ?", assetIDs)
	}

	var rows []models.AssetModel
	if err := query.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load assets for owner %s: %w", ownerID, err)
	}

	assets := make([]zakat.Asset, len(rows))
	for i := range rows {
		assets[i] = rows[i].ToDomain()
	}
	return assets, nil
}

// Save creates or updates an asset for ownerID. A nil id is replaced with a new one.
func (r *GormAssetRepository) Save(ctx context.Context, ownerID uuid.UUID, asset zakat.Asset) (uuid.UUID, error) {
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	model := models.AssetModelFromDomain(ownerID, asset)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return uuid.Nil, fmt.Errorf("failed to save asset %s: %w", asset.ID, err)
	}
	return asset.ID, nil
}

// Import saves assets for ownerID in one transaction. Every asset must pass
// validation; the first invalid one aborts the import.
func (r *GormAssetRepository) Import(ctx context.Context, ownerID uuid.UUID, assets []zakat.Asset) ([]uuid.UUID, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("import assets: owner id is required")
	}
	ids := make([]uuid.UUID, 0, len(assets))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &GormAssetRepository{db: tx}
		for i, a := range assets {
			if err := a.Validate(); err != nil {
				return fmt.Errorf("asset %d (%s): %w", i, a.Name, err)
			}
			id, err := txRepo.Save(ctx, ownerID, a)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
