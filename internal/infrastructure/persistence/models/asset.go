package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
)

// AssetModel is a holding an owner declared ahead of calculation.
type AssetModel struct {
	ID            uuid.UUID           `gorm:"type:uuid;primary_key"`
	OwnerID       uuid.UUID           `gorm:"type:uuid;not null;index"`
	Name          string              `gorm:"type:varchar(200);not null"`
	Category      zakat.AssetCategory `gorm:"type:varchar(20);not null;index"`
	SubCategory   string              `gorm:"type:varchar(50)"`
	Value         decimal.Decimal     `gorm:"type:decimal(20,4);not null"`
	Currency      string              `gorm:"type:varchar(3);not null"`
	ZakatEligible bool                `gorm:"not null;default:true"`
	Description   string              `gorm:"type:text"`
	CreatedAt     time.Time           `gorm:"not null"`
	UpdatedAt     time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AssetModel) TableName() string {
	return "assets"
}

// ToDomain converts the persistence model to a zakat.Asset
func (m *AssetModel) ToDomain() zakat.Asset {
	return zakat.Asset{
		ID:            m.ID,
		Name:          m.Name,
		Category:      m.Category,
		SubCategory:   m.SubCategory,
		Value:         m.Value,
		Currency:      m.Currency,
		ZakatEligible: m.ZakatEligible,
		Description:   m.Description,
	}
}

// AssetModelFromDomain builds a persistence model for ownerID
func AssetModelFromDomain(ownerID uuid.UUID, a zakat.Asset) *AssetModel {
	return &AssetModel{
		ID:            a.ID,
		OwnerID:       ownerID,
		Name:          a.Name,
		Category:      a.Category,
		SubCategory:   a.SubCategory,
		Value:         a.Value,
		Currency:      a.Currency,
		ZakatEligible: a.ZakatEligible,
		Description:   a.Description,
	}
}
