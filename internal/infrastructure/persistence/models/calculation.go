package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
)

// CalculationModel is the persistence model for a recorded ZakatCalculation.
// Queryable fields are columns; the full result lives in Snapshot.
type CalculationModel struct {
	ID              uuid.UUID               `gorm:"type:uuid;primary_key"`
	OwnerID         *uuid.UUID              `gorm:"type:uuid;index"`
	MethodologyID   zakat.MethodologyID     `gorm:"type:varchar(20);not null"`
	CalendarType    zakat.CalendarType      `gorm:"type:varchar(10);not null"`
	Currency        string                  `gorm:"type:varchar(3);not null"`
	Status          zakat.CalculationStatus `gorm:"type:varchar(20);not null"`
	MeetsNisab      bool                    `gorm:"not null"`
	TotalZakatDue   decimal.Decimal         `gorm:"type:decimal(20,4);not null"`
	CalculationDate time.Time               `gorm:"not null;index"`
	SnapshotJSON    string                  `gorm:"column:snapshot;type:jsonb;not null"`
	CreatedAt       time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CalculationModel) TableName() string {
	return "zakat_calculations"
}

// CalculationModelFromDomain flattens a calculation and serializes its snapshot
func CalculationModelFromDomain(c *zakat.ZakatCalculation) (*CalculationModel, error) {
	snapshot, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal calculation snapshot: %w", err)
	}
	m := &CalculationModel{
		ID:              c.ID,
		MethodologyID:   c.Methodology.ID,
		CalendarType:    c.CalendarType,
		Currency:        c.Currency,
		Status:          c.Status,
		MeetsNisab:      c.MeetsNisab,
		TotalZakatDue:   c.Totals.TotalZakatDue,
		CalculationDate: c.CalculationDate,
		SnapshotJSON:    string(snapshot),
		CreatedAt:       c.CreatedAt,
	}
	if c.OwnerID != uuid.Nil {
		owner := c.OwnerID
		m.OwnerID = &owner
	}
	return m, nil
}

// ToDomain restores the calculation from its snapshot
func (m *CalculationModel) ToDomain() (*zakat.ZakatCalculation, error) {
	var c zakat.ZakatCalculation
	if err := json.Unmarshal([]byte(m.SnapshotJSON), &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal calculation %s: %w", m.ID, err)
	}
	return &c, nil
}
