package telemetry_test

import (
	"context"
	"testing"

	"github.com/slimatic/zakapp-sub001/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db := openTestDB(t)
	err := telemetry.RegisterDBTracing(db, telemetry.DBTracingConfig{Enabled: false}, zap.NewNop())
	assert.NoError(t, err)
}

func TestRegisterDBTracing_RecordsQuerySpans(t *testing.T) {
	sr := setupTestTracer(t)
	db := openTestDB(t)

	err := telemetry.RegisterDBTracing(db, telemetry.DBTracingConfig{
		Enabled:  true,
		DBSystem: "sqlite",
	}, zap.NewNop())
	require.NoError(t, err)

	var one int
	require.NoError(t, db.WithContext(context.Background()).Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)

	assert.NotEmpty(t, sr.Ended())
}
