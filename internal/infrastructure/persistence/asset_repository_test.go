package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slimatic/zakapp-sub001/internal/domain/zakat"
)

func newAsset(name string, category zakat.AssetCategory, value string) zakat.Asset {
	return zakat.Asset{
		Name:          name,
		Category:      category,
		Value:         decimal.RequireFromString(value),
		Currency:      "USD",
		ZakatEligible: true,
	}
}

func TestGormAssetRepository_LoadAssets(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormAssetRepository(db)
	ctx := context.Background()

	owner := uuid.New()
	other := uuid.New()

	cashID, err := repo.Save(ctx, owner, newAsset("Savings", zakat.CategoryCash, "5000"))
	require.NoError(t, err)
	goldID, err := repo.Save(ctx, owner, newAsset("Bracelet", zakat.CategoryGold, "1200.5"))
	require.NoError(t, err)
	_, err = repo.Save(ctx, other, newAsset("Someone else", zakat.CategoryCash, "99"))
	require.NoError(t, err)

	t.Run("loads all assets of an owner", func(t *testing.T) {
		assets, err := repo.LoadAssets(ctx, owner, nil)
		require.NoError(t, err)
		require.Len(t, assets, 2)

		ids := []uuid.UUID{assets[0].ID, assets[1].ID}
		assert.ElementsMatch(t, []uuid.UUID{cashID, goldID}, ids)
	})

	t.Run("restricts to requested ids", func(t *testing.T) {
		assets, err := repo.LoadAssets(ctx, owner, []uuid.UUID{goldID, uuid.New()})
		require.NoError(t, err)
		require.Len(t, assets, 1)
		assert.Equal(t, "Bracelet", assets[0].Name)
		assert.Equal(t, zakat.CategoryGold, assets[0].Category)
		assert.True(t, assets[0].Value.Equal(decimal.RequireFromString("1200.5")))
		assert.True(t, assets[0].ZakatEligible)
	})

	t.Run("does not leak other owners' assets", func(t *testing.T) {
		assets, err := repo.LoadAssets(ctx, owner, []uuid.UUID{uuid.New()})
		require.NoError(t, err)
		assert.Empty(t, assets)
	})

	t.Run("unknown owner yields empty result", func(t *testing.T) {
		assets, err := repo.LoadAssets(ctx, uuid.New(), nil)
		require.NoError(t, err)
		assert.Empty(t, assets)
	})
}

func TestGormAssetRepository_SaveKeepsID(t *testing.T) {
	repo := NewGormAssetRepository(setupTestDB(t))
	ctx := context.Background()

	a := newAsset("Stock portfolio", zakat.CategoryStocks, "800")
	a.ID = uuid.New()
	id, err := repo.Save(ctx, uuid.New(), a)
	require.NoError(t, err)
	assert.Equal(t, a.ID, id)
}

func TestGormAssetRepository_LoadAssets_QueryError(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormAssetRepository(db.DB)

	owner := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "assets" WHERE owner_id = \$1`).
		WithArgs(owner).
		WillReturnError(assert.AnError)

	_, err := repo.LoadAssets(context.Background(), owner, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormAssetRepository_LoadAssets_Rows(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormAssetRepository(db.DB)

	owner := uuid.New()
	assetID := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "owner_id", "name", "category", "sub_category", "value", "currency", "zakat_eligible"}).
		AddRow(assetID.String(), owner.String(), "Shop inventory", "business", "inventory", "15000.00", "EUR", true)

	mock.ExpectQuery(`SELECT \* FROM "assets" WHERE owner_id = \$1 AND id IN \(\$2\) ORDER BY created_at ASC,id ASC`).
		WithArgs(owner, assetID).
		WillReturnRows(rows)

	assets, err := repo.LoadAssets(context.Background(), owner, []uuid.UUID{assetID})
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, zakat.CategoryBusiness, assets[0].Category)
	assert.Equal(t, "inventory", assets[0].SubCategory)
	assert.Equal(t, "EUR", assets[0].Currency)
	assert.True(t, assets[0].Value.Equal(decimal.NewFromInt(15000)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormAssetRepository_Import(t *testing.T) {
	repo := NewGormAssetRepository(setupTestDB(t))
	ctx := context.Background()
	owner := uuid.New()

	t.Run("saves every asset", func(t *testing.T) {
		ids, err := repo.Import(ctx, owner, []zakat.Asset{
			newAsset("Savings", zakat.CategoryCash, "5000"),
			newAsset("Bracelet", zakat.CategoryGold, "1200"),
		})
		require.NoError(t, err)
		require.Len(t, ids, 2)

		assets, err := repo.LoadAssets(ctx, owner, nil)
		require.NoError(t, err)
		assert.Len(t, assets, 2)
	})

	t.Run("invalid asset rolls back the batch", func(t *testing.T) {
		other := uuid.New()
		_, err := repo.Import(ctx, other, []zakat.Asset{
			newAsset("Savings", zakat.CategoryCash, "5000"),
			newAsset("Broken", zakat.CategoryCash, "-1"),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Broken")

		assets, err := repo.LoadAssets(ctx, other, nil)
		require.NoError(t, err)
		assert.Empty(t, assets)
	})

	t.Run("owner is required", func(t *testing.T) {
		_, err := repo.Import(ctx, uuid.Nil, []zakat.Asset{newAsset("Savings", zakat.CategoryCash, "1")})
		assert.Error(t, err)
	})
}
