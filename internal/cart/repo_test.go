package cart

import (
	"context"
	"testing"

	"github.com/craftmarket/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)

	carts := `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  session_key TEXT UNIQUE,
  user_id TEXT UNIQUE,
  items_total NUMERIC NOT NULL DEFAULT 0,
  shipping_total NUMERIC NOT NULL DEFAULT 0,
  tax_total NUMERIC NOT NULL DEFAULT 0,
  grand_total NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartLines := `
CREATE TABLE IF NOT EXISTS cart_lines (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  image TEXT,
  unit_price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id)
);`
	require.NoError(t, db.Exec(carts).Error)
	require.NoError(t, db.Exec(cartLines).Error)
	return db
}

func newCartLine(name string, quantity, position int) models.CartLine {
	return models.CartLine{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		Name:      name,
		Slug:      name,
		UnitPrice: decimal.RequireFromString("10.00"),
		Quantity:  quantity,
		Position:  position,
	}
}

func TestRepositoryCreateAndFindBySessionKey(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	sessionKey := uuid.NewString()
	created, err := repo.Create(context.Background(), &models.Cart{
		ID:         uuid.New(),
		SessionKey: &sessionKey,
	})
	require.NoError(t, err)

	lines := []models.CartLine{
		newCartLine("second", 1, 1),
		newCartLine("first", 2, 0),
	}
	require.NoError(t, repo.ReplaceLines(context.Background(), created.ID, lines))

	found, err := repo.FindBySessionKey(context.Background(), sessionKey)
	require.NoError(t, err)
	require.Len(t, found.Lines, 2)
	assert.Equal(t, "first", found.Lines[0].Name)
	assert.Equal(t, "second", found.Lines[1].Name)
	assert.Equal(t, 2, found.Lines[0].Quantity)

	_, err = repo.FindBySessionKey(context.Background(), "missing-"+sessionKey)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryFindByUserID(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	_, err := repo.Create(context.Background(), &models.Cart{
		ID:         uuid.New(),
		UserID:     &userID,
		GrandTotal: decimal.RequireFromString("42.00"),
	})
	require.NoError(t, err)

	found, err := repo.FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, found.UserID)
	assert.Equal(t, userID, *found.UserID)
	assert.True(t, found.GrandTotal.Equal(decimal.RequireFromString("42.00")))

	_, err = repo.FindByUserID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryReplaceLines(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	sessionKey := uuid.NewString()
	cart, err := repo.Create(context.Background(), &models.Cart{ID: uuid.New(), SessionKey: &sessionKey})
	require.NoError(t, err)

	require.NoError(t, repo.ReplaceLines(context.Background(), cart.ID, []models.CartLine{
		newCartLine("old", 1, 0),
	}))
	require.NoError(t, repo.ReplaceLines(context.Background(), cart.ID, []models.CartLine{
		newCartLine("new-a", 3, 0),
		newCartLine("new-b", 1, 1),
	}))

	found, err := repo.FindBySessionKey(context.Background(), sessionKey)
	require.NoError(t, err)
	require.Len(t, found.Lines, 2)
	assert.Equal(t, "new-a", found.Lines[0].Name)
	assert.Equal(t, cart.ID, found.Lines[0].CartID)

	require.NoError(t, repo.ReplaceLines(context.Background(), cart.ID, nil))
	found, err = repo.FindBySessionKey(context.Background(), sessionKey)
	require.NoError(t, err)
	assert.Empty(t, found.Lines)
}

func TestRepositoryDeleteByIDCascadesLines(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	sessionKey := uuid.NewString()
	cart, err := repo.Create(context.Background(), &models.Cart{ID: uuid.New(), SessionKey: &sessionKey})
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceLines(context.Background(), cart.ID, []models.CartLine{
		newCartLine("doomed", 1, 0),
	}))

	require.NoError(t, repo.DeleteByID(context.Background(), cart.ID))

	_, err = repo.FindBySessionKey(context.Background(), sessionKey)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, db.Model(&models.CartLine{}).Where("cart_id = ?", cart.ID).Count(&count).Error)
	assert.Zero(t, count)
}
