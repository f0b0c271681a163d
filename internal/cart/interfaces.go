package cart

import (
	"context"

	"github.com/craftmarket/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartRepository is the persistence surface shared by the mutator and merge
// paths.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindBySessionKey(ctx context.Context, sessionKey string) (*models.Cart, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	Update(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	ReplaceLines(ctx context.Context, cartID uuid.UUID, lines []models.CartLine) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// revalidator signals the UI layer that a cached product view is stale.
type revalidator interface {
	InvalidateProduct(ctx context.Context, slug string)
}

// MergeGuard marks a merge as attempted for one authenticated session.
// TryAcquire returns false when the flag was already set.
type MergeGuard interface {
	TryAcquire(ctx context.Context, accessID string) (bool, error)
}
