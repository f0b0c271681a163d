package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/craftmarket/storefront-backend/pkg/db/models"
	pkgerrors "github.com/craftmarket/storefront-backend/pkg/errors"
	"github.com/craftmarket/storefront-backend/pkg/logger"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Service reads the catalog for the storefront and the cart mutator.
type Service interface {
	List(ctx context.Context) ([]models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type productRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListActive(ctx context.Context) ([]models.Product, error)
}

// productCache is the slice of the Redis client the service needs. Cached
// entries live under the same keys the cart revalidator deletes.
type productCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	ProductCacheKey(slug string) string
}

// ServiceParams bundles the dependencies required to build a product service.
type ServiceParams struct {
	Repo     productRepository
	Cache    productCache
	CacheTTL time.Duration
	Logger   *logger.Logger
}

type service struct {
	repo     productRepository
	cache    productCache
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewService constructs a product service. Cache is optional.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &service{
		repo:     params.Repo,
		cache:    params.Cache,
		cacheTTL: ttl,
		log:      params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	if cached := s.fromCache(ctx, slug); cached != nil {
		return cached, nil
	}

	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	s.toCache(ctx, slug, product)
	return product, nil
}

func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) fromCache(ctx context.Context, slug string) *models.Product {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, s.cache.ProductCacheKey(slug))
	if err != nil {
		if !errors.Is(err, redislib.Nil) && s.log != nil {
			s.log.Warn(s.log.WithField(ctx, "slug", slug), "product cache read failed")
		}
		return nil
	}
	var product models.Product
	if err := json.Unmarshal([]byte(raw), &product); err != nil {
		return nil
	}
	return &product
}

func (s *service) toCache(ctx context.Context, slug string, product *models.Product) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.ProductCacheKey(slug), string(raw), s.cacheTTL); err != nil && s.log != nil {
		s.log.Warn(s.log.WithField(ctx, "slug", slug), "product cache write failed")
	}
}
