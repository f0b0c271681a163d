package cart

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/craftmarket/storefront-backend/pkg/db/models"
	pkgerrors "github.com/craftmarket/storefront-backend/pkg/errors"
	"github.com/craftmarket/storefront-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// unitPricePattern accepts a non-negative decimal with at most 2 fractional digits.
var unitPricePattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// Service applies cart mutations and recomputes derived totals atomically with
// the line-list change.
type Service interface {
	AddItem(ctx context.Context, identity Identity, input AddItemInput) (*MutationResult, error)
	RemoveItem(ctx context.Context, identity Identity, productID uuid.UUID) (*MutationResult, error)
	GetCart(ctx context.Context, identity Identity) (*models.Cart, error)
	Clear(ctx context.Context, identity Identity) error
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Repo        CartRepository
	Tx          txRunner
	Products    productLoader
	Revalidator revalidator
	Policy      PricingPolicy
	Metrics     *metrics.CartMetrics
}

type service struct {
	repo       CartRepository
	tx         txRunner
	products   productLoader
	revalidate revalidator
	policy     PricingPolicy
	metrics    *metrics.CartMetrics
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{
		repo:       params.Repo,
		tx:         params.Tx,
		products:   params.Products,
		revalidate: params.Revalidator,
		policy:     params.Policy,
		metrics:    params.Metrics,
	}, nil
}

// AddItemInput is the display snapshot submitted when a product is added. The
// snapshot is persisted as-is; the catalog is only consulted to confirm the
// product still exists.
type AddItemInput struct {
	ProductID uuid.UUID
	Name      string
	Slug      string
	Image     string
	UnitPrice string
	Quantity  int
}

// MutationResult reports the persisted cart and a confirmation message naming
// the affected product.
type MutationResult struct {
	Cart    *models.Cart
	Message string
	Updated bool
}

// AddItem accumulates one unit of the product onto the identity's cart,
// creating the cart lazily. Quantities bump by exactly one per call; the UI
// submits single-unit adds and the mutator does not accept caller increments.
func (s *service) AddItem(ctx context.Context, identity Identity, input AddItemInput) (*MutationResult, error) {
	if !identity.Resolvable() {
		s.countMutation("add", "rejected")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session not found")
	}
	unitPrice, err := validateAddItem(input)
	if err != nil {
		s.countMutation("add", "rejected")
		return nil, err
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.countMutation("add", "rejected")
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		s.countMutation("add", "error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	var saved *models.Cart
	var updated bool
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := s.findForIdentity(ctx, txRepo, identity)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if cart == nil {
			cart = newCartForIdentity(identity)
		}

		lines := cart.Lines
		if idx := cart.LineFor(input.ProductID); idx >= 0 {
			lines[idx].Quantity++
			updated = true
		} else {
			lines = append(lines, models.CartLine{
				ProductID: input.ProductID,
				Name:      input.Name,
				Slug:      input.Slug,
				Image:     input.Image,
				UnitPrice: unitPrice,
				Quantity:  1,
			})
		}
		renumber(lines)
		cart.Lines = lines
		applyTotals(cart, ComputeTotals(lines, s.policy))

		saved, err = s.persist(ctx, txRepo, cart)
		return err
	}); err != nil {
		s.countMutation("add", "error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}

	s.signalProduct(ctx, product.Slug)
	s.countMutation("add", "ok")

	verb := "added to"
	if updated {
		verb = "updated in"
	}
	return &MutationResult{
		Cart:    saved,
		Message: fmt.Sprintf("%s %s cart", product.Name, verb),
		Updated: updated,
	}, nil
}

// RemoveItem takes one unit of the product off the cart, deleting the line
// when its quantity reaches zero. A zero-quantity line never exists.
func (s *service) RemoveItem(ctx context.Context, identity Identity, productID uuid.UUID) (*MutationResult, error) {
	if !identity.Resolvable() {
		s.countMutation("remove", "rejected")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session not found")
	}
	if productID == uuid.Nil {
		s.countMutation("remove", "rejected")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var saved *models.Cart
	var name, slug string
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := s.findForIdentity(ctx, txRepo, identity)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return err
		}

		idx := cart.LineFor(productID)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not found in cart")
		}

		name = cart.Lines[idx].Name
		slug = cart.Lines[idx].Slug
		lines := cart.Lines
		if lines[idx].Quantity <= 1 {
			lines = append(lines[:idx], lines[idx+1:]...)
		} else {
			lines[idx].Quantity--
		}
		renumber(lines)
		cart.Lines = lines
		applyTotals(cart, ComputeTotals(lines, s.policy))

		saved, err = s.persist(ctx, txRepo, cart)
		return err
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.countMutation("remove", "rejected")
			return nil, typed
		}
		s.countMutation("remove", "error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}

	s.signalProduct(ctx, slug)
	s.countMutation("remove", "ok")

	return &MutationResult{
		Cart:    saved,
		Message: fmt.Sprintf("%s removed from cart", name),
	}, nil
}

// GetCart returns the identity's cart, or not-found when none was persisted.
func (s *service) GetCart(ctx context.Context, identity Identity) (*models.Cart, error) {
	if !identity.Resolvable() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session not found")
	}
	cart, err := s.findForIdentity(ctx, s.repo, identity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

// Clear empties the cart after order placement: lines removed, totals zeroed,
// record kept.
func (s *service) Clear(ctx context.Context, identity Identity) error {
	if !identity.Resolvable() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session not found")
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		cart, err := s.findForIdentity(ctx, txRepo, identity)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return err
		}

		cart.Lines = nil
		applyTotals(cart, ComputeTotals(nil, s.policy))

		_, err = s.persist(ctx, txRepo, cart)
		return err
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}

	s.countMutation("clear", "ok")
	return nil
}

func (s *service) findForIdentity(ctx context.Context, repo CartRepository, identity Identity) (*models.Cart, error) {
	if identity.Authenticated() {
		return repo.FindByUserID(ctx, identity.UserID)
	}
	return repo.FindBySessionKey(ctx, identity.SessionKey)
}

// persist writes the cart record and its full line list as one logical write.
func (s *service) persist(ctx context.Context, repo CartRepository, cart *models.Cart) (*models.Cart, error) {
	var err error
	if cart.ID == uuid.Nil {
		_, err = repo.Create(ctx, cart)
	} else {
		_, err = repo.Update(ctx, cart)
	}
	if err != nil {
		return nil, err
	}
	if err := repo.ReplaceLines(ctx, cart.ID, cart.Lines); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *service) signalProduct(ctx context.Context, slug string) {
	if s.revalidate == nil || slug == "" {
		return
	}
	s.revalidate.InvalidateProduct(ctx, slug)
}

func (s *service) countMutation(op, outcome string) {
	s.metrics.IncMutation(op, outcome)
}

func newCartForIdentity(identity Identity) *models.Cart {
	cart := &models.Cart{}
	if identity.Authenticated() {
		userID := identity.UserID
		cart.UserID = &userID
	} else {
		sessionKey := identity.SessionKey
		cart.SessionKey = &sessionKey
	}
	return cart
}

func validateAddItem(input AddItemInput) (decimal.Decimal, error) {
	details := map[string]string{}
	if input.ProductID == uuid.Nil {
		details["product_id"] = "is required"
	}
	if strings.TrimSpace(input.Name) == "" {
		details["name"] = "is required"
	}
	if strings.TrimSpace(input.Slug) == "" {
		details["slug"] = "is required"
	}
	if input.Quantity < 0 {
		details["quantity"] = "must be at least 0"
	}

	price := decimal.Zero
	if !unitPricePattern.MatchString(input.UnitPrice) {
		details["unit_price"] = "must be a decimal with at most 2 fractional digits"
	} else {
		parsed, err := decimal.NewFromString(input.UnitPrice)
		if err != nil || parsed.IsNegative() {
			details["unit_price"] = "must be a non-negative decimal"
		} else {
			price = parsed
		}
	}

	if len(details) > 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return price, nil
}

// renumber keeps line positions contiguous so display order stays stable.
func renumber(lines []models.CartLine) {
	for i := range lines {
		lines[i].Position = i + 1
	}
}
