package cart

import (
	"context"
	"testing"

	"github.com/craftmarket/storefront-backend/pkg/db/models"
	pkgerrors "github.com/craftmarket/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func validInput(productID uuid.UUID) AddItemInput {
	return AddItemInput{
		ProductID: productID,
		Name:      "Walnut Serving Board",
		Slug:      "walnut-serving-board",
		Image:     "https://cdn.example.com/walnut.jpg",
		UnitPrice: "45.50",
		Quantity:  1,
	}
}

func newTestService(t *testing.T, repo CartRepository, products productLoader) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Tx:       stubTxRunner{},
		Products: products,
		Policy:   DefaultPricingPolicy(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func TestAddItemRequiresIdentity(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubCartRepo{}, stubProductLoader{})

	_, err := svc.AddItem(context.Background(), Identity{}, validInput(uuid.New()))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddItemValidatesSnapshot(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubCartRepo{}, stubProductLoader{})
	identity := Identity{SessionKey: "sess-1"}

	input := validInput(uuid.New())
	input.Name = ""
	input.UnitPrice = "12.345"

	_, err := svc.AddItem(context.Background(), identity, input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	if _, ok := details["name"]; !ok {
		t.Fatal("expected name detail")
	}
	if _, ok := details["unit_price"]; !ok {
		t.Fatal("expected unit_price detail")
	}
}

func TestAddItemRejectsUnknownProduct(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubCartRepo{}, stubProductLoader{err: gorm.ErrRecordNotFound})

	_, err := svc.AddItem(context.Background(), Identity{SessionKey: "sess-1"}, validInput(uuid.New()))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddItemCreatesCartLazily(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	repo := &stubCartRepo{}
	svc := newTestService(t, repo, stubProductLoader{product: &models.Product{
		ID:   productID,
		Name: "Walnut Serving Board",
		Slug: "walnut-serving-board",
	}})

	res, err := svc.AddItem(context.Background(), Identity{SessionKey: "sess-1"}, validInput(productID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.created == nil {
		t.Fatal("expected a cart to be created")
	}
	if repo.created.SessionKey == nil || *repo.created.SessionKey != "sess-1" {
		t.Fatalf("expected session key on created cart, got %+v", repo.created)
	}
	if len(res.Cart.Lines) != 1 || res.Cart.Lines[0].Quantity != 1 {
		t.Fatalf("expected one single-unit line, got %+v", res.Cart.Lines)
	}
	wantEqual(t, "items", res.Cart.ItemsTotal, "45.50")
	wantEqual(t, "grand", res.Cart.GrandTotal, "195.50")
	if res.Updated {
		t.Fatal("fresh line should not report an update")
	}
	if want := "Walnut Serving Board added to cart"; res.Message != want {
		t.Fatalf("message = %q, want %q", res.Message, want)
	}
}

func TestAddItemAccumulatesExistingLine(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	sessionKey := "sess-1"
	repo := &stubCartRepo{cart: &models.Cart{
		ID:         uuid.New(),
		SessionKey: &sessionKey,
		Lines: []models.CartLine{{
			ProductID: productID,
			Name:      "Walnut Serving Board",
			Slug:      "walnut-serving-board",
			UnitPrice: decimal.RequireFromString("45.50"),
			Quantity:  2,
			Position:  1,
		}},
	}}
	svc := newTestService(t, repo, stubProductLoader{product: &models.Product{
		ID:   productID,
		Name: "Walnut Serving Board",
		Slug: "walnut-serving-board",
	}})

	res, err := svc.AddItem(context.Background(), Identity{SessionKey: sessionKey}, validInput(productID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.created != nil {
		t.Fatal("existing cart must not be recreated")
	}
	if len(res.Cart.Lines) != 1 || res.Cart.Lines[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %+v", res.Cart.Lines)
	}
	if !res.Updated {
		t.Fatal("expected update flag for existing line")
	}
	wantEqual(t, "items", res.Cart.ItemsTotal, "136.50")
	if want := "Walnut Serving Board updated in cart"; res.Message != want {
		t.Fatalf("message = %q, want %q", res.Message, want)
	}
}

func TestRemoveItemDecrementsMultiUnitLine(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	sessionKey := "sess-1"
	repo := &stubCartRepo{cart: &models.Cart{
		ID:         uuid.New(),
		SessionKey: &sessionKey,
		Lines: []models.CartLine{{
			ProductID: productID,
			Name:      "Ceramic Mug",
			Slug:      "ceramic-mug",
			UnitPrice: decimal.RequireFromString("18.00"),
			Quantity:  3,
			Position:  1,
		}},
	}}
	svc := newTestService(t, repo, stubProductLoader{})

	res, err := svc.RemoveItem(context.Background(), Identity{SessionKey: sessionKey}, productID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Cart.Lines) != 1 || res.Cart.Lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %+v", res.Cart.Lines)
	}
	wantEqual(t, "items", res.Cart.ItemsTotal, "36.00")
	if want := "Ceramic Mug removed from cart"; res.Message != want {
		t.Fatalf("message = %q, want %q", res.Message, want)
	}
}

func TestRemoveItemDeletesSingleUnitLine(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	sessionKey := "sess-1"
	repo := &stubCartRepo{cart: &models.Cart{
		ID:         uuid.New(),
		SessionKey: &sessionKey,
		Lines: []models.CartLine{{
			ProductID: productID,
			Name:      "Ceramic Mug",
			Slug:      "ceramic-mug",
			UnitPrice: decimal.RequireFromString("18.00"),
			Quantity:  1,
			Position:  1,
		}},
	}}
	svc := newTestService(t, repo, stubProductLoader{})

	res, err := svc.RemoveItem(context.Background(), Identity{SessionKey: sessionKey}, productID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Cart.Lines) != 0 {
		t.Fatalf("expected empty line list, got %+v", res.Cart.Lines)
	}
	wantEqual(t, "items", res.Cart.ItemsTotal, "0")
	wantEqual(t, "grand", res.Cart.GrandTotal, "0")
}

func TestRemoveItemMissingCartAndLine(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubCartRepo{}, stubProductLoader{})
	_, err := svc.RemoveItem(context.Background(), Identity{SessionKey: "sess-1"}, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error for missing cart: %v", err)
	}

	sessionKey := "sess-1"
	repo := &stubCartRepo{cart: &models.Cart{ID: uuid.New(), SessionKey: &sessionKey}}
	svc = newTestService(t, repo, stubProductLoader{})
	_, err = svc.RemoveItem(context.Background(), Identity{SessionKey: sessionKey}, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error for missing line: %v", err)
	}
}

func TestClearKeepsCartRecord(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := &stubCartRepo{cart: &models.Cart{
		ID:     uuid.New(),
		UserID: &userID,
		Lines: []models.CartLine{{
			ProductID: uuid.New(),
			UnitPrice: decimal.RequireFromString("10.00"),
			Quantity:  2,
			Position:  1,
		}},
	}}
	svc := newTestService(t, repo, stubProductLoader{})

	if err := svc.Clear(context.Background(), Identity{UserID: userID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.updated == nil {
		t.Fatal("expected the cart record to be updated, not deleted")
	}
	if len(repo.replaced) != 0 {
		t.Fatalf("expected all lines removed, got %+v", repo.replaced)
	}
	wantEqual(t, "grand", repo.updated.GrandTotal, "0")
}

func TestGetCartNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubCartRepo{}, stubProductLoader{})
	_, err := svc.GetCart(context.Background(), Identity{SessionKey: "sess-1"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

type stubCartRepo struct {
	cart    *models.Cart
	findErr error

	created   *models.Cart
	updated   *models.Cart
	replaced  []models.CartLine
	deletedID uuid.UUID
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) CartRepository { return s }

func (s *stubCartRepo) FindBySessionKey(ctx context.Context, sessionKey string) (*models.Cart, error) {
	return s.find()
}

func (s *stubCartRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return s.find()
}

func (s *stubCartRepo) find() (*models.Cart, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.cart == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.cart, nil
}

func (s *stubCartRepo) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	cart.ID = uuid.New()
	s.created = cart
	return cart, nil
}

func (s *stubCartRepo) Update(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	s.updated = cart
	return cart, nil
}

func (s *stubCartRepo) ReplaceLines(ctx context.Context, cartID uuid.UUID, lines []models.CartLine) error {
	s.replaced = lines
	return nil
}

func (s *stubCartRepo) DeleteByID(ctx context.Context, id uuid.UUID) error {
	s.deletedID = id
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubProductLoader struct {
	product *models.Product
	err     error
}

func (s stubProductLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.product != nil {
		return s.product, nil
	}
	return &models.Product{ID: id, Name: "Product", Slug: "product"}, nil
}
