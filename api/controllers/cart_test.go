package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/craftmarket/storefront-backend/api/middleware"
	"github.com/craftmarket/storefront-backend/internal/cart"
	"github.com/craftmarket/storefront-backend/pkg/db/models"
	pkgerrors "github.com/craftmarket/storefront-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubCartService struct {
	cart      *models.Cart
	result    *cart.MutationResult
	err       error
	gotInput  cart.AddItemInput
	gotIdent  cart.Identity
	clearCall bool
}

func (s *stubCartService) AddItem(ctx context.Context, identity cart.Identity, input cart.AddItemInput) (*cart.MutationResult, error) {
	s.gotIdent = identity
	s.gotInput = input
	return s.result, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, identity cart.Identity, productID uuid.UUID) (*cart.MutationResult, error) {
	s.gotIdent = identity
	return s.result, s.err
}

func (s *stubCartService) GetCart(ctx context.Context, identity cart.Identity) (*models.Cart, error) {
	s.gotIdent = identity
	if s.err != nil {
		return nil, s.err
	}
	return s.cart, nil
}

func (s *stubCartService) Clear(ctx context.Context, identity cart.Identity) error {
	s.clearCall = true
	return s.err
}

func withSessionKey(r *http.Request, key string) *http.Request {
	return r.WithContext(middleware.WithSessionKey(r.Context(), key))
}

func TestCartGetReturnsEmptyCartWhenNoneExists(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")}
	req := withSessionKey(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), "sess-1")
	rec := httptest.NewRecorder()

	CartGet(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var payload struct {
		Data cartView `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload.Data.Lines) != 0 || payload.Data.GrandTotal != "0.00" {
		t.Fatalf("expected empty cart, got %+v", payload.Data)
	}
}

func TestCartAddItemPassesSnapshotThrough(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	svc := &stubCartService{result: &cart.MutationResult{
		Cart: &models.Cart{
			ID: uuid.New(),
			Lines: []models.CartLine{{
				ProductID: productID,
				Name:      "Walnut Serving Board",
				Slug:      "walnut-serving-board",
				UnitPrice: decimal.RequireFromString("45.50"),
				Quantity:  1,
			}},
			ItemsTotal:    decimal.RequireFromString("45.50"),
			ShippingTotal: decimal.RequireFromString("150"),
			GrandTotal:    decimal.RequireFromString("195.50"),
		},
		Message: "Walnut Serving Board added to cart",
	}}

	body := `{"product_id":"` + productID.String() + `","name":"Walnut Serving Board","slug":"walnut-serving-board","unit_price":"45.50"}`
	req := withSessionKey(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body)), "sess-1")
	rec := httptest.NewRecorder()

	CartAddItem(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if svc.gotInput.ProductID != productID || svc.gotInput.UnitPrice != "45.50" {
		t.Fatalf("unexpected input: %+v", svc.gotInput)
	}
	if svc.gotIdent.SessionKey != "sess-1" {
		t.Fatalf("identity session key = %q", svc.gotIdent.SessionKey)
	}

	var payload struct {
		Data struct {
			Message string   `json:"message"`
			Cart    cartView `json:"cart"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Data.Message != "Walnut Serving Board added to cart" {
		t.Fatalf("message = %q", payload.Data.Message)
	}
	if payload.Data.Cart.GrandTotal != "195.50" {
		t.Fatalf("grand total = %q", payload.Data.Cart.GrandTotal)
	}
	if payload.Data.Cart.Lines[0].LineTotal != "45.50" {
		t.Fatalf("line total = %q", payload.Data.Cart.Lines[0].LineTotal)
	}
}

func TestCartAddItemRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{}
	body := `{"product_id":"not-a-uuid","name":"x","slug":"x","unit_price":"1.00"}`
	req := withSessionKey(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body)), "sess-1")
	rec := httptest.NewRecorder()

	CartAddItem(svc, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCartRemoveItemNotFound(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "item not found in cart")}

	router := chi.NewRouter()
	router.Delete("/api/v1/cart/items/{productId}", CartRemoveItem(svc, nil))

	req := withSessionKey(httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/"+uuid.NewString(), nil), "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Error.Code != "NOT_FOUND" || payload.Error.Message != "item not found in cart" {
		t.Fatalf("unexpected error payload: %+v", payload.Error)
	}
}

func TestCartClear(t *testing.T) {
	t.Parallel()

	svc := &stubCartService{}
	req := withSessionKey(httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil), "sess-1")
	rec := httptest.NewRecorder()

	CartClear(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !svc.clearCall {
		t.Fatal("expected clear to be invoked")
	}
}
