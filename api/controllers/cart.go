package controllers

import (
	"context"
	"net/http"

	"github.com/craftmarket/storefront-backend/api/middleware"
	"github.com/craftmarket/storefront-backend/api/responses"
	"github.com/craftmarket/storefront-backend/api/validators"
	"github.com/craftmarket/storefront-backend/internal/cart"
	"github.com/craftmarket/storefront-backend/pkg/db/models"
	pkgerrors "github.com/craftmarket/storefront-backend/pkg/errors"
	"github.com/craftmarket/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type cartLineView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Image     string `json:"image,omitempty"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type cartView struct {
	ID            string         `json:"id,omitempty"`
	Lines         []cartLineView `json:"lines"`
	ItemsTotal    string         `json:"items_total"`
	ShippingTotal string         `json:"shipping_total"`
	TaxTotal      string         `json:"tax_total"`
	GrandTotal    string         `json:"grand_total"`
}

func toCartView(c *models.Cart) cartView {
	view := cartView{
		Lines:         []cartLineView{},
		ItemsTotal:    c.ItemsTotal.StringFixed(2),
		ShippingTotal: c.ShippingTotal.StringFixed(2),
		TaxTotal:      c.TaxTotal.StringFixed(2),
		GrandTotal:    c.GrandTotal.StringFixed(2),
	}
	if c.ID != uuid.Nil {
		view.ID = c.ID.String()
	}
	for _, l := range c.Lines {
		view.Lines = append(view.Lines, cartLineView{
			ProductID: l.ProductID.String(),
			Name:      l.Name,
			Slug:      l.Slug,
			Image:     l.Image,
			UnitPrice: l.UnitPrice.StringFixed(2),
			Quantity:  l.Quantity,
			LineTotal: l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).StringFixed(2),
		})
	}
	return view
}

// emptyCartView stands in when no cart record exists yet; totals are all zero.
func emptyCartView() cartView {
	return toCartView(&models.Cart{})
}

func identityFromContext(ctx context.Context) cart.Identity {
	identity := cart.Identity{SessionKey: middleware.SessionKeyFromContext(ctx)}
	if raw := middleware.UserIDFromContext(ctx); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			identity.UserID = id
		}
	}
	return identity
}

// CartGet returns the current cart. A shopper who has not added anything yet
// gets an empty cart, not an error.
func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := svc.GetCart(r.Context(), identityFromContext(r.Context()))
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				responses.WriteSuccess(w, emptyCartView())
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartView(record))
	}
}

type addItemBody struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Name      string `json:"name" validate:"required,min=1,max=200"`
	Slug      string `json:"slug" validate:"required,min=1,max=200"`
	Image     string `json:"image" validate:"omitempty,max=2048"`
	UnitPrice string `json:"unit_price" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1"`
}

func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body addItemBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(body.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "product id must be a valid uuid"))
			return
		}

		res, err := svc.AddItem(r.Context(), identityFromContext(r.Context()), cart.AddItemInput{
			ProductID: productID,
			Name:      validators.SanitizeString(body.Name, 200),
			Slug:      validators.SanitizeString(body.Slug, 200),
			Image:     validators.SanitizeString(body.Image, 2048),
			UnitPrice: validators.SanitizeString(body.UnitPrice, 32),
			Quantity:  body.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"message": res.Message,
			"cart":    toCartView(res.Cart),
		})
	}
}

func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "product id must be a valid uuid"))
			return
		}

		res, err := svc.RemoveItem(r.Context(), identityFromContext(r.Context()), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"message": res.Message,
			"cart":    toCartView(res.Cart),
		})
	}
}

// CartClear empties the cart after checkout hand-off; the record survives.
func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Clear(r.Context(), identityFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, emptyCartView())
	}
}
