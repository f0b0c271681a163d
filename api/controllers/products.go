package controllers

import (
	"net/http"

	"github.com/craftmarket/storefront-backend/api/responses"
	"github.com/craftmarket/storefront-backend/api/validators"
	"github.com/craftmarket/storefront-backend/internal/products"
	"github.com/craftmarket/storefront-backend/pkg/db/models"
	"github.com/craftmarket/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type productView struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Image    string `json:"image,omitempty"`
	Price    string `json:"price"`
	IsActive bool   `json:"is_active"`
}

func toProductView(p models.Product) productView {
	return productView{
		ID:       p.ID.String(),
		Slug:     p.Slug,
		Name:     p.Name,
		Image:    p.Image,
		Price:    p.Price.StringFixed(2),
		IsActive: p.IsActive,
	}
}

func ProductsList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		catalog, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(catalog) > limit {
			catalog = catalog[:limit]
		}

		views := make([]productView, 0, len(catalog))
		for _, p := range catalog {
			views = append(views, toProductView(p))
		}
		responses.WriteSuccess(w, views)
	}
}

func ProductGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		product, err := svc.GetBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toProductView(*product))
	}
}
