package controllers

import (
	"net/http"

	"github.com/craftmarket/storefront-backend/api/middleware"
	"github.com/craftmarket/storefront-backend/api/responses"
	"github.com/craftmarket/storefront-backend/api/validators"
	"github.com/craftmarket/storefront-backend/internal/auth"
	"github.com/craftmarket/storefront-backend/pkg/logger"
)

// AuthRegister creates an account and signs the shopper in. The cart cookie,
// when present, rides along so the merger can claim any anonymous cart.
func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := svc.Register(r.Context(), body, cartCookieValue(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, res)
	}
}

func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := svc.Login(r.Context(), body, cartCookieValue(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}

func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.RefreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := svc.Refresh(r.Context(), body, cartCookieValue(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}

// AuthLogout revokes the refresh session tied to the presented access token.
// It sits behind the auth middleware, which seeds the access id.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Logout(r.Context(), middleware.AccessIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

func cartCookieValue(r *http.Request) string {
	cookie, err := r.Cookie(middleware.CartCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
