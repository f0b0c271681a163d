package middleware

import (
	"context"
	"net/http"

	"github.com/craftmarket/storefront-backend/pkg/auth/session"
	"github.com/craftmarket/storefront-backend/pkg/config"
	"github.com/craftmarket/storefront-backend/pkg/logger"
	"github.com/google/uuid"
)

// CartCookieName addresses the anonymous cart. The cookie is issued on first
// contact and survives sign-in so a claimed cart stays reachable.
const CartCookieName = "sf_cart"

const cartCookieMaxAge = 180 * 24 * 60 * 60

// CartIdentity resolves who owns the cart for this request. The session
// cookie is ensured unconditionally; a bearer token is honored when present
// and valid but never required. Cart routes stay anonymous-friendly.
func CartIdentity(cfg config.JWTConfig, verifier session.AccessSessionChecker, secureCookies bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sessionKey := cartSessionKey(r)
			if sessionKey == "" {
				sessionKey = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CartCookieName,
					Value:    sessionKey,
					Path:     "/",
					MaxAge:   cartCookieMaxAge,
					HttpOnly: true,
					Secure:   secureCookies,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx = context.WithValue(ctx, ctxSessionKey, sessionKey)
			if logg != nil {
				ctx = logg.WithSessionKey(ctx, sessionKey)
			}

			if claims, err := claimsFromRequest(r, cfg, verifier); err == nil {
				ctx = context.WithValue(ctx, ctxUserID, claims.UserID.String())
				ctx = context.WithValue(ctx, ctxAccessID, claims.ID)
				if logg != nil {
					ctx = logg.WithUserID(ctx, claims.UserID.String())
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func cartSessionKey(r *http.Request) string {
	cookie, err := r.Cookie(CartCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}
