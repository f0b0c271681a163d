package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims is the JWT claim set carried by storefront access tokens.
// The registered ID (jti) doubles as the Redis session key and the scope of the
// cart-merge flag.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"uid"`
	jwt.RegisteredClaims
}

// AccessTokenPayload captures the fields callers provide when minting a token.
type AccessTokenPayload struct {
	UserID uuid.UUID
	JTI    string
}
