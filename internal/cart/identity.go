package cart

import "github.com/google/uuid"

// Identity names the owner of a cart for one request: either an authenticated
// user or an anonymous session. The user id wins when both are present.
type Identity struct {
	UserID     uuid.UUID
	SessionKey string
}

// Authenticated reports whether the identity carries a user id.
func (i Identity) Authenticated() bool {
	return i.UserID != uuid.Nil
}

// Resolvable reports whether the identity can address a cart at all.
func (i Identity) Resolvable() bool {
	return i.Authenticated() || i.SessionKey != ""
}
