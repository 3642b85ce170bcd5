package domain

import "github.com/google/uuid"

// GuestSentinel marks payment metadata for checkouts without a user
const GuestSentinel = "guest"

// Identity is the unit a cart is scoped to: a registered user or an
// anonymous session. Exactly one of UserID and SessionToken is set.
type Identity struct {
	UserID       uuid.UUID
	Role         string
	SessionToken string
}

// UserIdentity builds an identity for an authenticated user
func UserIdentity(id uuid.UUID, role string) Identity {
	return Identity{UserID: id, Role: role}
}

// GuestIdentity builds an identity for an anonymous session
func GuestIdentity(token string) Identity {
	return Identity{SessionToken: token}
}

func (i Identity) IsGuest() bool {
	return i.UserID == uuid.Nil
}

func (i Identity) IsAdmin() bool {
	return !i.IsGuest() && i.Role == RoleAdmin
}

// Key is the cart storage key for the identity
func (i Identity) Key() string {
	if i.IsGuest() {
		return i.SessionToken
	}
	return i.UserID.String()
}

// MetadataValue is the identity as passed to the payment provider
func (i Identity) MetadataValue() string {
	if i.IsGuest() {
		return GuestSentinel
	}
	return i.UserID.String()
}
