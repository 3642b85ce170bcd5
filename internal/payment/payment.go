package payment

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
)

// EventCheckoutCompleted is emitted once the customer finishes paying
const EventCheckoutCompleted = "checkout.session.completed"

var ErrSignatureInvalid = fmt.Errorf("webhook %w", domain.ErrSignatureInvalid)

// ErrEventMalformed marks a correctly signed event whose body cannot be
// decoded. Redelivering it cannot succeed.
var ErrEventMalformed = errors.New("webhook event malformed")

// LineItem is one priced row of a hosted checkout page. UnitAmount is in
// the currency's minor unit.
type LineItem struct {
	Name       string
	Image      string
	UnitAmount int64
	Quantity   int64
}

type SessionRequest struct {
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type Session struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

// Event is the verified, provider-neutral view of a webhook delivery
type Event struct {
	ID        string
	Type      string
	SessionID string
	Metadata  map[string]string
}

// Provider creates hosted payment sessions and authenticates their callbacks
type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}
