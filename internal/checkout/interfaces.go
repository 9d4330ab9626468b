package checkout

import (
	"context"

	"github.com/google/uuid"

	"github.com/muraqqa/storefront/internal/cart"
	"github.com/muraqqa/storefront/internal/orders"
	"github.com/muraqqa/storefront/internal/payments"
	"github.com/muraqqa/storefront/internal/shipping"
)

// Identity is the signed-in shopper.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// AuthProvider resolves the shopper behind a request.
type AuthProvider interface {
	Identify(ctx context.Context) (Identity, bool)
	LoginURL() string
}

// CartStore loads and empties the shopper's authoritative cart.
type CartStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*cart.Aggregate, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

// OrderProvider persists orders created by checkout.
type OrderProvider interface {
	Create(ctx context.Context, draft orders.Draft) (uuid.UUID, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	MarkPaid(ctx context.Context, id uuid.UUID, paymentRef string) error
	AttachPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error
}

// PaymentProvider creates and verifies card payments.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, orderID uuid.UUID, amount int64, currency string) (payments.Intent, error)
	Confirmed(ctx context.Context, intentID string) (bool, error)
}

// ShippingQuoter prices shipping for a destination.
type ShippingQuoter interface {
	Quote(ctx context.Context, req shipping.QuoteRequest) ([]shipping.Rate, error)
}

// AuthFunc adapts a context lookup into an AuthProvider.
type AuthFunc struct {
	Lookup  func(ctx context.Context) (Identity, bool)
	LoginTo string
}

func (a AuthFunc) Identify(ctx context.Context) (Identity, bool) {
	if a.Lookup == nil {
		return Identity{}, false
	}
	identity, ok := a.Lookup(ctx)
	if !ok || identity.UserID == uuid.Nil {
		return Identity{}, false
	}
	return identity, true
}

func (a AuthFunc) LoginURL() string {
	return a.LoginTo
}
