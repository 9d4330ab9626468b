package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/muraqqa/storefront/internal/checkout"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
	ctxEmail  contextKey = "email"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func EmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxEmail).(string); ok {
		return v
	}
	return ""
}

// ShopperID parses the authenticated user id, reporting false for anonymous requests.
func ShopperID(ctx context.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the caller role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// CheckoutAuth resolves checkout shoppers from the identity Auth or
// OptionalAuth attached to the request.
func CheckoutAuth(loginURL string) checkout.AuthFunc {
	return checkout.AuthFunc{
		Lookup: func(ctx context.Context) (checkout.Identity, bool) {
			userID, ok := ShopperID(ctx)
			if !ok {
				return checkout.Identity{}, false
			}
			return checkout.Identity{UserID: userID, Email: EmailFromContext(ctx)}, true
		},
		LoginTo: loginURL,
	}
}
