package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/muraqqa/storefront/internal/cart"
	"github.com/muraqqa/storefront/pkg/enums"
	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
)

func newTestRegistry(t *testing.T, clock *time.Time) (*Registry, *stubAuth) {
	t.Helper()
	auth := &stubAuth{}
	registry, err := NewRegistry(Deps{
		Auth:     auth,
		Carts:    &stubCarts{lines: []cart.Line{{ProductID: uuid.New(), Quantity: 1, UnitPrice: 5000}}},
		Orders:   &stubOrders{},
		Shipping: &stubQuoter{},
		Rules:    testRules(),
		Currency: "pkr",
		Clock:    func() time.Time { return *clock },
	}, 10*time.Minute)
	require.NoError(t, err)
	return registry, auth
}

func TestRegistryBeginAndGet(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	registry, _ := newTestRegistry(t, &now)

	session := registry.Begin(context.Background())
	require.Equal(t, enums.CheckoutStepCart, session.Step())

	found, err := registry.Get(session.ID())
	require.NoError(t, err)
	require.Same(t, session, found)

	other := registry.Begin(context.Background())
	require.NotEqual(t, session.ID(), other.ID())
	require.Equal(t, 2, registry.Len())

	_, err = registry.Get(uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRegistryExpiresIdleSessions(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	registry, auth := newTestRegistry(t, &now)

	idle := registry.Begin(context.Background())
	active := registry.Begin(context.Background())

	now = now.Add(8 * time.Minute)
	auth.signIn(uuid.New())
	require.NoError(t, active.Proceed(context.Background()))

	now = now.Add(5 * time.Minute)
	_, err := registry.Get(idle.ID())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = registry.Get(active.ID())
	require.NoError(t, err)

	now = now.Add(time.Hour)
	require.Equal(t, 1, registry.Sweep())
	require.Zero(t, registry.Len())
}

func TestRegistryEnd(t *testing.T) {
	now := time.Now()
	registry, _ := newTestRegistry(t, &now)
	session := registry.Begin(context.Background())

	registry.End(session.ID())
	_, err := registry.Get(session.ID())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestNewRegistryValidatesDeps(t *testing.T) {
	_, err := NewRegistry(Deps{}, time.Minute)
	require.Error(t, err)
}
