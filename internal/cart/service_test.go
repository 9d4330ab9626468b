package cart

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/muraqqa/storefront/internal/catalog"
	"github.com/muraqqa/storefront/pkg/db"
	"github.com/muraqqa/storefront/pkg/db/models"
	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Artwork{}, &models.Cart{}, &models.CartLine{}))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

type fixture struct {
	svc      Service
	products *catalog.Repository
	conn     *gorm.DB
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := openTestDB(t)
	products := catalog.NewRepository(conn)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn), products)
	require.NoError(t, err)
	return fixture{svc: svc, products: products, conn: conn}
}

func (f fixture) artwork(t *testing.T, title string, price int64, stock int) uuid.UUID {
	t.Helper()
	row := &models.Artwork{Title: title, Category: "Miniature", Price: price, Year: 2001, Stock: stock}
	require.NoError(t, f.products.Create(context.Background(), row))
	return row.ID
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(nil, nil, nil)
	require.Error(t, err)
}

func TestServiceGetWithoutCart(t *testing.T) {
	f := newFixture(t)
	agg, err := f.svc.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	require.True(t, agg.IsEmpty())
}

func TestServiceAddLineMergesAndPersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	piece := f.artwork(t, "Garden of Lahore", 40000, 3)
	print := f.artwork(t, "Nastaliq Study", 9000, 10)

	_, err := f.svc.AddLine(ctx, user, AddLineInput{ProductID: piece, Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddLine(ctx, user, AddLineInput{ProductID: print, UnitReference: " a3 ", Quantity: 2})
	require.NoError(t, err)
	agg, err := f.svc.AddLine(ctx, user, AddLineInput{ProductID: piece, Quantity: 1})
	require.NoError(t, err)

	require.Equal(t, 2, agg.Len())
	require.Equal(t, int64(98000), agg.Subtotal())

	reloaded, err := f.svc.Get(ctx, user)
	require.NoError(t, err)
	lines := reloaded.Lines()
	require.Len(t, lines, 2)
	require.Equal(t, piece, lines[0].ProductID)
	require.Equal(t, 2, lines[0].Quantity)
	require.Equal(t, "a3", lines[1].UnitReference)
	require.Equal(t, "Nastaliq Study", lines[1].Title)
}

func TestServiceAddLineRejectsMissingStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sold := f.artwork(t, "Truck Bloom", 45000, 0)

	_, err := f.svc.AddLine(ctx, uuid.New(), AddLineInput{ProductID: sold, Quantity: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = f.svc.AddLine(ctx, uuid.New(), AddLineInput{ProductID: uuid.New(), Quantity: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceSetQuantityRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := uuid.New()
	piece := f.artwork(t, "River Indus", 30000, 5)

	_, err := f.svc.AddLine(ctx, user, AddLineInput{ProductID: piece, Quantity: 1})
	require.NoError(t, err)

	agg, err := f.svc.SetQuantity(ctx, user, piece, "", 3)
	require.NoError(t, err)
	require.Equal(t, int64(90000), agg.Subtotal())

	agg, err = f.svc.RemoveLine(ctx, user, uuid.New(), "")
	require.NoError(t, err)
	require.Equal(t, 1, agg.Len())

	agg, err = f.svc.RemoveLine(ctx, user, piece, "")
	require.NoError(t, err)
	require.True(t, agg.IsEmpty())

	_, err = f.svc.AddLine(ctx, user, AddLineInput{ProductID: piece, Quantity: 2})
	require.NoError(t, err)
	require.NoError(t, f.svc.Clear(ctx, user))

	agg, err = f.svc.Get(ctx, user)
	require.NoError(t, err)
	require.True(t, agg.IsEmpty())
}
