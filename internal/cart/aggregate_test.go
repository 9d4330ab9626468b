package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
)

func TestAggregateAddLineMergesSameVariant(t *testing.T) {
	product := uuid.New()
	agg := NewAggregate()

	require.NoError(t, agg.AddLine(Line{ProductID: product, UnitReference: "original", Quantity: 1, UnitPrice: 50000}))
	require.NoError(t, agg.AddLine(Line{ProductID: product, UnitReference: "original", Quantity: 2, UnitPrice: 50000}))
	require.NoError(t, agg.AddLine(Line{ProductID: product, UnitReference: "print-a3", Quantity: 1, UnitPrice: 8000}))

	lines := agg.Lines()
	require.Len(t, lines, 2)
	require.Equal(t, 3, lines[0].Quantity)
	require.Equal(t, int64(150000), lines[0].FinalPrice)
	require.Equal(t, int64(158000), agg.Subtotal())
}

func TestAggregateAddLineValidation(t *testing.T) {
	agg := NewAggregate()
	err := agg.AddLine(Line{Quantity: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = agg.AddLine(Line{ProductID: uuid.New(), Quantity: 0})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.True(t, agg.IsEmpty())
}

func TestAggregateSetQuantityRecomputesFinalPrice(t *testing.T) {
	product := uuid.New()
	agg := NewAggregate(Line{ProductID: product, Quantity: 1, UnitPrice: 12000})

	require.NoError(t, agg.SetQuantity(product, "", 4))
	require.Equal(t, int64(48000), agg.Lines()[0].FinalPrice)
	require.Equal(t, int64(48000), agg.Subtotal())

	err := agg.SetQuantity(product, "", 0)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = agg.SetQuantity(uuid.New(), "", 2)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAggregateRemoveMissingLineIsLenient(t *testing.T) {
	kept := uuid.New()
	agg := NewAggregate(Line{ProductID: kept, Quantity: 2, UnitPrice: 1000})
	before := agg.Lines()

	agg.RemoveLine(uuid.New(), "")
	agg.RemoveLine(kept, "other-variant")

	require.Equal(t, before, agg.Lines())
	require.Equal(t, int64(2000), agg.Subtotal())

	agg.RemoveLine(kept, "")
	require.True(t, agg.IsEmpty())
}

func TestAggregateClear(t *testing.T) {
	agg := NewAggregate(
		Line{ProductID: uuid.New(), Quantity: 1, UnitPrice: 100},
		Line{ProductID: uuid.New(), Quantity: 3, UnitPrice: 200},
	)
	require.Equal(t, int64(700), agg.Subtotal())

	agg.Clear()
	require.Equal(t, int64(0), agg.Subtotal())
	require.Equal(t, 0, agg.Len())
}
