package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func view(id int64, price int64, stock int) *ProductView {
	return &ProductView{ID: id, Title: "Album", Price: dec(price), Quantity: stock}
}

func TestCartAdd_MergesAndRecalculates(t *testing.T) {
	cart := NewCart()
	p := view(1, 20000, 5)

	require.NoError(t, cart.Add(p, 2))
	require.NoError(t, cart.Add(p, 3))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	cart.Recalculate()
	assert.True(t, dec(100000).Equal(cart.TotalBeforeVAT))
}

func TestCartAdd_InsufficientStockLeavesCartUntouched(t *testing.T) {
	cart := NewCart()
	err := cart.Add(view(1, 20000, 1), 2)
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.EqualError(t, err, "insufficient stock for product 'Album'. Requested: 2, Available: 1")
	assert.Empty(t, cart.Items)

	require.ErrorIs(t, cart.Add(view(1, 20000, 1), 0), ErrInvalidQuantity)
}

func TestCartSetQuantity(t *testing.T) {
	cart := NewCart()
	p := view(1, 10000, 2)
	require.NoError(t, cart.Add(p, 2))

	// only the increase is checked against stock
	require.NoError(t, cart.SetQuantity(p, 4))
	require.ErrorIs(t, cart.SetQuantity(p, 7), ErrInsufficientStock)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	require.ErrorIs(t, cart.SetQuantity(view(9, 1, 1), 1), ErrItemNotFound)
	require.ErrorIs(t, cart.SetQuantity(p, -1), ErrInvalidQuantity)

	require.NoError(t, cart.SetQuantity(p, 0))
	assert.Empty(t, cart.Items)
}

func TestCartRemoveAndEmpty(t *testing.T) {
	cart := NewCart()
	require.NoError(t, cart.Add(view(1, 10000, 5), 1))
	require.NoError(t, cart.Add(view(2, 15000, 5), 1))

	require.NoError(t, cart.Remove(1))
	require.ErrorIs(t, cart.Remove(1), ErrItemNotFound)
	assert.Equal(t, []int64{2}, cart.ProductIDs())

	cart.Recalculate()
	cart.Empty()
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalBeforeVAT.IsZero())
}

func TestCartRecalculate_SkipsDetachedLines(t *testing.T) {
	cart := &Cart{Items: []Item{
		{ProductID: 1, Quantity: 2, Product: view(1, 10000, 5)},
		{ProductID: 2, Quantity: 3},
	}}
	cart.Recalculate()
	assert.True(t, dec(20000).Equal(cart.TotalBeforeVAT))
}

func TestCartClone(t *testing.T) {
	cart := NewCart()
	require.NoError(t, cart.Add(view(1, 10000, 5), 1))
	clone := cart.Clone()
	clone.Items[0].Quantity = 5
	assert.Equal(t, 1, cart.Items[0].Quantity)

	empty := NewCart().Clone()
	assert.NotNil(t, empty.Items)
}
