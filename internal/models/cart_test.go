package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAddItem(t *testing.T) {
	c := &Cart{UserID: "user-1"}

	require.NoError(t, c.AddItem(CartItem{ProductID: "p1", Name: "Collier", Price: 49.90, Quantity: 1}))
	require.NoError(t, c.AddItem(CartItem{ProductID: "p2", Name: "Bracelet", Price: 29.90, Quantity: 2}))
	assert.Len(t, c.Items, 2)

	// même produit : cumul de quantité, prix rafraîchi
	require.NoError(t, c.AddItem(CartItem{ProductID: "p1", Name: "Collier", Price: 54.90, Quantity: 3}))
	assert.Len(t, c.Items, 2)
	assert.Equal(t, 4, c.Items[0].Quantity)
	assert.Equal(t, 54.90, c.Items[0].Price)
}

func TestCartAddItemRejectsBadQuantity(t *testing.T) {
	c := &Cart{}
	err := c.AddItem(CartItem{ProductID: "p1", Quantity: 0})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)
	assert.True(t, c.IsEmpty())
}

func TestCartUpdateQuantity(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.AddItem(CartItem{ProductID: "p1", Quantity: 2}))

	assert.True(t, c.UpdateQuantity("p1", 5))
	assert.Equal(t, 5, c.Items[0].Quantity)

	// 0 = suppression de la ligne
	assert.True(t, c.UpdateQuantity("p1", 0))
	assert.True(t, c.IsEmpty())

	assert.False(t, c.UpdateQuantity("inconnu", 1))
	assert.False(t, c.UpdateQuantity("p1", -1))
}

func TestCartRemoveAndClear(t *testing.T) {
	c := &Cart{}
	require.NoError(t, c.AddItem(CartItem{ProductID: "p1", Quantity: 1}))
	require.NoError(t, c.AddItem(CartItem{ProductID: "p2", Quantity: 1}))

	assert.True(t, c.RemoveItem("p1"))
	assert.Len(t, c.Items, 1)

	c.Clear()
	assert.True(t, c.IsEmpty())
}

func TestCartTotal(t *testing.T) {
	c := &Cart{Items: []CartItem{
		{ProductID: "p1", Price: 10.50, Quantity: 2},
		{ProductID: "p2", Price: 5, Quantity: 3},
	}}
	assert.InDelta(t, 36.0, c.Total(), 0.001)
}
