package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"orane_back_end/internal/models"
)

func TestComputeTotals(t *testing.T) {
	items := []models.OrderItem{
		{Quantity: 2, UnitPrice: 50000, Subtotal: 100000},
	}

	// commande 100000, remise 10%, livraison 15000, pas de taxe
	totals := ComputeTotals(items, 15000, 0, 10000)
	assert.Equal(t, 100000.0, totals.Subtotal)
	assert.Equal(t, 105000.0, totals.Total)
	assert.False(t, totals.Clamped)
}

func TestComputeTotalsWithTax(t *testing.T) {
	items := []models.OrderItem{
		{Quantity: 1, UnitPrice: 100, Subtotal: 100},
		{Quantity: 3, UnitPrice: 20, Subtotal: 60},
	}

	totals := ComputeTotals(items, 5.99, 32, 10)
	assert.Equal(t, 160.0, totals.Subtotal)
	assert.Equal(t, 32.0, totals.Tax)
	assert.InDelta(t, 187.99, totals.Total, 0.001)
}

func TestComputeTotalsEmptyItems(t *testing.T) {
	totals := ComputeTotals(nil, 0, 0, 0)
	assert.Equal(t, 0.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.Total)
}

func TestComputeTotalsClampsNegative(t *testing.T) {
	items := []models.OrderItem{{Quantity: 1, UnitPrice: 10, Subtotal: 10}}

	// remise absurde > sous-total + livraison : total ramené à 0, signalé
	totals := ComputeTotals(items, 0, 0, 50)
	assert.Equal(t, 0.0, totals.Total)
	assert.True(t, totals.Clamped)
}
