package models

import (
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCoupon() *Coupon {
	return &Coupon{
		Code:            "BIENVENUE10",
		Type:            "percentage",
		Value:           10,
		ApplicableToAll: true,
		IsActive:        true,
		StartsAt:        time.Now().Add(-24 * time.Hour),
		ExpiresAt:       time.Now().Add(24 * time.Hour),
	}
}

func TestIsValidAt(t *testing.T) {
	now := time.Now()

	cp := testCoupon()
	ok, _ := cp.IsValidAt(now)
	assert.True(t, ok)

	cp = testCoupon()
	cp.IsActive = false
	ok, msg := cp.IsValidAt(now)
	assert.False(t, ok)
	assert.Contains(t, msg, "actif")

	cp = testCoupon()
	cp.StartsAt = now.Add(time.Hour)
	ok, msg = cp.IsValidAt(now)
	assert.False(t, ok)
	assert.Contains(t, msg, "pas encore")

	cp = testCoupon()
	cp.ExpiresAt = now.Add(-time.Hour)
	ok, msg = cp.IsValidAt(now)
	assert.False(t, ok)
	assert.Contains(t, msg, "expiré")

	cp = testCoupon()
	cp.MaxUses = 100
	cp.UsedCount = 100
	ok, msg = cp.IsValidAt(now)
	assert.False(t, ok)
	assert.Contains(t, msg, "limite")

	// MaxUses = 0 : pas de plafond global
	cp = testCoupon()
	cp.UsedCount = 10000
	ok, _ = cp.IsValidAt(now)
	assert.True(t, ok)
}

func TestEligibleFor(t *testing.T) {
	cp := testCoupon()
	cp.NewCustomersOnly = true

	ok, _ := cp.EligibleFor("user-1", 0)
	assert.True(t, ok)

	ok, msg := cp.EligibleFor("user-1", 3)
	assert.False(t, ok)
	assert.Contains(t, msg, "nouveaux clients")

	cp = testCoupon()
	cp.CustomerIDs = []string{"user-vip"}
	ok, _ = cp.EligibleFor("user-vip", 5)
	assert.True(t, ok)
	ok, msg = cp.EligibleFor("user-1", 0)
	assert.False(t, ok)
	assert.Contains(t, msg, "destiné")
}

func itemsOf(subtotals ...float64) []OrderItem {
	items := make([]OrderItem, 0, len(subtotals))
	for _, s := range subtotals {
		items = append(items, OrderItem{Quantity: 1, UnitPrice: s, Subtotal: s})
	}
	return items
}

func TestDiscountForPercentage(t *testing.T) {
	cp := testCoupon() // 10%

	// 2 × 50000 → base 100000, remise 10000
	items := []OrderItem{{Quantity: 2, UnitPrice: 50000, Subtotal: 100000}}
	assert.Equal(t, 10000.0, cp.DiscountFor(items))

	// arrondi au plus proche : 10% de 33.33 = 3.333 → 3
	assert.Equal(t, 3.0, cp.DiscountFor(itemsOf(33.33)))
}

func TestDiscountForMaxAmountCap(t *testing.T) {
	cp := testCoupon()
	cap := 50.0
	cp.MaxAmount = &cap

	assert.Equal(t, 50.0, cp.DiscountFor(itemsOf(1000)), "la remise est plafonnée")
	assert.Equal(t, 20.0, cp.DiscountFor(itemsOf(200)), "sous le plafond, remise pleine")
}

func TestDiscountForFixed(t *testing.T) {
	cp := testCoupon()
	cp.Type = "fixed"
	cp.Value = 30

	assert.Equal(t, 30.0, cp.DiscountFor(itemsOf(100)))
	// jamais plus que la base éligible
	assert.Equal(t, 12.0, cp.DiscountFor(itemsOf(12)))
}

func TestDiscountForMinAmount(t *testing.T) {
	cp := testCoupon()
	cp.MinAmount = 50

	assert.Equal(t, 0.0, cp.DiscountFor(itemsOf(49.99)))
	assert.Equal(t, 5.0, cp.DiscountFor(itemsOf(50)))
}

func TestDiscountForRestrictedBase(t *testing.T) {
	target := gocql.TimeUUID()
	other := gocql.TimeUUID()

	cp := testCoupon()
	cp.ApplicableToAll = false
	cp.ProductIDs = []string{target.String()}

	items := []OrderItem{
		{ProductID: target, Quantity: 1, UnitPrice: 100, Subtotal: 100},
		{ProductID: other, Quantity: 1, UnitPrice: 400, Subtotal: 400},
	}
	// 10% de la seule ligne ciblée, pas du sous-total complet
	assert.Equal(t, 10.0, cp.DiscountFor(items))

	// restriction par catégorie
	cat := gocql.TimeUUID()
	cp = testCoupon()
	cp.ApplicableToAll = false
	cp.CategoryIDs = []string{cat.String()}
	items[1].CategoryID = cat
	assert.Equal(t, 40.0, cp.DiscountFor(items))
}

func TestDiscountForUnknownTypeIsZero(t *testing.T) {
	cp := testCoupon()
	cp.Type = "mystère"
	assert.Equal(t, 0.0, cp.DiscountFor(itemsOf(100)))
}

func TestDiscountNeverExceedsSubtotal(t *testing.T) {
	cp := testCoupon()
	cp.Type = "fixed"
	cp.Value = 500

	d := cp.DiscountFor(itemsOf(80))
	require.LessOrEqual(t, d, 80.0)
	require.GreaterOrEqual(t, d, 0.0)
}
