package orders

import (
	"context"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orane_back_end/internal/models"
)

// fakeCatalog : catalogue en mémoire pour tester le snapshot sans ScyllaDB
type fakeCatalog struct {
	products map[string]models.Product
}

func (f *fakeCatalog) GetItem(_ context.Context, productID gocql.UUID) (models.Product, error) {
	p, ok := f.products[productID.String()]
	if !ok {
		return models.Product{}, gocql.ErrNotFound
	}
	return p, nil
}

func newFakeCatalog(products ...models.Product) *fakeCatalog {
	f := &fakeCatalog{products: make(map[string]models.Product)}
	for _, p := range products {
		f.products[p.ID.String()] = p
	}
	return f
}

func TestSnapshotEmptyCart(t *testing.T) {
	catalog := newFakeCatalog()

	_, err := Snapshot(context.Background(), nil, catalog)
	assert.ErrorIs(t, err, models.ErrEmptyCart)

	_, err = Snapshot(context.Background(), &models.Cart{UserID: "u1"}, catalog)
	assert.ErrorIs(t, err, models.ErrEmptyCart)
}

func TestSnapshotUsesCurrentCatalogPrice(t *testing.T) {
	p := models.Product{
		ID:       gocql.TimeUUID(),
		Name:     "Collier Orane",
		Price:    59.90, // le prix a augmenté depuis l'ajout au panier
		Stock:    10,
		IsActive: true,
	}
	cart := &models.Cart{UserID: "u1", Items: []models.CartItem{
		{ProductID: p.ID.String(), Name: p.Name, Price: 49.90, Quantity: 2},
	}}

	draft, err := Snapshot(context.Background(), cart, newFakeCatalog(p))
	require.NoError(t, err)
	require.Len(t, draft.Items, 1)

	item := draft.Items[0]
	assert.Equal(t, 59.90, item.UnitPrice, "c'est le prix catalogue courant qui est facturé")
	assert.InDelta(t, 119.80, item.Subtotal, 0.001)
	assert.Equal(t, p.ID, item.ProductID)
	assert.Empty(t, draft.Dropped)

	// le panier lui-même n'est pas touché
	assert.Equal(t, 49.90, cart.Items[0].Price)
}

func TestSnapshotDropsUnsellableLines(t *testing.T) {
	active := models.Product{ID: gocql.TimeUUID(), Name: "Bague", Price: 20, Stock: 5, IsActive: true}
	inactive := models.Product{ID: gocql.TimeUUID(), Name: "Retiré", Price: 10, Stock: 5, IsActive: false}
	depleted := models.Product{ID: gocql.TimeUUID(), Name: "Épuisé", Price: 10, Stock: 3, StockReserved: 3, IsActive: true}
	missing := gocql.TimeUUID()

	cart := &models.Cart{UserID: "u1", Items: []models.CartItem{
		{ProductID: active.ID.String(), Quantity: 1},
		{ProductID: inactive.ID.String(), Quantity: 1},
		{ProductID: depleted.ID.String(), Quantity: 1},
		{ProductID: missing.String(), Name: "Fantôme", Quantity: 1},
	}}

	draft, err := Snapshot(context.Background(), cart, newFakeCatalog(active, inactive, depleted))
	require.NoError(t, err)

	require.Len(t, draft.Items, 1)
	assert.Equal(t, active.ID, draft.Items[0].ProductID)

	require.Len(t, draft.Dropped, 3)
	reasons := map[string]string{}
	for _, d := range draft.Dropped {
		reasons[d.ProductID] = d.Reason
	}
	assert.Equal(t, "inactive", reasons[inactive.ID.String()])
	assert.Equal(t, "out_of_stock", reasons[depleted.ID.String()])
	assert.Equal(t, "not_found", reasons[missing.String()])
}

func TestSnapshotQuantityVersusAvailable(t *testing.T) {
	p := models.Product{ID: gocql.TimeUUID(), Name: "Boucles", Price: 15, Stock: 10, StockReserved: 8, IsActive: true}

	cart := &models.Cart{UserID: "u1", Items: []models.CartItem{
		{ProductID: p.ID.String(), Quantity: 3}, // seulement 2 disponibles
	}}

	draft, err := Snapshot(context.Background(), cart, newFakeCatalog(p))
	require.NoError(t, err)
	assert.Empty(t, draft.Items)
	require.Len(t, draft.Dropped, 1)
	assert.Equal(t, "out_of_stock", draft.Dropped[0].Reason)
}

func TestSnapshotRejectsMalformedLines(t *testing.T) {
	p := models.Product{ID: gocql.TimeUUID(), Price: 10, Stock: 5, IsActive: true}
	catalog := newFakeCatalog(p)

	var verr *models.ValidationError

	cart := &models.Cart{UserID: "u1", Items: []models.CartItem{
		{ProductID: p.ID.String(), Quantity: 0},
	}}
	_, err := Snapshot(context.Background(), cart, catalog)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)

	cart = &models.Cart{UserID: "u1", Items: []models.CartItem{
		{ProductID: "pas-un-uuid", Quantity: 1},
	}}
	_, err = Snapshot(context.Background(), cart, catalog)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "product_id", verr.Field)
}
