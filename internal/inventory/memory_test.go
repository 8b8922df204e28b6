package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orane_back_end/internal/models"
)

func line(productID gocql.UUID, qty int) models.OrderItem {
	return models.OrderItem{ProductID: productID, Quantity: qty}
}

func TestReserveAllOrNothing(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	p1 := gocql.TimeUUID()
	p2 := gocql.TimeUUID()
	l.SetStock(p1, 10)
	l.SetStock(p2, 1)

	orderID := gocql.TimeUUID()
	err := l.Reserve(ctx, orderID, []models.OrderItem{line(p1, 2), line(p2, 5)})
	require.ErrorIs(t, err, models.ErrInsufficientStock)

	// échec total : même la ligne disponible n'a rien réservé
	assert.Equal(t, 10, l.Available(p1))
	assert.Equal(t, 1, l.Available(p2))

	require.NoError(t, l.Reserve(ctx, orderID, []models.OrderItem{line(p1, 2), line(p2, 1)}))
	assert.Equal(t, 8, l.Available(p1))
	assert.Equal(t, 0, l.Available(p2))
}

func TestReserveUnknownProduct(t *testing.T) {
	l := NewMemoryLedger()
	err := l.Reserve(context.Background(), gocql.TimeUUID(), []models.OrderItem{line(gocql.TimeUUID(), 1)})
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
}

func TestConcurrentReserveLastUnit(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	productID := gocql.TimeUUID()
	l.SetStock(productID, 1)

	const racers = 20
	var wg sync.WaitGroup
	results := make(chan error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- l.Reserve(ctx, gocql.TimeUUID(), []models.OrderItem{line(productID, 1)})
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, models.ErrInsufficientStock)
			losses++
		}
	}

	// exactement un gagnant, jamais de sur-réservation
	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, losses)
	assert.Equal(t, 0, l.Available(productID))
}

func TestFinalizeConsumesStock(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	productID := gocql.TimeUUID()
	l.SetStock(productID, 5)

	orderID := gocql.TimeUUID()
	require.NoError(t, l.Reserve(ctx, orderID, []models.OrderItem{line(productID, 2)}))
	require.NoError(t, l.Finalize(ctx, orderID))

	// la réservation est consommée : 3 unités vendables, plus rien de réservé
	assert.Equal(t, 3, l.Available(productID))

	// Finalize est idempotent
	require.NoError(t, l.Finalize(ctx, orderID))
	assert.Equal(t, 3, l.Available(productID))
}

func TestReleaseRestoresReserved(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	productID := gocql.TimeUUID()
	l.SetStock(productID, 5)

	orderID := gocql.TimeUUID()
	require.NoError(t, l.Reserve(ctx, orderID, []models.OrderItem{line(productID, 3)}))
	assert.Equal(t, 2, l.Available(productID))

	require.NoError(t, l.Release(ctx, orderID))
	assert.Equal(t, 5, l.Available(productID))

	// double Release : no-op, pas de stock fantôme
	require.NoError(t, l.Release(ctx, orderID))
	assert.Equal(t, 5, l.Available(productID))
}

func TestReleaseAfterFinalizeRestocksUnits(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	productID := gocql.TimeUUID()
	l.SetStock(productID, 5)

	orderID := gocql.TimeUUID()
	require.NoError(t, l.Reserve(ctx, orderID, []models.OrderItem{line(productID, 2)}))
	require.NoError(t, l.Finalize(ctx, orderID))
	assert.Equal(t, 3, l.Available(productID))

	// remboursement : les unités vendues reviennent en stock
	require.NoError(t, l.Release(ctx, orderID))
	assert.Equal(t, 5, l.Available(productID))
}

func TestReleaseUnknownOrderIsNoop(t *testing.T) {
	l := NewMemoryLedger()
	assert.NoError(t, l.Release(context.Background(), gocql.TimeUUID()))
}
