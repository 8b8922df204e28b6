package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/gocql/gocql"

	"orane_back_end/internal/models"
)

type memoryStock struct {
	stock    int
	reserved int
}

// MemoryLedger : implémentation en mémoire, utilisée par les tests et le
// mode développement sans ScyllaDB
type MemoryLedger struct {
	mu           sync.Mutex
	stocks       map[gocql.UUID]*memoryStock
	reservations map[gocql.UUID][]*models.Reservation // orderID → lignes
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		stocks:       make(map[gocql.UUID]*memoryStock),
		reservations: make(map[gocql.UUID][]*models.Reservation),
	}
}

// SetStock initialise le stock d'un produit
func (l *MemoryLedger) SetStock(productID gocql.UUID, quantity int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stocks[productID] = &memoryStock{stock: quantity}
}

// Available retourne le stock vendable (stock - réservé)
func (l *MemoryLedger) Available(productID gocql.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.stocks[productID]
	if !ok {
		return 0
	}
	return s.stock - s.reserved
}

func (l *MemoryLedger) Reserve(_ context.Context, orderID gocql.UUID, items []models.OrderItem) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Première passe : tout doit être disponible, sinon rien n'est bloqué
	for _, item := range items {
		s, ok := l.stocks[item.ProductID]
		if !ok || s.stock-s.reserved < item.Quantity {
			return models.ErrInsufficientStock
		}
	}

	now := time.Now()
	for _, item := range items {
		l.stocks[item.ProductID].reserved += item.Quantity
		l.reservations[orderID] = append(l.reservations[orderID], &models.Reservation{
			OrderID:   orderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Status:    models.ReservationReserved,
			CreatedAt: now,
		})
	}
	return nil
}

func (l *MemoryLedger) Finalize(_ context.Context, orderID gocql.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for _, r := range l.reservations[orderID] {
		if r.Status != models.ReservationReserved {
			continue
		}
		s := l.stocks[r.ProductID]
		s.stock -= r.Quantity
		s.reserved -= r.Quantity
		r.Status = models.ReservationFinalized
		r.UpdatedAt = &now
	}
	return nil
}

func (l *MemoryLedger) Release(_ context.Context, orderID gocql.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for _, r := range l.reservations[orderID] {
		switch r.Status {
		case models.ReservationReserved:
			l.stocks[r.ProductID].reserved -= r.Quantity
		case models.ReservationFinalized:
			// commande payée puis annulée : le stock décompté revient
			l.stocks[r.ProductID].stock += r.Quantity
		default:
			continue // déjà libérée, no-op
		}
		r.Status = models.ReservationReleased
		r.UpdatedAt = &now
	}
	return nil
}
