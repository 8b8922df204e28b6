package inventory

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"

	"orane_back_end/internal/database"
	"orane_back_end/internal/models"
)

// Nombre d'essais des boucles compare-and-swap avant d'abandonner
// avec ErrConflict
const casRetries = 5

// ScyllaLedger : implémentation ScyllaDB. Les compteurs de stock sont
// modifiés exclusivement via des transactions légères (IF ... + ScanCAS),
// jamais en lecture-calcul-écriture aveugle, pour que deux commandes
// simultanées sur la dernière unité ne passent pas toutes les deux.
type ScyllaLedger struct{}

func NewScyllaLedger() *ScyllaLedger {
	return &ScyllaLedger{}
}

func (l *ScyllaLedger) Reserve(ctx context.Context, orderID gocql.UUID, items []models.OrderItem) error {
	products, err := database.GetProductsSession()
	if err != nil {
		return err
	}
	orders, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	// Réserver ligne par ligne ; au premier échec, débloquer ce qui a déjà
	// été pris pour que la réservation reste tout-ou-rien
	var reserved []models.OrderItem
	for _, item := range items {
		if err := l.reserveOne(ctx, products, item); err != nil {
			for _, done := range reserved {
				l.unreserveOne(ctx, products, done.ProductID, done.Quantity)
			}
			return err
		}
		reserved = append(reserved, item)
	}

	now := time.Now()
	for _, item := range items {
		if err := orders.Query(`
			INSERT INTO order_reservations (order_id, product_id, quantity, status, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, orderID, item.ProductID, item.Quantity, models.ReservationReserved, now).WithContext(ctx).Exec(); err != nil {
			log.Printf("⚠️ Erreur enregistrement réservation %s/%s: %v", orderID, item.ProductID, err)
		}
	}
	return nil
}

// reserveOne bloque la quantité d'un produit via CAS sur stock_reserved
func (l *ScyllaLedger) reserveOne(ctx context.Context, session *gocql.Session, item models.OrderItem) error {
	for attempt := 0; attempt < casRetries; attempt++ {
		var stock, rsv int
		if err := session.Query(`SELECT stock, stock_reserved FROM products WHERE product_id = ?`,
			item.ProductID).WithContext(ctx).Scan(&stock, &rsv); err != nil {
			return fmt.Errorf("lecture stock %s: %w", item.ProductID, err)
		}

		if stock-rsv < item.Quantity {
			return models.ErrInsufficientStock
		}

		var prev int
		applied, err := session.Query(`UPDATE products SET stock_reserved = ? WHERE product_id = ? IF stock_reserved = ?`,
			rsv+item.Quantity, item.ProductID, rsv).WithContext(ctx).ScanCAS(&prev)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
		// un autre checkout est passé entre la lecture et l'écriture, on relit
	}
	return models.ErrConflict
}

// unreserveOne débloque une quantité (rollback de réservation partielle)
func (l *ScyllaLedger) unreserveOne(ctx context.Context, session *gocql.Session, productID gocql.UUID, qty int) {
	for attempt := 0; attempt < casRetries; attempt++ {
		var rsv int
		if err := session.Query(`SELECT stock_reserved FROM products WHERE product_id = ?`,
			productID).WithContext(ctx).Scan(&rsv); err != nil {
			log.Printf("⚠️ Rollback réservation %s impossible: %v", productID, err)
			return
		}
		next := rsv - qty
		if next < 0 {
			next = 0
		}
		var prev int
		applied, err := session.Query(`UPDATE products SET stock_reserved = ? WHERE product_id = ? IF stock_reserved = ?`,
			next, productID, rsv).WithContext(ctx).ScanCAS(&prev)
		if err != nil {
			log.Printf("⚠️ Rollback réservation %s impossible: %v", productID, err)
			return
		}
		if applied {
			return
		}
	}
	log.Printf("⚠️ Rollback réservation %s abandonné après %d essais", productID, casRetries)
}

func (l *ScyllaLedger) Finalize(ctx context.Context, orderID gocql.UUID) error {
	return l.settle(ctx, orderID, models.ReservationReserved, models.ReservationFinalized)
}

func (l *ScyllaLedger) Release(ctx context.Context, orderID gocql.UUID) error {
	products, err := database.GetProductsSession()
	if err != nil {
		return err
	}
	orders, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	reservations, err := l.loadReservations(ctx, orders, orderID)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, r := range reservations {
		switch r.Status {
		case models.ReservationReserved:
			// Le CAS sur le statut rend la libération idempotente : si un
			// autre appel est passé avant, applied == false et on ne touche
			// pas au compteur une deuxième fois
			if l.flipReservation(ctx, orders, orderID, r.ProductID, models.ReservationReserved, models.ReservationReleased, now) {
				l.unreserveOne(ctx, products, r.ProductID, r.Quantity)
			}
		case models.ReservationFinalized:
			// Commande payée puis annulée : le stock décompté revient
			if l.flipReservation(ctx, orders, orderID, r.ProductID, models.ReservationFinalized, models.ReservationReleased, now) {
				l.adjustStock(ctx, products, r.ProductID, r.Quantity, "return", &orderID)
			}
		}
		// released : déjà libérée, no-op
	}
	return nil
}

// settle fait passer les réservations d'un statut à l'autre et applique le
// décompte de stock correspondant (transition paid)
func (l *ScyllaLedger) settle(ctx context.Context, orderID gocql.UUID, from, to string) error {
	products, err := database.GetProductsSession()
	if err != nil {
		return err
	}
	orders, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	reservations, err := l.loadReservations(ctx, orders, orderID)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, r := range reservations {
		if r.Status != from {
			continue
		}
		if !l.flipReservation(ctx, orders, orderID, r.ProductID, from, to, now) {
			continue // déjà traitée par une vérification concurrente
		}
		// décompte définitif : stock -= qty, stock_reserved -= qty
		l.finalizeStock(ctx, products, r.ProductID, r.Quantity, &orderID)
	}
	return nil
}

func (l *ScyllaLedger) loadReservations(ctx context.Context, session *gocql.Session, orderID gocql.UUID) ([]models.Reservation, error) {
	iter := session.Query(`SELECT product_id, quantity, status FROM order_reservations WHERE order_id = ?`,
		orderID).WithContext(ctx).Iter()

	var reservations []models.Reservation
	var r models.Reservation
	for iter.Scan(&r.ProductID, &r.Quantity, &r.Status) {
		r.OrderID = orderID
		reservations = append(reservations, r)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return reservations, nil
}

// flipReservation change le statut d'une ligne de réservation par CAS,
// retourne false si le statut attendu n'était plus là
func (l *ScyllaLedger) flipReservation(ctx context.Context, session *gocql.Session, orderID, productID gocql.UUID, from, to string, now time.Time) bool {
	var prev string
	applied, err := session.Query(`UPDATE order_reservations SET status = ?, updated_at = ? WHERE order_id = ? AND product_id = ? IF status = ?`,
		to, now, orderID, productID, from).WithContext(ctx).ScanCAS(&prev)
	if err != nil {
		log.Printf("❌ Erreur CAS réservation %s/%s: %v", orderID, productID, err)
		return false
	}
	return applied
}

// finalizeStock décompte stock et stock_reserved en une seule écriture CAS
func (l *ScyllaLedger) finalizeStock(ctx context.Context, session *gocql.Session, productID gocql.UUID, qty int, orderID *gocql.UUID) {
	for attempt := 0; attempt < casRetries; attempt++ {
		var stock, rsv int
		if err := session.Query(`SELECT stock, stock_reserved FROM products WHERE product_id = ?`,
			productID).WithContext(ctx).Scan(&stock, &rsv); err != nil {
			log.Printf("❌ Finalisation stock %s impossible: %v", productID, err)
			return
		}
		newStock := stock - qty
		newRsv := rsv - qty
		if newRsv < 0 {
			newRsv = 0
		}
		var prevStock, prevRsv int
		applied, err := session.Query(`UPDATE products SET stock = ?, stock_reserved = ? WHERE product_id = ? IF stock = ? AND stock_reserved = ?`,
			newStock, newRsv, productID, stock, rsv).WithContext(ctx).ScanCAS(&prevStock, &prevRsv)
		if err != nil {
			log.Printf("❌ Finalisation stock %s impossible: %v", productID, err)
			return
		}
		if applied {
			l.recordMovement(ctx, session, productID, -qty, stock, newStock, "sale", orderID)
			return
		}
	}
	log.Printf("⚠️ Finalisation stock %s abandonnée après %d essais", productID, casRetries)
}

// adjustStock rend une quantité au stock (annulation après paiement)
func (l *ScyllaLedger) adjustStock(ctx context.Context, session *gocql.Session, productID gocql.UUID, qty int, movementType string, orderID *gocql.UUID) {
	for attempt := 0; attempt < casRetries; attempt++ {
		var stock int
		if err := session.Query(`SELECT stock FROM products WHERE product_id = ?`,
			productID).WithContext(ctx).Scan(&stock); err != nil {
			log.Printf("❌ Restauration stock %s impossible: %v", productID, err)
			return
		}
		var prev int
		applied, err := session.Query(`UPDATE products SET stock = ? WHERE product_id = ? IF stock = ?`,
			stock+qty, productID, stock).WithContext(ctx).ScanCAS(&prev)
		if err != nil {
			log.Printf("❌ Restauration stock %s impossible: %v", productID, err)
			return
		}
		if applied {
			l.recordMovement(ctx, session, productID, qty, stock, stock+qty, movementType, orderID)
			return
		}
	}
	log.Printf("⚠️ Restauration stock %s abandonnée après %d essais", productID, casRetries)
}

// recordMovement trace le mouvement dans stock_movements (piste d'audit)
func (l *ScyllaLedger) recordMovement(ctx context.Context, session *gocql.Session, productID gocql.UUID, qty, prevStock, newStock int, movementType string, orderID *gocql.UUID) {
	if err := session.Query(`
		INSERT INTO stock_movements (id, product_id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, gocql.TimeUUID(), productID, movementType, qty, prevStock, newStock, "order "+movementType, orderID, "", time.Now()).WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ Erreur enregistrement mouvement stock: %v", err)
	}
}
