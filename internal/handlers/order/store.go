package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"orane_back_end/internal/database"
	"orane_back_end/internal/models"
)

// Les colonnes composées (items, adresse, détails paiement, tracking) sont
// stockées en JSON dans des colonnes text — une commande se lit et s'écrit
// d'un bloc, jamais champ par champ.

func loadOrder(ctx context.Context, orderID gocql.UUID) (*models.Order, error) {
	stmt := database.GetPreparedGetOrderByID()
	if stmt == nil {
		return nil, gocql.ErrNoConnections
	}

	var (
		o                                   models.Order
		itemsJSON, addressJSON, detailsJSON string
		trackingJSON                        string
	)

	err := database.BindPrepared(ctx, stmt, orderID).Scan(
		&o.OrderNumber, &o.UserID, &o.Email, &itemsJSON, &addressJSON,
		&o.Subtotal, &o.ShippingCost, &o.Tax, &o.Discount, &o.TotalAmount, &o.CouponCode,
		&o.Status, &o.PaymentStatus, &o.PaymentMethod, &detailsJSON, &trackingJSON,
		&o.CancelReason, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	o.ID = orderID
	if itemsJSON != "" {
		if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
			return nil, fmt.Errorf("décodage items commande %s: %w", orderID, err)
		}
	}
	if addressJSON != "" {
		json.Unmarshal([]byte(addressJSON), &o.ShippingAddress)
	}
	if detailsJSON != "" {
		json.Unmarshal([]byte(detailsJSON), &o.PaymentDetails)
	}
	if trackingJSON != "" {
		json.Unmarshal([]byte(trackingJSON), &o.Tracking)
	}
	return &o, nil
}

func insertOrder(ctx context.Context, o *models.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	itemsJSON, _ := json.Marshal(o.Items)
	addressJSON, _ := json.Marshal(o.ShippingAddress)
	detailsJSON, _ := json.Marshal(o.PaymentDetails)
	trackingJSON, _ := json.Marshal(o.Tracking)

	if err := session.Query(`
		INSERT INTO orders (order_id, order_number, user_id, email, items, shipping_address,
			subtotal, shipping_cost, tax, discount, total_amount, coupon_code,
			status, payment_status, payment_method, payment_details, tracking,
			cancel_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.OrderNumber, o.UserID, o.Email, string(itemsJSON), string(addressJSON),
		o.Subtotal, o.ShippingCost, o.Tax, o.Discount, o.TotalAmount, o.CouponCode,
		o.Status, o.PaymentStatus, o.PaymentMethod, string(detailsJSON), string(trackingJSON),
		o.CancelReason, o.CreatedAt, o.UpdatedAt).WithContext(ctx).Exec(); err != nil {
		return err
	}

	// Table dénormalisée pour les listings par utilisateur
	return session.Query(`
		INSERT INTO orders_by_user (user_id, order_id, order_number, status, payment_status, total_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, o.UserID, o.ID, o.OrderNumber, o.Status, o.PaymentStatus, o.TotalAmount, o.CreatedAt).
		WithContext(ctx).Exec()
}

// casOrderStatus persiste les champs mutables de la commande avec une
// condition sur le statut lu juste avant — deux vérifications concurrentes
// ne peuvent pas toutes les deux passer paid → paid.
func casOrderStatus(ctx context.Context, o *models.Order, prevStatus, prevPaymentStatus string) (bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, err
	}

	detailsJSON, _ := json.Marshal(o.PaymentDetails)
	trackingJSON, _ := json.Marshal(o.Tracking)

	var curStatus, curPayment string
	applied, err := session.Query(`
		UPDATE orders SET status = ?, payment_status = ?, payment_method = ?,
			payment_details = ?, tracking = ?, cancel_reason = ?, updated_at = ?
		WHERE order_id = ? IF status = ? AND payment_status = ?
	`, o.Status, o.PaymentStatus, o.PaymentMethod,
		string(detailsJSON), string(trackingJSON), o.CancelReason, o.UpdatedAt,
		o.ID, prevStatus, prevPaymentStatus).WithContext(ctx).ScanCAS(&curStatus, &curPayment)
	if err != nil {
		return false, err
	}
	if !applied {
		return false, nil
	}

	// La table par utilisateur n'est pas dans la condition : simple reflet
	if err := session.Query(`UPDATE orders_by_user SET status = ?, payment_status = ? WHERE user_id = ? AND order_id = ?`,
		o.Status, o.PaymentStatus, o.UserID, o.ID).WithContext(ctx).Exec(); err != nil {
		return true, err
	}
	return true, nil
}

// countUserOrders : nombre de commandes déjà passées par un client
// (restriction coupon "nouveaux clients")
func countUserOrders(ctx context.Context, userID string) (int, error) {
	stmt := database.GetPreparedCountOrdersByUser()
	if stmt == nil {
		return 0, gocql.ErrNoConnections
	}
	var count int
	if err := database.BindPrepared(ctx, stmt, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ----- Paiements -----

func insertPayment(ctx context.Context, p *models.Payment) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(`
		INSERT INTO payments (payment_id, order_id, user_id, amount, method, status,
			transaction_id, proof_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.OrderID, p.UserID, p.Amount, p.Method, p.Status,
		p.TransactionID, p.ProofURL, p.CreatedAt, p.UpdatedAt).WithContext(ctx).Exec()
}

func updatePayment(ctx context.Context, p *models.Payment) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(`UPDATE payments SET status = ?, transaction_id = ?, updated_at = ? WHERE payment_id = ?`,
		p.Status, p.TransactionID, p.UpdatedAt, p.ID).WithContext(ctx).Exec()
}

// latestPendingPayment retourne la dernière tentative en attente d'une commande
func latestPendingPayment(ctx context.Context, orderID gocql.UUID) (*models.Payment, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	iter := session.Query(`SELECT payment_id, user_id, amount, method, status, transaction_id, proof_url, created_at
		FROM payments WHERE order_id = ? ALLOW FILTERING`, orderID).WithContext(ctx).Iter()

	var result *models.Payment
	var p models.Payment
	for iter.Scan(&p.ID, &p.UserID, &p.Amount, &p.Method, &p.Status, &p.TransactionID, &p.ProofURL, &p.CreatedAt) {
		if p.Status != models.PaymentPending {
			continue
		}
		if result == nil || p.CreatedAt.After(result.CreatedAt) {
			cp := p
			cp.OrderID = orderID
			result = &cp
		}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return result, nil
}

// Variables pour pouvoir substituer le stockage des claims dans les tests
var (
	claimTransaction   = claimTransactionScylla
	releaseTransaction = releaseTransactionScylla
)

// claimTransactionScylla réserve un transaction id externe. INSERT ... IF NOT
// EXISTS garantit l'unicité : un webhook rejoué reçoit ErrDuplicatePayment
// et est ignoré au lieu de créditer deux fois. MapScanCAS, pas ScanCAS : sur
// un doublon la ligne existante revient en entier et ScanCAS échouerait sur
// le nombre de colonnes.
func claimTransactionScylla(ctx context.Context, transactionID string, orderID gocql.UUID) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	applied, err := session.Query(`
		INSERT INTO payments_by_transaction (transaction_id, order_id, created_at)
		VALUES (?, ?, ?) IF NOT EXISTS
	`, transactionID, orderID, time.Now()).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return err
	}
	if !applied {
		return models.ErrDuplicatePayment
	}
	return nil
}

// releaseTransactionScylla rend un transaction id réclamé. Appelé quand la
// confirmation n'a pas pu être appliquée après le claim : sans ça, le retry
// Stripe serait pris pour un doublon et la commande jamais créditée.
func releaseTransactionScylla(ctx context.Context, transactionID string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(`DELETE FROM payments_by_transaction WHERE transaction_id = ?`,
		transactionID).WithContext(ctx).Exec()
}
