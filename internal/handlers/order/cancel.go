package order

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"orane_back_end/internal/database"
	"orane_back_end/internal/models"
	"orane_back_end/internal/orders"
	"orane_back_end/internal/service"
	"orane_back_end/internal/utils"
)

// CancelOrder annule une commande de l'utilisateur connecté. Possible tant
// que la commande n'est pas partie en préparation (pending ou paid).
func CancelOrder(c *gin.Context) {
	order, ok := loadOwnOrder(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "Annulée par le client"
	}

	if err := cancelOrder(c.Request.Context(), order, req.Reason); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Cette commande ne peut plus être annulée"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Commande annulée",
		"order":   order,
	})
}

// AdminCancelOrder annule n'importe quelle commande annulable (Admin)
func AdminCancelOrder(c *gin.Context) {
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	ctx := c.Request.Context()

	order, err := loadOrder(ctx, orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Motif d'annulation requis"})
		return
	}

	if err := cancelOrder(ctx, order, req.Reason); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Cette commande ne peut plus être annulée"})
		return
	}

	utils.RecordAudit(c, "cancel_order", "order", orderID.String(), true, req.Reason)
	c.JSON(http.StatusOK, gin.H{
		"message": "Commande annulée",
		"order":   order,
	})
}

// cancelOrder : chemin d'annulation unique — client, admin et sweeper
// d'expiration passent tous ici. Libère la réservation de stock (idempotent,
// restaure le stock si la commande était déjà payée).
func cancelOrder(ctx context.Context, order *models.Order, reason string) error {
	prevStatus, prevPayment := order.Status, order.PaymentStatus

	if err := orders.ApplyCancelled(order, reason, time.Now()); err != nil {
		return err
	}

	applied, err := casOrderStatus(ctx, order, prevStatus, prevPayment)
	if err != nil {
		return err
	}
	if !applied {
		return models.ErrConflict
	}

	if err := ledger.Release(ctx, order.ID); err != nil {
		log.Printf("❌ Erreur libération stock commande %s: %v", order.OrderNumber, err)
	}

	go service.IndexOrder(order)
	go utils.SendOrderCancelledEmail(order)
	publishOrderUpdate(order)

	log.Printf("🧹 Commande %s annulée: %s", order.OrderNumber, reason)
	return nil
}

// StartExpirySweeper annule périodiquement les commandes pending jamais
// payées. Même chemin que l'annulation manuelle : la réservation de stock
// retourne au vendable.
func StartExpirySweeper() {
	interval := 15 * time.Minute
	maxAge := 48 * time.Hour
	if v, err := strconv.Atoi(os.Getenv("ORDER_EXPIRY_HOURS")); err == nil && v > 0 {
		maxAge = time.Duration(v) * time.Hour
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			sweepExpiredOrders(maxAge)
		}
	}()

	log.Printf("⏰ Sweeper d'expiration démarré (commandes pending > %s)", maxAge)
}

func sweepExpiredOrders(maxAge time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session, err := database.GetOrdersSession()
	if err != nil {
		log.Printf("⚠️ Sweeper: connexion impossible: %v", err)
		return
	}

	cutoff := time.Now().Add(-maxAge)

	iter := session.Query(`SELECT order_id, created_at FROM orders WHERE status = ? ALLOW FILTERING`,
		models.StatusPending).WithContext(ctx).Iter()

	var expired []gocql.UUID
	var orderID gocql.UUID
	var createdAt time.Time
	for iter.Scan(&orderID, &createdAt) {
		if createdAt.Before(cutoff) {
			expired = append(expired, orderID)
		}
	}
	if err := iter.Close(); err != nil {
		log.Printf("⚠️ Sweeper: lecture commandes échouée: %v", err)
		return
	}

	for _, id := range expired {
		order, err := loadOrder(ctx, id)
		if err != nil {
			continue
		}
		if err := cancelOrder(ctx, order, "Expirée sans paiement"); err != nil {
			// Déjà payée ou annulée entre la lecture et l'annulation
			continue
		}
	}

	if len(expired) > 0 {
		log.Printf("🧹 Sweeper: %d commande(s) expirée(s) annulée(s)", len(expired))
	}
}
