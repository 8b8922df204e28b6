package order

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"orane_back_end/internal/models"
	"orane_back_end/internal/orders"
	"orane_back_end/internal/service"
	"orane_back_end/internal/utils"
)

// VerifyPayment valide manuellement une preuve de virement (Admin).
// Un écart de montant bloque : on ne passe jamais une commande en paid pour
// un montant différent de son total.
func VerifyPayment(c *gin.Context) {
	adminID := c.GetString("user_id")

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

	if order.PaymentStatus != models.PaymentStatusVerification {
		c.JSON(http.StatusConflict, gin.H{"error": "Aucune preuve de paiement en attente de vérification"})
		return
	}

	payment, err := latestPendingPayment(ctx, orderID)
	if err != nil || payment == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Aucune tentative de paiement à vérifier"})
		return
	}

	prevStatus, prevPayment := order.Status, order.PaymentStatus

	if err := orders.ApplyVerified(order, payment, adminID, time.Now()); err != nil {
		if errors.Is(err, models.ErrPaymentMismatch) {
			utils.RecordAudit(c, "verify_payment", "order", orderID.String(), false, "montant différent du total")
			c.JSON(http.StatusConflict, gin.H{
				"error":        "Le montant du paiement ne correspond pas au total de la commande",
				"paid_amount":  payment.Amount,
				"order_amount": order.TotalAmount,
			})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": "Cette commande n'attend plus de vérification"})
		return
	}

	applied, err := casOrderStatus(ctx, order, prevStatus, prevPayment)
	if err != nil {
		log.Printf("❌ Erreur persistance vérification commande %s: %v", order.OrderNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if !applied {
		c.JSON(http.StatusConflict, gin.H{"error": "La commande a été modifiée entre-temps, réessayez"})
		return
	}

	if err := updatePayment(ctx, payment); err != nil {
		log.Printf("⚠️ Statut paiement non mis à jour (commande %s): %v", order.OrderNumber, err)
	}

	// Le paiement validé rend la réservation définitive
	if err := ledger.Finalize(ctx, order.ID); err != nil {
		log.Printf("❌ Erreur finalisation stock commande %s: %v", order.OrderNumber, err)
	}

	utils.RecordAudit(c, "verify_payment", "order", orderID.String(), true, "")
	go service.IndexOrder(order)
	go utils.SendPaymentConfirmedEmail(order)
	publishOrderUpdate(order)

	log.Printf("✅ Paiement vérifié pour %s par %s", order.OrderNumber, adminID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Paiement vérifié, commande payée",
		"order":   order,
	})
}

// RejectPayment refuse une preuve de virement (Admin). La commande reste en
// pending avec le motif : le client peut soumettre une nouvelle preuve.
func RejectPayment(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required,min=5,max=500"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Motif de rejet requis"})
		return
	}

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

	payment, err := latestPendingPayment(ctx, orderID)
	if err != nil || payment == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Aucune tentative de paiement à rejeter"})
		return
	}

	prevStatus, prevPayment := order.Status, order.PaymentStatus

	if err := orders.ApplyRejected(order, payment, req.Reason, time.Now()); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Cette commande n'a pas de preuve en attente"})
		return
	}

	applied, err := casOrderStatus(ctx, order, prevStatus, prevPayment)
	if err != nil {
		log.Printf("❌ Erreur persistance rejet commande %s: %v", order.OrderNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if !applied {
		c.JSON(http.StatusConflict, gin.H{"error": "La commande a été modifiée entre-temps, réessayez"})
		return
	}

	if err := updatePayment(ctx, payment); err != nil {
		log.Printf("⚠️ Statut paiement non mis à jour (commande %s): %v", order.OrderNumber, err)
	}

	utils.RecordAudit(c, "reject_payment", "order", orderID.String(), true, req.Reason)
	go service.IndexOrder(order)
	publishOrderUpdate(order)

	log.Printf("⚠️ Preuve de paiement rejetée pour %s: %s", order.OrderNumber, req.Reason)
	c.JSON(http.StatusOK, gin.H{
		"message": "Preuve de paiement rejetée",
		"order":   order,
	})
}
