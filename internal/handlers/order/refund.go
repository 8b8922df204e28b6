package order

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/refund"

	"orane_back_end/internal/database"
	"orane_back_end/internal/models"
	"orane_back_end/internal/orders"
	"orane_back_end/internal/service"
	"orane_back_end/internal/utils"
)

// RequestRefund permet à un utilisateur de demander un remboursement
func RequestRefund(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required,min=10,max=500"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	order, ok := loadOwnOrder(c)
	if !ok {
		return
	}

	if !order.CanBeRefunded() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cette commande n'est pas éligible au remboursement"})
		return
	}

	ctx := c.Request.Context()

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// Une seule demande par commande
	var existingRefundID gocql.UUID
	if err := session.Query(`SELECT refund_id FROM refunds WHERE order_id = ? ALLOW FILTERING`, order.ID).
		WithContext(ctx).Scan(&existingRefundID); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Une demande de remboursement existe déjà pour cette commande"})
		return
	}

	ref := models.Refund{
		ID:           gocql.TimeUUID(),
		OrderID:      order.ID,
		UserID:       order.UserID,
		Reason:       req.Reason,
		Status:       "pending",
		RefundAmount: order.TotalAmount,
		CreatedAt:    time.Now(),
	}

	if err := session.Query(`
		INSERT INTO refunds (refund_id, order_id, user_id, reason, status, refund_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ref.ID, ref.OrderID, ref.UserID, ref.Reason, ref.Status, ref.RefundAmount, ref.CreatedAt).
		WithContext(ctx).Exec(); err != nil {
		log.Printf("❌ Erreur création demande remboursement: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création demande"})
		return
	}

	log.Printf("💰 Demande de remboursement créée: %s pour commande %s", ref.ID, order.OrderNumber)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Demande de remboursement créée",
		"refund":  ref,
	})
}

// ProcessRefund approuve ou rejette une demande de remboursement (Admin).
// Approbation : remboursement Stripe si la commande a été payée par carte,
// passage de la commande en refunded et restauration du stock vendu.
func ProcessRefund(c *gin.Context) {
	adminID := c.GetString("user_id")

	refundID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID remboursement invalide"})
		return
	}

	var req struct {
		Action string `json:"action" binding:"required,oneof=approve reject"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Action invalide (approve ou reject)"})
		return
	}

	ctx := c.Request.Context()

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var ref models.Refund
	ref.ID = refundID
	if err := session.Query(`SELECT order_id, user_id, reason, status, refund_amount FROM refunds WHERE refund_id = ?`,
		refundID).WithContext(ctx).Scan(&ref.OrderID, &ref.UserID, &ref.Reason, &ref.Status, &ref.RefundAmount); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Demande de remboursement introuvable"})
		return
	}

	if ref.Status != "pending" {
		c.JSON(http.StatusConflict, gin.H{"error": "Cette demande a déjà été traitée"})
		return
	}

	now := time.Now()

	if req.Action == "reject" {
		if err := session.Query(`UPDATE refunds SET status = ?, updated_at = ? WHERE refund_id = ?`,
			"rejected", now, refundID).WithContext(ctx).Exec(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour"})
			return
		}
		utils.RecordAudit(c, "reject_refund", "refund", refundID.String(), true, req.Note)
		c.JSON(http.StatusOK, gin.H{"message": "Demande de remboursement rejetée"})
		return
	}

	order, err := loadOrder(ctx, ref.OrderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	prevStatus, prevPayment := order.Status, order.PaymentStatus

	if err := orders.ApplyRefunded(order, "Remboursement approuvé", now); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Cette commande n'est plus remboursable"})
		return
	}

	// Remboursement Stripe pour les paiements carte ; les virements sont
	// remboursés manuellement par la comptabilité
	var stripeRefundID string
	if order.PaymentDetails.Method == "card" && order.PaymentDetails.TransactionID != "" {
		params := &stripe.RefundParams{
			PaymentIntent: stripe.String(order.PaymentDetails.TransactionID),
		}
		r, err := refund.New(params)
		if err != nil {
			log.Printf("❌ Erreur remboursement Stripe commande %s: %v", order.OrderNumber, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Erreur remboursement Stripe"})
			return
		}
		stripeRefundID = r.ID
	}

	applied, err := casOrderStatus(ctx, order, prevStatus, prevPayment)
	if err != nil || !applied {
		log.Printf("⚠️ Persistance remboursement %s non appliquée (applied=%v, err=%v)", refundID, applied, err)
		c.JSON(http.StatusConflict, gin.H{"error": "La commande a été modifiée entre-temps"})
		return
	}

	if err := session.Query(`UPDATE refunds SET status = ?, stripe_refund_id = ?, updated_at = ? WHERE refund_id = ?`,
		"completed", stripeRefundID, now, refundID).WithContext(ctx).Exec(); err != nil {
		log.Printf("⚠️ Statut remboursement non mis à jour (%s): %v", refundID, err)
	}

	// Les articles vendus retournent au stock
	if err := ledger.Release(ctx, order.ID); err != nil {
		log.Printf("❌ Erreur restauration stock commande %s: %v", order.OrderNumber, err)
	}

	utils.RecordAudit(c, "approve_refund", "refund", refundID.String(), true, req.Note)
	go service.IndexOrder(order)
	go utils.SendRefundProcessedEmail(order, ref.RefundAmount)
	publishOrderUpdate(order)

	log.Printf("💰 Remboursement %s approuvé par %s (%.2f€)", refundID, adminID, ref.RefundAmount)

	c.JSON(http.StatusOK, gin.H{
		"message":          "Remboursement effectué",
		"stripe_refund_id": stripeRefundID,
		"order":            order,
	})
}

// GetMyRefunds liste les demandes de remboursement de l'utilisateur connecté
func GetMyRefunds(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT refund_id, order_id, reason, status, refund_amount, stripe_refund_id, created_at
		FROM refunds WHERE user_id = ? ALLOW FILTERING`, userID).WithContext(c.Request.Context()).Iter()

	var refunds []models.Refund
	var ref models.Refund
	for iter.Scan(&ref.ID, &ref.OrderID, &ref.Reason, &ref.Status, &ref.RefundAmount, &ref.StripeRefundID, &ref.CreatedAt) {
		ref.UserID = userID
		refunds = append(refunds, ref)
	}
	if err := iter.Close(); err != nil {
		log.Printf("❌ Erreur récupération remboursements: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"refunds": refunds, "total": len(refunds)})
}

// GetAllRefunds liste toutes les demandes de remboursement (Admin)
func GetAllRefunds(c *gin.Context) {
	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT refund_id, order_id, user_id, reason, status, refund_amount, stripe_refund_id, created_at
		FROM refunds`).WithContext(c.Request.Context()).Iter()

	var refunds []models.Refund
	var ref models.Refund
	for iter.Scan(&ref.ID, &ref.OrderID, &ref.UserID, &ref.Reason, &ref.Status, &ref.RefundAmount, &ref.StripeRefundID, &ref.CreatedAt) {
		refunds = append(refunds, ref)
	}
	if err := iter.Close(); err != nil {
		log.Printf("❌ Erreur récupération remboursements: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"refunds": refunds, "total": len(refunds)})
}
