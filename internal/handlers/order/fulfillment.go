package order

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"orane_back_end/internal/models"
	"orane_back_end/internal/service"
	"orane_back_end/internal/utils"
)

// StartProcessing passe une commande payée en préparation (Admin)
func StartProcessing(c *gin.Context) {
	transitionOrder(c, models.StatusProcessing, func(o *models.Order, now time.Time) {})
}

// ShipOrder expédie une commande en préparation (Admin). Transporteur et
// numéro de suivi sont enregistrés sur la commande.
func ShipOrder(c *gin.Context) {
	var req struct {
		Carrier        string `json:"carrier" binding:"required"`
		TrackingNumber string `json:"tracking_number" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Transporteur et numéro de suivi requis"})
		return
	}

	transitionOrder(c, models.StatusShipped, func(o *models.Order, now time.Time) {
		o.Tracking.Carrier = req.Carrier
		o.Tracking.TrackingNumber = req.TrackingNumber
		o.Tracking.ShippedDate = &now
	})
}

// MarkDelivered clôture une commande expédiée (Admin)
func MarkDelivered(c *gin.Context) {
	transitionOrder(c, models.StatusDelivered, func(o *models.Order, now time.Time) {
		o.Tracking.DeliveredDate = &now
	})
}

// transitionOrder : squelette commun des transitions de préparation. La
// table des transitions tranche, le handler ne fait que persister.
func transitionOrder(c *gin.Context, target string, mutate func(*models.Order, time.Time)) {
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

	prevStatus, prevPayment := order.Status, order.PaymentStatus
	now := time.Now()

	if err := order.Transition(target); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":          "Transition de statut invalide",
			"current_status": order.Status,
			"target_status":  target,
		})
		return
	}

	mutate(order, now)
	order.UpdatedAt = now

	applied, err := casOrderStatus(ctx, order, prevStatus, prevPayment)
	if err != nil {
		log.Printf("❌ Erreur persistance transition %s → %s (%s): %v", prevStatus, target, order.OrderNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if !applied {
		c.JSON(http.StatusConflict, gin.H{"error": "La commande a été modifiée entre-temps, réessayez"})
		return
	}

	utils.RecordAudit(c, "order_status_"+target, "order", orderID.String(), true, "")
	go service.IndexOrder(order)
	if target == models.StatusShipped {
		go utils.SendOrderShippedEmail(order)
	}
	publishOrderUpdate(order)

	log.Printf("📦 Commande %s: %s → %s", order.OrderNumber, prevStatus, target)
	c.JSON(http.StatusOK, gin.H{
		"message": "Statut mis à jour",
		"order":   order,
	})
}
