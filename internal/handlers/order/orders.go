package order

import (
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"orane_back_end/internal/database"
)

// OrderSummary : ligne de listing, sans les colonnes JSON lourdes
type OrderSummary struct {
	ID            gocql.UUID `json:"id"`
	OrderNumber   string     `json:"order_number"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	TotalAmount   float64    `json:"total_amount"`
	CreatedAt     time.Time  `json:"created_at"`
}

// GetMyOrders récupère toutes les commandes de l'utilisateur connecté
func GetMyOrders(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	stmt := database.GetPreparedGetOrdersByUser()
	if stmt == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := database.BindPrepared(c.Request.Context(), stmt, userID).Iter()

	var summaries []OrderSummary
	var s OrderSummary
	for iter.Scan(&s.ID, &s.OrderNumber, &s.Status, &s.PaymentStatus, &s.TotalAmount, &s.CreatedAt) {
		summaries = append(summaries, s)
	}
	if err := iter.Close(); err != nil {
		log.Println("❌ Erreur récupération commandes:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commandes"})
		return
	}

	// Les plus récentes d'abord
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})

	log.Printf("✅ %d commandes trouvées pour user %s", len(summaries), userID)

	c.JSON(http.StatusOK, gin.H{
		"orders": summaries,
		"total":  len(summaries),
	})
}

// GetOrderByID récupère une commande complète de l'utilisateur connecté
func GetOrderByID(c *gin.Context) {
	order, ok := loadOwnOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

// AdminGetOrder récupère n'importe quelle commande (Admin)
func AdminGetOrder(c *gin.Context) {
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	order, err := loadOrder(c.Request.Context(), orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	c.JSON(http.StatusOK, order)
}
