package order

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"orane_back_end/internal/cache"
	"orane_back_end/internal/database"
	"orane_back_end/internal/service"
)

// GetDashboardStats retourne les statistiques commandes/stock du dashboard
// admin. Revenu = commandes réellement encaissées, jamais les pending.
func GetDashboardStats(c *gin.Context) {
	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var totalOrders int
	var totalRevenue float64
	statusCount := make(map[string]int)
	paymentCount := make(map[string]int)

	iter := session.Query(`SELECT status, payment_status, total_amount FROM orders`).
		WithContext(c.Request.Context()).Iter()
	var status, paymentStatus string
	var amount float64

	for iter.Scan(&status, &paymentStatus, &amount) {
		totalOrders++
		statusCount[status]++
		paymentCount[paymentStatus]++
		if paymentStatus == "paid" {
			totalRevenue += amount
		}
	}
	if err := iter.Close(); err != nil {
		log.Printf("❌ Erreur lecture stats: %v", err)
	}

	var averageOrderValue float64
	if paidCount := paymentCount["paid"]; paidCount > 0 {
		averageOrderValue = totalRevenue / float64(paidCount)
	}

	// Stock : réservé vs vendable
	productsSession, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var totalProducts, totalReserved int
	var lowStockIDs, outOfStockIDs []string

	prodIter := productsSession.Query(`SELECT product_id, stock, stock_reserved FROM products`).
		WithContext(c.Request.Context()).Iter()
	var productID gocql.UUID
	var stock, reserved int

	for prodIter.Scan(&productID, &stock, &reserved) {
		totalProducts++
		totalReserved += reserved
		available := stock - reserved
		if available <= 0 {
			outOfStockIDs = append(outOfStockIDs, productID.String())
		} else if available < 10 {
			lowStockIDs = append(lowStockIDs, productID.String())
		}
	}
	if err := prodIter.Close(); err != nil {
		log.Printf("❌ Erreur lecture produits: %v", err)
	}

	// Noms des produits à surveiller, pour affichage direct dans le dashboard
	alertNames := cache.GetProductNames(c.Request.Context(), append(lowStockIDs, outOfStockIDs...))

	// Remboursements en attente
	var totalRefunds, pendingRefunds int
	refundsIter := session.Query(`SELECT status FROM refunds`).WithContext(c.Request.Context()).Iter()
	var refundStatus string
	for refundsIter.Scan(&refundStatus) {
		totalRefunds++
		if refundStatus == "pending" {
			pendingRefunds++
		}
	}
	if err := refundsIter.Close(); err != nil {
		log.Printf("❌ Erreur lecture remboursements: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": gin.H{
			"total":               totalOrders,
			"total_revenue":       totalRevenue,
			"average_order_value": averageOrderValue,
			"by_status":           statusCount,
			"by_payment_status":   paymentCount,
		},
		"stock": gin.H{
			"total_products": totalProducts,
			"low_stock":      len(lowStockIDs),
			"out_of_stock":   len(outOfStockIDs),
			"total_reserved": totalReserved,
			"alerts":         stockAlerts(lowStockIDs, outOfStockIDs, alertNames),
		},
		"refunds": gin.H{
			"total":   totalRefunds,
			"pending": pendingRefunds,
		},
	})
}

// stockAlerts assemble les lignes d'alerte stock avec les noms résolus
func stockAlerts(lowStockIDs, outOfStockIDs []string, names map[string]string) []gin.H {
	alerts := []gin.H{}
	for _, id := range outOfStockIDs {
		alerts = append(alerts, gin.H{"product_id": id, "name": names[id], "level": "out_of_stock"})
	}
	for _, id := range lowStockIDs {
		alerts = append(alerts, gin.H{"product_id": id, "name": names[id], "level": "low_stock"})
	}
	return alerts
}

// SearchOrders recherche dans l'index Elasticsearch des commandes (Admin) :
// numéro, email client, statut
func SearchOrders(c *gin.Context) {
	query := c.Query("q")
	status := c.Query("status")
	size := 20
	if v, err := strconv.Atoi(c.Query("size")); err == nil && v > 0 && v <= 100 {
		size = v
	}

	results, total, err := service.SearchOrders(c.Request.Context(), query, status, size)
	if err != nil {
		log.Printf("❌ Erreur recherche commandes: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur recherche"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": results,
		"total":  total,
	})
}
