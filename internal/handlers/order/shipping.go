package order

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"orane_back_end/internal/rates"
)

// GetShippingOptions retourne les options de livraison pour un montant de
// panier donné (la livraison standard devient gratuite au-dessus du seuil)
func GetShippingOptions(c *gin.Context) {
	cartTotal, err := strconv.ParseFloat(c.Query("cart_total"), 64)
	if err != nil || cartTotal < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Montant du panier invalide"})
		return
	}

	provider := rates.NewEnvProvider()
	c.JSON(http.StatusOK, provider.ShippingOptions(cartTotal))
}
