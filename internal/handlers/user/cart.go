package user

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"orane_back_end/internal/cache"
	"orane_back_end/internal/database"
	"orane_back_end/internal/models"
)

// Le panier vit entièrement dans Redis (clé cart:<userID>, JSON, TTL 30
// jours). Aucune ligne n'est un engagement : prix et stock sont revalidés au
// checkout.

func cartKey(userID string) string { return "cart:" + userID }

func readCart(ctx context.Context, userID string) *models.Cart {
	cart := &models.Cart{UserID: userID}
	data, err := database.Redis.Get(ctx, cartKey(userID)).Result()
	if err != nil || data == "" {
		return cart
	}
	json.Unmarshal([]byte(data), &cart.Items)
	return cart
}

// writeCart persiste le panier et notifie les sessions WebSocket ouvertes.
// Toute écriture invalide le marqueur de conversion : un nouveau panier
// démarre, le précédent est déjà parti en commande.
func writeCart(ctx context.Context, cart *models.Cart, event string) {
	pipe := database.Redis.Pipeline()
	if cart.IsEmpty() {
		pipe.Del(ctx, cartKey(cart.UserID))
	} else {
		jsonData, _ := json.Marshal(cart.Items)
		pipe.Set(ctx, cartKey(cart.UserID), jsonData, models.CartTTL)
	}
	pipe.Del(ctx, cartKey(cart.UserID)+":converted")
	pipe.Publish(ctx, "cart:"+cart.UserID, event)
	pipe.Exec(ctx)
}

func cartResponse(cart *models.Cart) gin.H {
	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return gin.H{
		"items": items,
		"total": cart.Total(),
		"count": len(items),
	}
}

// GetCart récupère le panier (seulement Redis, jamais ScyllaDB)
func GetCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	cart := readCart(c.Request.Context(), userID)
	c.JSON(http.StatusOK, cartResponse(cart))
}

// AddToCart ajoute un produit au panier. Le prix affiché vient du catalogue
// au moment de l'ajout — il sera refigé au checkout.
func AddToCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	var input struct {
		ProductID string `json:"productId" binding:"required"`
		Quantity  int    `json:"quantity" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	productID, err := uuid.Parse(input.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	ctx := c.Request.Context()

	product, err := cache.GetProduct(ctx, productID.String())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	if !product.IsActive {
		c.JSON(http.StatusConflict, gin.H{"error": "Ce produit n'est plus disponible"})
		return
	}

	cart := readCart(ctx, userID)

	// Quantité cumulée bornée par le stock vendable (réservations déduites)
	requested := input.Quantity
	for _, line := range cart.Items {
		if line.ProductID == input.ProductID {
			requested += line.Quantity
		}
	}
	if requested > product.Available() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Stock insuffisant",
			"available": product.Available(),
			"requested": requested,
		})
		return
	}

	imageURL := ""
	if len(product.ImageURLs) > 0 {
		imageURL = product.ImageURLs[0]
	}

	if err := cart.AddItem(models.CartItem{
		ProductID: input.ProductID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  input.Quantity,
		ImageURL:  imageURL,
	}); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	writeCart(ctx, cart, "updated")

	resp := cartResponse(cart)
	resp["message"] = "Produit ajouté au panier"
	c.JSON(http.StatusOK, resp)
}

// UpdateCartQuantity met à jour la quantité d'une ligne (0 = suppression)
func UpdateCartQuantity(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	productID := c.Param("productId")

	var input struct {
		Quantity *int `json:"quantity" binding:"required,min=0"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	ctx := c.Request.Context()

	cart := readCart(ctx, userID)
	if cart.IsEmpty() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Panier vide"})
		return
	}

	if !cart.UpdateQuantity(productID, *input.Quantity) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable dans le panier"})
		return
	}

	writeCart(ctx, cart, "updated")

	resp := cartResponse(cart)
	resp["message"] = "Quantité mise à jour"
	c.JSON(http.StatusOK, resp)
}

// RemoveFromCart supprime une ligne du panier
func RemoveFromCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	productID := c.Param("productId")
	ctx := c.Request.Context()

	cart := readCart(ctx, userID)
	if cart.IsEmpty() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Panier vide"})
		return
	}

	if !cart.RemoveItem(productID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit non trouvé dans le panier"})
		return
	}

	writeCart(ctx, cart, "updated")

	resp := cartResponse(cart)
	resp["message"] = "Produit supprimé du panier"
	c.JSON(http.StatusOK, resp)
}

// ClearCart vide le panier
func ClearCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	ctx := c.Request.Context()

	cart := readCart(ctx, userID)
	cart.Clear()
	writeCart(ctx, cart, "cleared")

	resp := cartResponse(cart)
	resp["message"] = "Panier vidé avec succès"
	c.JSON(http.StatusOK, resp)
}
