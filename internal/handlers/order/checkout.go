package order

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"

	"orane_back_end/internal/database"
	"orane_back_end/internal/inventory"
	"orane_back_end/internal/models"
	"orane_back_end/internal/orders"
	"orane_back_end/internal/rates"
	"orane_back_end/internal/service"
	"orane_back_end/internal/utils"
)

// Ledger de stock partagé par tous les handlers de commande
var ledger inventory.Ledger = inventory.NewScyllaLedger()

// Checkout convertit le panier Redis de l'utilisateur en commande.
// Le panier est figé ligne par ligne au prix catalogue courant, le stock est
// réservé en tout-ou-rien, puis le panier est supprimé. Une conversion qui
// échoue à la réservation laisse une commande en statut failed — trace
// visible, jamais re-tentée automatiquement.
func Checkout(c *gin.Context) {
	var req struct {
		ShippingAddress models.Address `json:"shipping_address" binding:"required"`
		CouponCode      string         `json:"coupon_code"`
		ShippingOption  string         `json:"shipping_option"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	userID := c.GetString("user_id")
	email := c.GetString("email")
	if userID == "" || email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	if req.ShippingAddress.Line1 == "" || req.ShippingAddress.City == "" || req.ShippingAddress.Country == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Adresse de livraison incomplète"})
		return
	}

	if req.ShippingOption == "" {
		req.ShippingOption = "standard"
	}

	ctx := c.Request.Context()

	// ✅ 1. Récupérer le panier depuis Redis
	cart, err := loadCart(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrCartConverted) {
			c.JSON(http.StatusConflict, gin.H{"error": "Panier déjà converti en commande"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide ou introuvable"})
		return
	}

	// ✅ 2. Figer les lignes au prix catalogue courant
	draft, err := snapshotCart(ctx, cart)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
		return
	}

	// Lignes exclues (produit retiré, inactif, rupture) : on re-présente au
	// client au lieu de facturer un montant différent de ce qu'il a vu
	if len(draft.Dropped) > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error":         "Certains articles ne sont plus disponibles",
			"dropped_items": draft.Dropped,
		})
		return
	}

	// ✅ 3. Valider et appliquer le coupon (si fourni)
	var discount float64
	var coupon *models.Coupon

	if req.CouponCode != "" {
		var validation models.CouponValidation
		coupon, validation = checkCoupon(ctx, req.CouponCode, userID, draft.Items)
		if !validation.IsValid {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.ErrorMessage})
			return
		}
		discount = validation.Discount
		log.Printf("✅ Coupon appliqué: %s (%.2f€ de réduction)", validation.Code, discount)
	}

	// ✅ 4. Tarification : frais de port et taxe viennent du fournisseur de
	// taux, le cœur ne fait qu'additionner
	provider := rates.NewEnvProvider()

	var subtotal float64
	for _, item := range draft.Items {
		subtotal += item.Subtotal
	}

	shippingOpt, ok := provider.Option(req.ShippingOption, subtotal)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Option de livraison invalide"})
		return
	}

	taxRate := provider.TaxRate(req.ShippingAddress.Country)
	tax := math.Round((subtotal-discount)*taxRate*100) / 100
	if tax < 0 {
		tax = 0
	}

	totals := orders.ComputeTotals(draft.Items, shippingOpt.Price, tax, discount)
	if totals.Clamped {
		log.Printf("⚠️ Total négatif ramené à 0 (user %s, coupon %s) — config tarifaire à vérifier", userID, req.CouponCode)
	}

	// ✅ 5. Créer la commande en pending
	now := time.Now()
	order := &models.Order{
		ID:              gocql.TimeUUID(),
		OrderNumber:     orders.NewOrderNumber(now),
		UserID:          userID,
		Email:           email,
		Items:           draft.Items,
		ShippingAddress: req.ShippingAddress,
		Subtotal:        totals.Subtotal,
		ShippingCost:    shippingOpt.Price,
		Tax:             totals.Tax,
		Discount:        discount,
		TotalAmount:     totals.Total,
		Status:          models.StatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if coupon != nil {
		order.CouponCode = coupon.Code
	}

	if err := insertOrder(ctx, order); err != nil {
		log.Printf("❌ Erreur création commande: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création commande"})
		return
	}

	// ✅ 6. Réserver le stock (tout-ou-rien)
	if err := ledger.Reserve(ctx, order.ID, order.Items); err != nil {
		failOrder(ctx, order)

		if errors.Is(err, models.ErrInsufficientStock) {
			c.JSON(http.StatusConflict, gin.H{"error": "Stock insuffisant"})
			return
		}
		log.Printf("❌ Erreur réservation stock commande %s: %v", order.OrderNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur réservation stock"})
		return
	}

	// ✅ 7. Consommer le coupon (CAS sur le compteur global)
	if coupon != nil {
		if err := recordCouponUsage(ctx, coupon, userID, order.ID); err != nil {
			ledger.Release(ctx, order.ID)
			failOrder(ctx, order)

			if errors.Is(err, models.ErrConflict) {
				c.JSON(http.StatusConflict, gin.H{"error": "Ce coupon a atteint sa limite d'utilisation"})
				return
			}
			log.Printf("❌ Erreur enregistrement coupon %s: %v", coupon.Code, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur application coupon"})
			return
		}
	}

	// ✅ 8. Marquer le panier converti puis le supprimer
	markCartConverted(ctx, userID, order.ID)

	// Indexation et email en asynchrone, la commande est déjà persistée
	go service.IndexOrder(order)
	go utils.SendOrderConfirmationEmail(order)
	publishOrderUpdate(order)

	log.Printf("🧾 Commande %s créée (%.2f€, %d articles) pour %s", order.OrderNumber, order.TotalAmount, len(order.Items), email)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Commande créée avec succès",
		"order":   order,
	})
}

// failOrder marque la commande failed après un échec de réservation ou de
// coupon. Micro-état de compensation : terminal, jamais repris.
func failOrder(ctx context.Context, o *models.Order) {
	prev := o.Status
	o.Status = models.StatusFailed
	o.UpdatedAt = time.Now()
	if _, err := casOrderStatus(ctx, o, prev, o.PaymentStatus); err != nil {
		log.Printf("⚠️ Impossible de marquer la commande %s en failed: %v", o.OrderNumber, err)
	}
}

// ----- Panier Redis -----

func cartKey(userID string) string { return "cart:" + userID }

func loadCart(ctx context.Context, userID string) (*models.Cart, error) {
	data, err := database.Redis.Get(ctx, cartKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) && convertedOrderID(ctx, userID) != "" {
			return nil, models.ErrCartConverted
		}
		return nil, err
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, err
	}
	return &models.Cart{UserID: userID, Items: items}, nil
}

func snapshotCart(ctx context.Context, cart *models.Cart) (*orders.Draft, error) {
	return orders.Snapshot(ctx, cart, scyllaCatalog{})
}

// markCartConverted supprime le panier et pose un marqueur : un second
// checkout sur le même panier renvoie un conflit au lieu d'une commande
// dupliquée.
func markCartConverted(ctx context.Context, userID string, orderID gocql.UUID) {
	pipe := database.Redis.Pipeline()
	pipe.Del(ctx, cartKey(userID))
	pipe.Set(ctx, cartKey(userID)+":converted", orderID.String(), 24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("⚠️ Erreur suppression panier après conversion (user %s): %v", userID, err)
	}
}

// convertedOrderID retourne l'ID de la commande issue du dernier panier
// converti, "" sinon
func convertedOrderID(ctx context.Context, userID string) string {
	id, err := database.Redis.Get(ctx, cartKey(userID)+":converted").Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️ Erreur lecture marqueur de conversion (user %s): %v", userID, err)
		}
		return ""
	}
	return id
}
