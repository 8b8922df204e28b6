package order

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"orane_back_end/internal/database"
	"orane_back_end/internal/models"
)

// Nombre de tentatives CAS avant d'abandonner avec ErrConflict
const casRetries = 5

// CreateCoupon - Créer un nouveau coupon (Admin seulement)
func CreateCoupon(c *gin.Context) {
	var req struct {
		Code             string    `json:"code" binding:"required"`
		Type             string    `json:"type" binding:"required"` // "percentage", "fixed"
		Value            float64   `json:"value" binding:"required"`
		MinAmount        float64   `json:"min_amount"`
		MaxAmount        *float64  `json:"max_amount"`
		MaxUses          int       `json:"max_uses"`
		MaxUsesPerUser   int       `json:"max_uses_per_user"`
		ApplicableToAll  bool      `json:"applicable_to_all"`
		ProductIDs       []string  `json:"product_ids"`
		CategoryIDs      []string  `json:"category_ids"`
		NewCustomersOnly bool      `json:"new_customers_only"`
		CustomerIDs      []string  `json:"customer_ids"`
		ExpiresAt        time.Time `json:"expires_at" binding:"required"`
		StartsAt         time.Time `json:"starts_at"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	if req.Type != "percentage" && req.Type != "fixed" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Type de coupon invalide"})
		return
	}

	if req.Type == "percentage" && (req.Value <= 0 || req.Value > 100) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Pourcentage doit être entre 1 et 100"})
		return
	}

	if req.Type == "fixed" && req.Value <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Montant fixe doit être positif"})
		return
	}

	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// Vérifier si le code existe déjà
	var existingCode string
	if err := ordersSession.Query(`SELECT code FROM coupons WHERE code = ? LIMIT 1`,
		strings.ToUpper(req.Code)).Scan(&existingCode); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Ce code coupon existe déjà"})
		return
	}

	userID := c.GetString("user_id")
	now := time.Now()

	if req.StartsAt.IsZero() {
		req.StartsAt = now
	}

	coupon := models.Coupon{
		ID:               gocql.TimeUUID(),
		Code:             strings.ToUpper(req.Code),
		Type:             req.Type,
		Value:            req.Value,
		MinAmount:        req.MinAmount,
		MaxAmount:        req.MaxAmount,
		MaxUses:          req.MaxUses,
		UsedCount:        0,
		MaxUsesPerUser:   req.MaxUsesPerUser,
		ApplicableToAll:  req.ApplicableToAll,
		ProductIDs:       req.ProductIDs,
		CategoryIDs:      req.CategoryIDs,
		NewCustomersOnly: req.NewCustomersOnly,
		CustomerIDs:      req.CustomerIDs,
		ExpiresAt:        req.ExpiresAt,
		StartsAt:         req.StartsAt,
		IsActive:         true,
		CreatedBy:        userID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	insertQuery := `
		INSERT INTO coupons (
			code, id, type, value, min_amount, max_amount, max_uses, used_count,
			max_uses_per_user, applicable_to_all, product_ids, category_ids,
			new_customers_only, customer_ids, expires_at, starts_at, is_active,
			created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if err := ordersSession.Query(insertQuery,
		coupon.Code, coupon.ID, coupon.Type, coupon.Value, coupon.MinAmount,
		coupon.MaxAmount, coupon.MaxUses, coupon.UsedCount, coupon.MaxUsesPerUser,
		coupon.ApplicableToAll, coupon.ProductIDs, coupon.CategoryIDs,
		coupon.NewCustomersOnly, coupon.CustomerIDs,
		coupon.ExpiresAt, coupon.StartsAt, coupon.IsActive, coupon.CreatedBy,
		coupon.CreatedAt, coupon.UpdatedAt,
	).Exec(); err != nil {
		log.Printf("❌ Erreur création coupon: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la création du coupon"})
		return
	}

	log.Printf("✅ Coupon créé: %s", coupon.Code)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Coupon créé avec succès",
		"coupon":  coupon,
	})
}

// ValidateCouponDetailed - Valider un coupon contre le panier courant de
// l'utilisateur (mêmes règles que le checkout, sans effet de bord)
func ValidateCouponDetailed(c *gin.Context) {
	code := c.Query("code")
	userID := c.GetString("user_id")

	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code coupon requis"})
		return
	}

	ctx := c.Request.Context()

	cart, err := loadCart(ctx, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide ou introuvable"})
		return
	}

	draft, err := snapshotCart(ctx, cart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
		return
	}

	_, validation := checkCoupon(ctx, code, userID, draft.Items)
	c.JSON(http.StatusOK, validation)
}

// GetAllCoupons - Récupérer tous les coupons (Admin)
func GetAllCoupons(c *gin.Context) {
	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	query := `SELECT code, id, type, value, min_amount, max_amount, max_uses, used_count,
			  max_uses_per_user, applicable_to_all, product_ids, category_ids,
			  new_customers_only, customer_ids, expires_at, starts_at, is_active,
			  created_by, created_at, updated_at FROM coupons`

	iter := ordersSession.Query(query).WithContext(c.Request.Context()).Iter()

	var coupons []models.Coupon
	var coupon models.Coupon

	for iter.Scan(&coupon.Code, &coupon.ID, &coupon.Type, &coupon.Value,
		&coupon.MinAmount, &coupon.MaxAmount, &coupon.MaxUses, &coupon.UsedCount,
		&coupon.MaxUsesPerUser, &coupon.ApplicableToAll, &coupon.ProductIDs,
		&coupon.CategoryIDs, &coupon.NewCustomersOnly, &coupon.CustomerIDs,
		&coupon.ExpiresAt, &coupon.StartsAt, &coupon.IsActive, &coupon.CreatedBy,
		&coupon.CreatedAt, &coupon.UpdatedAt) {
		coupons = append(coupons, coupon)
		coupon = models.Coupon{}
	}

	if err := iter.Close(); err != nil {
		log.Printf("❌ Erreur récupération coupons: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"coupons": coupons,
		"total":   len(coupons),
	})
}

// UpdateCoupon - Mettre à jour un coupon
func UpdateCoupon(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))

	var req struct {
		IsActive  *bool      `json:"is_active"`
		MaxUses   *int       `json:"max_uses"`
		ExpiresAt *time.Time `json:"expires_at"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	updates := []string{}
	values := []interface{}{}

	if req.IsActive != nil {
		updates = append(updates, "is_active = ?")
		values = append(values, *req.IsActive)
	}

	if req.MaxUses != nil {
		updates = append(updates, "max_uses = ?")
		values = append(values, *req.MaxUses)
	}

	if req.ExpiresAt != nil {
		updates = append(updates, "expires_at = ?")
		values = append(values, *req.ExpiresAt)
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucune mise à jour fournie"})
		return
	}

	updates = append(updates, "updated_at = ?")
	values = append(values, time.Now())
	values = append(values, code)

	query := fmt.Sprintf("UPDATE coupons SET %s WHERE code = ?", strings.Join(updates, ", "))

	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if err := ordersSession.Query(query, values...).WithContext(c.Request.Context()).Exec(); err != nil {
		log.Printf("❌ Erreur mise à jour coupon: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la mise à jour"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Coupon mis à jour avec succès"})
}

// DeleteCoupon - Supprimer un coupon
func DeleteCoupon(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))

	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if err := ordersSession.Query(`DELETE FROM coupons WHERE code = ?`, code).
		WithContext(c.Request.Context()).Exec(); err != nil {
		log.Printf("❌ Erreur suppression coupon: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la suppression"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Coupon supprimé avec succès"})
}

// ----- Pipeline de validation partagé checkout / endpoint de validation -----

func loadCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	stmt := database.GetPreparedGetCouponByCode()
	if stmt == nil {
		return nil, gocql.ErrNoConnections
	}

	var coupon models.Coupon
	if err := database.BindPrepared(ctx, stmt, strings.ToUpper(code)).Scan(
		&coupon.ID, &coupon.Code, &coupon.Type, &coupon.Value, &coupon.MinAmount,
		&coupon.MaxAmount, &coupon.MaxUses, &coupon.UsedCount, &coupon.MaxUsesPerUser,
		&coupon.ApplicableToAll, &coupon.ProductIDs, &coupon.CategoryIDs,
		&coupon.NewCustomersOnly, &coupon.CustomerIDs,
		&coupon.ExpiresAt, &coupon.StartsAt, &coupon.IsActive,
	); err != nil {
		return nil, err
	}
	return &coupon, nil
}

// checkCoupon déroule toutes les règles d'un coupon contre les lignes figées.
// Aucun effet de bord : l'usage n'est enregistré qu'à la conversion.
func checkCoupon(ctx context.Context, code, userID string, items []models.OrderItem) (*models.Coupon, models.CouponValidation) {
	invalid := func(msg string) (*models.Coupon, models.CouponValidation) {
		return nil, models.CouponValidation{IsValid: false, ErrorMessage: msg}
	}

	coupon, err := loadCouponByCode(ctx, code)
	if err != nil {
		return invalid("Code coupon invalide")
	}

	if ok, msg := coupon.IsValidAt(time.Now()); !ok {
		return invalid(msg)
	}

	// Restrictions client (nouveaux clients, allow-list)
	orderCount := 0
	if coupon.NewCustomersOnly {
		orderCount, err = countUserOrders(ctx, userID)
		if err != nil {
			log.Printf("⚠️ Comptage commandes impossible pour %s: %v", userID, err)
		}
	}
	if ok, msg := coupon.EligibleFor(userID, orderCount); !ok {
		return invalid(msg)
	}

	// Limite d'utilisation par client
	if coupon.MaxUsesPerUser > 0 {
		usage, err := userCouponUsage(ctx, coupon.ID, userID)
		if err == nil && usage >= coupon.MaxUsesPerUser {
			return invalid("Vous avez déjà utilisé ce coupon le nombre maximum de fois")
		}
	}

	var subtotal float64
	for _, item := range items {
		subtotal += item.Subtotal
	}
	if subtotal < coupon.MinAmount {
		return invalid(coupon.MinAmountMessage())
	}

	discount := coupon.DiscountFor(items)
	return coupon, models.CouponValidation{
		IsValid:  true,
		Discount: discount,
		Type:     coupon.Type,
		Code:     coupon.Code,
	}
}

func userCouponUsage(ctx context.Context, couponID gocql.UUID, userID string) (int, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return 0, err
	}
	var count int
	if err := session.Query(`SELECT COUNT(*) FROM coupon_usage WHERE coupon_id = ? AND user_id = ?`,
		couponID, userID).WithContext(ctx).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// recordCouponUsage incrémente le compteur global par CAS (deux checkouts
// concurrents ne peuvent pas dépasser max_uses) et trace l'usage par client.
func recordCouponUsage(ctx context.Context, coupon *models.Coupon, userID string, orderID gocql.UUID) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		var current int
		if err := session.Query(`SELECT used_count FROM coupons WHERE code = ?`, coupon.Code).
			WithContext(ctx).Scan(&current); err != nil {
			return err
		}

		if coupon.MaxUses > 0 && current >= coupon.MaxUses {
			return models.ErrConflict
		}

		var prev int
		applied, err := session.Query(`UPDATE coupons SET used_count = ? WHERE code = ? IF used_count = ?`,
			current+1, coupon.Code, current).WithContext(ctx).ScanCAS(&prev)
		if err != nil {
			return err
		}
		if !applied {
			continue
		}

		return session.Query(`INSERT INTO coupon_usage (coupon_id, user_id, id, order_id, used_at)
			VALUES (?, ?, ?, ?, ?)`,
			coupon.ID, userID, gocql.TimeUUID(), orderID, time.Now()).WithContext(ctx).Exec()
	}
	return models.ErrConflict
}
