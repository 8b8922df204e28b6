package models

import (
	"fmt"
	"math"
	"time"

	"github.com/gocql/gocql"
)

type Coupon struct {
	ID               gocql.UUID `json:"id"`
	Code             string     `json:"code"`
	Type             string     `json:"type"` // "percentage", "fixed"
	Value            float64    `json:"value"`
	MinAmount        float64    `json:"min_amount"`
	MaxAmount        *float64   `json:"max_amount,omitempty"` // plafond de réduction (percentage seulement)
	MaxUses          int        `json:"max_uses"`
	UsedCount        int        `json:"used_count"`
	MaxUsesPerUser   int        `json:"max_uses_per_user"`
	ApplicableToAll  bool       `json:"applicable_to_all"`
	ProductIDs       []string   `json:"product_ids,omitempty"`
	CategoryIDs      []string   `json:"category_ids,omitempty"`
	NewCustomersOnly bool       `json:"new_customers_only"`
	CustomerIDs      []string   `json:"customer_ids,omitempty"` // allow-list, vide = tous
	ExpiresAt        time.Time  `json:"expires_at"`
	StartsAt         time.Time  `json:"starts_at"`
	IsActive         bool       `json:"is_active"`
	CreatedBy        string     `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type CouponUsage struct {
	ID       gocql.UUID `json:"id"`
	CouponID gocql.UUID `json:"coupon_id"`
	UserID   string     `json:"user_id"`
	OrderID  gocql.UUID `json:"order_id"`
	UsedAt   time.Time  `json:"used_at"`
}

type CouponValidation struct {
	IsValid      bool    `json:"is_valid"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Discount     float64 `json:"discount"`
	Type         string  `json:"type"`
	Code         string  `json:"code"`
}

// IsValidAt : actif, dans la fenêtre de validité, et sous le plafond global
func (cp *Coupon) IsValidAt(now time.Time) (bool, string) {
	if !cp.IsActive {
		return false, "Ce coupon n'est plus actif"
	}
	if now.Before(cp.StartsAt) {
		return false, "Ce coupon n'est pas encore valide"
	}
	if now.After(cp.ExpiresAt) {
		return false, "Ce coupon a expiré"
	}
	if cp.MaxUses > 0 && cp.UsedCount >= cp.MaxUses {
		return false, "Ce coupon a atteint sa limite d'utilisation"
	}
	return true, ""
}

// EligibleFor vérifie les restrictions client : réservé aux nouveaux clients,
// allow-list de clients spécifiques
func (cp *Coupon) EligibleFor(userID string, customerOrderCount int) (bool, string) {
	if cp.NewCustomersOnly && customerOrderCount > 0 {
		return false, "Ce coupon est réservé aux nouveaux clients"
	}
	if len(cp.CustomerIDs) > 0 {
		for _, id := range cp.CustomerIDs {
			if id == userID {
				return true, ""
			}
		}
		return false, "Ce coupon ne vous est pas destiné"
	}
	return true, ""
}

// DiscountFor calcule la réduction sur les lignes figées de la commande.
// La base est le sous-total complet, ou seulement les lignes correspondant
// aux produits/catégories ciblés si le coupon est restreint.
// Invariant : 0 ≤ discount ≤ subtotal.
func (cp *Coupon) DiscountFor(items []OrderItem) float64 {
	var subtotal, base float64
	for _, item := range items {
		subtotal += item.Subtotal
		if cp.matchesItem(item) {
			base += item.Subtotal
		}
	}

	if subtotal < cp.MinAmount {
		return 0
	}

	var discount float64
	switch cp.Type {
	case "percentage":
		discount = math.Round(base * cp.Value / 100)
		if cp.MaxAmount != nil && discount > *cp.MaxAmount {
			discount = *cp.MaxAmount
		}
	case "fixed":
		discount = cp.Value
		if discount > base {
			discount = base
		}
	}

	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// matchesItem : la ligne entre-t-elle dans la base de réduction ?
func (cp *Coupon) matchesItem(item OrderItem) bool {
	if cp.ApplicableToAll || (len(cp.ProductIDs) == 0 && len(cp.CategoryIDs) == 0) {
		return true
	}
	for _, id := range cp.ProductIDs {
		if id == item.ProductID.String() {
			return true
		}
	}
	for _, id := range cp.CategoryIDs {
		if id == item.CategoryID.String() {
			return true
		}
	}
	return false
}

// MinAmountMessage : message utilisateur quand le minimum d'achat n'est pas atteint
func (cp *Coupon) MinAmountMessage() string {
	return fmt.Sprintf("Montant minimum requis: %.2f€", cp.MinAmount)
}
