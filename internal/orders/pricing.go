// Package orders contient le cœur du cycle de vie commande : snapshot du
// panier, calcul des montants et réconciliation des paiements. Tout est pur
// et testable sans base de données, les handlers se chargent de persister.
package orders

import "orane_back_end/internal/models"

// Totals : montants calculés d'une commande. Clamped signale qu'un total
// négatif a été ramené à 0 — bug de configuration tarifaire en amont,
// jamais une erreur client.
type Totals struct {
	Subtotal float64
	Tax      float64
	Total    float64
	Clamped  bool
}

// ComputeTotals calcule subtotal, taxe et total à partir des lignes figées.
// Le taux de taxe vient du fournisseur externe (voir internal/rates).
// Invariant : Total = Subtotal + shippingCost + Tax - discount, jamais négatif.
func ComputeTotals(items []models.OrderItem, shippingCost, tax, discount float64) Totals {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Subtotal
	}

	total := subtotal + shippingCost + tax - discount
	clamped := false
	if total < 0 {
		total = 0
		clamped = true
	}

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    total,
		Clamped:  clamped,
	}
}
