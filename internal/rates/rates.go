// Package rates fournit les taux de taxe et frais de port. Le cœur commande
// ne fait que consommer les montants — le calcul réel appartient à un
// fournisseur externe, ici une implémentation statique configurée par .env.
package rates

import (
	"os"
	"strconv"

	"orane_back_end/internal/models"
)

// EnvProvider : taux et options lus depuis l'environnement au démarrage
type EnvProvider struct {
	DefaultTaxRate float64
	FreeThreshold  float64
}

func NewEnvProvider() *EnvProvider {
	p := &EnvProvider{
		DefaultTaxRate: 0,
		FreeThreshold:  50.0,
	}
	if v, err := strconv.ParseFloat(os.Getenv("TAX_RATE"), 64); err == nil {
		p.DefaultTaxRate = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("SHIPPING_FREE_THRESHOLD"), 64); err == nil {
		p.FreeThreshold = v
	}
	return p
}

// TaxRate retourne le taux de taxe applicable à une destination (ex: 0.21)
func (p *EnvProvider) TaxRate(country string) float64 {
	return p.DefaultTaxRate
}

func (p *EnvProvider) ShippingOptions(cartTotal float64) models.ShippingCalculation {
	isFree := cartTotal >= p.FreeThreshold

	options := []models.ShippingOption{
		{
			ID:            "standard",
			Name:          "Livraison Standard",
			Description:   "Livraison en 5-7 jours ouvrés",
			Price:         5.99,
			EstimatedDays: 7,
		},
		{
			ID:            "express",
			Name:          "Livraison Express",
			Description:   "Livraison en 2-3 jours ouvrés",
			Price:         12.99,
			EstimatedDays: 3,
		},
		{
			ID:            "next_day",
			Name:          "Livraison 24h",
			Description:   "Livraison le lendemain avant 18h",
			Price:         19.99,
			EstimatedDays: 1,
		},
	}

	// Livraison standard offerte au-dessus du seuil
	if isFree {
		options[0].Price = 0
		options[0].Name = "Livraison Standard Gratuite"
	}

	return models.ShippingCalculation{
		Options:       options,
		FreeThreshold: p.FreeThreshold,
		CartTotal:     cartTotal,
		IsFree:        isFree,
	}
}

// Option retourne l'option demandée (et son prix), false si inconnue
func (p *EnvProvider) Option(id string, cartTotal float64) (models.ShippingOption, bool) {
	calc := p.ShippingOptions(cartTotal)
	for _, opt := range calc.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return models.ShippingOption{}, false
}
