package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Product struct {
	ID                gocql.UUID `json:"id" db:"product_id"`
	Name              string     `json:"name" db:"name"`
	Description       string     `json:"description" db:"description"`
	Price             float64    `json:"price" db:"price"`
	Stock             int        `json:"stock" db:"stock"`
	StockReserved     int        `json:"stock_reserved" db:"stock_reserved"`
	LowStockThreshold int        `json:"low_stock_threshold" db:"low_stock_threshold"`
	SKU               string     `json:"sku" db:"sku"`
	Weight            float64    `json:"weight" db:"weight"`
	CategoryID        gocql.UUID `json:"category_id" db:"category_id"`
	ImageURLs         []string   `json:"image_urls" db:"image_urls"`
	IsActive          bool       `json:"is_active" db:"is_active"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// Available : stock réellement vendable (les réservations en attente de
// paiement sont déjà déduites)
func (p *Product) Available() int {
	return p.Stock - p.StockReserved
}

// StockStatus : dérivé, jamais persisté
func (p *Product) StockStatus() string {
	available := p.Available()
	switch {
	case available <= 0:
		return "out_of_stock"
	case available <= p.LowStockThreshold:
		return "low_stock"
	default:
		return "in_stock"
	}
}
