package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts d'une réservation de stock
const (
	ReservationReserved  = "reserved"  // quantité bloquée, pas encore décomptée
	ReservationFinalized = "finalized" // décompte définitif au passage en paid
	ReservationReleased  = "released"  // rendue au stock disponible
)

// Reservation : revendication provisoire de stock portée par une commande.
// Une ligne par produit, le statut rend Release idempotent.
type Reservation struct {
	OrderID   gocql.UUID `json:"order_id"`
	ProductID gocql.UUID `json:"product_id"`
	Quantity  int        `json:"quantity"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type StockMovement struct {
	ID        gocql.UUID  `json:"id"`
	ProductID gocql.UUID  `json:"product_id"`
	Type      string      `json:"type"` // "sale", "restock", "return", "adjustment", "reserved"
	Quantity  int         `json:"quantity"`
	PrevStock int         `json:"prev_stock"`
	NewStock  int         `json:"new_stock"`
	Reason    string      `json:"reason"`
	OrderID   *gocql.UUID `json:"order_id,omitempty"`
	UserID    string      `json:"user_id"`
	CreatedAt time.Time   `json:"created_at"`
}
