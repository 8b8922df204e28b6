// Package inventory gère les réservations de stock par commande.
// Réserver bloque la quantité (stock_reserved), finaliser la décompte
// définitivement au passage en paid, libérer la rend au stock disponible.
// Release est idempotent : libérer une réservation déjà libérée est un no-op.
package inventory

import (
	"context"

	"github.com/gocql/gocql"

	"orane_back_end/internal/models"
)

type Ledger interface {
	// Reserve bloque le stock pour toutes les lignes, tout ou rien.
	// Deux réservations concurrentes de la dernière unité : une seule passe.
	Reserve(ctx context.Context, orderID gocql.UUID, items []models.OrderItem) error

	// Finalize décompte définitivement le stock réservé (transition paid)
	Finalize(ctx context.Context, orderID gocql.UUID) error

	// Release rend le stock : réservation simple → déblocage, réservation
	// finalisée (commande payée puis annulée) → retour en stock
	Release(ctx context.Context, orderID gocql.UUID) error
}
