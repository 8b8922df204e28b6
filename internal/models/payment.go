package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts d'une tentative de paiement
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentCancelled = "cancelled"
	PaymentRefunded  = "refunded"
)

// Payment : tentative de paiement. Une commande peut en accumuler plusieurs
// (nouvel essai après rejet), aucune n'est jamais supprimée (piste d'audit).
type Payment struct {
	ID            gocql.UUID `json:"id"`
	OrderID       gocql.UUID `json:"order_id"`
	UserID        string     `json:"user_id"`
	Amount        float64    `json:"amount"`
	Method        string     `json:"method"` // "bank_transfer", "card"
	Status        string     `json:"status"`
	TransactionID string     `json:"transaction_id,omitempty"` // unique quand présent
	ProofURL      string     `json:"proof_url,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}
