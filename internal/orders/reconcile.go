package orders

import (
	"math"
	"time"

	"orane_back_end/internal/models"
)

// Réconciliation des événements de paiement externes avec la paire
// commande/paiement. Fonctions pures : elles mutent les valeurs passées
// et laissent la persistance (avec CAS sur le statut lu) aux handlers.
// En cas d'erreur, commande et paiement restent inchangés.

// ApplyProofUploaded attache une preuve de virement à une commande en
// attente. Récupérable : après un rejet, le client peut re-soumettre.
func ApplyProofUploaded(o *models.Order, p *models.Payment, proofURL string, now time.Time) error {
	if o.Status != models.StatusPending {
		return models.ErrInvalidTransition
	}

	o.PaymentStatus = models.PaymentStatusVerification
	o.PaymentDetails.Method = "bank_transfer"
	o.PaymentDetails.ProofURL = proofURL
	o.PaymentDetails.SubmittedAt = &now
	o.PaymentDetails.RejectionReason = ""
	o.PaymentMethod = o.PaymentDetails.Method
	o.UpdatedAt = now

	p.OrderID = o.ID
	p.UserID = o.UserID
	p.Amount = o.TotalAmount
	p.Method = "bank_transfer"
	p.Status = models.PaymentPending
	p.ProofURL = proofURL
	p.CreatedAt = now
	return nil
}

// ApplyVerified fait passer la commande en paid après vérification manuelle.
// Un écart entre le montant du paiement et le total de la commande bloque la
// transition avec ErrPaymentMismatch — jamais accepté silencieusement.
func ApplyVerified(o *models.Order, p *models.Payment, verifierID string, now time.Time) error {
	if o.Status != models.StatusPending {
		return models.ErrInvalidTransition
	}
	if math.Abs(p.Amount-o.TotalAmount) >= 0.01 {
		return models.ErrPaymentMismatch
	}
	if err := o.Transition(models.StatusPaid); err != nil {
		return err
	}

	o.PaymentStatus = models.PaymentStatusPaid
	o.PaymentDetails.VerifiedAt = &now
	o.PaymentDetails.VerifiedBy = verifierID
	o.PaymentDetails.RejectionReason = ""
	o.UpdatedAt = now

	p.Status = models.PaymentCompleted
	p.UpdatedAt = &now
	return nil
}

// ApplyRejected refuse la preuve soumise. La commande reste en pending et le
// motif est conservé pour affichage — le client peut re-soumettre.
func ApplyRejected(o *models.Order, p *models.Payment, reason string, now time.Time) error {
	if o.Status != models.StatusPending || o.PaymentStatus != models.PaymentStatusVerification {
		return models.ErrInvalidTransition
	}

	o.PaymentStatus = models.PaymentStatusPending
	o.PaymentDetails.RejectionReason = reason
	o.UpdatedAt = now

	p.Status = models.PaymentFailed
	p.UpdatedAt = &now
	return nil
}

// ApplyWebhookConfirmed applique une confirmation de paiement externe
// (webhook Stripe). L'unicité du transaction id est garantie par la table
// payments_by_transaction (INSERT ... IF NOT EXISTS), pas ici.
func ApplyWebhookConfirmed(o *models.Order, p *models.Payment, transactionID string, amount float64, now time.Time) error {
	if o.Status != models.StatusPending {
		return models.ErrInvalidTransition
	}
	if math.Abs(amount-o.TotalAmount) >= 0.01 {
		return models.ErrPaymentMismatch
	}
	if err := o.Transition(models.StatusPaid); err != nil {
		return err
	}

	o.PaymentStatus = models.PaymentStatusPaid
	o.PaymentDetails.Method = "card"
	o.PaymentDetails.TransactionID = transactionID
	o.PaymentDetails.VerifiedAt = &now
	o.PaymentMethod = o.PaymentDetails.Method
	o.UpdatedAt = now

	p.OrderID = o.ID
	p.UserID = o.UserID
	p.Amount = amount
	p.Method = "card"
	p.Status = models.PaymentCompleted
	p.TransactionID = transactionID
	p.CreatedAt = now
	return nil
}

// ApplyCancelled annule une commande (client, admin ou sweeper d'expiration,
// même chemin de code). La libération du stock est gérée par le ledger.
func ApplyCancelled(o *models.Order, reason string, now time.Time) error {
	if !o.CanBeCancelled() {
		return models.ErrInvalidTransition
	}
	if err := o.Transition(models.StatusCancelled); err != nil {
		return err
	}
	o.CancelReason = reason
	o.UpdatedAt = now
	return nil
}

// ApplyRefunded passe une commande payée en refunded
func ApplyRefunded(o *models.Order, reason string, now time.Time) error {
	if !o.CanBeRefunded() {
		return models.ErrInvalidTransition
	}
	if err := o.Transition(models.StatusRefunded); err != nil {
		return err
	}
	o.PaymentStatus = models.PaymentStatusRefunded
	o.CancelReason = reason
	o.UpdatedAt = now
	return nil
}
