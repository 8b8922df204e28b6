package models

import "errors"

// Erreurs métier du cycle de vie commande. Les handlers les traduisent en
// statuts HTTP, jamais l'inverse.
var (
	ErrEmptyCart         = errors.New("panier vide")
	ErrCartConverted     = errors.New("panier déjà converti en commande")
	ErrInsufficientStock = errors.New("stock insuffisant")
	ErrInvalidTransition = errors.New("transition de statut invalide")
	ErrPaymentMismatch   = errors.New("montant du paiement différent du total de la commande")
	ErrDuplicatePayment  = errors.New("transaction déjà enregistrée")
	ErrConflict          = errors.New("modification concurrente détectée")
)

// ValidationError : entrée malformée, rejetée avant tout effet de bord
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}
