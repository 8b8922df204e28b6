package models

import (
	"math"
	"time"

	"github.com/gocql/gocql"
)

// Statuts de commande
const (
	StatusPending    = "pending"
	StatusPaid       = "paid"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"
	StatusFailed     = "failed" // réservation de stock échouée après création
)

// Sous-statuts de paiement (indépendants du statut de commande)
const (
	PaymentStatusPending      = "pending"
	PaymentStatusVerification = "pending_verification"
	PaymentStatusPaid         = "paid"
	PaymentStatusRefunded     = "refunded"
)

// orderTransitions : table des transitions légales. Tout ce qui n'y figure
// pas est rejeté avec ErrInvalidTransition, sans écriture partielle.
var orderTransitions = map[string][]string{
	StatusPending:    {StatusPaid, StatusCancelled, StatusFailed},
	StatusPaid:       {StatusProcessing, StatusCancelled, StatusRefunded},
	StatusProcessing: {StatusShipped, StatusRefunded},
	StatusShipped:    {StatusDelivered, StatusRefunded},
	StatusDelivered:  {},
	StatusCancelled:  {},
	StatusRefunded:   {},
	StatusFailed:     {},
}

// CanTransition indique si le passage from → to est autorisé
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus : aucun départ possible depuis ce statut
func IsTerminalStatus(status string) bool {
	return len(orderTransitions[status]) == 0
}

type Order struct {
	ID              gocql.UUID     `json:"id"`
	OrderNumber     string         `json:"order_number"` // assigné à la création, jamais régénéré
	UserID          string         `json:"user_id"`
	Email           string         `json:"email"`
	Items           []OrderItem    `json:"items"`
	ShippingAddress Address        `json:"shipping_address"`
	Subtotal        float64        `json:"subtotal"`
	ShippingCost    float64        `json:"shipping_cost"`
	Tax             float64        `json:"tax"`
	Discount        float64        `json:"discount"`
	TotalAmount     float64        `json:"total_amount"`
	CouponCode      string         `json:"coupon_code,omitempty"`
	Status          string         `json:"status"`
	PaymentStatus   string         `json:"payment_status"`
	PaymentMethod   string         `json:"payment_method,omitempty"` // copie dénormalisée de PaymentDetails.Method
	PaymentDetails  PaymentDetails `json:"payment_details"`
	Tracking        Tracking       `json:"tracking"`
	CancelReason    string         `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// OrderItem : ligne figée au moment du snapshot, jamais resynchronisée
// avec le prix catalogue
type OrderItem struct {
	ProductID  gocql.UUID `json:"product_id"`
	CategoryID gocql.UUID `json:"category_id"`
	Name       string     `json:"name"`
	Quantity   int        `json:"quantity"`
	UnitPrice  float64    `json:"unit_price"`
	Subtotal   float64    `json:"subtotal"`
}

// PaymentDetails : Method est la source de vérité, Order.PaymentMethod
// n'est qu'une copie en lecture
type PaymentDetails struct {
	Method          string     `json:"method,omitempty"` // "bank_transfer", "card"
	TransactionID   string     `json:"transaction_id,omitempty"`
	ProofURL        string     `json:"proof_url,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	VerifiedBy      string     `json:"verified_by,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
}

type Tracking struct {
	Carrier        string     `json:"carrier,omitempty"`
	TrackingNumber string     `json:"tracking_number,omitempty"`
	ShippedDate    *time.Time `json:"shipped_date,omitempty"`
	DeliveredDate  *time.Time `json:"delivered_date,omitempty"`
}

// CanBeCancelled : annulation possible tant que la commande n'est pas
// partie en préparation
func (o *Order) CanBeCancelled() bool {
	return o.Status == StatusPending || o.Status == StatusPaid
}

// CanBeRefunded : remboursement possible une fois payée et avant livraison
func (o *Order) CanBeRefunded() bool {
	return o.Status == StatusPaid || o.Status == StatusProcessing || o.Status == StatusShipped
}

// Transition vérifie la table puis applique le nouveau statut.
// La commande n'est pas modifiée si la transition est illégale.
func (o *Order) Transition(to string) error {
	if !CanTransition(o.Status, to) {
		return ErrInvalidTransition
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return nil
}

// TotalIsConsistent vérifie l'invariant total = subtotal + shipping + tax - discount
func (o *Order) TotalIsConsistent() bool {
	expected := o.Subtotal + o.ShippingCost + o.Tax - o.Discount
	if expected < 0 {
		expected = 0
	}
	return math.Abs(o.TotalAmount-expected) < 0.01
}
